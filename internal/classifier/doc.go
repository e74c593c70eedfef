// Package classifier assigns scanned correspondence to a known letter type.
//
// A Table holds the ordered, immutable signatures; each signature lists
// anchors that must all be present, optional alternatives per anchor, and
// disqualifying phrases that separate sibling types. Classify is a pure
// function of the text and the table: a full anchor match scores 1.0, a
// partial match scores the matched fraction clipped below 1.0, and two
// signatures tied at or above the threshold yield StatusAmbiguous rather
// than a pick.
package classifier
