// Package textutil normalizes extracted document text and sanitizes file
// names.
//
// Normalize keeps line breaks for label-based field rules; MatchingForm
// produces the single-line lowercase text that classification anchors are
// compared against.
package textutil
