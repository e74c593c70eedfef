// Package extractor pulls the case id, client name and label qualifiers out
// of a classified letter.
//
// Extraction is all-or-nothing: a missing required field fails with
// services.ErrMissingField and differing candidates fail with
// services.ErrAmbiguousField. Client names are normalized to "Last, First".
package extractor
