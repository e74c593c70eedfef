// Package pipeline is the commit orchestrator. It drives one document at a
// time through read, classify, extract, resolve and validate, then performs
// the two-step commit: registry update first, file move second.
//
// Every stage before the commit is read-only. The commit runs under the
// client's key lock and is never interrupted by run cancellation. A move that
// fails after the registry was updated ends in an inconsistent FAILED outcome
// that is surfaced through the audit stream, the ledger and ntfy rather than
// rolled back.
package pipeline
