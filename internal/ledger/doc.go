// Package ledger persists one row per terminal document outcome in SQLite.
//
// Rows flagged needs_reconciliation form the manual review queue: registry
// updates that may have landed without the matching file move. An operator
// clears a flag with a resolution note; rows are never deleted.
package ledger
