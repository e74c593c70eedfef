// Package services defines shared utilities consumed by the pipeline stages and
// external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp document IDs, stage names, session and
//     correlation identifiers for logging and auditing.
//   - Structured error markers for the document failure taxonomy plus the Wrap
//     helper and Code mapping that turn failures into stable reason codes.
//
// Registry integrations live in subpackages (see services/airtable). Use these
// helpers when wiring new stage logic so failure reporting stays uniform
// across the pipeline.
package services
