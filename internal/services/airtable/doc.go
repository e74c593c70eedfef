// Package airtable implements registry.Client against the Airtable REST API.
//
// Requests are rate limited with a token bucket and bounded by a per-call
// timeout. Failures are tagged services.ErrRegistryAPI, and deadline expiry
// additionally carries services.ErrTimeout.
package airtable
