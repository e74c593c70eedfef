// Package registry defines the client registry contract consumed by the
// resolver and the commit orchestrator.
//
// Records are owned by the external registry. This module only reads them,
// sets the case id field and appends to the log field; display names and
// their disambiguator tags are never written.
package registry
