// Package config loads, normalizes, and validates swna configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// AIRTABLE_PAT and SYNC_FOLDER_PATH. The Config type centralizes every knob
// the CLI and pipeline need, so inbox, client tree and registry credentials
// are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
