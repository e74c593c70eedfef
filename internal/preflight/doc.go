// Package preflight provides readiness checks for the folders and external
// services swna depends on.
//
// Filing commands call CheckDirectories before a session starts so a run never
// begins against a missing inbox or client tree. The CLI "swna status" command
// runs RunAll, which adds the registry and notification checks.
package preflight
