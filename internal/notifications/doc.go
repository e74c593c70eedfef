// Package notifications pushes operator alerts to ntfy.
//
// Alerts cover commits left inconsistent, registry failures that need a
// manual check, per-document failures and run summaries. Each class can be
// switched off in config.toml, and the whole service degrades to a no-op when
// no topic is configured.
package notifications
