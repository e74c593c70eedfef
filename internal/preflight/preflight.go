package preflight

import (
	"context"
	"strings"

	"github.com/RabowNicholas/swna-automation/internal/config"
	"github.com/RabowNicholas/swna-automation/internal/registry"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// CheckDirectories verifies the folders a filing run reads from and writes to.
func CheckDirectories(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{
		CheckDirectoryAccess("Inbox", cfg.Paths.InboxDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
	}
	if strings.TrimSpace(cfg.Paths.ClientsRoot) != "" {
		results = append(results, CheckDirectoryAccess("Active clients", cfg.ActiveClientsDir()))
	}
	return results
}

// RunAll executes the directory checks plus the registry and notification
// checks. A nil registry skips the registry probe.
func RunAll(ctx context.Context, cfg *config.Config, reg registry.Client) []Result {
	if cfg == nil {
		return nil
	}
	results := CheckDirectories(cfg)
	if reg != nil {
		results = append(results, CheckRegistry(ctx, reg, cfg.RegistryTimeout()))
	}
	results = append(results, CheckNotifications(cfg.Notifications))
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
