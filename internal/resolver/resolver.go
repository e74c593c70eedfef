// Package resolver maps an extracted client name onto exactly one registry
// record. Matching is exact on the normalized name; there is no fuzzy path.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/RabowNicholas/swna-automation/internal/registry"
	"github.com/RabowNicholas/swna-automation/internal/services"
)

// Resolver looks clients up in a registry.
type Resolver struct {
	registry registry.Client
}

// New returns a resolver over client.
func New(client registry.Client) *Resolver {
	return &Resolver{registry: client}
}

// AmbiguousError lists the records that matched the same name.
type AmbiguousError struct {
	Name       string
	Candidates []registry.Record
	err        error
}

func (e *AmbiguousError) Error() string { return e.err.Error() }

func (e *AmbiguousError) Unwrap() error { return e.err }

// CandidateNames returns the display names of the matching records.
func (e *AmbiguousError) CandidateNames() []string {
	names := make([]string, 0, len(e.Candidates))
	for _, c := range e.Candidates {
		names = append(names, c.DisplayName)
	}
	return names
}

// Resolve returns the single record whose display name, with disambiguators
// stripped, equals clientName. Zero matches fail with ErrClientNotFound and
// more than one with ErrClientAmbiguous.
func (r *Resolver) Resolve(ctx context.Context, clientName string) (registry.Record, error) {
	key := registry.MatchKey(clientName)
	if key == "" {
		return registry.Record{}, services.Wrap(services.ErrClientNotFound, services.StageResolve, "match", "empty client name", nil)
	}

	candidates, err := r.registry.FindByName(ctx, strings.TrimSpace(clientName))
	if err != nil {
		return registry.Record{}, err
	}

	var matches []registry.Record
	for _, rec := range candidates {
		if registry.MatchKey(rec.DisplayName) == key {
			matches = append(matches, rec)
		}
	}

	switch len(matches) {
	case 0:
		return registry.Record{}, services.Wrap(services.ErrClientNotFound, services.StageResolve, "match",
			fmt.Sprintf("no registry record named %q (%d candidates checked)", clientName, len(candidates)), nil)
	case 1:
		return matches[0], nil
	default:
		ambiguous := &AmbiguousError{Name: clientName, Candidates: matches}
		ambiguous.err = services.Wrap(services.ErrClientAmbiguous, services.StageResolve, "match",
			fmt.Sprintf("%d registry records named %q: %s", len(matches), clientName, strings.Join(ambiguous.CandidateNames(), " | ")), nil)
		return registry.Record{}, ambiguous
	}
}
