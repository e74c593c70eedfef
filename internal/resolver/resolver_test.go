package resolver_test

import (
	"context"
	"errors"
	"testing"

	"github.com/RabowNicholas/swna-automation/internal/registry"
	"github.com/RabowNicholas/swna-automation/internal/resolver"
	"github.com/RabowNicholas/swna-automation/internal/services"
)

func TestResolveExactMatch(t *testing.T) {
	mem := registry.NewMemory(
		registry.Record{ID: "rec1", DisplayName: "Smith, John (B)"},
		registry.Record{ID: "rec2", DisplayName: "Smith, Johnny"},
	)
	rec, err := resolver.New(mem).Resolve(context.Background(), "Smith, John")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if rec.ID != "rec1" || rec.DisplayName != "Smith, John (B)" {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestResolveNotFound(t *testing.T) {
	mem := registry.NewMemory(registry.Record{DisplayName: "Smith, Johnny"})
	_, err := resolver.New(mem).Resolve(context.Background(), "Smith, John")
	if !errors.Is(err, services.ErrClientNotFound) {
		t.Fatalf("expected client not found, got %v", err)
	}
}

func TestResolveAmbiguous(t *testing.T) {
	mem := registry.NewMemory(
		registry.Record{DisplayName: "Smith, John (A)"},
		registry.Record{DisplayName: "Smith, John - 2019"},
	)
	_, err := resolver.New(mem).Resolve(context.Background(), "Smith, John")
	if !errors.Is(err, services.ErrClientAmbiguous) {
		t.Fatalf("expected client ambiguous, got %v", err)
	}
	var ambiguous *resolver.AmbiguousError
	if !errors.As(err, &ambiguous) || len(ambiguous.CandidateNames()) != 2 {
		t.Fatalf("expected both candidates, got %v", err)
	}
}

func TestResolvePropagatesRegistryErrors(t *testing.T) {
	mem := registry.NewMemory()
	mem.FindErr = services.Wrap(services.ErrRegistryAPI, services.StageResolve, "find record", "", errors.New("503"))
	_, err := resolver.New(mem).Resolve(context.Background(), "Smith, John")
	if !errors.Is(err, services.ErrRegistryAPI) {
		t.Fatalf("expected registry error, got %v", err)
	}
}
