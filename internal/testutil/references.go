package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/vk/irispipe/internal/datamodels"
)

// Lookup records one reference resolution.
type Lookup struct {
	Instrument string
	RefType    string
}

// StaticRefs resolves reference types to fixed paths and records every call.
type StaticRefs struct {
	Paths map[string]string

	mu      sync.Mutex
	lookups []Lookup
}

// Resolve implements engine.References.
func (s *StaticRefs) Resolve(_ context.Context, instrument, refType string, _ *datamodels.Meta) (string, error) {
	s.mu.Lock()
	s.lookups = append(s.lookups, Lookup{Instrument: instrument, RefType: refType})
	s.mu.Unlock()

	path, ok := s.Paths[refType]
	if !ok {
		return "", fmt.Errorf("no %s reference in fixture", refType)
	}
	return path, nil
}

// Lookups returns the resolutions made so far.
func (s *StaticRefs) Lookups() []Lookup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Lookup(nil), s.lookups...)
}
