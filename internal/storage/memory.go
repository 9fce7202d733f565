package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/twobeeb/schema-registry/internal/model"
)

// Memory is an in-process Store for single-node deployments and tests.
// It survives engine restarts within the same process, which is what the
// replay tests rely on.
type Memory struct {
	mu       sync.Mutex
	schemas  []*model.Schema
	versions map[string][]model.VersionEntry
}

func NewMemory() *Memory {
	return &Memory{versions: make(map[string][]model.VersionEntry)}
}

func (m *Memory) PutSchema(_ context.Context, s *model.Schema) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.schemas = append(m.schemas, &cp)
	return nil
}

func (m *Memory) AppendVersion(_ context.Context, e model.VersionEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.versions[e.Subject] = append(m.versions[e.Subject], e)
	return nil
}

func (m *Memory) Load(_ context.Context) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := &Snapshot{
		Schemas:  make([]*model.Schema, 0, len(m.schemas)),
		Versions: make(map[string][]model.VersionEntry, len(m.versions)),
	}
	for _, s := range m.schemas {
		cp := *s
		snap.Schemas = append(snap.Schemas, &cp)
	}
	sort.Slice(snap.Schemas, func(i, j int) bool { return snap.Schemas[i].ID < snap.Schemas[j].ID })
	for subject, entries := range m.versions {
		cp := make([]model.VersionEntry, len(entries))
		copy(cp, entries)
		sort.Slice(cp, func(i, j int) bool { return cp[i].Version < cp[j].Version })
		snap.Versions[subject] = cp
	}
	return snap, nil
}
