package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/twobeeb/schema-registry/internal/canonical"
	"github.com/twobeeb/schema-registry/internal/model"
	"github.com/twobeeb/schema-registry/internal/storage"
)

// globalStore is the single authority mapping canonical content to global
// schema ids. Allocation is serialized through its write lock, so for any
// distinct content at most one id is ever created, and ids are assigned
// 1, 2, 3, ... with no gaps or reuse.
type globalStore struct {
	store storage.Store

	mu            sync.RWMutex
	byFingerprint map[string]int64
	byID          map[int64]*model.Schema
	nextID        int64
}

func newGlobalStore(store storage.Store) *globalStore {
	return &globalStore{
		store:         store,
		byFingerprint: make(map[string]int64),
		byID:          make(map[int64]*model.Schema),
	}
}

// restore replays persisted schemas into the in-memory indexes.
// Schemas must arrive in ascending id order.
func (g *globalStore) restore(schemas []*model.Schema) error {
	for _, s := range schemas {
		if s.ID <= g.nextID {
			return fmt.Errorf("corrupt store: schema id %d out of order", s.ID)
		}
		if _, ok := g.byFingerprint[s.Fingerprint]; ok {
			return fmt.Errorf("corrupt store: duplicate fingerprint for schema id %d", s.ID)
		}
		g.byFingerprint[s.Fingerprint] = s.ID
		g.byID[s.ID] = s
		g.nextID = s.ID
	}
	return nil
}

// getOrCreate returns the id for content, allocating the next unused id if
// the content has never been seen. The check and the allocation happen under
// one critical section, so concurrent callers with identical content all
// observe the single winner's id. The mapping is persisted before the
// allocation becomes visible; on a storage failure nothing changes.
func (g *globalStore) getOrCreate(ctx context.Context, c canonical.Content) (int64, bool, error) {
	if id, ok := g.lookup(c); ok {
		return id, false, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if id, ok := g.byFingerprint[c.Fingerprint]; ok {
		return id, false, nil
	}

	s := &model.Schema{
		ID:          g.nextID + 1,
		SchemaType:  c.Type,
		Schema:      c.Text,
		Fingerprint: c.Fingerprint,
		CreatedAt:   time.Now().UTC(),
	}
	if err := g.store.PutSchema(ctx, s); err != nil {
		return 0, false, err
	}
	g.nextID = s.ID
	g.byFingerprint[s.Fingerprint] = s.ID
	g.byID[s.ID] = s
	return s.ID, true, nil
}

// get returns the schema stored under id.
func (g *globalStore) get(id int64) (*model.Schema, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s, ok := g.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrSchemaNotFound, id)
	}
	return s, nil
}

// lookup is the read-only half of getOrCreate: it never allocates.
func (g *globalStore) lookup(c canonical.Content) (int64, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	id, ok := g.byFingerprint[c.Fingerprint]
	return id, ok
}

// count returns the number of distinct schemas ever allocated.
func (g *globalStore) count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.byID)
}
