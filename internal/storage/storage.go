// Package storage provides the durable backends the registry engine writes
// through. The engine keeps its own in-memory indexes and replays a backend's
// snapshot at startup, so a Store only needs append operations and a full read.
package storage

import (
	"context"
	"errors"

	"github.com/twobeeb/schema-registry/internal/model"
)

// ErrUnavailable reports that the backend could not be reached or the write
// did not complete. Callers may retry; the failed operation left no partial
// state behind.
var ErrUnavailable = errors.New("storage unavailable")

// Store is the durable state surface consumed and produced by the registry
// engine. PutSchema and AppendVersion must be individually atomic: after an
// error the record is either fully persisted or absent.
type Store interface {
	// PutSchema persists one allocated schema id with its canonical content.
	PutSchema(ctx context.Context, s *model.Schema) error

	// AppendVersion persists one subject version entry.
	AppendVersion(ctx context.Context, e model.VersionEntry) error

	// Load returns everything previously persisted, for replay at startup.
	Load(ctx context.Context) (*Snapshot, error)
}

// Snapshot is the full persisted state: schemas in ascending id order and
// each subject's entries in ascending version order.
type Snapshot struct {
	Schemas  []*model.Schema
	Versions map[string][]model.VersionEntry
}
