package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/twobeeb/schema-registry/internal/model"
	"github.com/twobeeb/schema-registry/internal/storage"
)

// subjectLedger holds one append-only version history per subject. Each
// subject's history has its own lock, so registrations under different
// subjects never contend with each other; the outer lock only guards the
// subject index itself.
type subjectLedger struct {
	store       storage.Store
	maxVersions int

	mu       sync.RWMutex
	subjects map[string]*subjectLog
}

type subjectLog struct {
	mu      sync.RWMutex
	entries []model.VersionEntry
}

func newSubjectLedger(store storage.Store, maxVersions int) *subjectLedger {
	return &subjectLedger{
		store:       store,
		maxVersions: maxVersions,
		subjects:    make(map[string]*subjectLog),
	}
}

// restore replays persisted entries. Each subject's entries must arrive in
// ascending version order, gapless from 1, referencing known schema ids.
func (l *subjectLedger) restore(versions map[string][]model.VersionEntry, schemas *globalStore) error {
	for subject, entries := range versions {
		log := &subjectLog{entries: make([]model.VersionEntry, 0, len(entries))}
		for i, e := range entries {
			if e.Version != i+1 {
				return fmt.Errorf("corrupt store: subject %q version %d at position %d", subject, e.Version, i+1)
			}
			if _, err := schemas.get(e.SchemaID); err != nil {
				return fmt.Errorf("corrupt store: subject %q version %d references unknown schema id %d", subject, e.Version, e.SchemaID)
			}
			log.entries = append(log.entries, e)
		}
		l.subjects[subject] = log
	}
	return nil
}

func (l *subjectLedger) logFor(subject string, create bool) (*subjectLog, bool) {
	l.mu.RLock()
	log, ok := l.subjects[subject]
	l.mu.RUnlock()
	if ok || !create {
		return log, ok
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if log, ok := l.subjects[subject]; ok {
		return log, true
	}
	log = &subjectLog{}
	l.subjects[subject] = log
	return log, true
}

// append records that subject now points at schemaID. If the subject's
// latest entry already points there, the existing entry is returned unchanged
// and nothing is written: re-registering a subject's current schema must not
// grow its history. The latest-check and the append share the subject's
// critical section so the guarantee holds under concurrent writers.
func (l *subjectLedger) append(ctx context.Context, subject string, schemaID int64) (model.VersionEntry, bool, error) {
	log, _ := l.logFor(subject, true)

	log.mu.Lock()
	defer log.mu.Unlock()

	if n := len(log.entries); n > 0 && log.entries[n-1].SchemaID == schemaID {
		return log.entries[n-1], false, nil
	}
	if l.maxVersions > 0 && len(log.entries) >= l.maxVersions {
		return model.VersionEntry{}, false, fmt.Errorf("%w: subject %q allows %d versions", ErrVersionLimit, subject, l.maxVersions)
	}

	e := model.VersionEntry{
		Subject:   subject,
		Version:   len(log.entries) + 1,
		SchemaID:  schemaID,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.store.AppendVersion(ctx, e); err != nil {
		return model.VersionEntry{}, false, err
	}
	log.entries = append(log.entries, e)
	return e, true, nil
}

// latest returns the subject's newest entry.
func (l *subjectLedger) latest(subject string) (model.VersionEntry, error) {
	log, ok := l.logFor(subject, false)
	if !ok {
		return model.VersionEntry{}, fmt.Errorf("%w: %q", ErrSubjectNotFound, subject)
	}
	log.mu.RLock()
	defer log.mu.RUnlock()
	if len(log.entries) == 0 {
		return model.VersionEntry{}, fmt.Errorf("%w: %q", ErrSubjectNotFound, subject)
	}
	return log.entries[len(log.entries)-1], nil
}

// versions returns the subject's version numbers in ascending order.
func (l *subjectLedger) versions(subject string) ([]int, error) {
	log, ok := l.logFor(subject, false)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSubjectNotFound, subject)
	}
	log.mu.RLock()
	defer log.mu.RUnlock()
	if len(log.entries) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrSubjectNotFound, subject)
	}
	out := make([]int, len(log.entries))
	for i, e := range log.entries {
		out[i] = e.Version
	}
	return out, nil
}

// entryAt returns the subject's entry at version.
func (l *subjectLedger) entryAt(subject string, version int) (model.VersionEntry, error) {
	log, ok := l.logFor(subject, false)
	if !ok {
		return model.VersionEntry{}, fmt.Errorf("%w: %q", ErrSubjectNotFound, subject)
	}
	log.mu.RLock()
	defer log.mu.RUnlock()
	if len(log.entries) == 0 {
		return model.VersionEntry{}, fmt.Errorf("%w: %q", ErrSubjectNotFound, subject)
	}
	if version < 1 || version > len(log.entries) {
		return model.VersionEntry{}, fmt.Errorf("%w: subject %q has no version %d", ErrVersionNotFound, subject, version)
	}
	return log.entries[version-1], nil
}

// names returns all subjects with at least one version, sorted.
func (l *subjectLedger) names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.subjects))
	for subject, log := range l.subjects {
		log.mu.RLock()
		n := len(log.entries)
		log.mu.RUnlock()
		if n > 0 {
			out = append(out, subject)
		}
	}
	sort.Strings(out)
	return out
}
