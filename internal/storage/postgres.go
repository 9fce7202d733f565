package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/twobeeb/schema-registry/internal/model"
)

// migrations are applied in order at startup; each statement is idempotent.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS schemas (
		id BIGINT PRIMARY KEY,
		schema_type VARCHAR(50) NOT NULL,
		schema_text TEXT NOT NULL,
		fingerprint VARCHAR(64) UNIQUE NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS subject_versions (
		subject VARCHAR(255) NOT NULL,
		version INT NOT NULL,
		schema_id BIGINT NOT NULL REFERENCES schemas(id),
		created_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (subject, version)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_subject_versions_subject ON subject_versions(subject)`,
}

// Postgres stores registry state in two append-only tables.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate creates the schema tables if they do not exist yet.
func (p *Postgres) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%w: migration failed: %v", ErrUnavailable, err)
		}
	}
	return nil
}

func (p *Postgres) PutSchema(ctx context.Context, s *model.Schema) error {
	query := `
		INSERT INTO schemas (id, schema_type, schema_text, fingerprint, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := p.pool.Exec(ctx, query, s.ID, s.SchemaType, s.Schema, s.Fingerprint, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: insert schema: %v", ErrUnavailable, err)
	}
	return nil
}

func (p *Postgres) AppendVersion(ctx context.Context, e model.VersionEntry) error {
	query := `
		INSERT INTO subject_versions (subject, version, schema_id, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := p.pool.Exec(ctx, query, e.Subject, e.Version, e.SchemaID, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: insert version entry: %v", ErrUnavailable, err)
	}
	return nil
}

func (p *Postgres) Load(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{Versions: make(map[string][]model.VersionEntry)}

	rows, err := p.pool.Query(ctx, `
		SELECT id, schema_type, schema_text, fingerprint, created_at
		FROM schemas
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: load schemas: %v", ErrUnavailable, err)
	}
	defer rows.Close()
	for rows.Next() {
		var s model.Schema
		if err := rows.Scan(&s.ID, &s.SchemaType, &s.Schema, &s.Fingerprint, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan schema: %v", ErrUnavailable, err)
		}
		snap.Schemas = append(snap.Schemas, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: load schemas: %v", ErrUnavailable, err)
	}

	vrows, err := p.pool.Query(ctx, `
		SELECT subject, version, schema_id, created_at
		FROM subject_versions
		ORDER BY subject, version
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: load version entries: %v", ErrUnavailable, err)
	}
	defer vrows.Close()
	for vrows.Next() {
		var e model.VersionEntry
		if err := vrows.Scan(&e.Subject, &e.Version, &e.SchemaID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan version entry: %v", ErrUnavailable, err)
		}
		snap.Versions[e.Subject] = append(snap.Versions[e.Subject], e)
	}
	if err := vrows.Err(); err != nil {
		return nil, fmt.Errorf("%w: load version entries: %v", ErrUnavailable, err)
	}

	return snap, nil
}
