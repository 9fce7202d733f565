package model

import "time"

// SchemaType tags the serialization format a schema is written in.
type SchemaType string

const (
	SchemaTypeAvro     SchemaType = "AVRO"
	SchemaTypeJSON     SchemaType = "JSON"
	SchemaTypeProtobuf SchemaType = "PROTOBUF"
)

// Valid reports whether t is one of the supported schema types.
func (t SchemaType) Valid() bool {
	switch t {
	case SchemaTypeAvro, SchemaTypeJSON, SchemaTypeProtobuf:
		return true
	}
	return false
}

// Schema is one distinct schema content stored in the registry.
// ID is registry-wide unique; the same Schema may be referenced by
// version entries of many subjects.
type Schema struct {
	ID          int64      `db:"id"`
	SchemaType  SchemaType `db:"schema_type"`
	Schema      string     `db:"schema_text"`
	Fingerprint string     `db:"fingerprint"`
	CreatedAt   time.Time  `db:"created_at"`
}

// VersionEntry is one row of a subject's append-only version history.
type VersionEntry struct {
	Subject   string    `db:"subject"`
	Version   int       `db:"version"`
	SchemaID  int64     `db:"schema_id"`
	CreatedAt time.Time `db:"created_at"`
}

// SubjectSchema is the rendered view of one subject version, as served
// by the lookup endpoints.
type SubjectSchema struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Version int    `json:"version"`
	Schema  string `json:"schema"`
}
