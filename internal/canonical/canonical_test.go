package canonical

import (
	"errors"
	"testing"

	"github.com/twobeeb/schema-registry/internal/model"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		schemaType model.SchemaType
		wantErr    bool
	}{
		{
			name: "avro union",
			raw:  `["string"]`,
		},
		{
			name: "avro record",
			raw:  `{"type":"record","name":"User","fields":[{"name":"id","type":"long"}]}`,
		},
		{
			name:       "json object",
			raw:        `{"b": 1, "a": 2}`,
			schemaType: model.SchemaTypeJSON,
		},
		{
			name:       "protobuf text",
			raw:        "syntax = \"proto3\";\nmessage User {}\n",
			schemaType: model.SchemaTypeProtobuf,
		},
		{
			name:    "malformed avro",
			raw:     `{"type":"recor`,
			wantErr: true,
		},
		{
			name:    "avro not a schema",
			raw:     `{"hello":"world"}`,
			wantErr: true,
		},
		{
			name:       "malformed json",
			raw:        `{"a":`,
			schemaType: model.SchemaTypeJSON,
			wantErr:    true,
		},
		{
			name:    "empty input",
			raw:     "   ",
			wantErr: true,
		},
		{
			name:       "unsupported type",
			raw:        `["string"]`,
			schemaType: model.SchemaType("THRIFT"),
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Canonicalize([]byte(tt.raw), tt.schemaType)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Canonicalize() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrMalformed) {
					t.Errorf("Canonicalize() error = %v, want ErrMalformed", err)
				}
				return
			}
			if c.Text == "" || c.Fingerprint == "" {
				t.Errorf("Canonicalize() returned incomplete content %+v", c)
			}
		})
	}
}

func TestCanonicalizeNormalizes(t *testing.T) {
	tests := []struct {
		name       string
		a, b       string
		schemaType model.SchemaType
	}{
		{
			name: "avro whitespace",
			a:    `["string"]`,
			b:    " [ \"string\" ]\n",
		},
		{
			name: "avro key order",
			a:    `{"type":"record","name":"User","fields":[{"name":"id","type":"long"}]}`,
			b:    `{"fields":[{"type":"long","name":"id"}],"name":"User","type":"record"}`,
		},
		{
			name:       "json key order",
			a:          `{"a": 1, "b": [2, 3]}`,
			b:          `{"b":[2,3],"a":1}`,
			schemaType: model.SchemaTypeJSON,
		},
		{
			name:       "protobuf surrounding whitespace",
			a:          "message User {}",
			b:          "\n  message User {}  \n",
			schemaType: model.SchemaTypeProtobuf,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ca, err := Canonicalize([]byte(tt.a), tt.schemaType)
			if err != nil {
				t.Fatalf("Canonicalize(a) failed: %v", err)
			}
			cb, err := Canonicalize([]byte(tt.b), tt.schemaType)
			if err != nil {
				t.Fatalf("Canonicalize(b) failed: %v", err)
			}
			if ca.Text != cb.Text {
				t.Errorf("canonical text differs: %q vs %q", ca.Text, cb.Text)
			}
			if ca.Fingerprint != cb.Fingerprint {
				t.Errorf("fingerprints differ: %q vs %q", ca.Fingerprint, cb.Fingerprint)
			}
		})
	}
}

func TestCanonicalizeDefaultsToAvro(t *testing.T) {
	c, err := Canonicalize([]byte(`["string"]`), "")
	if err != nil {
		t.Fatalf("Canonicalize failed: %v", err)
	}
	if c.Type != model.SchemaTypeAvro {
		t.Errorf("expected default type AVRO, got %s", c.Type)
	}
}

func TestFingerprintSeparatesSchemaTypes(t *testing.T) {
	// The same text under different schema types must stay distinct content.
	a, err := Canonicalize([]byte(`["string"]`), model.SchemaTypeAvro)
	if err != nil {
		t.Fatalf("Canonicalize(AVRO) failed: %v", err)
	}
	b, err := Canonicalize([]byte(`["string"]`), model.SchemaTypeJSON)
	if err != nil {
		t.Fatalf("Canonicalize(JSON) failed: %v", err)
	}
	if a.Fingerprint == b.Fingerprint {
		t.Error("expected distinct fingerprints for AVRO and JSON content")
	}
}

func TestCanonicalizeDistinctSchemas(t *testing.T) {
	a, err := Canonicalize([]byte(`["string"]`), model.SchemaTypeAvro)
	if err != nil {
		t.Fatalf("Canonicalize failed: %v", err)
	}
	b, err := Canonicalize([]byte(`["long"]`), model.SchemaTypeAvro)
	if err != nil {
		t.Fatalf("Canonicalize failed: %v", err)
	}
	if a.Fingerprint == b.Fingerprint {
		t.Error("expected distinct fingerprints for distinct schemas")
	}
}
