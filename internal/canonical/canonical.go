// Package canonical normalizes raw schema payloads into the deterministic
// form the registry uses for equality and fingerprinting. Two payloads that
// differ only in whitespace or object key order canonicalize identically.
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/hamba/avro/v2"

	"github.com/twobeeb/schema-registry/internal/model"
)

// ErrMalformed reports a payload that cannot be parsed as its declared
// schema type. It is a client error; retrying the same payload cannot succeed.
var ErrMalformed = errors.New("malformed schema")

// Content is a schema payload reduced to canonical form. Equality of two
// Contents is equality of their fingerprints.
type Content struct {
	Text        string
	Type        model.SchemaType
	Fingerprint string
}

// Canonicalize parses raw according to schemaType and returns the canonical
// content. An empty schemaType defaults to AVRO. Pure: no side effects, the
// same input always yields the same Content.
func Canonicalize(raw []byte, schemaType model.SchemaType) (Content, error) {
	if schemaType == "" {
		schemaType = model.SchemaTypeAvro
	}
	if !schemaType.Valid() {
		return Content{}, fmt.Errorf("%w: unsupported schema type %q", ErrMalformed, schemaType)
	}
	if strings.TrimSpace(string(raw)) == "" {
		return Content{}, fmt.Errorf("%w: empty schema", ErrMalformed)
	}

	var text string
	switch schemaType {
	case model.SchemaTypeAvro:
		parsed, err := avro.Parse(string(raw))
		if err != nil {
			return Content{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		text = parsed.String()
	case model.SchemaTypeJSON:
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return Content{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		out, err := json.Marshal(v)
		if err != nil {
			return Content{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		text = string(out)
	default:
		// Protobuf schemas are stored opaquely; validating the definition
		// text is the producer's concern.
		text = strings.TrimSpace(string(raw))
	}

	return Content{Text: text, Type: schemaType, Fingerprint: fingerprint(text, schemaType)}, nil
}

// fingerprint keys each schema type into its own space so an Avro and a JSON
// schema with identical text remain distinct contents.
func fingerprint(text string, schemaType model.SchemaType) string {
	h := sha256.Sum256([]byte(string(schemaType) + "\x00" + text))
	return hex.EncodeToString(h[:])
}
