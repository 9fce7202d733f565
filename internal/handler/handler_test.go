package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/twobeeb/schema-registry/internal/registry"
	"github.com/twobeeb/schema-registry/internal/storage"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	reg, err := registry.Open(context.Background(), storage.NewMemory(), registry.Options{})
	require.NoError(t, err)
	return New(reg, zap.NewNop()).Routes()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestRegisterAndLookupFlow(t *testing.T) {
	h := newTestHandler(t)

	rec := do(t, h, http.MethodPost, "/subjects/subject1/versions", `{"schema": "[\"string\"]"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(1), decode[idResponse](t, rec).ID)

	// Posting the identical payload twice returns the same id and no new version.
	rec = do(t, h, http.MethodPost, "/subjects/subject1/versions", `{"schema": "[\"string\"]"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[idResponse](t, rec).ID)

	rec = do(t, h, http.MethodGet, "/subjects/subject1/versions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{1}, decode[[]int](t, rec))

	rec = do(t, h, http.MethodPost, "/subjects/subject2/versions", `{"schema": "[\"string\"]"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[idResponse](t, rec).ID)

	rec = do(t, h, http.MethodPost, "/subjects/subject2/versions", `{"schema": "[\"long\"]"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(2), decode[idResponse](t, rec).ID)

	rec = do(t, h, http.MethodGet, "/subjects/subject2/versions/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	entry := decode[map[string]any](t, rec)
	assert.Equal(t, float64(2), entry["id"])
	assert.Equal(t, "subject2", entry["name"])
	assert.Equal(t, float64(2), entry["version"])
	assert.Equal(t, `["long"]`, entry["schema"])

	rec = do(t, h, http.MethodGet, "/subjects/subject2/versions/latest", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), decode[map[string]any](t, rec)["version"])

	rec = do(t, h, http.MethodGet, "/subjects/subject2/versions/2/schema", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `["long"]`, decode[schemaResponse](t, rec).Schema)

	rec = do(t, h, http.MethodGet, "/schemas/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `["string"]`, decode[schemaResponse](t, rec).Schema)

	rec = do(t, h, http.MethodGet, "/subjects", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"subject1", "subject2"}, decode[[]string](t, rec))
}

func TestNotFoundResponses(t *testing.T) {
	h := newTestHandler(t)

	rec := do(t, h, http.MethodPost, "/subjects/events/versions", `{"schema": "[\"string\"]"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, path := range []string{
		"/subjects/unknown/versions",
		"/subjects/unknown/versions/1",
		"/subjects/events/versions/2",
		"/subjects/events/versions/2/schema",
		"/schemas/42",
	} {
		rec := do(t, h, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, "GET %s", path)
		assert.Equal(t, http.StatusNotFound, decode[errorResponse](t, rec).ErrorCode, "GET %s", path)
	}
}

func TestRegisterRejectsMalformedSchema(t *testing.T) {
	h := newTestHandler(t)

	rec := do(t, h, http.MethodPost, "/subjects/events/versions", `{"schema": "{\"type\":"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	resp := decode[errorResponse](t, rec)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.ErrorCode)
	assert.Contains(t, resp.Message, "malformed schema")

	// Bad request body JSON is rejected the same way.
	rec = do(t, h, http.MethodPost, "/subjects/events/versions", `not json`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRegisterWithSchemaType(t *testing.T) {
	h := newTestHandler(t)

	rec := do(t, h, http.MethodPost, "/subjects/events/versions", `{"schema": "{\"b\":1,\"a\":2}", "schemaType": "JSON"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Key order does not produce a new content.
	rec2 := do(t, h, http.MethodPost, "/subjects/events/versions", `{"schema": "{\"a\":2,\"b\":1}", "schemaType": "JSON"}`)
	require.Equal(t, http.StatusOK, rec2.Code)
	assert.Equal(t, decode[idResponse](t, rec).ID, decode[idResponse](t, rec2).ID)
}

func TestInvalidVersionParam(t *testing.T) {
	h := newTestHandler(t)

	for _, path := range []string{
		"/subjects/events/versions/0",
		"/subjects/events/versions/-1",
		"/subjects/events/versions/abc",
	} {
		rec := do(t, h, http.MethodGet, path, "")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "GET %s", path)
	}
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t)

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestRequestIDHeader(t *testing.T) {
	h := newTestHandler(t)

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-Id"))
}
