// Package handler exposes the registry over HTTP.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/twobeeb/schema-registry/internal/canonical"
	"github.com/twobeeb/schema-registry/internal/model"
	"github.com/twobeeb/schema-registry/internal/registry"
	"github.com/twobeeb/schema-registry/internal/storage"
)

var registrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "registry_registrations_total",
	Help: "Registration requests, by outcome.",
}, []string{"outcome"})

type registerRequest struct {
	Schema     string           `json:"schema"`
	SchemaType model.SchemaType `json:"schemaType,omitempty"`
}

type idResponse struct {
	ID int64 `json:"id"`
}

type schemaResponse struct {
	Schema string `json:"schema"`
}

type errorResponse struct {
	ErrorCode int    `json:"error_code"`
	Message   string `json:"message"`
}

// Handler serves the registry API.
type Handler struct {
	reg *registry.Registry
	log *zap.Logger
}

func New(reg *registry.Registry, log *zap.Logger) *Handler {
	return &Handler{reg: reg, log: log}
}

// Routes builds the service router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID, h.logRequests)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/subjects", func(r chi.Router) {
		r.Get("/", h.listSubjects)
		r.Post("/{subject}/versions", h.register)
		r.Get("/{subject}/versions", h.listVersions)
		r.Get("/{subject}/versions/{version}", h.getVersion)
		r.Get("/{subject}/versions/{version}/schema", h.getVersionSchema)
	})
	r.Get("/schemas/{id}", h.getSchemaByID)

	return r
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	subject := chi.URLParam(r, "subject")

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, "invalid request body: "+err.Error())
		registrationsTotal.WithLabelValues("rejected").Inc()
		return
	}

	id, err := h.reg.Register(r.Context(), subject, []byte(req.Schema), req.SchemaType)
	if err != nil {
		h.writeRegistryError(w, err)
		registrationsTotal.WithLabelValues("rejected").Inc()
		return
	}

	registrationsTotal.WithLabelValues("registered").Inc()
	h.writeJSON(w, http.StatusOK, idResponse{ID: id})
}

func (h *Handler) listSubjects(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.reg.Subjects())
}

func (h *Handler) listVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := h.reg.Versions(chi.URLParam(r, "subject"))
	if err != nil {
		h.writeRegistryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, versions)
}

func (h *Handler) getVersion(w http.ResponseWriter, r *http.Request) {
	version, ok := h.versionParam(w, r)
	if !ok {
		return
	}
	entry, err := h.reg.Entry(chi.URLParam(r, "subject"), version)
	if err != nil {
		h.writeRegistryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) getVersionSchema(w http.ResponseWriter, r *http.Request) {
	version, ok := h.versionParam(w, r)
	if !ok {
		return
	}
	text, err := h.reg.SchemaOf(chi.URLParam(r, "subject"), version)
	if err != nil {
		h.writeRegistryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, schemaResponse{Schema: text})
}

func (h *Handler) getSchemaByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "invalid schema id")
		return
	}
	s, err := h.reg.SchemaByID(id)
	if err != nil {
		h.writeRegistryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, schemaResponse{Schema: s.Schema})
}

// versionParam parses the {version} path segment: a positive integer or the
// literal "latest".
func (h *Handler) versionParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "version")
	if raw == "latest" {
		return registry.VersionLatest, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		h.writeError(w, http.StatusUnprocessableEntity, "invalid version "+strconv.Quote(raw))
		return 0, false
	}
	return v, true
}

func (h *Handler) writeRegistryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registry.ErrSubjectNotFound),
		errors.Is(err, registry.ErrVersionNotFound),
		errors.Is(err, registry.ErrSchemaNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, canonical.ErrMalformed),
		errors.Is(err, registry.ErrVersionLimit):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, storage.ErrUnavailable):
		h.writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.log.Error("request failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{ErrorCode: status, Message: msg})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("failed to encode response", zap.Error(err))
	}
}
