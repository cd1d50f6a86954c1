// pkg/api/handler.go
//
// HTTP facade over the composer. Routes and response bodies match what the
// web UI expects.

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/CodeMonkeyCybersecurity/microns/pkg/composer"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_err"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/registry"
	"github.com/gorilla/mux"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// Response is the envelope for every mutating endpoint.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Handler serves the API for one composer.
type Handler struct {
	c *composer.Composer
}

func NewHandler(c *composer.Composer) *Handler {
	return &Handler{c: c}
}

// Routes registers every endpoint on a new router.
func (h *Handler) Routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/list", h.List).Methods(http.MethodGet)
	r.HandleFunc("/services", h.AddService).Methods(http.MethodPost)
	r.HandleFunc("/services/{name}", h.DeleteService).Methods(http.MethodDelete)
	r.HandleFunc("/generate", h.Generate).Methods(http.MethodPost)
	r.HandleFunc("/docker/up", h.DockerUp).Methods(http.MethodPost)
	r.HandleFunc("/docker/down", h.DockerDown).Methods(http.MethodPost)
	r.HandleFunc("/status", h.Status).Methods(http.MethodGet)
	r.Use(accessLog)
	return r
}

// List returns detected service directories and the registry, unwrapped.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	listing, err := h.c.ListServices(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, listing)
}

func (h *Handler) AddService(w http.ResponseWriter, r *http.Request) {
	var def registry.Definition
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&def); err != nil {
		writeJSON(w, r, http.StatusBadRequest, Response{Status: "error", Message: fmt.Sprintf("invalid service definition: %v", err)})
		return
	}

	replace := false
	if raw := r.URL.Query().Get("replace"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSON(w, r, http.StatusBadRequest, Response{Status: "error", Message: "replace must be true or false"})
			return
		}
		replace = v
	}

	if _, err := h.c.AddService(r.Context(), def, replace); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, Response{Status: "ok", Message: "Service added successfully."})
}

func (h *Handler) DeleteService(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if _, err := h.c.DeleteService(r.Context(), name); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, Response{Status: "deleted", Message: fmt.Sprintf("Service '%s' deleted.", name)})
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	gen, err := h.c.GenerateManifest(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, Response{Status: "generated", Message: "Docker Compose file generated.", Data: gen.ManifestText})
}

func (h *Handler) DockerUp(w http.ResponseWriter, r *http.Request) {
	if err := h.c.OrchestratorUp(r.Context()); err != nil {
		writeErrorf(w, r, err, "Failed to start Docker containers")
		return
	}
	writeJSON(w, r, http.StatusOK, Response{Status: "ok", Message: "Docker containers are up."})
}

func (h *Handler) DockerDown(w http.ResponseWriter, r *http.Request) {
	if err := h.c.OrchestratorDown(r.Context()); err != nil {
		writeErrorf(w, r, err, "Failed to stop Docker containers")
		return
	}
	writeJSON(w, r, http.StatusOK, Response{Status: "ok", Message: "Docker containers are down."})
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.c.Status(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, Response{Status: "ok", Message: fmt.Sprintf("%d containers", len(statuses)), Data: statuses})
}

// statusCode maps the error taxonomy onto HTTP: bad input is the client's
// fault, everything else is ours or the orchestrator's.
func statusCode(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case microns_err.IsValidation(err):
		return http.StatusBadRequest
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeErrorf(w, r, err, "")
}

// writeErrorf reports err, prefixing the message with prefix when set.
func writeErrorf(w http.ResponseWriter, r *http.Request, err error, prefix string) {
	code := statusCode(err)
	msg := err.Error()
	if prefix != "" {
		msg = prefix + ": " + msg
	}
	otelzap.Ctx(r.Context()).Warn("Request failed",
		zap.String("path", r.URL.Path),
		zap.Int("status", code),
		zap.String("category", microns_err.Category(err).String()),
		zap.Error(err))
	writeJSON(w, r, code, Response{Status: "error", Message: msg})
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		otelzap.Ctx(r.Context()).Warn("Failed to write response", zap.Error(err))
	}
}
