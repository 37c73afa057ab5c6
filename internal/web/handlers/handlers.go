package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/schoolrecords/schoolrecords/internal/database"
	"github.com/schoolrecords/schoolrecords/internal/web/events"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// Publisher receives an event after every successful write.
type Publisher interface {
	Publish(eventType events.EventType, data any)
}

// Publishers fans each event out to every publisher in order.
type Publishers []Publisher

func (ps Publishers) Publish(eventType events.EventType, data any) {
	for _, p := range ps {
		p.Publish(eventType, data)
	}
}

// Pinger reports whether the store answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers contains all HTTP handlers
type Handlers struct {
	repo   *database.Repository
	pinger Pinger
	events Publisher
}

// New creates a new Handlers instance. A nil publisher drops events.
func New(repo *database.Repository, pinger Pinger, publisher Publisher) *Handlers {
	return &Handlers{
		repo:   repo,
		pinger: pinger,
		events: publisher,
	}
}

func (h *Handlers) publish(eventType events.EventType, data any) {
	if h.events != nil {
		h.events.Publish(eventType, data)
	}
}

// jsonResponse writes v as JSON with the given status
func (h *Handlers) jsonResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("Failed to write response")
	}
}

// jsonError writes an error as JSON
func (h *Handlers) jsonError(w http.ResponseWriter, message string, status int) {
	h.jsonResponse(w, status, map[string]string{"error": message})
}

// storeError maps a repository error to its HTTP status.
func (h *Handlers) storeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, database.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, database.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, database.ErrConstraint):
		status = http.StatusConflict
	case errors.Is(err, database.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}

	event := log.Debug()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).
		Str("path", r.URL.Path).
		Int("status", status).
		Str("request_id", middleware.GetReqID(r.Context())).
		Msg("Request failed")

	h.jsonError(w, err.Error(), status)
}

// decodeJSON reads a JSON body into v, rejecting unknown fields.
func (h *Handlers) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		h.jsonError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// pathID parses a positive integer URL parameter.
func (h *Handlers) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		h.jsonError(w, fmt.Sprintf("Invalid %s", name), http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// queryID parses an optional positive integer query parameter.
func (h *Handlers) queryID(w http.ResponseWriter, r *http.Request, name string) (*int64, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		h.jsonError(w, fmt.Sprintf("Invalid %s", name), http.StatusBadRequest)
		return nil, false
	}
	return &id, true
}

type createdResponse struct {
	ID int64 `json:"id"`
}

// orEmpty keeps empty listings as [] rather than null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
