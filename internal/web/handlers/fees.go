package handlers

import (
	"bytes"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/schoolrecords/schoolrecords/internal/database"
	"github.com/schoolrecords/schoolrecords/internal/export"
	"github.com/schoolrecords/schoolrecords/internal/web/events"
)

// ListFees returns every fee account
func (h *Handlers) ListFees(w http.ResponseWriter, r *http.Request) {
	fees, err := h.repo.ListFees(r.Context())
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, orEmpty(fees))
}

// CreateFee opens a fee account
func (h *Handlers) CreateFee(w http.ResponseWriter, r *http.Request) {
	var in database.NewFee
	if !h.decodeJSON(w, r, &in) {
		return
	}

	id, err := h.repo.CreateFee(r.Context(), in)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	h.publish(events.EventFeeCreated, map[string]any{"id": id, "student_id": in.StudentID})
	h.jsonResponse(w, http.StatusCreated, createdResponse{ID: id})
}

// GetFee returns one fee account
func (h *Handlers) GetFee(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	fee, err := h.repo.GetFee(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, fee)
}

type paymentRequest struct {
	Amount int64 `json:"amount"`
}

// RecordPayment applies a payment and returns the updated account
func (h *Handlers) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var in paymentRequest
	if !h.decodeJSON(w, r, &in) {
		return
	}

	fee, err := h.repo.RecordPayment(r.Context(), id, in.Amount)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	h.publish(events.EventPaymentRecorded, map[string]any{"id": fee.ID, "amount": in.Amount, "due": fee.Due})
	h.jsonResponse(w, http.StatusOK, fee)
}

// Stats returns the dashboard counters
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.Stats(r.Context())
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, stats)
}

// Export streams every table as an .xlsx workbook
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	// Buffered so a store failure can still be reported as JSON.
	var buf bytes.Buffer
	if err := export.Write(r.Context(), h.repo, &buf); err != nil {
		h.storeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="schoolrecords.xlsx"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Debug().Err(err).Msg("Failed to write export")
	}
}

// Health reports whether the store answers
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.pinger.Ping(r.Context()); err != nil {
		log.Warn().Err(err).Msg("Health check failed")
		h.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
