package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/schoolrecords/schoolrecords/internal/database"
	"github.com/schoolrecords/schoolrecords/internal/web/events"
)

// ListMarks returns marks newest first, optionally for one student
func (h *Handlers) ListMarks(w http.ResponseWriter, r *http.Request) {
	studentID, ok := h.queryID(w, r, "student_id")
	if !ok {
		return
	}

	filter := database.MarkFilter{StudentID: studentID}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			h.jsonError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		filter.Limit = limit
	}

	marks, err := h.repo.ListMarks(r.Context(), filter)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, orEmpty(marks))
}

// CreateMark records an exam result
func (h *Handlers) CreateMark(w http.ResponseWriter, r *http.Request) {
	var in database.NewMark
	if !h.decodeJSON(w, r, &in) {
		return
	}

	id, err := h.repo.AddMark(r.Context(), in)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	h.publish(events.EventMarkAdded, map[string]any{"id": id, "student_id": in.StudentID})
	h.jsonResponse(w, http.StatusCreated, createdResponse{ID: id})
}

type attendanceRequest struct {
	Date    database.Date              `json:"date"`
	Entries []database.AttendanceEntry `json:"entries"`
}

// MarkAttendance records a batch of statuses for one date
func (h *Handlers) MarkAttendance(w http.ResponseWriter, r *http.Request) {
	var in attendanceRequest
	if !h.decodeJSON(w, r, &in) {
		return
	}
	for i, e := range in.Entries {
		if s, err := database.ParseAttendanceStatus(string(e.Status)); err == nil {
			in.Entries[i].Status = s
		}
	}

	if err := h.repo.MarkAttendance(r.Context(), in.Date, in.Entries); err != nil {
		h.storeError(w, r, err)
		return
	}

	if len(in.Entries) > 0 {
		h.publish(events.EventAttendanceMarked, map[string]any{"date": in.Date, "entries": len(in.Entries)})
	}
	h.jsonResponse(w, http.StatusOK, map[string]int{"recorded": len(in.Entries)})
}

// AttendanceByStudent returns the recent history for one student, or everyone
func (h *Handlers) AttendanceByStudent(w http.ResponseWriter, r *http.Request) {
	studentID, ok := h.queryID(w, r, "student_id")
	if !ok {
		return
	}

	records, err := h.repo.AttendanceByStudent(r.Context(), studentID)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, orEmpty(records))
}

// AttendanceByDate returns every student's status on a date
func (h *Handlers) AttendanceByDate(w http.ResponseWriter, r *http.Request) {
	date, err := database.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	records, err := h.repo.AttendanceByDate(r.Context(), date)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, orEmpty(records))
}
