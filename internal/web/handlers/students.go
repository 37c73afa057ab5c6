package handlers

import (
	"net/http"

	"github.com/schoolrecords/schoolrecords/internal/database"
	"github.com/schoolrecords/schoolrecords/internal/web/events"
)

// ListStudents returns every student with class details
func (h *Handlers) ListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.repo.ListStudents(r.Context())
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, orEmpty(students))
}

// CreateStudent admits a student today
func (h *Handlers) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var in database.NewStudent
	if !h.decodeJSON(w, r, &in) {
		return
	}
	if g, err := database.ParseGender(string(in.Gender)); err == nil {
		in.Gender = g
	}

	id, err := h.repo.AddStudent(r.Context(), in)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	h.publish(events.EventStudentAdded, map[string]any{"id": id, "name": in.Name})
	h.jsonResponse(w, http.StatusCreated, createdResponse{ID: id})
}

// DeleteStudent removes a student and everything that references it
func (h *Handlers) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.repo.DeleteStudent(r.Context(), id); err != nil {
		h.storeError(w, r, err)
		return
	}

	h.publish(events.EventStudentDeleted, map[string]any{"id": id})
	w.WriteHeader(http.StatusNoContent)
}

// ListClasses returns every class
func (h *Handlers) ListClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := h.repo.ListClasses(r.Context())
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, orEmpty(classes))
}

// CreateClass adds a class
func (h *Handlers) CreateClass(w http.ResponseWriter, r *http.Request) {
	var in database.NewClass
	if !h.decodeJSON(w, r, &in) {
		return
	}

	id, err := h.repo.AddClass(r.Context(), in)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	h.publish(events.EventRecordAdded, map[string]any{"kind": "class", "id": id})
	h.jsonResponse(w, http.StatusCreated, createdResponse{ID: id})
}

// ListTeachers returns every teacher
func (h *Handlers) ListTeachers(w http.ResponseWriter, r *http.Request) {
	teachers, err := h.repo.ListTeachers(r.Context())
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, orEmpty(teachers))
}

// CreateTeacher adds a teacher
func (h *Handlers) CreateTeacher(w http.ResponseWriter, r *http.Request) {
	var in database.NewTeacher
	if !h.decodeJSON(w, r, &in) {
		return
	}

	id, err := h.repo.AddTeacher(r.Context(), in)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	h.publish(events.EventRecordAdded, map[string]any{"kind": "teacher", "id": id})
	h.jsonResponse(w, http.StatusCreated, createdResponse{ID: id})
}

// ListSubjects returns every subject with its teacher
func (h *Handlers) ListSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.repo.ListSubjects(r.Context())
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, orEmpty(subjects))
}

// CreateSubject adds a subject
func (h *Handlers) CreateSubject(w http.ResponseWriter, r *http.Request) {
	var in database.NewSubject
	if !h.decodeJSON(w, r, &in) {
		return
	}

	id, err := h.repo.AddSubject(r.Context(), in)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	h.publish(events.EventRecordAdded, map[string]any{"kind": "subject", "id": id})
	h.jsonResponse(w, http.StatusCreated, createdResponse{ID: id})
}
