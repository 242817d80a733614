package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/tutorlink-api/internal/application/directory"
	"github.com/tutorlink-api/internal/domain"
	"github.com/tutorlink-api/internal/pkg/validate"
)

// DirectoryHandler handles the student and parent directory endpoints.
type DirectoryHandler struct {
	svc directory.Service
}

func NewDirectoryHandler(svc directory.Service) *DirectoryHandler {
	return &DirectoryHandler{svc: svc}
}

func (h *DirectoryHandler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	st, err := h.svc.CreateStudent(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (h *DirectoryHandler) GetStudent(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.GetStudent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *DirectoryHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	cursor := r.URL.Query().Get("cursor")
	page, err := h.svc.ListStudents(r.Context(), int32(limit), cursor)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *DirectoryHandler) CreateParent(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateParentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := h.svc.CreateParent(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *DirectoryHandler) GetParent(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetParent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// LinkChild attaches an existing student record to a parent record.
func (h *DirectoryHandler) LinkChild(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StudentID string `json:"student_id" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := h.svc.LinkChild(r.Context(), chi.URLParam(r, "id"), req.StudentID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
