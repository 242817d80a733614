package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tutorlink-api/internal/application/profile"
	"github.com/tutorlink-api/internal/domain"
	"github.com/tutorlink-api/internal/transport/http/middleware"
)

// maxAssetSize caps profile uploads (resumes, photos) at 10 MiB.
const maxAssetSize = 10 << 20

// ProfileHandler handles teacher profile endpoints.
type ProfileHandler struct {
	svc profile.Service
}

func NewProfileHandler(svc profile.Service) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

// Upsert creates or patches the caller's own profile.
func (h *ProfileHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.UpsertTeacherProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := h.svc.Upsert(r.Context(), claims.UserID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GetMine returns the caller's own profile, public or not.
func (h *ProfileHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	v, err := h.svc.Get(r.Context(), claims.UserID, claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Get returns another user's profile, subject to its privacy flag.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	profileUserID := chi.URLParam(r, "userID")
	v, err := h.svc.Get(r.Context(), profileUserID, claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// UploadAsset accepts a multipart file and attaches it to the caller's
// profile as its resume or photo.
func (h *ProfileHandler) UploadAsset(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	kind := chi.URLParam(r, "kind")

	r.Body = http.MaxBytesReader(w, r.Body, maxAssetSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	asset, err := h.svc.UploadAsset(r.Context(), claims.UserID, kind, header.Filename, contentType, file, header.Size)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, asset)
}
