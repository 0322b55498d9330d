package testimonial

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/meadowline/backend-dairy/internal/common"
	"github.com/meadowline/backend-dairy/internal/store"
)

// Handler exposes testimonial endpoints.
type Handler struct {
	Svc *Service
}

type testimonialView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Message   string `json:"message"`
	Rating    int    `json:"rating"`
	Approved  bool   `json:"approved"`
	CreatedAt string `json:"created_at"`
}

func toView(row store.Testimonial) testimonialView {
	return testimonialView{
		ID:        row.ID.String(),
		Name:      row.Name,
		Message:   row.Message,
		Rating:    row.Rating,
		Approved:  row.Approved,
		CreatedAt: row.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func toViews(rows []store.Testimonial) []testimonialView {
	out := make([]testimonialView, 0, len(rows))
	for _, row := range rows {
		out = append(out, toView(row))
	}
	return out
}

// Submit handles POST /api/testimonials.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req Submission
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	row, err := h.Svc.Submit(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, toView(row))
}

// List handles GET /api/testimonials: approved entries only.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20)
	rows, err := h.Svc.ListApproved(r.Context(), page, perPage)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, toViews(rows))
}

// AdminList handles GET /api/admin/testimonials: everything, for moderation.
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20)
	rows, err := h.Svc.ListAll(r.Context(), page, perPage)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, toViews(rows))
}

// Approve handles POST /api/admin/testimonials/{id}/approve.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid testimonial id", nil)
		return
	}
	row, err := h.Svc.Approve(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, toView(row))
}

// Delete handles DELETE /api/admin/testimonials/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid testimonial id", nil)
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "submission failed validation", nil)
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "testimonial not found", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
