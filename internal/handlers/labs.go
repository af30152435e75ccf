package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/tphummel/lab_templates/internal/events"
	"github.com/tphummel/lab_templates/internal/models"
)

// ListLabs handles GET /lab with an optional ?isActivate= filter.
func (h *Handler) ListLabs(w http.ResponseWriter, r *http.Request) {
	var active *bool
	if raw := r.URL.Query().Get("isActivate"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "isActivate must be true or false")
			return
		}
		active = &v
	}

	labs, err := h.DB.ListLabs(r.Context(), active)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list labs")
		return
	}
	if labs == nil {
		labs = []*models.Lab{}
	}
	writeJSON(w, http.StatusOK, labs)
}

// GetLab handles GET /lab/{id}.
func (h *Handler) GetLab(w http.ResponseWriter, r *http.Request) {
	lab, err := h.DB.GetLab(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "lab not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get lab")
		return
	}
	writeJSON(w, http.StatusOK, lab)
}

// CreateLab handles POST /lab. New labs start active.
func (h *Handler) CreateLab(w http.ResponseWriter, r *http.Request) {
	var req models.CreateLabRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	now := h.now()
	lab := &models.Lab{
		ID:            h.newID(),
		Name:          req.Name,
		Description:   req.Description,
		BaseImage:     req.BaseImage,
		EstimatedTime: req.EstimatedTime,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.DB.CreateLab(r.Context(), lab); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create lab")
		return
	}

	h.publish(r.Context(), events.Event{Subject: events.LabCreated, LabID: lab.ID, Payload: lab})
	writeJSON(w, http.StatusCreated, lab)
}

// UpdateLab handles PUT /lab/{id}.
func (h *Handler) UpdateLab(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := h.DB.GetLab(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "lab not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get lab")
		return
	}

	var req models.UpdateLabRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	existing.Name = req.Name
	existing.Description = req.Description
	existing.BaseImage = req.BaseImage
	existing.EstimatedTime = req.EstimatedTime
	existing.UpdatedAt = h.now()

	if err := h.DB.UpdateLab(r.Context(), existing); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update lab")
		return
	}

	h.publish(r.Context(), events.Event{Subject: events.LabUpdated, LabID: id, Payload: existing})
	writeJSON(w, http.StatusOK, existing)
}

// DeleteLab handles DELETE /lab/{id}. The lab's setup steps go with it.
func (h *Handler) DeleteLab(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.DB.DeleteLab(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "lab not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete lab")
		return
	}
	h.publish(r.Context(), events.Event{Subject: events.LabDeleted, LabID: id})
	w.WriteHeader(http.StatusNoContent)
}

// toggleResponse is the body of PUT /lab/{id}/toggle-status.
type toggleResponse struct {
	Lab     *models.Lab `json:"lab"`
	Message string      `json:"message"`
}

// ToggleLabStatus handles PUT /lab/{id}/toggle-status.
func (h *Handler) ToggleLabStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	lab, err := h.DB.ToggleLab(r.Context(), id, h.now())
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "lab not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to toggle lab status")
		return
	}

	msg := "lab deactivated"
	if lab.IsActive {
		msg = "lab activated"
	}
	h.publish(r.Context(), events.Event{Subject: events.LabStatusToggled, LabID: id, Payload: lab})
	writeJSON(w, http.StatusOK, toggleResponse{Lab: lab, Message: msg})
}

// ListLabSteps handles GET /lab/{id}/setup-steps.
func (h *Handler) ListLabSteps(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.DB.GetLab(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "lab not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get lab")
		return
	}

	steps, err := h.DB.ListSteps(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list setup steps")
		return
	}
	if steps == nil {
		steps = []*models.SetupStep{}
	}
	writeJSON(w, http.StatusOK, steps)
}
