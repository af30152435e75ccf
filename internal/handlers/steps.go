package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tphummel/lab_templates/internal/db"
	"github.com/tphummel/lab_templates/internal/events"
	"github.com/tphummel/lab_templates/internal/models"
)

// maxBatchSteps bounds the number of steps a batch or reorder request may name.
const maxBatchSteps = 200

// CreateSetupStep handles POST /setup-step/{labId}.
func (h *Handler) CreateSetupStep(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSetupStepRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	created, ok := h.createSteps(w, r, []models.CreateSetupStepRequest{req})
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, created[0])
}

// setupStepsResponse wraps the batch create and reorder results.
type setupStepsResponse struct {
	SetupSteps []models.SetupStep `json:"setupSteps"`
}

// CreateSetupStepsBatch handles POST /setup-step/batch/{labId}. Either every
// step is created or none is.
func (h *Handler) CreateSetupStepsBatch(w http.ResponseWriter, r *http.Request) {
	var reqs []models.CreateSetupStepRequest
	if !decodeBody(w, r, &reqs) {
		return
	}
	if len(reqs) == 0 {
		writeError(w, http.StatusBadRequest, "at least one setup step is required")
		return
	}
	if len(reqs) > maxBatchSteps {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d setup steps per batch", maxBatchSteps))
		return
	}
	for i, req := range reqs {
		if err := req.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("setupSteps[%d].%s", i, err))
			return
		}
	}

	created, ok := h.createSteps(w, r, reqs)
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, setupStepsResponse{SetupSteps: created})
}

func (h *Handler) createSteps(w http.ResponseWriter, r *http.Request, reqs []models.CreateSetupStepRequest) ([]models.SetupStep, bool) {
	labID := chi.URLParam(r, "labId")
	created, err := h.DB.CreateSteps(r.Context(), labID, reqs, h.newID)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "lab not found")
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create setup step")
		return nil, false
	}

	ids := make([]string, len(created))
	for i, s := range created {
		ids[i] = s.ID
	}
	h.publish(r.Context(), events.Event{Subject: events.StepCreated, LabID: labID, StepIDs: ids, Payload: created})
	return created, true
}

// UpdateSetupStep handles PUT /setup-step. The body carries the step id and
// the full record; optional fields left out keep their stored values.
func (h *Handler) UpdateSetupStep(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateSetupStepRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	existing, err := h.DB.GetStep(r.Context(), req.ID)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "setup step not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get setup step")
		return
	}

	updated := req.CreateSetupStepRequest.Apply(*existing)
	if err := h.DB.UpdateStep(r.Context(), &updated); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update setup step")
		return
	}

	h.publish(r.Context(), events.Event{
		Subject: events.StepUpdated,
		LabID:   updated.LabID,
		StepIDs: []string{updated.ID},
		Payload: updated,
	})
	writeJSON(w, http.StatusOK, updated)
}

// DeleteSetupStep handles DELETE /setup-step/{id}.
func (h *Handler) DeleteSetupStep(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing, err := h.DB.GetStep(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "setup step not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get setup step")
		return
	}

	if err := h.DB.DeleteStep(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "setup step not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete setup step")
		return
	}

	h.publish(r.Context(), events.Event{Subject: events.StepDeleted, LabID: existing.LabID, StepIDs: []string{id}})
	w.WriteHeader(http.StatusNoContent)
}

// ReorderSetupSteps handles PUT /setup-step/reorder/{labId} with a JSON
// array listing every step id of the lab in the desired order. Steps are
// renumbered 1..n in one transaction.
func (h *Handler) ReorderSetupSteps(w http.ResponseWriter, r *http.Request) {
	labID := chi.URLParam(r, "labId")
	var ids []string
	if !decodeBody(w, r, &ids) {
		return
	}
	if len(ids) > maxBatchSteps {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d setup steps per batch", maxBatchSteps))
		return
	}

	steps, err := h.DB.ReorderSteps(r.Context(), labID, ids)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		writeError(w, http.StatusNotFound, "lab not found")
		return
	case errors.Is(err, db.ErrOrderMismatch):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to reorder setup steps")
		return
	}

	out := make([]models.SetupStep, len(steps))
	for i, s := range steps {
		out[i] = *s
	}
	h.publish(r.Context(), events.Event{Subject: events.StepsReordered, LabID: labID, StepIDs: ids})
	writeJSON(w, http.StatusOK, setupStepsResponse{SetupSteps: out})
}

type batchDeleteResponse struct {
	DeletedCount int `json:"deletedCount"`
}

// DeleteSetupStepsBatch handles DELETE /setup-step/batch with a JSON array of
// step ids. Unknown ids are skipped.
func (h *Handler) DeleteSetupStepsBatch(w http.ResponseWriter, r *http.Request) {
	var ids []string
	if !decodeBody(w, r, &ids) {
		return
	}
	if len(ids) == 0 {
		writeError(w, http.StatusBadRequest, "at least one setup step id is required")
		return
	}
	if len(ids) > maxBatchSteps {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d setup steps per batch", maxBatchSteps))
		return
	}

	n, err := h.DB.DeleteSteps(r.Context(), ids)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete setup steps")
		return
	}

	if n > 0 {
		h.publish(r.Context(), events.Event{Subject: events.StepsBatchDeleted, StepIDs: ids})
	}
	writeJSON(w, http.StatusOK, batchDeleteResponse{DeletedCount: n})
}
