package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"sidesa/middleware"
	"sidesa/models"
	"sidesa/service"
)

// WorkflowHandler exposes the validated complaint transitions. These four
// endpoints plus purge are the only status writers in the system: there is no
// generic "set status" endpoint by design, every change goes through the
// transition table.
type WorkflowHandler struct {
	workflow *service.WorkflowService
}

// NewWorkflowHandler creates a new workflow handler
func NewWorkflowHandler(workflow *service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{workflow: workflow}
}

// Approve handles POST /api/v1/admin/complaints/{id}/approve
func (h *WorkflowHandler) Approve(w http.ResponseWriter, r *http.Request) {
	actor, id, req, ok := h.transitionRequest(w, r)
	if !ok {
		return
	}

	resp, err := h.workflow.Approve(r.Context(), actor, id, req.Note)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// Reject handles POST /api/v1/admin/complaints/{id}/reject
func (h *WorkflowHandler) Reject(w http.ResponseWriter, r *http.Request) {
	actor, id, req, ok := h.transitionRequest(w, r)
	if !ok {
		return
	}
	if req.Note == "" {
		respondWithError(w, http.StatusBadRequest, "Validation error", "A rejection reason is required")
		return
	}

	resp, err := h.workflow.Reject(r.Context(), actor, id, req.Note)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// BeginProcessing handles POST /api/v1/admin/complaints/{id}/process
func (h *WorkflowHandler) BeginProcessing(w http.ResponseWriter, r *http.Request) {
	actor, id, req, ok := h.transitionRequest(w, r)
	if !ok {
		return
	}

	resp, err := h.workflow.BeginProcessing(r.Context(), actor, id, req.Note)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// Close handles POST /api/v1/admin/complaints/{id}/close
func (h *WorkflowHandler) Close(w http.ResponseWriter, r *http.Request) {
	actor, id, req, ok := h.transitionRequest(w, r)
	if !ok {
		return
	}

	outcome, valid := models.CloseOutcome(req.Outcome)
	if !valid {
		respondWithError(w, http.StatusBadRequest, "Validation error", "Outcome must be resolved or approved_closed")
		return
	}

	resp, err := h.workflow.Close(r.Context(), actor, id, outcome, req.Note)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// Purge handles DELETE /api/v1/admin/complaints/{id}. Only rejected
// complaints can be removed.
func (h *WorkflowHandler) Purge(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.ActorFromContext(r.Context())
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Actor not found in context")
		return
	}
	id, ok := complaintID(w, r)
	if !ok {
		return
	}

	if err := h.workflow.Purge(r.Context(), actor, id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"complaint_id": id, "purged": true})
}

// transitionRequest pulls the actor, complaint id and optional body shared by
// every transition endpoint. A missing body is fine; the note defaults empty.
func (h *WorkflowHandler) transitionRequest(w http.ResponseWriter, r *http.Request) (models.Actor, int64, models.TransitionRequest, bool) {
	var req models.TransitionRequest

	actor, err := middleware.ActorFromContext(r.Context())
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Actor not found in context")
		return models.Actor{}, 0, req, false
	}
	id, ok := complaintID(w, r)
	if !ok {
		return models.Actor{}, 0, req, false
	}

	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			respondWithError(w, http.StatusBadRequest, "Invalid request", "Failed to parse request body")
			return models.Actor{}, 0, req, false
		}
	}
	return actor, id, req, true
}
