package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"sidesa/middleware"
	"sidesa/models"
	"sidesa/service"

	"github.com/gorilla/mux"
)

// ComplaintHandler handles HTTP requests for complaint intake and reads
type ComplaintHandler struct {
	service             *service.ComplaintService
	notificationService *service.NotificationService
}

// NewComplaintHandler creates a new complaint handler
func NewComplaintHandler(svc *service.ComplaintService, notificationService *service.NotificationService) *ComplaintHandler {
	return &ComplaintHandler{
		service:             svc,
		notificationService: notificationService,
	}
}

// CreateComplaint handles POST /api/v1/complaints
func (h *ComplaintHandler) CreateComplaint(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.ActorFromContext(r.Context())
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Actor not found in context")
		return
	}

	var req models.CreateComplaintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Failed to parse request body")
		return
	}
	if req.Title == "" {
		respondWithError(w, http.StatusBadRequest, "Validation error", "Title is required")
		return
	}
	if req.Description == "" {
		respondWithError(w, http.StatusBadRequest, "Validation error", "Description is required")
		return
	}

	resp, err := h.service.CreateComplaint(r.Context(), actor, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, resp)
}

// GetComplaintByID handles GET /api/v1/complaints/{id}
func (h *ComplaintHandler) GetComplaintByID(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.ActorFromContext(r.Context())
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Actor not found in context")
		return
	}
	id, ok := complaintID(w, r)
	if !ok {
		return
	}

	complaint, err := h.service.GetComplaint(r.Context(), actor, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, complaint)
}

// GetTimeline handles GET /api/v1/complaints/{id}/timeline
func (h *ComplaintHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.ActorFromContext(r.Context())
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Actor not found in context")
		return
	}
	id, ok := complaintID(w, r)
	if !ok {
		return
	}

	timeline, err := h.service.GetTimeline(r.Context(), actor, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"complaint_id": id, "timeline": timeline})
}

// ListOwnComplaints handles GET /api/v1/complaints (citizen view)
func (h *ComplaintHandler) ListOwnComplaints(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.ActorFromContext(r.Context())
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Actor not found in context")
		return
	}

	complaints, err := h.service.ListOwn(r.Context(), actor)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"complaints": complaints, "count": len(complaints)})
}

// ListQueue handles GET /api/v1/admin/complaints (official work queue).
// Optional ?status= filter; region scoping is applied inside the service.
func (h *ComplaintHandler) ListQueue(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.ActorFromContext(r.Context())
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Actor not found in context")
		return
	}

	status := models.ComplaintStatus(r.URL.Query().Get("status"))
	complaints, err := h.service.ListQueue(r.Context(), actor, status)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"complaints": complaints, "count": len(complaints)})
}

// ListNotifications handles GET /api/v1/notifications (citizen view)
func (h *ComplaintHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.ActorFromContext(r.Context())
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Actor not found in context")
		return
	}

	notifications, err := h.notificationService.ListForUser(r.Context(), actor.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"notifications": notifications, "count": len(notifications)})
}

func complaintID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Complaint id must be a positive integer")
		return 0, false
	}
	return id, true
}

// respondServiceError maps the workflow error taxonomy onto HTTP statuses.
// Conflict (409) is the only retryable outcome; clients should reload the
// complaint and resubmit.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Not found", err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		respondWithError(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, service.ErrInvalidTransition):
		respondWithError(w, http.StatusUnprocessableEntity, "Invalid transition", err.Error())
	case errors.Is(err, service.ErrConflict):
		respondWithError(w, http.StatusConflict, "Conflict", "Complaint was modified concurrently, reload and retry")
	case errors.Is(err, service.ErrResolverUnavailable):
		respondWithError(w, http.StatusServiceUnavailable, "Resolver unavailable", err.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal error", err.Error())
	}
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, errorType, message string) {
	respondWithJSON(w, statusCode, map[string]interface{}{
		"error":   errorType,
		"message": message,
		"code":    statusCode,
	})
}
