package routes

import (
	"net/http"

	"sidesa/handler"
	"sidesa/middleware"
	"sidesa/rbac"
	"sidesa/service"

	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(
	complaintService *service.ComplaintService,
	workflowService *service.WorkflowService,
	notificationService *service.NotificationService,
	matrix *rbac.Matrix,
	jwtSecret string,
) *mux.Router {
	router := mux.NewRouter()

	complaintHandler := handler.NewComplaintHandler(complaintService, notificationService)
	workflowHandler := handler.NewWorkflowHandler(workflowService)
	authMiddleware := middleware.NewAuthMiddleware(matrix, jwtSecret)

	// API v1 routes
	apiV1 := router.PathPrefix("/api/v1").Subrouter()

	// Citizen routes (require auth)
	complaints := apiV1.PathPrefix("/complaints").Subrouter()
	complaints.Handle("", authMiddleware.RequireAuth(http.HandlerFunc(complaintHandler.ListOwnComplaints))).Methods("GET")
	complaints.Handle("", authMiddleware.RequireAuth(http.HandlerFunc(complaintHandler.CreateComplaint))).Methods("POST")
	complaints.Handle("/{id}", authMiddleware.RequireAuth(http.HandlerFunc(complaintHandler.GetComplaintByID))).Methods("GET")
	complaints.Handle("/{id}/timeline", authMiddleware.RequireAuth(http.HandlerFunc(complaintHandler.GetTimeline))).Methods("GET")

	apiV1.Handle("/notifications", authMiddleware.RequireAuth(http.HandlerFunc(complaintHandler.ListNotifications))).Methods("GET")

	// Admin area: the work queue and the validated workflow transitions.
	// There is intentionally no endpoint that writes a status directly.
	admin := apiV1.PathPrefix("/admin/complaints").Subrouter()
	admin.Handle("", authMiddleware.RequireAdminArea(http.HandlerFunc(complaintHandler.ListQueue))).Methods("GET")
	admin.Handle("/{id}/approve", authMiddleware.RequireAdminArea(http.HandlerFunc(workflowHandler.Approve))).Methods("POST")
	admin.Handle("/{id}/reject", authMiddleware.RequireAdminArea(http.HandlerFunc(workflowHandler.Reject))).Methods("POST")
	admin.Handle("/{id}/process", authMiddleware.RequireAdminArea(http.HandlerFunc(workflowHandler.BeginProcessing))).Methods("POST")
	admin.Handle("/{id}/close", authMiddleware.RequireAdminArea(http.HandlerFunc(workflowHandler.Close))).Methods("POST")
	admin.Handle("/{id}", authMiddleware.RequireAdminArea(http.HandlerFunc(workflowHandler.Purge))).Methods("DELETE")

	// Health check
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	return router
}
