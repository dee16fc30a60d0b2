package routes

import (
	"net/http"

	"github.com/civicworks/warddesk/backend/internal/api/handlers"
	"github.com/civicworks/warddesk/backend/internal/api/middleware"
	"github.com/civicworks/warddesk/backend/internal/domain/entities"
	"github.com/civicworks/warddesk/backend/internal/infrastructure/observability"
	"github.com/civicworks/warddesk/backend/pkg/jwt"
)

// Router holds all route handlers

type Router struct {
	mux *http.ServeMux

	authHandler *handlers.AuthHandler

	deviceHandler *handlers.DeviceHandler

	wardHandler *handlers.WardHandler

	requestHandler *handlers.RequestHandler

	incidentHandler *handlers.IncidentHandler

	userHandler   *handlers.UserHandler
	streamHandler *handlers.StreamHandler

	tokens          *jwt.Manager
	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router

func NewRouter(

	authHandler *handlers.AuthHandler,

	deviceHandler *handlers.DeviceHandler,

	wardHandler *handlers.WardHandler,

	requestHandler *handlers.RequestHandler,

	incidentHandler *handlers.IncidentHandler,

	userHandler *handlers.UserHandler,
	streamHandler *handlers.StreamHandler,
	cacheMiddleware *middleware.CacheMiddleware,

	tokens *jwt.Manager,

	metrics *observability.Metrics,

) *Router {

	return &Router{

		mux: http.NewServeMux(),

		authHandler: authHandler,

		deviceHandler: deviceHandler,

		wardHandler: wardHandler,

		requestHandler: requestHandler,

		incidentHandler: incidentHandler,

		userHandler:   userHandler,
		streamHandler: streamHandler,

		tokens:          tokens,
		cacheMiddleware: cacheMiddleware,
		metrics:         metrics,
	}

}

// SetupRoutes configures all application routes

func (r *Router) SetupRoutes() http.Handler {

	auth := middleware.AuthMiddleware(r.tokens)
	centerOnly := middleware.RequireRole(entities.UserRoleCenter)

	protected := func(pattern string, handlerFunc http.HandlerFunc) {
		r.mux.Handle(pattern, auth(handlerFunc))
	}
	center := func(pattern string, handlerFunc http.HandlerFunc) {
		r.mux.Handle(pattern, auth(centerOnly(handlerFunc)))
	}

	// Health check endpoint

	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {

		w.WriteHeader(http.StatusOK)

		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}

	})

	// Auth endpoints

	r.mux.HandleFunc("POST /api/auth/register", r.authHandler.Register)

	r.mux.HandleFunc("POST /api/auth/login", r.authHandler.Login)

	r.mux.HandleFunc("POST /api/auth/refresh", r.authHandler.Refresh)

	r.mux.HandleFunc("POST /api/auth/password-reset", r.authHandler.RequestPasswordReset)

	protected("POST /api/auth/logout", r.authHandler.Logout)
	protected("GET /api/auth/me", r.authHandler.Me)
	protected("POST /api/auth/change-password", r.authHandler.ChangePassword)

	// Device endpoints

	protected("GET /api/devices", r.deviceHandler.ListDevices)

	protected("GET /api/devices/categories", r.deviceHandler.ListCategories)
	protected("GET /api/devices/categories/{category}/fields", r.deviceHandler.GetCategoryFields)

	protected("GET /api/devices/{id}", r.deviceHandler.GetDevice)

	center("POST /api/devices", r.deviceHandler.CreateDevice)
	center("PUT /api/devices/{id}", r.deviceHandler.UpdateDevice)
	center("POST /api/devices/{id}/assign", r.deviceHandler.AssignDevice)
	center("DELETE /api/devices/{id}", r.deviceHandler.DeleteDevice)

	// Ward, room and membership endpoints

	protected("GET /api/wards", r.wardHandler.ListWards)

	protected("GET /api/wards/{id}", r.wardHandler.GetWard)

	center("POST /api/wards", r.wardHandler.CreateWard)
	center("PUT /api/wards/{id}", r.wardHandler.UpdateWard)
	center("POST /api/wards/{id}/deactivate", r.wardHandler.DeactivateWard)

	protected("GET /api/wards/{id}/rooms", r.wardHandler.ListRooms)
	protected("POST /api/wards/{id}/rooms", r.wardHandler.CreateRoom)
	protected("PUT /api/rooms/{id}", r.wardHandler.UpdateRoom)
	protected("DELETE /api/rooms/{id}", r.wardHandler.DeleteRoom)

	protected("GET /api/wards/{id}/members", r.wardHandler.ListMembers)
	protected("GET /api/wards/{id}/members/unassigned", r.wardHandler.ListUnassignedMembers)
	protected("POST /api/wards/{id}/members", r.wardHandler.AddMember)
	protected("POST /api/members/{id}/room", r.wardHandler.AssignMemberToRoom)
	protected("PUT /api/members/{id}", r.wardHandler.UpdateMember)
	protected("DELETE /api/members/{id}", r.wardHandler.RemoveMember)

	// Device request workflow endpoints

	protected("GET /api/requests", r.requestHandler.ListRequests)

	protected("POST /api/requests", r.requestHandler.CreateRequest)
	protected("POST /api/requests/mark-viewed", r.requestHandler.MarkRequestsViewed)

	protected("GET /api/requests/{id}", r.requestHandler.GetRequest)

	center("POST /api/requests/{id}/approve", r.requestHandler.ApproveRequest)
	center("POST /api/requests/{id}/reject", r.requestHandler.RejectRequest)
	center("POST /api/requests/{id}/complete", r.requestHandler.CompleteRequest)
	center("POST /api/requests/{id}/deliver", r.requestHandler.StartDelivery)

	protected("POST /api/requests/{id}/receive", r.requestHandler.ConfirmReceipt)

	center("DELETE /api/requests/{id}", r.requestHandler.DeleteRequest)

	// Incident workflow endpoints

	protected("GET /api/incidents", r.incidentHandler.ListIncidents)

	protected("POST /api/incidents", r.incidentHandler.ReportIncident)
	protected("POST /api/incidents/mark-viewed", r.incidentHandler.MarkIncidentsViewed)

	protected("GET /api/incidents/{id}", r.incidentHandler.GetIncident)

	protected("POST /api/incidents/{id}/approve", r.incidentHandler.ApproveIncident)
	protected("POST /api/incidents/{id}/reject", r.incidentHandler.RejectIncident)

	center("POST /api/incidents/{id}/investigate", r.incidentHandler.StartInvestigation)
	center("POST /api/incidents/{id}/start-work", r.incidentHandler.StartWork)
	center("POST /api/incidents/{id}/resolve", r.incidentHandler.ResolveIncident)
	center("POST /api/incidents/{id}/close", r.incidentHandler.CloseIncident)

	protected("PUT /api/incidents/{id}/attachments", r.incidentHandler.ReplaceAttachments)

	// Profile and settings endpoints

	protected("GET /api/profile", r.userHandler.GetProfile)
	protected("PUT /api/profile", r.userHandler.UpdateProfile)
	protected("POST /api/profile/avatar", r.userHandler.UploadAvatar)

	protected("GET /api/settings", r.userHandler.GetSettings)
	protected("PUT /api/settings", r.userHandler.SaveSettings)

	protected("GET /api/system-settings", r.userHandler.GetSystemSettings)
	center("PUT /api/system-settings", r.userHandler.SaveSystemSettings)

	// Live streams
	if r.streamHandler != nil {
		protected("GET /api/stream/counters", r.streamHandler.StreamCounters)
		protected("GET /api/stream/updates", r.streamHandler.StreamUpdates)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so cached responses also get CORS headers.

	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	// Apply cache middleware if available
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// Apply HTTP performance optimizations (compression, ETag, cache headers)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(handler)

	return handler
}
