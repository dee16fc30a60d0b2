package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/civicworks/warddesk/backend/internal/application/services"
	"github.com/civicworks/warddesk/backend/internal/domain/entities"
	"github.com/civicworks/warddesk/backend/internal/domain/repositories"
)

// RequestHandler exposes device request workflow endpoints
type RequestHandler struct {
	requestService *services.RequestService
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(requestService *services.RequestService) *RequestHandler {
	return &RequestHandler{
		requestService: requestService,
	}
}

// CreateRequest handles POST /api/requests
func (h *RequestHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var request entities.DeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.requestService.Create(r.Context(), &request, actor); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, request)
}

// GetRequest handles GET /api/requests/{id}
func (h *RequestHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	request, err := h.requestService.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	if request == nil {
		respondWithError(w, http.StatusNotFound, "request not found")
		return
	}

	respondWithJSON(w, http.StatusOK, request)
}

// ListRequests handles GET /api/requests
func (h *RequestHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	filter := repositories.DeviceRequestFilter{
		WardID: wardScope(r, r.URL.Query().Get("ward_id")),
		Status: entities.DeviceRequestStatus(r.URL.Query().Get("status")),
		Limit:  parseLimit(r, 100),
	}

	requests, err := h.requestService.List(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"requests": requests,
		"count":    len(requests),
	})
}

// ApproveRequest handles POST /api/requests/{id}/approve
func (h *RequestHandler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req struct {
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.requestService.Approve(r.Context(), r.PathValue("id"), req.Notes, actor); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": string(entities.RequestStatusApproved)})
}

// RejectRequest handles POST /api/requests/{id}/reject. A reason is mandatory.
func (h *RequestHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.requestService.Reject(r.Context(), r.PathValue("id"), req.Reason, actor); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": string(entities.RequestStatusRejected)})
}

// CompleteRequest handles POST /api/requests/{id}/complete. The center records
// the allocated serial numbers here.
func (h *RequestHandler) CompleteRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req struct {
		Serials []string `json:"serials"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.requestService.Complete(r.Context(), r.PathValue("id"), req.Serials, actor); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": string(entities.RequestStatusCompleted)})
}

// StartDelivery handles POST /api/requests/{id}/deliver
func (h *RequestHandler) StartDelivery(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	if err := h.requestService.StartDelivery(r.Context(), r.PathValue("id"), actor); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": string(entities.RequestStatusDelivering)})
}

// ConfirmReceipt handles POST /api/requests/{id}/receive
func (h *RequestHandler) ConfirmReceipt(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	if err := h.requestService.ConfirmReceipt(r.Context(), r.PathValue("id"), actor); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": string(entities.RequestStatusReceived)})
}

// MarkRequestsViewed handles POST /api/requests/mark-viewed. It clears the
// new-update flags left by the other party for the viewer's side.
func (h *RequestHandler) MarkRequestsViewed(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req struct {
		WardID string `json:"ward_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.requestService.MarkViewed(r.Context(), wardScope(r, req.WardID), actor.Role); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "viewed"})
}

// DeleteRequest handles DELETE /api/requests/{id}
func (h *RequestHandler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	if err := h.requestService.Delete(r.Context(), r.PathValue("id")); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
