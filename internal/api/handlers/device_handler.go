package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/civicworks/warddesk/backend/internal/application/services"
	"github.com/civicworks/warddesk/backend/internal/domain/entities"
	"github.com/civicworks/warddesk/backend/internal/domain/repositories"
	"github.com/civicworks/warddesk/backend/internal/domain/specs"
)

// DeviceHandler exposes device inventory endpoints
type DeviceHandler struct {
	deviceService *services.DeviceService
}

// NewDeviceHandler creates a new device handler
func NewDeviceHandler(deviceService *services.DeviceService) *DeviceHandler {
	return &DeviceHandler{
		deviceService: deviceService,
	}
}

// CreateDevice handles POST /api/devices
func (h *DeviceHandler) CreateDevice(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var device entities.Device
	if err := json.NewDecoder(r.Body).Decode(&device); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.deviceService.Create(r.Context(), &device, actor.Role); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, device)
}

// GetDevice handles GET /api/devices/{id}
func (h *DeviceHandler) GetDevice(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("id")
	if deviceID == "" {
		respondWithError(w, http.StatusBadRequest, "device ID is required")
		return
	}

	device, err := h.deviceService.GetByID(r.Context(), deviceID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	if device == nil {
		respondWithError(w, http.StatusNotFound, "device not found")
		return
	}

	respondWithJSON(w, http.StatusOK, device)
}

// ListDevices handles GET /api/devices
func (h *DeviceHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	filter := repositories.DeviceFilter{
		WardID:   wardScope(r, r.URL.Query().Get("ward_id")),
		Status:   entities.DeviceStatus(r.URL.Query().Get("status")),
		Category: r.URL.Query().Get("category"),
		Limit:    parseLimit(r, 100),
	}
	if r.URL.Query().Get("unassigned") == "true" {
		filter.Unassigned = true
	}

	devices, err := h.deviceService.List(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"devices": devices,
		"count":   len(devices),
	})
}

// UpdateDevice handles PUT /api/devices/{id}
func (h *DeviceHandler) UpdateDevice(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	deviceID := r.PathValue("id")
	if deviceID == "" {
		respondWithError(w, http.StatusBadRequest, "device ID is required")
		return
	}

	var device entities.Device
	if err := json.NewDecoder(r.Body).Decode(&device); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	device.ID = deviceID

	if err := h.deviceService.Update(r.Context(), &device, actor.Role); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, device)
}

// AssignDevice handles POST /api/devices/{id}/assign
func (h *DeviceHandler) AssignDevice(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	deviceID := r.PathValue("id")

	var req struct {
		WardID string `json:"ward_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.WardID == "" {
		respondWithError(w, http.StatusBadRequest, "ward_id is required")
		return
	}

	if err := h.deviceService.AssignToWard(r.Context(), deviceID, req.WardID, actor.Role); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "assigned"})
}

// DeleteDevice handles DELETE /api/devices/{id}
func (h *DeviceHandler) DeleteDevice(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	deviceID := r.PathValue("id")
	if err := h.deviceService.Delete(r.Context(), deviceID, actor.Role); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ListCategories handles GET /api/devices/categories
func (h *DeviceHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"categories": specs.Categories(),
	})
}

// GetCategoryFields handles GET /api/devices/categories/{category}/fields.
// It returns the ordered field metadata the client renders a spec form from.
func (h *DeviceHandler) GetCategoryFields(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")

	keys := specs.FieldsForCategory(category)
	fields := make([]specs.Field, 0, len(keys))
	for _, key := range keys {
		if meta, ok := specs.FieldMeta(key); ok {
			fields = append(fields, meta)
		}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"category": category,
		"fields":   fields,
	})
}

// parseLimit reads the limit query parameter, falling back to a default
func parseLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}
