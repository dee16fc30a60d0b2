package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/civicworks/warddesk/backend/internal/application/services"
	"github.com/civicworks/warddesk/backend/internal/domain/entities"
	"github.com/civicworks/warddesk/backend/internal/domain/repositories"
)

// WardHandler exposes ward, room and membership endpoints
type WardHandler struct {
	wardService *services.WardService
}

// NewWardHandler creates a new ward handler
func NewWardHandler(wardService *services.WardService) *WardHandler {
	return &WardHandler{
		wardService: wardService,
	}
}

// CreateWard handles POST /api/wards
func (h *WardHandler) CreateWard(w http.ResponseWriter, r *http.Request) {
	var ward entities.Ward
	if err := json.NewDecoder(r.Body).Decode(&ward); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.wardService.Create(r.Context(), &ward); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, ward)
}

// GetWard handles GET /api/wards/{id}
func (h *WardHandler) GetWard(w http.ResponseWriter, r *http.Request) {
	ward, err := h.wardService.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	if ward == nil {
		respondWithError(w, http.StatusNotFound, "ward not found")
		return
	}

	respondWithJSON(w, http.StatusOK, ward)
}

// ListWards handles GET /api/wards
func (h *WardHandler) ListWards(w http.ResponseWriter, r *http.Request) {
	filter := repositories.WardFilter{
		District: r.URL.Query().Get("district"),
		Limit:    parseLimit(r, 100),
	}
	if r.URL.Query().Get("active") == "true" {
		active := true
		filter.IsActive = &active
	}

	wards, err := h.wardService.List(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"wards": wards,
		"count": len(wards),
	})
}

// UpdateWard handles PUT /api/wards/{id}
func (h *WardHandler) UpdateWard(w http.ResponseWriter, r *http.Request) {
	var ward entities.Ward
	if err := json.NewDecoder(r.Body).Decode(&ward); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ward.ID = r.PathValue("id")

	if err := h.wardService.Update(r.Context(), &ward); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, ward)
}

// DeactivateWard handles POST /api/wards/{id}/deactivate. A ward still owning
// devices or active members is refused with a conflict.
func (h *WardHandler) DeactivateWard(w http.ResponseWriter, r *http.Request) {
	if err := h.wardService.Deactivate(r.Context(), r.PathValue("id")); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

// CreateRoom handles POST /api/wards/{id}/rooms
func (h *WardHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var room entities.WardRoom
	if err := json.NewDecoder(r.Body).Decode(&room); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	room.WardID = r.PathValue("id")

	if err := h.wardService.CreateRoom(r.Context(), &room); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, room)
}

// ListRooms handles GET /api/wards/{id}/rooms
func (h *WardHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.wardService.ListRooms(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"rooms": rooms,
		"count": len(rooms),
	})
}

// UpdateRoom handles PUT /api/rooms/{id}
func (h *WardHandler) UpdateRoom(w http.ResponseWriter, r *http.Request) {
	var room entities.WardRoom
	if err := json.NewDecoder(r.Body).Decode(&room); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	room.ID = r.PathValue("id")

	if err := h.wardService.UpdateRoom(r.Context(), &room); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, room)
}

// DeleteRoom handles DELETE /api/rooms/{id}. Members of the deleted room drop
// back into the ward's unassigned pool.
func (h *WardHandler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	if err := h.wardService.DeleteRoom(r.Context(), r.PathValue("id")); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// AddMember handles POST /api/wards/{id}/members
func (h *WardHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	var member entities.WardUser
	if err := json.NewDecoder(r.Body).Decode(&member); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	member.WardID = r.PathValue("id")

	if err := h.wardService.AddMember(r.Context(), &member); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, member)
}

// ListMembers handles GET /api/wards/{id}/members
func (h *WardHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	filter := repositories.WardUserFilter{
		WardID: r.PathValue("id"),
		Role:   entities.WardUserRole(r.URL.Query().Get("role")),
		Limit:  parseLimit(r, 100),
	}
	if roomID := r.URL.Query().Get("room_id"); roomID != "" {
		filter.RoomID = &roomID
	}

	members, err := h.wardService.ListMembers(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"members": members,
		"count":   len(members),
	})
}

// ListUnassignedMembers handles GET /api/wards/{id}/members/unassigned
func (h *WardHandler) ListUnassignedMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.wardService.ListUnassignedMembers(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"members": members,
		"count":   len(members),
	})
}

// AssignMemberToRoom handles POST /api/members/{id}/room. An empty room_id
// moves the member back to the unassigned pool.
func (h *WardHandler) AssignMemberToRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomID string `json:"room_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.wardService.AssignMemberToRoom(r.Context(), r.PathValue("id"), req.RoomID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "assigned"})
}

// UpdateMember handles PUT /api/members/{id}
func (h *WardHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	var member entities.WardUser
	if err := json.NewDecoder(r.Body).Decode(&member); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	member.ID = r.PathValue("id")

	if err := h.wardService.UpdateMember(r.Context(), &member); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, member)
}

// RemoveMember handles DELETE /api/members/{id}
func (h *WardHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	if err := h.wardService.RemoveMember(r.Context(), r.PathValue("id")); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
