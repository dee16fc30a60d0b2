package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/civicworks/warddesk/backend/internal/api/middleware"
	"github.com/civicworks/warddesk/backend/internal/application/services"
	"github.com/civicworks/warddesk/backend/internal/domain/entities"
)

// UserHandler exposes profile, settings and system settings endpoints
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// GetProfile handles GET /api/profile
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	profile, err := h.userService.GetProfile(r.Context(), claims.UserID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	if profile == nil {
		respondWithError(w, http.StatusNotFound, "profile not found")
		return
	}

	respondWithJSON(w, http.StatusOK, profile)
}

// UpdateProfile handles PUT /api/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var profile entities.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	profile.UserID = claims.UserID

	if err := h.userService.UpdateProfile(r.Context(), &profile); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, profile)
}

// UploadAvatar handles POST /api/profile/avatar
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	if err := r.ParseMultipartForm(maxAttachmentMemory); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "avatar file is required")
		return
	}
	defer file.Close()

	url, err := h.userService.UploadAvatar(r.Context(), claims.UserID, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"avatar_url": url})
}

// GetSettings handles GET /api/settings
func (h *UserHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	settings, err := h.userService.GetSettings(r.Context(), claims.UserID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, settings)
}

// SaveSettings handles PUT /api/settings
func (h *UserHandler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var settings entities.UserSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	settings.UserID = claims.UserID

	if err := h.userService.SaveSettings(r.Context(), &settings); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, settings)
}

// GetSystemSettings handles GET /api/system-settings
func (h *UserHandler) GetSystemSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.userService.GetSystemSettings(r.Context())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, settings)
}

// SaveSystemSettings handles PUT /api/system-settings
func (h *UserHandler) SaveSystemSettings(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var settings entities.SystemSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.userService.SaveSystemSettings(r.Context(), &settings, claims.UserID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, settings)
}
