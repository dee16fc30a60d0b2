package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/civicworks/warddesk/backend/internal/api/middleware"
	"github.com/civicworks/warddesk/backend/internal/application/services"
	"github.com/civicworks/warddesk/backend/internal/domain/entities"
	apperrors "github.com/civicworks/warddesk/backend/pkg/errors"
)

// Helper functions shared by all handlers

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithServiceError maps the error taxonomy onto HTTP status codes.
// Internal and external failures never leak their details to the client.
func respondWithServiceError(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		switch appErr.Type {
		case apperrors.ErrorTypeNotFound:
			respondWithError(w, http.StatusNotFound, appErr.Message)
		case apperrors.ErrorTypeValidation:
			respondWithError(w, http.StatusBadRequest, appErr.Message)
		case apperrors.ErrorTypeConflict:
			respondWithError(w, http.StatusConflict, appErr.Message)
		case apperrors.ErrorTypeUnauthorized:
			respondWithError(w, http.StatusUnauthorized, appErr.Message)
		case apperrors.ErrorTypeExternal:
			respondWithError(w, http.StatusBadGateway, "upstream service error")
		default:
			respondWithError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}
	respondWithError(w, http.StatusInternalServerError, "internal server error")
}

// actorFromRequest derives the acting party from the authenticated claims.
// The second return is false when the request carries no claims, which only
// happens on routes left outside the auth middleware by mistake.
func actorFromRequest(r *http.Request) (services.RequestActor, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return services.RequestActor{}, false
	}
	return services.RequestActor{
		ID:   claims.UserID,
		Name: claims.Email,
		Role: middleware.ActorRoleFromClaims(claims),
	}, true
}

// wardScope limits listing and mark-viewed operations to the caller's own
// ward. A ward account gets its claims ward no matter what it asked for;
// center and admin accounts pass the requested ward through.
func wardScope(r *http.Request, requested string) string {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if ok && claims.Role == string(entities.UserRoleWard) {
		return claims.WardID
	}
	return requested
}
