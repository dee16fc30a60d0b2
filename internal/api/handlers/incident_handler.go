package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/civicworks/warddesk/backend/internal/application/services"
	"github.com/civicworks/warddesk/backend/internal/domain/entities"
	"github.com/civicworks/warddesk/backend/internal/domain/repositories"
)

// maxAttachmentMemory bounds how much of a multipart upload is buffered in
// memory before spilling to disk.
const maxAttachmentMemory = 32 << 20

// IncidentHandler exposes incident workflow endpoints
type IncidentHandler struct {
	incidentService *services.IncidentService
}

// NewIncidentHandler creates a new incident handler
func NewIncidentHandler(incidentService *services.IncidentService) *IncidentHandler {
	return &IncidentHandler{
		incidentService: incidentService,
	}
}

// ReportIncident handles POST /api/incidents
func (h *IncidentHandler) ReportIncident(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var incident entities.Incident
	if err := json.NewDecoder(r.Body).Decode(&incident); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.incidentService.Report(r.Context(), &incident, actor); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, incident)
}

// GetIncident handles GET /api/incidents/{id}
func (h *IncidentHandler) GetIncident(w http.ResponseWriter, r *http.Request) {
	incident, err := h.incidentService.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	if incident == nil {
		respondWithError(w, http.StatusNotFound, "incident not found")
		return
	}

	respondWithJSON(w, http.StatusOK, incident)
}

// ListIncidents handles GET /api/incidents
func (h *IncidentHandler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	filter := repositories.IncidentFilter{
		WardID:   wardScope(r, r.URL.Query().Get("ward_id")),
		DeviceID: r.URL.Query().Get("device_id"),
		Status:   entities.IncidentStatus(r.URL.Query().Get("status")),
		Limit:    parseLimit(r, 100),
	}

	incidents, err := h.incidentService.List(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"incidents": incidents,
		"count":     len(incidents),
	})
}

// ApproveIncident handles POST /api/incidents/{id}/approve. Ward-side
// endorsement before the center sees the incident; the comment is optional.
func (h *IncidentHandler) ApproveIncident(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req struct {
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.incidentService.ApproveByWard(r.Context(), r.PathValue("id"), req.Comment, actor); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": string(entities.IncidentStatusWardApproved)})
}

// RejectIncident handles POST /api/incidents/{id}/reject. A reason is mandatory.
func (h *IncidentHandler) RejectIncident(w http.ResponseWriter, r *http.Request) {
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

	if err := h.incidentService.RejectByWard(r.Context(), r.PathValue("id"), req.Reason, actor); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": string(entities.IncidentStatusWardRejected)})
}

// StartInvestigation handles POST /api/incidents/{id}/investigate
func (h *IncidentHandler) StartInvestigation(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req struct {
		Technician string `json:"technician"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.incidentService.StartInvestigation(r.Context(), r.PathValue("id"), req.Technician, actor); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": string(entities.IncidentStatusInvestigating)})
}

// StartWork handles POST /api/incidents/{id}/start-work
func (h *IncidentHandler) StartWork(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req struct {
		ExpectedResolution string `json:"expected_resolution"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.incidentService.StartWork(r.Context(), r.PathValue("id"), req.ExpectedResolution, actor); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": string(entities.IncidentStatusInProgress)})
}

// ResolveIncident handles POST /api/incidents/{id}/resolve. What was actually
// done must be recorded.
func (h *IncidentHandler) ResolveIncident(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req struct {
		ActualResolution string `json:"actual_resolution"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.incidentService.Resolve(r.Context(), r.PathValue("id"), req.ActualResolution, actor); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": string(entities.IncidentStatusResolved)})
}

// CloseIncident handles POST /api/incidents/{id}/close
func (h *IncidentHandler) CloseIncident(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req struct {
		Note string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.incidentService.Close(r.Context(), r.PathValue("id"), req.Note, actor); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": string(entities.IncidentStatusClosed)})
}

// ReplaceAttachments handles PUT /api/incidents/{id}/attachments. The uploaded
// set replaces the incident's image list outright.
func (h *IncidentHandler) ReplaceAttachments(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	if err := r.ParseMultipartForm(maxAttachmentMemory); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	var attachments []services.IncidentAttachment
	for _, header := range r.MultipartForm.File["images"] {
		file, err := header.Open()
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "unreadable attachment")
			return
		}
		defer file.Close()

		attachments = append(attachments, services.IncidentAttachment{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Body:        file,
		})
	}

	if err := h.incidentService.ReplaceAttachments(r.Context(), r.PathValue("id"), attachments, actor); err != nil {
		respondWithServiceError(w, err)
		return
	}

	incident, err := h.incidentService.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"image_urls": incident.ImageURLs,
	})
}

// MarkIncidentsViewed handles POST /api/incidents/mark-viewed
func (h *IncidentHandler) MarkIncidentsViewed(w http.ResponseWriter, r *http.Request) {
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

	if err := h.incidentService.MarkViewed(r.Context(), wardScope(r, req.WardID), actor.Role); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "viewed"})
}
