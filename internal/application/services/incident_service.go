package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/civicworks/warddesk/backend/internal/domain/entities"
	"github.com/civicworks/warddesk/backend/internal/domain/providers"
	"github.com/civicworks/warddesk/backend/internal/domain/repositories"
	apperrors "github.com/civicworks/warddesk/backend/pkg/errors"
)

// incidentTransitions encodes the legal status graph for incidents.
// Anything not listed is rejected.
var incidentTransitions = map[entities.IncidentStatus][]entities.IncidentStatus{
	entities.IncidentStatusPendingWardApproval: {entities.IncidentStatusWardApproved, entities.IncidentStatusWardRejected},
	entities.IncidentStatusWardApproved:        {entities.IncidentStatusInvestigating},
	entities.IncidentStatusInvestigating:       {entities.IncidentStatusInProgress},
	entities.IncidentStatusInProgress:          {entities.IncidentStatusResolved, entities.IncidentStatusClosed},
	entities.IncidentStatusWardRejected:        {},
	entities.IncidentStatusResolved:            {},
	entities.IncidentStatusClosed:              {},
}

// IncidentAttachment is one uploaded file accompanying an incident
type IncidentAttachment struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// IncidentService handles the incident workflow
type IncidentService struct {
	repo       repositories.IncidentRepository
	deviceRepo repositories.DeviceRepository
	blobs      providers.BlobStore
	eventBus   providers.EventBus
}

// NewIncidentService creates a new incident service
func NewIncidentService(
	repo repositories.IncidentRepository,
	deviceRepo repositories.DeviceRepository,
	blobs providers.BlobStore,
	eventBus providers.EventBus,
) *IncidentService {
	return &IncidentService{
		repo:       repo,
		deviceRepo: deviceRepo,
		blobs:      blobs,
		eventBus:   eventBus,
	}
}

// Report files a new incident awaiting ward approval
func (s *IncidentService) Report(ctx context.Context, incident *entities.Incident, actor RequestActor) error {
	if incident.Title == "" {
		return apperrors.NewValidationError("incident title is required")
	}
	if incident.Severity == "" {
		incident.Severity = entities.IncidentSeverityMedium
	}

	device, err := s.deviceRepo.GetByID(ctx, incident.DeviceID)
	if err != nil {
		return err
	}
	if device == nil {
		return apperrors.NewValidationError(fmt.Sprintf("device %s does not exist", incident.DeviceID))
	}
	incident.DeviceName = device.Name
	if device.WardID != nil {
		incident.WardID = *device.WardID
		incident.WardName = device.WardName
	}

	if incident.ID == "" {
		incident.ID = uuid.New().String()
	}
	incident.ReportedBy = actor.ID
	incident.ReportedByName = actor.Name
	incident.Status = entities.IncidentStatusPendingWardApproval
	incident.HasNewUpdate = true
	incident.LastUpdateByRole = actor.Role
	now := time.Now()
	incident.CreatedAt = now
	incident.UpdatedAt = now

	if err := s.repo.Create(ctx, incident); err != nil {
		return err
	}

	s.publish(ctx, incident, actor.Role)
	return nil
}

// GetByID retrieves an incident by ID
func (s *IncidentService) GetByID(ctx context.Context, id string) (*entities.Incident, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves incidents matching the filter
func (s *IncidentService) List(ctx context.Context, filter repositories.IncidentFilter) ([]*entities.Incident, error) {
	return s.repo.List(ctx, filter)
}

// ApproveByWard confirms the incident on the ward side; the comment is optional
func (s *IncidentService) ApproveByWard(ctx context.Context, id string, comment string, actor RequestActor) error {
	return s.transition(ctx, id, entities.IncidentStatusWardApproved, actor, func(incident *entities.Incident) error {
		now := time.Now()
		incident.WardApprovedBy = actor.ID
		incident.WardApprovedByName = actor.Name
		incident.WardApprovedAt = &now
		incident.WardApprovalComment = comment
		return nil
	})
}

// RejectByWard dismisses the incident on the ward side; a reason is mandatory
func (s *IncidentService) RejectByWard(ctx context.Context, id string, reason string, actor RequestActor) error {
	if reason == "" {
		return apperrors.NewValidationError("rejection reason is required")
	}
	return s.transition(ctx, id, entities.IncidentStatusWardRejected, actor, func(incident *entities.Incident) error {
		now := time.Now()
		incident.WardApprovedBy = actor.ID
		incident.WardApprovedByName = actor.Name
		incident.WardApprovedAt = &now
		incident.WardRejectionReason = reason
		return nil
	})
}

// StartInvestigation moves a ward-approved incident to investigating
func (s *IncidentService) StartInvestigation(ctx context.Context, id string, technician string, actor RequestActor) error {
	return s.transition(ctx, id, entities.IncidentStatusInvestigating, actor, func(incident *entities.Incident) error {
		incident.AssignedTechnician = technician
		return nil
	})
}

// StartWork moves an investigating incident to in_progress
func (s *IncidentService) StartWork(ctx context.Context, id string, expectedResolution string, actor RequestActor) error {
	return s.transition(ctx, id, entities.IncidentStatusInProgress, actor, func(incident *entities.Incident) error {
		incident.ExpectedResolution = expectedResolution
		return nil
	})
}

// Resolve closes out the repair with a description of what was done
func (s *IncidentService) Resolve(ctx context.Context, id string, actualResolution string, actor RequestActor) error {
	if actualResolution == "" {
		return apperrors.NewValidationError("actual resolution is required")
	}
	return s.transition(ctx, id, entities.IncidentStatusResolved, actor, func(incident *entities.Incident) error {
		incident.ActualResolution = actualResolution
		return nil
	})
}

// Close ends the incident without a repair outcome; the closing note becomes
// the recorded resolution
func (s *IncidentService) Close(ctx context.Context, id string, note string, actor RequestActor) error {
	if note == "" {
		return apperrors.NewValidationError("closing note is required")
	}
	return s.transition(ctx, id, entities.IncidentStatusClosed, actor, func(incident *entities.Incident) error {
		incident.ActualResolution = note
		return nil
	})
}

// ReplaceAttachments uploads the given files and replaces the incident's
// stored URL list with the new uploads. The previous list is overwritten,
// not appended to; callers resubmitting must include the files they keep.
func (s *IncidentService) ReplaceAttachments(ctx context.Context, id string, attachments []IncidentAttachment, actor RequestActor) error {
	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if incident == nil {
		return apperrors.NewNotFoundError(fmt.Sprintf("incident %s not found", id))
	}

	urls := make([]string, 0, len(attachments))
	for _, att := range attachments {
		path := fmt.Sprintf("incidents/images/%d_%s", time.Now().UnixMilli(), att.Filename)
		url, err := s.blobs.Upload(ctx, path, att.ContentType, att.Body)
		if err != nil {
			return apperrors.NewExternalError(fmt.Sprintf("failed to upload attachment %s", att.Filename), err)
		}
		urls = append(urls, url)
	}

	previous := incident.ImageURLs
	incident.ImageURLs = urls
	incident.HasNewUpdate = true
	incident.LastUpdateByRole = actor.Role

	if err := s.repo.Update(ctx, incident); err != nil {
		return err
	}

	// Best-effort cleanup of the replaced batch. A failed blob delete is
	// logged, never surfaced; the incident row already points at the new set.
	kept := make(map[string]bool, len(urls))
	for _, url := range urls {
		kept[url] = true
	}
	for _, url := range previous {
		if kept[url] {
			continue
		}
		if err := s.blobs.Delete(ctx, url); err != nil {
			log.Printf("Warning: Failed to delete replaced attachment %s: %v", url, err)
		}
	}

	s.publish(ctx, incident, actor.Role)
	return nil
}

// MarkViewed clears the unread flag on the viewer's side and nudges open
// counter streams so they drop without waiting for the next write
func (s *IncidentService) MarkViewed(ctx context.Context, wardID string, viewer entities.ActorRole) error {
	if err := s.repo.ClearNewUpdates(ctx, wardID, viewer.Opposite()); err != nil {
		return err
	}
	s.publishViewed(ctx, wardID, viewer)
	return nil
}

func (s *IncidentService) publishViewed(ctx context.Context, wardID string, viewer entities.ActorRole) {
	if s.eventBus == nil {
		return
	}

	event := entities.NewUpdateEvent("", entities.UpdateEventViewed, wardID, viewer, "", nil)

	if err := s.eventBus.Publish(ctx, providers.EventChannelCenter, event); err != nil {
		log.Printf("Warning: Failed to publish viewed event: %v", err)
	}
	if wardID != "" {
		if err := s.eventBus.Publish(ctx, providers.GetWardChannel(wardID), event); err != nil {
			log.Printf("Warning: Failed to publish viewed event: %v", err)
		}
	}
}

// transition loads the incident, checks the status graph, applies mutate,
// stamps resolution fields for terminal repair states and persists.
func (s *IncidentService) transition(
	ctx context.Context,
	id string,
	target entities.IncidentStatus,
	actor RequestActor,
	mutate func(*entities.Incident) error,
) error {
	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if incident == nil {
		return apperrors.NewNotFoundError(fmt.Sprintf("incident %s not found", id))
	}

	if !incidentTransitionAllowed(incident.Status, target) {
		return apperrors.NewValidationError(
			fmt.Sprintf("cannot move incident from %s to %s", incident.Status, target))
	}

	if mutate != nil {
		if err := mutate(incident); err != nil {
			return err
		}
	}

	incident.Status = target
	if target == entities.IncidentStatusResolved || target == entities.IncidentStatusClosed {
		now := time.Now()
		incident.ResolvedAt = &now
	}

	incident.HasNewUpdate = true
	incident.LastUpdateByRole = actor.Role

	if err := s.repo.Update(ctx, incident); err != nil {
		return err
	}

	s.publish(ctx, incident, actor.Role)
	return nil
}

func incidentTransitionAllowed(from, to entities.IncidentStatus) bool {
	for _, allowed := range incidentTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s *IncidentService) publish(ctx context.Context, incident *entities.Incident, actor entities.ActorRole) {
	if s.eventBus == nil {
		return
	}

	event := entities.NewUpdateEvent(incident.ID, entities.UpdateEventIncident,
		incident.WardID, actor, string(incident.Status), nil)

	if err := s.eventBus.Publish(ctx, providers.EventChannelCenter, event); err != nil {
		log.Printf("Warning: Failed to publish incident event for %s: %v", incident.ID, err)
	}
	if incident.WardID != "" {
		if err := s.eventBus.Publish(ctx, providers.GetWardChannel(incident.WardID), event); err != nil {
			log.Printf("Warning: Failed to publish incident event for %s: %v", incident.ID, err)
		}
	}
}
