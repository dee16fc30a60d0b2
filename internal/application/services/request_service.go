package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/civicworks/warddesk/backend/internal/domain/entities"
	"github.com/civicworks/warddesk/backend/internal/domain/providers"
	"github.com/civicworks/warddesk/backend/internal/domain/repositories"
	apperrors "github.com/civicworks/warddesk/backend/pkg/errors"
)

// requestTransitions encodes the legal status graph for device requests.
// Anything not listed is rejected.
var requestTransitions = map[entities.DeviceRequestStatus][]entities.DeviceRequestStatus{
	entities.RequestStatusPending:    {entities.RequestStatusApproved, entities.RequestStatusRejected},
	entities.RequestStatusApproved:   {entities.RequestStatusCompleted},
	entities.RequestStatusCompleted:  {entities.RequestStatusDelivering},
	entities.RequestStatusDelivering: {entities.RequestStatusReceived},
	entities.RequestStatusRejected:   {},
	entities.RequestStatusReceived:   {},
}

// RequestActor identifies who performs a workflow operation
type RequestActor struct {
	ID   string
	Name string
	Role entities.ActorRole
}

// RequestService handles the device request workflow
type RequestService struct {
	repo     repositories.DeviceRequestRepository
	wardRepo repositories.WardRepository
	eventBus providers.EventBus
}

// NewRequestService creates a new request service
func NewRequestService(
	repo repositories.DeviceRequestRepository,
	wardRepo repositories.WardRepository,
	eventBus providers.EventBus,
) *RequestService {
	return &RequestService{
		repo:     repo,
		wardRepo: wardRepo,
		eventBus: eventBus,
	}
}

// Create files a new request in the pending state
func (s *RequestService) Create(ctx context.Context, request *entities.DeviceRequest, actor RequestActor) error {
	if len(request.Items) == 0 {
		return apperrors.NewValidationError("request needs at least one item")
	}
	for _, item := range request.Items {
		if item.Category == "" {
			return apperrors.NewValidationError("request item category is required")
		}
		if item.Quantity <= 0 {
			return apperrors.NewValidationError("request item quantity must be positive")
		}
	}

	ward, err := s.wardRepo.GetByID(ctx, request.WardID)
	if err != nil {
		return err
	}
	if ward == nil {
		return apperrors.NewValidationError(fmt.Sprintf("ward %s does not exist", request.WardID))
	}
	request.WardName = ward.Name

	if request.ID == "" {
		request.ID = uuid.New().String()
	}
	request.RequestedBy = actor.ID
	request.RequestedByName = actor.Name
	request.Status = entities.RequestStatusPending
	request.HasNewUpdate = true
	request.LastUpdateByRole = actor.Role
	now := time.Now()
	request.CreatedAt = now
	request.UpdatedAt = now

	if err := s.repo.Create(ctx, request); err != nil {
		return err
	}

	s.publish(ctx, request, actor.Role)
	return nil
}

// GetByID retrieves a request by ID
func (s *RequestService) GetByID(ctx context.Context, id string) (*entities.DeviceRequest, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves requests matching the filter
func (s *RequestService) List(ctx context.Context, filter repositories.DeviceRequestFilter) ([]*entities.DeviceRequest, error) {
	return s.repo.List(ctx, filter)
}

// Approve moves a pending request to approved
func (s *RequestService) Approve(ctx context.Context, id string, notes string, actor RequestActor) error {
	return s.transition(ctx, id, entities.RequestStatusApproved, actor, func(request *entities.DeviceRequest) error {
		request.ApprovedBy = actor.ID
		request.ApprovedByName = actor.Name
		request.Notes = notes
		return nil
	})
}

// Reject moves a pending request to rejected; a reason is mandatory
func (s *RequestService) Reject(ctx context.Context, id string, reason string, actor RequestActor) error {
	if reason == "" {
		return apperrors.NewValidationError("rejection reason is required")
	}
	return s.transition(ctx, id, entities.RequestStatusRejected, actor, func(request *entities.DeviceRequest) error {
		request.ApprovedBy = actor.ID
		request.ApprovedByName = actor.Name
		request.RejectionReason = reason
		return nil
	})
}

// Complete records the allocated serial numbers and moves the request to
// completed, ready for delivery
func (s *RequestService) Complete(ctx context.Context, id string, serials []string, actor RequestActor) error {
	if len(serials) == 0 {
		return apperrors.NewValidationError("allocated serial numbers are required")
	}
	return s.transition(ctx, id, entities.RequestStatusCompleted, actor, func(request *entities.DeviceRequest) error {
		request.AllocatedSerials = serials
		return nil
	})
}

// StartDelivery moves a completed request to delivering
func (s *RequestService) StartDelivery(ctx context.Context, id string, actor RequestActor) error {
	return s.transition(ctx, id, entities.RequestStatusDelivering, actor, nil)
}

// ConfirmReceipt moves a delivering request to received, closing the workflow
func (s *RequestService) ConfirmReceipt(ctx context.Context, id string, actor RequestActor) error {
	return s.transition(ctx, id, entities.RequestStatusReceived, actor, nil)
}

// MarkViewed clears the unread flag on the viewer's side. A ward viewer
// clears center-authored updates and vice versa. A viewed event nudges open
// counter streams so they drop without waiting for the next write.
func (s *RequestService) MarkViewed(ctx context.Context, wardID string, viewer entities.ActorRole) error {
	if err := s.repo.ClearNewUpdates(ctx, wardID, viewer.Opposite()); err != nil {
		return err
	}
	s.publishViewed(ctx, wardID, viewer)
	return nil
}

func (s *RequestService) publishViewed(ctx context.Context, wardID string, viewer entities.ActorRole) {
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

// Delete removes a request entirely
func (s *RequestService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// transition loads the request, checks the status graph, applies mutate,
// stamps the status-derived timestamp and persists. Earlier stamps are kept;
// each status only ever sets its own timestamp.
func (s *RequestService) transition(
	ctx context.Context,
	id string,
	target entities.DeviceRequestStatus,
	actor RequestActor,
	mutate func(*entities.DeviceRequest) error,
) error {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if request == nil {
		return apperrors.NewNotFoundError(fmt.Sprintf("device request %s not found", id))
	}

	if !requestTransitionAllowed(request.Status, target) {
		return apperrors.NewValidationError(
			fmt.Sprintf("cannot move request from %s to %s", request.Status, target))
	}

	if mutate != nil {
		if err := mutate(request); err != nil {
			return err
		}
	}

	now := time.Now()
	request.Status = target
	switch target {
	case entities.RequestStatusApproved, entities.RequestStatusRejected:
		request.ApprovedAt = &now
	case entities.RequestStatusCompleted:
		request.AllocatedAt = &now
	case entities.RequestStatusDelivering:
		request.DeliveredAt = &now
	case entities.RequestStatusReceived:
		request.ReceivedAt = &now
	}

	request.HasNewUpdate = true
	request.LastUpdateByRole = actor.Role

	if err := s.repo.Update(ctx, request); err != nil {
		return err
	}

	s.publish(ctx, request, actor.Role)
	return nil
}

func requestTransitionAllowed(from, to entities.DeviceRequestStatus) bool {
	for _, allowed := range requestTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s *RequestService) publish(ctx context.Context, request *entities.DeviceRequest, actor entities.ActorRole) {
	if s.eventBus == nil {
		return
	}

	event := entities.NewUpdateEvent(request.ID, entities.UpdateEventDeviceRequest,
		request.WardID, actor, string(request.Status), nil)

	if err := s.eventBus.Publish(ctx, providers.EventChannelCenter, event); err != nil {
		log.Printf("Warning: Failed to publish request event for %s: %v", request.ID, err)
	}
	if err := s.eventBus.Publish(ctx, providers.GetWardChannel(request.WardID), event); err != nil {
		log.Printf("Warning: Failed to publish request event for %s: %v", request.ID, err)
	}
}
