package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/civicworks/warddesk/backend/internal/domain/entities"
	"github.com/civicworks/warddesk/backend/internal/domain/providers"
	"github.com/civicworks/warddesk/backend/internal/domain/repositories"
	"github.com/civicworks/warddesk/backend/internal/domain/specs"
	apperrors "github.com/civicworks/warddesk/backend/pkg/errors"
)

// DeviceService handles business logic for devices
type DeviceService struct {
	repo     repositories.DeviceRepository
	wardRepo repositories.WardRepository
	blobs    providers.BlobStore
	eventBus providers.EventBus
}

// NewDeviceService creates a new device service
func NewDeviceService(
	repo repositories.DeviceRepository,
	wardRepo repositories.WardRepository,
	blobs providers.BlobStore,
	eventBus providers.EventBus,
) *DeviceService {
	return &DeviceService{
		repo:     repo,
		wardRepo: wardRepo,
		blobs:    blobs,
		eventBus: eventBus,
	}
}

// Create validates the specification bag against the device's category and
// persists the device. Malformed specification values are a hard error.
func (s *DeviceService) Create(ctx context.Context, device *entities.Device, actor entities.ActorRole) error {
	if device.Name == "" {
		return apperrors.NewValidationError("device name is required")
	}
	if device.Category == "" {
		return apperrors.NewValidationError("device category is required")
	}
	if fieldErrs := specs.Validate(device.Category, device.Specifications); len(fieldErrs) > 0 {
		return apperrors.NewValidationError(joinFieldErrors(fieldErrs))
	}

	if device.WardID != nil {
		ward, err := s.wardRepo.GetByID(ctx, *device.WardID)
		if err != nil {
			return err
		}
		if ward == nil {
			return apperrors.NewValidationError(fmt.Sprintf("ward %s does not exist", *device.WardID))
		}
		device.WardName = ward.Name
	}

	if device.ID == "" {
		device.ID = uuid.New().String()
	}
	if device.Status == "" {
		device.Status = entities.DeviceStatusActive
	}
	now := time.Now()
	device.CreatedAt = now
	device.UpdatedAt = now

	if err := s.repo.Create(ctx, device); err != nil {
		return err
	}

	s.publish(ctx, device, actor)
	return nil
}

// GetByID retrieves a device by ID
func (s *DeviceService) GetByID(ctx context.Context, id string) (*entities.Device, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves devices matching the filter
func (s *DeviceService) List(ctx context.Context, filter repositories.DeviceFilter) ([]*entities.Device, error) {
	return s.repo.List(ctx, filter)
}

// Update validates and persists changes to a device
func (s *DeviceService) Update(ctx context.Context, device *entities.Device, actor entities.ActorRole) error {
	if fieldErrs := specs.Validate(device.Category, device.Specifications); len(fieldErrs) > 0 {
		return apperrors.NewValidationError(joinFieldErrors(fieldErrs))
	}

	if device.WardID != nil {
		ward, err := s.wardRepo.GetByID(ctx, *device.WardID)
		if err != nil {
			return err
		}
		if ward == nil {
			return apperrors.NewValidationError(fmt.Sprintf("ward %s does not exist", *device.WardID))
		}
		device.WardName = ward.Name
	} else {
		device.WardName = ""
	}

	if err := s.repo.Update(ctx, device); err != nil {
		return err
	}

	s.publish(ctx, device, actor)
	return nil
}

// AssignToWard moves a device from the unassigned pool into a ward
func (s *DeviceService) AssignToWard(ctx context.Context, deviceID, wardID string, actor entities.ActorRole) error {
	device, err := s.repo.GetByID(ctx, deviceID)
	if err != nil {
		return err
	}
	if device == nil {
		return apperrors.NewNotFoundError(fmt.Sprintf("device %s not found", deviceID))
	}

	ward, err := s.wardRepo.GetByID(ctx, wardID)
	if err != nil {
		return err
	}
	if ward == nil {
		return apperrors.NewValidationError(fmt.Sprintf("ward %s does not exist", wardID))
	}

	device.WardID = &wardID
	device.WardName = ward.Name

	if err := s.repo.Update(ctx, device); err != nil {
		return err
	}

	s.publish(ctx, device, actor)
	return nil
}

// Delete removes a device and best-effort deletes its stored images. A failed
// image delete is logged, never surfaced; the device row is already gone.
func (s *DeviceService) Delete(ctx context.Context, id string, actor entities.ActorRole) error {
	device, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if device == nil {
		return apperrors.NewNotFoundError(fmt.Sprintf("device %s not found", id))
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.blobs != nil {
		for _, url := range device.ImageURLs {
			if err := s.blobs.Delete(ctx, url); err != nil {
				log.Printf("Warning: Failed to delete device image %s: %v", url, err)
			}
		}
	}

	s.publish(ctx, device, actor)
	return nil
}

func (s *DeviceService) publish(ctx context.Context, device *entities.Device, actor entities.ActorRole) {
	if s.eventBus == nil {
		return
	}

	wardID := ""
	if device.WardID != nil {
		wardID = *device.WardID
	}
	event := entities.NewUpdateEvent(device.ID, entities.UpdateEventDevice, wardID, actor, string(device.Status), nil)

	if err := s.eventBus.Publish(ctx, providers.EventChannelCenter, event); err != nil {
		log.Printf("Warning: Failed to publish device event for %s: %v", device.ID, err)
	}
	if wardID != "" {
		if err := s.eventBus.Publish(ctx, providers.GetWardChannel(wardID), event); err != nil {
			log.Printf("Warning: Failed to publish device event for %s: %v", device.ID, err)
		}
	}
}

func joinFieldErrors(fieldErrs []specs.FieldError) string {
	msgs := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		msgs[i] = fe.Error()
	}
	return "invalid specifications: " + strings.Join(msgs, "; ")
}
