package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/civicworks/warddesk/backend/internal/domain/entities"
	"github.com/civicworks/warddesk/backend/internal/domain/repositories"
	apperrors "github.com/civicworks/warddesk/backend/pkg/errors"
)

// WardService handles business logic for wards, their rooms and memberships
type WardService struct {
	repo         repositories.WardRepository
	roomRepo     repositories.WardRoomRepository
	wardUserRepo repositories.WardUserRepository
	deviceRepo   repositories.DeviceRepository
}

// NewWardService creates a new ward service
func NewWardService(
	repo repositories.WardRepository,
	roomRepo repositories.WardRoomRepository,
	wardUserRepo repositories.WardUserRepository,
	deviceRepo repositories.DeviceRepository,
) *WardService {
	return &WardService{
		repo:         repo,
		roomRepo:     roomRepo,
		wardUserRepo: wardUserRepo,
		deviceRepo:   deviceRepo,
	}
}

// Create creates a new ward
func (s *WardService) Create(ctx context.Context, ward *entities.Ward) error {
	if ward.Name == "" {
		return apperrors.NewValidationError("ward name is required")
	}

	if ward.ID == "" {
		ward.ID = uuid.New().String()
	}
	ward.IsActive = true
	now := time.Now()
	ward.CreatedAt = now
	ward.UpdatedAt = now

	return s.repo.Create(ctx, ward)
}

// GetByID retrieves a ward by ID
func (s *WardService) GetByID(ctx context.Context, id string) (*entities.Ward, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves wards matching the filter
func (s *WardService) List(ctx context.Context, filter repositories.WardFilter) ([]*entities.Ward, error) {
	return s.repo.List(ctx, filter)
}

// Update updates a ward
func (s *WardService) Update(ctx context.Context, ward *entities.Ward) error {
	if ward.Name == "" {
		return apperrors.NewValidationError("ward name is required")
	}
	return s.repo.Update(ctx, ward)
}

// Deactivate retires a ward. It is refused while any device or membership
// still references the ward; those must be moved or retired first.
func (s *WardService) Deactivate(ctx context.Context, id string) error {
	ward, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if ward == nil {
		return apperrors.NewNotFoundError(fmt.Sprintf("ward %s not found", id))
	}

	deviceCount, err := s.deviceRepo.CountByWard(ctx, id)
	if err != nil {
		return err
	}
	if deviceCount > 0 {
		return apperrors.NewConflictError(fmt.Sprintf("ward %s still owns %d devices", id, deviceCount))
	}

	memberCount, err := s.wardUserRepo.CountByWard(ctx, id)
	if err != nil {
		return err
	}
	if memberCount > 0 {
		return apperrors.NewConflictError(fmt.Sprintf("ward %s still has %d active members", id, memberCount))
	}

	return s.repo.Deactivate(ctx, id)
}

// CreateRoom adds a room to a ward
func (s *WardService) CreateRoom(ctx context.Context, room *entities.WardRoom) error {
	if room.Name == "" {
		return apperrors.NewValidationError("room name is required")
	}

	ward, err := s.repo.GetByID(ctx, room.WardID)
	if err != nil {
		return err
	}
	if ward == nil {
		return apperrors.NewValidationError(fmt.Sprintf("ward %s does not exist", room.WardID))
	}

	if room.ID == "" {
		room.ID = uuid.New().String()
	}
	now := time.Now()
	room.CreatedAt = now
	room.UpdatedAt = now

	return s.roomRepo.Create(ctx, room)
}

// ListRooms retrieves all rooms of a ward
func (s *WardService) ListRooms(ctx context.Context, wardID string) ([]*entities.WardRoom, error) {
	return s.roomRepo.ListByWard(ctx, wardID)
}

// UpdateRoom updates a room
func (s *WardService) UpdateRoom(ctx context.Context, room *entities.WardRoom) error {
	if room.Name == "" {
		return apperrors.NewValidationError("room name is required")
	}
	return s.roomRepo.Update(ctx, room)
}

// DeleteRoom removes a room. Members assigned to it drop back into the
// unassigned set.
func (s *WardService) DeleteRoom(ctx context.Context, roomID string) error {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return apperrors.NewNotFoundError(fmt.Sprintf("room %s not found", roomID))
	}

	members, err := s.wardUserRepo.List(ctx, repositories.WardUserFilter{
		WardID: room.WardID,
		RoomID: &roomID,
	})
	if err != nil {
		return err
	}
	for _, member := range members {
		member.RoomID = ""
		member.RoomName = ""
		if err := s.wardUserRepo.Update(ctx, member); err != nil {
			return err
		}
	}

	return s.roomRepo.Delete(ctx, roomID)
}

// AddMember creates a membership record linking a user to a ward
func (s *WardService) AddMember(ctx context.Context, member *entities.WardUser) error {
	if member.FullName == "" {
		return apperrors.NewValidationError("member full name is required")
	}

	ward, err := s.repo.GetByID(ctx, member.WardID)
	if err != nil {
		return err
	}
	if ward == nil {
		return apperrors.NewValidationError(fmt.Sprintf("ward %s does not exist", member.WardID))
	}
	member.WardName = ward.Name

	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	if member.Role == "" {
		member.Role = entities.WardUserRoleUser
	}
	member.IsActive = true
	now := time.Now()
	member.CreatedAt = now
	member.UpdatedAt = now

	return s.wardUserRepo.Create(ctx, member)
}

// ListMembers retrieves memberships matching the filter
func (s *WardService) ListMembers(ctx context.Context, filter repositories.WardUserFilter) ([]*entities.WardUser, error) {
	return s.wardUserRepo.List(ctx, filter)
}

// ListUnassignedMembers retrieves a ward's members not assigned to any room
func (s *WardService) ListUnassignedMembers(ctx context.Context, wardID string) ([]*entities.WardUser, error) {
	noRoom := ""
	return s.wardUserRepo.List(ctx, repositories.WardUserFilter{
		WardID: wardID,
		RoomID: &noRoom,
	})
}

// AssignMemberToRoom places a member into a room of the same ward. Passing an
// empty roomID removes the assignment.
func (s *WardService) AssignMemberToRoom(ctx context.Context, memberID, roomID string) error {
	member, err := s.wardUserRepo.GetByID(ctx, memberID)
	if err != nil {
		return err
	}
	if member == nil {
		return apperrors.NewNotFoundError(fmt.Sprintf("ward user %s not found", memberID))
	}

	if roomID == "" {
		member.RoomID = ""
		member.RoomName = ""
		return s.wardUserRepo.Update(ctx, member)
	}

	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return apperrors.NewValidationError(fmt.Sprintf("room %s does not exist", roomID))
	}
	if room.WardID != member.WardID {
		return apperrors.NewValidationError("room belongs to a different ward")
	}

	member.RoomID = room.ID
	member.RoomName = room.Name
	return s.wardUserRepo.Update(ctx, member)
}

// UpdateMember updates a membership record
func (s *WardService) UpdateMember(ctx context.Context, member *entities.WardUser) error {
	return s.wardUserRepo.Update(ctx, member)
}

// RemoveMember soft-deactivates a membership
func (s *WardService) RemoveMember(ctx context.Context, memberID string) error {
	return s.wardUserRepo.Deactivate(ctx, memberID)
}
