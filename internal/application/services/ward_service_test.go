package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicworks/warddesk/backend/internal/domain/entities"
	"github.com/civicworks/warddesk/backend/internal/domain/repositories"
	apperrors "github.com/civicworks/warddesk/backend/pkg/errors"
)

func newWardFixture(t *testing.T) (*WardService, *fakeWardRepo, *fakeDeviceRepo, *fakeWardUserRepo, *fakeRoomRepo) {
	t.Helper()
	wards := newFakeWardRepo()
	rooms := newFakeRoomRepo()
	members := newFakeWardUserRepo()
	devices := newFakeDeviceRepo()
	svc := NewWardService(wards, rooms, members, devices)

	wards.wards["ward-3"] = &entities.Ward{ID: "ward-3", Name: "Ward 3", IsActive: true}
	return svc, wards, devices, members, rooms
}

func TestWardService_Deactivate(t *testing.T) {
	ctx := context.Background()

	t.Run("blocked while the ward owns devices", func(t *testing.T) {
		svc, wards, devices, _, _ := newWardFixture(t)
		wardID := "ward-3"
		devices.devices["dev-1"] = &entities.Device{ID: "dev-1", WardID: &wardID}

		err := svc.Deactivate(ctx, "ward-3")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
		assert.True(t, wards.wards["ward-3"].IsActive)
	})

	t.Run("blocked while the ward has active members", func(t *testing.T) {
		svc, _, _, members, _ := newWardFixture(t)
		members.members["wu-1"] = &entities.WardUser{ID: "wu-1", WardID: "ward-3", IsActive: true}

		err := svc.Deactivate(ctx, "ward-3")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
	})

	t.Run("allowed once the ward is empty", func(t *testing.T) {
		svc, wards, _, _, _ := newWardFixture(t)

		require.NoError(t, svc.Deactivate(ctx, "ward-3"))
		assert.False(t, wards.wards["ward-3"].IsActive)
	})

	t.Run("unknown ward is not found", func(t *testing.T) {
		svc, _, _, _, _ := newWardFixture(t)

		err := svc.Deactivate(ctx, "nope")
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestWardService_RoomAssignment(t *testing.T) {
	ctx := context.Background()
	svc, wards, _, members, rooms := newWardFixture(t)

	wards.wards["ward-4"] = &entities.Ward{ID: "ward-4", Name: "Ward 4", IsActive: true}
	rooms.rooms["room-1"] = &entities.WardRoom{ID: "room-1", WardID: "ward-3", Name: "Room 101"}
	rooms.rooms["room-2"] = &entities.WardRoom{ID: "room-2", WardID: "ward-4", Name: "Room 201"}
	members.members["wu-1"] = &entities.WardUser{
		ID: "wu-1", WardID: "ward-3", FullName: "A. Clerk", IsActive: true,
	}

	t.Run("unassigned members have an empty room id", func(t *testing.T) {
		unassigned, err := svc.ListUnassignedMembers(ctx, "ward-3")
		require.NoError(t, err)
		require.Len(t, unassigned, 1)
		assert.Equal(t, "wu-1", unassigned[0].ID)
	})

	t.Run("cross-ward assignment is rejected", func(t *testing.T) {
		err := svc.AssignMemberToRoom(ctx, "wu-1", "room-2")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("assignment removes the member from the unassigned set", func(t *testing.T) {
		require.NoError(t, svc.AssignMemberToRoom(ctx, "wu-1", "room-1"))
		assert.Equal(t, "room-1", members.members["wu-1"].RoomID)
		assert.Equal(t, "Room 101", members.members["wu-1"].RoomName)

		unassigned, err := svc.ListUnassignedMembers(ctx, "ward-3")
		require.NoError(t, err)
		assert.Empty(t, unassigned)
	})

	t.Run("empty room id clears the assignment", func(t *testing.T) {
		require.NoError(t, svc.AssignMemberToRoom(ctx, "wu-1", ""))
		assert.Equal(t, "", members.members["wu-1"].RoomID)
	})
}

func TestWardService_DeleteRoom(t *testing.T) {
	ctx := context.Background()
	svc, _, _, members, rooms := newWardFixture(t)

	rooms.rooms["room-1"] = &entities.WardRoom{ID: "room-1", WardID: "ward-3", Name: "Room 101"}
	members.members["wu-1"] = &entities.WardUser{
		ID: "wu-1", WardID: "ward-3", RoomID: "room-1", RoomName: "Room 101", IsActive: true,
	}

	require.NoError(t, svc.DeleteRoom(ctx, "room-1"))

	assert.NotContains(t, rooms.rooms, "room-1")
	assert.Equal(t, "", members.members["wu-1"].RoomID, "members fall back to unassigned")
}

func TestWardService_AddMember(t *testing.T) {
	ctx := context.Background()
	svc, _, _, members, _ := newWardFixture(t)

	member := &entities.WardUser{WardID: "ward-3", FullName: "B. Worker"}
	require.NoError(t, svc.AddMember(ctx, member))

	assert.NotEmpty(t, member.ID)
	assert.Equal(t, "Ward 3", member.WardName)
	assert.Equal(t, entities.WardUserRoleUser, member.Role)
	assert.True(t, member.IsActive)
	assert.Contains(t, members.members, member.ID)

	t.Run("unknown ward rejected", func(t *testing.T) {
		err := svc.AddMember(ctx, &entities.WardUser{WardID: "nope", FullName: "C"})
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}

func TestWardService_ListMembersByRole(t *testing.T) {
	ctx := context.Background()
	svc, _, _, members, _ := newWardFixture(t)

	members.members["wu-1"] = &entities.WardUser{ID: "wu-1", WardID: "ward-3", Role: entities.WardUserRoleWard, IsActive: true}
	members.members["wu-2"] = &entities.WardUser{ID: "wu-2", WardID: "ward-3", Role: entities.WardUserRoleUser, IsActive: true}

	managers, err := svc.ListMembers(ctx, repositories.WardUserFilter{
		WardID: "ward-3",
		Role:   entities.WardUserRoleWard,
	})
	require.NoError(t, err)
	require.Len(t, managers, 1)
	assert.Equal(t, "wu-1", managers[0].ID)
}
