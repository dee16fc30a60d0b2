package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicworks/warddesk/backend/internal/domain/entities"
	apperrors "github.com/civicworks/warddesk/backend/pkg/errors"
)

func newRequestFixture(t *testing.T) (*RequestService, *fakeRequestRepo, *fakeEventBus) {
	t.Helper()
	repo := newFakeRequestRepo()
	wards := newFakeWardRepo()
	wards.wards["ward-3"] = &entities.Ward{ID: "ward-3", Name: "Ward 3", IsActive: true}
	bus := newFakeEventBus()
	return NewRequestService(repo, wards, bus), repo, bus
}

var wardClerk = RequestActor{ID: "user-1", Name: "A. Clerk", Role: entities.ActorRoleWard}
var centerAdmin = RequestActor{ID: "user-9", Name: "Center Admin", Role: entities.ActorRoleCenter}

func fileRequest(t *testing.T, svc *RequestService) *entities.DeviceRequest {
	t.Helper()
	request := &entities.DeviceRequest{
		WardID: "ward-3",
		Items:  []entities.RequestItem{{Category: "pc", Quantity: 2}},
	}
	require.NoError(t, svc.Create(context.Background(), request, wardClerk))
	return request
}

func TestRequestService_Create(t *testing.T) {
	svc, _, bus := newRequestFixture(t)

	request := fileRequest(t, svc)

	assert.Equal(t, entities.RequestStatusPending, request.Status)
	assert.Equal(t, request.CreatedAt, request.UpdatedAt)
	assert.True(t, request.HasNewUpdate)
	assert.Equal(t, entities.ActorRoleWard, request.LastUpdateByRole)
	assert.Equal(t, "Ward 3", request.WardName)
	require.Len(t, bus.published, 2)
	assert.Equal(t, entities.UpdateEventDeviceRequest, bus.published[0].EventType)

	t.Run("rejects empty item list", func(t *testing.T) {
		err := svc.Create(context.Background(), &entities.DeviceRequest{WardID: "ward-3"}, wardClerk)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("rejects unknown ward", func(t *testing.T) {
		err := svc.Create(context.Background(), &entities.DeviceRequest{
			WardID: "nope",
			Items:  []entities.RequestItem{{Category: "pc", Quantity: 1}},
		}, wardClerk)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}

func TestRequestService_WorkflowStamps(t *testing.T) {
	svc, repo, _ := newRequestFixture(t)
	ctx := context.Background()

	request := fileRequest(t, svc)

	require.NoError(t, svc.Approve(ctx, request.ID, "ok to buy", centerAdmin))
	require.NoError(t, svc.Complete(ctx, request.ID, []string{"SN-1", "SN-2"}, centerAdmin))
	require.NoError(t, svc.StartDelivery(ctx, request.ID, centerAdmin))

	got, err := repo.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.RequestStatusDelivering, got.Status)
	assert.NotNil(t, got.ApprovedAt, "earlier stamps survive later transitions")
	assert.NotNil(t, got.AllocatedAt)
	assert.NotNil(t, got.DeliveredAt)
	assert.Nil(t, got.ReceivedAt)
	assert.Equal(t, []string{"SN-1", "SN-2"}, got.AllocatedSerials)
	assert.Equal(t, entities.ActorRoleCenter, got.LastUpdateByRole)

	require.NoError(t, svc.ConfirmReceipt(ctx, request.ID, wardClerk))
	got, err = repo.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.ReceivedAt)
	assert.NotNil(t, got.DeliveredAt)
	assert.Equal(t, entities.ActorRoleWard, got.LastUpdateByRole)
}

func TestRequestService_IllegalTransitions(t *testing.T) {
	tests := []struct {
		name string
		run  func(ctx context.Context, svc *RequestService, id string) error
	}{
		{
			name: "pending cannot jump to received",
			run: func(ctx context.Context, svc *RequestService, id string) error {
				return svc.ConfirmReceipt(ctx, id, wardClerk)
			},
		},
		{
			name: "pending cannot jump to delivering",
			run: func(ctx context.Context, svc *RequestService, id string) error {
				return svc.StartDelivery(ctx, id, centerAdmin)
			},
		},
		{
			name: "pending cannot jump to completed",
			run: func(ctx context.Context, svc *RequestService, id string) error {
				return svc.Complete(ctx, id, []string{"SN-1"}, centerAdmin)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newRequestFixture(t)
			ctx := context.Background()
			request := fileRequest(t, svc)

			err := tt.run(ctx, svc, request.ID)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

			got, err := repo.GetByID(ctx, request.ID)
			require.NoError(t, err)
			assert.Equal(t, entities.RequestStatusPending, got.Status)
		})
	}

	t.Run("rejected is terminal", func(t *testing.T) {
		svc, _, _ := newRequestFixture(t)
		ctx := context.Background()
		request := fileRequest(t, svc)

		require.NoError(t, svc.Reject(ctx, request.ID, "no budget", centerAdmin))
		err := svc.Approve(ctx, request.ID, "", centerAdmin)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}

func TestRequestService_Reject(t *testing.T) {
	svc, repo, _ := newRequestFixture(t)
	ctx := context.Background()
	request := fileRequest(t, svc)

	t.Run("reason is mandatory", func(t *testing.T) {
		err := svc.Reject(ctx, request.ID, "", centerAdmin)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	require.NoError(t, svc.Reject(ctx, request.ID, "no budget this quarter", centerAdmin))
	got, err := repo.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.RequestStatusRejected, got.Status)
	assert.Equal(t, "no budget this quarter", got.RejectionReason)
	assert.NotNil(t, got.ApprovedAt, "rejection stamps the decision time")
}

func TestRequestService_MarkViewed(t *testing.T) {
	svc, repo, bus := newRequestFixture(t)
	ctx := context.Background()

	request := fileRequest(t, svc)
	require.NoError(t, svc.Approve(ctx, request.ID, "", centerAdmin))

	// The ward viewer clears center-authored updates.
	require.NoError(t, svc.MarkViewed(ctx, "ward-3", entities.ActorRoleWard))

	got, err := repo.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.False(t, got.HasNewUpdate)

	// Clearing announces itself so open counter streams drop right away.
	last := bus.published[len(bus.published)-1]
	assert.Equal(t, entities.UpdateEventViewed, last.EventType)
	assert.Equal(t, entities.ActorRoleWard, last.ActorRole)
	assert.Equal(t, "ward-3", last.WardID)
}

func TestRequestService_TransitionNotFound(t *testing.T) {
	svc, _, _ := newRequestFixture(t)

	err := svc.Approve(context.Background(), "missing", "", centerAdmin)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRequestService_CreateStampsDistinctFromLaterUpdates(t *testing.T) {
	svc, repo, _ := newRequestFixture(t)
	ctx := context.Background()
	request := fileRequest(t, svc)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, svc.Approve(ctx, request.ID, "", centerAdmin))

	got, err := repo.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
}
