package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicworks/warddesk/backend/internal/domain/entities"
	"github.com/civicworks/warddesk/backend/internal/domain/providers"
)

func readSnapshot(t *testing.T, ch <-chan *entities.CounterUpdate) map[entities.CounterKind]*entities.CounterUpdate {
	t.Helper()
	snapshot := make(map[entities.CounterKind]*entities.CounterUpdate, 3)
	for i := 0; i < 3; i++ {
		select {
		case update, ok := <-ch:
			require.True(t, ok, "counter stream closed early")
			snapshot[update.Counter] = update
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for counter update")
		}
	}
	return snapshot
}

func seedCenterAuthoredRequest(t *testing.T, repo *fakeRequestRepo, id string, status entities.DeviceRequestStatus) {
	t.Helper()
	err := repo.Create(context.Background(), &entities.DeviceRequest{
		ID:               id,
		WardID:           "ward-3",
		Status:           status,
		HasNewUpdate:     true,
		LastUpdateByRole: entities.ActorRoleCenter,
	})
	require.NoError(t, err)
}

func TestCounterService_ToastOnStrictIncrease(t *testing.T) {
	requests := newFakeRequestRepo()
	incidents := newFakeIncidentRepo()
	bus := newFakeEventBus()
	svc := NewCounterService(requests, incidents, bus, nil)

	seedCenterAuthoredRequest(t, requests, "req-1", entities.RequestStatusPending)
	seedCenterAuthoredRequest(t, requests, "req-2", entities.RequestStatusApproved)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := svc.Subscribe(ctx, entities.ActorRoleWard, "ward-3")
	require.NoError(t, err)

	// First snapshot after subscribing reports the current count without a toast.
	first := readSnapshot(t, updates)
	review := first[entities.CounterRequestReview]
	require.NotNil(t, review)
	assert.Equal(t, 2, review.Count)
	assert.False(t, review.Toast)
	assert.Equal(t, entities.ActorRoleWard, review.ViewerRole)

	// A third center-authored change pushes the count to 3: toast fires.
	seedCenterAuthoredRequest(t, requests, "req-3", entities.RequestStatusPending)
	err = bus.Publish(ctx, providers.GetWardChannel("ward-3"),
		entities.NewUpdateEvent("req-3", entities.UpdateEventDeviceRequest, "ward-3", entities.ActorRoleCenter, "pending", nil))
	require.NoError(t, err)

	second := readSnapshot(t, updates)
	review = second[entities.CounterRequestReview]
	require.NotNil(t, review)
	assert.Equal(t, 3, review.Count)
	assert.True(t, review.Toast)

	// An event that leaves the count at 3 must not fire again.
	err = bus.Publish(ctx, providers.GetWardChannel("ward-3"),
		entities.NewUpdateEvent("req-3", entities.UpdateEventDeviceRequest, "ward-3", entities.ActorRoleCenter, "pending", nil))
	require.NoError(t, err)

	third := readSnapshot(t, updates)
	review = third[entities.CounterRequestReview]
	require.NotNil(t, review)
	assert.Equal(t, 3, review.Count)
	assert.False(t, review.Toast)
}

func TestCounterService_IgnoresOwnSideEvents(t *testing.T) {
	requests := newFakeRequestRepo()
	incidents := newFakeIncidentRepo()
	bus := newFakeEventBus()
	svc := NewCounterService(requests, incidents, bus, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := svc.Subscribe(ctx, entities.ActorRoleWard, "ward-3")
	require.NoError(t, err)
	readSnapshot(t, updates)

	// A ward-authored event changes nothing a ward viewer has unread.
	err = bus.Publish(ctx, providers.GetWardChannel("ward-3"),
		entities.NewUpdateEvent("req-1", entities.UpdateEventDeviceRequest, "ward-3", entities.ActorRoleWard, "pending", nil))
	require.NoError(t, err)

	select {
	case update := <-updates:
		t.Fatalf("unexpected counter update: %+v", update)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCounterService_DropsAfterMarkViewed(t *testing.T) {
	requests := newFakeRequestRepo()
	incidents := newFakeIncidentRepo()
	bus := newFakeEventBus()
	svc := NewCounterService(requests, incidents, bus, nil)
	requestSvc := NewRequestService(requests, newFakeWardRepo(), bus)

	seedCenterAuthoredRequest(t, requests, "req-1", entities.RequestStatusPending)
	seedCenterAuthoredRequest(t, requests, "req-2", entities.RequestStatusApproved)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := svc.Subscribe(ctx, entities.ActorRoleWard, "ward-3")
	require.NoError(t, err)

	first := readSnapshot(t, updates)
	require.Equal(t, 2, first[entities.CounterRequestReview].Count)

	// The viewer marking everything read drops its own counter right away,
	// without waiting for the center's next write.
	require.NoError(t, requestSvc.MarkViewed(ctx, "ward-3", entities.ActorRoleWard))

	second := readSnapshot(t, updates)
	review := second[entities.CounterRequestReview]
	require.NotNil(t, review)
	assert.Equal(t, 0, review.Count)
	assert.False(t, review.Toast)
}

func TestCounterService_StatusSubsets(t *testing.T) {
	requests := newFakeRequestRepo()
	incidents := newFakeIncidentRepo()
	bus := newFakeEventBus()
	svc := NewCounterService(requests, incidents, bus, nil)

	seedCenterAuthoredRequest(t, requests, "req-1", entities.RequestStatusPending)
	seedCenterAuthoredRequest(t, requests, "req-2", entities.RequestStatusDelivering)
	require.NoError(t, incidents.Create(context.Background(), &entities.Incident{
		ID:               "inc-1",
		WardID:           "ward-3",
		Status:           entities.IncidentStatusInvestigating,
		HasNewUpdate:     true,
		LastUpdateByRole: entities.ActorRoleCenter,
	}))
	// Already seen: does not count.
	require.NoError(t, incidents.Create(context.Background(), &entities.Incident{
		ID:               "inc-2",
		WardID:           "ward-3",
		Status:           entities.IncidentStatusInvestigating,
		HasNewUpdate:     false,
		LastUpdateByRole: entities.ActorRoleCenter,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := svc.Subscribe(ctx, entities.ActorRoleWard, "ward-3")
	require.NoError(t, err)

	snapshot := readSnapshot(t, updates)
	assert.Equal(t, 1, snapshot[entities.CounterRequestReview].Count)
	assert.Equal(t, 1, snapshot[entities.CounterRequestDelivering].Count)
	assert.Equal(t, 1, snapshot[entities.CounterIncidents].Count)
}

func TestCounterService_StreamClosesOnCancel(t *testing.T) {
	requests := newFakeRequestRepo()
	incidents := newFakeIncidentRepo()
	bus := newFakeEventBus()
	svc := NewCounterService(requests, incidents, bus, nil)

	ctx, cancel := context.WithCancel(context.Background())

	updates, err := svc.Subscribe(ctx, entities.ActorRoleCenter, "")
	require.NoError(t, err)
	readSnapshot(t, updates)

	cancel()

	select {
	case _, ok := <-updates:
		assert.False(t, ok, "stream should close after cancel")
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not close after cancel")
	}
}
