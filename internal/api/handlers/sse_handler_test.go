package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicworks/warddesk/backend/internal/api/middleware"
	"github.com/civicworks/warddesk/backend/internal/domain/entities"
	"github.com/civicworks/warddesk/backend/internal/domain/providers"
	"github.com/civicworks/warddesk/backend/pkg/jwt"
)

// stubEventBus hands out a pre-filled event channel and records which channel
// was subscribed to.
type stubEventBus struct {
	events     chan *entities.UpdateEvent
	subscribed string
}

func (b *stubEventBus) Publish(ctx context.Context, channel string, event *entities.UpdateEvent) error {
	return nil
}

func (b *stubEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.UpdateEvent, error) {
	b.subscribed = channel
	return b.events, nil
}

func (b *stubEventBus) Unsubscribe(ctx context.Context, channel string) error { return nil }

func (b *stubEventBus) Close() error { return nil }

func streamRequest(t *testing.T, path string, claims *jwt.Claims) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if claims != nil {
		req = req.WithContext(middleware.ContextWithClaims(req.Context(), claims))
	}
	return req
}

func TestStreamUpdatesDeliversEvents(t *testing.T) {
	events := make(chan *entities.UpdateEvent, 1)
	events <- entities.NewUpdateEvent("inc-1", entities.UpdateEventIncident,
		"ward-1", entities.ActorRoleCenter, "investigating", nil)
	close(events)

	bus := &stubEventBus{events: events}
	handler := NewStreamHandler(nil, bus)

	claims := &jwt.Claims{UserID: "u1", Role: string(entities.UserRoleWard), WardID: "ward-1"}
	rec := httptest.NewRecorder()

	// A closed event channel makes the handler return after draining.
	handler.StreamUpdates(rec, streamRequest(t, "/api/stream/updates", claims))

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, providers.GetWardChannel("ward-1"), bus.subscribed)

	body := rec.Body.String()
	assert.Contains(t, body, "event: connected")
	assert.Contains(t, body, "event: incident_update")
	assert.Contains(t, body, `"entity_id":"inc-1"`)

	assert.Equal(t, 0, handler.GetClientCount())
}

func TestStreamUpdatesCenterViewerHearsCenterChannel(t *testing.T) {
	events := make(chan *entities.UpdateEvent)
	close(events)

	bus := &stubEventBus{events: events}
	handler := NewStreamHandler(nil, bus)

	claims := &jwt.Claims{UserID: "u2", Role: string(entities.UserRoleCenter)}
	rec := httptest.NewRecorder()

	handler.StreamUpdates(rec, streamRequest(t, "/api/stream/updates", claims))

	assert.Equal(t, providers.EventChannelCenter, bus.subscribed)
}

func TestStreamUpdatesRequiresAuth(t *testing.T) {
	handler := NewStreamHandler(nil, &stubEventBus{})

	rec := httptest.NewRecorder()
	handler.StreamUpdates(rec, streamRequest(t, "/api/stream/updates", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStreamCountersRejectsWardAccountWithoutWard(t *testing.T) {
	handler := NewStreamHandler(nil, &stubEventBus{})

	claims := &jwt.Claims{UserID: "u3", Role: string(entities.UserRoleWard), WardID: ""}
	rec := httptest.NewRecorder()

	handler.StreamCounters(rec, streamRequest(t, "/api/stream/counters", claims))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
