package services

import (
	"context"
	"log"
	"time"

	"github.com/civicworks/warddesk/backend/internal/domain/entities"
	"github.com/civicworks/warddesk/backend/internal/domain/providers"
	"github.com/civicworks/warddesk/backend/internal/domain/repositories"
	"github.com/civicworks/warddesk/backend/internal/infrastructure/observability"
)

// reviewStatuses are the request states counted by the review counter
var reviewStatuses = map[entities.DeviceRequestStatus]bool{
	entities.RequestStatusPending:  true,
	entities.RequestStatusApproved: true,
	entities.RequestStatusRejected: true,
}

// counterState is per-subscription bookkeeping. It is owned by the delivery
// goroutine of one subscription and never shared.
type counterState struct {
	previous    int
	initialized bool
}

// CounterService recomputes notification counters from the store whenever an
// update event arrives and streams snapshots to subscribers. A toast marker is
// attached when a count strictly exceeds the subscriber's previous observation;
// the first snapshot after subscribing never carries one.
type CounterService struct {
	requestRepo  repositories.DeviceRequestRepository
	incidentRepo repositories.IncidentRepository
	eventBus     providers.EventBus
	metrics      *observability.Metrics
}

// NewCounterService creates a new counter service
func NewCounterService(
	requestRepo repositories.DeviceRequestRepository,
	incidentRepo repositories.IncidentRepository,
	eventBus providers.EventBus,
	metrics *observability.Metrics,
) *CounterService {
	return &CounterService{
		requestRepo:  requestRepo,
		incidentRepo: incidentRepo,
		eventBus:     eventBus,
		metrics:      metrics,
	}
}

// Subscribe opens a counter stream for one viewer. Ward viewers pass their
// ward ID; center viewers pass "". The returned channel closes when ctx is
// cancelled.
func (s *CounterService) Subscribe(ctx context.Context, viewer entities.ActorRole, wardID string) (<-chan *entities.CounterUpdate, error) {
	channel := providers.EventChannelCenter
	if viewer == entities.ActorRoleWard {
		channel = providers.GetWardChannel(wardID)
	}

	events, err := s.eventBus.Subscribe(ctx, channel)
	if err != nil {
		return nil, err
	}

	out := make(chan *entities.CounterUpdate, 8)
	go s.deliver(ctx, viewer, wardID, events, out)
	return out, nil
}

// deliver owns the subscription state and pushes snapshots. Counters are
// recomputed on every event rather than patched incrementally; the recount is
// one listing per counter and cannot drift.
func (s *CounterService) deliver(
	ctx context.Context,
	viewer entities.ActorRole,
	wardID string,
	events <-chan *entities.UpdateEvent,
	out chan<- *entities.CounterUpdate,
) {
	defer close(out)

	states := map[entities.CounterKind]*counterState{
		entities.CounterRequestReview:     {},
		entities.CounterRequestDelivering: {},
		entities.CounterIncidents:         {},
	}

	s.snapshot(ctx, viewer, wardID, states, out)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			// Only the other party's writes can change what this viewer
			// has unread. The exception is the viewer's own mark-viewed,
			// which drops its counts.
			if event.ActorRole == viewer && event.EventType != entities.UpdateEventViewed {
				continue
			}
			s.snapshot(ctx, viewer, wardID, states, out)
		}
	}
}

func (s *CounterService) snapshot(
	ctx context.Context,
	viewer entities.ActorRole,
	wardID string,
	states map[entities.CounterKind]*counterState,
	out chan<- *entities.CounterUpdate,
) {
	counts, err := s.recount(ctx, viewer, wardID)
	if err != nil {
		log.Printf("Warning: Failed to recount notification counters: %v", err)
		return
	}

	for kind, count := range counts {
		state := states[kind]
		toast := state.initialized && count > state.previous

		state.previous = count
		state.initialized = true

		if toast && s.metrics != nil {
			observability.RecordToast(ctx, s.metrics, string(kind))
		}

		update := &entities.CounterUpdate{
			Counter:    kind,
			WardID:     wardID,
			ViewerRole: viewer,
			Count:      count,
			Toast:      toast,
			Timestamp:  time.Now(),
		}

		select {
		case out <- update:
		case <-ctx.Done():
			return
		}
	}
}

// recount pulls the viewer's scope from the store and applies the unread and
// status-subset filters in-process, mirroring how listings avoid composite
// indexes elsewhere.
func (s *CounterService) recount(ctx context.Context, viewer entities.ActorRole, wardID string) (map[entities.CounterKind]int, error) {
	other := viewer.Opposite()

	requests, err := s.requestRepo.List(ctx, repositories.DeviceRequestFilter{WardID: wardID})
	if err != nil {
		return nil, err
	}

	incidents, err := s.incidentRepo.List(ctx, repositories.IncidentFilter{WardID: wardID})
	if err != nil {
		return nil, err
	}

	counts := map[entities.CounterKind]int{
		entities.CounterRequestReview:     0,
		entities.CounterRequestDelivering: 0,
		entities.CounterIncidents:         0,
	}

	for _, request := range requests {
		if !request.HasNewUpdate || request.LastUpdateByRole != other {
			continue
		}
		if reviewStatuses[request.Status] {
			counts[entities.CounterRequestReview]++
		}
		if request.Status == entities.RequestStatusDelivering {
			counts[entities.CounterRequestDelivering]++
		}
	}

	for _, incident := range incidents {
		if incident.HasNewUpdate && incident.LastUpdateByRole == other {
			counts[entities.CounterIncidents]++
		}
	}

	return counts, nil
}
