package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/civicworks/warddesk/backend/internal/api/middleware"
	"github.com/civicworks/warddesk/backend/internal/application/services"
	"github.com/civicworks/warddesk/backend/internal/domain/entities"
	"github.com/civicworks/warddesk/backend/internal/domain/providers"
)

// StreamHandler handles Server-Sent Events for live counters and raw updates
type StreamHandler struct {
	counterService *services.CounterService
	eventBus       providers.EventBus
	clients        map[string]int // channel -> connected client count
	mu             sync.RWMutex
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(counterService *services.CounterService, eventBus providers.EventBus) *StreamHandler {
	return &StreamHandler{
		counterService: counterService,
		eventBus:       eventBus,
		clients:        make(map[string]int),
	}
}

// StreamCounters handles SSE connections for the live notification counters
// GET /api/stream/counters
func (h *StreamHandler) StreamCounters(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	viewer := middleware.ActorRoleFromClaims(claims)
	wardID := claims.WardID
	if viewer == entities.ActorRoleWard && wardID == "" {
		respondWithError(w, http.StatusBadRequest, "ward account has no ward")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Set headers for SSE
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	updates, err := h.counterService.Subscribe(r.Context(), viewer, wardID)
	if err != nil {
		log.Printf("Failed to subscribe to counters for %s: %v", claims.UserID, err)
		return
	}

	channel := h.channelFor(viewer, wardID)
	h.registerClient(channel)
	defer h.unregisterClient(channel)

	// Send initial connection event
	h.sendEvent(w, "connected", map[string]interface{}{
		"viewer_role": viewer,
		"ward_id":     wardID,
		"timestamp":   time.Now(),
	})
	flusher.Flush()

	// Keep connection alive and send events
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Printf("Client disconnected from counter stream: %s", claims.UserID)
			return
		case <-ticker.C:
			// Send heartbeat
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now(),
			})
			flusher.Flush()
		case update, open := <-updates:
			if !open {
				return
			}
			if update == nil {
				continue
			}
			h.sendEvent(w, "counter", update)
			flusher.Flush()
		}
	}
}

// StreamUpdates handles SSE connections for raw update events, used by list
// views that refresh themselves when the other party writes
// GET /api/stream/updates
func (h *StreamHandler) StreamUpdates(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	viewer := middleware.ActorRoleFromClaims(claims)
	channel := h.channelFor(viewer, claims.WardID)

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Set headers for SSE
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	events, err := h.eventBus.Subscribe(r.Context(), channel)
	if err != nil {
		log.Printf("Failed to subscribe to channel %s: %v", channel, err)
		return
	}

	h.registerClient(channel)
	defer h.unregisterClient(channel)

	h.sendEvent(w, "connected", map[string]interface{}{
		"channel":   channel,
		"timestamp": time.Now(),
	})
	flusher.Flush()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Printf("Client disconnected from update stream: %s", claims.UserID)
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now(),
			})
			flusher.Flush()
		case event, open := <-events:
			if !open {
				return
			}
			if event == nil {
				continue
			}
			h.sendEvent(w, string(event.EventType), event)
			flusher.Flush()
		}
	}
}

// channelFor picks the event channel a viewer listens on. Ward accounts hear
// only their ward; everyone else hears the center feed.
func (h *StreamHandler) channelFor(viewer entities.ActorRole, wardID string) string {
	if viewer == entities.ActorRoleWard && wardID != "" {
		return providers.GetWardChannel(wardID)
	}
	return providers.EventChannelCenter
}

// registerClient counts a client onto a channel
func (h *StreamHandler) registerClient(channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[channel]++
	log.Printf("Client registered for channel: %s (total: %d)", channel, h.clients[channel])
}

// unregisterClient counts a client off a channel
func (h *StreamHandler) unregisterClient(channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[channel]--
	log.Printf("Client unregistered from channel: %s (remaining: %d)", channel, h.clients[channel])

	if h.clients[channel] <= 0 {
		delete(h.clients, channel)
	}
}

// sendEvent sends an SSE event to the client
func (h *StreamHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("Failed to marshal event data: %v", err)
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}

// GetClientCount returns the number of connected clients for debugging
func (h *StreamHandler) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, n := range h.clients {
		count += n
	}
	return count
}
