package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/civicworks/warddesk/backend/internal/domain/entities"
	"github.com/civicworks/warddesk/backend/internal/domain/repositories"
)

// In-memory fakes backing the service tests. Each fake keeps the listing
// semantics of the real adapters: newest-first ordering and in-process
// residual filtering.

type fakeWardRepo struct {
	mu    sync.Mutex
	wards map[string]*entities.Ward
}

func newFakeWardRepo() *fakeWardRepo {
	return &fakeWardRepo{wards: map[string]*entities.Ward{}}
}

func (r *fakeWardRepo) Create(_ context.Context, ward *entities.Ward) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wards[ward.ID] = ward
	return nil
}

func (r *fakeWardRepo) GetByID(_ context.Context, id string) (*entities.Ward, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.wards[id], nil
}

func (r *fakeWardRepo) List(_ context.Context, filter repositories.WardFilter) ([]*entities.Ward, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Ward
	for _, w := range r.wards {
		if filter.IsActive != nil && w.IsActive != *filter.IsActive {
			continue
		}
		if filter.District != "" && w.District != filter.District {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

func (r *fakeWardRepo) Update(_ context.Context, ward *entities.Ward) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wards[ward.ID] = ward
	return nil
}

func (r *fakeWardRepo) Deactivate(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.wards[id]; ok {
		w.IsActive = false
	}
	return nil
}

type fakeDeviceRepo struct {
	mu      sync.Mutex
	devices map[string]*entities.Device
}

func newFakeDeviceRepo() *fakeDeviceRepo {
	return &fakeDeviceRepo{devices: map[string]*entities.Device{}}
}

func (r *fakeDeviceRepo) Create(_ context.Context, device *entities.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices[device.ID] = device
	return nil
}

func (r *fakeDeviceRepo) GetByID(_ context.Context, id string) (*entities.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.devices[id], nil
}

func (r *fakeDeviceRepo) List(_ context.Context, filter repositories.DeviceFilter) ([]*entities.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Device
	for _, d := range r.devices {
		if filter.WardID != "" && (d.WardID == nil || *d.WardID != filter.WardID) {
			continue
		}
		if filter.Unassigned && d.WardID != nil {
			continue
		}
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		if filter.Category != "" && d.Category != filter.Category {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeDeviceRepo) CountByWard(_ context.Context, wardID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, d := range r.devices {
		if d.WardID != nil && *d.WardID == wardID {
			count++
		}
	}
	return count, nil
}

func (r *fakeDeviceRepo) Update(_ context.Context, device *entities.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices[device.ID] = device
	return nil
}

func (r *fakeDeviceRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.devices, id)
	return nil
}

type fakeWardUserRepo struct {
	mu      sync.Mutex
	members map[string]*entities.WardUser
}

func newFakeWardUserRepo() *fakeWardUserRepo {
	return &fakeWardUserRepo{members: map[string]*entities.WardUser{}}
}

func (r *fakeWardUserRepo) Create(_ context.Context, member *entities.WardUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[member.ID] = member
	return nil
}

func (r *fakeWardUserRepo) GetByID(_ context.Context, id string) (*entities.WardUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.members[id], nil
}

func (r *fakeWardUserRepo) List(_ context.Context, filter repositories.WardUserFilter) ([]*entities.WardUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.WardUser
	for _, m := range r.members {
		if filter.WardID != "" && m.WardID != filter.WardID {
			continue
		}
		if filter.RoomID != nil && m.RoomID != *filter.RoomID {
			continue
		}
		if filter.Role != "" && m.Role != filter.Role {
			continue
		}
		if filter.IsActive != nil && m.IsActive != *filter.IsActive {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *fakeWardUserRepo) CountByWard(_ context.Context, wardID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, m := range r.members {
		if m.WardID == wardID && m.IsActive {
			count++
		}
	}
	return count, nil
}

func (r *fakeWardUserRepo) Update(_ context.Context, member *entities.WardUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[member.ID] = member
	return nil
}

func (r *fakeWardUserRepo) Deactivate(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.members[id]; ok {
		m.IsActive = false
	}
	return nil
}

type fakeRoomRepo struct {
	mu    sync.Mutex
	rooms map[string]*entities.WardRoom
}

func newFakeRoomRepo() *fakeRoomRepo {
	return &fakeRoomRepo{rooms: map[string]*entities.WardRoom{}}
}

func (r *fakeRoomRepo) Create(_ context.Context, room *entities.WardRoom) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[room.ID] = room
	return nil
}

func (r *fakeRoomRepo) GetByID(_ context.Context, id string) (*entities.WardRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rooms[id], nil
}

func (r *fakeRoomRepo) ListByWard(_ context.Context, wardID string) ([]*entities.WardRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.WardRoom
	for _, room := range r.rooms {
		if room.WardID == wardID {
			out = append(out, room)
		}
	}
	return out, nil
}

func (r *fakeRoomRepo) Update(_ context.Context, room *entities.WardRoom) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[room.ID] = room
	return nil
}

func (r *fakeRoomRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, id)
	return nil
}

type fakeRequestRepo struct {
	mu       sync.Mutex
	requests map[string]*entities.DeviceRequest
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: map[string]*entities.DeviceRequest{}}
}

func (r *fakeRequestRepo) Create(_ context.Context, request *entities.DeviceRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *request
	r.requests[request.ID] = &clone
	return nil
}

func (r *fakeRequestRepo) GetByID(_ context.Context, id string) (*entities.DeviceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req, ok := r.requests[id]; ok {
		clone := *req
		return &clone, nil
	}
	return nil, nil
}

func (r *fakeRequestRepo) List(_ context.Context, filter repositories.DeviceRequestFilter) ([]*entities.DeviceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.DeviceRequest
	for _, req := range r.requests {
		if filter.WardID != "" && req.WardID != filter.WardID {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		clone := *req
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeRequestRepo) Update(_ context.Context, request *entities.DeviceRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.requests[request.ID]; !ok {
		return fmt.Errorf("request %s not found", request.ID)
	}
	// Mirror DeviceRequestAdapter.Update, which stamps updated_at on write.
	request.UpdatedAt = time.Now()
	clone := *request
	r.requests[request.ID] = &clone
	return nil
}

func (r *fakeRequestRepo) ClearNewUpdates(_ context.Context, wardID string, updatedBy entities.ActorRole) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.requests {
		if wardID != "" && req.WardID != wardID {
			continue
		}
		if req.HasNewUpdate && req.LastUpdateByRole == updatedBy {
			req.HasNewUpdate = false
		}
	}
	return nil
}

func (r *fakeRequestRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.requests, id)
	return nil
}

type fakeIncidentRepo struct {
	mu        sync.Mutex
	incidents map[string]*entities.Incident
}

func newFakeIncidentRepo() *fakeIncidentRepo {
	return &fakeIncidentRepo{incidents: map[string]*entities.Incident{}}
}

func (r *fakeIncidentRepo) Create(_ context.Context, incident *entities.Incident) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *incident
	r.incidents[incident.ID] = &clone
	return nil
}

func (r *fakeIncidentRepo) GetByID(_ context.Context, id string) (*entities.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inc, ok := r.incidents[id]; ok {
		clone := *inc
		return &clone, nil
	}
	return nil, nil
}

func (r *fakeIncidentRepo) List(_ context.Context, filter repositories.IncidentFilter) ([]*entities.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Incident
	for _, inc := range r.incidents {
		if filter.WardID != "" && inc.WardID != filter.WardID {
			continue
		}
		if filter.DeviceID != "" && inc.DeviceID != filter.DeviceID {
			continue
		}
		if filter.Status != "" && inc.Status != filter.Status {
			continue
		}
		clone := *inc
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeIncidentRepo) Update(_ context.Context, incident *entities.Incident) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.incidents[incident.ID]; !ok {
		return fmt.Errorf("incident %s not found", incident.ID)
	}
	clone := *incident
	r.incidents[incident.ID] = &clone
	return nil
}

func (r *fakeIncidentRepo) ClearNewUpdates(_ context.Context, wardID string, updatedBy entities.ActorRole) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inc := range r.incidents {
		if wardID != "" && inc.WardID != wardID {
			continue
		}
		if inc.HasNewUpdate && inc.LastUpdateByRole == updatedBy {
			inc.HasNewUpdate = false
		}
	}
	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*entities.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*entities.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id], nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Deactivate(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.IsActive = false
	}
	return nil
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*entities.UserProfile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: map[string]*entities.UserProfile{}}
}

func (r *fakeProfileRepo) Create(_ context.Context, profile *entities.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[profile.UserID] = profile
	return nil
}

func (r *fakeProfileRepo) GetByUserID(_ context.Context, userID string) (*entities.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.profiles[userID], nil
}

func (r *fakeProfileRepo) Update(_ context.Context, profile *entities.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[profile.UserID] = profile
	return nil
}

type fakeSettingsRepo struct {
	mu       sync.Mutex
	settings map[string]*entities.UserSettings
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{settings: map[string]*entities.UserSettings{}}
}

func (r *fakeSettingsRepo) GetByUserID(_ context.Context, userID string) (*entities.UserSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings[userID], nil
}

func (r *fakeSettingsRepo) Upsert(_ context.Context, settings *entities.UserSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings[settings.UserID] = settings
	return nil
}

type fakeSystemRepo struct {
	mu       sync.Mutex
	settings *entities.SystemSettings
}

func (r *fakeSystemRepo) Get(_ context.Context) (*entities.SystemSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings, nil
}

func (r *fakeSystemRepo) Upsert(_ context.Context, settings *entities.SystemSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings = settings
	return nil
}

type fakeBlobStore struct {
	mu      sync.Mutex
	stored  map[string][]byte
	deleted []string
	failAll bool
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{stored: map[string][]byte{}}
}

func (b *fakeBlobStore) Upload(_ context.Context, path, _ string, body io.Reader) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failAll {
		return "", fmt.Errorf("storage unavailable")
	}
	buf := &bytes.Buffer{}
	if _, err := io.Copy(buf, body); err != nil {
		return "", err
	}
	url := "https://blobs.test/" + path
	b.stored[url] = buf.Bytes()
	return url, nil
}

func (b *fakeBlobStore) PublicURL(path string) string {
	return "https://blobs.test/" + path
}

func (b *fakeBlobStore) Delete(_ context.Context, url string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failAll {
		return fmt.Errorf("storage unavailable")
	}
	delete(b.stored, url)
	b.deleted = append(b.deleted, url)
	return nil
}

// fakeEventBus delivers published events synchronously to channel subscribers
type fakeEventBus struct {
	mu        sync.Mutex
	published []*entities.UpdateEvent
	subs      map[string][]chan *entities.UpdateEvent
}

func newFakeEventBus() *fakeEventBus {
	return &fakeEventBus{subs: map[string][]chan *entities.UpdateEvent{}}
}

func (b *fakeEventBus) Publish(_ context.Context, channel string, event *entities.UpdateEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, event)
	for _, ch := range b.subs[channel] {
		ch <- event
	}
	return nil
}

func (b *fakeEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.UpdateEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan *entities.UpdateEvent, 16)
	b.subs[channel] = append(b.subs[channel], ch)
	return ch, nil
}

func (b *fakeEventBus) Unsubscribe(_ context.Context, channel string) error {
	return nil
}

func (b *fakeEventBus) Close() error {
	return nil
}
