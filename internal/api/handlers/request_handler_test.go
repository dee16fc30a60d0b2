package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicworks/warddesk/backend/internal/api/middleware"
	"github.com/civicworks/warddesk/backend/internal/application/services"
	"github.com/civicworks/warddesk/backend/internal/domain/entities"
	"github.com/civicworks/warddesk/backend/internal/domain/repositories"
	"github.com/civicworks/warddesk/backend/pkg/jwt"
)

// stubRequestRepo serves canned requests and records mark-viewed scopes.
type stubRequestRepo struct {
	requests    []*entities.DeviceRequest
	clearedWard string
}

func (s *stubRequestRepo) Create(_ context.Context, _ *entities.DeviceRequest) error { return nil }

func (s *stubRequestRepo) GetByID(_ context.Context, _ string) (*entities.DeviceRequest, error) {
	return nil, nil
}

func (s *stubRequestRepo) List(_ context.Context, filter repositories.DeviceRequestFilter) ([]*entities.DeviceRequest, error) {
	var out []*entities.DeviceRequest
	for _, req := range s.requests {
		if filter.WardID != "" && req.WardID != filter.WardID {
			continue
		}
		out = append(out, req)
	}
	return out, nil
}

func (s *stubRequestRepo) Update(_ context.Context, _ *entities.DeviceRequest) error { return nil }

func (s *stubRequestRepo) ClearNewUpdates(_ context.Context, wardID string, _ entities.ActorRole) error {
	s.clearedWard = wardID
	return nil
}

func (s *stubRequestRepo) Delete(_ context.Context, _ string) error { return nil }

func requestFixture() (*RequestHandler, *stubRequestRepo) {
	repo := &stubRequestRepo{
		requests: []*entities.DeviceRequest{
			{ID: "req-1", WardID: "ward-1", Status: entities.RequestStatusPending},
			{ID: "req-2", WardID: "ward-2", Status: entities.RequestStatusPending},
		},
	}
	return NewRequestHandler(services.NewRequestService(repo, nil, nil)), repo
}

func decodeRequestList(t *testing.T, rec *httptest.ResponseRecorder) []entities.DeviceRequest {
	t.Helper()
	var resp struct {
		Requests []entities.DeviceRequest `json:"requests"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Requests
}

func TestListRequests_WardCallerIsScopedToOwnWard(t *testing.T) {
	handler, _ := requestFixture()

	// A ward account asking for another ward still only sees its own.
	claims := &jwt.Claims{UserID: "u1", Role: string(entities.UserRoleWard), WardID: "ward-1"}
	rec := httptest.NewRecorder()
	handler.ListRequests(rec, streamRequest(t, "/api/requests?ward_id=ward-2", claims))

	require.Equal(t, http.StatusOK, rec.Code)
	requests := decodeRequestList(t, rec)
	require.Len(t, requests, 1)
	assert.Equal(t, "ward-1", requests[0].WardID)
}

func TestListRequests_CenterCallerMayFilterAnyWard(t *testing.T) {
	handler, _ := requestFixture()

	claims := &jwt.Claims{UserID: "u2", Role: string(entities.UserRoleCenter)}
	rec := httptest.NewRecorder()
	handler.ListRequests(rec, streamRequest(t, "/api/requests?ward_id=ward-2", claims))

	require.Equal(t, http.StatusOK, rec.Code)
	requests := decodeRequestList(t, rec)
	require.Len(t, requests, 1)
	assert.Equal(t, "ward-2", requests[0].WardID)
}

func TestMarkRequestsViewed_WardCallerCannotClearForeignWard(t *testing.T) {
	handler, repo := requestFixture()

	claims := &jwt.Claims{UserID: "u1", Role: string(entities.UserRoleWard), WardID: "ward-1"}
	req := httptest.NewRequest(http.MethodPost, "/api/requests/mark-viewed",
		strings.NewReader(`{"ward_id":"ward-2"}`))
	req = req.WithContext(middleware.ContextWithClaims(req.Context(), claims))

	rec := httptest.NewRecorder()
	handler.MarkRequestsViewed(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ward-1", repo.clearedWard)
}
