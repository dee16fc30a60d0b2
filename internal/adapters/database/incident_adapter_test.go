package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicworks/warddesk/backend/internal/domain/entities"
	"github.com/civicworks/warddesk/backend/internal/domain/repositories"
)

func incidentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "ward_id", "ward_name", "device_id", "device_name",
		"reported_by", "reported_by_name", "title", "description",
		"severity", "status", "ward_approved_by", "ward_approved_by_name",
		"ward_approved_at", "ward_approval_comment", "ward_rejection_reason",
		"assigned_technician", "expected_resolution", "actual_resolution",
		"resolved_at", "image_urls", "has_new_update", "last_update_by_role",
		"created_at", "updated_at",
	})
}

func addIncidentRow(rows *sqlmock.Rows, id, deviceID, status string, createdAt time.Time) *sqlmock.Rows {
	return rows.AddRow(
		id, "ward-3", "Ward 3", deviceID, "Front desk PC",
		"user-1", "A. Clerk", "Screen flickers", "intermittent",
		"medium", status, "", "", nil, "", "",
		"", "", "", nil, []byte(`[]`), false, "ward",
		createdAt, createdAt,
	)
}

func TestIncidentAdapter_GetByID(t *testing.T) {
	t.Run("decodes image urls and nullable timestamps", func(t *testing.T) {
		client, mock := setupMockAdapter(t)
		adapter := NewIncidentAdapter(client)

		now := time.Now()
		mock.ExpectQuery(`SELECT .+ FROM "incidents"`).
			WillReturnRows(incidentRows().AddRow(
				"inc-1", "ward-3", "Ward 3", "dev-1", "Front desk PC",
				"user-1", "A. Clerk", "Screen flickers", "intermittent",
				"high", "resolved", "user-2", "Ward Manager",
				now.Add(-2*time.Hour), "confirmed on site", "",
				"T. Tech", "by Friday", "swapped the cable",
				now.Add(-time.Hour), []byte(`["https://cdn.example.com/incidents/images/1_a.jpg"]`),
				true, "center", now, now,
			))

		incident, err := adapter.GetByID(context.Background(), "inc-1")
		require.NoError(t, err)
		require.NotNil(t, incident)
		assert.Equal(t, entities.IncidentStatusResolved, incident.Status)
		assert.Equal(t, entities.IncidentSeverityHigh, incident.Severity)
		require.NotNil(t, incident.WardApprovedAt)
		require.NotNil(t, incident.ResolvedAt)
		require.Len(t, incident.ImageURLs, 1)
	})

	t.Run("returns nil without error when missing", func(t *testing.T) {
		client, mock := setupMockAdapter(t)
		adapter := NewIncidentAdapter(client)

		mock.ExpectQuery(`SELECT .+ FROM "incidents"`).
			WillReturnRows(incidentRows())

		incident, err := adapter.GetByID(context.Background(), "nope")
		require.NoError(t, err)
		assert.Nil(t, incident)
	})
}

func TestIncidentAdapter_List(t *testing.T) {
	t.Run("filters device and status in-process", func(t *testing.T) {
		client, mock := setupMockAdapter(t)
		adapter := NewIncidentAdapter(client)

		now := time.Now()
		rows := incidentRows()
		addIncidentRow(rows, "inc-1", "dev-1", "investigating", now.Add(-time.Hour))
		addIncidentRow(rows, "inc-2", "dev-2", "investigating", now)
		addIncidentRow(rows, "inc-3", "dev-1", "closed", now)
		mock.ExpectQuery(`SELECT .+ FROM "incidents"`).WillReturnRows(rows)

		incidents, err := adapter.List(context.Background(), repositories.IncidentFilter{
			WardID:   "ward-3",
			DeviceID: "dev-1",
			Status:   entities.IncidentStatusInvestigating,
		})
		require.NoError(t, err)
		require.Len(t, incidents, 1)
		assert.Equal(t, "inc-1", incidents[0].ID)
	})
}

func TestIncidentAdapter_ClearNewUpdates(t *testing.T) {
	client, mock := setupMockAdapter(t)
	adapter := NewIncidentAdapter(client)

	mock.ExpectExec(`UPDATE "incidents"`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := adapter.ClearNewUpdates(context.Background(), "ward-3", entities.ActorRoleCenter)
	require.NoError(t, err)
}
