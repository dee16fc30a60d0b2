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
	"github.com/civicworks/warddesk/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/civicworks/warddesk/backend/pkg/errors"
)

func setupMockAdapter(t *testing.T) (*postgres.Client, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })
	return postgres.NewClientFromDB(mockDB), mock
}

func deviceRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "category", "status", "location", "serial_number",
		"ward_id", "ward_name", "specifications", "assigned_to", "assigned_to_name",
		"installed_at", "maintained_at", "image_urls", "created_at", "updated_at",
	})
}

func TestDeviceAdapter_GetByID(t *testing.T) {
	t.Run("returns the device when found", func(t *testing.T) {
		client, mock := setupMockAdapter(t)
		adapter := NewDeviceAdapter(client)

		now := time.Now()
		mock.ExpectQuery(`SELECT .+ FROM "devices"`).
			WillReturnRows(deviceRows().AddRow(
				"dev-1", "Front desk PC", "pc", "active", "Room 101", "SN-001",
				"ward-3", "Ward 3", []byte(`{"cpu":"i5-12400","ram_gb":"16"}`), nil, "",
				now, nil, []byte(`[]`), now, now,
			))

		device, err := adapter.GetByID(context.Background(), "dev-1")
		require.NoError(t, err)
		require.NotNil(t, device)
		assert.Equal(t, "dev-1", device.ID)
		assert.Equal(t, entities.DeviceStatusActive, device.Status)
		require.NotNil(t, device.WardID)
		assert.Equal(t, "ward-3", *device.WardID)
		assert.Equal(t, "i5-12400", device.Specifications["cpu"])
		assert.Nil(t, device.AssignedTo)
		assert.Nil(t, device.MaintainedAt)
	})

	t.Run("returns nil without error when missing", func(t *testing.T) {
		client, mock := setupMockAdapter(t)
		adapter := NewDeviceAdapter(client)

		mock.ExpectQuery(`SELECT .+ FROM "devices"`).
			WillReturnRows(deviceRows())

		device, err := adapter.GetByID(context.Background(), "nope")
		require.NoError(t, err)
		assert.Nil(t, device)
	})
}

func TestDeviceAdapter_List(t *testing.T) {
	t.Run("filters status in-process and sorts newest first", func(t *testing.T) {
		client, mock := setupMockAdapter(t)
		adapter := NewDeviceAdapter(client)

		older := time.Now().Add(-time.Hour)
		newer := time.Now()
		mock.ExpectQuery(`SELECT .+ FROM "devices"`).
			WillReturnRows(deviceRows().
				AddRow("dev-1", "PC A", "pc", "active", "", "SN-1",
					"ward-3", "Ward 3", []byte(`{}`), nil, "", nil, nil, []byte(`[]`), older, older).
				AddRow("dev-2", "PC B", "pc", "maintenance", "", "SN-2",
					"ward-3", "Ward 3", []byte(`{}`), nil, "", nil, nil, []byte(`[]`), newer, newer).
				AddRow("dev-3", "PC C", "pc", "active", "", "SN-3",
					"ward-3", "Ward 3", []byte(`{}`), nil, "", nil, nil, []byte(`[]`), newer, newer))

		devices, err := adapter.List(context.Background(), repositories.DeviceFilter{
			WardID: "ward-3",
			Status: entities.DeviceStatusActive,
		})
		require.NoError(t, err)
		require.Len(t, devices, 2)
		assert.Equal(t, "dev-3", devices[0].ID)
		assert.Equal(t, "dev-1", devices[1].ID)
	})

	t.Run("truncates to the limit after sorting", func(t *testing.T) {
		client, mock := setupMockAdapter(t)
		adapter := NewDeviceAdapter(client)

		now := time.Now()
		rows := deviceRows()
		for _, id := range []string{"dev-1", "dev-2", "dev-3"} {
			rows.AddRow(id, "PC", "pc", "active", "", "SN-"+id,
				"ward-3", "Ward 3", []byte(`{}`), nil, "", nil, nil, []byte(`[]`), now, now)
		}
		mock.ExpectQuery(`SELECT .+ FROM "devices"`).WillReturnRows(rows)

		devices, err := adapter.List(context.Background(), repositories.DeviceFilter{
			WardID: "ward-3",
			Limit:  2,
		})
		require.NoError(t, err)
		assert.Len(t, devices, 2)
	})
}

func TestDeviceAdapter_Update(t *testing.T) {
	t.Run("returns not found when no rows match", func(t *testing.T) {
		client, mock := setupMockAdapter(t)
		adapter := NewDeviceAdapter(client)

		mock.ExpectExec(`UPDATE "devices"`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := adapter.Update(context.Background(), &entities.Device{ID: "missing"})
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestDeviceAdapter_Delete(t *testing.T) {
	t.Run("deletes an existing device", func(t *testing.T) {
		client, mock := setupMockAdapter(t)
		adapter := NewDeviceAdapter(client)

		mock.ExpectExec(`DELETE FROM "devices"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := adapter.Delete(context.Background(), "dev-1")
		require.NoError(t, err)
	})

	t.Run("returns not found for an unknown device", func(t *testing.T) {
		client, mock := setupMockAdapter(t)
		adapter := NewDeviceAdapter(client)

		mock.ExpectExec(`DELETE FROM "devices"`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := adapter.Delete(context.Background(), "missing")
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestDeviceAdapter_CountByWard(t *testing.T) {
	client, mock := setupMockAdapter(t)
	adapter := NewDeviceAdapter(client)

	mock.ExpectQuery(`SELECT COUNT`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := adapter.CountByWard(context.Background(), "ward-3")
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}
