package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicworks/warddesk/backend/internal/domain/entities"
	apperrors "github.com/civicworks/warddesk/backend/pkg/errors"
)

func newDeviceFixture(t *testing.T) (*DeviceService, *fakeDeviceRepo, *fakeBlobStore, *fakeEventBus) {
	t.Helper()
	devices := newFakeDeviceRepo()
	wards := newFakeWardRepo()
	wards.wards["ward-3"] = &entities.Ward{ID: "ward-3", Name: "Ward 3", IsActive: true}
	blobs := newFakeBlobStore()
	bus := newFakeEventBus()
	return NewDeviceService(devices, wards, blobs, bus), devices, blobs, bus
}

func TestDeviceService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("valid device with full specifications", func(t *testing.T) {
		svc, devices, _, bus := newDeviceFixture(t)
		wardID := "ward-3"
		device := &entities.Device{
			Name:     "Front desk PC",
			Category: "pc",
			WardID:   &wardID,
			Specifications: map[string]string{
				"brand":       "Dell",
				"model":       "OptiPlex 7090",
				"cpu":         "i5-12400",
				"ram":         "16GB",
				"storage":     "512GB SSD",
				"os":          "Windows 11",
				"ip_address":  "192.168.1.100",
				"mac_address": "00:11:22:33:44:55",
			},
		}

		require.NoError(t, svc.Create(ctx, device, centerAdmin.Role))
		assert.NotEmpty(t, device.ID)
		assert.Equal(t, entities.DeviceStatusActive, device.Status)
		assert.Equal(t, "Ward 3", device.WardName)
		assert.Equal(t, device.CreatedAt, device.UpdatedAt)
		assert.Contains(t, devices.devices, device.ID)
		require.NotEmpty(t, bus.published)
		assert.Equal(t, entities.UpdateEventDevice, bus.published[0].EventType)
	})

	t.Run("malformed IP is a hard error", func(t *testing.T) {
		svc, devices, _, _ := newDeviceFixture(t)
		device := &entities.Device{
			Name:     "Front desk PC",
			Category: "pc",
			Specifications: map[string]string{
				"brand":      "Dell",
				"ip_address": "192.168.1.999",
			},
		}

		err := svc.Create(ctx, device, centerAdmin.Role)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		assert.Empty(t, devices.devices)
	})

	t.Run("unknown ward is rejected", func(t *testing.T) {
		svc, _, _, _ := newDeviceFixture(t)
		wardID := "nope"
		device := &entities.Device{
			Name:           "PC",
			Category:       "misc",
			WardID:         &wardID,
			Specifications: map[string]string{"brand": "Dell"},
		}

		err := svc.Create(ctx, device, centerAdmin.Role)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}

func TestDeviceService_AssignToWard(t *testing.T) {
	ctx := context.Background()
	svc, devices, _, _ := newDeviceFixture(t)

	devices.devices["dev-1"] = &entities.Device{ID: "dev-1", Name: "Spare PC", Category: "misc"}

	require.NoError(t, svc.AssignToWard(ctx, "dev-1", "ward-3", centerAdmin.Role))

	got := devices.devices["dev-1"]
	require.NotNil(t, got.WardID)
	assert.Equal(t, "ward-3", *got.WardID)
	assert.Equal(t, "Ward 3", got.WardName)

	t.Run("unknown device is not found", func(t *testing.T) {
		err := svc.AssignToWard(ctx, "nope", "ward-3", centerAdmin.Role)
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestDeviceService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes stored images best-effort", func(t *testing.T) {
		svc, devices, blobs, _ := newDeviceFixture(t)
		devices.devices["dev-1"] = &entities.Device{
			ID:        "dev-1",
			Category:  "misc",
			ImageURLs: []string{"https://blobs.test/devices/images/1_a.jpg"},
		}

		require.NoError(t, svc.Delete(ctx, "dev-1", centerAdmin.Role))
		assert.NotContains(t, devices.devices, "dev-1")
		assert.Equal(t, []string{"https://blobs.test/devices/images/1_a.jpg"}, blobs.deleted)
	})

	t.Run("image cleanup failure does not fail the delete", func(t *testing.T) {
		svc, devices, blobs, _ := newDeviceFixture(t)
		blobs.failAll = true
		devices.devices["dev-1"] = &entities.Device{
			ID:        "dev-1",
			Category:  "misc",
			ImageURLs: []string{"https://blobs.test/devices/images/1_a.jpg"},
		}

		require.NoError(t, svc.Delete(ctx, "dev-1", centerAdmin.Role))
		assert.NotContains(t, devices.devices, "dev-1")
	})
}
