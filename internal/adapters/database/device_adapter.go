package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/civicworks/warddesk/backend/internal/domain/entities"
	"github.com/civicworks/warddesk/backend/internal/domain/repositories"
	"github.com/civicworks/warddesk/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/civicworks/warddesk/backend/pkg/errors"
)

var deviceColumns = []interface{}{
	"id", "name", "category", "status", "location", "serial_number",
	"ward_id", "ward_name", "specifications", "assigned_to", "assigned_to_name",
	"installed_at", "maintained_at", "image_urls", "created_at", "updated_at",
}

// DeviceAdapter implements the DeviceRepository interface
type DeviceAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewDeviceAdapter creates a new device adapter
func NewDeviceAdapter(client *postgres.Client) repositories.DeviceRepository {
	return &DeviceAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new device
func (a *DeviceAdapter) Create(ctx context.Context, device *entities.Device) error {
	specsJSON, err := json.Marshal(device.Specifications)
	if err != nil {
		return apperrors.NewInternalError("failed to encode specifications", err)
	}
	imagesJSON, err := json.Marshal(device.ImageURLs)
	if err != nil {
		return apperrors.NewInternalError("failed to encode image urls", err)
	}

	record := goqu.Record{
		"id":               device.ID,
		"name":             device.Name,
		"category":         device.Category,
		"status":           device.Status,
		"location":         device.Location,
		"serial_number":    device.SerialNumber,
		"ward_id":          device.WardID,
		"ward_name":        device.WardName,
		"specifications":   specsJSON,
		"assigned_to":      device.AssignedTo,
		"assigned_to_name": device.AssignedToName,
		"installed_at":     device.InstalledAt,
		"maintained_at":    device.MaintainedAt,
		"image_urls":       imagesJSON,
		"created_at":       device.CreatedAt,
		"updated_at":       device.UpdatedAt,
	}

	query, args, err := a.db.Insert("devices").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create device", err)
	}

	return nil
}

// GetByID retrieves a device by ID; a missing device returns (nil, nil)
func (a *DeviceAdapter) GetByID(ctx context.Context, id string) (*entities.Device, error) {
	query, args, err := a.db.Select(deviceColumns...).
		From("devices").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	device, err := scanDevice(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get device", err)
	}

	return device, nil
}

// List retrieves devices newest-first by creation time. Only the ward scope is
// pushed down to the store; status and category are filtered in-process so the
// store never needs a composite index over (ward_id, status, created_at).
func (a *DeviceAdapter) List(ctx context.Context, filter repositories.DeviceFilter) ([]*entities.Device, error) {
	ds := a.db.Select(deviceColumns...).From("devices")

	if filter.WardID != "" {
		ds = ds.Where(goqu.Ex{"ward_id": filter.WardID})
	} else if filter.Unassigned {
		ds = ds.Where(goqu.C("ward_id").IsNull())
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list devices", err)
	}
	defer rows.Close()

	var devices []*entities.Device
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan device", err)
		}

		if filter.Status != "" && device.Status != filter.Status {
			continue
		}
		if filter.Category != "" && device.Category != filter.Category {
			continue
		}
		devices = append(devices, device)
	}

	sort.Slice(devices, func(i, j int) bool {
		return devices[i].CreatedAt.After(devices[j].CreatedAt)
	})

	if filter.Limit > 0 && len(devices) > filter.Limit {
		devices = devices[:filter.Limit]
	}

	return devices, nil
}

// CountByWard returns the number of devices owned by a ward
func (a *DeviceAdapter) CountByWard(ctx context.Context, wardID string) (int, error) {
	query, args, err := a.db.Select(goqu.COUNT("*")).
		From("devices").
		Where(goqu.Ex{"ward_id": wardID}).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError("failed to count devices", err)
	}
	return count, nil
}

// Update updates a device
func (a *DeviceAdapter) Update(ctx context.Context, device *entities.Device) error {
	device.UpdatedAt = time.Now()

	specsJSON, err := json.Marshal(device.Specifications)
	if err != nil {
		return apperrors.NewInternalError("failed to encode specifications", err)
	}
	imagesJSON, err := json.Marshal(device.ImageURLs)
	if err != nil {
		return apperrors.NewInternalError("failed to encode image urls", err)
	}

	record := goqu.Record{
		"name":             device.Name,
		"category":         device.Category,
		"status":           device.Status,
		"location":         device.Location,
		"serial_number":    device.SerialNumber,
		"ward_id":          device.WardID,
		"ward_name":        device.WardName,
		"specifications":   specsJSON,
		"assigned_to":      device.AssignedTo,
		"assigned_to_name": device.AssignedToName,
		"installed_at":     device.InstalledAt,
		"maintained_at":    device.MaintainedAt,
		"image_urls":       imagesJSON,
		"updated_at":       device.UpdatedAt,
	}

	query, args, err := a.db.Update("devices").
		Set(record).
		Where(goqu.Ex{"id": device.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update device", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("device with id %s not found", device.ID))
	}

	return nil
}

// Delete hard-deletes a device
func (a *DeviceAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete("devices").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete device", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("device with id %s not found", id))
	}

	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDevice(row rowScanner) (*entities.Device, error) {
	device := &entities.Device{}
	var wardID, assignedTo sql.NullString
	var installedAt, maintainedAt sql.NullTime
	var specsJSON, imagesJSON []byte

	err := row.Scan(
		&device.ID,
		&device.Name,
		&device.Category,
		&device.Status,
		&device.Location,
		&device.SerialNumber,
		&wardID,
		&device.WardName,
		&specsJSON,
		&assignedTo,
		&device.AssignedToName,
		&installedAt,
		&maintainedAt,
		&imagesJSON,
		&device.CreatedAt,
		&device.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if wardID.Valid {
		device.WardID = &wardID.String
	}
	if assignedTo.Valid {
		device.AssignedTo = &assignedTo.String
	}
	if installedAt.Valid {
		device.InstalledAt = &installedAt.Time
	}
	if maintainedAt.Valid {
		device.MaintainedAt = &maintainedAt.Time
	}
	if len(specsJSON) > 0 {
		if err := json.Unmarshal(specsJSON, &device.Specifications); err != nil {
			return nil, err
		}
	}
	if len(imagesJSON) > 0 {
		if err := json.Unmarshal(imagesJSON, &device.ImageURLs); err != nil {
			return nil, err
		}
	}

	return device, nil
}
