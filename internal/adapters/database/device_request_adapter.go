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

var deviceRequestColumns = []interface{}{
	"id", "ward_id", "ward_name", "requested_by", "requested_by_name",
	"items", "justification", "status", "approved_by", "approved_by_name",
	"rejection_reason", "allocated_serials", "notes",
	"approved_at", "allocated_at", "delivered_at", "received_at",
	"has_new_update", "last_update_by_role", "created_at", "updated_at",
}

// DeviceRequestAdapter implements the DeviceRequestRepository interface
type DeviceRequestAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewDeviceRequestAdapter creates a new device request adapter
func NewDeviceRequestAdapter(client *postgres.Client) repositories.DeviceRequestRepository {
	return &DeviceRequestAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new device request
func (a *DeviceRequestAdapter) Create(ctx context.Context, request *entities.DeviceRequest) error {
	itemsJSON, err := json.Marshal(request.Items)
	if err != nil {
		return apperrors.NewInternalError("failed to encode items", err)
	}
	serialsJSON, err := json.Marshal(request.AllocatedSerials)
	if err != nil {
		return apperrors.NewInternalError("failed to encode allocated serials", err)
	}

	record := goqu.Record{
		"id":                  request.ID,
		"ward_id":             request.WardID,
		"ward_name":           request.WardName,
		"requested_by":        request.RequestedBy,
		"requested_by_name":   request.RequestedByName,
		"items":               itemsJSON,
		"justification":       request.Justification,
		"status":              request.Status,
		"approved_by":         request.ApprovedBy,
		"approved_by_name":    request.ApprovedByName,
		"rejection_reason":    request.RejectionReason,
		"allocated_serials":   serialsJSON,
		"notes":               request.Notes,
		"approved_at":         request.ApprovedAt,
		"allocated_at":        request.AllocatedAt,
		"delivered_at":        request.DeliveredAt,
		"received_at":         request.ReceivedAt,
		"has_new_update":      request.HasNewUpdate,
		"last_update_by_role": request.LastUpdateByRole,
		"created_at":          request.CreatedAt,
		"updated_at":          request.UpdatedAt,
	}

	query, args, err := a.db.Insert("device_requests").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create device request", err)
	}

	return nil
}

// GetByID retrieves a request by ID; missing returns (nil, nil)
func (a *DeviceRequestAdapter) GetByID(ctx context.Context, id string) (*entities.DeviceRequest, error) {
	query, args, err := a.db.Select(deviceRequestColumns...).
		From("device_requests").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	request, err := scanDeviceRequest(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get device request", err)
	}

	return request, nil
}

// List retrieves requests newest-first by creation time. Only the ward scope
// is pushed down to the store; status is filtered in-process so the store
// never needs a composite index over (ward_id, status, created_at).
func (a *DeviceRequestAdapter) List(ctx context.Context, filter repositories.DeviceRequestFilter) ([]*entities.DeviceRequest, error) {
	ds := a.db.Select(deviceRequestColumns...).From("device_requests")

	if filter.WardID != "" {
		ds = ds.Where(goqu.Ex{"ward_id": filter.WardID})
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list device requests", err)
	}
	defer rows.Close()

	var requests []*entities.DeviceRequest
	for rows.Next() {
		request, err := scanDeviceRequest(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan device request", err)
		}

		if filter.Status != "" && request.Status != filter.Status {
			continue
		}
		requests = append(requests, request)
	}

	sort.Slice(requests, func(i, j int) bool {
		return requests[i].CreatedAt.After(requests[j].CreatedAt)
	})

	if filter.Limit > 0 && len(requests) > filter.Limit {
		requests = requests[:filter.Limit]
	}

	return requests, nil
}

// Update updates a request
func (a *DeviceRequestAdapter) Update(ctx context.Context, request *entities.DeviceRequest) error {
	request.UpdatedAt = time.Now()

	itemsJSON, err := json.Marshal(request.Items)
	if err != nil {
		return apperrors.NewInternalError("failed to encode items", err)
	}
	serialsJSON, err := json.Marshal(request.AllocatedSerials)
	if err != nil {
		return apperrors.NewInternalError("failed to encode allocated serials", err)
	}

	record := goqu.Record{
		"items":               itemsJSON,
		"justification":       request.Justification,
		"status":              request.Status,
		"approved_by":         request.ApprovedBy,
		"approved_by_name":    request.ApprovedByName,
		"rejection_reason":    request.RejectionReason,
		"allocated_serials":   serialsJSON,
		"notes":               request.Notes,
		"approved_at":         request.ApprovedAt,
		"allocated_at":        request.AllocatedAt,
		"delivered_at":        request.DeliveredAt,
		"received_at":         request.ReceivedAt,
		"has_new_update":      request.HasNewUpdate,
		"last_update_by_role": request.LastUpdateByRole,
		"updated_at":          request.UpdatedAt,
	}

	query, args, err := a.db.Update("device_requests").
		Set(record).
		Where(goqu.Ex{"id": request.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update device request", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("device request with id %s not found", request.ID))
	}

	return nil
}

// ClearNewUpdates clears the notification flag on all of a ward's requests
// last touched by the given role. Clearing zero rows is not an error; the
// viewer may simply have nothing unread.
func (a *DeviceRequestAdapter) ClearNewUpdates(ctx context.Context, wardID string, updatedBy entities.ActorRole) error {
	ds := a.db.Update("device_requests").
		Set(goqu.Record{
			"has_new_update": false,
			"updated_at":     time.Now(),
		}).
		Where(goqu.Ex{
			"has_new_update":      true,
			"last_update_by_role": updatedBy,
		})

	if wardID != "" {
		ds = ds.Where(goqu.Ex{"ward_id": wardID})
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build clear query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to clear request updates", err)
	}

	return nil
}

// Delete hard-deletes a request
func (a *DeviceRequestAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete("device_requests").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete device request", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("device request with id %s not found", id))
	}

	return nil
}

func scanDeviceRequest(row rowScanner) (*entities.DeviceRequest, error) {
	request := &entities.DeviceRequest{}
	var approvedAt, allocatedAt, deliveredAt, receivedAt sql.NullTime
	var itemsJSON, serialsJSON []byte

	err := row.Scan(
		&request.ID,
		&request.WardID,
		&request.WardName,
		&request.RequestedBy,
		&request.RequestedByName,
		&itemsJSON,
		&request.Justification,
		&request.Status,
		&request.ApprovedBy,
		&request.ApprovedByName,
		&request.RejectionReason,
		&serialsJSON,
		&request.Notes,
		&approvedAt,
		&allocatedAt,
		&deliveredAt,
		&receivedAt,
		&request.HasNewUpdate,
		&request.LastUpdateByRole,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if approvedAt.Valid {
		request.ApprovedAt = &approvedAt.Time
	}
	if allocatedAt.Valid {
		request.AllocatedAt = &allocatedAt.Time
	}
	if deliveredAt.Valid {
		request.DeliveredAt = &deliveredAt.Time
	}
	if receivedAt.Valid {
		request.ReceivedAt = &receivedAt.Time
	}
	if len(itemsJSON) > 0 {
		if err := json.Unmarshal(itemsJSON, &request.Items); err != nil {
			return nil, err
		}
	}
	if len(serialsJSON) > 0 {
		if err := json.Unmarshal(serialsJSON, &request.AllocatedSerials); err != nil {
			return nil, err
		}
	}

	return request, nil
}
