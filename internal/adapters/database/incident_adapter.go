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

var incidentColumns = []interface{}{
	"id", "ward_id", "ward_name", "device_id", "device_name",
	"reported_by", "reported_by_name", "title", "description",
	"severity", "status", "ward_approved_by", "ward_approved_by_name",
	"ward_approved_at", "ward_approval_comment", "ward_rejection_reason",
	"assigned_technician", "expected_resolution", "actual_resolution",
	"resolved_at", "image_urls", "has_new_update", "last_update_by_role",
	"created_at", "updated_at",
}

// IncidentAdapter implements the IncidentRepository interface
type IncidentAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewIncidentAdapter creates a new incident adapter
func NewIncidentAdapter(client *postgres.Client) repositories.IncidentRepository {
	return &IncidentAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new incident
func (a *IncidentAdapter) Create(ctx context.Context, incident *entities.Incident) error {
	imagesJSON, err := json.Marshal(incident.ImageURLs)
	if err != nil {
		return apperrors.NewInternalError("failed to encode image urls", err)
	}

	record := goqu.Record{
		"id":                    incident.ID,
		"ward_id":               incident.WardID,
		"ward_name":             incident.WardName,
		"device_id":             incident.DeviceID,
		"device_name":           incident.DeviceName,
		"reported_by":           incident.ReportedBy,
		"reported_by_name":      incident.ReportedByName,
		"title":                 incident.Title,
		"description":           incident.Description,
		"severity":              incident.Severity,
		"status":                incident.Status,
		"ward_approved_by":      incident.WardApprovedBy,
		"ward_approved_by_name": incident.WardApprovedByName,
		"ward_approved_at":      incident.WardApprovedAt,
		"ward_approval_comment": incident.WardApprovalComment,
		"ward_rejection_reason": incident.WardRejectionReason,
		"assigned_technician":   incident.AssignedTechnician,
		"expected_resolution":   incident.ExpectedResolution,
		"actual_resolution":     incident.ActualResolution,
		"resolved_at":           incident.ResolvedAt,
		"image_urls":            imagesJSON,
		"has_new_update":        incident.HasNewUpdate,
		"last_update_by_role":   incident.LastUpdateByRole,
		"created_at":            incident.CreatedAt,
		"updated_at":            incident.UpdatedAt,
	}

	query, args, err := a.db.Insert("incidents").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create incident", err)
	}

	return nil
}

// GetByID retrieves an incident by ID; missing returns (nil, nil)
func (a *IncidentAdapter) GetByID(ctx context.Context, id string) (*entities.Incident, error) {
	query, args, err := a.db.Select(incidentColumns...).
		From("incidents").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	incident, err := scanIncident(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get incident", err)
	}

	return incident, nil
}

// List retrieves incidents newest-first by creation time. Only the ward scope
// is pushed down to the store; device and status are filtered in-process so
// the store never needs a composite index over (ward_id, status, created_at).
func (a *IncidentAdapter) List(ctx context.Context, filter repositories.IncidentFilter) ([]*entities.Incident, error) {
	ds := a.db.Select(incidentColumns...).From("incidents")

	if filter.WardID != "" {
		ds = ds.Where(goqu.Ex{"ward_id": filter.WardID})
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list incidents", err)
	}
	defer rows.Close()

	var incidents []*entities.Incident
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan incident", err)
		}

		if filter.DeviceID != "" && incident.DeviceID != filter.DeviceID {
			continue
		}
		if filter.Status != "" && incident.Status != filter.Status {
			continue
		}
		incidents = append(incidents, incident)
	}

	sort.Slice(incidents, func(i, j int) bool {
		return incidents[i].CreatedAt.After(incidents[j].CreatedAt)
	})

	if filter.Limit > 0 && len(incidents) > filter.Limit {
		incidents = incidents[:filter.Limit]
	}

	return incidents, nil
}

// Update updates an incident
func (a *IncidentAdapter) Update(ctx context.Context, incident *entities.Incident) error {
	incident.UpdatedAt = time.Now()

	imagesJSON, err := json.Marshal(incident.ImageURLs)
	if err != nil {
		return apperrors.NewInternalError("failed to encode image urls", err)
	}

	record := goqu.Record{
		"title":                 incident.Title,
		"description":           incident.Description,
		"severity":              incident.Severity,
		"status":                incident.Status,
		"ward_approved_by":      incident.WardApprovedBy,
		"ward_approved_by_name": incident.WardApprovedByName,
		"ward_approved_at":      incident.WardApprovedAt,
		"ward_approval_comment": incident.WardApprovalComment,
		"ward_rejection_reason": incident.WardRejectionReason,
		"assigned_technician":   incident.AssignedTechnician,
		"expected_resolution":   incident.ExpectedResolution,
		"actual_resolution":     incident.ActualResolution,
		"resolved_at":           incident.ResolvedAt,
		"image_urls":            imagesJSON,
		"has_new_update":        incident.HasNewUpdate,
		"last_update_by_role":   incident.LastUpdateByRole,
		"updated_at":            incident.UpdatedAt,
	}

	query, args, err := a.db.Update("incidents").
		Set(record).
		Where(goqu.Ex{"id": incident.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update incident", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("incident with id %s not found", incident.ID))
	}

	return nil
}

// ClearNewUpdates clears the notification flag on all of a ward's incidents
// last touched by the given role. Clearing zero rows is not an error.
func (a *IncidentAdapter) ClearNewUpdates(ctx context.Context, wardID string, updatedBy entities.ActorRole) error {
	ds := a.db.Update("incidents").
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
		return apperrors.NewInternalError("failed to clear incident updates", err)
	}

	return nil
}

func scanIncident(row rowScanner) (*entities.Incident, error) {
	incident := &entities.Incident{}
	var wardApprovedAt, resolvedAt sql.NullTime
	var imagesJSON []byte

	err := row.Scan(
		&incident.ID,
		&incident.WardID,
		&incident.WardName,
		&incident.DeviceID,
		&incident.DeviceName,
		&incident.ReportedBy,
		&incident.ReportedByName,
		&incident.Title,
		&incident.Description,
		&incident.Severity,
		&incident.Status,
		&incident.WardApprovedBy,
		&incident.WardApprovedByName,
		&wardApprovedAt,
		&incident.WardApprovalComment,
		&incident.WardRejectionReason,
		&incident.AssignedTechnician,
		&incident.ExpectedResolution,
		&incident.ActualResolution,
		&resolvedAt,
		&imagesJSON,
		&incident.HasNewUpdate,
		&incident.LastUpdateByRole,
		&incident.CreatedAt,
		&incident.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if wardApprovedAt.Valid {
		incident.WardApprovedAt = &wardApprovedAt.Time
	}
	if resolvedAt.Valid {
		incident.ResolvedAt = &resolvedAt.Time
	}
	if len(imagesJSON) > 0 {
		if err := json.Unmarshal(imagesJSON, &incident.ImageURLs); err != nil {
			return nil, err
		}
	}

	return incident, nil
}
