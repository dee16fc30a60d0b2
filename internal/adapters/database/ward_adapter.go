package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/civicworks/warddesk/backend/internal/domain/entities"
	"github.com/civicworks/warddesk/backend/internal/domain/repositories"
	"github.com/civicworks/warddesk/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/civicworks/warddesk/backend/pkg/errors"
)

var wardColumns = []interface{}{
	"id", "name", "code", "district", "city",
	"contact_name", "contact_phone", "contact_email",
	"is_active", "created_at", "updated_at",
}

// WardAdapter implements the WardRepository interface
type WardAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewWardAdapter creates a new ward adapter
func NewWardAdapter(client *postgres.Client) repositories.WardRepository {
	return &WardAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new ward
func (a *WardAdapter) Create(ctx context.Context, ward *entities.Ward) error {
	record := goqu.Record{
		"id":            ward.ID,
		"name":          ward.Name,
		"code":          ward.Code,
		"district":      ward.District,
		"city":          ward.City,
		"contact_name":  ward.ContactName,
		"contact_phone": ward.ContactPhone,
		"contact_email": ward.ContactEmail,
		"is_active":     ward.IsActive,
		"created_at":    ward.CreatedAt,
		"updated_at":    ward.UpdatedAt,
	}

	query, args, err := a.db.Insert("wards").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create ward", err)
	}

	return nil
}

// GetByID retrieves a ward by ID; a missing ward returns (nil, nil)
func (a *WardAdapter) GetByID(ctx context.Context, id string) (*entities.Ward, error) {
	query, args, err := a.db.Select(wardColumns...).
		From("wards").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	ward, err := scanWard(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get ward", err)
	}

	return ward, nil
}

// List retrieves wards newest-first by creation time
func (a *WardAdapter) List(ctx context.Context, filter repositories.WardFilter) ([]*entities.Ward, error) {
	ds := a.db.Select(wardColumns...).From("wards")

	if filter.IsActive != nil {
		ds = ds.Where(goqu.Ex{"is_active": *filter.IsActive})
	}

	ds = ds.Order(goqu.I("created_at").Desc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list wards", err)
	}
	defer rows.Close()

	var wards []*entities.Ward
	for rows.Next() {
		ward, err := scanWard(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan ward", err)
		}

		// District is filtered here rather than in the store; the districts
		// column carries no index and listings stay small.
		if filter.District != "" && ward.District != filter.District {
			continue
		}
		wards = append(wards, ward)
	}

	return wards, nil
}

// Update updates a ward
func (a *WardAdapter) Update(ctx context.Context, ward *entities.Ward) error {
	ward.UpdatedAt = time.Now()

	record := goqu.Record{
		"name":          ward.Name,
		"code":          ward.Code,
		"district":      ward.District,
		"city":          ward.City,
		"contact_name":  ward.ContactName,
		"contact_phone": ward.ContactPhone,
		"contact_email": ward.ContactEmail,
		"is_active":     ward.IsActive,
		"updated_at":    ward.UpdatedAt,
	}

	query, args, err := a.db.Update("wards").
		Set(record).
		Where(goqu.Ex{"id": ward.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update ward", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("ward with id %s not found", ward.ID))
	}

	return nil
}

// Deactivate soft-deactivates a ward, retaining its history
func (a *WardAdapter) Deactivate(ctx context.Context, id string) error {
	query, args, err := a.db.Update("wards").
		Set(goqu.Record{
			"is_active":  false,
			"updated_at": time.Now(),
		}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build deactivate query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to deactivate ward", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("ward with id %s not found", id))
	}

	return nil
}

func scanWard(row rowScanner) (*entities.Ward, error) {
	ward := &entities.Ward{}
	err := row.Scan(
		&ward.ID,
		&ward.Name,
		&ward.Code,
		&ward.District,
		&ward.City,
		&ward.ContactName,
		&ward.ContactPhone,
		&ward.ContactEmail,
		&ward.IsActive,
		&ward.CreatedAt,
		&ward.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return ward, nil
}
