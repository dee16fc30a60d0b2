package database

import (
	"context"
	"database/sql"
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

var wardUserColumns = []interface{}{
	"id", "user_id", "ward_id", "ward_name", "room_id", "room_name",
	"role", "full_name", "email", "phone", "is_active",
	"created_at", "updated_at",
}

// WardUserAdapter implements the WardUserRepository interface
type WardUserAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewWardUserAdapter creates a new ward user adapter
func NewWardUserAdapter(client *postgres.Client) repositories.WardUserRepository {
	return &WardUserAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new membership record
func (a *WardUserAdapter) Create(ctx context.Context, member *entities.WardUser) error {
	record := goqu.Record{
		"id":         member.ID,
		"user_id":    member.UserID,
		"ward_id":    member.WardID,
		"ward_name":  member.WardName,
		"room_id":    member.RoomID,
		"room_name":  member.RoomName,
		"role":       member.Role,
		"full_name":  member.FullName,
		"email":      member.Email,
		"phone":      member.Phone,
		"is_active":  member.IsActive,
		"created_at": member.CreatedAt,
		"updated_at": member.UpdatedAt,
	}

	query, args, err := a.db.Insert("ward_users").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create ward user", err)
	}

	return nil
}

// GetByID retrieves a membership by ID; missing returns (nil, nil)
func (a *WardUserAdapter) GetByID(ctx context.Context, id string) (*entities.WardUser, error) {
	query, args, err := a.db.Select(wardUserColumns...).
		From("ward_users").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	member, err := scanWardUser(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get ward user", err)
	}

	return member, nil
}

// List retrieves memberships newest-first by creation time. Only the ward
// scope is pushed down to the store; room and role are filtered in-process.
// A RoomID of "" selects members not assigned to any room.
func (a *WardUserAdapter) List(ctx context.Context, filter repositories.WardUserFilter) ([]*entities.WardUser, error) {
	ds := a.db.Select(wardUserColumns...).From("ward_users")

	if filter.WardID != "" {
		ds = ds.Where(goqu.Ex{"ward_id": filter.WardID})
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list ward users", err)
	}
	defer rows.Close()

	var members []*entities.WardUser
	for rows.Next() {
		member, err := scanWardUser(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan ward user", err)
		}

		if filter.RoomID != nil && member.RoomID != *filter.RoomID {
			continue
		}
		if filter.Role != "" && member.Role != filter.Role {
			continue
		}
		if filter.IsActive != nil && member.IsActive != *filter.IsActive {
			continue
		}
		members = append(members, member)
	}

	sort.Slice(members, func(i, j int) bool {
		return members[i].CreatedAt.After(members[j].CreatedAt)
	})

	if filter.Limit > 0 && len(members) > filter.Limit {
		members = members[:filter.Limit]
	}

	return members, nil
}

// CountByWard returns the number of active memberships in a ward
func (a *WardUserAdapter) CountByWard(ctx context.Context, wardID string) (int, error) {
	query, args, err := a.db.Select(goqu.COUNT("*")).
		From("ward_users").
		Where(goqu.Ex{"ward_id": wardID, "is_active": true}).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError("failed to count ward users", err)
	}
	return count, nil
}

// Update updates a membership record
func (a *WardUserAdapter) Update(ctx context.Context, member *entities.WardUser) error {
	member.UpdatedAt = time.Now()

	record := goqu.Record{
		"ward_id":    member.WardID,
		"ward_name":  member.WardName,
		"room_id":    member.RoomID,
		"room_name":  member.RoomName,
		"role":       member.Role,
		"full_name":  member.FullName,
		"email":      member.Email,
		"phone":      member.Phone,
		"is_active":  member.IsActive,
		"updated_at": member.UpdatedAt,
	}

	query, args, err := a.db.Update("ward_users").
		Set(record).
		Where(goqu.Ex{"id": member.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update ward user", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("ward user with id %s not found", member.ID))
	}

	return nil
}

// Deactivate soft-deactivates a membership
func (a *WardUserAdapter) Deactivate(ctx context.Context, id string) error {
	query, args, err := a.db.Update("ward_users").
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
		return apperrors.NewInternalError("failed to deactivate ward user", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("ward user with id %s not found", id))
	}

	return nil
}

func scanWardUser(row rowScanner) (*entities.WardUser, error) {
	member := &entities.WardUser{}
	err := row.Scan(
		&member.ID,
		&member.UserID,
		&member.WardID,
		&member.WardName,
		&member.RoomID,
		&member.RoomName,
		&member.Role,
		&member.FullName,
		&member.Email,
		&member.Phone,
		&member.IsActive,
		&member.CreatedAt,
		&member.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return member, nil
}
