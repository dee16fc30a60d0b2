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

var wardRoomColumns = []interface{}{
	"id", "ward_id", "name", "floor", "created_at", "updated_at",
}

// WardRoomAdapter implements the WardRoomRepository interface
type WardRoomAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewWardRoomAdapter creates a new ward room adapter
func NewWardRoomAdapter(client *postgres.Client) repositories.WardRoomRepository {
	return &WardRoomAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new room under a ward
func (a *WardRoomAdapter) Create(ctx context.Context, room *entities.WardRoom) error {
	record := goqu.Record{
		"id":         room.ID,
		"ward_id":    room.WardID,
		"name":       room.Name,
		"floor":      room.Floor,
		"created_at": room.CreatedAt,
		"updated_at": room.UpdatedAt,
	}

	query, args, err := a.db.Insert("ward_rooms").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create ward room", err)
	}

	return nil
}

// GetByID retrieves a room by ID; a missing room returns (nil, nil)
func (a *WardRoomAdapter) GetByID(ctx context.Context, id string) (*entities.WardRoom, error) {
	query, args, err := a.db.Select(wardRoomColumns...).
		From("ward_rooms").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	room, err := scanWardRoom(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get ward room", err)
	}

	return room, nil
}

// ListByWard retrieves all rooms of a ward newest-first
func (a *WardRoomAdapter) ListByWard(ctx context.Context, wardID string) ([]*entities.WardRoom, error) {
	query, args, err := a.db.Select(wardRoomColumns...).
		From("ward_rooms").
		Where(goqu.Ex{"ward_id": wardID}).
		Order(goqu.I("created_at").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list ward rooms", err)
	}
	defer rows.Close()

	var rooms []*entities.WardRoom
	for rows.Next() {
		room, err := scanWardRoom(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan ward room", err)
		}
		rooms = append(rooms, room)
	}

	return rooms, nil
}

// Update updates a room
func (a *WardRoomAdapter) Update(ctx context.Context, room *entities.WardRoom) error {
	room.UpdatedAt = time.Now()

	record := goqu.Record{
		"name":       room.Name,
		"floor":      room.Floor,
		"updated_at": room.UpdatedAt,
	}

	query, args, err := a.db.Update("ward_rooms").
		Set(record).
		Where(goqu.Ex{"id": room.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update ward room", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("ward room with id %s not found", room.ID))
	}

	return nil
}

// Delete hard-deletes a room
func (a *WardRoomAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete("ward_rooms").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete ward room", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("ward room with id %s not found", id))
	}

	return nil
}

func scanWardRoom(row rowScanner) (*entities.WardRoom, error) {
	room := &entities.WardRoom{}
	err := row.Scan(
		&room.ID,
		&room.WardID,
		&room.Name,
		&room.Floor,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return room, nil
}
