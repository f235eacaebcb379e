package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-admin-api/internal/models"
)

// RoomRepository manages room persistence.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository constructs a RoomRepository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// List returns rooms ordered by id.
func (r *RoomRepository) List(ctx context.Context, filter models.RoomFilter) ([]models.Room, int, error) {
	base := "FROM rooms WHERE 1=1"
	var args []interface{}
	if filter.RoomType != "" {
		base += " AND room_type = $1"
		args = append(args, filter.RoomType)
	}

	limit, offset := pageBounds(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT id, building_number, room_type %s ORDER BY id ASC LIMIT %d OFFSET %d", base, limit, offset)
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list rooms: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count rooms: %w", err)
	}
	return rooms, total, nil
}

// FindByID fetches a room by id.
func (r *RoomRepository) FindByID(ctx context.Context, id string) (*models.Room, error) {
	var room models.Room
	if err := r.db.GetContext(ctx, &room, `SELECT id, building_number, room_type FROM rooms WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find room: %w", err)
	}
	return &room, nil
}

// Create inserts a new room.
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	const query = `INSERT INTO rooms (id, building_number, room_type) VALUES (:id, :building_number, :room_type)`
	if _, err := r.db.NamedExecContext(ctx, query, room); err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

// Update rewrites the room stored under originalID, which may rename it.
// Sessions follow the rename through ON UPDATE CASCADE.
func (r *RoomRepository) Update(ctx context.Context, originalID string, room *models.Room) error {
	const query = `UPDATE rooms SET id = $1, building_number = $2, room_type = $3 WHERE id = $4`
	res, err := r.db.ExecContext(ctx, query, room.ID, room.BuildingNumber, room.RoomType, originalID)
	if err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a room.
func (r *RoomRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListOptions returns every room as a selection option ordered by id.
func (r *RoomRepository) ListOptions(ctx context.Context) ([]models.Option, error) {
	var options []models.Option
	if err := r.db.SelectContext(ctx, &options, `SELECT id, id || ' (' || room_type || ')' AS label FROM rooms ORDER BY id ASC`); err != nil {
		return nil, fmt.Errorf("list room options: %w", err)
	}
	return options, nil
}
