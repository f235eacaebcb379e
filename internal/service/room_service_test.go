package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type roomStoreMock struct {
	rooms     map[string]models.Room
	deleteErr error
}

func (m *roomStoreMock) List(ctx context.Context, filter models.RoomFilter) ([]models.Room, int, error) {
	var out []models.Room
	for _, r := range m.rooms {
		if filter.RoomType == "" || r.RoomType == filter.RoomType {
			out = append(out, r)
		}
	}
	return out, len(out), nil
}

func (m *roomStoreMock) FindByID(ctx context.Context, id string) (*models.Room, error) {
	r, ok := m.rooms[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &r, nil
}

func (m *roomStoreMock) Create(ctx context.Context, room *models.Room) error {
	if _, ok := m.rooms[room.ID]; ok {
		return fmt.Errorf("create room: %w", &pq.Error{Code: "23505"})
	}
	m.rooms[room.ID] = *room
	return nil
}

func (m *roomStoreMock) Update(ctx context.Context, originalID string, room *models.Room) error {
	if _, ok := m.rooms[originalID]; !ok {
		return sql.ErrNoRows
	}
	delete(m.rooms, originalID)
	m.rooms[room.ID] = *room
	return nil
}

func (m *roomStoreMock) Delete(ctx context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.rooms[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.rooms, id)
	return nil
}

func TestRoomServiceCreateDefaultsType(t *testing.T) {
	repo := &roomStoreMock{rooms: map[string]models.Room{}}
	svc := NewRoomService(repo, nil, nil)

	room, err := svc.Create(context.Background(), RoomRequest{ID: "R101", BuildingNumber: "B1"})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultRoomType, room.RoomType)

	_, err = svc.Create(context.Background(), RoomRequest{ID: "R101", BuildingNumber: "B2", RoomType: "Lab"})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	_, err = svc.Create(context.Background(), RoomRequest{ID: "R102"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRoomServiceRename(t *testing.T) {
	repo := &roomStoreMock{rooms: map[string]models.Room{"R101": {ID: "R101", BuildingNumber: "B1", RoomType: "Lab"}}}
	svc := NewRoomService(repo, nil, nil)

	room, err := svc.Update(context.Background(), "R101", RoomRequest{ID: "R201", BuildingNumber: "B2", RoomType: "Lab"})
	require.NoError(t, err)
	assert.Equal(t, "R201", room.ID)
	assert.NotContains(t, repo.rooms, "R101")

	got, err := svc.Get(context.Background(), "R201")
	require.NoError(t, err)
	assert.Equal(t, "B2", got.BuildingNumber)

	_, err = svc.Get(context.Background(), "R101")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestRoomServiceDeleteWithSessions(t *testing.T) {
	repo := &roomStoreMock{rooms: map[string]models.Room{"R101": {ID: "R101"}}}
	repo.deleteErr = fmt.Errorf("delete room: %w", &pq.Error{Code: "23503"})
	svc := NewRoomService(repo, nil, nil)

	err := svc.Delete(context.Background(), "R101")
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	repo.deleteErr = nil
	require.NoError(t, svc.Delete(context.Background(), "R101"))
	assert.True(t, errors.Is(svc.Delete(context.Background(), "R101"), appErrors.ErrNotFound))
}

func TestRoomServiceListFilters(t *testing.T) {
	repo := &roomStoreMock{rooms: map[string]models.Room{
		"R1": {ID: "R1", RoomType: "Lab"},
		"R2": {ID: "R2", RoomType: "Lecture"},
	}}
	svc := NewRoomService(repo, nil, nil)

	rooms, pagination, err := svc.List(context.Background(), models.RoomFilter{RoomType: "Lab"})
	require.NoError(t, err)
	assert.Len(t, rooms, 1)
	assert.Equal(t, 1, pagination.TotalCount)
}
