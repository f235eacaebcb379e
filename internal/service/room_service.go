package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/repository"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type roomRepository interface {
	List(ctx context.Context, filter models.RoomFilter) ([]models.Room, int, error)
	FindByID(ctx context.Context, id string) (*models.Room, error)
	Create(ctx context.Context, room *models.Room) error
	Update(ctx context.Context, originalID string, room *models.Room) error
	Delete(ctx context.Context, id string) error
}

// RoomRequest is the payload for creating or editing a room.
type RoomRequest struct {
	ID             string `json:"id" validate:"required,max=20"`
	BuildingNumber string `json:"building_number" validate:"required,max=20"`
	RoomType       string `json:"room_type" validate:"omitempty,max=50"`
}

// RoomService manages bookable rooms.
type RoomService struct {
	repo      roomRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRoomService constructs a RoomService.
func NewRoomService(repo roomRepository, validate *validator.Validate, logger *zap.Logger) *RoomService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomService{repo: repo, validator: validate, logger: logger}
}

// List returns rooms ordered by id.
func (s *RoomService) List(ctx context.Context, filter models.RoomFilter) ([]models.Room, *models.Pagination, error) {
	rooms, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list rooms")
	}
	return rooms, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a room by id.
func (s *RoomService) Get(ctx context.Context, id string) (*models.Room, error) {
	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, roomWriteError(err, "failed to load room")
	}
	return room, nil
}

// Create stores a new room. A blank type becomes DefaultRoomType.
func (s *RoomService) Create(ctx context.Context, req RoomRequest) (*models.Room, error) {
	room, err := s.buildRoom(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, room); err != nil {
		return nil, roomWriteError(err, "failed to create room")
	}
	return room, nil
}

// Update rewrites the room stored under id. Class sessions follow a
// renamed room.
func (s *RoomService) Update(ctx context.Context, id string, req RoomRequest) (*models.Room, error) {
	room, err := s.buildRoom(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, id, room); err != nil {
		return nil, roomWriteError(err, "failed to update room")
	}
	return room, nil
}

// Delete removes a room that has no class sessions booked.
func (s *RoomService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if repository.IsForeignKeyViolation(err) {
			return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "room still has class sessions and cannot be deleted")
		}
		return roomWriteError(err, "failed to delete room")
	}
	return nil
}

func (s *RoomService) buildRoom(req RoomRequest) (*models.Room, error) {
	req.ID = strings.TrimSpace(req.ID)
	req.BuildingNumber = strings.TrimSpace(req.BuildingNumber)
	req.RoomType = strings.TrimSpace(req.RoomType)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid room payload")
	}
	room := &models.Room{ID: req.ID, BuildingNumber: req.BuildingNumber, RoomType: req.RoomType}
	if room.RoomType == "" {
		room.RoomType = models.DefaultRoomType
	}
	return room, nil
}

func roomWriteError(err error, message string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "room not found")
	case repository.IsUniqueViolation(err):
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "room id already exists")
	default:
		return appErrors.Internal(err, message)
	}
}
