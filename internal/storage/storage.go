package storage

import (
	"context"
	"errors"
	"log"
	"time"

	"anonpair/backend/internal/models"

	"gorm.io/gorm"
)

// ErrRoomNotFound is returned when no archived room has the requested id.
var ErrRoomNotFound = errors.New("room not found")

// Storage is the session archive. It records what happened; the pairing
// engine never reads from it.
type Storage interface {
	SaveRoom(ctx context.Context, room *models.ChatRoom) error
	CloseRoom(ctx context.Context, roomID string, messages int, reason string, endedAt time.Time) error
	GetRoomByID(ctx context.Context, roomID string) (*models.ChatRoom, error)
	ListRooms(ctx context.Context, activeOnly bool, limit int) ([]models.ChatRoom, error)
	SaveRating(ctx context.Context, rec *models.RatingRecord) error
	RatingsFor(ctx context.Context, target int64) ([]models.RatingRecord, error)
}

type Service struct {
	DB *gorm.DB
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// Migrate creates the archive tables.
func (s *Service) Migrate() error {
	return s.DB.AutoMigrate(&models.ChatRoom{}, &models.RatingRecord{})
}

// SaveRoom stores a freshly formed session.
func (s *Service) SaveRoom(ctx context.Context, room *models.ChatRoom) error {
	return s.DB.WithContext(ctx).Save(room).Error
}

// CloseRoom marks the room inactive and records how it ended.
func (s *Service) CloseRoom(ctx context.Context, roomID string, messages int, reason string, endedAt time.Time) error {
	result := s.DB.WithContext(ctx).Model(&models.ChatRoom{}).
		Where("room_id = ?", roomID).
		Updates(map[string]interface{}{
			"is_active":  false,
			"messages":   messages,
			"end_reason": reason,
			"ended_at":   endedAt,
		})
	if result.Error != nil {
		log.Printf("ERROR: Failed to close room %s: %v", roomID, result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRoomNotFound
	}
	return nil
}

func (s *Service) GetRoomByID(ctx context.Context, roomID string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := s.DB.WithContext(ctx).Where("room_id = ?", roomID).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// ListRooms returns rooms newest first. A non-positive limit means no limit.
func (s *Service) ListRooms(ctx context.Context, activeOnly bool, limit int) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	q := s.DB.WithContext(ctx).Order("started_at desc")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

func (s *Service) SaveRating(ctx context.Context, rec *models.RatingRecord) error {
	return s.DB.WithContext(ctx).Create(rec).Error
}

// RatingsFor returns every archived score given to target, oldest first.
func (s *Service) RatingsFor(ctx context.Context, target int64) ([]models.RatingRecord, error) {
	var recs []models.RatingRecord
	if err := s.DB.WithContext(ctx).Where("target_id = ?", target).Order("id asc").Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}
