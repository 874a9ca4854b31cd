package notify

import (
	"github.com/expenso-dev/expenso/internal/models"
	"github.com/expenso-dev/expenso/internal/types"
	"gorm.io/gorm"
)

// Store is the durable side of the notification pipeline.
type Store interface {
	// Create inserts an unread record for owner and returns it with its
	// generated id and timestamp.
	Create(owner uint, message string, category types.Category) (*models.Notification, error)
	// ListByOwner returns the owner's notifications newest first. An empty
	// category returns all of them.
	ListByOwner(owner uint, category types.Category) ([]models.Notification, error)
	// MarkRead flips IsRead on the record and returns the updated row.
	MarkRead(id uint) (*models.Notification, error)
}

// GormStore backs Store with the application database.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Create(owner uint, message string, category types.Category) (*models.Notification, error) {
	notification := models.Notification{
		UserID:   owner,
		Message:  message,
		Category: category,
		IsRead:   false,
	}

	if err := s.db.Create(&notification).Error; err != nil {
		return nil, err
	}

	return &notification, nil
}

func (s *GormStore) ListByOwner(owner uint, category types.Category) ([]models.Notification, error) {
	query := s.db.Where("user_id = ?", owner)

	if category != "" {
		query = query.Where("category = ?", category)
	}

	var notifications []models.Notification

	if err := query.Order("created_at DESC").Find(&notifications).Error; err != nil {
		return nil, err
	}

	return notifications, nil
}

func (s *GormStore) MarkRead(id uint) (*models.Notification, error) {
	var notification models.Notification

	if err := s.db.First(&notification, id).Error; err != nil {
		return nil, err
	}

	if !notification.IsRead {
		if err := s.db.Model(&notification).Update("is_read", true).Error; err != nil {
			return nil, err
		}
	}

	return &notification, nil
}
