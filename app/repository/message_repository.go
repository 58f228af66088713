package repository

import (
	"gorm.io/gorm"

	"github.com/RohanKhanna/TubeTalk/app/models"
)

// messageRepository implements the MessageRepository interface
type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new message repository instance
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// CreateBatch stores the given messages in a single insert so a user turn and
// the assistant reply land together.
func (r *messageRepository) CreateBatch(messages []models.Message) error {
	if len(messages) == 0 {
		return nil
	}
	return r.db.Create(&messages).Error
}

// GetByCollectionID retrieves a collection's messages in chronological order.
func (r *messageRepository) GetByCollectionID(collectionID uint, limit int) ([]models.Message, error) {
	var messages []models.Message
	q := r.db.Where("collection_id = ?", collectionID).Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&messages).Error
	return messages, err
}
