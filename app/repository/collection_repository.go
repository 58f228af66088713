package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/RohanKhanna/TubeTalk/app/models"
)

// collectionRepository implements the CollectionRepository interface
type collectionRepository struct {
	db *gorm.DB
}

// NewCollectionRepository creates a new collection repository instance
func NewCollectionRepository(db *gorm.DB) CollectionRepository {
	return &collectionRepository{db: db}
}

// Create creates a new collection in the database
func (r *collectionRepository) Create(collection *models.Collection) error {
	return r.db.Create(collection).Error
}

// GetByUUID retrieves a collection by its public UUID
func (r *collectionRepository) GetByUUID(uuid string) (*models.Collection, error) {
	var collection models.Collection
	err := r.db.Where("uuid = ?", uuid).First(&collection).Error
	if err != nil {
		return nil, err
	}
	return &collection, nil
}

// GetByUserID retrieves a user's collections, newest first.
func (r *collectionRepository) GetByUserID(userID uint, offset, limit int) ([]models.Collection, error) {
	var collections []models.Collection
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&collections).Error
	return collections, err
}

// List retrieves a paginated list of all collections
func (r *collectionRepository) List(offset, limit int) ([]models.Collection, error) {
	var collections []models.Collection
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&collections).Error
	return collections, err
}

// Count returns the total number of collections
func (r *collectionRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Collection{}).Count(&count).Error
	return count, err
}

// DailyCounts returns collections created per day in the given range.
func (r *collectionRepository) DailyCounts(startDate, endDate time.Time) ([]DailyCount, error) {
	var rows []DailyCount
	err := r.db.Model(&models.Collection{}).
		Select("DATE(created_at) AS date, COUNT(*) AS count").
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&rows).Error
	return rows, err
}
