package billing

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/RohanKhanna/TubeTalk/app/models"
)

// Repository provides the DB operations used by the reconciliation service.
type Repository interface {
	GetUser(id uint) (*models.User, error)
	SaveUser(user *models.User) error
	// InsertPaymentIfAbsent is an atomic insert keyed on the stripe session
	// id. created=false means another writer already recorded the session.
	InsertPaymentIfAbsent(payment *models.Payment) (bool, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetUser(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) SaveUser(user *models.User) error {
	return r.db.Save(user).Error
}

func (r *gormRepository) InsertPaymentIfAbsent(payment *models.Payment) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stripe_session_id"}},
		DoNothing: true,
	}).Create(payment)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}
