package repository

import (
	"gorm.io/gorm"

	"github.com/RohanKhanna/TubeTalk/app/models"
)

// paymentRepository implements the PaymentRepository interface
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository instance
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// List retrieves a paginated list of payments, newest first.
func (r *paymentRepository) List(offset, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&payments).Error
	return payments, err
}

// Count returns the total number of payments
func (r *paymentRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Payment{}).Count(&count).Error
	return count, err
}

// MonthlyRevenue sums completed payment amounts per calendar month.
func (r *paymentRepository) MonthlyRevenue() ([]MonthlyRevenue, error) {
	var rows []MonthlyRevenue
	err := r.db.Model(&models.Payment{}).
		Select("YEAR(created_at) AS year, MONTH(created_at) AS month, SUM(amount) AS total_amount").
		Where("status = ?", models.PaymentStatusCompleted).
		Group("YEAR(created_at), MONTH(created_at)").
		Order("year ASC, month ASC").
		Scan(&rows).Error
	return rows, err
}
