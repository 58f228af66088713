package repository

import (
	"time"

	"github.com/RohanKhanna/TubeTalk/app/models"
)

// PlanCount is one row of the users-per-plan distribution.
type PlanCount struct {
	Plan  string `json:"plan"`
	Count int64  `json:"count"`
}

// MonthlyRevenue aggregates completed payment amounts per calendar month.
type MonthlyRevenue struct {
	Year        int   `json:"year"`
	Month       int   `json:"month"`
	TotalAmount int64 `json:"total_amount"`
}

// DailyCount aggregates created rows per day.
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByName(name string) (*models.User, error)
	Update(user *models.User) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	CountByPlan() ([]PlanCount, error)
}

// PaymentRepository is the read side of the payment ledger, used by the admin
// endpoints. Ledger inserts go through the billing package's atomic
// insert-if-absent only.
type PaymentRepository interface {
	List(offset, limit int) ([]models.Payment, error)
	Count() (int64, error)
	MonthlyRevenue() ([]MonthlyRevenue, error)
}

// CollectionRepository defines the interface for transcript collections.
type CollectionRepository interface {
	Create(collection *models.Collection) error
	GetByUUID(uuid string) (*models.Collection, error)
	GetByUserID(userID uint, offset, limit int) ([]models.Collection, error)
	List(offset, limit int) ([]models.Collection, error)
	Count() (int64, error)
	DailyCounts(startDate, endDate time.Time) ([]DailyCount, error)
}

// MessageRepository defines the interface for chat messages.
type MessageRepository interface {
	CreateBatch(messages []models.Message) error
	GetByCollectionID(collectionID uint, limit int) ([]models.Message, error)
}

// WebhookEventRepository persists provider webhook deliveries idempotently.
type WebhookEventRepository interface {
	CreateIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkProcessed(id uint, processingError string) error
}
