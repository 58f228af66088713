package models

import "time"

const (
	PaymentStatusCompleted = "completed"
	PaymentStatusPending   = "pending"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// Payment is the append-only ledger of completed checkouts. The unique index
// on StripeSessionID is the storage-level guarantee that a checkout session is
// recorded at most once, regardless of how many verification attempts race.
type Payment struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"not null;index" json:"user_id"`
	UsernameSnapshot string    `gorm:"type:varchar(150);default:''" json:"username_snapshot"`
	Plan             string    `gorm:"type:varchar(20);not null" json:"plan"`
	Amount           int64     `gorm:"not null" json:"amount"` // smallest currency unit (paise)
	Currency         string    `gorm:"type:varchar(8);not null;default:'INR'" json:"currency"`
	StripeSessionID  string    `gorm:"type:varchar(191);not null;uniqueIndex:ux_payments_stripe_session" json:"stripe_session_id"`
	StripeCustomerID string    `gorm:"type:varchar(191);default:''" json:"stripe_customer_id"`
	InvoiceID        string    `gorm:"type:varchar(191);default:''" json:"invoice_id"`
	Status           string    `gorm:"type:varchar(20);not null;default:'completed';index" json:"status"`
	CreatedAt        time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
