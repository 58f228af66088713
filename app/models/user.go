package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/RohanKhanna/TubeTalk/internal/pkg/entitlements"
)

const (
	ROLE_USER  = "user"
	ROLE_ADMIN = "admin"
)

type User struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Name               string         `gorm:"uniqueIndex;type:varchar(150)" json:"name" validate:"required,min=3,max=150"`
	Email              string         `gorm:"uniqueIndex;type:varchar(200)" json:"email" validate:"required,email,min=5,max=200"`
	Password           string         `gorm:"type:text" json:"-" validate:"required,min=6"`
	Plan               string         `gorm:"type:varchar(20);default:'free';index" json:"plan" validate:"oneof=free pro enterprise"`
	AttemptsRemaining  int            `gorm:"default:5" json:"attempts_remaining"`
	LastUsedDate       string         `gorm:"type:varchar(40);default:''" json:"-"`
	StripeCustomerID   string         `gorm:"type:varchar(191);default:''" json:"-"`
	SubscriptionID     string         `gorm:"type:varchar(191);default:''" json:"-"`
	SubscriptionStatus string         `gorm:"type:varchar(32);default:''" json:"-"`
	SubscriptionDate   *time.Time     `gorm:"type:timestamp;default:null" json:"subscription_date,omitempty"`
	Role               string         `gorm:"type:varchar(50);default:'user'" json:"role" validate:"oneof=user admin"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

func CreateUser(username string, email string, password string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:              username,
		Email:             email,
		Password:          pw,
		Plan:              string(entitlements.PlanFree),
		AttemptsRemaining: entitlements.FreeDailyAttempts,
		LastUsedDate:      time.Now().Format(DateKeyLayout),
		Role:              ROLE_USER,
	}

	err = u.Validate()
	if err != nil {
		return nil, err
	}

	return u, nil
}

// DateKeyLayout is the day granularity used for the lazy daily attempt reset.
const DateKeyLayout = "2006-01-02"

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.Password)
}

// SetPassword hashes and sets a new password for the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword
	return nil
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == ROLE_ADMIN
}

// CanConsumeAttempt reports whether the user may spend one transcript or chat
// attempt under their current plan.
func (u *User) CanConsumeAttempt() bool {
	return entitlements.CanConsume(entitlements.Plan(u.Plan), u.AttemptsRemaining)
}

// ConsumeAttempt decrements the attempts counter for metered plans. Enterprise
// accounts are unmetered and keep their sentinel value untouched.
func (u *User) ConsumeAttempt() {
	if !entitlements.Consumes(entitlements.Plan(u.Plan)) {
		return
	}
	if u.AttemptsRemaining > 0 {
		u.AttemptsRemaining--
	}
}

// ApplyDailyReset refreshes the attempts counter when a new day starts.
// Free accounts get their daily quota back, pro accounts their period quota.
// Plan is never changed here; only the reconciler mutates plan and counter
// together.
func (u *User) ApplyDailyReset(now time.Time) bool {
	today := now.Format(DateKeyLayout)
	if u.LastUsedDate == today {
		return false
	}
	u.LastUsedDate = today
	switch entitlements.Normalize(u.Plan) {
	case entitlements.PlanFree:
		u.AttemptsRemaining = entitlements.FreeDailyAttempts
	case entitlements.PlanPro:
		u.AttemptsRemaining = entitlements.ProAttempts
	}
	return true
}
