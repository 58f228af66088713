package models

import "time"

const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

// Message is one chat turn within a collection.
type Message struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CollectionID uint      `gorm:"not null;index" json:"collection_id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	Role         string    `gorm:"type:varchar(20);not null" json:"role"`
	Content      string    `gorm:"type:longtext;not null" json:"content"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
