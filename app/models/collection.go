package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// TranscriptItem is a single caption line with optional timing.
type TranscriptItem struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

// TranscriptItems is stored as a JSON column.
type TranscriptItems []TranscriptItem

func (t TranscriptItems) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (t *TranscriptItems) Scan(value interface{}) error {
	if value == nil {
		*t = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	default:
		return errors.New("unsupported transcript column type")
	}
}

// Collection is one fetched transcript a user can chat about.
type Collection struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UUID       string          `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	UserID     uint            `gorm:"not null;index" json:"user_id"`
	YoutubeURL string          `gorm:"type:varchar(500);not null" json:"youtube_url"`
	VideoID    string          `gorm:"type:varchar(32);default:'';index" json:"video_id"`
	Title      string          `gorm:"type:varchar(255);default:''" json:"title"`
	Transcript TranscriptItems `gorm:"type:longtext" json:"transcript"`
	CreatedAt  time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
