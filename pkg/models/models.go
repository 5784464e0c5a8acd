package models

import "time"

type AlertType string

const (
	AlertTypeAlert AlertType = "alert"
)

// DailyUsage is the per-user, per-local-day usage counter.
type DailyUsage struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	UserID      string    `gorm:"not null;uniqueIndex:idx_daily_usage_user_date" json:"user_id"`
	Date        string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_daily_usage_user_date" json:"date"`
	Liters      float64   `gorm:"not null;default:0" json:"liters"`
	LastUpdated time.Time `json:"last_updated"`
}

// AlertHistory is an append-only record of a fired contamination alert.
type AlertHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"index;not null" json:"user_id"`
	Message   string    `json:"message"`
	Type      AlertType `gorm:"type:varchar(20);check:type IN ('alert')" json:"type"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
