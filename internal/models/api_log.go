package models

import "time"

// APILog records one developer API call made with an API key.
type APILog struct {
	ID         uint   `gorm:"primarykey"`
	UserID     uint   `gorm:"index"`
	Method     string `gorm:"type:varchar(8)"`
	Path       string
	Status     int
	DurationMs int64
	IP         string
	RequestID  string
	CreatedAt  time.Time
}

func (APILog) TableName() string {
	return "api_logs"
}
