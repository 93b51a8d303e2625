package models

import (
	"time"
)

// SearchLog is an append-only, best-effort record of executed searches.
// Failed writes are discarded; rows past the retention window are archived
// to S3 and pruned by the cron job.
type SearchLog struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	Query       string `json:"query" gorm:"not null"`
	UserID      *uint  `json:"user_id,omitempty" gorm:"index"`
	ResultCount int    `json:"result_count"`
}

// TableName sets the explicit table name.
func (SearchLog) TableName() string {
	return "search_logs"
}
