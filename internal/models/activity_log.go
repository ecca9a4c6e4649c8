package models

import "time"

// ActivityStatus is the outcome recorded for a connect attempt
type ActivityStatus string

const (
	ActivitySuccess ActivityStatus = "SUCCESS"
	ActivityError   ActivityStatus = "ERROR"
)

// ActivityLog is one append-only connect/error event
type ActivityLog struct {
	ID       int64          `gorm:"primaryKey;autoIncrement"       json:"id"`
	Provider string         `gorm:"type:varchar(64);index;not null" json:"provider"`
	Status   ActivityStatus `gorm:"type:varchar(16);not null"       json:"status"`
	Message  string         `gorm:"type:text"                       json:"message"`

	// No UpdatedAt - entries are immutable
	CreatedAt time.Time `gorm:"index;not null" json:"created_at"`
}

// TableName specifies the table name for GORM
func (ActivityLog) TableName() string {
	return "oauth_logs"
}
