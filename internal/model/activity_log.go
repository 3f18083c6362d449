package model

import "time"

// ActivityLog is a human-readable record of something the system did, shown on
// the admin dashboard.
type ActivityLog struct {
	ID        int64     `gorm:"autoIncrement;primaryKey" json:"id"`
	Message   string    `gorm:"size:512;not null" json:"message"`
	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
}
