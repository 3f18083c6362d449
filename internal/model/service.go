package model

import "time"

// ServiceDuration is the fixed length of a service offering.
type ServiceDuration string

const (
	Duration15 ServiceDuration = "MIN_15"
	Duration30 ServiceDuration = "MIN_30"
	Duration60 ServiceDuration = "MIN_60"
)

// Valid reports whether d is a recognized duration.
func (d ServiceDuration) Valid() bool {
	switch d {
	case Duration15, Duration30, Duration60:
		return true
	}
	return false
}

// Service is reference data mapping an offering to the staff type that can
// deliver it.
type Service struct {
	ID                string          `gorm:"primaryKey;size:36" json:"id"`
	Name              string          `gorm:"size:128;not null" json:"name"`
	Duration          ServiceDuration `gorm:"size:16;not null" json:"duration"`
	RequiredStaffType StaffType       `gorm:"size:32;not null" json:"requiredStaffType"`
	CreatedAt         time.Time       `gorm:"not null" json:"createdAt"`
	UpdatedAt         time.Time       `gorm:"not null" json:"updatedAt"`
}
