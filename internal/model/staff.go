package model

import "time"

// StaffType identifies which kind of service a staff member can deliver.
type StaffType string

const (
	StaffTypeDoctor       StaffType = "DOCTOR"
	StaffTypeConsultant   StaffType = "CONSULTANT"
	StaffTypeSupportAgent StaffType = "SUPPORT_AGENT"
)

// Valid reports whether t is one of the recognized staff types.
func (t StaffType) Valid() bool {
	switch t {
	case StaffTypeDoctor, StaffTypeConsultant, StaffTypeSupportAgent:
		return true
	}
	return false
}

// StaffStatus is the availability state of a staff member.
type StaffStatus string

const (
	StaffAvailable StaffStatus = "AVAILABLE"
	StaffOnLeave   StaffStatus = "ON_LEAVE"
)

// Valid reports whether s is a recognized staff status.
func (s StaffStatus) Valid() bool {
	return s == StaffAvailable || s == StaffOnLeave
}

// Staff represents a bookable staff member. DailyCapacity is the ceiling on
// SCHEDULED appointments assigned to this member for any single calendar day.
type Staff struct {
	ID            string      `gorm:"primaryKey;size:36" json:"id"`
	Name          string      `gorm:"size:128;not null" json:"name"`
	ServiceType   StaffType   `gorm:"size:32;not null;index" json:"serviceType"`
	DailyCapacity int         `gorm:"not null" json:"dailyCapacity"`
	Status        StaffStatus `gorm:"size:32;not null" json:"status"`
	CreatedAt     time.Time   `gorm:"not null" json:"createdAt"`
	UpdatedAt     time.Time   `gorm:"not null" json:"updatedAt"`
}
