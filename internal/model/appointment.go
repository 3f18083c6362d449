package model

import "time"

// AppointmentStatus is the lifecycle state of an appointment. SCHEDULED is the
// only non-terminal state; the other three are terminal and interchangeable.
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "SCHEDULED"
	AppointmentCompleted AppointmentStatus = "COMPLETED"
	AppointmentCancelled AppointmentStatus = "CANCELLED"
	AppointmentNoShow    AppointmentStatus = "NO_SHOW"
)

// Valid reports whether s is a recognized appointment status.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentScheduled, AppointmentCompleted, AppointmentCancelled, AppointmentNoShow:
		return true
	}
	return false
}

// Appointment is a booking request for a customer. StaffID is nil while the
// appointment sits in the waiting queue.
type Appointment struct {
	ID            string            `gorm:"primaryKey;size:36" json:"id"`
	CustomerName  string            `gorm:"size:128;not null" json:"customerName"`
	ServiceID     string            `gorm:"size:36;not null;index" json:"serviceId"`
	StaffID       *string           `gorm:"size:36;index:idx_appointments_staff_day,priority:1" json:"staffId"`
	AppointmentAt time.Time         `gorm:"not null;index:idx_appointments_staff_day,priority:2" json:"appointmentAt"`
	Status        AppointmentStatus `gorm:"size:16;not null;index" json:"status"`
	CreatedAt     time.Time         `gorm:"not null" json:"createdAt"`
	UpdatedAt     time.Time         `gorm:"not null" json:"updatedAt"`

	// Associations
	Service Service `gorm:"foreignKey:ServiceID" json:"service"`
	Staff   *Staff  `gorm:"foreignKey:StaffID" json:"staff,omitempty"`
}

// Queued reports whether the appointment is waiting for a staff assignment.
func (a *Appointment) Queued() bool {
	return a.StaffID == nil && a.Status == AppointmentScheduled
}
