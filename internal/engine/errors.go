package engine

import (
	"errors"
	"fmt"
)

// AssignmentErrorKind classifies why a manual staff selection was rejected.
type AssignmentErrorKind string

const (
	StaffUnavailable AssignmentErrorKind = "STAFF_UNAVAILABLE"
	StaffAtCapacity  AssignmentErrorKind = "STAFF_AT_CAPACITY"
	TypeMismatch     AssignmentErrorKind = "TYPE_MISMATCH"
)

// AssignmentError is returned when an explicitly requested staff member cannot
// take the appointment. Auto-assignment never produces one; unassignable
// requests go to the waiting queue instead.
type AssignmentError struct {
	Kind    AssignmentErrorKind
	StaffID string
}

func (e *AssignmentError) Error() string {
	switch e.Kind {
	case StaffUnavailable:
		return fmt.Sprintf("staff %s is not available", e.StaffID)
	case StaffAtCapacity:
		return fmt.Sprintf("staff %s is at full capacity for that day", e.StaffID)
	case TypeMismatch:
		return fmt.Sprintf("staff %s cannot deliver this service type", e.StaffID)
	}
	return fmt.Sprintf("staff %s cannot take this appointment", e.StaffID)
}

// ErrCapacityConflict is returned when a capacity re-check inside the write
// transaction finds the slot already taken. With a single engine instance the
// mutex prevents this; it guards multi-process deployments.
var ErrCapacityConflict = errors.New("staff capacity exceeded by concurrent assignment")
