package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"appointment-queue-backend/internal/model"
)

// ErrNotFound is returned when a record with the requested id does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines the interface for all database operations.
type Store interface {
	// DB exposes the underlying connection for components that manage their
	// own queries (notification worker).
	DB() *gorm.DB

	// Transaction runs fn against a transactional copy of the store. A
	// non-nil error from fn rolls the transaction back.
	Transaction(ctx context.Context, fn func(Store) error) error

	ListStaff(ctx context.Context) ([]model.Staff, error)
	GetStaff(ctx context.Context, id string) (model.Staff, error)
	CreateStaff(ctx context.Context, s *model.Staff) error
	UpdateStaff(ctx context.Context, id string, patch StaffPatch) (model.Staff, error)
	DeleteStaff(ctx context.Context, id string) error

	ListServices(ctx context.Context) ([]model.Service, error)
	GetService(ctx context.Context, id string) (model.Service, error)
	CreateService(ctx context.Context, s *model.Service) error
	UpdateService(ctx context.Context, id string, patch ServicePatch) (model.Service, error)
	DeleteService(ctx context.Context, id string) error

	GetAppointment(ctx context.Context, id string) (model.Appointment, error)
	ListAppointments(ctx context.Context, f AppointmentFilter) ([]model.Appointment, error)
	ListWaitingQueue(ctx context.Context) ([]model.Appointment, error)
	CreateAppointment(ctx context.Context, a *model.Appointment) error
	UpdateAppointment(ctx context.Context, id string, fields map[string]any) (model.Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error

	// CountScheduled counts SCHEDULED appointments assigned to staffID with
	// appointmentAt in [from, to). excludeID, when non-empty, leaves that
	// appointment out of the count so an appointment being moved does not
	// occupy its own slot. This is the single capacity counter shared by the
	// assignment engine and the dashboard aggregator.
	CountScheduled(ctx context.Context, staffID string, from, to time.Time, excludeID string) (int64, error)

	// RequeueStaffAppointments clears the staff assignment from every
	// SCHEDULED appointment held by staffID, returning how many were requeued.
	RequeueStaffAppointments(ctx context.Context, staffID string) (int64, error)

	RecordActivity(ctx context.Context, message string) error
	ListActivity(ctx context.Context, limit int) ([]model.ActivityLog, error)
}

// StaffPatch is a partial update to a staff record. Nil fields are untouched.
type StaffPatch struct {
	Name          *string
	ServiceType   *model.StaffType
	DailyCapacity *int
	Status        *model.StaffStatus
}

// ServicePatch is a partial update to a service record. Nil fields are untouched.
type ServicePatch struct {
	Name              *string
	Duration          *model.ServiceDuration
	RequiredStaffType *model.StaffType
}

// AppointmentFilter narrows ListAppointments. Zero values mean "no filter".
type AppointmentFilter struct {
	From    time.Time
	To      time.Time
	StaffID string
	Status  model.AppointmentStatus
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) Transaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// notFound maps gorm's sentinel onto the store-level one.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
