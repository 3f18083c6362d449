package store

import (
	"context"
	"fmt"
	"time"

	"appointment-queue-backend/internal/model"
)

func (s *gormStore) GetAppointment(ctx context.Context, id string) (model.Appointment, error) {
	var appt model.Appointment
	err := s.db.WithContext(ctx).
		Preload("Service").
		Preload("Staff").
		First(&appt, "id = ?", id).Error
	if err != nil {
		return model.Appointment{}, notFound(err)
	}
	return appt, nil
}

func (s *gormStore) ListAppointments(ctx context.Context, f AppointmentFilter) ([]model.Appointment, error) {
	q := s.db.WithContext(ctx).
		Preload("Service").
		Preload("Staff").
		Order("appointment_at asc")

	if !f.From.IsZero() {
		q = q.Where("appointment_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("appointment_at < ?", f.To)
	}
	if f.StaffID != "" {
		q = q.Where("staff_id = ?", f.StaffID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var appts []model.Appointment
	if err := q.Find(&appts).Error; err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appts, nil
}

// ListWaitingQueue returns unassigned SCHEDULED appointments, earliest
// appointmentAt first. The queue is FIFO by scheduled time, not creation time.
func (s *gormStore) ListWaitingQueue(ctx context.Context) ([]model.Appointment, error) {
	var appts []model.Appointment
	err := s.db.WithContext(ctx).
		Preload("Service").
		Where("staff_id IS NULL AND status = ?", model.AppointmentScheduled).
		Order("appointment_at asc").
		Find(&appts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list waiting queue: %w", err)
	}
	return appts, nil
}

func (s *gormStore) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	if err := s.db.WithContext(ctx).Omit("Service", "Staff").Create(a).Error; err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (s *gormStore) UpdateAppointment(ctx context.Context, id string, fields map[string]any) (model.Appointment, error) {
	if len(fields) > 0 {
		res := s.db.WithContext(ctx).Model(&model.Appointment{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return model.Appointment{}, fmt.Errorf("failed to update appointment %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return model.Appointment{}, ErrNotFound
		}
	}
	return s.GetAppointment(ctx, id)
}

func (s *gormStore) DeleteAppointment(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&model.Appointment{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete appointment %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) CountScheduled(ctx context.Context, staffID string, from, to time.Time, excludeID string) (int64, error) {
	q := s.db.WithContext(ctx).Model(&model.Appointment{}).
		Where("staff_id = ? AND status = ? AND appointment_at >= ? AND appointment_at < ?",
			staffID, model.AppointmentScheduled, from, to)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count scheduled appointments for staff %s: %w", staffID, err)
	}
	return n, nil
}

func (s *gormStore) RequeueStaffAppointments(ctx context.Context, staffID string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&model.Appointment{}).
		Where("staff_id = ? AND status = ?", staffID, model.AppointmentScheduled).
		Update("staff_id", nil)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to requeue appointments for staff %s: %w", staffID, res.Error)
	}
	return res.RowsAffected, nil
}

func (s *gormStore) RecordActivity(ctx context.Context, message string) error {
	entry := model.ActivityLog{Message: message}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

func (s *gormStore) ListActivity(ctx context.Context, limit int) ([]model.ActivityLog, error) {
	q := s.db.WithContext(ctx).Order("created_at desc, id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var logs []model.ActivityLog
	if err := q.Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to list activity log: %w", err)
	}
	return logs, nil
}
