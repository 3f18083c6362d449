package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"appointment-queue-backend/internal/model"
	"appointment-queue-backend/internal/store"
)

// Notifier is told about appointments that left the waiting queue. Implemented
// by the push notification worker pool.
type Notifier interface {
	AssignedFromQueue(appt model.Appointment)
}

// Engine owns every write to an appointment's staff assignment. All operations
// are serialized through a single mutex and each check-then-write runs inside
// a database transaction, so two concurrent requests cannot both claim the
// last slot of a staff member's day.
type Engine struct {
	mu       sync.Mutex
	store    store.Store
	loc      *time.Location
	notifier Notifier
}

// New creates an assignment engine. Calendar days are resolved in loc.
func New(s store.Store, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{store: s, loc: loc}
}

// SetNotifier wires the queue-assignment notifier. Optional.
func (e *Engine) SetNotifier(n Notifier) {
	e.notifier = n
}

// Location returns the timezone used for calendar-day boundaries.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// BookingRequest describes a new appointment. An empty StaffID selects
// auto-assignment; a non-empty one is a manual pick that must pass
// eligibility and capacity checks.
type BookingRequest struct {
	CustomerName  string
	ServiceID     string
	AppointmentAt time.Time
	StaffID       string
}

// Placement is the outcome of a staff pick: assigned to a concrete staff
// member, or queued. Callers must branch on Staff's second return value, so
// the queued case cannot be ignored.
type Placement struct {
	staff *model.Staff
}

func assignedTo(st model.Staff) Placement { return Placement{staff: &st} }

func queuedPlacement() Placement { return Placement{} }

// Staff returns the picked staff member, or ok=false when the placement is
// the waiting queue.
func (p Placement) Staff() (model.Staff, bool) {
	if p.staff == nil {
		return model.Staff{}, false
	}
	return *p.staff, true
}

// Book creates an appointment. The manual path fails without creating
// anything when the requested staff member cannot take the slot; the auto
// path never fails on unavailability, it degrades to the waiting queue.
func (e *Engine) Book(ctx context.Context, req BookingRequest) (model.Appointment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var created model.Appointment
	err := e.store.Transaction(ctx, func(tx store.Store) error {
		svc, err := tx.GetService(ctx, req.ServiceID)
		if err != nil {
			return err
		}

		var pl Placement
		if req.StaffID != "" {
			st, err := e.checkStaffFits(ctx, tx, req.StaffID, svc.RequiredStaffType, req.AppointmentAt, "")
			if err != nil {
				return err
			}
			pl = assignedTo(st)
		} else {
			pl, err = e.pickStaff(ctx, tx, svc.RequiredStaffType, req.AppointmentAt, "")
			if err != nil {
				return err
			}
		}

		appt := model.Appointment{
			ID:            uuid.NewString(),
			CustomerName:  req.CustomerName,
			ServiceID:     svc.ID,
			AppointmentAt: req.AppointmentAt,
			Status:        model.AppointmentScheduled,
		}
		if st, ok := pl.Staff(); ok {
			staffID := st.ID
			appt.StaffID = &staffID
		}

		if err := tx.CreateAppointment(ctx, &appt); err != nil {
			return err
		}
		if err := e.verifyCapacity(ctx, tx, &appt); err != nil {
			return err
		}
		created = appt
		return nil
	})
	if err != nil {
		return model.Appointment{}, err
	}

	full, err := e.store.GetAppointment(ctx, created.ID)
	if err != nil {
		return model.Appointment{}, err
	}
	if full.Staff != nil {
		e.logActivity(ctx, "Appointment for %s assigned to %s", full.CustomerName, full.Staff.Name)
	} else {
		e.logActivity(ctx, "Appointment for %s added to the waiting queue", full.CustomerName)
	}
	return full, nil
}

// Reassign moves an appointment to another staff member, or back to the queue
// when staffID is nil. The appointment's own slot is excluded from the
// capacity count, so moving within the same staff member never trips a false
// "at capacity".
func (e *Engine) Reassign(ctx context.Context, apptID string, staffID *string) (model.Appointment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out model.Appointment
	err := e.store.Transaction(ctx, func(tx store.Store) error {
		appt, err := tx.GetAppointment(ctx, apptID)
		if err != nil {
			return err
		}

		if staffID == nil {
			out, err = tx.UpdateAppointment(ctx, apptID, map[string]any{"staff_id": nil})
			return err
		}

		svc, err := tx.GetService(ctx, appt.ServiceID)
		if err != nil {
			return err
		}
		st, err := e.checkStaffFits(ctx, tx, *staffID, svc.RequiredStaffType, appt.AppointmentAt, appt.ID)
		if err != nil {
			return err
		}
		out, err = tx.UpdateAppointment(ctx, apptID, map[string]any{"staff_id": st.ID})
		if err != nil {
			return err
		}
		return e.verifyCapacity(ctx, tx, &out)
	})
	if err != nil {
		return model.Appointment{}, err
	}

	if out.Staff != nil {
		e.logActivity(ctx, "Appointment for %s reassigned to %s", out.CustomerName, out.Staff.Name)
	} else {
		e.logActivity(ctx, "Appointment for %s moved back to the waiting queue", out.CustomerName)
	}
	return out, nil
}

// AppointmentPatch is a partial admin edit. Nil fields are untouched.
// ClearStaff sends the appointment back to the waiting queue.
type AppointmentPatch struct {
	CustomerName  *string
	ServiceID     *string
	AppointmentAt *time.Time
	Status        *model.AppointmentStatus
	StaffID       *string
	ClearStaff    bool
}

// Update applies an admin edit. Edits that change the service or the day of
// an assigned appointment re-run the same eligibility and capacity checks as
// a reassignment, against the staff member that would end up holding it.
func (e *Engine) Update(ctx context.Context, apptID string, patch AppointmentPatch) (model.Appointment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out model.Appointment
	err := e.store.Transaction(ctx, func(tx store.Store) error {
		appt, err := tx.GetAppointment(ctx, apptID)
		if err != nil {
			return err
		}

		fields := make(map[string]any)

		svc := appt.Service
		serviceChanged := patch.ServiceID != nil && *patch.ServiceID != appt.ServiceID
		if serviceChanged {
			svc, err = tx.GetService(ctx, *patch.ServiceID)
			if err != nil {
				return err
			}
			fields["service_id"] = svc.ID
		}

		at := appt.AppointmentAt
		timeChanged := patch.AppointmentAt != nil && !patch.AppointmentAt.Equal(appt.AppointmentAt)
		if timeChanged {
			at = *patch.AppointmentAt
			fields["appointment_at"] = at
		}

		status := appt.Status
		if patch.Status != nil {
			status = *patch.Status
			fields["status"] = status
		}

		if patch.CustomerName != nil {
			fields["customer_name"] = *patch.CustomerName
		}

		switch {
		case patch.ClearStaff:
			fields["staff_id"] = nil
		case patch.StaffID != nil:
			st, err := e.checkStaffFits(ctx, tx, *patch.StaffID, svc.RequiredStaffType, at, appt.ID)
			if err != nil {
				return err
			}
			fields["staff_id"] = st.ID
		case appt.StaffID != nil && status == model.AppointmentScheduled && (serviceChanged || timeChanged):
			if _, err := e.checkStaffFits(ctx, tx, *appt.StaffID, svc.RequiredStaffType, at, appt.ID); err != nil {
				return err
			}
		}

		out, err = tx.UpdateAppointment(ctx, apptID, fields)
		if err != nil {
			return err
		}
		return e.verifyCapacity(ctx, tx, &out)
	})
	if err != nil {
		return model.Appointment{}, err
	}
	return out, nil
}

// QueueResult summarizes one ProcessQueue pass.
type QueueResult struct {
	Processed int `json:"processed"`
	Assigned  int `json:"assigned"`
	Skipped   int `json:"skipped"`
}

// ProcessQueue walks the waiting queue earliest-appointmentAt-first and
// auto-assigns whatever fits, committing each assignment before evaluating
// the next so capacity consumed by one is visible to the rest of the pass.
// Items that still fit nowhere stay queued and count as skipped; a pass over
// an unchanged queue assigns nothing the second time around.
func (e *Engine) ProcessQueue(ctx context.Context) (QueueResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	queue, err := e.store.ListWaitingQueue(ctx)
	if err != nil {
		return QueueResult{}, err
	}

	res := QueueResult{Processed: len(queue)}
	var notify []string
	for _, item := range queue {
		assigned := false
		err := e.store.Transaction(ctx, func(tx store.Store) error {
			svc, err := tx.GetService(ctx, item.ServiceID)
			if err != nil {
				return err
			}
			pl, err := e.pickStaff(ctx, tx, svc.RequiredStaffType, item.AppointmentAt, item.ID)
			if err != nil {
				return err
			}
			st, ok := pl.Staff()
			if !ok {
				return nil
			}
			updated, err := tx.UpdateAppointment(ctx, item.ID, map[string]any{"staff_id": st.ID})
			if err != nil {
				return err
			}
			if err := e.verifyCapacity(ctx, tx, &updated); err != nil {
				return err
			}
			assigned = true
			return nil
		})
		if err != nil {
			// The item stays queued for the next run.
			log.Printf("queue item %s skipped: %v", item.ID, err)
			res.Skipped++
			continue
		}
		if assigned {
			res.Assigned++
			notify = append(notify, item.ID)
		} else {
			res.Skipped++
		}
	}

	if res.Processed > 0 {
		e.logActivity(ctx, "Waiting queue processed: %d assigned, %d still waiting", res.Assigned, res.Skipped)
	}
	for _, id := range notify {
		if appt, err := e.store.GetAppointment(ctx, id); err == nil && e.notifier != nil {
			e.notifier.AssignedFromQueue(appt)
		}
	}
	return res, nil
}

// StaffLoad returns the number of SCHEDULED appointments held by staffID on
// the calendar day containing day.
func (e *Engine) StaffLoad(ctx context.Context, staffID string, day time.Time) (int64, error) {
	from, to := DayWindow(day, e.loc)
	return e.store.CountScheduled(ctx, staffID, from, to, "")
}

// checkStaffFits validates an explicit staff pick: the member must exist, be
// AVAILABLE, match the required service type and have a free slot on the
// appointment's calendar day. excludeID leaves the appointment being moved
// out of the capacity count.
func (e *Engine) checkStaffFits(ctx context.Context, tx store.Store, staffID string, required model.StaffType, at time.Time, excludeID string) (model.Staff, error) {
	st, err := tx.GetStaff(ctx, staffID)
	if err != nil {
		return model.Staff{}, err
	}
	if st.Status != model.StaffAvailable {
		return model.Staff{}, &AssignmentError{Kind: StaffUnavailable, StaffID: staffID}
	}
	if st.ServiceType != required {
		return model.Staff{}, &AssignmentError{Kind: TypeMismatch, StaffID: staffID}
	}

	from, to := DayWindow(at, e.loc)
	load, err := tx.CountScheduled(ctx, st.ID, from, to, excludeID)
	if err != nil {
		return model.Staff{}, err
	}
	if load >= int64(st.DailyCapacity) {
		return model.Staff{}, &AssignmentError{Kind: StaffAtCapacity, StaffID: staffID}
	}
	return st, nil
}

// pickStaff selects an eligible staff member with a free slot on the
// appointment's day. Tie-break: lowest same-day load first, then lowest staff
// id, so repeated runs over the same state pick the same member.
func (e *Engine) pickStaff(ctx context.Context, tx store.Store, required model.StaffType, at time.Time, excludeID string) (Placement, error) {
	staff, err := tx.ListStaff(ctx)
	if err != nil {
		return Placement{}, err
	}

	from, to := DayWindow(at, e.loc)
	var best *model.Staff
	var bestLoad int64
	for i := range staff {
		st := &staff[i]
		if st.ServiceType != required || st.Status != model.StaffAvailable {
			continue
		}
		load, err := tx.CountScheduled(ctx, st.ID, from, to, excludeID)
		if err != nil {
			return Placement{}, err
		}
		if load >= int64(st.DailyCapacity) {
			continue
		}
		if best == nil || load < bestLoad || (load == bestLoad && st.ID < best.ID) {
			best = st
			bestLoad = load
		}
	}

	if best == nil {
		return queuedPlacement(), nil
	}
	return assignedTo(*best), nil
}

// verifyCapacity re-counts after the write and fails the transaction if the
// staff member's day overflowed.
func (e *Engine) verifyCapacity(ctx context.Context, tx store.Store, appt *model.Appointment) error {
	if appt.StaffID == nil || appt.Status != model.AppointmentScheduled {
		return nil
	}
	st, err := tx.GetStaff(ctx, *appt.StaffID)
	if err != nil {
		return err
	}
	from, to := DayWindow(appt.AppointmentAt, e.loc)
	load, err := tx.CountScheduled(ctx, st.ID, from, to, "")
	if err != nil {
		return err
	}
	if load > int64(st.DailyCapacity) {
		return ErrCapacityConflict
	}
	return nil
}

func (e *Engine) logActivity(ctx context.Context, format string, args ...any) {
	if err := e.store.RecordActivity(ctx, fmt.Sprintf(format, args...)); err != nil {
		log.Printf("failed to record activity: %v", err)
	}
}
