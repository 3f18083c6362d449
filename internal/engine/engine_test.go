package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"appointment-queue-backend/internal/db"
	"appointment-queue-backend/internal/model"
	"appointment-queue-backend/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, store.Store) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))

	s := store.NewGormStore(gormDB)
	return New(s, time.UTC), s
}

func seedStaff(t *testing.T, s store.Store, id, name string, typ model.StaffType, capacity int, status model.StaffStatus) model.Staff {
	t.Helper()
	st := model.Staff{ID: id, Name: name, ServiceType: typ, DailyCapacity: capacity, Status: status}
	require.NoError(t, s.CreateStaff(context.Background(), &st))
	return st
}

func seedService(t *testing.T, s store.Store, id, name string, typ model.StaffType) model.Service {
	t.Helper()
	svc := model.Service{ID: id, Name: name, Duration: model.Duration30, RequiredStaffType: typ}
	require.NoError(t, s.CreateService(context.Background(), &svc))
	return svc
}

// 10:00 on an arbitrary fixed day; capacity scenarios hang off this day.
var day = time.Date(2026, 9, 10, 10, 0, 0, 0, time.UTC)

func TestBookAutoAssignQueuesWhenDayIsFull(t *testing.T) {
	eng, s := newTestEngine(t)
	ctx := context.Background()

	seedStaff(t, s, "staff-a", "Dr. Adams", model.StaffTypeDoctor, 1, model.StaffAvailable)
	svc := seedService(t, s, "svc-checkup", "Checkup", model.StaffTypeDoctor)

	first, err := eng.Book(ctx, BookingRequest{CustomerName: "Alice", ServiceID: svc.ID, AppointmentAt: day})
	require.NoError(t, err)
	require.NotNil(t, first.StaffID)
	assert.Equal(t, "staff-a", *first.StaffID)

	// The doctor's day is full now, so the next booking lands in the queue.
	second, err := eng.Book(ctx, BookingRequest{CustomerName: "Bob", ServiceID: svc.ID, AppointmentAt: day.Add(time.Hour)})
	require.NoError(t, err)
	assert.Nil(t, second.StaffID)
	assert.True(t, second.Queued())

	// With capacity 2 the same booking would have been assigned.
	capacity := 2
	_, err = eng.UpdateStaff(ctx, "staff-a", store.StaffPatch{DailyCapacity: &capacity})
	require.NoError(t, err)

	third, err := eng.Book(ctx, BookingRequest{CustomerName: "Carol", ServiceID: svc.ID, AppointmentAt: day.Add(2 * time.Hour)})
	require.NoError(t, err)
	require.NotNil(t, third.StaffID)
	assert.Equal(t, "staff-a", *third.StaffID)
}

func TestBookAutoAssignUsesOtherDayCapacity(t *testing.T) {
	eng, s := newTestEngine(t)
	ctx := context.Background()

	seedStaff(t, s, "staff-a", "Dr. Adams", model.StaffTypeDoctor, 1, model.StaffAvailable)
	svc := seedService(t, s, "svc-checkup", "Checkup", model.StaffTypeDoctor)

	_, err := eng.Book(ctx, BookingRequest{CustomerName: "Alice", ServiceID: svc.ID, AppointmentAt: day})
	require.NoError(t, err)

	// Capacity is per calendar day; tomorrow is wide open.
	tomorrow, err := eng.Book(ctx, BookingRequest{CustomerName: "Bob", ServiceID: svc.ID, AppointmentAt: day.AddDate(0, 0, 1)})
	require.NoError(t, err)
	require.NotNil(t, tomorrow.StaffID)
	assert.Equal(t, "staff-a", *tomorrow.StaffID)
}

func TestBookAutoAssignTieBreak(t *testing.T) {
	eng, s := newTestEngine(t)
	ctx := context.Background()

	seedStaff(t, s, "staff-b", "Dr. Brown", model.StaffTypeDoctor, 3, model.StaffAvailable)
	seedStaff(t, s, "staff-a", "Dr. Adams", model.StaffTypeDoctor, 3, model.StaffAvailable)
	svc := seedService(t, s, "svc-checkup", "Checkup", model.StaffTypeDoctor)

	// Equal load: lowest staff id wins.
	first, err := eng.Book(ctx, BookingRequest{CustomerName: "Alice", ServiceID: svc.ID, AppointmentAt: day})
	require.NoError(t, err)
	require.NotNil(t, first.StaffID)
	assert.Equal(t, "staff-a", *first.StaffID)

	// staff-a now carries one appointment, so the lighter staff-b wins.
	second, err := eng.Book(ctx, BookingRequest{CustomerName: "Bob", ServiceID: svc.ID, AppointmentAt: day.Add(time.Hour)})
	require.NoError(t, err)
	require.NotNil(t, second.StaffID)
	assert.Equal(t, "staff-b", *second.StaffID)
}

func TestBookAutoAssignNeverErrors(t *testing.T) {
	eng, s := newTestEngine(t)
	ctx := context.Background()

	svc := seedService(t, s, "svc-checkup", "Checkup", model.StaffTypeDoctor)
	seedStaff(t, s, "staff-x", "Sam", model.StaffTypeSupportAgent, 5, model.StaffAvailable)
	seedStaff(t, s, "staff-y", "Dr. Young", model.StaffTypeDoctor, 5, model.StaffOnLeave)

	// No eligible staff at all: still a successful creation, just queued.
	appt, err := eng.Book(ctx, BookingRequest{CustomerName: "Alice", ServiceID: svc.ID, AppointmentAt: day})
	require.NoError(t, err)
	assert.True(t, appt.Queued())
}

func TestBookManualRejectsWithoutCreating(t *testing.T) {
	eng, s := newTestEngine(t)
	ctx := context.Background()

	seedStaff(t, s, "staff-a", "Dr. Adams", model.StaffTypeDoctor, 1, model.StaffAvailable)
	seedStaff(t, s, "staff-b", "Connie", model.StaffTypeConsultant, 5, model.StaffAvailable)
	seedStaff(t, s, "staff-c", "Dr. Carter", model.StaffTypeDoctor, 5, model.StaffOnLeave)
	svc := seedService(t, s, "svc-checkup", "Checkup", model.StaffTypeDoctor)

	_, err := eng.Book(ctx, BookingRequest{CustomerName: "Alice", ServiceID: svc.ID, AppointmentAt: day, StaffID: "staff-a"})
	require.NoError(t, err)

	cases := []struct {
		name    string
		staffID string
		kind    AssignmentErrorKind
	}{
		{"at capacity", "staff-a", StaffAtCapacity},
		{"type mismatch", "staff-b", TypeMismatch},
		{"on leave", "staff-c", StaffUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := eng.Book(ctx, BookingRequest{CustomerName: "Bob", ServiceID: svc.ID, AppointmentAt: day.Add(time.Hour), StaffID: tc.staffID})
			var assignErr *AssignmentError
			require.ErrorAs(t, err, &assignErr)
			assert.Equal(t, tc.kind, assignErr.Kind)
		})
	}

	// Unknown staff surfaces as not-found, and nothing extra was created.
	_, err = eng.Book(ctx, BookingRequest{CustomerName: "Bob", ServiceID: svc.ID, AppointmentAt: day, StaffID: "staff-nope"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	appts, err := s.ListAppointments(ctx, store.AppointmentFilter{})
	require.NoError(t, err)
	assert.Len(t, appts, 1)
}

func TestProcessQueueAssignsEarliestFirst(t *testing.T) {
	eng, s := newTestEngine(t)
	ctx := context.Background()

	svc := seedService(t, s, "svc-checkup", "Checkup", model.StaffTypeDoctor)

	// No doctors yet: both bookings queue up. The later-created one has the
	// earlier appointment time, so it must win the single free slot.
	later, err := eng.Book(ctx, BookingRequest{CustomerName: "Alice", ServiceID: svc.ID, AppointmentAt: day.Add(3 * time.Hour)})
	require.NoError(t, err)
	earlier, err := eng.Book(ctx, BookingRequest{CustomerName: "Bob", ServiceID: svc.ID, AppointmentAt: day})
	require.NoError(t, err)

	seedStaff(t, s, "staff-a", "Dr. Adams", model.StaffTypeDoctor, 1, model.StaffAvailable)

	res, err := eng.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, QueueResult{Processed: 2, Assigned: 1, Skipped: 1}, res)

	got, err := s.GetAppointment(ctx, earlier.ID)
	require.NoError(t, err)
	require.NotNil(t, got.StaffID)
	assert.Equal(t, "staff-a", *got.StaffID)

	still, err := s.GetAppointment(ctx, later.ID)
	require.NoError(t, err)
	assert.True(t, still.Queued())

	// Idempotent: a second pass over the unchanged queue assigns nothing.
	res, err = eng.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, QueueResult{Processed: 1, Assigned: 0, Skipped: 1}, res)
}

func TestProcessQueueSeesEarlierCommits(t *testing.T) {
	eng, s := newTestEngine(t)
	ctx := context.Background()

	svc := seedService(t, s, "svc-checkup", "Checkup", model.StaffTypeDoctor)
	for i := 0; i < 3; i++ {
		_, err := eng.Book(ctx, BookingRequest{
			CustomerName:  fmt.Sprintf("Customer %d", i),
			ServiceID:     svc.ID,
			AppointmentAt: day.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	seedStaff(t, s, "staff-a", "Dr. Adams", model.StaffTypeDoctor, 2, model.StaffAvailable)

	// Capacity consumed by the first two assignments must be visible to the
	// third evaluation within the same pass.
	res, err := eng.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, QueueResult{Processed: 3, Assigned: 2, Skipped: 1}, res)

	load, err := eng.StaffLoad(ctx, "staff-a", day)
	require.NoError(t, err)
	assert.Equal(t, int64(2), load)
}

type captureNotifier struct {
	ids []string
}

func (n *captureNotifier) AssignedFromQueue(appt model.Appointment) {
	n.ids = append(n.ids, appt.ID)
}

func TestProcessQueueNotifies(t *testing.T) {
	eng, s := newTestEngine(t)
	ctx := context.Background()

	notifier := &captureNotifier{}
	eng.SetNotifier(notifier)

	svc := seedService(t, s, "svc-checkup", "Checkup", model.StaffTypeDoctor)
	queued, err := eng.Book(ctx, BookingRequest{CustomerName: "Alice", ServiceID: svc.ID, AppointmentAt: day})
	require.NoError(t, err)

	seedStaff(t, s, "staff-a", "Dr. Adams", model.StaffTypeDoctor, 1, model.StaffAvailable)

	_, err = eng.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{queued.ID}, notifier.ids)
}

func TestReassignExcludesOwnSlot(t *testing.T) {
	eng, s := newTestEngine(t)
	ctx := context.Background()

	seedStaff(t, s, "staff-a", "Dr. Adams", model.StaffTypeDoctor, 1, model.StaffAvailable)
	svc := seedService(t, s, "svc-checkup", "Checkup", model.StaffTypeDoctor)

	appt, err := eng.Book(ctx, BookingRequest{CustomerName: "Alice", ServiceID: svc.ID, AppointmentAt: day, StaffID: "staff-a"})
	require.NoError(t, err)

	// The staff member is at capacity, but only because of this appointment.
	// Reassigning to the same member must not trip the capacity check.
	staffID := "staff-a"
	out, err := eng.Reassign(ctx, appt.ID, &staffID)
	require.NoError(t, err)
	require.NotNil(t, out.StaffID)
	assert.Equal(t, "staff-a", *out.StaffID)
}

func TestReassignMovesBetweenStaff(t *testing.T) {
	eng, s := newTestEngine(t)
	ctx := context.Background()

	seedStaff(t, s, "staff-a", "Dr. Adams", model.StaffTypeDoctor, 1, model.StaffAvailable)
	seedStaff(t, s, "staff-b", "Dr. Brown", model.StaffTypeDoctor, 1, model.StaffAvailable)
	svc := seedService(t, s, "svc-checkup", "Checkup", model.StaffTypeDoctor)

	appt, err := eng.Book(ctx, BookingRequest{CustomerName: "Alice", ServiceID: svc.ID, AppointmentAt: day, StaffID: "staff-a"})
	require.NoError(t, err)
	blocker, err := eng.Book(ctx, BookingRequest{CustomerName: "Bob", ServiceID: svc.ID, AppointmentAt: day.Add(time.Hour), StaffID: "staff-b"})
	require.NoError(t, err)

	// staff-b is full.
	staffB := "staff-b"
	_, err = eng.Reassign(ctx, appt.ID, &staffB)
	var assignErr *AssignmentError
	require.ErrorAs(t, err, &assignErr)
	assert.Equal(t, StaffAtCapacity, assignErr.Kind)

	// Free the slot, then the move succeeds and staff-a is released.
	_, err = eng.Reassign(ctx, blocker.ID, nil)
	require.NoError(t, err)
	out, err := eng.Reassign(ctx, appt.ID, &staffB)
	require.NoError(t, err)
	assert.Equal(t, "staff-b", *out.StaffID)

	loadA, err := eng.StaffLoad(ctx, "staff-a", day)
	require.NoError(t, err)
	assert.Equal(t, int64(0), loadA)
}

func TestUpdateRevalidatesAssignedAppointments(t *testing.T) {
	eng, s := newTestEngine(t)
	ctx := context.Background()

	seedStaff(t, s, "staff-a", "Dr. Adams", model.StaffTypeDoctor, 2, model.StaffAvailable)
	checkup := seedService(t, s, "svc-checkup", "Checkup", model.StaffTypeDoctor)
	intake := seedService(t, s, "svc-intake", "Intake Call", model.StaffTypeConsultant)

	appt, err := eng.Book(ctx, BookingRequest{CustomerName: "Alice", ServiceID: checkup.ID, AppointmentAt: day, StaffID: "staff-a"})
	require.NoError(t, err)

	// Switching to a service the assigned staff cannot deliver is rejected.
	_, err = eng.Update(ctx, appt.ID, AppointmentPatch{ServiceID: &intake.ID})
	var assignErr *AssignmentError
	require.ErrorAs(t, err, &assignErr)
	assert.Equal(t, TypeMismatch, assignErr.Kind)

	// Moving to a day where the staff member is already full is rejected.
	nextDay := day.AddDate(0, 0, 1)
	for _, name := range []string{"Bob", "Carol"} {
		_, err := eng.Book(ctx, BookingRequest{CustomerName: name, ServiceID: checkup.ID, AppointmentAt: nextDay, StaffID: "staff-a"})
		require.NoError(t, err)
	}
	_, err = eng.Update(ctx, appt.ID, AppointmentPatch{AppointmentAt: &nextDay})
	require.ErrorAs(t, err, &assignErr)
	assert.Equal(t, StaffAtCapacity, assignErr.Kind)

	// A plain rename passes through untouched.
	name := "Alice B."
	out, err := eng.Update(ctx, appt.ID, AppointmentPatch{CustomerName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Alice B.", out.CustomerName)
	require.NotNil(t, out.StaffID)
}

func TestUpdateStatusPassesThrough(t *testing.T) {
	eng, s := newTestEngine(t)
	ctx := context.Background()

	seedStaff(t, s, "staff-a", "Dr. Adams", model.StaffTypeDoctor, 1, model.StaffAvailable)
	svc := seedService(t, s, "svc-checkup", "Checkup", model.StaffTypeDoctor)

	appt, err := eng.Book(ctx, BookingRequest{CustomerName: "Alice", ServiceID: svc.ID, AppointmentAt: day})
	require.NoError(t, err)

	completed := model.AppointmentCompleted
	out, err := eng.Update(ctx, appt.ID, AppointmentPatch{Status: &completed})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentCompleted, out.Status)

	// Completing an appointment frees the slot for new SCHEDULED bookings.
	load, err := eng.StaffLoad(ctx, "staff-a", day)
	require.NoError(t, err)
	assert.Equal(t, int64(0), load)
}

func TestStaffOnLeaveRequeuesAppointments(t *testing.T) {
	eng, s := newTestEngine(t)
	ctx := context.Background()

	seedStaff(t, s, "staff-a", "Dr. Adams", model.StaffTypeDoctor, 3, model.StaffAvailable)
	svc := seedService(t, s, "svc-checkup", "Checkup", model.StaffTypeDoctor)

	for _, name := range []string{"Alice", "Bob"} {
		_, err := eng.Book(ctx, BookingRequest{CustomerName: name, ServiceID: svc.ID, AppointmentAt: day})
		require.NoError(t, err)
	}

	onLeave := model.StaffOnLeave
	_, err := eng.UpdateStaff(ctx, "staff-a", store.StaffPatch{Status: &onLeave})
	require.NoError(t, err)

	queue, err := s.ListWaitingQueue(ctx)
	require.NoError(t, err)
	assert.Len(t, queue, 2)

	// An on-leave member attracts no further auto-assignments.
	appt, err := eng.Book(ctx, BookingRequest{CustomerName: "Carol", ServiceID: svc.ID, AppointmentAt: day})
	require.NoError(t, err)
	assert.True(t, appt.Queued())
}

func TestDeleteStaffRequeuesScheduledOnly(t *testing.T) {
	eng, s := newTestEngine(t)
	ctx := context.Background()

	seedStaff(t, s, "staff-a", "Dr. Adams", model.StaffTypeDoctor, 3, model.StaffAvailable)
	svc := seedService(t, s, "svc-checkup", "Checkup", model.StaffTypeDoctor)

	open, err := eng.Book(ctx, BookingRequest{CustomerName: "Alice", ServiceID: svc.ID, AppointmentAt: day})
	require.NoError(t, err)
	done, err := eng.Book(ctx, BookingRequest{CustomerName: "Bob", ServiceID: svc.ID, AppointmentAt: day.Add(time.Hour)})
	require.NoError(t, err)
	completed := model.AppointmentCompleted
	_, err = eng.Update(ctx, done.ID, AppointmentPatch{Status: &completed})
	require.NoError(t, err)

	require.NoError(t, eng.DeleteStaff(ctx, "staff-a"))

	queue, err := s.ListWaitingQueue(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, open.ID, queue[0].ID)

	// The completed appointment keeps its dangling reference and readers
	// resolve the staff to nothing rather than failing.
	kept, err := s.GetAppointment(ctx, done.ID)
	require.NoError(t, err)
	require.NotNil(t, kept.StaffID)
	assert.Nil(t, kept.Staff)

	_, err = s.GetStaff(ctx, "staff-a")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

// TestCapacityInvariantUnderMixedOperations runs a busy sequence of bookings,
// edits and queue passes, then checks no staff member's day ever exceeds its
// ceiling.
func TestCapacityInvariantUnderMixedOperations(t *testing.T) {
	eng, s := newTestEngine(t)
	ctx := context.Background()

	seedStaff(t, s, "staff-a", "Dr. Adams", model.StaffTypeDoctor, 2, model.StaffAvailable)
	seedStaff(t, s, "staff-b", "Dr. Brown", model.StaffTypeDoctor, 1, model.StaffAvailable)
	seedStaff(t, s, "staff-c", "Connie", model.StaffTypeConsultant, 2, model.StaffAvailable)
	checkup := seedService(t, s, "svc-checkup", "Checkup", model.StaffTypeDoctor)
	intake := seedService(t, s, "svc-intake", "Intake Call", model.StaffTypeConsultant)

	var appts []model.Appointment
	for i := 0; i < 8; i++ {
		svcID := checkup.ID
		if i%3 == 0 {
			svcID = intake.ID
		}
		appt, err := eng.Book(ctx, BookingRequest{
			CustomerName:  fmt.Sprintf("Customer %d", i),
			ServiceID:     svcID,
			AppointmentAt: day.Add(time.Duration(i) * 30 * time.Minute),
		})
		require.NoError(t, err)
		appts = append(appts, appt)
	}

	cancelled := model.AppointmentCancelled
	_, err := eng.Update(ctx, appts[1].ID, AppointmentPatch{Status: &cancelled})
	require.NoError(t, err)
	_, err = eng.Reassign(ctx, appts[2].ID, nil)
	require.NoError(t, err)
	_, err = eng.ProcessQueue(ctx)
	require.NoError(t, err)

	staff, err := s.ListStaff(ctx)
	require.NoError(t, err)
	for _, st := range staff {
		load, err := eng.StaffLoad(ctx, st.ID, day)
		require.NoError(t, err)
		assert.LessOrEqual(t, load, int64(st.DailyCapacity), "staff %s over capacity", st.ID)
	}

	// Every assigned appointment matches its service's required staff type.
	all, err := s.ListAppointments(ctx, store.AppointmentFilter{})
	require.NoError(t, err)
	for _, appt := range all {
		if appt.StaffID == nil {
			continue
		}
		require.NotNil(t, appt.Staff)
		assert.Equal(t, appt.Service.RequiredStaffType, appt.Staff.ServiceType)
	}
}

func TestWaitingQueueOrderedByAppointmentTime(t *testing.T) {
	eng, s := newTestEngine(t)
	ctx := context.Background()

	svc := seedService(t, s, "svc-checkup", "Checkup", model.StaffTypeDoctor)
	times := []time.Time{day.Add(5 * time.Hour), day, day.Add(2 * time.Hour)}
	for i, at := range times {
		_, err := eng.Book(ctx, BookingRequest{CustomerName: fmt.Sprintf("Customer %d", i), ServiceID: svc.ID, AppointmentAt: at})
		require.NoError(t, err)
	}

	queue, err := s.ListWaitingQueue(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 3)
	for i := 1; i < len(queue); i++ {
		assert.False(t, queue[i].AppointmentAt.Before(queue[i-1].AppointmentAt))
	}
	assert.Equal(t, "Customer 1", queue[0].CustomerName)
}

func TestDayWindowUsesConfiguredTimezone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 03:00 UTC is still the previous evening in New York.
	at := time.Date(2026, 9, 10, 3, 0, 0, 0, time.UTC)
	from, to := DayWindow(at, loc)
	assert.Equal(t, 9, from.Day())
	assert.Equal(t, 10, to.Day())
	assert.Equal(t, 24*time.Hour, to.Sub(from))
}
