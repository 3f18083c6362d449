package dashboard

import (
	"context"
	"fmt"
	"time"

	"appointment-queue-backend/internal/engine"
	"appointment-queue-backend/internal/model"
	"appointment-queue-backend/internal/store"
)

// Aggregator derives dashboard projections from the appointment store and the
// staff registry. It keeps no state of its own; every call recomputes from
// storage and the HTTP layer caches the result.
type Aggregator struct {
	store store.Store
	loc   *time.Location
}

// New creates an aggregator resolving "today" in loc.
func New(s store.Store, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.Local
	}
	return &Aggregator{store: s, loc: loc}
}

// StaffLoad is one row of the per-staff load table. Load is rendered as
// "<count>/<capacity>"; Status flips to FULL when the day is at capacity.
type StaffLoad struct {
	Name   string `json:"name"`
	Load   string `json:"load"`
	Status string `json:"status"`
}

// Stats is the dashboard payload. Field names match what the admin UI reads.
type Stats struct {
	TodayTotal     int64       `json:"todayTotal"`
	CompletedToday int64       `json:"completedToday"`
	PendingToday   int64       `json:"pendingToday"`
	WaitingQueue   int64       `json:"waitingQueue"`
	StaffLoad      []StaffLoad `json:"staffLoad"`
}

// Stats computes the dashboard for the calendar day containing now.
func (a *Aggregator) Stats(ctx context.Context, now time.Time) (Stats, error) {
	from, to := engine.DayWindow(now, a.loc)

	today, err := a.store.ListAppointments(ctx, store.AppointmentFilter{From: from, To: to})
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	stats.TodayTotal = int64(len(today))
	for _, appt := range today {
		switch appt.Status {
		case model.AppointmentCompleted:
			stats.CompletedToday++
		case model.AppointmentScheduled:
			stats.PendingToday++
		}
	}

	queue, err := a.store.ListWaitingQueue(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats.WaitingQueue = int64(len(queue))

	staff, err := a.store.ListStaff(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats.StaffLoad = make([]StaffLoad, 0, len(staff))
	for _, st := range staff {
		count, err := a.store.CountScheduled(ctx, st.ID, from, to, "")
		if err != nil {
			return Stats{}, err
		}
		status := "OK"
		if count >= int64(st.DailyCapacity) {
			status = "FULL"
		}
		stats.StaffLoad = append(stats.StaffLoad, StaffLoad{
			Name:   st.Name,
			Load:   fmt.Sprintf("%d/%d", count, st.DailyCapacity),
			Status: status,
		})
	}

	return stats, nil
}
