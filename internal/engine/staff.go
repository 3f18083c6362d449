package engine

import (
	"context"

	"appointment-queue-backend/internal/model"
	"appointment-queue-backend/internal/store"
)

// UpdateStaff applies a registry patch. A member switched to ON_LEAVE or to a
// different service type cannot keep their SCHEDULED appointments without
// breaking the availability and type-match invariants, so those appointments
// are sent back to the waiting queue in the same transaction.
func (e *Engine) UpdateStaff(ctx context.Context, id string, patch store.StaffPatch) (model.Staff, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out model.Staff
	var requeued int64
	err := e.store.Transaction(ctx, func(tx store.Store) error {
		old, err := tx.GetStaff(ctx, id)
		if err != nil {
			return err
		}

		out, err = tx.UpdateStaff(ctx, id, patch)
		if err != nil {
			return err
		}

		wentOnLeave := old.Status == model.StaffAvailable && out.Status == model.StaffOnLeave
		typeChanged := old.ServiceType != out.ServiceType
		if wentOnLeave || typeChanged {
			requeued, err = tx.RequeueStaffAppointments(ctx, id)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return model.Staff{}, err
	}

	if requeued > 0 {
		e.logActivity(ctx, "%d appointment(s) of %s moved back to the waiting queue", requeued, out.Name)
	}
	return out, nil
}

// DeleteStaff removes a staff member. Their SCHEDULED appointments go back to
// the waiting queue; terminal appointments keep the dangling reference, which
// readers resolve to "no staff".
func (e *Engine) DeleteStaff(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var name string
	var requeued int64
	err := e.store.Transaction(ctx, func(tx store.Store) error {
		st, err := tx.GetStaff(ctx, id)
		if err != nil {
			return err
		}
		name = st.Name

		requeued, err = tx.RequeueStaffAppointments(ctx, id)
		if err != nil {
			return err
		}
		return tx.DeleteStaff(ctx, id)
	})
	if err != nil {
		return err
	}

	if requeued > 0 {
		e.logActivity(ctx, "%d appointment(s) of %s moved back to the waiting queue", requeued, name)
	}
	return nil
}
