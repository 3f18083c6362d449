package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"appointment-queue-backend/internal/engine"
	"appointment-queue-backend/internal/model"
	"appointment-queue-backend/internal/store"
)

type createAppointmentRequest struct {
	CustomerName  string    `json:"customerName" binding:"required,min=2"`
	ServiceID     string    `json:"serviceId" binding:"required"`
	AppointmentAt time.Time `json:"appointmentAt" binding:"required"`
	StaffID       string    `json:"staffId"`
}

// CreateAppointment handles POST /appointment. Omitting staffId selects
// auto-assignment; unassignable requests are created queued, never rejected.
func (h *Handler) CreateAppointment(c *gin.Context) {
	var req createAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.AppointmentAt.After(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "appointmentAt must be in the future"})
		return
	}

	appt, err := h.engine.Book(c.Request.Context(), engine.BookingRequest{
		CustomerName:  req.CustomerName,
		ServiceID:     req.ServiceID,
		AppointmentAt: req.AppointmentAt,
		StaffID:       req.StaffID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.invalidateCache()
	c.JSON(http.StatusCreated, appt)
}

// ListAppointments handles GET /appointment with optional date (YYYY-MM-DD),
// staffId and status filters.
func (h *Handler) ListAppointments(c *gin.Context) {
	var filter store.AppointmentFilter

	if dateParam := c.Query("date"); dateParam != "" {
		day, err := time.ParseInLocation("2006-01-02", dateParam, h.engine.Location())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, use YYYY-MM-DD"})
			return
		}
		filter.From, filter.To = engine.DayWindow(day, h.engine.Location())
	}
	filter.StaffID = c.Query("staffId")
	if statusParam := c.Query("status"); statusParam != "" {
		status := model.AppointmentStatus(statusParam)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		filter.Status = status
	}

	appts, err := h.store.ListAppointments(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appts)
}

// GetAppointment handles GET /appointment/:id.
func (h *Handler) GetAppointment(c *gin.Context) {
	appt, err := h.store.GetAppointment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

// GetWaitingQueue handles GET /appointment/waiting-queue. Earliest
// appointmentAt first.
func (h *Handler) GetWaitingQueue(c *gin.Context) {
	queue, err := h.store.ListWaitingQueue(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, queue)
}

type updateAppointmentRequest struct {
	CustomerName  *string    `json:"customerName" binding:"omitempty,min=2"`
	ServiceID     *string    `json:"serviceId"`
	StaffID       *string    `json:"staffId"`
	AppointmentAt *time.Time `json:"appointmentAt"`
	Status        *string    `json:"status"`
}

// UpdateAppointment handles PATCH /appointment/:id. An empty staffId sends
// the appointment back to the waiting queue; a non-empty one goes through the
// same eligibility and capacity checks as a manual booking.
func (h *Handler) UpdateAppointment(c *gin.Context) {
	var req updateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := engine.AppointmentPatch{
		CustomerName:  req.CustomerName,
		ServiceID:     req.ServiceID,
		AppointmentAt: req.AppointmentAt,
	}
	if req.Status != nil {
		status := model.AppointmentStatus(*req.Status)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		patch.Status = &status
	}
	if req.StaffID != nil {
		if *req.StaffID == "" {
			patch.ClearStaff = true
		} else {
			patch.StaffID = req.StaffID
		}
	}

	appt, err := h.engine.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}

	h.invalidateCache()
	c.JSON(http.StatusOK, appt)
}

// DeleteAppointment handles DELETE /appointment/:id. Hard delete.
func (h *Handler) DeleteAppointment(c *gin.Context) {
	if err := h.store.DeleteAppointment(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	h.invalidateCache()
	c.JSON(http.StatusOK, gin.H{"message": "appointment deleted"})
}

// AssignQueue handles PATCH /appointment/assign-queue: one sequential pass
// over the waiting queue.
func (h *Handler) AssignQueue(c *gin.Context) {
	res, err := h.engine.ProcessQueue(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	h.invalidateCache()
	c.JSON(http.StatusOK, gin.H{
		"processed": res.Processed,
		"assigned":  res.Assigned,
		"skipped":   res.Skipped,
		"message":   fmt.Sprintf("%d of %d queued appointment(s) assigned", res.Assigned, res.Processed),
	})
}
