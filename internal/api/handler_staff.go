package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"appointment-queue-backend/internal/model"
	"appointment-queue-backend/internal/store"
)

type createStaffRequest struct {
	Name          string `json:"name" binding:"required,min=2"`
	ServiceType   string `json:"serviceType" binding:"required"`
	DailyCapacity int    `json:"dailyCapacity" binding:"required,min=1,max=50"`
	Status        string `json:"status"`
}

// ListStaff handles GET /staff.
func (h *Handler) ListStaff(c *gin.Context) {
	staff, err := h.store.ListStaff(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, staff)
}

// CreateStaff handles POST /staff.
func (h *Handler) CreateStaff(c *gin.Context) {
	var req createStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	serviceType := model.StaffType(req.ServiceType)
	if !serviceType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid serviceType"})
		return
	}
	status := model.StaffAvailable
	if req.Status != "" {
		status = model.StaffStatus(req.Status)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
	}

	st := model.Staff{
		ID:            uuid.NewString(),
		Name:          req.Name,
		ServiceType:   serviceType,
		DailyCapacity: req.DailyCapacity,
		Status:        status,
	}
	if err := h.store.CreateStaff(c.Request.Context(), &st); err != nil {
		respondError(c, err)
		return
	}

	h.invalidateCache()
	c.JSON(http.StatusCreated, st)
}

type updateStaffRequest struct {
	Name          *string `json:"name" binding:"omitempty,min=2"`
	ServiceType   *string `json:"serviceType"`
	DailyCapacity *int    `json:"dailyCapacity" binding:"omitempty,min=1,max=50"`
	Status        *string `json:"status"`
}

// UpdateStaff handles PATCH /staff/:id. Goes through the engine so that a
// member going ON_LEAVE or changing service type releases their SCHEDULED
// appointments back to the queue.
func (h *Handler) UpdateStaff(c *gin.Context) {
	var req updateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := store.StaffPatch{
		Name:          req.Name,
		DailyCapacity: req.DailyCapacity,
	}
	if req.ServiceType != nil {
		serviceType := model.StaffType(*req.ServiceType)
		if !serviceType.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid serviceType"})
			return
		}
		patch.ServiceType = &serviceType
	}
	if req.Status != nil {
		status := model.StaffStatus(*req.Status)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		patch.Status = &status
	}

	st, err := h.engine.UpdateStaff(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}

	h.invalidateCache()
	c.JSON(http.StatusOK, st)
}

// DeleteStaff handles DELETE /staff/:id. SCHEDULED appointments held by the
// member are requeued first.
func (h *Handler) DeleteStaff(c *gin.Context) {
	if err := h.engine.DeleteStaff(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	h.invalidateCache()
	c.JSON(http.StatusOK, gin.H{"message": "staff deleted"})
}
