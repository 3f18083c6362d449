package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"appointment-queue-backend/internal/model"
	"appointment-queue-backend/internal/store"
)

type createServiceRequest struct {
	Name              string `json:"name" binding:"required,min=2"`
	Duration          string `json:"duration" binding:"required"`
	RequiredStaffType string `json:"requiredStaffType" binding:"required"`
}

// ListServices handles GET /service.
func (h *Handler) ListServices(c *gin.Context) {
	services, err := h.store.ListServices(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, services)
}

// GetService handles GET /service/:id.
func (h *Handler) GetService(c *gin.Context) {
	svc, err := h.store.GetService(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, svc)
}

// CreateService handles POST /service.
func (h *Handler) CreateService(c *gin.Context) {
	var req createServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	duration := model.ServiceDuration(req.Duration)
	if !duration.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid duration"})
		return
	}
	staffType := model.StaffType(req.RequiredStaffType)
	if !staffType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid requiredStaffType"})
		return
	}

	svc := model.Service{
		ID:                uuid.NewString(),
		Name:              req.Name,
		Duration:          duration,
		RequiredStaffType: staffType,
	}
	if err := h.store.CreateService(c.Request.Context(), &svc); err != nil {
		respondError(c, err)
		return
	}

	h.invalidateCache()
	c.JSON(http.StatusCreated, svc)
}

type updateServiceRequest struct {
	Name              *string `json:"name" binding:"omitempty,min=2"`
	Duration          *string `json:"duration"`
	RequiredStaffType *string `json:"requiredStaffType"`
}

// UpdateService handles PATCH /service/:id.
func (h *Handler) UpdateService(c *gin.Context) {
	var req updateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := store.ServicePatch{Name: req.Name}
	if req.Duration != nil {
		duration := model.ServiceDuration(*req.Duration)
		if !duration.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid duration"})
			return
		}
		patch.Duration = &duration
	}
	if req.RequiredStaffType != nil {
		staffType := model.StaffType(*req.RequiredStaffType)
		if !staffType.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid requiredStaffType"})
			return
		}
		patch.RequiredStaffType = &staffType
	}

	svc, err := h.store.UpdateService(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}

	h.invalidateCache()
	c.JSON(http.StatusOK, svc)
}

// DeleteService handles DELETE /service/:id.
func (h *Handler) DeleteService(c *gin.Context) {
	if err := h.store.DeleteService(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	h.invalidateCache()
	c.JSON(http.StatusOK, gin.H{"message": "service deleted"})
}
