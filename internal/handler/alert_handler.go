package handler

import (
	"errors"
	"net/http"

	"healthwatch/internal/middleware"
	"healthwatch/internal/model"
	"healthwatch/internal/service"
	"healthwatch/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AlertHandler struct {
	alertService *service.AlertService
	log          *zap.Logger
}

func NewAlertHandler(alertService *service.AlertService, log *zap.Logger) *AlertHandler {
	return &AlertHandler{alertService: alertService, log: log}
}

// Handles GET /api/alerts - returns active alerts; community callers see
// only approved ones, staff also get auto-generated outbreak alerts.
func (h *AlertHandler) GetAlerts(c *gin.Context) {
	alerts, err := h.alertService.List(c.Request.Context(), middleware.Role(c))
	if err != nil {
		h.log.Error("alert listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	c.JSON(http.StatusOK, alerts)
}

// Handles POST /api/alerts - creates an alert; admin creations are approved
// and broadcast immediately when channels are selected.
func (h *AlertHandler) CreateAlert(c *gin.Context) {
	var req model.CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "location, level, and message are required"})
		return
	}

	alert, err := h.alertService.Create(c.Request.Context(), middleware.UserID(c), middleware.Role(c), &req)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Error("alert creation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error creating alert"})
		return
	}

	c.JSON(http.StatusCreated, alert)
}

// Handles PATCH /api/alerts/:id/approve - approves a pending alert and
// triggers the broadcast (admin only).
func (h *AlertHandler) ApproveAlert(c *gin.Context) {
	id, ok := alertID(c)
	if !ok {
		return
	}

	var req model.ApproveAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	alert, err := h.alertService.Approve(c.Request.Context(), id, middleware.UserID(c), &req)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		case errors.Is(err, service.ErrAlertNotPending):
			c.JSON(http.StatusBadRequest, gin.H{"error": "alert is not pending approval"})
		default:
			h.log.Error("alert approval failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error approving alert"})
		}
		return
	}

	c.JSON(http.StatusOK, alert)
}

// Handles DELETE /api/alerts/:id - admins delete anything; a worker may only
// cancel their own pending alert.
func (h *AlertHandler) DeleteAlert(c *gin.Context) {
	id, ok := alertID(c)
	if !ok {
		return
	}

	err := h.alertService.Delete(c.Request.Context(), id, middleware.UserID(c), middleware.Role(c))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		case errors.Is(err, service.ErrNotAllowed):
			c.JSON(http.StatusForbidden, gin.H{"error": "not authorized to delete this alert"})
		default:
			h.log.Error("alert delete failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error deleting alert"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Alert deleted successfully"})
}

// Handles PATCH /api/alerts/:id - toggles the active/resolved flag.
func (h *AlertHandler) UpdateAlert(c *gin.Context) {
	id, ok := alertID(c)
	if !ok {
		return
	}

	var req model.UpdateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "isActive is required"})
		return
	}

	alert, err := h.alertService.SetActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
			return
		}
		h.log.Error("alert update failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error updating alert"})
		return
	}

	c.JSON(http.StatusOK, alert)
}

// alertID validates the path id; malformed identifiers are a 400.
func alertID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert id format"})
		return "", false
	}
	return id, true
}
