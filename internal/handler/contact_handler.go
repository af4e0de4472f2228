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

type ContactHandler struct {
	contactService *service.ContactService
	log            *zap.Logger
}

func NewContactHandler(contactService *service.ContactService, log *zap.Logger) *ContactHandler {
	return &ContactHandler{contactService: contactService, log: log}
}

// Handles GET /api/contacts - admins see all groups, workers their own.
func (h *ContactHandler) GetGroups(c *gin.Context) {
	groups, err := h.contactService.List(c.Request.Context(), middleware.UserID(c), middleware.Role(c))
	if err != nil {
		h.log.Error("contact group listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	c.JSON(http.StatusOK, groups)
}

// Handles POST /api/contacts - creates a contact group.
func (h *ContactHandler) CreateGroup(c *gin.Context) {
	var req model.CreateContactGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and a list of contacts are required"})
		return
	}

	group, err := h.contactService.Create(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name and a list of contacts are required"})
			return
		}
		h.log.Error("contact group creation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error creating group"})
		return
	}

	c.JSON(http.StatusCreated, group)
}

// Handles DELETE /api/contacts/:id - owner or admin only.
func (h *ContactHandler) DeleteGroup(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id format"})
		return
	}

	err := h.contactService.Delete(c.Request.Context(), id, middleware.UserID(c), middleware.Role(c))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
		case errors.Is(err, service.ErrNotAllowed):
			c.JSON(http.StatusForbidden, gin.H{"error": "not authorized to delete this group"})
		default:
			h.log.Error("contact group delete failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Group deleted successfully"})
}
