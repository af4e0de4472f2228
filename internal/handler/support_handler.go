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

type SupportHandler struct {
	supportService *service.SupportService
	log            *zap.Logger
}

func NewSupportHandler(supportService *service.SupportService, log *zap.Logger) *SupportHandler {
	return &SupportHandler{supportService: supportService, log: log}
}

// Handles GET /api/support - community members see their own tickets, staff
// see all.
func (h *SupportHandler) GetTickets(c *gin.Context) {
	tickets, err := h.supportService.List(c.Request.Context(), middleware.UserID(c), middleware.Role(c))
	if err != nil {
		h.log.Error("ticket listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	c.JSON(http.StatusOK, tickets)
}

// Handles POST /api/support - opens a support ticket.
func (h *SupportHandler) CreateTicket(c *gin.Context) {
	var req model.CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	ticket, err := h.supportService.Create(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket category"})
			return
		}
		h.log.Error("ticket creation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error creating ticket"})
		return
	}

	c.JSON(http.StatusCreated, ticket)
}

// Handles POST /api/support/:id/messages - appends to the ticket thread.
func (h *SupportHandler) Reply(c *gin.Context) {
	id, ok := ticketID(c)
	if !ok {
		return
	}

	var req model.TicketReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	ticket, err := h.supportService.Reply(c.Request.Context(), id, middleware.UserID(c), middleware.Role(c), req.Text)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
		case errors.Is(err, service.ErrNotAllowed):
			c.JSON(http.StatusForbidden, gin.H{"error": "not authorized to reply to this ticket"})
		default:
			h.log.Error("ticket reply failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		}
		return
	}

	c.JSON(http.StatusOK, ticket)
}

// Handles PATCH /api/support/:id - moves a ticket through its workflow
// (staff only).
func (h *SupportHandler) UpdateTicket(c *gin.Context) {
	id, ok := ticketID(c)
	if !ok {
		return
	}

	var req model.UpdateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	ticket, err := h.supportService.SetStatus(c.Request.Context(), id, middleware.UserID(c), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
		case errors.Is(err, service.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		default:
			h.log.Error("ticket update failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		}
		return
	}

	c.JSON(http.StatusOK, ticket)
}

func ticketID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket id format"})
		return "", false
	}
	return id, true
}
