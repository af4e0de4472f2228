package model

import (
	"time"

	"healthwatch/internal/store"
)

type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
)

// TicketCategories spans both the community-issue and operational-issue
// vocabularies; the frontend shows a role-specific subset.
var TicketCategories = []string{
	"support", "bug", "feedback", "other",
	"water", "sanitation", "infrastructure", "health_concern",
	"supplies", "equipment", "staffing", "emergency", "logistics",
}

func ValidTicketCategory(s string) bool {
	for _, c := range TicketCategories {
		if c == s {
			return true
		}
	}
	return false
}

type TicketMessage struct {
	SenderID  string    `json:"senderId"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// SupportTicket holds a user's issue and its ordered message thread.
type SupportTicket struct {
	store.Meta
	UserID     string          `json:"userId"`
	Message    string          `json:"message"`
	Type       string          `json:"type"`
	Status     TicketStatus    `json:"status"`
	ResolvedBy string          `json:"resolvedBy,omitempty"`
	Messages   []TicketMessage `json:"messages"`
}

const SupportTicketCollection = "support_tickets"

var SupportTicketRefs = store.RefTable{
	"userId":     UserCollection,
	"resolvedBy": UserCollection,
}

type CreateTicketRequest struct {
	Message string `json:"message" binding:"required"`
	Type    string `json:"type"`
}

type TicketReplyRequest struct {
	Text string `json:"text" binding:"required"`
}

type UpdateTicketRequest struct {
	Status TicketStatus `json:"status" binding:"required"`
}
