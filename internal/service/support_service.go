package service

import (
	"context"
	"time"

	"healthwatch/internal/model"
	"healthwatch/internal/store"
)

type SupportService struct {
	tickets   store.Collection[*model.SupportTicket]
	populator *store.Populator
}

func NewSupportService(tickets store.Collection[*model.SupportTicket], populator *store.Populator) *SupportService {
	return &SupportService{tickets: tickets, populator: populator}
}

// List returns tickets newest first. Community members see only their own;
// workers and admins see every ticket with the owner resolved.
func (s *SupportService) List(ctx context.Context, userID string, role model.Role) ([]store.Doc, error) {
	filter := store.Filter{}
	if role == model.RoleCommunity {
		filter["userId"] = userID
	}
	tickets, err := s.tickets.Find(ctx, store.Query{
		Filter: filter,
		Sort:   &store.Sort{Field: "createdAt", Desc: true},
	})
	if err != nil {
		return nil, err
	}
	docs, err := store.ToDocs(tickets)
	if err != nil {
		return nil, err
	}
	if err := s.populator.Populate(ctx, docs, model.SupportTicketRefs, "userId", "name", "email", "role"); err != nil {
		return nil, err
	}
	return docs, nil
}

// Create opens a ticket whose thread starts with the submitted message.
func (s *SupportService) Create(ctx context.Context, userID string, req *model.CreateTicketRequest) (*model.SupportTicket, error) {
	category := req.Type
	if category == "" {
		category = "support"
	}
	if !model.ValidTicketCategory(category) {
		return nil, ErrValidation
	}

	return s.tickets.Insert(ctx, &model.SupportTicket{
		UserID:  userID,
		Message: req.Message,
		Type:    category,
		Status:  model.TicketOpen,
		Messages: []model.TicketMessage{{
			SenderID:  userID,
			Text:      req.Message,
			Timestamp: time.Now().UTC(),
		}},
	})
}

// Reply appends to the ticket thread. Only the owner, workers and admins may
// post; a staff reply moves an open ticket to in_progress.
func (s *SupportService) Reply(ctx context.Context, id, userID string, role model.Role, text string) (*model.SupportTicket, error) {
	ticket, err := s.tickets.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	isStaff := role == model.RoleHealthWorker || role.IsAdmin()
	if ticket.UserID != userID && !isStaff {
		return nil, ErrNotAllowed
	}

	messages := append(ticket.Messages, model.TicketMessage{
		SenderID:  userID,
		Text:      text,
		Timestamp: time.Now().UTC(),
	})
	patch := store.Patch{"messages": messages}
	if isStaff && ticket.UserID != userID && ticket.Status == model.TicketOpen {
		patch["status"] = string(model.TicketInProgress)
	}
	return s.tickets.UpdateByID(ctx, id, patch)
}

// SetStatus moves a ticket through its workflow, recording the resolver.
func (s *SupportService) SetStatus(ctx context.Context, id, userID string, status model.TicketStatus) (*model.SupportTicket, error) {
	switch status {
	case model.TicketOpen, model.TicketInProgress, model.TicketResolved:
	default:
		return nil, ErrValidation
	}
	patch := store.Patch{"status": string(status)}
	if status == model.TicketResolved {
		patch["resolvedBy"] = userID
	}
	return s.tickets.UpdateByID(ctx, id, patch)
}
