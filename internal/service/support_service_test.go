package service

import (
	"context"
	"testing"

	"healthwatch/internal/model"
	"healthwatch/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSupportFixture(t *testing.T) (*SupportService, *model.User, *model.User) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	users, err := store.NewFile[*model.User](dir, model.UserCollection, zap.NewNop())
	require.NoError(t, err)
	tickets, err := store.NewFile[*model.SupportTicket](dir, model.SupportTicketCollection, zap.NewNop())
	require.NoError(t, err)

	owner, err := users.Insert(ctx, &model.User{
		Name: "Anita", Email: "anita@example.com", Role: model.RoleCommunity,
	})
	require.NoError(t, err)
	worker, err := users.Insert(ctx, &model.User{
		Name: "Wren", Email: "wren@example.com", Role: model.RoleHealthWorker,
	})
	require.NoError(t, err)

	populator := store.NewPopulator()
	populator.Register(model.UserCollection, users)
	return NewSupportService(tickets, populator), owner, worker
}

func TestCreateTicketSeedsThread(t *testing.T) {
	ctx := context.Background()
	s, owner, _ := newSupportFixture(t)

	ticket, err := s.Create(ctx, owner.ID, &model.CreateTicketRequest{
		Message: "pump is broken",
	})
	require.NoError(t, err)
	assert.Equal(t, model.TicketOpen, ticket.Status)
	assert.Equal(t, "support", ticket.Type, "missing category defaults to support")
	require.Len(t, ticket.Messages, 1)
	assert.Equal(t, owner.ID, ticket.Messages[0].SenderID)
	assert.Equal(t, "pump is broken", ticket.Messages[0].Text)

	_, err = s.Create(ctx, owner.ID, &model.CreateTicketRequest{
		Message: "x", Type: "nonsense",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListTicketsByRole(t *testing.T) {
	ctx := context.Background()
	s, owner, worker := newSupportFixture(t)

	_, err := s.Create(ctx, owner.ID, &model.CreateTicketRequest{Message: "mine"})
	require.NoError(t, err)
	_, err = s.Create(ctx, worker.ID, &model.CreateTicketRequest{Message: "theirs", Type: "supplies"})
	require.NoError(t, err)

	own, err := s.List(ctx, owner.ID, model.RoleCommunity)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "mine", own[0]["message"])

	all, err := s.List(ctx, worker.ID, model.RoleHealthWorker)
	require.NoError(t, err)
	require.Len(t, all, 2)

	submitter, ok := all[0]["userId"].(store.Doc)
	require.True(t, ok)
	assert.NotEmpty(t, submitter["name"])
}

func TestReplyMovesOpenTicketToInProgress(t *testing.T) {
	ctx := context.Background()
	s, owner, worker := newSupportFixture(t)

	ticket, err := s.Create(ctx, owner.ID, &model.CreateTicketRequest{Message: "help"})
	require.NoError(t, err)

	// An owner reply does not change the status.
	replied, err := s.Reply(ctx, ticket.ID, owner.ID, model.RoleCommunity, "still broken")
	require.NoError(t, err)
	assert.Equal(t, model.TicketOpen, replied.Status)
	assert.Len(t, replied.Messages, 2)

	// A staff reply moves an open ticket along.
	replied, err = s.Reply(ctx, ticket.ID, worker.ID, model.RoleHealthWorker, "on it")
	require.NoError(t, err)
	assert.Equal(t, model.TicketInProgress, replied.Status)
	assert.Len(t, replied.Messages, 3)

	// A stranger cannot post into someone else's thread.
	_, err = s.Reply(ctx, ticket.ID, "stranger", model.RoleCommunity, "me too")
	assert.ErrorIs(t, err, ErrNotAllowed)
}

func TestSetTicketStatus(t *testing.T) {
	ctx := context.Background()
	s, owner, worker := newSupportFixture(t)

	ticket, err := s.Create(ctx, owner.ID, &model.CreateTicketRequest{Message: "help"})
	require.NoError(t, err)

	resolved, err := s.SetStatus(ctx, ticket.ID, worker.ID, model.TicketResolved)
	require.NoError(t, err)
	assert.Equal(t, model.TicketResolved, resolved.Status)
	assert.Equal(t, worker.ID, resolved.ResolvedBy)

	_, err = s.SetStatus(ctx, ticket.ID, worker.ID, "archived")
	assert.ErrorIs(t, err, ErrValidation)
}
