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

type alertFixture struct {
	svc     *AlertService
	alerts  store.Collection[*model.Alert]
	reports store.Collection[*model.Report]
	users   store.Collection[*model.User]
	mail    *fakeMailer
}

func newAlertFixture(t *testing.T) *alertFixture {
	t.Helper()
	dir := t.TempDir()
	log := zap.NewNop()

	users, err := store.NewFile[*model.User](dir, model.UserCollection, log)
	require.NoError(t, err)
	groups, err := store.NewFile[*model.ContactGroup](dir, model.ContactGroupCollection, log)
	require.NoError(t, err)
	alerts, err := store.NewFile[*model.Alert](dir, model.AlertCollection, log)
	require.NoError(t, err)
	reports, err := store.NewFile[*model.Report](dir, model.ReportCollection, log)
	require.NoError(t, err)

	mail := &fakeMailer{}
	populator := store.NewPopulator()
	populator.Register(model.UserCollection, users)
	populator.Register(model.ContactGroupCollection, groups)

	return &alertFixture{
		svc:     NewAlertService(alerts, reports, NewBroadcaster(users, groups, mail, log), populator, log),
		alerts:  alerts,
		reports: reports,
		users:   users,
		mail:    mail,
	}
}

func (f *alertFixture) addUser(t *testing.T, name string, role model.Role, location string) *model.User {
	t.Helper()
	u, err := f.users.Insert(context.Background(), &model.User{
		Name: name, Email: name + "@example.com", Role: role, Location: location,
	})
	require.NoError(t, err)
	return u
}

func TestCreateAlertByWorkerStartsPending(t *testing.T) {
	ctx := context.Background()
	f := newAlertFixture(t)
	worker := f.addUser(t, "worker", model.RoleHealthWorker, "Majuli")

	doc, err := f.svc.Create(ctx, worker.ID, worker.Role, &model.CreateAlertRequest{
		Location: "Majuli", Level: "High", Message: "boil water",
		Channels: []string{model.ChannelEmail},
	})
	require.NoError(t, err)

	assert.Equal(t, "pending", doc["status"])
	assert.Equal(t, []any{}, doc["channels"], "channels wait for approval")
	assert.Equal(t, "affected_area", doc["targetAudience"])
	assert.Nil(t, doc["broadcastSummary"])
	assert.Empty(t, f.mail.addresses(), "no broadcast before approval")

	creator, ok := doc["createdBy"].(store.Doc)
	require.True(t, ok)
	assert.Equal(t, "worker", creator["name"])
}

func TestCreateAlertByAdminBroadcastsImmediately(t *testing.T) {
	ctx := context.Background()
	f := newAlertFixture(t)
	admin := f.addUser(t, "admin", model.RoleAdmin, "Majuli")
	f.addUser(t, "resident", model.RoleCommunity, "Majuli East")

	doc, err := f.svc.Create(ctx, admin.ID, admin.Role, &model.CreateAlertRequest{
		Location: "Majuli", Level: "critical", Message: "evacuate",
		Channels: []string{model.ChannelEmail},
	})
	require.NoError(t, err)

	assert.Equal(t, "approved", doc["status"])
	require.NotNil(t, doc["broadcastSummary"])
	summary := doc["broadcastSummary"].(map[string]any)
	assert.Equal(t, float64(2), summary["totalSent"])
	assert.Len(t, f.mail.addresses(), 2)
}

func TestCreateAlertRejectsUnknownLevel(t *testing.T) {
	ctx := context.Background()
	f := newAlertFixture(t)
	worker := f.addUser(t, "worker", model.RoleHealthWorker, "Majuli")

	_, err := f.svc.Create(ctx, worker.ID, worker.Role, &model.CreateAlertRequest{
		Location: "Majuli", Level: "purple", Message: "x",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestApproveAlert(t *testing.T) {
	ctx := context.Background()
	f := newAlertFixture(t)
	worker := f.addUser(t, "worker", model.RoleHealthWorker, "Majuli")
	admin := f.addUser(t, "admin", model.RoleAdmin, "Majuli")

	doc, err := f.svc.Create(ctx, worker.ID, worker.Role, &model.CreateAlertRequest{
		Location: "Majuli", Level: "High", Message: "boil water",
	})
	require.NoError(t, err)
	id := doc["id"].(string)

	approved, err := f.svc.Approve(ctx, id, admin.ID, &model.ApproveAlertRequest{
		Channels:     []string{model.ChannelEmail},
		ManualEmails: []string{"extra@example.com"},
	})
	require.NoError(t, err)

	assert.Equal(t, "approved", approved["status"])
	assert.Equal(t, "affected_area", approved["targetAudience"])
	require.NotNil(t, approved["broadcastSummary"])
	summary := approved["broadcastSummary"].(map[string]any)
	// Both seeded users match "Majuli" plus one manual address.
	assert.Equal(t, float64(3), summary["totalSent"])
	assert.Contains(t, f.mail.addresses(), "extra@example.com")

	approver, ok := approved["approvedBy"].(store.Doc)
	require.True(t, ok)
	assert.Equal(t, "admin", approver["name"])

	// A second approval of the same alert is rejected.
	_, err = f.svc.Approve(ctx, id, admin.ID, &model.ApproveAlertRequest{})
	assert.ErrorIs(t, err, ErrAlertNotPending)
}

func TestDeleteAlertOwnership(t *testing.T) {
	ctx := context.Background()
	f := newAlertFixture(t)
	worker := f.addUser(t, "worker", model.RoleHealthWorker, "Majuli")
	other := f.addUser(t, "other", model.RoleHealthWorker, "Majuli")
	admin := f.addUser(t, "admin", model.RoleAdmin, "Majuli")

	doc, err := f.svc.Create(ctx, worker.ID, worker.Role, &model.CreateAlertRequest{
		Location: "Majuli", Level: "High", Message: "x",
	})
	require.NoError(t, err)
	id := doc["id"].(string)

	err = f.svc.Delete(ctx, id, other.ID, other.Role)
	assert.ErrorIs(t, err, ErrNotAllowed, "non-owner workers cannot delete")

	// Once approved, even the owner loses delete rights.
	_, err = f.svc.Approve(ctx, id, admin.ID, &model.ApproveAlertRequest{})
	require.NoError(t, err)
	err = f.svc.Delete(ctx, id, worker.ID, worker.Role)
	assert.ErrorIs(t, err, ErrNotAllowed)

	// Admins delete anything.
	require.NoError(t, f.svc.Delete(ctx, id, admin.ID, admin.Role))
	_, err = f.svc.Get(ctx, id)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSetActiveStampsResolution(t *testing.T) {
	ctx := context.Background()
	f := newAlertFixture(t)
	admin := f.addUser(t, "admin", model.RoleAdmin, "Majuli")

	doc, err := f.svc.Create(ctx, admin.ID, admin.Role, &model.CreateAlertRequest{
		Location: "Majuli", Level: "High", Message: "x",
	})
	require.NoError(t, err)
	id := doc["id"].(string)

	deactivated, err := f.svc.SetActive(ctx, id, false)
	require.NoError(t, err)
	assert.Equal(t, false, deactivated["isActive"])
	assert.NotNil(t, deactivated["resolvedAt"])

	reactivated, err := f.svc.SetActive(ctx, id, true)
	require.NoError(t, err)
	assert.Equal(t, true, reactivated["isActive"])
	assert.Nil(t, reactivated["resolvedAt"])
}

func TestListFiltersByRole(t *testing.T) {
	ctx := context.Background()
	f := newAlertFixture(t)
	worker := f.addUser(t, "worker", model.RoleHealthWorker, "Majuli")
	admin := f.addUser(t, "admin", model.RoleAdmin, "Majuli")

	_, err := f.svc.Create(ctx, worker.ID, worker.Role, &model.CreateAlertRequest{
		Location: "Majuli", Level: "High", Message: "pending one",
	})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, admin.ID, admin.Role, &model.CreateAlertRequest{
		Location: "Jorhat", Level: "Low", Message: "approved one",
	})
	require.NoError(t, err)

	community, err := f.svc.List(ctx, model.RoleCommunity)
	require.NoError(t, err)
	require.Len(t, community, 1)
	assert.Equal(t, "approved", community[0]["status"])

	staff, err := f.svc.List(ctx, model.RoleHealthWorker)
	require.NoError(t, err)
	assert.Len(t, staff, 2, "staff see pending alerts too")
}

func TestListIncludesAutoAlerts(t *testing.T) {
	ctx := context.Background()
	f := newAlertFixture(t)

	seed := func(location string, n int) {
		for i := 0; i < n; i++ {
			_, err := f.reports.Insert(ctx, &model.Report{
				Location: location, Symptoms: []string{"fever"}, WaterSource: "River",
			})
			require.NoError(t, err)
		}
	}
	seed("Quiet", 2)
	seed("Watch", 3)
	seed("Rising", 5)
	seed("Hotspot", 10)

	docs, err := f.svc.List(ctx, model.RoleHealthWorker)
	require.NoError(t, err)

	byID := map[any]store.Doc{}
	for _, d := range docs {
		byID[d["id"]] = d
	}
	assert.NotContains(t, byID, "auto-alert-Quiet", "below threshold")
	assert.Equal(t, "Yellow", byID["auto-alert-Watch"]["level"])
	assert.Equal(t, "Orange", byID["auto-alert-Rising"]["level"])
	assert.Equal(t, "Red", byID["auto-alert-Hotspot"]["level"])
	assert.Equal(t, "pending", byID["auto-alert-Hotspot"]["status"])
	assert.Equal(t, int64(10), byID["auto-alert-Hotspot"]["reportCount"])

	// Community listings never include system-generated alerts.
	community, err := f.svc.List(ctx, model.RoleCommunity)
	require.NoError(t, err)
	for _, d := range community {
		assert.NotContains(t, d["id"], "auto-alert")
	}
}
