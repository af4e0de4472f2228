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

func newReportFixture(t *testing.T) (*ReportService, store.Collection[*model.Report], *model.User) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	users, err := store.NewFile[*model.User](dir, model.UserCollection, zap.NewNop())
	require.NoError(t, err)
	reports, err := store.NewFile[*model.Report](dir, model.ReportCollection, zap.NewNop())
	require.NoError(t, err)

	reporter, err := users.Insert(ctx, &model.User{
		Name: "Anita", Email: "anita@example.com", Role: model.RoleCommunity,
	})
	require.NoError(t, err)

	populator := store.NewPopulator()
	populator.Register(model.UserCollection, users)
	return NewReportService(reports, populator, zap.NewNop()), reports, reporter
}

func TestCreateReportDefaults(t *testing.T) {
	ctx := context.Background()
	s, _, reporter := newReportFixture(t)

	docs, err := s.Create(ctx, reporter.ID, &model.CreateReportRequest{
		Location:    "Majuli",
		Symptoms:    []string{"diarrhea"},
		WaterSource: "River",
		Severity:    "Catastrophic",
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, "Assam", doc["state"], "missing state gets the default")
	assert.Equal(t, "Low", doc["severity"], "unknown severity falls back to Low")
	assert.Equal(t, "pending", doc["status"])

	// The submitter reference comes back resolved.
	related, ok := doc["userId"].(store.Doc)
	require.True(t, ok)
	assert.Equal(t, "Anita", related["name"])
	assert.Equal(t, "anita@example.com", related["email"])
}

func TestCreateReportFanOut(t *testing.T) {
	ctx := context.Background()
	s, reports, reporter := newReportFixture(t)

	docs, err := s.Create(ctx, reporter.ID, &model.CreateReportRequest{
		Location:    "Majuli",
		Symptoms:    []string{"fever"},
		WaterSource: "Well",
		Count:       3,
	})
	require.NoError(t, err)
	assert.Len(t, docs, 3)

	n, err := reports.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n, "each case is a separate record")

	// Ids are distinct across the fan-out.
	seen := map[any]bool{}
	for _, d := range docs {
		assert.False(t, seen[d["id"]])
		seen[d["id"]] = true
	}
}

func TestCreateReportValidation(t *testing.T) {
	ctx := context.Background()
	s, _, reporter := newReportFixture(t)

	_, err := s.Create(ctx, reporter.ID, &model.CreateReportRequest{
		Location: "Majuli", Symptoms: []string{"fever"}, WaterSource: "Ocean",
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.Create(ctx, reporter.ID, &model.CreateReportRequest{
		Location: "Majuli", Symptoms: []string{}, WaterSource: "River",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteByLocation(t *testing.T) {
	ctx := context.Background()
	s, _, reporter := newReportFixture(t)

	for _, loc := range []string{"Majuli", "MAJULI", "Jorhat"} {
		_, err := s.Create(ctx, reporter.ID, &model.CreateReportRequest{
			Location: loc, Symptoms: []string{"fever"}, WaterSource: "River",
		})
		require.NoError(t, err)
	}

	removed, err := s.DeleteByLocation(ctx, "majuli")
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed, "matching is case-insensitive and exact")

	_, err = s.DeleteByLocation(ctx, "majuli")
	assert.ErrorIs(t, err, ErrNoReports)

	left, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func TestMapDataOmitsReporter(t *testing.T) {
	ctx := context.Background()
	s, _, reporter := newReportFixture(t)

	_, err := s.Create(ctx, reporter.ID, &model.CreateReportRequest{
		Location: "Majuli", Symptoms: []string{"fever"}, WaterSource: "River",
	})
	require.NoError(t, err)

	points, err := s.MapData(ctx)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "Majuli", points[0].Location)

	d, err := store.ToDoc(points[0])
	require.NoError(t, err)
	assert.NotContains(t, d, "userId")
	assert.NotContains(t, d, "id")
}
