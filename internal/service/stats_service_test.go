package service

import (
	"context"
	"testing"
	"time"

	"healthwatch/internal/model"
	"healthwatch/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newStatsFixture(t *testing.T) (*StatsService, store.Collection[*model.Report], store.Collection[*model.Alert]) {
	t.Helper()
	dir := t.TempDir()
	reports, err := store.NewFile[*model.Report](dir, model.ReportCollection, zap.NewNop())
	require.NoError(t, err)
	alerts, err := store.NewFile[*model.Alert](dir, model.AlertCollection, zap.NewNop())
	require.NoError(t, err)
	return NewStatsService(reports, alerts), reports, alerts
}

func TestStatsAggregation(t *testing.T) {
	ctx := context.Background()
	s, reports, _ := newStatsFixture(t)

	now := time.Now().UTC()
	for _, r := range []*model.Report{
		{Location: "Majuli", Severity: model.SeverityHigh, RegisteredCases: 4, Timestamp: now},
		{Location: "Majuli", Severity: model.SeverityLow, RegisteredCases: 1, Timestamp: now.Add(-time.Hour)},
		{Location: "Jorhat", Severity: model.SeverityMedium, RegisteredCases: 2, Timestamp: now.Add(-2 * time.Hour)},
	} {
		_, err := reports.Insert(ctx, r)
		require.NoError(t, err)
	}

	stats, err := s.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.TotalReports)
	assert.Equal(t, int64(1), stats.HighSeverity)
	assert.Equal(t, LocationStat{TotalCases: 2, RegisteredCases: 5}, stats.Locations["Majuli"])
	assert.Equal(t, LocationStat{TotalCases: 1, RegisteredCases: 2}, stats.Locations["Jorhat"])
}

func TestStatsRecentUpdatesMergeAndTruncate(t *testing.T) {
	ctx := context.Background()
	s, reports, alerts := newStatsFixture(t)

	now := time.Now().UTC()
	_, err := reports.Insert(ctx, &model.Report{
		Location: "Majuli", Severity: model.SeverityHigh,
		Symptoms: []string{"fever"}, Timestamp: now.Add(-3 * time.Hour),
	})
	require.NoError(t, err)

	// Alerts are inserted after the report, so by creation time they are the
	// two most recent events.
	for _, msg := range []string{"first", "second"} {
		_, err := alerts.Insert(ctx, &model.Alert{
			Location: "Majuli", Level: "High", Message: msg, IsActive: true,
		})
		require.NoError(t, err)
	}

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, stats.RecentUpdates, 2, "merged feed is capped at two entries")
	for _, u := range stats.RecentUpdates {
		assert.Equal(t, "alert", u.Type)
	}
	assert.True(t, !stats.RecentUpdates[0].Time.Before(stats.RecentUpdates[1].Time))
}

func TestStatsEmpty(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newStatsFixture(t)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalReports)
	assert.Empty(t, stats.Locations)
	assert.Empty(t, stats.RecentUpdates)
}
