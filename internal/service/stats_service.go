package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"healthwatch/internal/model"
	"healthwatch/internal/store"
)

type LocationStat struct {
	TotalCases      int64 `json:"totalCases"`
	RegisteredCases int64 `json:"registeredCases"`
}

type RecentUpdate struct {
	Type     string    `json:"type"`
	Title    string    `json:"title"`
	Desc     string    `json:"desc"`
	Time     time.Time `json:"time"`
	Severity string    `json:"severity"`
}

type StatsResponse struct {
	TotalReports  int64                   `json:"totalReports"`
	HighSeverity  int64                   `json:"highSeverity"`
	Locations     map[string]LocationStat `json:"locations"`
	RecentUpdates []RecentUpdate          `json:"recentUpdates"`
}

type StatsService struct {
	reports store.Collection[*model.Report]
	alerts  store.Collection[*model.Alert]
}

func NewStatsService(reports store.Collection[*model.Report], alerts store.Collection[*model.Alert]) *StatsService {
	return &StatsService{reports: reports, alerts: alerts}
}

// Stats aggregates totals, the per-location breakdown, and the two most
// recent report/alert summaries merged and time-sorted.
func (s *StatsService) Stats(ctx context.Context) (*StatsResponse, error) {
	totalReports, err := s.reports.Count(ctx, nil)
	if err != nil {
		return nil, err
	}
	highSeverity, err := s.reports.Count(ctx, store.Filter{"severity": string(model.SeverityHigh)})
	if err != nil {
		return nil, err
	}

	rows, err := s.reports.GroupSum(ctx, nil, "location", "registeredCases")
	if err != nil {
		return nil, err
	}
	locations := make(map[string]LocationStat, len(rows))
	for _, row := range rows {
		locations[row.Key] = LocationStat{
			TotalCases:      row.Count,
			RegisteredCases: int64(row.Sum),
		}
	}

	updates, err := s.recentUpdates(ctx)
	if err != nil {
		return nil, err
	}

	return &StatsResponse{
		TotalReports:  totalReports,
		HighSeverity:  highSeverity,
		Locations:     locations,
		RecentUpdates: updates,
	}, nil
}

func (s *StatsService) recentUpdates(ctx context.Context) ([]RecentUpdate, error) {
	recentReports, err := s.reports.Find(ctx, store.Query{
		Sort:  &store.Sort{Field: "timestamp", Desc: true},
		Limit: 2,
	})
	if err != nil {
		return nil, err
	}
	recentAlerts, err := s.alerts.Find(ctx, store.Query{
		Sort:  &store.Sort{Field: "createdAt", Desc: true},
		Limit: 2,
	})
	if err != nil {
		return nil, err
	}

	updates := make([]RecentUpdate, 0, len(recentReports)+len(recentAlerts))
	for _, r := range recentReports {
		symptom := "symptoms"
		if len(r.Symptoms) > 0 {
			symptom = r.Symptoms[0]
		}
		updates = append(updates, RecentUpdate{
			Type:     "report",
			Title:    fmt.Sprintf("New Report in %s", r.Location),
			Desc:     fmt.Sprintf("%s severity case reported with %s", r.Severity, symptom),
			Time:     r.Timestamp,
			Severity: string(r.Severity),
		})
	}
	for _, a := range recentAlerts {
		updates = append(updates, RecentUpdate{
			Type:     "alert",
			Title:    fmt.Sprintf("%s Alert: %s", a.Level, a.Location),
			Desc:     a.Message,
			Time:     a.CreatedAt,
			Severity: a.Level,
		})
	}

	sort.Slice(updates, func(i, j int) bool {
		return updates[i].Time.After(updates[j].Time)
	})
	if len(updates) > 2 {
		updates = updates[:2]
	}
	return updates, nil
}
