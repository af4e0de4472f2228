package service

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"healthwatch/internal/model"
	"healthwatch/internal/store"

	"go.uber.org/zap"
)

type ReportService struct {
	reports   store.Collection[*model.Report]
	populator *store.Populator
	log       *zap.Logger
}

func NewReportService(reports store.Collection[*model.Report], populator *store.Populator, log *zap.Logger) *ReportService {
	return &ReportService{reports: reports, populator: populator, log: log}
}

// List returns all reports newest first, with the submitting user resolved to
// name and email.
func (s *ReportService) List(ctx context.Context) ([]store.Doc, error) {
	reports, err := s.reports.Find(ctx, store.Query{
		Sort: &store.Sort{Field: "timestamp", Desc: true},
	})
	if err != nil {
		return nil, err
	}
	docs, err := store.ToDocs(reports)
	if err != nil {
		return nil, err
	}
	if err := s.populator.Populate(ctx, docs, model.ReportRefs, "userId", "name", "email"); err != nil {
		return nil, err
	}
	return docs, nil
}

// Create validates the submission and fans it out into count near-identical
// records. Returns the created records with the user reference resolved.
func (s *ReportService) Create(ctx context.Context, userID string, req *model.CreateReportRequest) ([]store.Doc, error) {
	if !model.ValidWaterSource(req.WaterSource) {
		return nil, fmt.Errorf("%w: invalid water source %q", ErrValidation, req.WaterSource)
	}
	if len(req.Symptoms) == 0 {
		return nil, fmt.Errorf("%w: at least one symptom is required", ErrValidation)
	}

	severity := req.Severity
	switch severity {
	case model.SeverityLow, model.SeverityMedium, model.SeverityHigh:
	default:
		severity = model.SeverityLow
	}
	state := req.State
	if state == "" {
		state = defaultLocation
	}
	count := req.Count
	if count <= 0 {
		count = 1
	}
	registered := req.RegisteredCases
	if registered < 0 {
		registered = 0
	}

	created := make([]*model.Report, 0, count)
	for i := 0; i < count; i++ {
		rec, err := s.reports.Insert(ctx, &model.Report{
			UserID:          userID,
			State:           state,
			Location:        req.Location,
			Symptoms:        req.Symptoms,
			WaterSource:     req.WaterSource,
			Severity:        severity,
			Notes:           req.Notes,
			RegisteredCases: registered,
			Status:          model.ReportPending,
			Timestamp:       time.Now().UTC(),
		})
		if err != nil {
			return nil, err
		}
		created = append(created, rec)
	}
	s.log.Info("reports created",
		zap.Int("count", count), zap.String("location", req.Location))

	docs, err := store.ToDocs(created)
	if err != nil {
		return nil, err
	}
	if err := s.populator.Populate(ctx, docs, model.ReportRefs, "userId", "name", "email"); err != nil {
		return nil, err
	}
	return docs, nil
}

// DeleteByLocation removes every report whose location matches
// case-insensitively. Returns ErrNoReports when nothing matched.
func (s *ReportService) DeleteByLocation(ctx context.Context, location string) (int64, error) {
	removed, err := s.reports.DeleteMany(ctx, store.Filter{
		"location": store.Regex{Pattern: "^" + regexp.QuoteMeta(location) + "$", Insensitive: true},
	})
	if err != nil {
		return 0, err
	}
	if removed == 0 {
		return 0, ErrNoReports
	}
	s.log.Info("reports deleted by location",
		zap.String("location", location), zap.Int64("removed", removed))
	return removed, nil
}

// MapData returns the anonymized projection for the public map.
func (s *ReportService) MapData(ctx context.Context) ([]model.MapPoint, error) {
	reports, err := s.reports.Find(ctx, store.Query{
		Sort: &store.Sort{Field: "timestamp", Desc: true},
	})
	if err != nil {
		return nil, err
	}
	points := make([]model.MapPoint, 0, len(reports))
	for _, r := range reports {
		points = append(points, r.MapPoint())
	}
	return points, nil
}
