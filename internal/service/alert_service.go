package service

import (
	"context"
	"fmt"
	"time"

	"healthwatch/internal/model"
	"healthwatch/internal/store"

	"go.uber.org/zap"
)

// Auto-alert thresholds: locations with at least minOutbreakReports open
// reports surface as system-generated outbreak alerts.
const (
	minOutbreakReports = 3
	orangeThreshold    = 5
	redThreshold       = 10
)

type AlertService struct {
	alerts      store.Collection[*model.Alert]
	reports     store.Collection[*model.Report]
	broadcaster *Broadcaster
	populator   *store.Populator
	log         *zap.Logger
}

func NewAlertService(
	alerts store.Collection[*model.Alert],
	reports store.Collection[*model.Report],
	broadcaster *Broadcaster,
	populator *store.Populator,
	log *zap.Logger,
) *AlertService {
	return &AlertService{
		alerts:      alerts,
		reports:     reports,
		broadcaster: broadcaster,
		populator:   populator,
		log:         log,
	}
}

// List returns active alerts newest first. Community callers see only
// approved ones; workers and admins additionally get system-generated
// outbreak alerts derived from per-location report counts.
func (s *AlertService) List(ctx context.Context, role model.Role) ([]store.Doc, error) {
	filter := store.Filter{"isActive": true}
	if role == model.RoleCommunity {
		filter["status"] = string(model.AlertApproved)
	}

	alerts, err := s.alerts.Find(ctx, store.Query{
		Filter: filter,
		Sort:   &store.Sort{Field: "createdAt", Desc: true},
	})
	if err != nil {
		return nil, err
	}
	docs, err := store.ToDocs(alerts)
	if err != nil {
		return nil, err
	}
	if err := s.populator.Populate(ctx, docs, model.AlertRefs, "createdBy", "name", "email"); err != nil {
		return nil, err
	}
	if err := s.populator.Populate(ctx, docs, model.AlertRefs, "approvedBy", "name"); err != nil {
		return nil, err
	}

	if role != model.RoleCommunity {
		auto, err := s.autoAlerts(ctx)
		if err != nil {
			return nil, err
		}
		docs = append(docs, auto...)
	}
	return docs, nil
}

// autoAlerts derives outbreak notices from per-location report totals.
func (s *AlertService) autoAlerts(ctx context.Context) ([]store.Doc, error) {
	rows, err := s.reports.GroupSum(ctx, nil, "location", "")
	if err != nil {
		return nil, err
	}
	docs := make([]store.Doc, 0)
	for _, row := range rows {
		if row.Count < minOutbreakReports {
			continue
		}
		level := "Yellow"
		switch {
		case row.Count >= redThreshold:
			level = "Red"
		case row.Count >= orangeThreshold:
			level = "Orange"
		}
		docs = append(docs, store.Doc{
			"id":          fmt.Sprintf("auto-alert-%s", row.Key),
			"location":    row.Key,
			"level":       level,
			"message":     fmt.Sprintf("High number of reports (%d) in %s. Potential outbreak detected.", row.Count, row.Key),
			"reportCount": row.Count,
			"isActive":    true,
			"status":      string(model.AlertPending),
			"createdAt":   time.Now().UTC(),
		})
	}
	return docs, nil
}

// Create stores a new alert. Admin creators get immediate approval and, when
// channels are selected, a synchronous broadcast; everyone else starts
// pending with channels cleared until approval.
func (s *AlertService) Create(ctx context.Context, userID string, role model.Role, req *model.CreateAlertRequest) (store.Doc, error) {
	if !model.ValidAlertLevel(req.Level) {
		return nil, fmt.Errorf("%w: invalid alert level %q", ErrValidation, req.Level)
	}

	isAdmin := role.IsAdmin()
	audience := req.TargetAudience
	if audience == "" {
		audience = model.AudienceAffectedArea
	}

	alert := &model.Alert{
		Location:           req.Location,
		Level:              req.Level,
		Message:            req.Message,
		CreatedBy:          userID,
		IsActive:           true,
		Status:             model.AlertPending,
		TargetAudience:     audience,
		Channels:           []string{},
		ManualPhoneNumbers: orEmpty(req.ManualPhoneNumbers),
		ManualEmails:       orEmpty(req.ManualEmails),
		TargetGroups:       orEmpty(req.TargetGroups),
	}
	if isAdmin {
		now := time.Now().UTC()
		alert.Status = model.AlertApproved
		alert.ApprovedBy = userID
		alert.ApprovedAt = &now
		alert.Channels = orEmpty(req.Channels)
	}

	alert, err := s.alerts.Insert(ctx, alert)
	if err != nil {
		return nil, err
	}

	if isAdmin && len(alert.Channels) > 0 {
		summary := s.broadcaster.Broadcast(ctx, alert)
		if updated, err := s.alerts.UpdateByID(ctx, alert.ID, store.Patch{"broadcastSummary": summary}); err != nil {
			s.log.Error("failed to persist broadcast summary", zap.Error(err))
		} else {
			alert = updated
		}
	}
	return s.populatedDoc(ctx, alert)
}

// Approve transitions a pending alert to approved with the supplied delivery
// settings and triggers the broadcast. Approval of a non-pending alert fails
// with ErrAlertNotPending; re-approval is only possible once an alert is
// reset, and each broadcast overwrites the prior summary.
func (s *AlertService) Approve(ctx context.Context, id, adminID string, req *model.ApproveAlertRequest) (store.Doc, error) {
	current, err := s.alerts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != model.AlertPending {
		return nil, ErrAlertNotPending
	}

	audience := req.TargetAudience
	if audience == "" {
		audience = model.AudienceAffectedArea
	}
	alert, err := s.alerts.UpdateByID(ctx, id, store.Patch{
		"status":             string(model.AlertApproved),
		"approvedBy":         adminID,
		"approvedAt":         time.Now().UTC(),
		"channels":           orEmpty(req.Channels),
		"targetAudience":     audience,
		"manualPhoneNumbers": orEmpty(req.ManualPhoneNumbers),
		"manualEmails":       orEmpty(req.ManualEmails),
		"targetGroups":       orEmpty(req.TargetGroups),
	})
	if err != nil {
		return nil, err
	}

	if len(alert.Channels) > 0 {
		summary := s.broadcaster.Broadcast(ctx, alert)
		if updated, err := s.alerts.UpdateByID(ctx, alert.ID, store.Patch{"broadcastSummary": summary}); err != nil {
			s.log.Error("failed to persist broadcast summary", zap.Error(err))
		} else {
			alert = updated
		}
	}
	return s.populatedDoc(ctx, alert)
}

// Delete enforces the ownership rules: admins delete anything, a worker only
// their own still-pending alert.
func (s *AlertService) Delete(ctx context.Context, id, userID string, role model.Role) error {
	alert, err := s.alerts.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if !role.IsAdmin() {
		if alert.CreatedBy != userID {
			return ErrNotAllowed
		}
		if alert.Status != model.AlertPending {
			return fmt.Errorf("%w: alert is already approved or active", ErrNotAllowed)
		}
	}

	_, err = s.alerts.DeleteByID(ctx, id)
	return err
}

// SetActive toggles the active flag, stamping resolvedAt when deactivating.
func (s *AlertService) SetActive(ctx context.Context, id string, isActive bool) (store.Doc, error) {
	patch := store.Patch{"isActive": isActive}
	if isActive {
		patch["resolvedAt"] = nil
	} else {
		patch["resolvedAt"] = time.Now().UTC()
	}
	alert, err := s.alerts.UpdateByID(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	doc, err := store.ToDoc(alert)
	if err != nil {
		return nil, err
	}
	if err := s.populator.PopulateOne(ctx, doc, model.AlertRefs, "createdBy", "name", "email"); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *AlertService) populatedDoc(ctx context.Context, alert *model.Alert) (store.Doc, error) {
	doc, err := store.ToDoc(alert)
	if err != nil {
		return nil, err
	}
	if err := s.populator.PopulateOne(ctx, doc, model.AlertRefs, "createdBy", "name", "email"); err != nil {
		return nil, err
	}
	if err := s.populator.PopulateOne(ctx, doc, model.AlertRefs, "approvedBy", "name"); err != nil {
		return nil, err
	}
	return doc, nil
}

// Get returns one alert by id.
func (s *AlertService) Get(ctx context.Context, id string) (*model.Alert, error) {
	return s.alerts.FindByID(ctx, id)
}

func orEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
