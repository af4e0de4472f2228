package model

import (
	"time"

	"healthwatch/internal/store"
)

type AlertStatus string

const (
	AlertPending  AlertStatus = "pending"
	AlertApproved AlertStatus = "approved"
	AlertRejected AlertStatus = "rejected"
)

// AlertLevels accepts both the lower-case and the color-coded vocabularies
// the frontend sends.
var AlertLevels = []string{
	"low", "medium", "high", "critical",
	"Low", "Medium", "High",
	"Yellow", "Orange", "Red",
}

func ValidAlertLevel(s string) bool {
	for _, l := range AlertLevels {
		if l == s {
			return true
		}
	}
	return false
}

// Broadcast channels and audience selectors.
const (
	ChannelSMS   = "sms"
	ChannelEmail = "email"

	AudienceAffectedArea = "affected_area"
	AudienceDistrict     = "district"
)

// RecipientTypeCount tallies matched users by role. A national_admin folds
// into the admin bucket.
type RecipientTypeCount struct {
	Community    int `json:"community"`
	HealthWorker int `json:"health_worker"`
	Admin        int `json:"admin"`
}

type ManualRecipients struct {
	Phones int `json:"phones"`
	Emails int `json:"emails"`
}

// BroadcastSummary is the audit record of a dispatch attempt. TotalSent is
// the arithmetic sum of the three source sizes before deduplication; the
// actual dispatch count equals the deduplicated address set.
type BroadcastSummary struct {
	TotalSent          int                `json:"totalSent"`
	RecipientTypeCount RecipientTypeCount `json:"recipientTypeCount"`
	SentAt             time.Time          `json:"sentAt"`
	ManualRecipients   ManualRecipients   `json:"manualRecipients"`
	GroupRecipients    int                `json:"groupRecipients"`
}

// Alert is a broadcastable health-hazard notice subject to an approval
// workflow. Re-approval overwrites the prior broadcast summary.
type Alert struct {
	store.Meta
	Location           string            `json:"location"`
	Level              string            `json:"level"`
	Message            string            `json:"message"`
	ReportCount        int               `json:"reportCount"`
	CreatedBy          string            `json:"createdBy,omitempty"`
	IsActive           bool              `json:"isActive"`
	Status             AlertStatus       `json:"status"`
	ApprovedBy         string            `json:"approvedBy,omitempty"`
	ApprovedAt         *time.Time        `json:"approvedAt,omitempty"`
	Channels           []string          `json:"channels"`
	TargetAudience     string            `json:"targetAudience"`
	ResolvedAt         *time.Time        `json:"resolvedAt,omitempty"`
	BroadcastSummary   *BroadcastSummary `json:"broadcastSummary,omitempty"`
	ManualPhoneNumbers []string          `json:"manualPhoneNumbers"`
	ManualEmails       []string          `json:"manualEmails"`
	TargetGroups       []string          `json:"targetGroups"`
}

const AlertCollection = "alerts"

var AlertRefs = store.RefTable{
	"createdBy":    UserCollection,
	"approvedBy":   UserCollection,
	"targetGroups": ContactGroupCollection,
}

type CreateAlertRequest struct {
	Location           string   `json:"location" binding:"required"`
	Level              string   `json:"level" binding:"required"`
	Message            string   `json:"message" binding:"required"`
	Channels           []string `json:"channels"`
	TargetAudience     string   `json:"targetAudience"`
	ManualPhoneNumbers []string `json:"manualPhoneNumbers"`
	ManualEmails       []string `json:"manualEmails"`
	TargetGroups       []string `json:"targetGroups"`
}

type ApproveAlertRequest struct {
	Channels           []string `json:"channels"`
	TargetAudience     string   `json:"targetAudience"`
	ManualPhoneNumbers []string `json:"manualPhoneNumbers"`
	ManualEmails       []string `json:"manualEmails"`
	TargetGroups       []string `json:"targetGroups"`
}

type UpdateAlertRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}
