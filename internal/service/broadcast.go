package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"healthwatch/internal/mailer"
	"healthwatch/internal/model"
	"healthwatch/internal/store"

	"go.uber.org/zap"
)

// Broadcaster resolves an approved alert's recipient set from three sources
// (audience-matched users, manual addresses, contact-group membership),
// deduplicates, and dispatches one email per unique address. The whole
// broadcast is best effort: per-address failures are logged and never abort
// the batch, and a resolution failure degrades to whatever was tallied so
// far. Callers persist the returned summary onto the alert.
type Broadcaster struct {
	users  store.Collection[*model.User]
	groups store.Collection[*model.ContactGroup]
	mail   mailer.Mailer
	log    *zap.Logger
}

func NewBroadcaster(users store.Collection[*model.User], groups store.Collection[*model.ContactGroup], mail mailer.Mailer, log *zap.Logger) *Broadcaster {
	return &Broadcaster{users: users, groups: groups, mail: mail, log: log}
}

// deliverable applies the address rule inherited from the original system: a
// trimmed, non-empty address containing an @ is considered deliverable.
func deliverable(addr string) (string, bool) {
	clean := strings.TrimSpace(addr)
	return clean, clean != "" && strings.Contains(clean, "@")
}

// Broadcast computes the delivery summary for an alert and, when the email
// channel is selected, dispatches to every unique address concurrently.
//
// TotalSent is intentionally the sum of the three source sizes before
// deduplication while the dispatch count is the deduplicated set size; the
// summary preserves the original system's accounting.
func (b *Broadcaster) Broadcast(ctx context.Context, alert *model.Alert) *model.BroadcastSummary {
	summary := &model.BroadcastSummary{SentAt: time.Now().UTC()}
	recipients := make(map[string]struct{})

	b.log.Info("processing alert broadcast",
		zap.String("location", alert.Location),
		zap.String("audience", alert.TargetAudience))

	// 1. Audience-matched users.
	var filter store.Filter
	switch alert.TargetAudience {
	case model.AudienceAffectedArea, model.AudienceDistrict:
		filter = store.Filter{
			"location": store.Regex{Pattern: alert.Location, Insensitive: true},
		}
	default:
		filter = store.Filter{}
	}

	users, err := b.users.Find(ctx, store.Query{Filter: filter})
	if err != nil {
		b.log.Error("broadcast recipient resolution failed", zap.Error(err))
		return summary
	}
	for _, u := range users {
		if clean, ok := deliverable(u.Email); ok {
			recipients[clean] = struct{}{}
		}
		switch u.Role {
		case model.RoleCommunity:
			summary.RecipientTypeCount.Community++
		case model.RoleHealthWorker:
			summary.RecipientTypeCount.HealthWorker++
		case model.RoleAdmin, model.RoleNationalAdmin:
			summary.RecipientTypeCount.Admin++
		}
	}
	summary.TotalSent = len(users)

	// 2. Manual addresses. The raw list length is recorded pre-validation.
	if len(alert.ManualEmails) > 0 {
		summary.ManualRecipients.Emails = len(alert.ManualEmails)
		for _, e := range alert.ManualEmails {
			if clean, ok := deliverable(e); ok {
				recipients[clean] = struct{}{}
			}
		}
		summary.TotalSent += len(alert.ManualEmails)
	}
	summary.ManualRecipients.Phones = len(alert.ManualPhoneNumbers)

	// 3. Contact-group membership. The contact count is recorded
	// pre-deduplication.
	if len(alert.TargetGroups) > 0 {
		groups, err := b.groups.Find(ctx, store.Query{
			Filter: store.Filter{"id": store.In(alert.TargetGroups)},
		})
		if err != nil {
			b.log.Error("contact group resolution failed", zap.Error(err))
		} else {
			for _, g := range groups {
				summary.GroupRecipients += len(g.Contacts)
				for _, c := range g.Contacts {
					if clean, ok := deliverable(c); ok {
						recipients[clean] = struct{}{}
					}
				}
			}
			summary.TotalSent += summary.GroupRecipients
		}
	}

	b.log.Info("collected broadcast recipients",
		zap.Int("unique", len(recipients)), zap.Int("totalSent", summary.TotalSent))

	if len(recipients) > 0 && hasChannel(alert.Channels, model.ChannelEmail) {
		b.dispatch(alert, recipients)
	}
	return summary
}

// dispatch fires one send per unique address concurrently and joins before
// returning. Failures are logged per address and swallowed.
func (b *Broadcaster) dispatch(alert *model.Alert, recipients map[string]struct{}) {
	subject := mailer.AlertSubject(alert.Level, alert.Location)
	body := mailer.AlertBody(alert.Level, alert.Location, alert.Message)

	var wg sync.WaitGroup
	for addr := range recipients {
		wg.Add(1)
		go func(to string) {
			defer wg.Done()
			if err := b.mail.Send(to, subject, body); err != nil {
				b.log.Warn("broadcast email failed",
					zap.String("to", to), zap.Error(err))
				return
			}
			b.log.Debug("broadcast email sent", zap.String("to", to))
		}(addr)
	}
	wg.Wait()
}

func hasChannel(channels []string, want string) bool {
	for _, c := range channels {
		if c == want {
			return true
		}
	}
	return false
}
