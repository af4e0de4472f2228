// Package mailer wraps the SMTP transport used for alert broadcast. The
// transport is treated as a black-box service; delivery is best effort and
// callers decide what to do with per-address failures.
package mailer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

const (
	maxSendAttempts = 3
	initialDelay    = 500 * time.Millisecond
	maxDelay        = 5 * time.Second
)

var ErrDisabled = errors.New("smtp transport is not enabled")

// Mailer sends one HTML message to one address.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

type Config struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer delivers through a gomail dialer, retrying transient failures
// with bounded backoff.
type SMTPMailer struct {
	cfg Config
	log *zap.Logger
}

func NewSMTP(cfg Config, log *zap.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, log: log}
}

func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	if !m.cfg.Enabled {
		return ErrDisabled
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)

	return retry.Do(
		func() error {
			return d.DialAndSend(msg)
		},
		retry.Attempts(maxSendAttempts),
		retry.Delay(initialDelay),
		retry.MaxDelay(maxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			m.log.Warn("email send retry",
				zap.String("to", to), zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
}

// AlertBody renders the broadcast email for an alert.
func AlertBody(level, location, message string) string {
	color := "#f59e0b"
	switch level {
	case "critical", "Red":
		color = "#ef4444"
	case "high", "Orange":
		color = "#f97316"
	}
	return fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; border: 1px solid #e2e8f0; border-radius: 12px; overflow: hidden;">
  <div style="background: %s; padding: 25px; text-align: center;">
    <h1 style="color: white; margin: 0; font-size: 24px; text-transform: uppercase; letter-spacing: 1px;">%s Health Alert</h1>
  </div>
  <div style="padding: 30px; background: #ffffff;">
    <h2 style="margin-top: 0; color: #1e293b; font-size: 20px;">Alert for %s</h2>
    <p style="font-size: 16px; color: #475569; line-height: 1.6; background: #f8fafc; padding: 15px; border-radius: 8px; border-left: 4px solid #cbd5e1;">%s</p>
    <div style="margin-top: 30px; padding: 15px; border-top: 1px solid #e2e8f0; font-size: 13px; color: #64748b;">
      <span><strong>Date:</strong> %s</span>
      <span style="float: right;"><strong>Source:</strong> Health Department</span>
    </div>
  </div>
  <div style="background: #f1f5f9; padding: 12px; text-align: center; border-top: 1px solid #e2e8f0; font-size: 11px; color: #94a3b8;">
    Sent via Smart Health System
  </div>
</div>`, color, level, location, message, time.Now().Format("02 Jan 2006"))
}

// AlertSubject renders the broadcast subject line.
func AlertSubject(level, location string) string {
	return fmt.Sprintf("%s ALERT: %s", strings.ToUpper(level), location)
}
