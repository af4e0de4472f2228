package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSendDisabled(t *testing.T) {
	m := NewSMTP(Config{Enabled: false}, zap.NewNop())
	err := m.Send("a@x.com", "subject", "<p>body</p>")
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestAlertSubject(t *testing.T) {
	assert.Equal(t, "CRITICAL ALERT: Majuli", AlertSubject("critical", "Majuli"))
	assert.Equal(t, "RED ALERT: Jorhat", AlertSubject("Red", "Jorhat"))
}

func TestAlertBodyColorByLevel(t *testing.T) {
	assert.Contains(t, AlertBody("critical", "Majuli", "evacuate"), "#ef4444")
	assert.Contains(t, AlertBody("Red", "Majuli", "evacuate"), "#ef4444")
	assert.Contains(t, AlertBody("high", "Majuli", "boil water"), "#f97316")
	assert.Contains(t, AlertBody("Low", "Majuli", "advisory"), "#f59e0b")

	body := AlertBody("High", "Majuli", "boil water")
	assert.Contains(t, body, "Alert for Majuli")
	assert.Contains(t, body, "boil water")
}
