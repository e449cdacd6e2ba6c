package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSendGridMailerRequiresConfig(t *testing.T) {
	_, err := NewSendGridMailer("", "noreply@example.com", "Courses")
	assert.Error(t, err)
	_, err = NewSendGridMailer("key", "", "Courses")
	assert.Error(t, err)

	m, err := NewSendGridMailer("key", "noreply@example.com", "Courses")
	require.NoError(t, err)
	assert.Error(t, m.Send(context.Background(), Email{Subject: "no recipient"}))
}

func TestTwilioSMSValidatesInput(t *testing.T) {
	_, err := NewTwilioSMS("sid", "", "+100")
	assert.Error(t, err)

	s, err := NewTwilioSMS("sid", "token", "+15550000000")
	require.NoError(t, err)
	assert.Error(t, s.Send(context.Background(), "08123", "hello"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, "+15551111111", "hello"), context.Canceled)
}
