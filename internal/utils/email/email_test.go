package email

import (
	"context"
	"errors"
	"io"
	"net/smtp"
	"strings"
	"testing"

	"github.com/Dan9191/recipe-service/internal/config"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSender(send func(e *email.Email, addr string, auth smtp.Auth) error) *Sender {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	s := NewSender(&config.Config{
		SMTPHost:    "smtp.example.com",
		SMTPPort:    "2525",
		SenderEmail: "noreply@example.com",
	}, logger)
	s.send = send
	return s
}

func TestSendWelcome(t *testing.T) {
	var got *email.Email
	var gotAddr string
	s := newTestSender(func(e *email.Email, addr string, auth smtp.Auth) error {
		got, gotAddr = e, addr
		assert.Nil(t, auth, "no auth without a username")
		return nil
	})

	require.NoError(t, s.SendWelcome(context.Background(), "cook@example.com", "Cook"))

	require.NotNil(t, got)
	assert.Equal(t, "smtp.example.com:2525", gotAddr)
	assert.Equal(t, []string{"cook@example.com"}, got.To)
	assert.Equal(t, "noreply@example.com", got.From)
	assert.True(t, strings.HasPrefix(string(got.Text), "Dear Cook,"))
}

func TestSendWelcome_Failure(t *testing.T) {
	s := newTestSender(func(*email.Email, string, smtp.Auth) error {
		return errors.New("connection refused")
	})

	err := s.SendWelcome(context.Background(), "cook@example.com", "")
	assert.ErrorContains(t, err, "connection refused")
}

func TestSendWelcome_CanceledContext(t *testing.T) {
	called := false
	s := newTestSender(func(*email.Email, string, smtp.Auth) error {
		called = true
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.SendWelcome(ctx, "cook@example.com", "Cook"), context.Canceled)
	assert.False(t, called)
}
