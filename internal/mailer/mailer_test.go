package mailer

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/gomail.v2"

	"github.com/iliyamo/voter-registry/internal/config"
)

type captureSender struct {
	sent []*gomail.Message
	err  error
}

func (c *captureSender) DialAndSend(m ...*gomail.Message) error {
	c.sent = append(c.sent, m...)
	return c.err
}

func TestSMTPMailerBuildsMessage(t *testing.T) {
	s := &captureSender{}
	m := &SMTPMailer{From: "desk@gmail.com", TTL: 5 * time.Minute, Sender: s, Log: zap.NewNop()}

	require.NoError(t, m.SendOTP(context.Background(), "a@gmail.com", "123456"))
	require.Len(t, s.sent, 1)
	assert.Equal(t, []string{"a@gmail.com"}, s.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"desk@gmail.com"}, s.sent[0].GetHeader("From"))

	var buf bytes.Buffer
	_, err := s.sent[0].WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "123456")
	assert.Contains(t, buf.String(), "5 minutes")
}

func TestSMTPMailerWrapsRelayError(t *testing.T) {
	s := &captureSender{err: errors.New("535 auth failed")}
	m := &SMTPMailer{Sender: s, Log: zap.NewNop()}
	err := m.SendOTP(context.Background(), "a@gmail.com", "123456")
	assert.ErrorContains(t, err, "535 auth failed")
}

func TestSMTPMailerHonoursCancelledContext(t *testing.T) {
	s := &captureSender{}
	m := &SMTPMailer{Sender: s, Log: zap.NewNop()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.SendOTP(ctx, "a@gmail.com", "123456"), context.Canceled)
	assert.Empty(t, s.sent)
}

func TestLogMailerHidesCodeOutsideDev(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := &LogMailer{Log: zap.New(core)}
	require.NoError(t, m.SendOTP(context.Background(), "a@gmail.com", "123456"))
	require.Equal(t, 1, logs.Len())
	_, hasCode := logs.All()[0].ContextMap()["code"]
	assert.False(t, hasCode)

	core, logs = observer.New(zap.InfoLevel)
	m = &LogMailer{ShowCode: true, Log: zap.New(core)}
	require.NoError(t, m.SendOTP(context.Background(), "a@gmail.com", "123456"))
	assert.Equal(t, "123456", logs.All()[0].ContextMap()["code"])
}

func TestNewSelectsBackend(t *testing.T) {
	_, isLog := New(config.MailConfig{}, time.Minute, "prod", zap.NewNop()).(*LogMailer)
	assert.True(t, isLog)
	_, isSMTP := New(config.MailConfig{Host: "smtp.gmail.com", Port: 587, User: "u", Password: "p"}, time.Minute, "prod", zap.NewNop()).(*SMTPMailer)
	assert.True(t, isSMTP)
}
