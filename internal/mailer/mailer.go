// Package mailer delivers one-time codes by email.
package mailer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/iliyamo/voter-registry/internal/config"
)

const subject = "Voter Registry - OTP Verification"

// Sender abstracts the gomail dialer so tests can capture messages.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends codes through an SMTP relay with STARTTLS.
type SMTPMailer struct {
	From   string
	TTL    time.Duration
	Sender Sender
	Log    *zap.Logger
}

func NewSMTPMailer(cfg config.MailConfig, ttl time.Duration, log *zap.Logger) *SMTPMailer {
	return &SMTPMailer{
		From:   cfg.From,
		TTL:    ttl,
		Sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		Log:    log.Named("mailer"),
	}
}

// SendOTP builds the message and hands it to the relay.  gomail has no
// context support, so ctx is only checked before dialing.
func (m *SMTPMailer) SendOTP(ctx context.Context, to, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body(code, m.TTL))

	if err := m.Sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("send otp mail: %w", err)
	}
	m.Log.Info("otp email sent", zap.String("to", to))
	return nil
}

func body(code string, ttl time.Duration) string {
	return fmt.Sprintf("Hello,\n\nYour one-time code is: %s\n\nThis code is valid for %d minutes.\n\n"+
		"If you did not request this code, please ignore this email.\n", code, int(ttl.Minutes()))
}

// LogMailer is used when no SMTP credentials are configured.  It logs the
// destination, and the code itself only when ShowCode is set (dev).
type LogMailer struct {
	ShowCode bool
	Log      *zap.Logger
}

func NewLogMailer(showCode bool, log *zap.Logger) *LogMailer {
	return &LogMailer{ShowCode: showCode, Log: log.Named("mailer")}
}

func (m *LogMailer) SendOTP(_ context.Context, to, code string) error {
	fields := []zap.Field{zap.String("to", to)}
	if m.ShowCode {
		fields = append(fields, zap.String("code", code))
	}
	m.Log.Info("smtp not configured, otp not emailed", fields...)
	return nil
}

// Mailer is implemented by both sinks.
type Mailer interface {
	SendOTP(ctx context.Context, to, code string) error
}

// New picks the SMTP mailer when credentials are present.
func New(cfg config.MailConfig, ttl time.Duration, appEnv string, log *zap.Logger) Mailer {
	if cfg.User == "" || cfg.Password == "" {
		return NewLogMailer(appEnv == "dev", log)
	}
	return NewSMTPMailer(cfg, ttl, log)
}
