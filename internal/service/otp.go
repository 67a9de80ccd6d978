package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/voter-registry/internal/metrics"
	"github.com/iliyamo/voter-registry/internal/model"
	"github.com/iliyamo/voter-registry/internal/repository"
	"github.com/iliyamo/voter-registry/internal/utils"
)

// DefaultOTPTTL is the lifetime of a one-time code.
const DefaultOTPTTL = 5 * time.Minute

// OTPEngine issues, verifies and consumes one-time codes bound to a voter.
type OTPEngine struct {
	Store       OTPStore
	Mail        Mailer
	TTL         time.Duration
	MailTimeout time.Duration
	Metrics     *metrics.Metrics
	Log         *zap.Logger

	Now     func() time.Time
	NewCode func() (string, error)
}

func NewOTPEngine(store OTPStore, mail Mailer, ttl, mailTimeout time.Duration, m *metrics.Metrics, log *zap.Logger) *OTPEngine {
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	if mailTimeout <= 0 {
		mailTimeout = 10 * time.Second
	}
	return &OTPEngine{
		Store:       store,
		Mail:        mail,
		TTL:         ttl,
		MailTimeout: mailTimeout,
		Metrics:     m,
		Log:         log.Named("otp"),
		Now:         func() time.Time { return time.Now().UTC() },
		NewCode:     utils.NewOTPCode,
	}
}

// Issue replaces every code held for voterID with a fresh one and mails it
// to email.  A delivery failure is logged and counted but never returned.
func (e *OTPEngine) Issue(ctx context.Context, voterID, email string) (string, error) {
	code, err := e.NewCode()
	if err != nil {
		return "", dependency("generate otp", err)
	}
	now := e.Now()
	rec := &model.OTP{
		VoterID:   voterID,
		Email:     email,
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(e.TTL),
	}
	if err := e.Store.Replace(ctx, rec); err != nil {
		return "", dependency("store otp", err)
	}
	e.Metrics.OTPIssued.Inc()

	e.deliver(ctx, voterID, email, code)
	return code, nil
}

// deliver hands the code to the mailer and waits at most MailTimeout.
func (e *OTPEngine) deliver(ctx context.Context, voterID, email, code string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.MailTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- e.Mail.SendOTP(ctx, email, code) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		e.Metrics.OTPDeliveryFailures.Inc()
		e.Log.Warn("otp delivery failed", zap.String("voter_id", voterID), zap.String("email", email), zap.Error(err))
	}
}

// Verify checks code against the voter's authoritative code.  An expired
// code fails with ErrOTPExpired whatever was typed, and is deleted.  A wrong
// code, or no pending code at all, fails with ErrOTPNotFound.
func (e *OTPEngine) Verify(ctx context.Context, voterID, code string) error {
	rec, err := e.Store.LatestUnverified(ctx, voterID)
	if errors.Is(err, repository.ErrNotFound) {
		e.count("not_found")
		return ErrOTPNotFound
	}
	if err != nil {
		return dependency("load otp", err)
	}

	now := e.Now()
	if rec.Expired(now) {
		if err := e.Store.Delete(ctx, rec.ID); err != nil {
			e.Log.Warn("delete expired otp failed", zap.Uint64("otp_id", rec.ID), zap.Error(err))
		}
		e.count("expired")
		return ErrOTPExpired
	}
	if !utils.CodesEqual(rec.Code, code) {
		e.count("mismatch")
		return ErrOTPNotFound
	}

	ok, err := e.Store.MarkVerified(ctx, rec.ID, now)
	if err != nil {
		return dependency("mark otp verified", err)
	}
	if !ok {
		// superseded or verified by a concurrent request
		e.count("not_found")
		return ErrOTPNotFound
	}
	e.count("verified")
	return nil
}

// Consume spends a verified code.  The delete of the matching record is a
// single conditional statement so two signups cannot share one code.  Any
// other codes left for the voter are removed afterwards.
func (e *OTPEngine) Consume(ctx context.Context, voterID, code string) error {
	now := e.Now()
	ok, err := e.Store.ConsumeVerified(ctx, voterID, code, now)
	if err != nil {
		return dependency("consume otp", err)
	}
	if !ok {
		rec, err := e.Store.FindVerified(ctx, voterID, code)
		if err == nil && rec.Expired(now) {
			return ErrOTPExpired
		}
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return dependency("load verified otp", err)
		}
		return ErrOTPNotFound
	}
	if err := e.Store.DeleteForVoter(ctx, voterID); err != nil {
		e.Log.Warn("otp cleanup failed", zap.String("voter_id", voterID), zap.Error(err))
	}
	return nil
}

func (e *OTPEngine) count(result string) {
	e.Metrics.OTPVerifications.WithLabelValues(result).Inc()
}
