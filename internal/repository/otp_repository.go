package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/voter-registry/internal/model"
)

const otpColumns = "id,voter_id,email,code,issued_at,expires_at,verified,verified_at"

// OTPRepo persists one-time codes in the otp_codes table.
type OTPRepo struct{ DB *sql.DB }

func NewOTPRepo(db *sql.DB) *OTPRepo { return &OTPRepo{DB: db} }

func scanOTP(s rowScanner) (*model.OTP, error) {
	var (
		o          model.OTP
		verifiedAt sql.NullTime
	)
	if err := s.Scan(&o.ID, &o.VoterID, &o.Email, &o.Code, &o.IssuedAt, &o.ExpiresAt, &o.Verified, &verifiedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		o.VerifiedAt = &t
	}
	return &o, nil
}

// Replace deletes every code held for o.VoterID and inserts o in one
// transaction, so a voter never has two authoritative codes.
func (r *OTPRepo) Replace(ctx context.Context, o *model.OTP) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM otp_codes WHERE voter_id=?", o.VoterID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO otp_codes (voter_id,email,code,issued_at,expires_at,verified) VALUES (?,?,?,?,?,0)",
		o.VoterID, o.Email, o.Code, o.IssuedAt, o.ExpiresAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	o.ID = uint64(id)
	return nil
}

// LatestUnverified returns the newest unverified code of a voter.
func (r *OTPRepo) LatestUnverified(ctx context.Context, voterID string) (*model.OTP, error) {
	return scanOTP(r.DB.QueryRowContext(ctx,
		"SELECT "+otpColumns+" FROM otp_codes WHERE voter_id=? AND verified=0 ORDER BY issued_at DESC, id DESC LIMIT 1",
		voterID))
}

// FindVerified returns the verified code of a voter matching code.
func (r *OTPRepo) FindVerified(ctx context.Context, voterID, code string) (*model.OTP, error) {
	return scanOTP(r.DB.QueryRowContext(ctx,
		"SELECT "+otpColumns+" FROM otp_codes WHERE voter_id=? AND code=? AND verified=1 ORDER BY id DESC LIMIT 1",
		voterID, code))
}

// MarkVerified flips a code to verified.  It returns false when the row is
// gone or was verified by a concurrent request.
func (r *OTPRepo) MarkVerified(ctx context.Context, id uint64, at time.Time) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE otp_codes SET verified=1, verified_at=? WHERE id=? AND verified=0", at, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// Delete removes a single code.
func (r *OTPRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM otp_codes WHERE id=?", id)
	return err
}

// ConsumeVerified deletes the verified, unexpired code matching voterID and
// code in one statement.  Only one caller can win the delete, which keeps a
// verified code from being spent twice.
func (r *OTPRepo) ConsumeVerified(ctx context.Context, voterID, code string, now time.Time) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM otp_codes WHERE voter_id=? AND code=? AND verified=1 AND expires_at>=?",
		voterID, code, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteForVoter removes every code held for a voter.
func (r *OTPRepo) DeleteForVoter(ctx context.Context, voterID string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM otp_codes WHERE voter_id=?", voterID)
	return err
}
