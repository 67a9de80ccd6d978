package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/voter-registry/internal/model"
)

var otpCols = []string{"id", "voter_id", "email", "code", "issued_at", "expires_at", "verified", "verified_at"}

func newOTPMock(t *testing.T) (*OTPRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewOTPRepo(db), mock
}

func TestReplaceDeletesOldCodesInTransaction(t *testing.T) {
	repo, mock := newOTPMock(t)
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	o := &model.OTP{VoterID: "1234", Email: "a@gmail.com", Code: "123456", IssuedAt: now, ExpiresAt: now.Add(5 * time.Minute)}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM otp_codes WHERE voter_id=?")).
		WithArgs("1234").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO otp_codes").
		WithArgs("1234", "a@gmail.com", "123456", now, now.Add(5*time.Minute)).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Replace(context.Background(), o))
	assert.Equal(t, uint64(11), o.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceRollsBackOnInsertFailure(t *testing.T) {
	repo, mock := newOTPMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM otp_codes").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO otp_codes").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.Replace(context.Background(), &model.OTP{VoterID: "1234"})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestUnverified(t *testing.T) {
	repo, mock := newOTPMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE voter_id=? AND verified=0 ORDER BY issued_at DESC")).
		WithArgs("1234").
		WillReturnRows(sqlmock.NewRows(otpCols).AddRow(3, "1234", "a@gmail.com", "654321", now, now.Add(time.Minute), false, nil))

	o, err := repo.LatestUnverified(context.Background(), "1234")
	require.NoError(t, err)
	assert.Equal(t, "654321", o.Code)
	assert.False(t, o.Verified)
	assert.Nil(t, o.VerifiedAt)

	mock.ExpectQuery("FROM otp_codes").WithArgs("1234").WillReturnRows(sqlmock.NewRows(otpCols))
	_, err = repo.LatestUnverified(context.Background(), "1234")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMarkVerifiedOnlyOnce(t *testing.T) {
	repo, mock := newOTPMock(t)
	at := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("WHERE id=? AND verified=0")).WithArgs(at, uint64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("WHERE id=? AND verified=0")).WithArgs(at, uint64(3)).WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.MarkVerified(context.Background(), 3, at)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.MarkVerified(context.Background(), 3, at)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConsumeVerified(t *testing.T) {
	repo, mock := newOTPMock(t)
	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM otp_codes WHERE voter_id=? AND code=? AND verified=1 AND expires_at>=?")).
		WithArgs("1234", "123456", now).WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.ConsumeVerified(context.Background(), "1234", "123456", now)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
