package service

import (
	"context"
	"time"

	"github.com/iliyamo/voter-registry/internal/model"
)

// UserStore is the subset of the user repository the services rely on.
type UserStore interface {
	CreateAdmin(ctx context.Context, email, passwordHash, name string, now time.Time) (uint64, error)
	CreateVoter(ctx context.Context, u *model.User) (uint64, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetVoter(ctx context.Context, voterID string) (*model.User, error)
	VoterIDExists(ctx context.Context, voterID string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	EmailClaimedByOther(ctx context.Context, email, voterID string) (bool, error)
	Activate(ctx context.Context, a model.Activation) (bool, error)
	ListVoters(ctx context.Context, hasAccount *bool) ([]model.User, error)
	UpdateVoter(ctx context.Context, voterID string, fields map[string]string, now time.Time) error
	DeleteVoter(ctx context.Context, voterID string) error
}

// OTPStore persists one-time codes.
type OTPStore interface {
	Replace(ctx context.Context, o *model.OTP) error
	LatestUnverified(ctx context.Context, voterID string) (*model.OTP, error)
	FindVerified(ctx context.Context, voterID, code string) (*model.OTP, error)
	MarkVerified(ctx context.Context, id uint64, at time.Time) (bool, error)
	Delete(ctx context.Context, id uint64) error
	ConsumeVerified(ctx context.Context, voterID, code string, now time.Time) (bool, error)
	DeleteForVoter(ctx context.Context, voterID string) error
}

type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	List(ctx context.Context) ([]model.Notification, error)
}

type ReportStore interface {
	Create(ctx context.Context, r *model.Report) error
	List(ctx context.Context) ([]model.Report, error)
}

// Mailer delivers a one-time code to an address.
type Mailer interface {
	SendOTP(ctx context.Context, to, code string) error
}

// PhotoStore saves a voter photo and returns a reference to it.
type PhotoStore interface {
	Save(ctx context.Context, name string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, ref string) error
}
