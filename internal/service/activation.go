package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/voter-registry/internal/metrics"
	"github.com/iliyamo/voter-registry/internal/model"
	"github.com/iliyamo/voter-registry/internal/queue"
	"github.com/iliyamo/voter-registry/internal/repository"
	"github.com/iliyamo/voter-registry/internal/utils"
)

// ActivationService drives a provisioned voter to an active account and
// authenticates users afterwards.
type ActivationService struct {
	Users      UserStore
	OTP        *OTPEngine
	Tokens     *utils.TokenService
	Events     EventPublisher
	Metrics    *metrics.Metrics
	Log        *zap.Logger
	BcryptCost int
	Now        func() time.Time
}

func NewActivationService(users UserStore, otp *OTPEngine, tokens *utils.TokenService, events EventPublisher,
	m *metrics.Metrics, log *zap.Logger, bcryptCost int) *ActivationService {
	if events == nil {
		events = NopPublisher{}
	}
	return &ActivationService{
		Users:      users,
		OTP:        otp,
		Tokens:     tokens,
		Events:     events,
		Metrics:    m,
		Log:        log.Named("activation"),
		BcryptCost: bcryptCost,
		Now:        func() time.Time { return time.Now().UTC() },
	}
}

// VoterSummary is what a voter sees after entering a valid voter ID.  Email
// is the only address a code will ever be sent to.
type VoterSummary struct {
	VoterID string
	Name    string
	Email   string
}

// VerifyVoterID looks up a provisioned voter.
func (s *ActivationService) VerifyVoterID(ctx context.Context, voterID string) (*VoterSummary, error) {
	voterID = strings.TrimSpace(voterID)
	if voterID == "" {
		return nil, invalid("Voter ID is required")
	}
	v, err := s.voter(ctx, voterID)
	if err != nil {
		return nil, err
	}
	if v.HasAccount {
		return nil, ErrAlreadyActive
	}
	return &VoterSummary{VoterID: v.VoterID, Name: v.FullName, Email: v.Email}, nil
}

// RequestOTP issues a code for a provisioned voter.  email must equal the
// admin-recorded address, compared case-insensitively; an unknown voter ID
// reports the same mismatch so the endpoint cannot be used to probe IDs.
func (s *ActivationService) RequestOTP(ctx context.Context, voterID, email string) error {
	voterID = strings.TrimSpace(voterID)
	email = strings.TrimSpace(email)
	if voterID == "" || email == "" {
		return invalid("Voter ID and email are required")
	}
	v, err := s.voter(ctx, voterID)
	if errors.Is(err, ErrVoterNotFound) {
		return ErrEmailMismatch
	}
	if err != nil {
		return err
	}
	if !strings.EqualFold(v.Email, email) {
		return ErrEmailMismatch
	}
	if v.HasAccount {
		return ErrAlreadyActive
	}
	_, err = s.OTP.Issue(ctx, v.VoterID, v.Email)
	return err
}

// VerifyOTP checks a code previously sent to the voter.
func (s *ActivationService) VerifyOTP(ctx context.Context, voterID, code string) error {
	voterID = strings.TrimSpace(voterID)
	code = strings.TrimSpace(code)
	if voterID == "" || code == "" {
		return invalid("Voter ID and OTP are required")
	}
	return s.OTP.Verify(ctx, voterID, code)
}

// Signup is the body of a signup request for either role.
type Signup struct {
	UserType string
	Email    string
	Password string
	Name     string
	VoterID  string
	OTP      string
}

// Signup dispatches on UserType.  It returns the id of the active user.
func (s *ActivationService) Signup(ctx context.Context, in Signup) (uint64, error) {
	if in.Password == "" {
		return 0, invalid("Password is required")
	}
	switch strings.ToLower(strings.TrimSpace(in.UserType)) {
	case "", string(model.RoleVoter):
		u, err := s.CompleteVoterSignup(ctx, in)
		if err != nil {
			return 0, err
		}
		return u.ID, nil
	case string(model.RoleAdmin):
		return s.AdminSignup(ctx, in)
	default:
		return 0, invalid("userType must be voter or admin")
	}
}

// CompleteVoterSignup promotes a provisioned voter to an active account.
// The promotion is one conditional update of the existing row; when a
// concurrent request wins it, this call fails with ErrAlreadyActive.
func (s *ActivationService) CompleteVoterSignup(ctx context.Context, in Signup) (*model.User, error) {
	if err := checkVoterPassword(in.Password); err != nil {
		return nil, err
	}
	voterID := strings.TrimSpace(in.VoterID)
	name := strings.TrimSpace(in.Name)
	if voterID == "" || name == "" {
		return nil, invalid("Name and Voter ID are required for voter signup")
	}

	v, err := s.voter(ctx, voterID)
	if err != nil {
		return nil, err
	}
	if v.HasAccount {
		return nil, ErrAlreadyActive
	}
	if v.Email == "" {
		return nil, invalid("Email not found for this voter. Please contact admin.")
	}
	code := strings.TrimSpace(in.OTP)
	if code == "" {
		return nil, invalid("OTP verification required")
	}

	// checked before the code is spent so a conflict leaves it usable
	taken, err := s.Users.EmailClaimedByOther(ctx, v.Email, voterID)
	if err != nil {
		return nil, dependency("check email", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}

	if err := s.OTP.Consume(ctx, voterID, code); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(in.Password, s.BcryptCost)
	if err != nil {
		return nil, dependency("hash password", err)
	}
	now := s.Now()
	ok, err := s.Users.Activate(ctx, model.Activation{VoterID: voterID, Name: name, PasswordHash: hash, At: now})
	if err != nil {
		return nil, dependency("activate voter", err)
	}
	if !ok {
		if _, err := s.voter(ctx, voterID); err != nil {
			return nil, err
		}
		return nil, ErrAlreadyActive
	}

	v.PasswordHash = hash
	v.HasAccount = true
	v.Name = name
	v.AccountCreatedAt = &now
	v.UpdatedAt = now

	s.Metrics.AccountsActivated.Inc()
	s.Log.Info("voter activated", zap.String("voter_id", voterID), zap.Uint64("user_id", v.ID))
	publishQuietly(ctx, s.Events, s.Log, queue.AccountActivatedQueue, queue.AccountActivatedEvent{
		UserID:      v.ID,
		VoterID:     v.VoterID,
		Email:       v.Email,
		BranchName:  v.BranchName,
		ActivatedAt: now.Format(time.RFC3339),
	})
	return v, nil
}

// AdminSignup inserts an active admin.  There is no provisioning step.
func (s *ActivationService) AdminSignup(ctx context.Context, in Signup) (uint64, error) {
	email := normalizeEmail(in.Email)
	if err := checkAdminEmail(email); err != nil {
		return 0, err
	}
	exists, err := s.Users.EmailExists(ctx, email)
	if err != nil {
		return 0, dependency("check email", err)
	}
	if exists {
		return 0, ErrEmailTaken
	}
	if err := checkAdminPassword(in.Password); err != nil {
		return 0, err
	}
	hash, err := utils.HashPassword(in.Password, s.BcryptCost)
	if err != nil {
		return 0, dependency("hash password", err)
	}
	id, err := s.Users.CreateAdmin(ctx, email, hash, strings.TrimSpace(in.Name), s.Now())
	if errors.Is(err, repository.ErrEmailExists) {
		return 0, ErrEmailTaken
	}
	if err != nil {
		return 0, dependency("create admin", err)
	}
	s.Log.Info("admin created", zap.Uint64("user_id", id))
	return id, nil
}

// Login is the body of a login request.  UserType defaults to voter.
type Login struct {
	Email    string
	Password string
	UserType string
}

// Session is a successful login.
type Session struct {
	Token utils.AccessToken
	User  *model.User
}

// Login authenticates a user and issues a bearer token.
func (s *ActivationService) Login(ctx context.Context, in Login) (*Session, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, invalid("Email and password are required")
	}
	want := strings.ToLower(strings.TrimSpace(in.UserType))
	if want == "" {
		want = string(model.RoleVoter)
	}

	u, err := s.Users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, dependency("load user", err)
	}
	if u.PasswordHash == "" {
		return nil, ErrNotActivated
	}
	if !utils.VerifyPassword(u.PasswordHash, in.Password) {
		return nil, ErrInvalidCredentials
	}
	if string(u.Role) != want {
		return nil, &RoleMismatchError{Registered: u.Role, Requested: want}
	}

	tok, err := s.Tokens.Issue(u.ID)
	if err != nil {
		return nil, dependency("issue token", err)
	}
	return &Session{Token: tok, User: u}, nil
}

func (s *ActivationService) voter(ctx context.Context, voterID string) (*model.User, error) {
	v, err := s.Users.GetVoter(ctx, voterID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrVoterNotFound
	}
	if err != nil {
		return nil, dependency("load voter", err)
	}
	return v, nil
}
