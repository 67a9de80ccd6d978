package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/voter-registry/internal/metrics"
	"github.com/iliyamo/voter-registry/internal/model"
	"github.com/iliyamo/voter-registry/internal/repository"
	"github.com/iliyamo/voter-registry/internal/utils"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }
func newClock() *clock                   { return &clock{t: time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)} }

// memUsers mirrors the unique keys and conditional updates of UserRepo.
type memUsers struct {
	mu   sync.Mutex
	rows map[uint64]*model.User
	next uint64
	err  error
}

func newMemUsers() *memUsers { return &memUsers{rows: map[uint64]*model.User{}} }

func (m *memUsers) clash(email, voterID string, except uint64) error {
	for id, u := range m.rows {
		if id == except {
			continue
		}
		if email != "" && u.Email == email {
			return repository.ErrEmailExists
		}
		if voterID != "" && u.VoterID == voterID {
			return repository.ErrVoterIDExists
		}
	}
	return nil
}

func (m *memUsers) CreateAdmin(_ context.Context, email, hash, name string, now time.Time) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.clash(email, "", 0); err != nil {
		return 0, err
	}
	m.next++
	m.rows[m.next] = &model.User{ID: m.next, Email: email, PasswordHash: hash, Role: model.RoleAdmin,
		HasAccount: true, Name: name, AccountCreatedAt: &now, CreatedAt: now, UpdatedAt: now}
	return m.next, nil
}

func (m *memUsers) CreateVoter(_ context.Context, u *model.User) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	if err := m.clash(u.Email, u.VoterID, 0); err != nil {
		return 0, err
	}
	m.next++
	u.ID = m.next
	cp := *u
	m.rows[u.ID] = &cp
	return u.ID, nil
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.rows[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) find(pred func(*model.User) bool) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if pred(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.Email == email })
}

func (m *memUsers) GetVoter(_ context.Context, voterID string) (*model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.find(func(u *model.User) bool { return u.VoterID == voterID && u.Role == model.RoleVoter })
}

func (m *memUsers) VoterIDExists(ctx context.Context, voterID string) (bool, error) {
	_, err := m.find(func(u *model.User) bool { return u.VoterID == voterID })
	return err == nil, nil
}

func (m *memUsers) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := m.find(func(u *model.User) bool { return u.Email == email })
	return err == nil, nil
}

func (m *memUsers) EmailClaimedByOther(_ context.Context, email, voterID string) (bool, error) {
	_, err := m.find(func(u *model.User) bool { return u.Email == email && u.HasAccount && u.VoterID != voterID })
	return err == nil, nil
}

func (m *memUsers) Activate(_ context.Context, a model.Activation) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.VoterID == a.VoterID && u.Role == model.RoleVoter && !u.HasAccount {
			at := a.At
			u.HasAccount, u.PasswordHash, u.Name, u.AccountCreatedAt, u.UpdatedAt = true, a.PasswordHash, a.Name, &at, a.At
			return true, nil
		}
	}
	return false, nil
}

func (m *memUsers) ListVoters(_ context.Context, hasAccount *bool) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.User{}
	for _, u := range m.rows {
		if u.Role != model.RoleVoter || (hasAccount != nil && u.HasAccount != *hasAccount) {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memUsers) UpdateVoter(_ context.Context, voterID string, fields map[string]string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, u := range m.rows {
		if u.VoterID != voterID || u.Role != model.RoleVoter {
			continue
		}
		if e, ok := fields["email"]; ok {
			if err := m.clash(e, "", id); err != nil {
				return err
			}
		}
		for k, v := range fields {
			switch k {
			case "full_name":
				u.FullName = v
			case "address":
				u.Address = v
			case "email":
				u.Email = v
			case "phone_no":
				u.PhoneNo = v
			case "branch_name":
				u.BranchName = v
			case "date_of_birth":
				u.DateOfBirth = v
			case "photo_url":
				u.PhotoURL = v
			}
		}
		u.UpdatedAt = now
		return nil
	}
	return repository.ErrNotFound
}

func (m *memUsers) DeleteVoter(_ context.Context, voterID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, u := range m.rows {
		if u.VoterID == voterID && u.Role == model.RoleVoter {
			delete(m.rows, id)
			return nil
		}
	}
	return repository.ErrNotFound
}

// memOTPs mirrors OTPRepo.
type memOTPs struct {
	mu   sync.Mutex
	rows []*model.OTP
	next uint64
}

func (m *memOTPs) Replace(_ context.Context, o *model.OTP) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.rows[:0]
	for _, r := range m.rows {
		if r.VoterID != o.VoterID {
			kept = append(kept, r)
		}
	}
	m.next++
	o.ID = m.next
	cp := *o
	m.rows = append(kept, &cp)
	return nil
}

func (m *memOTPs) LatestUnverified(_ context.Context, voterID string) (*model.OTP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.rows) - 1; i >= 0; i-- {
		if r := m.rows[i]; r.VoterID == voterID && !r.Verified {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memOTPs) FindVerified(_ context.Context, voterID, code string) (*model.OTP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.VoterID == voterID && r.Code == code && r.Verified {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memOTPs) MarkVerified(_ context.Context, id uint64, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.ID == id && !r.Verified {
			r.Verified, r.VerifiedAt = true, &at
			return true, nil
		}
	}
	return false, nil
}

func (m *memOTPs) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rows {
		if r.ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memOTPs) ConsumeVerified(_ context.Context, voterID, code string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rows {
		if r.VoterID == voterID && r.Code == code && r.Verified && !now.After(r.ExpiresAt) {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memOTPs) DeleteForVoter(_ context.Context, voterID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.rows[:0]
	for _, r := range m.rows {
		if r.VoterID != voterID {
			kept = append(kept, r)
		}
	}
	m.rows = kept
	return nil
}

func (m *memOTPs) forVoter(voterID string) []model.OTP {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.OTP
	for _, r := range m.rows {
		if r.VoterID == voterID {
			out = append(out, *r)
		}
	}
	return out
}

// inbox records every code handed to the mail sink.
type inbox struct {
	mu   sync.Mutex
	sent map[string][]string
	err  error
}

func (b *inbox) SendOTP(_ context.Context, to, code string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sent == nil {
		b.sent = map[string][]string{}
	}
	b.sent[to] = append(b.sent[to], code)
	return b.err
}

func (b *inbox) last(to string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	codes := b.sent[to]
	if len(codes) == 0 {
		return ""
	}
	return codes[len(codes)-1]
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, queue string, event any) error {
	return m.Called(ctx, queue, event).Error(0)
}

type memPhotos struct {
	saved   map[string][]byte
	deleted []string
}

func (p *memPhotos) Save(_ context.Context, name string, data []byte, _ string) (string, error) {
	if p.saved == nil {
		p.saved = map[string][]byte{}
	}
	p.saved[name] = data
	return "uploads/photos/" + name, nil
}

func (p *memPhotos) Delete(_ context.Context, ref string) error {
	p.deleted = append(p.deleted, ref)
	delete(p.saved, strings.TrimPrefix(ref, "uploads/photos/"))
	return nil
}

type failingPhotos struct{}

func (failingPhotos) Save(context.Context, string, []byte, string) (string, error) {
	return "", errors.New("bucket unreachable")
}

func (failingPhotos) Delete(context.Context, string) error { return nil }

// counter reads a counter or a labelled counter child from a registry.
func counter(t *testing.T, m *metrics.Metrics, name string, labels ...string) float64 {
	t.Helper()
	fams, err := m.Registry.Gather()
	require.NoError(t, err)
	for _, f := range fams {
		if f.GetName() != "test_"+name {
			continue
		}
		for _, met := range f.GetMetric() {
			ok := true
			for i := 0; i+1 < len(labels); i += 2 {
				found := false
				for _, lp := range met.GetLabel() {
					if lp.GetName() == labels[i] && lp.GetValue() == labels[i+1] {
						found = true
					}
				}
				ok = ok && found
			}
			if ok {
				return met.GetCounter().GetValue()
			}
		}
	}
	return 0
}

// fixture wires the services over in-memory stores.
type fixture struct {
	clk        *clock
	users      *memUsers
	otps       *memOTPs
	mail       *inbox
	events     *mockPublisher
	metrics    *metrics.Metrics
	otp        *OTPEngine
	activation *ActivationService
	voters     *VoterService
	tokens     *utils.TokenService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		clk:     newClock(),
		users:   newMemUsers(),
		otps:    &memOTPs{},
		mail:    &inbox{},
		events:  &mockPublisher{},
		metrics: metrics.New("test"),
	}
	f.events.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	log := zap.NewNop()
	f.otp = NewOTPEngine(f.otps, f.mail, DefaultOTPTTL, time.Second, f.metrics, log)
	f.otp.Now = f.clk.Now

	f.tokens = utils.NewTokenService("test-secret", time.Hour)
	f.tokens.Now = f.clk.Now

	f.activation = NewActivationService(f.users, f.otp, f.tokens, f.events, f.metrics, log, bcrypt.MinCost)
	f.activation.Now = f.clk.Now

	f.voters = NewVoterService(f.users, &memPhotos{}, f.events, f.metrics, log)
	f.voters.Now = f.clk.Now
	return f
}

// provision stores a voter born twenty years before the fixture clock.
func (f *fixture) provision(t *testing.T, voterID, email string) *model.User {
	t.Helper()
	now := f.clk.Now()
	u := &model.User{
		Email:       strings.ToLower(email),
		Role:        model.RoleVoter,
		VoterID:     voterID,
		FullName:    "Asha Rao",
		DateOfBirth: now.AddDate(-20, 0, 0).Format(dateLayout),
		Address:     "12 MG Road",
		PhoneNo:     "9876543210",
		BranchName:  "North",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := f.users.CreateVoter(context.Background(), u)
	require.NoError(t, err)
	return u
}
