package service

import (
	"context"
	"encoding/base64"
	"errors"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/voter-registry/internal/metrics"
	"github.com/iliyamo/voter-registry/internal/model"
	"github.com/iliyamo/voter-registry/internal/queue"
	"github.com/iliyamo/voter-registry/internal/repository"
)

// VoterService is the admin-side registry of voter records.
type VoterService struct {
	Users   UserStore
	Photos  PhotoStore
	Events  EventPublisher
	Metrics *metrics.Metrics
	Log     *zap.Logger
	Now     func() time.Time
}

func NewVoterService(users UserStore, photos PhotoStore, events EventPublisher, m *metrics.Metrics, log *zap.Logger) *VoterService {
	if events == nil {
		events = NopPublisher{}
	}
	return &VoterService{
		Users:   users,
		Photos:  photos,
		Events:  events,
		Metrics: m,
		Log:     log.Named("voters"),
		Now:     func() time.Time { return time.Now().UTC() },
	}
}

// Photo is an uploaded image.
type Photo struct {
	Filename    string
	ContentType string
	Data        []byte
}

// NewVoter holds the fields an admin submits to provision a voter.
type NewVoter struct {
	FullName            string
	DateOfBirth         string
	Address             string
	VoterID             string
	Email               string
	PhoneNo             string
	BranchName          string
	FingerprintTemplate string
	Photo               *Photo
	AddedBy             uint64
}

var requiredVoterFields = []string{"full_name", "date_of_birth", "address", "voter_id", "email", "phone_no", "branch_name"}

func (in NewVoter) missing() []string {
	values := map[string]string{
		"full_name":     in.FullName,
		"date_of_birth": in.DateOfBirth,
		"address":       in.Address,
		"voter_id":      in.VoterID,
		"email":         in.Email,
		"phone_no":      in.PhoneNo,
		"branch_name":   in.BranchName,
	}
	var out []string
	for _, f := range requiredVoterFields {
		if strings.TrimSpace(values[f]) == "" {
			out = append(out, f)
		}
	}
	return out
}

// Add validates and provisions a voter.  The photo goes to the blob store and
// an inline base64 copy is kept on the record.
func (s *VoterService) Add(ctx context.Context, in NewVoter) (*model.User, error) {
	if missing := in.missing(); len(missing) > 0 {
		return nil, invalid("Missing required fields: %s", strings.Join(missing, ", "))
	}
	in.VoterID = strings.TrimSpace(in.VoterID)
	in.Email = normalizeEmail(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	in.DateOfBirth = strings.TrimSpace(in.DateOfBirth)

	now := s.Now()
	if err := checkVoterID(in.VoterID); err != nil {
		return nil, err
	}
	if err := checkEmail(in.Email); err != nil {
		return nil, err
	}
	if err := checkDateOfBirth(in.DateOfBirth, now); err != nil {
		return nil, err
	}
	if err := checkName(in.FullName); err != nil {
		return nil, err
	}
	if err := checkPhone(in.PhoneNo); err != nil {
		return nil, err
	}
	if in.Photo == nil || len(in.Photo.Data) == 0 {
		return nil, invalid("Photo is required")
	}
	if strings.TrimSpace(in.FingerprintTemplate) == "" {
		return nil, invalid("Fingerprint is required")
	}

	exists, err := s.Users.VoterIDExists(ctx, in.VoterID)
	if err != nil {
		return nil, dependency("check voter id", err)
	}
	if exists {
		return nil, ErrVoterIDTaken
	}
	exists, err = s.Users.EmailExists(ctx, in.Email)
	if err != nil {
		return nil, dependency("check email", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	ref, err := s.Photos.Save(ctx, photoName(in.VoterID, in.Photo.Filename), in.Photo.Data, in.Photo.ContentType)
	if err != nil {
		return nil, dependency("save photo", err)
	}

	u := &model.User{
		Email:               in.Email,
		Role:                model.RoleVoter,
		VoterID:             in.VoterID,
		FullName:            in.FullName,
		DateOfBirth:         in.DateOfBirth,
		Address:             in.Address,
		PhoneNo:             strings.TrimSpace(in.PhoneNo),
		BranchName:          strings.TrimSpace(in.BranchName),
		PhotoURL:            ref,
		PhotoData:           base64.StdEncoding.EncodeToString(in.Photo.Data),
		FingerprintTemplate: in.FingerprintTemplate,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if _, err := s.Users.CreateVoter(ctx, u); err != nil {
		s.dropPhoto(ctx, ref)
		switch {
		case errors.Is(err, repository.ErrVoterIDExists):
			return nil, ErrVoterIDTaken
		case errors.Is(err, repository.ErrEmailExists):
			return nil, ErrEmailTaken
		}
		return nil, dependency("create voter", err)
	}

	s.Metrics.VotersAdded.Inc()
	s.Log.Info("voter provisioned", zap.String("voter_id", u.VoterID), zap.Uint64("user_id", u.ID))
	publishQuietly(ctx, s.Events, s.Log, queue.VoterRegisteredQueue, queue.VoterRegisteredEvent{
		UserID:       u.ID,
		VoterID:      u.VoterID,
		Email:        u.Email,
		BranchName:   u.BranchName,
		RegisteredBy: in.AddedBy,
		RegisteredAt: now.Format(time.RFC3339),
	})
	return u, nil
}

// dropPhoto removes a blob whose voter row was never written.  Failure is
// logged; the row is what matters.
func (s *VoterService) dropPhoto(ctx context.Context, ref string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.Photos.Delete(ctx, ref); err != nil {
		s.Log.Warn("orphaned photo", zap.String("ref", ref), zap.Error(err))
	}
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// photoName builds "<voterID>_<sanitised base name>".
func photoName(voterID, filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	base = strings.Trim(unsafeName.ReplaceAllString(base, "_"), "._")
	if base == "" {
		base = "photo"
	}
	return voterID + "_" + base
}

// List returns voters newest first, optionally filtered by activation state.
func (s *VoterService) List(ctx context.Context, hasAccount *bool) ([]model.User, error) {
	out, err := s.Users.ListVoters(ctx, hasAccount)
	if err != nil {
		return nil, dependency("list voters", err)
	}
	return out, nil
}

// Update merges the allow-listed entries of fields into a voter record and
// returns the stored result.  Unknown keys are ignored; known ones are
// validated with the rules used by Add.
func (s *VoterService) Update(ctx context.Context, voterID string, fields map[string]string) (*model.User, error) {
	now := s.Now()
	clean := make(map[string]string, len(fields))
	for _, key := range repository.VoterUpdateFields {
		v, ok := fields[key]
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		var err error
		switch key {
		case "full_name":
			err = checkName(v)
		case "email":
			v = strings.ToLower(v)
			err = checkEmail(v)
		case "phone_no":
			err = checkPhone(v)
		case "date_of_birth":
			err = checkDateOfBirth(v, now)
		case "address", "branch_name":
			if v == "" {
				err = invalid("%s must not be empty", key)
			}
		}
		if err != nil {
			return nil, err
		}
		clean[key] = v
	}
	if len(clean) == 0 {
		return nil, invalid("No valid fields provided to update")
	}

	err := s.Users.UpdateVoter(ctx, voterID, clean, now)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrVoterNotFound
	case errors.Is(err, repository.ErrEmailExists):
		return nil, ErrEmailTaken
	case err != nil:
		return nil, dependency("update voter", err)
	}

	u, err := s.Users.GetVoter(ctx, voterID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrVoterNotFound
	}
	if err != nil {
		return nil, dependency("reload voter", err)
	}
	return u, nil
}

// Delete removes a voter record.
func (s *VoterService) Delete(ctx context.Context, voterID string) error {
	err := s.Users.DeleteVoter(ctx, voterID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrVoterNotFound
	}
	if err != nil {
		return dependency("delete voter", err)
	}
	s.Log.Info("voter deleted", zap.String("voter_id", voterID))
	return nil
}
