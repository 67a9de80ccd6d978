package service

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/voter-registry/internal/model"
)

// BoardService stores admin notifications and voter error reports.  Both
// are append-only.
type BoardService struct {
	Notifications NotificationStore
	Reports       ReportStore
	Now           func() time.Time
}

func NewBoardService(n NotificationStore, r ReportStore) *BoardService {
	return &BoardService{
		Notifications: n,
		Reports:       r,
		Now:           func() time.Time { return time.Now().UTC() },
	}
}

// CreateNotification records a broadcast authored by author.
func (s *BoardService) CreateNotification(ctx context.Context, author *model.User, message string) (*model.Notification, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, invalid("Notification message is required")
	}
	n := &model.Notification{Message: message, CreatedBy: author.ID, CreatedAt: s.Now()}
	if err := s.Notifications.Create(ctx, n); err != nil {
		return nil, dependency("create notification", err)
	}
	return n, nil
}

// ListNotifications returns every notification, newest first.
func (s *BoardService) ListNotifications(ctx context.Context) ([]model.Notification, error) {
	out, err := s.Notifications.List(ctx)
	if err != nil {
		return nil, dependency("list notifications", err)
	}
	return out, nil
}

// ReportInput is a voter's complaint about another voter record.
type ReportInput struct {
	VoterID     string
	ErrorType   string
	Description string
}

// ReportVoter records a report filed by reporter.
func (s *BoardService) ReportVoter(ctx context.Context, reporter *model.User, in ReportInput) (*model.Report, error) {
	voterID := strings.TrimSpace(in.VoterID)
	errType := strings.TrimSpace(in.ErrorType)
	if voterID == "" || errType == "" {
		return nil, invalid("voter_id and error_type are required")
	}
	r := &model.Report{
		ReportedVoterID: voterID,
		ReportedBy:      reporter.ID,
		ReporterEmail:   reporter.Email,
		ErrorType:       errType,
		Description:     strings.TrimSpace(in.Description),
		CreatedAt:       s.Now(),
	}
	if err := s.Reports.Create(ctx, r); err != nil {
		return nil, dependency("create report", err)
	}
	return r, nil
}

// ListReports returns every report, newest first.
func (s *BoardService) ListReports(ctx context.Context) ([]model.Report, error) {
	out, err := s.Reports.List(ctx)
	if err != nil {
		return nil, dependency("list reports", err)
	}
	return out, nil
}
