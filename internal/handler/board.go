package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/voter-registry/internal/middleware"
	"github.com/iliyamo/voter-registry/internal/model"
	"github.com/iliyamo/voter-registry/internal/service"
)

// NotificationsRoute is the cached notification feed.
const NotificationsRoute = "/api/notifications"

// Board stores notifications and error reports.
type Board interface {
	CreateNotification(ctx context.Context, author *model.User, message string) (*model.Notification, error)
	ListNotifications(ctx context.Context) ([]model.Notification, error)
	ReportVoter(ctx context.Context, reporter *model.User, in service.ReportInput) (*model.Report, error)
	ListReports(ctx context.Context) ([]model.Report, error)
}

// BoardHandler serves the notification feed and voter error reports.
// Purge, when set, drops cached copies of a route after a write.
type BoardHandler struct {
	Board Board
	Purge func(ctx context.Context, route string) error
	Log   *zap.Logger
}

func NewBoardHandler(b Board, purge func(ctx context.Context, route string) error, log *zap.Logger) *BoardHandler {
	return &BoardHandler{Board: b, Purge: purge, Log: log}
}

type notificationReq struct {
	Message string `json:"message"`
}

type reportReq struct {
	VoterID     string `json:"voter_id"`
	ErrorType   string `json:"error_type"`
	Description string `json:"description"`
}

func notificationJSON(n *model.Notification) echo.Map {
	return echo.Map{
		"id":         strconv.FormatUint(n.ID, 10),
		"message":    n.Message,
		"created_by": strconv.FormatUint(n.CreatedBy, 10),
		"created_at": n.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func reportJSON(r *model.Report) echo.Map {
	return echo.Map{
		"id":                strconv.FormatUint(r.ID, 10),
		"reported_voter_id": r.ReportedVoterID,
		"reported_by":       strconv.FormatUint(r.ReportedBy, 10),
		"reporter_email":    r.ReporterEmail,
		"error_type":        r.ErrorType,
		"description":       r.Description,
		"created_at":        r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ListNotifications returns the feed, newest first.
func (h *BoardHandler) ListNotifications(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	list, err := h.Board.ListNotifications(ctx)
	if err != nil {
		return respond(c, h.Log, "list notifications", err)
	}
	out := make([]echo.Map, 0, len(list))
	for i := range list {
		out = append(out, notificationJSON(&list[i]))
	}
	return success(c, http.StatusOK, "", echo.Map{"notifications": out})
}

// CreateNotification publishes an admin broadcast.
func (h *BoardHandler) CreateNotification(c echo.Context) error {
	var req notificationReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	n, err := h.Board.CreateNotification(ctx, middleware.CurrentUser(c), req.Message)
	if err != nil {
		return respond(c, h.Log, "create notification", err)
	}
	if h.Purge != nil {
		if err := h.Purge(ctx, NotificationsRoute); err != nil {
			h.Log.Warn("purge notification cache failed", zap.Error(err))
		}
	}
	return success(c, http.StatusCreated, "Notification created successfully", echo.Map{
		"notification_id": strconv.FormatUint(n.ID, 10),
	})
}

// ReportVoterError files a complaint about a voter record.
func (h *BoardHandler) ReportVoterError(c echo.Context) error {
	var req reportReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	r, err := h.Board.ReportVoter(ctx, middleware.CurrentUser(c), service.ReportInput{
		VoterID:     req.VoterID,
		ErrorType:   req.ErrorType,
		Description: req.Description,
	})
	if err != nil {
		return respond(c, h.Log, "report voter", err)
	}
	return success(c, http.StatusCreated, "Report submitted", echo.Map{
		"report_id": strconv.FormatUint(r.ID, 10),
	})
}

// ListReports returns every report, newest first.
func (h *BoardHandler) ListReports(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	list, err := h.Board.ListReports(ctx)
	if err != nil {
		return respond(c, h.Log, "list reports", err)
	}
	out := make([]echo.Map, 0, len(list))
	for i := range list {
		out = append(out, reportJSON(&list[i]))
	}
	return success(c, http.StatusOK, "", echo.Map{"reports": out})
}
