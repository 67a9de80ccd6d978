package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/voter-registry/internal/handler"
	"github.com/iliyamo/voter-registry/internal/metrics"
	"github.com/iliyamo/voter-registry/internal/model"
	"github.com/iliyamo/voter-registry/internal/repository"
	"github.com/iliyamo/voter-registry/internal/scanner"
	"github.com/iliyamo/voter-registry/internal/utils"
)

type staticUsers map[uint64]*model.User

func (s staticUsers) GetByID(_ context.Context, id uint64) (*model.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func newServer(t *testing.T) (*echo.Echo, *utils.TokenService) {
	t.Helper()
	tokens := utils.NewTokenService("router-test", time.Hour)
	users := staticUsers{
		1: {ID: 1, Role: model.RoleAdmin},
		2: {ID: 2, Role: model.RoleVoter},
	}
	guard := Guard{Tokens: tokens, Users: users, Log: zap.NewNop()}
	log := zap.NewNop()

	voters := handler.NewVoterHandler(nil, log)
	board := handler.NewBoardHandler(nil, nil, log)

	e := echo.New()
	RegisterRoutes(e, metrics.New("test"))
	RegisterAuth(e, handler.NewAuthHandler(nil, log), guard, passthrough)
	RegisterMember(e, voters, board, guard, passthrough)
	RegisterAdmin(e, AdminHandlers{
		Voters:  voters,
		Board:   board,
		Scanner: handler.NewScannerHandler(&scanner.Mock{Now: time.Now}, log),
	}, guard)
	return e, tokens
}

func TestRouteTable(t *testing.T) {
	e, _ := newServer(t)
	have := map[string]bool{}
	for _, r := range e.Routes() {
		have[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"POST /api/signup",
		"POST /api/login",
		"POST /api/verify-token",
		"GET /api/notifications",
		"POST /api/notifications",
		"POST /api/add-voter",
		"POST /api/verify-voter-id",
		"POST /api/send-otp",
		"POST /api/verify-otp",
		"GET /api/voters",
		"PUT /api/voter/:voter_id",
		"DELETE /api/voter/:voter_id",
		"POST /api/report-voter-error",
		"GET /api/reports",
		"GET /api/check-scanner",
		"POST /api/capture-fingerprint",
		"GET /api/health",
		"GET /healthz",
		"GET /metrics",
	} {
		assert.True(t, have[want], want)
	}
}

func get(e *echo.Echo, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAdminRoutesAreGuarded(t *testing.T) {
	e, tokens := newServer(t)
	voter, err := tokens.Issue(2)
	require.NoError(t, err)
	admin, err := tokens.Issue(1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, get(e, http.MethodGet, "/api/check-scanner", "").Code)
	assert.Equal(t, http.StatusForbidden, get(e, http.MethodGet, "/api/check-scanner", voter.Token).Code)
	assert.Equal(t, http.StatusOK, get(e, http.MethodGet, "/api/check-scanner", admin.Token).Code)
}

func TestVerifyTokenNeedsOnlyToken(t *testing.T) {
	e, tokens := newServer(t)
	orphan, err := tokens.Issue(99)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, get(e, http.MethodPost, "/api/verify-token", orphan.Token).Code)
}

func TestOperationalEndpoints(t *testing.T) {
	e, _ := newServer(t)
	assert.Equal(t, http.StatusOK, get(e, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, get(e, http.MethodGet, "/api/health", "").Code)

	rec := get(e, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
