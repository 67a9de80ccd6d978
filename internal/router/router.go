package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"go.uber.org/zap"

	"github.com/iliyamo/voter-registry/internal/handler"    // handlers that implement the endpoints
	"github.com/iliyamo/voter-registry/internal/metrics"    // Prometheus registry served at /metrics
	"github.com/iliyamo/voter-registry/internal/middleware" // JWT, user loading and role enforcement
	"github.com/iliyamo/voter-registry/internal/model"
	"github.com/iliyamo/voter-registry/internal/utils"
)

// Guard builds the authentication chains of protected routes.
type Guard struct {
	Tokens *utils.TokenService
	Users  middleware.UserLoader
	Log    *zap.Logger
}

// Token only checks the bearer token.
func (g Guard) Token() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{middleware.JWTAuth(g.Tokens)}
}

// User checks the token and loads the user it names.
func (g Guard) User() []echo.MiddlewareFunc {
	return append(g.Token(), middleware.LoadUser(g.Users, g.Log))
}

// Admin is User plus the admin role.
func (g Guard) Admin() []echo.MiddlewareFunc {
	return append(g.User(), middleware.RequireRole(model.RoleAdmin))
}

// RegisterRoutes registers the unauthenticated operational endpoints:
// liveness, the JSON health check and the metrics exposition.
func RegisterRoutes(e *echo.Echo, m *metrics.Metrics) {
	e.GET("/healthz", handler.Health)
	e.GET("/api/health", handler.APIHealth)
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}
}

// RegisterAuth registers signup, login and the activation steps.  They are
// reachable without a session, so each one passes through limiter.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, guard Guard, limiter echo.MiddlewareFunc) {
	g := e.Group("/api")
	// Activation: verify the voter id, mail a code, check the code.
	g.POST("/verify-voter-id", a.VerifyVoterID, limiter)
	g.POST("/send-otp", a.SendOTP, limiter)
	g.POST("/verify-otp", a.VerifyOTP, limiter)
	// Signup spends the verified code; login issues the bearer token.
	g.POST("/signup", a.Signup, limiter)
	g.POST("/login", a.Login, limiter)

	// Token check only; the user row is not loaded.
	g.POST("/verify-token", a.VerifyToken, guard.Token()...)
}
