package handler

import (
	"context"  // provides context with cancellation for store calls
	"net/http" // HTTP status codes and primitives
	"strconv"  // user ids travel as decimal strings
	"time"     // timeouts for store calls

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing
	"go.uber.org/zap"

	"github.com/iliyamo/voter-registry/internal/middleware"
	"github.com/iliyamo/voter-registry/internal/model"
	"github.com/iliyamo/voter-registry/internal/service"
)

// requestTimeout bounds the store work of one request.  OTP delivery has
// its own, shorter bound inside the engine.
const requestTimeout = 15 * time.Second

// Activation is the account workflow the auth endpoints drive.
type Activation interface {
	VerifyVoterID(ctx context.Context, voterID string) (*service.VoterSummary, error)
	RequestOTP(ctx context.Context, voterID, email string) error
	VerifyOTP(ctx context.Context, voterID, code string) error
	Signup(ctx context.Context, in service.Signup) (uint64, error)
	Login(ctx context.Context, in service.Login) (*service.Session, error)
}

// AuthHandler bundles dependencies for signup, login and the activation
// steps.
type AuthHandler struct {
	Activation Activation
	Log        *zap.Logger
}

func NewAuthHandler(a Activation, log *zap.Logger) *AuthHandler {
	return &AuthHandler{Activation: a, Log: log}
}

// ----- DTOs -----

type signupReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	UserType string `json:"userType"` // voter | admin
	Name     string `json:"name"`
	VoterID  string `json:"voter_id"`
	OTP      string `json:"otp"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	UserType string `json:"userType"`
}

// Signup activates a provisioned voter or creates an admin.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	uid, err := h.Activation.Signup(ctx, service.Signup{
		UserType: req.UserType,
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		VoterID:  req.VoterID,
		OTP:      req.OTP,
	})
	if err != nil {
		return respond(c, h.Log, "signup", err)
	}
	return success(c, http.StatusCreated, "Signup successful", echo.Map{
		"user_id": strconv.FormatUint(uid, 10),
	})
}

// Login verifies credentials and returns a bearer token.  Voters also get
// their registration profile.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	sess, err := h.Activation.Login(ctx, service.Login{Email: req.Email, Password: req.Password, UserType: req.UserType})
	if err != nil {
		return respond(c, h.Log, "login", err)
	}

	u := sess.User
	out := echo.Map{
		"token":      sess.Token.Token,
		"expires_at": sess.Token.Exp,
		"user_type":  string(u.Role),
		"user_id":    strconv.FormatUint(u.ID, 10),
	}
	if u.Role == model.RoleVoter {
		for k, v := range map[string]string{
			"name":          u.Name,
			"voter_id":      u.VoterID,
			"full_name":     u.FullName,
			"email":         u.Email,
			"phone_no":      u.PhoneNo,
			"address":       u.Address,
			"date_of_birth": u.DateOfBirth,
			"branch_name":   u.BranchName,
			"photo_url":     u.PhotoURL,
		} {
			if v != "" {
				out[k] = v
			}
		}
	}
	return success(c, http.StatusOK, "Login successful", out)
}

// VerifyToken answers 200 for any token JWTAuth accepted.
func (h *AuthHandler) VerifyToken(c echo.Context) error {
	return success(c, http.StatusOK, "Token is valid", echo.Map{
		"user_id": strconv.FormatUint(middleware.UserID(c), 10),
	})
}
