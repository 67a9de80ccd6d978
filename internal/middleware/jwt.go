package middleware // middleware provides shared request processing for handlers

import (
	"errors"
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/voter-registry/internal/utils"
)

// Context keys written by the auth chain.
const (
	KeyUserID = "user_id"
	KeyUser   = "user"
	KeyRole   = "role"
)

// fail writes the {success:false,message} envelope shared with the handlers.
func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "message": msg})
}

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and stores the subject's user id (uint64) under KeyUserID.  Missing or
// malformed tokens and expired tokens are both rejected with 401, with
// distinct messages.
func JWTAuth(tokens *utils.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return fail(c, http.StatusUnauthorized, "Missing or invalid token")
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if raw == "" {
				return fail(c, http.StatusUnauthorized, "Missing or invalid token")
			}

			uid, err := tokens.Validate(raw)
			if errors.Is(err, utils.ErrTokenExpired) {
				return fail(c, http.StatusUnauthorized, "Token has expired")
			}
			if err != nil {
				return fail(c, http.StatusUnauthorized, "Invalid token")
			}

			c.Set(KeyUserID, uid)
			return next(c)
		}
	}
}

// UserID returns the authenticated user id, or 0 when JWTAuth did not run.
func UserID(c echo.Context) uint64 {
	id, _ := c.Get(KeyUserID).(uint64)
	return id
}
