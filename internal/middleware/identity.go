package middleware

// identity.go resolves the token subject to a users row.  A token outlives
// the account it was issued for when a voter record is deleted, so every
// protected route loads the user again and answers 404 when it is gone.

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/voter-registry/internal/model"
	"github.com/iliyamo/voter-registry/internal/repository"
)

// UserLoader is the part of the user repository LoadUser needs.
type UserLoader interface {
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

// LoadUser must run after JWTAuth.  It stores the *model.User under KeyUser
// and its role under KeyRole.
func LoadUser(users UserLoader, log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid := UserID(c)
			if uid == 0 {
				return fail(c, http.StatusUnauthorized, "Missing or invalid token")
			}
			u, err := users.GetByID(c.Request().Context(), uid)
			if errors.Is(err, repository.ErrNotFound) {
				return fail(c, http.StatusNotFound, "User not found")
			}
			if err != nil {
				log.Error("load user failed", zap.Uint64("user_id", uid), zap.Error(err))
				return fail(c, http.StatusInternalServerError, "Failed to load user")
			}
			c.Set(KeyUser, u)
			c.Set(KeyRole, string(u.Role))
			return next(c)
		}
	}
}

// CurrentUser returns the user stored by LoadUser, or nil.
func CurrentUser(c echo.Context) *model.User {
	u, _ := c.Get(KeyUser).(*model.User)
	return u
}

// userID renders the authenticated user for rate-limit keys and logs.  It
// returns "anon" when no user is authenticated.
func userID(c echo.Context) string {
	if id := UserID(c); id != 0 {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
