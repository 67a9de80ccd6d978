package middleware // middleware provides shared request processing for handlers

import (
	"net/http" // http package defines standard HTTP status codes

	"github.com/labstack/echo/v4" // echo provides middleware chaining and context

	"github.com/iliyamo/voter-registry/internal/model"
)

// RequireRole returns a middleware function that enforces that the loaded
// user has one of the specified roles.  It assumes LoadUser has stored the
// role under KeyRole.  Requests from any other role are aborted with 403.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	// Build a set of allowed roles for constant-time lookups.
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[string(r)] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(KeyRole).(string)
			if !ok || !allowed[role] {
				return fail(c, http.StatusForbidden, "You are not allowed to perform this action")
			}
			return next(c)
		}
	}
}
