package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/voter-registry/internal/handler"
)

// RegisterMember registers endpoints open to any signed-in user, voter or
// admin.  The notification feed is served through cache.
func RegisterMember(e *echo.Echo, v *handler.VoterHandler, b *handler.BoardHandler, guard Guard, cache echo.MiddlewareFunc) {
	g := e.Group("/api")
	user := guard.User()

	g.GET("/notifications", b.ListNotifications, append(user, cache)...)
	g.GET("/voters", v.List, user...)
	g.POST("/report-voter-error", b.ReportVoterError, user...)
}
