package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/voter-registry/internal/handler"
)

// AdminHandlers are the handlers behind admin-only routes.
type AdminHandlers struct {
	Voters  *handler.VoterHandler
	Board   *handler.BoardHandler
	Scanner *handler.ScannerHandler
}

// RegisterAdmin registers admin-scoped endpoints under /api.  All routes
// require a valid JWT, an existing user and the admin role.
func RegisterAdmin(e *echo.Echo, h AdminHandlers, guard Guard) {
	g := e.Group("/api")
	admin := guard.Admin()

	// ---- Voter records ----
	g.POST("/add-voter", h.Voters.Add, admin...)
	g.PUT("/voter/:voter_id", h.Voters.Update, admin...)
	g.DELETE("/voter/:voter_id", h.Voters.Delete, admin...)

	// ---- Board ----
	g.POST("/notifications", h.Board.CreateNotification, admin...)
	g.GET("/reports", h.Board.ListReports, admin...)

	// ---- Fingerprint scanner ----
	g.GET("/check-scanner", h.Scanner.Check, admin...)
	g.POST("/capture-fingerprint", h.Scanner.Capture, admin...)
}
