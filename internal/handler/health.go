package handler // declare the package name; contains HTTP handlers

import (
	"net/http" // net/http provides status codes and response helpers

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Health is a liveness endpoint for load balancers.  It returns plain
// text "ok".
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// APIHealth is the JSON health check under /api used by the frontend.
func APIHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "healthy", "message": "API is running"})
}
