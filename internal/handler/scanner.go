package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/voter-registry/internal/scanner"
)

// ScannerHandler exposes the fingerprint device to the admin console.
type ScannerHandler struct {
	Scanner scanner.Scanner
	Log     *zap.Logger
}

func NewScannerHandler(s scanner.Scanner, log *zap.Logger) *ScannerHandler {
	return &ScannerHandler{Scanner: s, Log: log}
}

// Check reports whether a device is attached.
func (h *ScannerHandler) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	connected := h.Scanner.IsConnected(ctx)
	msg := "Scanner is not connected"
	if connected {
		msg = "Scanner is connected"
	}
	return success(c, http.StatusOK, msg, echo.Map{"connected": connected})
}

// Capture reads one template.  Mock templates are flagged test_mode.
func (h *ScannerHandler) Capture(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	tpl, err := h.Scanner.Capture(ctx)
	if err != nil {
		return respond(c, h.Log, "capture fingerprint", err)
	}
	msg := "Fingerprint captured successfully"
	if tpl.TestMode {
		msg = "Test mode: Mock fingerprint template generated"
	}
	return success(c, http.StatusOK, msg, echo.Map{
		"template":  tpl.Data,
		"test_mode": tpl.TestMode,
	})
}
