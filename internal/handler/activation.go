package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

type voterIDReq struct {
	VoterID string `json:"voter_id"`
}

type sendOTPReq struct {
	VoterID string `json:"voter_id"`
	Email   string `json:"email"`
}

type verifyOTPReq struct {
	VoterID string `json:"voter_id"`
	OTP     string `json:"otp"`
}

// VerifyVoterID is the first activation step.  It returns the name and the
// registered email, which is the only address a code is ever sent to.
func (h *AuthHandler) VerifyVoterID(c echo.Context) error {
	var req voterIDReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	sum, err := h.Activation.VerifyVoterID(ctx, req.VoterID)
	if err != nil {
		return respond(c, h.Log, "verify voter id", err)
	}
	return success(c, http.StatusOK, "Voter ID verified", echo.Map{
		"voter_name": sum.Name,
		"email":      sum.Email,
	})
}

// SendOTP issues a fresh code to the voter's registered email.
func (h *AuthHandler) SendOTP(c echo.Context) error {
	var req sendOTPReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Activation.RequestOTP(ctx, req.VoterID, req.Email); err != nil {
		return respond(c, h.Log, "send otp", err)
	}
	return success(c, http.StatusOK, "OTP has been sent to your registered email address. Please check your inbox.", nil)
}

// VerifyOTP checks a code without spending it; signup spends it.
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req verifyOTPReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Activation.VerifyOTP(ctx, req.VoterID, req.OTP); err != nil {
		return respond(c, h.Log, "verify otp", err)
	}
	return success(c, http.StatusOK, "OTP verified successfully", nil)
}
