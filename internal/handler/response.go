package handler

import (
	"errors"
	"net/http"
	"unicode"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/voter-registry/internal/scanner"
	"github.com/iliyamo/voter-registry/internal/service"
)

// Every response carries {success, message} plus endpoint specific keys.

func success(c echo.Context, status int, msg string, extra echo.Map) error {
	body := echo.Map{"success": true}
	if msg != "" {
		body["message"] = msg
	}
	for k, v := range extra {
		body[k] = v
	}
	return c.JSON(status, body)
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "message": msg})
}

// statusOf maps a service error to its HTTP status and client message.
// Unknown errors are 500 and their text is not exposed.
func statusOf(err error) (int, string) {
	var ve *service.ValidationError
	var rm *service.RoleMismatchError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Msg
	case errors.As(err, &rm):
		return http.StatusForbidden, capitalize(rm.Error())
	case errors.Is(err, service.ErrVoterNotFound):
		return http.StatusNotFound, "Voter ID not found. Please contact admin."
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, service.ErrEmailMismatch):
		return http.StatusNotFound, "Voter ID and email do not match"
	case errors.Is(err, service.ErrAlreadyActive):
		return http.StatusConflict, "Account already exists for this Voter ID"
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, "Email already exists"
	case errors.Is(err, service.ErrVoterIDTaken):
		return http.StatusConflict, "Voter ID already exists"
	case errors.Is(err, service.ErrOTPNotFound):
		return http.StatusBadRequest, "Invalid or unverified OTP. Please verify OTP first."
	case errors.Is(err, service.ErrOTPExpired):
		return http.StatusBadRequest, "OTP has expired. Please request a new one."
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Incorrect password"
	case errors.Is(err, service.ErrNotActivated):
		return http.StatusForbidden, "Account has not been activated. Please complete signup."
	case errors.Is(err, scanner.ErrUnavailable):
		return http.StatusServiceUnavailable, "Fingerprint scanner is not available"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// respond writes the envelope for err.  Server side failures are logged
// with the full error chain.
func respond(c echo.Context, log *zap.Logger, op string, err error) error {
	status, msg := statusOf(err)
	if status >= http.StatusInternalServerError {
		log.Error(op+" failed", zap.Error(err), zap.String("path", c.Path()))
	}
	return fail(c, status, msg)
}

func capitalize(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}
