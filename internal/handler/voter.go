package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/voter-registry/internal/middleware"
	"github.com/iliyamo/voter-registry/internal/model"
	"github.com/iliyamo/voter-registry/internal/service"
)

// MaxPhotoBytes caps an uploaded voter photo.
const MaxPhotoBytes = 5 << 20

// Voters is the admin side voter record store.
type Voters interface {
	Add(ctx context.Context, in service.NewVoter) (*model.User, error)
	List(ctx context.Context, hasAccount *bool) ([]model.User, error)
	Update(ctx context.Context, voterID string, fields map[string]string) (*model.User, error)
	Delete(ctx context.Context, voterID string) error
}

type VoterHandler struct {
	Voters Voters
	Log    *zap.Logger
}

func NewVoterHandler(v Voters, log *zap.Logger) *VoterHandler {
	return &VoterHandler{Voters: v, Log: log}
}

// voterJSON renders a users row for the admin views.  The password hash
// never leaves the server.
func voterJSON(u *model.User) echo.Map {
	out := echo.Map{
		"id":                   strconv.FormatUint(u.ID, 10),
		"user_type":            string(u.Role),
		"voter_id":             u.VoterID,
		"email":                u.Email,
		"name":                 u.Name,
		"full_name":            u.FullName,
		"date_of_birth":        u.DateOfBirth,
		"address":              u.Address,
		"phone_no":             u.PhoneNo,
		"branch_name":          u.BranchName,
		"photo_url":            u.PhotoURL,
		"photo_data":           u.PhotoData,
		"fingerprint_template": u.FingerprintTemplate,
		"has_account":          u.HasAccount,
		"created_at":           u.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at":           u.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if u.AccountCreatedAt != nil {
		out["account_created_at"] = u.AccountCreatedAt.UTC().Format(time.RFC3339)
	}
	return out
}

// Add provisions a voter from a multipart form with a "photo" file.
func (h *VoterHandler) Add(c echo.Context) error {
	in := service.NewVoter{
		FullName:            c.FormValue("full_name"),
		DateOfBirth:         c.FormValue("date_of_birth"),
		Address:             c.FormValue("address"),
		VoterID:             c.FormValue("voter_id"),
		Email:               c.FormValue("email"),
		PhoneNo:             c.FormValue("phone_no"),
		BranchName:          c.FormValue("branch_name"),
		FingerprintTemplate: c.FormValue("fingerprint_template"),
		AddedBy:             middleware.UserID(c),
	}

	photo, err := readPhoto(c)
	if err != nil {
		return respond(c, h.Log, "read photo", err)
	}
	in.Photo = photo

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u, err := h.Voters.Add(ctx, in)
	if err != nil {
		return respond(c, h.Log, "add voter", err)
	}
	return success(c, http.StatusCreated, "Voter added successfully to database", echo.Map{
		"voter_id": u.VoterID,
		"db_id":    strconv.FormatUint(u.ID, 10),
	})
}

var errPhotoTooLarge = &service.ValidationError{Msg: fmt.Sprintf("Photo must be at most %d MB", MaxPhotoBytes>>20)}

// readPhoto returns nil when no file was sent; the service decides whether
// that is acceptable.
func readPhoto(c echo.Context) (*service.Photo, error) {
	fh, err := c.FormFile("photo")
	if err != nil {
		return nil, nil
	}
	if fh.Size > MaxPhotoBytes {
		return nil, errPhotoTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, &service.ValidationError{Msg: "Could not read photo"}
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxPhotoBytes+1))
	if err != nil {
		return nil, &service.ValidationError{Msg: "Could not read photo"}
	}
	if len(data) > MaxPhotoBytes {
		return nil, errPhotoTooLarge
	}
	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return &service.Photo{Filename: fh.Filename, ContentType: ct, Data: data}, nil
}

// parseHasAccount accepts true/1 and false/0.  Anything else means no filter.
func parseHasAccount(v string) *bool {
	var b bool
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1":
		b = true
	case "false", "0":
		b = false
	default:
		return nil
	}
	return &b
}

// List returns voters, optionally filtered by ?has_account.
func (h *VoterHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	list, err := h.Voters.List(ctx, parseHasAccount(c.QueryParam("has_account")))
	if err != nil {
		return respond(c, h.Log, "list voters", err)
	}
	out := make([]echo.Map, 0, len(list))
	for i := range list {
		out = append(out, voterJSON(&list[i]))
	}
	return success(c, http.StatusOK, "", echo.Map{"voters": out})
}

// updateFields flattens a JSON object to strings.  Non-string values such
// as a structured address are stored as their JSON text; nulls are dropped.
func updateFields(body map[string]json.RawMessage) map[string]string {
	out := make(map[string]string, len(body))
	for k, raw := range body {
		raw = bytes.TrimSpace(raw)
		if bytes.Equal(raw, []byte("null")) {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			out[k] = s
			continue
		}
		out[k] = string(raw)
	}
	return out
}

// Update merges the supplied fields into the voter record.
func (h *VoterHandler) Update(c echo.Context) error {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u, err := h.Voters.Update(ctx, c.Param("voter_id"), updateFields(body))
	if err != nil {
		return respond(c, h.Log, "update voter", err)
	}
	return success(c, http.StatusOK, "Voter updated", echo.Map{"voter": voterJSON(u)})
}

// Delete removes a voter record and, with it, any account.
func (h *VoterHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Voters.Delete(ctx, c.Param("voter_id")); err != nil {
		return respond(c, h.Log, "delete voter", err)
	}
	return success(c, http.StatusOK, "Voter deleted", nil)
}
