// Package scanner abstracts the fingerprint reader used at registration.
package scanner

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnavailable is returned by Capture when no device can be reached.
var ErrUnavailable = errors.New("fingerprint scanner unavailable")

// Template is a captured fingerprint.  TestMode marks synthetic templates.
type Template struct {
	Data     string
	TestMode bool
}

// Scanner is a fingerprint capture device.
type Scanner interface {
	IsConnected(ctx context.Context) bool
	Capture(ctx context.Context) (Template, error)
}

// New returns the backend named by mode ("mock" or "disabled").
func New(mode string) (Scanner, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "mock", "test":
		return &Mock{Now: time.Now}, nil
	case "disabled", "none":
		return Disabled{}, nil
	default:
		return nil, fmt.Errorf("unknown scanner mode %q", mode)
	}
}

// Mock produces synthetic templates for development and tests.
type Mock struct {
	Now func() time.Time
}

func (m *Mock) IsConnected(context.Context) bool { return true }

func (m *Mock) Capture(ctx context.Context) (Template, error) {
	if err := ctx.Err(); err != nil {
		return Template{}, err
	}
	raw := fmt.Sprintf("TEST_FINGERPRINT_%d", m.Now().UnixNano())
	return Template{Data: base64.StdEncoding.EncodeToString([]byte(raw)), TestMode: true}, nil
}

// Disabled reports no device.
type Disabled struct{}

func (Disabled) IsConnected(context.Context) bool { return false }

func (Disabled) Capture(context.Context) (Template, error) { return Template{}, ErrUnavailable }
