package scanner

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockCapture(t *testing.T) {
	m := &Mock{Now: func() time.Time { return time.Unix(0, 42) }}
	assert.True(t, m.IsConnected(context.Background()))

	tpl, err := m.Capture(context.Background())
	require.NoError(t, err)
	assert.True(t, tpl.TestMode)
	raw, err := base64.StdEncoding.DecodeString(tpl.Data)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "TEST_FINGERPRINT_"))
}

func TestDisabled(t *testing.T) {
	var s Scanner = Disabled{}
	assert.False(t, s.IsConnected(context.Background()))
	_, err := s.Capture(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNew(t *testing.T) {
	s, err := New("mock")
	require.NoError(t, err)
	assert.IsType(t, &Mock{}, s)

	s, err = New("disabled")
	require.NoError(t, err)
	assert.IsType(t, Disabled{}, s)

	_, err = New("serial")
	assert.Error(t, err)
}
