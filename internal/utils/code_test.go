package utils

import (
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOTPCodeRange(t *testing.T) {
	six := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 500; i++ {
		code, err := NewOTPCode()
		require.NoError(t, err)
		require.Regexp(t, six, code)
		n, _ := strconv.Atoi(code)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
}

func TestCodesEqual(t *testing.T) {
	assert.True(t, CodesEqual("123456", "123456"))
	assert.False(t, CodesEqual("123456", "123457"))
	assert.False(t, CodesEqual("123456", "12345"))
}
