package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"math/big"
	"strconv"
)

// otpLow and otpSpan bound the generated codes to 100000–999999.
const (
	otpLow  = 100000
	otpSpan = 900000
)

// NewOTPCode returns a uniformly random six digit decimal code in
// 100000–999999 drawn from crypto/rand.
func NewOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpSpan))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+otpLow, 10), nil
}

// CodesEqual compares two codes in constant time.
func CodesEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
