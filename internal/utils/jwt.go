package utils // package utils provides helper functions for token creation, hashing and code generation

import (
	"errors"  // sentinel errors for token validation
	"strconv" // user ids travel as decimal strings in the sub claim
	"time"    // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

var (
	// ErrTokenExpired is returned by Validate when the token is past its exp claim.
	ErrTokenExpired = errors.New("token has expired")
	// ErrTokenMalformed is returned for any signature, algorithm or structure problem.
	ErrTokenMalformed = errors.New("invalid token")
)

// AccessToken represents a signed JWT bearer token along with its expiry.
// The Token field contains the JWT string.  Exp stores the expiration
// timestamp as a time.Time.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// TokenService issues and validates stateless HS256 bearer tokens.  Tokens
// carry only the subject and their issue/expiry times; there is no
// revocation list, so a token stays valid until it expires.
type TokenService struct {
	Secret []byte           // HMAC signing key
	TTL    time.Duration    // lifetime of every issued token
	Now    func() time.Time // clock, replaceable in tests
}

// NewTokenService builds a TokenService using the wall clock.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{Secret: []byte(secret), TTL: ttl, Now: time.Now}
}

func (s *TokenService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// Issue signs a token for userID.  The claims are sub (user id as a decimal
// string), iat and exp.
func (s *TokenService) Issue(userID uint64) (AccessToken, error) {
	// Capture the clock once so iat and exp are consistent.
	now := s.now()
	exp := now.Add(s.TTL)
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	// Create a new token object specifying the signing method (HS256) and
	// sign it with the configured secret.
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// Validate verifies signature and expiry of raw and returns the subject's
// user id.  Expired tokens yield ErrTokenExpired; everything else that is
// wrong with the token yields ErrTokenMalformed.
func (s *TokenService) Validate(raw string) (uint64, error) {
	var claims jwt.RegisteredClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		// Reject anything that is not HMAC; this blocks alg=none and key confusion.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenMalformed
		}
		return s.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, ErrTokenMalformed
	}
	if !tok.Valid {
		return 0, ErrTokenMalformed
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrTokenMalformed
	}
	return id, nil
}
