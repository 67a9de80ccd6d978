package model

import "time"

// OTP models a row of the `otp_codes` table.  At most one unverified code per
// voter is authoritative: issuing a new one deletes every older row.
type OTP struct {
	ID         uint64     // otp_codes.id
	VoterID    string     // otp_codes.voter_id
	Email      string     // otp_codes.email (destination the code was sent to)
	Code       string     // otp_codes.code, six decimal digits
	IssuedAt   time.Time  // otp_codes.issued_at
	ExpiresAt  time.Time  // otp_codes.expires_at
	Verified   bool       // otp_codes.verified
	VerifiedAt *time.Time // otp_codes.verified_at (nullable)
}

// Expired reports whether the code is past its expiry at now.  A code is
// still valid at exactly ExpiresAt.
func (o *OTP) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}
