package service

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

const (
	dateLayout    = "2006-01-02"
	minVoterAge   = 18
	phoneDigits   = 10
	minAdminPWLen = 6
)

var (
	voterIDPattern    = regexp.MustCompile(`^\d{4}$`)
	emailPattern      = regexp.MustCompile(`(?i)^[A-Za-z0-9._%+-]+@(?:gmail\.com|outlook\.com|[A-Za-z0-9.-]+\.ac\.in)$`)
	adminEmailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	namePattern       = regexp.MustCompile(`^[A-Za-z\s]+$`)
	voterPINPattern   = regexp.MustCompile(`^\d{6}$`)
)

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func checkVoterID(v string) error {
	if !voterIDPattern.MatchString(v) {
		return invalid("Voter ID must be exactly 4 digits")
	}
	return nil
}

func checkEmail(v string) error {
	if !emailPattern.MatchString(v) {
		return invalid("Email must be from gmail.com, outlook.com, or an .ac.in domain")
	}
	return nil
}

// Admins are not tied to the voter mail domains; the address only has to
// look like one.
func checkAdminEmail(v string) error {
	if v == "" {
		return invalid("Email is required")
	}
	if !adminEmailPattern.MatchString(v) {
		return invalid("Invalid email address")
	}
	return nil
}

func checkName(v string) error {
	if !namePattern.MatchString(v) {
		return invalid("Name should contain only letters and spaces")
	}
	return nil
}

func checkPhone(v string) error {
	n := 0
	for _, r := range v {
		if unicode.IsDigit(r) {
			n++
		}
	}
	if n != phoneDigits {
		return invalid("Phone number must be exactly 10 digits")
	}
	return nil
}

// checkDateOfBirth requires YYYY-MM-DD and a calendar age of at least 18 on now.
func checkDateOfBirth(v string, now time.Time) error {
	dob, err := time.Parse(dateLayout, v)
	if err != nil {
		return invalid("Invalid date format")
	}
	if ageOn(dob, now) < minVoterAge {
		return invalid("Voter must be at least 18 years old")
	}
	return nil
}

func ageOn(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

func checkVoterPassword(v string) error {
	if !voterPINPattern.MatchString(v) {
		return invalid("Password must be exactly 6 digits")
	}
	return nil
}

func checkAdminPassword(v string) error {
	if len(v) < minAdminPWLen {
		return invalid("Password must be at least 6 characters")
	}
	return nil
}
