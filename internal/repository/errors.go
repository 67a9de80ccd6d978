// Package repository defines the MySQL data access layer and the error
// values shared across repositories.  These sentinels let the service layer
// tell "absent" apart from "duplicate" without inspecting driver errors.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when an insert or update collides with the
// unique key on users.email.
var ErrEmailExists = errors.New("email already exists")

// ErrVoterIDExists is returned when an insert collides with the unique key
// on users.voter_id.
var ErrVoterIDExists = errors.New("voter id already exists")

// ErrConflict is returned for any other unique key violation.
var ErrConflict = errors.New("conflict")

// mysqlDuplicateEntry is the server error number for a unique key violation.
const mysqlDuplicateEntry = 1062

// translateDuplicate maps a duplicate-key error from MySQL to the matching
// sentinel.  Other errors are returned unchanged.
func translateDuplicate(err error) error {
	if err == nil {
		return nil
	}
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != mysqlDuplicateEntry {
		return err
	}
	switch {
	case strings.Contains(me.Message, "uq_users_email"):
		return ErrEmailExists
	case strings.Contains(me.Message, "uq_users_voter_id"):
		return ErrVoterIDExists
	default:
		return ErrConflict
	}
}
