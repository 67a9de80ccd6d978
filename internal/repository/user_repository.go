package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/voter-registry/internal/model"
)

const userColumns = "id,email,password_hash,role,has_account,name,voter_id,full_name,date_of_birth," +
	"address,phone_no,branch_name,photo_url,photo_data,fingerprint_template,account_created_at,created_at,updated_at"

// VoterUpdateFields lists, in statement order, the fields an admin may
// change on a voter record.
var VoterUpdateFields = []string{"full_name", "address", "email", "phone_no", "branch_name", "date_of_birth", "photo_url"}

// voterColumns are the columns an admin may change through a partial update.
// The key is the JSON field name, the value the column name.
var voterColumns = map[string]string{
	"full_name":     "full_name",
	"address":       "address",
	"email":         "email",
	"phone_no":      "phone_no",
	"branch_name":   "branch_name",
	"date_of_birth": "date_of_birth",
	"photo_url":     "photo_url",
}

// UserRepo encapsulates all queries against the users table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (*model.User, error) {
	var (
		u          model.User
		hash       sql.NullString
		role       string
		voterID    sql.NullString
		address    sql.NullString
		photoData  sql.NullString
		template   sql.NullString
		activation sql.NullTime
	)
	err := s.Scan(&u.ID, &u.Email, &hash, &role, &u.HasAccount, &u.Name, &voterID, &u.FullName,
		&u.DateOfBirth, &address, &u.PhoneNo, &u.BranchName, &u.PhotoURL, &photoData, &template,
		&activation, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.PasswordHash = hash.String
	u.Role = model.Role(role)
	u.VoterID = voterID.String
	u.Address = address.String
	u.PhotoData = photoData.String
	u.FingerprintTemplate = template.String
	if activation.Valid {
		t := activation.Time
		u.AccountCreatedAt = &t
	}
	return &u, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// CreateAdmin inserts an active admin user and returns its ID.
func (r *UserRepo) CreateAdmin(ctx context.Context, email, passwordHash, name string, now time.Time) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email,password_hash,role,has_account,name,account_created_at,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?)",
		email, passwordHash, string(model.RoleAdmin), true, name, now, now, now)
	if err != nil {
		return 0, translateDuplicate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// CreateVoter inserts a provisioned voter (no credentials) and returns its ID.
func (r *UserRepo) CreateVoter(ctx context.Context, u *model.User) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email,role,has_account,voter_id,full_name,date_of_birth,address,phone_no,branch_name,"+
			"photo_url,photo_data,fingerprint_template,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)",
		u.Email, string(model.RoleVoter), false, u.VoterID, u.FullName, u.DateOfBirth, nullable(u.Address),
		u.PhoneNo, u.BranchName, u.PhotoURL, nullable(u.PhotoData), nullable(u.FingerprintTemplate),
		u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return 0, translateDuplicate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	u.ID = uint64(id)
	return u.ID, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetVoter fetches a voter row by its voter number.
func (r *UserRepo) GetVoter(ctx context.Context, voterID string) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE voter_id=? AND role='voter' LIMIT 1", voterID))
}

// VoterIDExists reports whether any row already uses voterID.
func (r *UserRepo) VoterIDExists(ctx context.Context, voterID string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE voter_id=?", voterID).Scan(&n)
	return n > 0, err
}

// EmailExists reports whether any row already uses email.
func (r *UserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE email=?", email).Scan(&n)
	return n > 0, err
}

// EmailClaimedByOther reports whether an active account other than the voter
// identified by voterID already holds email.
func (r *UserRepo) EmailClaimedByOther(ctx context.Context, email, voterID string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE email=? AND has_account=1 AND (voter_id IS NULL OR voter_id<>?)",
		email, voterID).Scan(&n)
	return n > 0, err
}

// Activate promotes a provisioned voter in a single conditional UPDATE.  It
// returns false when no provisioned row matched, which happens both when the
// voter does not exist and when a concurrent request activated it first.
func (r *UserRepo) Activate(ctx context.Context, a model.Activation) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, has_account=1, name=?, account_created_at=?, updated_at=? "+
			"WHERE voter_id=? AND role='voter' AND has_account=0",
		a.PasswordHash, a.Name, a.At, a.At, a.VoterID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListVoters returns voters newest first.  A nil hasAccount returns all of
// them; otherwise only those in the requested state.
func (r *UserRepo) ListVoters(ctx context.Context, hasAccount *bool) ([]model.User, error) {
	q := "SELECT " + userColumns + " FROM users WHERE role='voter'"
	var args []any
	if hasAccount != nil {
		q += " AND has_account=?"
		args = append(args, *hasAccount)
	}
	q += " ORDER BY created_at DESC, id DESC"

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// UpdateVoter applies a partial update to a voter row.  Keys of fields must
// be members of the voter column allow-list; updated_at is always bumped.
// It returns ErrNotFound when no voter has voterID.
func (r *UserRepo) UpdateVoter(ctx context.Context, voterID string, fields map[string]string, now time.Time) error {
	if len(fields) == 0 {
		return fmt.Errorf("update voter: no fields")
	}
	for key := range fields {
		if _, ok := voterColumns[key]; !ok {
			return fmt.Errorf("update voter: column %q not allowed", key)
		}
	}
	sets := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+2)
	// iterate the ordered allow-list, not the map, so the statement text is stable
	for _, key := range VoterUpdateFields {
		v, ok := fields[key]
		if !ok {
			continue
		}
		sets = append(sets, voterColumns[key]+"=?")
		args = append(args, v)
	}
	sets = append(sets, "updated_at=?")
	args = append(args, now, voterID)

	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(sets, ", ")+" WHERE voter_id=? AND role='voter'", args...)
	if err != nil {
		return translateDuplicate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteVoter removes a voter row.  It returns ErrNotFound when nothing matched.
func (r *UserRepo) DeleteVoter(ctx context.Context, voterID string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE voter_id=? AND role='voter'", voterID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
