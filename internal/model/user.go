package model

import "time"

// Role is the value stored in users.role.
type Role string

const (
	RoleVoter Role = "voter"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool { return r == RoleVoter || r == RoleAdmin }

// AccountState is the lifecycle state of a users row.  A voter row starts
// Provisioned (created by an admin, no credentials) and moves to Active
// exactly once, when the voter completes signup.  Admin rows are created
// Active.
type AccountState string

const (
	StateProvisioned AccountState = "provisioned"
	StateActive      AccountState = "active"
)

// User represents a row of the `users` table.  Voters and admins share the
// table; the provisioning fields are only filled for voters.  The json tags
// are omitted because handlers build their own response shapes and must
// never echo PasswordHash.
//
// Fields:
//  ID                  – primary key identifier of the user.
//  Email               – unique email address, stored lower-cased.
//  PasswordHash        – bcrypt hash; empty while the voter is provisioned.
//  Role                – voter or admin.
//  HasAccount          – true once credentials are set.
//  Name                – display name supplied at signup.
//  VoterID             – four digit voter number; empty for admins.
//  FullName … BranchName – admin recorded registration data.
//  PhotoURL            – reference returned by the blob store.
//  PhotoData           – inline base64 copy of the photo.
//  FingerprintTemplate – scanner template captured at registration.
type User struct {
	ID                  uint64     // users.id
	Email               string     // users.email
	PasswordHash        string     // users.password_hash (nullable)
	Role                Role       // users.role
	HasAccount          bool       // users.has_account
	Name                string     // users.name
	VoterID             string     // users.voter_id (nullable)
	FullName            string     // users.full_name
	DateOfBirth         string     // users.date_of_birth (YYYY-MM-DD)
	Address             string     // users.address
	PhoneNo             string     // users.phone_no
	BranchName          string     // users.branch_name
	PhotoURL            string     // users.photo_url
	PhotoData           string     // users.photo_data
	FingerprintTemplate string     // users.fingerprint_template
	AccountCreatedAt    *time.Time // users.account_created_at (nullable)
	CreatedAt           time.Time  // users.created_at
	UpdatedAt           time.Time  // users.updated_at
}

// State derives the lifecycle state from HasAccount.
func (u *User) State() AccountState {
	if u.HasAccount {
		return StateActive
	}
	return StateProvisioned
}

// IsVoter reports whether the row belongs to a voter.
func (u *User) IsVoter() bool { return u.Role == RoleVoter }

// Activation carries the values written when a provisioned voter is promoted.
type Activation struct {
	VoterID      string
	Name         string
	PasswordHash string
	At           time.Time
}
