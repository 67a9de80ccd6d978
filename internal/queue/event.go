// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names. Both are durable and use the default exchange.
const (
	AccountActivatedQueue = "account.activated"
	VoterRegisteredQueue  = "voter.registered"
)

// AccountActivatedEvent is published once a provisioned voter completes
// signup.  It carries enough to build an audit trail without querying the
// primary database.
type AccountActivatedEvent struct {
	UserID      uint64 `json:"user_id"`
	VoterID     string `json:"voter_id"`
	Email       string `json:"email"`
	BranchName  string `json:"branch_name"`
	ActivatedAt string `json:"activated_at"`
}

// VoterRegisteredEvent is published when an admin provisions a new voter.
type VoterRegisteredEvent struct {
	UserID       uint64 `json:"user_id"`
	VoterID      string `json:"voter_id"`
	Email        string `json:"email"`
	BranchName   string `json:"branch_name"`
	RegisteredBy uint64 `json:"registered_by"`
	RegisteredAt string `json:"registered_at"`
}
