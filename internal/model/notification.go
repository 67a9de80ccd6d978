package model

import "time"

// Notification is an admin broadcast shown on the voter dashboard.  Rows are
// append-only.
type Notification struct {
	ID        uint64
	Message   string
	CreatedBy uint64
	CreatedAt time.Time
}

// Report is a voter submitted complaint about another voter record, for
// example a duplicate or fake registration.  Rows are append-only.
type Report struct {
	ID              uint64
	ReportedVoterID string
	ReportedBy      uint64
	ReporterEmail   string
	ErrorType       string
	Description     string
	CreatedAt       time.Time
}
