package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/voter-registry/internal/model"
)

// ReportRepo persists voter error reports.
type ReportRepo struct{ DB *sql.DB }

func NewReportRepo(db *sql.DB) *ReportRepo { return &ReportRepo{DB: db} }

// Create inserts rep and fills its ID.
func (r *ReportRepo) Create(ctx context.Context, rep *model.Report) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO reports (reported_voter_id,reported_by,reporter_email,error_type,description,created_at) VALUES (?,?,?,?,?,?)",
		rep.ReportedVoterID, rep.ReportedBy, rep.ReporterEmail, rep.ErrorType, nullable(rep.Description), rep.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rep.ID = uint64(id)
	return nil
}

// List returns every report, newest first.
func (r *ReportRepo) List(ctx context.Context) ([]model.Report, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,reported_voter_id,reported_by,reporter_email,error_type,description,created_at FROM reports ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Report{}
	for rows.Next() {
		var (
			rep  model.Report
			desc sql.NullString
		)
		if err := rows.Scan(&rep.ID, &rep.ReportedVoterID, &rep.ReportedBy, &rep.ReporterEmail, &rep.ErrorType, &desc, &rep.CreatedAt); err != nil {
			return nil, err
		}
		rep.Description = desc.String
		out = append(out, rep)
	}
	return out, rows.Err()
}
