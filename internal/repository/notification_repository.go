package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/voter-registry/internal/model"
)

// NotificationRepo persists admin broadcasts.
type NotificationRepo struct{ DB *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{DB: db} }

// Create inserts n and fills its ID.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO notifications (message,created_by,created_at) VALUES (?,?,?)",
		n.Message, n.CreatedBy, n.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	return nil
}

// List returns every notification, newest first.
func (r *NotificationRepo) List(ctx context.Context) ([]model.Notification, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,message,created_by,created_at FROM notifications ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Notification{}
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.Message, &n.CreatedBy, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
