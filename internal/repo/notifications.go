package repo

import (
	"context"
	"database/sql"
	"strings"

	"taskdesk/internal/domain"
)

type NotificationFilters struct {
	RecipientID int64
	UnreadOnly  bool
	Limit       int
	CursorID    int64
}

func (r Repo) ListNotifications(ctx context.Context, f NotificationFilters) ([]domain.Notification, error) {
	clauses := []string{"recipient_id=?"}
	args := []any{f.RecipientID}
	if f.UnreadOnly {
		clauses = append(clauses, "read=0")
	}
	if f.CursorID != 0 {
		clauses = append(clauses, "id<?")
		args = append(args, f.CursorID)
	}
	query := `SELECT id,recipient_id,message,link,read,created_at FROM notifications WHERE ` +
		strings.Join(clauses, " AND ") + ` ORDER BY id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var link sql.NullString
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Message, &link, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		if link.Valid {
			n.Link = link.String
		}
		res = append(res, n)
	}
	return res, rows.Err()
}

// MarkNotificationRead flips the read flag. The recipient scoping keeps one
// actor from consuming another's notifications.
func (r Repo) MarkNotificationRead(ctx context.Context, id, recipientID int64) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE notifications SET read=1 WHERE id=? AND recipient_id=?`, id, recipientID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) CountUnreadNotifications(ctx context.Context, recipientID int64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM notifications WHERE recipient_id=? AND read=0`, recipientID).Scan(&n)
	return n, err
}
