package repo

import (
	"context"
	"database/sql"
	"strings"

	"taskdesk/internal/domain"
)

type AuditFilters struct {
	TaskID   int64
	ActorID  int64
	Limit    int
	CursorID int64
}

// ListAuditEntries returns audit rows newest-first. Entries for a task are
// returned in reverse commit order.
func (r Repo) ListAuditEntries(ctx context.Context, f AuditFilters) ([]domain.AuditEntry, error) {
	clauses := []string{"1=1"}
	var args []any
	if f.TaskID != 0 {
		clauses = append(clauses, "task_id=?")
		args = append(args, f.TaskID)
	}
	if f.ActorID != 0 {
		clauses = append(clauses, "actor_id=?")
		args = append(args, f.ActorID)
	}
	if f.CursorID != 0 {
		clauses = append(clauses, "id<?")
		args = append(args, f.CursorID)
	}
	query := `SELECT id,actor_id,module,action,details,task_id,created_at FROM audit_entries WHERE ` +
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
	var res []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var details sql.NullString
		var taskID sql.NullInt64
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Module, &e.Action, &details, &taskID, &e.CreatedAt); err != nil {
			return nil, err
		}
		if details.Valid {
			e.Details = details.String
		}
		if taskID.Valid {
			e.TaskID = &taskID.Int64
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// CountAuditEntries counts entries for a task, nil task rows excluded.
func (r Repo) CountAuditEntries(ctx context.Context, taskID int64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM audit_entries WHERE task_id=?`, taskID).Scan(&n)
	return n, err
}
