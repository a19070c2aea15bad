// Package audit appends immutable audit trail rows inside the caller's
// transaction, so an entry never survives an aborted unit of work.
package audit

import (
	"context"
	"database/sql"
	"time"
)

// Module is the audit module tag for the task subsystem.
const Module = "tasks"

type Recorder struct {
	Now func() time.Time
}

// Append writes one audit entry through tx. taskID may be nil for entries
// not bound to a task row.
func (r Recorder) Append(ctx context.Context, tx *sql.Tx, actorID int64, module, action, details string, taskID *int64) error {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	ts := now().UTC().Format(time.RFC3339)
	_, err := tx.ExecContext(ctx, `INSERT INTO audit_entries(actor_id,module,action,details,task_id,created_at) VALUES (?,?,?,?,?,?)`,
		actorID, module, action, nullable(details), taskID, ts)
	return err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
