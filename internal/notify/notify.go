// Package notify enqueues recipient-addressed notifications inside the
// caller's transaction. Delivery to outer channels (mail, chat) is someone
// else's job; here a notification is a durable unread row, consistent with
// the audit trail by construction.
package notify

import (
	"context"
	"database/sql"
	"time"
)

type Dispatcher struct {
	Now func() time.Time
}

// Enqueue inserts one unread notification through tx. A zero recipientID is
// a benign no-op.
func (d Dispatcher) Enqueue(ctx context.Context, tx *sql.Tx, recipientID int64, message, link string) error {
	if recipientID == 0 {
		return nil
	}
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	ts := now().UTC().Format(time.RFC3339)
	_, err := tx.ExecContext(ctx, `INSERT INTO notifications(recipient_id,message,link,read,created_at) VALUES (?,?,?,0,?)`,
		recipientID, message, nullable(link), ts)
	return err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
