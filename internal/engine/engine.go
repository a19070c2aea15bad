// Package engine coordinates task mutations as atomic units of work: load
// under a per-task lock, decide via the lifecycle table, then write state,
// audit trail and notification inside one transaction that commits or
// aborts together.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"taskdesk/internal/audit"
	"taskdesk/internal/domain"
	"taskdesk/internal/lifecycle"
	"taskdesk/internal/notify"
	"taskdesk/internal/repo"
)

// AuditRecorder durably appends one immutable audit entry inside tx.
type AuditRecorder interface {
	Append(ctx context.Context, tx *sql.Tx, actorID int64, module, action, details string, taskID *int64) error
}

// NotificationDispatcher enqueues a recipient-addressed message inside tx.
// A zero recipient is a benign no-op; any failure aborts the unit.
type NotificationDispatcher interface {
	Enqueue(ctx context.Context, tx *sql.Tx, recipientID int64, message, link string) error
}

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Audit  AuditRecorder
	Notify NotificationDispatcher
	Log    *slog.Logger
	Now    func() time.Time

	locks taskLocks
}

func New(db *sql.DB, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Audit:  audit.Recorder{},
		Notify: notify.Dispatcher{},
		Log:    log,
		Now:    time.Now,
	}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func taskLink(id int64) string {
	return fmt.Sprintf("/tasks/%d", id)
}

// ValidationError indicates malformed input, rejected before any storage
// access.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Transition applies a requested status change for actor as one atomic
// unit: lock, load, evaluate, write state, append audit, enqueue
// notification, commit. Any failure leaves the task untouched.
func (e *Engine) Transition(ctx context.Context, taskID int64, requested domain.Status, actor domain.Actor, details string) (domain.Task, error) {
	if !requested.Valid() {
		return domain.Task{}, ValidationError{Field: "status", Reason: fmt.Sprintf("%q is not a recognized status", string(requested))}
	}
	unlock := e.locks.acquire(taskID)
	defer unlock()

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()

	t, err := e.Repo.GetTaskTx(ctx, tx, taskID)
	if err != nil {
		return t, err
	}
	plan, err := lifecycle.Evaluate(t, requested, actor)
	if err != nil {
		return t, err
	}

	now := e.now().UTC().Format(time.RFC3339)
	t.Status = plan.Target
	t.UpdatedAt = now
	if plan.SetCompletedAt {
		t.CompletedAt = &now
	}
	if err := e.Repo.UpdateTaskTx(ctx, tx, t); err != nil {
		return t, err
	}

	auditDetails := plan.AuditDetails
	if details != "" {
		auditDetails += ": " + details
	}
	if err := e.Audit.Append(ctx, tx, actor.ID, audit.Module, plan.AuditAction, auditDetails, &t.ID); err != nil {
		return t, err
	}

	recipient := planRecipient(plan, t)
	if recipient != 0 && recipient != actor.ID {
		if err := e.Notify.Enqueue(ctx, tx, recipient, plan.Message, taskLink(t.ID)); err != nil {
			return t, err
		}
	}
	if err := tx.Commit(); err != nil {
		return t, err
	}
	e.Log.Info("task transition", "task_id", t.ID, "status", string(t.Status), "actor_id", actor.ID)
	return t, nil
}

func planRecipient(plan lifecycle.Plan, t domain.Task) int64 {
	switch plan.Notify {
	case lifecycle.NotifyCreator:
		return t.CreatorID
	case lifecycle.NotifyAssignee:
		if t.AssigneeID != nil {
			return *t.AssigneeID
		}
	}
	return 0
}
