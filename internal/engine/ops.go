package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskdesk/internal/audit"
	"taskdesk/internal/domain"
	"taskdesk/internal/engine/auth"
	"taskdesk/internal/lifecycle"
)

// CreateOptions are parameters for creating a task.
type CreateOptions struct {
	Title       string
	Description string
	Priority    string
	DueDate     string
	AssigneeID  int64
}

func (e *Engine) Create(ctx context.Context, opts CreateOptions, actor domain.Actor) (domain.Task, error) {
	if strings.TrimSpace(opts.Title) == "" {
		return domain.Task{}, ValidationError{Field: "title", Reason: "is required"}
	}
	if opts.DueDate != "" {
		if _, err := time.Parse(time.RFC3339, opts.DueDate); err != nil {
			return domain.Task{}, ValidationError{Field: "due_date", Reason: "must be an RFC 3339 timestamp"}
		}
	}
	now := e.now().UTC().Format(time.RFC3339)
	t := domain.Task{
		Title:       strings.TrimSpace(opts.Title),
		Description: opts.Description,
		Status:      domain.StatusNew,
		Priority:    opts.Priority,
		CreatorID:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if opts.DueDate != "" {
		t.DueDate = &opts.DueDate
	}
	if opts.AssigneeID != 0 {
		t.AssigneeID = &opts.AssigneeID
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return t, err
	}
	defer tx.Rollback()

	id, err := e.Repo.InsertTaskTx(ctx, tx, t)
	if err != nil {
		return t, err
	}
	t.ID = id
	details := fmt.Sprintf("%s tạo công việc #%d (%s)", actor.Name, t.ID, t.Title)
	if err := e.Audit.Append(ctx, tx, actor.ID, audit.Module, "Tạo công việc", details, &t.ID); err != nil {
		return t, err
	}
	if t.AssigneeID != nil && *t.AssigneeID != actor.ID {
		msg := fmt.Sprintf("Bạn được giao công việc %q", t.Title)
		if err := e.Notify.Enqueue(ctx, tx, *t.AssigneeID, msg, taskLink(t.ID)); err != nil {
			return t, err
		}
	}
	if err := tx.Commit(); err != nil {
		return t, err
	}
	e.Log.Info("task created", "task_id", t.ID, "actor_id", actor.ID)
	return t, nil
}

// EditOptions encapsulates allowed edits. Nil fields are unchanged; an empty
// string (or zero Assignee) clears the field.
type EditOptions struct {
	ID          int64
	Title       *string
	Description *string
	Priority    *string
	DueDate     *string
	AssigneeID  *int64
}

// Edit applies field changes under the creator-or-edit_delete_task guard and
// records one audit entry carrying a readable diff of what changed. A
// reassignment additionally notifies the new assignee.
func (e *Engine) Edit(ctx context.Context, opts EditOptions, actor domain.Actor) (domain.Task, error) {
	if opts.Title != nil && strings.TrimSpace(*opts.Title) == "" {
		return domain.Task{}, ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if opts.DueDate != nil && *opts.DueDate != "" {
		if _, err := time.Parse(time.RFC3339, *opts.DueDate); err != nil {
			return domain.Task{}, ValidationError{Field: "due_date", Reason: "must be an RFC 3339 timestamp"}
		}
	}
	unlock := e.locks.acquire(opts.ID)
	defer unlock()

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()

	t, err := e.Repo.GetTaskTx(ctx, tx, opts.ID)
	if err != nil {
		return t, err
	}
	if err := requireEditDelete(actor, t); err != nil {
		return t, err
	}

	var changes []string
	if opts.Title != nil && *opts.Title != t.Title {
		changes = append(changes, fmt.Sprintf("Tiêu đề: %q thành %q", t.Title, *opts.Title))
		t.Title = strings.TrimSpace(*opts.Title)
	}
	if opts.Description != nil && *opts.Description != t.Description {
		changes = append(changes, "Mô tả đã thay đổi")
		t.Description = *opts.Description
	}
	if opts.Priority != nil && *opts.Priority != t.Priority {
		changes = append(changes, fmt.Sprintf("Độ ưu tiên: %s thành %s", orNone(t.Priority), orNone(*opts.Priority)))
		t.Priority = *opts.Priority
	}
	if opts.DueDate != nil && *opts.DueDate != stringOrEmpty(t.DueDate) {
		changes = append(changes, fmt.Sprintf("Hạn hoàn thành: %s thành %s", orNone(stringOrEmpty(t.DueDate)), orNone(*opts.DueDate)))
		if *opts.DueDate == "" {
			t.DueDate = nil
		} else {
			t.DueDate = opts.DueDate
		}
	}
	var reassignedTo int64
	if opts.AssigneeID != nil && *opts.AssigneeID != int64OrZero(t.AssigneeID) {
		changes = append(changes, fmt.Sprintf("Người thực hiện: %s thành %s", actorRef(t.AssigneeID), actorRef(opts.AssigneeID)))
		if *opts.AssigneeID == 0 {
			t.AssigneeID = nil
		} else {
			t.AssigneeID = opts.AssigneeID
			reassignedTo = *opts.AssigneeID
		}
	}
	if len(changes) == 0 {
		return t, nil
	}

	t.UpdatedAt = e.now().UTC().Format(time.RFC3339)
	if err := e.Repo.UpdateTaskTx(ctx, tx, t); err != nil {
		return t, err
	}
	details := fmt.Sprintf("%s cập nhật công việc #%d: %s", actor.Name, t.ID, strings.Join(changes, "; "))
	if err := e.Audit.Append(ctx, tx, actor.ID, audit.Module, "Cập nhật công việc", details, &t.ID); err != nil {
		return t, err
	}
	if reassignedTo != 0 && reassignedTo != actor.ID {
		msg := fmt.Sprintf("Bạn được giao công việc %q", t.Title)
		if err := e.Notify.Enqueue(ctx, tx, reassignedTo, msg, taskLink(t.ID)); err != nil {
			return t, err
		}
	}
	if err := tx.Commit(); err != nil {
		return t, err
	}
	return t, nil
}

// Delete soft-deletes by moving the task to cancelled; the row stays until
// PermanentlyDelete erases it.
func (e *Engine) Delete(ctx context.Context, taskID int64, actor domain.Actor, details string) (domain.Task, error) {
	return e.Transition(ctx, taskID, domain.StatusCancelled, actor, details)
}

// Restore returns a cancelled task to the start of the workflow, clearing
// completion fields so the completed_at invariant holds.
func (e *Engine) Restore(ctx context.Context, taskID int64, actor domain.Actor) (domain.Task, error) {
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
	if err := requireEditDelete(actor, t); err != nil {
		return t, err
	}
	if t.Status != domain.StatusCancelled {
		return t, lifecycle.InvalidTransitionError{From: t.Status, Op: "restore"}
	}
	t.Status = domain.StatusNew
	t.CompletedAt = nil
	t.KPIScore = nil
	t.UpdatedAt = e.now().UTC().Format(time.RFC3339)
	if err := e.Repo.UpdateTaskTx(ctx, tx, t); err != nil {
		return t, err
	}
	details := fmt.Sprintf("%s khôi phục công việc #%d (%s)", actor.Name, t.ID, t.Title)
	if err := e.Audit.Append(ctx, tx, actor.ID, audit.Module, "Khôi phục công việc", details, &t.ID); err != nil {
		return t, err
	}
	return t, tx.Commit()
}

// PermanentlyDelete erases a cancelled task and its dependent comment,
// attachment and audit rows. The actor must reconfirm their credential
// before the guard is even considered.
func (e *Engine) PermanentlyDelete(ctx context.Context, taskID int64, actor domain.Actor, secret string) error {
	unlock := e.locks.acquire(taskID)
	defer unlock()

	ok, err := e.Repo.VerifyActorSecret(ctx, actor.ID, secret)
	if err != nil {
		return err
	}
	if !ok {
		return auth.ForbiddenError{Requirement: "password confirmation"}
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	t, err := e.Repo.GetTaskTx(ctx, tx, taskID)
	if err != nil {
		return err
	}
	if err := requireEditDelete(actor, t); err != nil {
		return err
	}
	if t.Status != domain.StatusCancelled {
		return lifecycle.InvalidTransitionError{From: t.Status, Op: "permanent delete"}
	}
	if err := e.Repo.PurgeTaskTx(ctx, tx, taskID); err != nil {
		return err
	}
	// Task id left nil so the entry survives the erased row.
	details := fmt.Sprintf("%s xoá vĩnh viễn công việc #%d (%s)", actor.Name, taskID, t.Title)
	if err := e.Audit.Append(ctx, tx, actor.ID, audit.Module, "Xoá vĩnh viễn công việc", details, nil); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	e.Log.Info("task purged", "task_id", taskID, "actor_id", actor.ID)
	return nil
}

// ScoreKPI records a completion score for a completed task. The score is
// validated before any storage access.
func (e *Engine) ScoreKPI(ctx context.Context, taskID int64, score int, actor domain.Actor) (domain.Task, error) {
	if score < 1 || score > 3 {
		return domain.Task{}, ValidationError{Field: "kpi_score", Reason: "must be between 1 and 3"}
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
	if t.Status != domain.StatusCompleted {
		return t, lifecycle.InvalidTransitionError{From: t.Status, Op: "score KPI"}
	}
	rel := auth.RelationshipOf(actor, t)
	if !rel.Creator && !auth.HasCapability(actor, domain.CapApproveTask) {
		return t, auth.ForbiddenError{Requirement: "creator or capability " + string(domain.CapApproveTask)}
	}
	t.KPIScore = &score
	t.UpdatedAt = e.now().UTC().Format(time.RFC3339)
	if err := e.Repo.UpdateTaskTx(ctx, tx, t); err != nil {
		return t, err
	}
	details := fmt.Sprintf("%s chấm điểm KPI %d/3 cho công việc #%d (%s)", actor.Name, score, t.ID, t.Title)
	if err := e.Audit.Append(ctx, tx, actor.ID, audit.Module, "Chấm điểm KPI", details, &t.ID); err != nil {
		return t, err
	}
	if t.AssigneeID != nil && *t.AssigneeID != actor.ID {
		msg := fmt.Sprintf("Công việc %q được chấm %d/3 điểm KPI", t.Title, score)
		if err := e.Notify.Enqueue(ctx, tx, *t.AssigneeID, msg, taskLink(t.ID)); err != nil {
			return t, err
		}
	}
	return t, tx.Commit()
}

// AddComment appends a comment to an existing task.
func (e *Engine) AddComment(ctx context.Context, taskID int64, body string, actor domain.Actor) (domain.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return domain.Comment{}, ValidationError{Field: "body", Reason: "is required"}
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Comment{}, err
	}
	defer tx.Rollback()

	t, err := e.Repo.GetTaskTx(ctx, tx, taskID)
	if err != nil {
		return domain.Comment{}, err
	}
	c := domain.Comment{
		TaskID:    t.ID,
		AuthorID:  actor.ID,
		Body:      body,
		CreatedAt: e.now().UTC().Format(time.RFC3339),
	}
	id, err := e.Repo.InsertCommentTx(ctx, tx, c)
	if err != nil {
		return c, err
	}
	c.ID = id
	return c, tx.Commit()
}

// RecordAttachment books an attachment row for a blob held in external
// storage; the returned storage key addresses it there.
func (e *Engine) RecordAttachment(ctx context.Context, taskID int64, fileName string, actor domain.Actor) (domain.Attachment, error) {
	if strings.TrimSpace(fileName) == "" {
		return domain.Attachment{}, ValidationError{Field: "file_name", Reason: "is required"}
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Attachment{}, err
	}
	defer tx.Rollback()

	t, err := e.Repo.GetTaskTx(ctx, tx, taskID)
	if err != nil {
		return domain.Attachment{}, err
	}
	a := domain.Attachment{
		TaskID:     t.ID,
		StorageKey: uuid.New().String(),
		FileName:   fileName,
		UploadedBy: actor.ID,
		CreatedAt:  e.now().UTC().Format(time.RFC3339),
	}
	id, err := e.Repo.InsertAttachmentTx(ctx, tx, a)
	if err != nil {
		return a, err
	}
	a.ID = id
	return a, tx.Commit()
}

func requireEditDelete(actor domain.Actor, t domain.Task) error {
	rel := auth.RelationshipOf(actor, t)
	if rel.Creator || auth.HasCapability(actor, domain.CapEditDeleteTask) {
		return nil
	}
	return auth.ForbiddenError{Requirement: "creator or capability " + string(domain.CapEditDeleteTask)}
}

func stringOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func int64OrZero(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

func orNone(v string) string {
	if v == "" {
		return "(không)"
	}
	return v
}

func actorRef(id *int64) string {
	if id == nil || *id == 0 {
		return "(không)"
	}
	return fmt.Sprintf("#%d", *id)
}
