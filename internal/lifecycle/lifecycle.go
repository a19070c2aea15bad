// Package lifecycle encodes the task state machine: which status moves are
// legal, who may request them, and what side effects each committed move
// carries. Everything here is a pure decision; the engine executes the plan.
package lifecycle

import (
	"fmt"

	"taskdesk/internal/domain"
	"taskdesk/internal/engine/auth"
)

// Audit action labels for status transitions.
const (
	ActionStatusUpdate      = "Cập nhật trạng thái"
	ActionApproveCompletion = "Duyệt hoàn thành"
	ActionRequestRework     = "Yêu cầu làm lại"
)

// InvalidTransitionError indicates the requested status is not a legal
// successor of the current one, or an operation ran against the wrong status.
type InvalidTransitionError struct {
	From domain.Status
	To   domain.Status
	Op   string
}

func (e InvalidTransitionError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("operation %s not allowed while task is %s", e.Op, e.From)
	}
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

// Recipient selects who a planned notification addresses.
type Recipient int

const (
	NotifyNone Recipient = iota
	NotifyCreator
	NotifyAssignee
)

// Plan is the computed, not-yet-executed outcome of an allowed transition.
type Plan struct {
	Target         domain.Status
	SetCompletedAt bool
	AuditAction    string
	AuditDetails   string
	Notify         Recipient
	Message        string
}

// successors is the legal edge set, cancellation excluded (cancelled is
// reachable from any non-terminal, non-cancelled status).
var successors = map[domain.Status][]domain.Status{
	domain.StatusNew:             {domain.StatusAccepted},
	domain.StatusAccepted:        {domain.StatusInProgress},
	domain.StatusInProgress:      {domain.StatusPendingApproval},
	domain.StatusPendingApproval: {domain.StatusCompleted, domain.StatusNeedsRework},
	domain.StatusNeedsRework:     {domain.StatusInProgress, domain.StatusPendingApproval},
}

// Allowed reports whether from -> to is a legal edge.
func Allowed(from, to domain.Status) bool {
	if to == domain.StatusCancelled {
		return from != domain.StatusCancelled && !from.Terminal()
	}
	for _, s := range successors[from] {
		if s == to {
			return true
		}
	}
	return false
}

// guard checks the authorization rule for the requested status.
func guard(requested domain.Status, rel auth.Relationship, actor domain.Actor) error {
	switch requested {
	case domain.StatusAccepted, domain.StatusInProgress, domain.StatusPendingApproval:
		if !rel.Assignee {
			return auth.ForbiddenError{Requirement: "assignee"}
		}
	case domain.StatusCompleted, domain.StatusNeedsRework:
		if !rel.Creator && !auth.HasCapability(actor, domain.CapApproveTask) {
			return auth.ForbiddenError{Requirement: "creator or capability " + string(domain.CapApproveTask)}
		}
	case domain.StatusCancelled:
		if !rel.Creator && !auth.HasCapability(actor, domain.CapEditDeleteTask) {
			return auth.ForbiddenError{Requirement: "creator or capability " + string(domain.CapEditDeleteTask)}
		}
	}
	return nil
}

// Evaluate decides whether actor may move task to requested and, if so,
// returns the side-effect plan. Illegal edges surface as
// InvalidTransitionError, guard failures as auth.ForbiddenError; neither
// implies any write has happened.
func Evaluate(task domain.Task, requested domain.Status, actor domain.Actor) (Plan, error) {
	if !Allowed(task.Status, requested) {
		return Plan{}, InvalidTransitionError{From: task.Status, To: requested}
	}
	if err := guard(requested, auth.RelationshipOf(actor, task), actor); err != nil {
		return Plan{}, err
	}

	plan := Plan{
		Target:       requested,
		AuditAction:  ActionStatusUpdate,
		AuditDetails: fmt.Sprintf("%s chuyển công việc #%d sang trạng thái %q", actor.Name, task.ID, requested.Label()),
	}
	switch requested {
	case domain.StatusCompleted:
		plan.SetCompletedAt = true
		plan.AuditAction = ActionApproveCompletion
		plan.AuditDetails = fmt.Sprintf("%s duyệt hoàn thành công việc #%d (%s)", actor.Name, task.ID, task.Title)
		plan.Notify = NotifyAssignee
		plan.Message = fmt.Sprintf("Công việc %q đã được duyệt hoàn thành", task.Title)
	case domain.StatusNeedsRework:
		plan.AuditAction = ActionRequestRework
		plan.AuditDetails = fmt.Sprintf("%s yêu cầu làm lại công việc #%d (%s)", actor.Name, task.ID, task.Title)
		plan.Notify = NotifyAssignee
		plan.Message = fmt.Sprintf("Công việc %q bị yêu cầu làm lại", task.Title)
	case domain.StatusAccepted:
		plan.Notify = NotifyCreator
		plan.Message = fmt.Sprintf("%s đã tiếp nhận công việc %q", actor.Name, task.Title)
	case domain.StatusPendingApproval:
		plan.Notify = NotifyCreator
		plan.Message = fmt.Sprintf("%s đã báo cáo hoàn thành công việc %q", actor.Name, task.Title)
	case domain.StatusCancelled:
		plan.AuditDetails = fmt.Sprintf("%s huỷ công việc #%d (%s)", actor.Name, task.ID, task.Title)
	}
	return plan, nil
}
