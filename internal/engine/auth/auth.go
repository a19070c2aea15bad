// Package auth resolves what an actor may do to a task: named capabilities
// and the creator/assignee relationship. Pure lookups, no side effects.
package auth

import (
	"fmt"

	"taskdesk/internal/domain"
)

// ForbiddenError indicates the actor does not satisfy a guard.
type ForbiddenError struct {
	Requirement string
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("%s required", e.Requirement)
}

// Relationship describes how an actor relates to a task. Creator and
// Assignee are evaluated independently; both may hold at once.
type Relationship struct {
	Creator  bool
	Assignee bool
}

func RelationshipOf(actor domain.Actor, task domain.Task) Relationship {
	rel := Relationship{Creator: task.CreatorID == actor.ID}
	if task.AssigneeID != nil && *task.AssigneeID == actor.ID {
		rel.Assignee = true
	}
	return rel
}

// HasCapability reports whether the actor holds the named capability.
// Superadmins hold every capability implicitly.
func HasCapability(actor domain.Actor, c domain.Capability) bool {
	if actor.Superadmin {
		return true
	}
	return actor.Capabilities.Has(c)
}
