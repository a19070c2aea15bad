package lifecycle

import (
	"errors"
	"testing"

	"taskdesk/internal/domain"
	"taskdesk/internal/engine/auth"
)

func taskIn(status domain.Status) domain.Task {
	assignee := int64(2)
	return domain.Task{
		ID:         7,
		Title:      "Báo cáo quý",
		Status:     status,
		CreatorID:  1,
		AssigneeID: &assignee,
	}
}

func creator() domain.Actor  { return domain.Actor{ID: 1, Name: "Lan"} }
func assignee() domain.Actor { return domain.Actor{ID: 2, Name: "Minh"} }

func approver() domain.Actor {
	return domain.Actor{ID: 3, Name: "Hoa", Capabilities: domain.NewCapabilitySet(string(domain.CapApproveTask))}
}

func TestAllowedEdges(t *testing.T) {
	legal := map[domain.Status][]domain.Status{
		domain.StatusNew:             {domain.StatusAccepted, domain.StatusCancelled},
		domain.StatusAccepted:        {domain.StatusInProgress, domain.StatusCancelled},
		domain.StatusInProgress:      {domain.StatusPendingApproval, domain.StatusCancelled},
		domain.StatusPendingApproval: {domain.StatusCompleted, domain.StatusNeedsRework, domain.StatusCancelled},
		domain.StatusNeedsRework:     {domain.StatusInProgress, domain.StatusPendingApproval, domain.StatusCancelled},
		domain.StatusCompleted:       nil,
		domain.StatusCancelled:       nil,
	}
	for _, from := range domain.Statuses {
		for _, to := range domain.Statuses {
			want := false
			for _, s := range legal[from] {
				if s == to {
					want = true
				}
			}
			if got := Allowed(from, to); got != want {
				t.Errorf("Allowed(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestEvaluateEdgeCheckedBeforeGuard(t *testing.T) {
	// The assignee may normally not complete a task, but on an illegal edge
	// the transition error wins over the permission error.
	_, err := Evaluate(taskIn(domain.StatusNew), domain.StatusCompleted, assignee())
	var ite InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Fatalf("err = %v, want InvalidTransitionError", err)
	}
	if ite.From != domain.StatusNew || ite.To != domain.StatusCompleted {
		t.Errorf("got %s -> %s", ite.From, ite.To)
	}
}

func TestEvaluateSelfTransition(t *testing.T) {
	_, err := Evaluate(taskIn(domain.StatusInProgress), domain.StatusInProgress, assignee())
	var ite InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Fatalf("err = %v, want InvalidTransitionError", err)
	}
}

func TestEvaluateGuards(t *testing.T) {
	cases := []struct {
		name      string
		from, to  domain.Status
		actor     domain.Actor
		forbidden bool
	}{
		{"assignee accepts", domain.StatusNew, domain.StatusAccepted, assignee(), false},
		{"creator cannot accept", domain.StatusNew, domain.StatusAccepted, creator(), true},
		{"assignee starts", domain.StatusAccepted, domain.StatusInProgress, assignee(), false},
		{"assignee reports done", domain.StatusInProgress, domain.StatusPendingApproval, assignee(), false},
		{"approver cannot report done", domain.StatusInProgress, domain.StatusPendingApproval, approver(), true},
		{"creator approves", domain.StatusPendingApproval, domain.StatusCompleted, creator(), false},
		{"approver approves", domain.StatusPendingApproval, domain.StatusCompleted, approver(), false},
		{"assignee cannot approve", domain.StatusPendingApproval, domain.StatusCompleted, assignee(), true},
		{"creator requests rework", domain.StatusPendingApproval, domain.StatusNeedsRework, creator(), false},
		{"assignee cannot request rework", domain.StatusPendingApproval, domain.StatusNeedsRework, assignee(), true},
		{"rework back to in progress", domain.StatusNeedsRework, domain.StatusInProgress, assignee(), false},
		{"rework straight to pending", domain.StatusNeedsRework, domain.StatusPendingApproval, assignee(), false},
		{"creator cancels", domain.StatusInProgress, domain.StatusCancelled, creator(), false},
		{"assignee cannot cancel", domain.StatusInProgress, domain.StatusCancelled, assignee(), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Evaluate(taskIn(tc.from), tc.to, tc.actor)
			var fe auth.ForbiddenError
			if tc.forbidden {
				if !errors.As(err, &fe) {
					t.Fatalf("err = %v, want ForbiddenError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestEvaluateSuperadminBypassesCapabilityGuards(t *testing.T) {
	admin := domain.Actor{ID: 9, Name: "Quản trị", Superadmin: true}
	if _, err := Evaluate(taskIn(domain.StatusPendingApproval), domain.StatusCompleted, admin); err != nil {
		t.Fatalf("superadmin approve: %v", err)
	}
	if _, err := Evaluate(taskIn(domain.StatusNew), domain.StatusCancelled, admin); err != nil {
		t.Fatalf("superadmin cancel: %v", err)
	}
}

func TestEvaluatePlans(t *testing.T) {
	t.Run("complete", func(t *testing.T) {
		plan, err := Evaluate(taskIn(domain.StatusPendingApproval), domain.StatusCompleted, creator())
		if err != nil {
			t.Fatal(err)
		}
		if !plan.SetCompletedAt {
			t.Error("SetCompletedAt not set")
		}
		if plan.AuditAction != ActionApproveCompletion {
			t.Errorf("AuditAction = %q", plan.AuditAction)
		}
		if plan.Notify != NotifyAssignee {
			t.Errorf("Notify = %v, want assignee", plan.Notify)
		}
		if plan.Message != `Công việc "Báo cáo quý" đã được duyệt hoàn thành` {
			t.Errorf("Message = %q", plan.Message)
		}
	})
	t.Run("rework", func(t *testing.T) {
		plan, err := Evaluate(taskIn(domain.StatusPendingApproval), domain.StatusNeedsRework, creator())
		if err != nil {
			t.Fatal(err)
		}
		if plan.SetCompletedAt {
			t.Error("SetCompletedAt set on rework")
		}
		if plan.AuditAction != ActionRequestRework {
			t.Errorf("AuditAction = %q", plan.AuditAction)
		}
		if plan.Notify != NotifyAssignee {
			t.Errorf("Notify = %v, want assignee", plan.Notify)
		}
	})
	t.Run("accept notifies creator", func(t *testing.T) {
		plan, err := Evaluate(taskIn(domain.StatusNew), domain.StatusAccepted, assignee())
		if err != nil {
			t.Fatal(err)
		}
		if plan.Notify != NotifyCreator {
			t.Errorf("Notify = %v, want creator", plan.Notify)
		}
		if plan.Message != `Minh đã tiếp nhận công việc "Báo cáo quý"` {
			t.Errorf("Message = %q", plan.Message)
		}
	})
	t.Run("pending approval notifies creator", func(t *testing.T) {
		plan, err := Evaluate(taskIn(domain.StatusInProgress), domain.StatusPendingApproval, assignee())
		if err != nil {
			t.Fatal(err)
		}
		if plan.Notify != NotifyCreator {
			t.Errorf("Notify = %v, want creator", plan.Notify)
		}
		if plan.Message != `Minh đã báo cáo hoàn thành công việc "Báo cáo quý"` {
			t.Errorf("Message = %q", plan.Message)
		}
	})
	t.Run("cancel is silent", func(t *testing.T) {
		plan, err := Evaluate(taskIn(domain.StatusAccepted), domain.StatusCancelled, creator())
		if err != nil {
			t.Fatal(err)
		}
		if plan.Notify != NotifyNone {
			t.Errorf("Notify = %v, want none", plan.Notify)
		}
		if plan.AuditAction != ActionStatusUpdate {
			t.Errorf("AuditAction = %q", plan.AuditAction)
		}
	})
}
