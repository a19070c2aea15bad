package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"taskdesk/internal/db"
	"taskdesk/internal/domain"
	"taskdesk/internal/engine/auth"
	"taskdesk/internal/lifecycle"
	"taskdesk/internal/migrate"
	"taskdesk/internal/repo"
)

type testEnv struct {
	t      *testing.T
	eng    *Engine
	repo   repo.Repo
	lan    domain.Actor // creator
	minh   domain.Actor // assignee
	hoa    domain.Actor // holds approve_task
	khanh  domain.Actor // holds edit_delete_task
	nobody domain.Actor // no relationship, no capabilities
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatal(err)
	}
	eng := New(conn, slog.New(slog.NewTextHandler(io.Discard, nil)))
	eng.Now = func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }

	env := &testEnv{t: t, eng: eng, repo: eng.Repo}
	env.lan = env.addActor("Lan", "lan-secret")
	env.minh = env.addActor("Minh", "minh-secret")
	env.hoa = env.addActor("Hoa", "hoa-secret", domain.CapApproveTask)
	env.khanh = env.addActor("Khanh", "khanh-secret", domain.CapEditDeleteTask)
	env.nobody = env.addActor("Tu", "tu-secret")
	return env
}

func (env *testEnv) addActor(name, secret string, caps ...domain.Capability) domain.Actor {
	env.t.Helper()
	ctx := context.Background()
	id, err := env.repo.InsertActor(ctx, name, repo.HashSecret(secret), false)
	if err != nil {
		env.t.Fatal(err)
	}
	for _, c := range caps {
		if err := env.repo.GrantCapability(ctx, id, c); err != nil {
			env.t.Fatal(err)
		}
	}
	actor, err := env.repo.GetActor(ctx, id)
	if err != nil {
		env.t.Fatal(err)
	}
	return actor
}

// newTask creates a task by lan assigned to minh.
func (env *testEnv) newTask() domain.Task {
	env.t.Helper()
	t, err := env.eng.Create(context.Background(), CreateOptions{
		Title:      "Soạn báo cáo quý",
		AssigneeID: env.minh.ID,
	}, env.lan)
	if err != nil {
		env.t.Fatal(err)
	}
	return t
}

// taskAt walks a fresh task to the wanted status via legal transitions.
func (env *testEnv) taskAt(status domain.Status) domain.Task {
	env.t.Helper()
	ctx := context.Background()
	t := env.newTask()
	steps := []struct {
		to    domain.Status
		actor domain.Actor
	}{
		{domain.StatusAccepted, env.minh},
		{domain.StatusInProgress, env.minh},
		{domain.StatusPendingApproval, env.minh},
		{domain.StatusCompleted, env.lan},
	}
	for _, s := range steps {
		if t.Status == status {
			return t
		}
		var err error
		t, err = env.eng.Transition(ctx, t.ID, s.to, s.actor, "")
		if err != nil {
			env.t.Fatalf("advance to %s: %v", s.to, err)
		}
	}
	if t.Status != status {
		env.t.Fatalf("could not reach status %s", status)
	}
	return t
}

func (env *testEnv) auditEntries(taskID int64) []domain.AuditEntry {
	env.t.Helper()
	entries, err := env.repo.ListAuditEntries(context.Background(), repo.AuditFilters{TaskID: taskID})
	if err != nil {
		env.t.Fatal(err)
	}
	return entries
}

func (env *testEnv) notificationsFor(recipientID int64) []domain.Notification {
	env.t.Helper()
	ns, err := env.repo.ListNotifications(context.Background(), repo.NotificationFilters{RecipientID: recipientID})
	if err != nil {
		env.t.Fatal(err)
	}
	return ns
}

func TestTransitionHappyPath(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := env.newTask()

	task, err := env.eng.Transition(ctx, task.ID, domain.StatusAccepted, env.minh, "")
	if err != nil {
		t.Fatal(err)
	}
	if task.Status != domain.StatusAccepted {
		t.Fatalf("status = %s", task.Status)
	}
	if task.CompletedAt != nil {
		t.Error("completed_at set before completion")
	}

	// The creator hears about the acceptance.
	ns := env.notificationsFor(env.lan.ID)
	if len(ns) != 1 {
		t.Fatalf("creator notifications = %d, want 1", len(ns))
	}
	if want := `Minh đã tiếp nhận công việc "Soạn báo cáo quý"`; ns[0].Message != want {
		t.Errorf("message = %q, want %q", ns[0].Message, want)
	}
	if ns[0].Read {
		t.Error("new notification already read")
	}

	task, err = env.eng.Transition(ctx, task.ID, domain.StatusInProgress, env.minh, "")
	if err != nil {
		t.Fatal(err)
	}
	task, err = env.eng.Transition(ctx, task.ID, domain.StatusPendingApproval, env.minh, "")
	if err != nil {
		t.Fatal(err)
	}
	task, err = env.eng.Transition(ctx, task.ID, domain.StatusCompleted, env.lan, "")
	if err != nil {
		t.Fatal(err)
	}
	if task.CompletedAt == nil || *task.CompletedAt != "2026-03-14T09:30:00Z" {
		t.Errorf("completed_at = %v", task.CompletedAt)
	}

	// One audit entry per committed transition plus the creation entry.
	entries := env.auditEntries(task.ID)
	if len(entries) != 5 {
		t.Fatalf("audit entries = %d, want 5", len(entries))
	}
	if entries[0].Action != lifecycle.ActionApproveCompletion {
		t.Errorf("latest action = %q", entries[0].Action)
	}

	// The assignee was told about approval and about the pending report's
	// outcome; the acceptance itself did not notify its own actor.
	ms := env.notificationsFor(env.minh.ID)
	if len(ms) != 1 {
		t.Fatalf("assignee notifications = %d, want 1", len(ms))
	}
	if want := `Công việc "Soạn báo cáo quý" đã được duyệt hoàn thành`; ms[0].Message != want {
		t.Errorf("message = %q, want %q", ms[0].Message, want)
	}
}

func TestTransitionRework(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := env.taskAt(domain.StatusPendingApproval)

	task, err := env.eng.Transition(ctx, task.ID, domain.StatusNeedsRework, env.hoa, "thiếu số liệu")
	if err != nil {
		t.Fatal(err)
	}
	if task.Status != domain.StatusNeedsRework {
		t.Fatalf("status = %s", task.Status)
	}
	entries := env.auditEntries(task.ID)
	if entries[0].Action != lifecycle.ActionRequestRework {
		t.Errorf("action = %q", entries[0].Action)
	}
	if !strings.HasSuffix(entries[0].Details, ": thiếu số liệu") {
		t.Errorf("details = %q, want caller note appended", entries[0].Details)
	}

	// The rework loop permits another full pass.
	if _, err := env.eng.Transition(ctx, task.ID, domain.StatusInProgress, env.minh, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := env.eng.Transition(ctx, task.ID, domain.StatusPendingApproval, env.minh, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := env.eng.Transition(ctx, task.ID, domain.StatusCompleted, env.lan, ""); err != nil {
		t.Fatal(err)
	}
}

func TestTransitionErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("unknown status", func(t *testing.T) {
		task := env.newTask()
		_, err := env.eng.Transition(ctx, task.ID, domain.Status("archived"), env.minh, "")
		var ve ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("err = %v, want ValidationError", err)
		}
	})
	t.Run("missing task", func(t *testing.T) {
		_, err := env.eng.Transition(ctx, 99999, domain.StatusAccepted, env.minh, "")
		if !errors.Is(err, repo.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})
	t.Run("illegal edge", func(t *testing.T) {
		task := env.newTask()
		_, err := env.eng.Transition(ctx, task.ID, domain.StatusCompleted, env.minh, "")
		var ite lifecycle.InvalidTransitionError
		if !errors.As(err, &ite) {
			t.Fatalf("err = %v, want InvalidTransitionError", err)
		}
	})
	t.Run("forbidden", func(t *testing.T) {
		task := env.newTask()
		_, err := env.eng.Transition(ctx, task.ID, domain.StatusAccepted, env.nobody, "")
		var fe auth.ForbiddenError
		if !errors.As(err, &fe) {
			t.Fatalf("err = %v, want ForbiddenError", err)
		}
	})
	t.Run("terminal stays terminal", func(t *testing.T) {
		task := env.taskAt(domain.StatusCompleted)
		_, err := env.eng.Transition(ctx, task.ID, domain.StatusCancelled, env.lan, "")
		var ite lifecycle.InvalidTransitionError
		if !errors.As(err, &ite) {
			t.Fatalf("err = %v, want InvalidTransitionError", err)
		}
	})
}

type failingAudit struct{}

func (failingAudit) Append(context.Context, *sql.Tx, int64, string, string, string, *int64) error {
	return errors.New("audit store unavailable")
}

type failingNotify struct{}

func (failingNotify) Enqueue(context.Context, *sql.Tx, int64, string, string) error {
	return errors.New("notification store unavailable")
}

func TestTransitionAtomicity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("audit failure rolls back state", func(t *testing.T) {
		task := env.newTask()
		orig := env.eng.Audit
		env.eng.Audit = failingAudit{}
		defer func() { env.eng.Audit = orig }()

		if _, err := env.eng.Transition(ctx, task.ID, domain.StatusAccepted, env.minh, ""); err == nil {
			t.Fatal("expected error")
		}
		got, err := env.repo.GetTask(ctx, task.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != domain.StatusNew {
			t.Errorf("status = %s, want rollback to new", got.Status)
		}
		if len(env.notificationsFor(env.lan.ID)) != 0 {
			t.Error("notification persisted despite aborted unit")
		}
	})

	t.Run("notification failure rolls back state and audit", func(t *testing.T) {
		task := env.newTask()
		before := len(env.auditEntries(task.ID))
		orig := env.eng.Notify
		env.eng.Notify = failingNotify{}
		defer func() { env.eng.Notify = orig }()

		if _, err := env.eng.Transition(ctx, task.ID, domain.StatusAccepted, env.minh, ""); err == nil {
			t.Fatal("expected error")
		}
		got, err := env.repo.GetTask(ctx, task.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != domain.StatusNew {
			t.Errorf("status = %s, want rollback to new", got.Status)
		}
		if after := len(env.auditEntries(task.ID)); after != before {
			t.Errorf("audit entries %d -> %d, want unchanged", before, after)
		}
	})
}

func TestTransitionNoSelfNotification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Lan creates for herself; reporting done would notify the creator,
	// which is the acting assignee.
	task, err := env.eng.Create(ctx, CreateOptions{Title: "Tự giao việc", AssigneeID: env.lan.ID}, env.lan)
	if err != nil {
		t.Fatal(err)
	}
	for _, to := range []domain.Status{domain.StatusAccepted, domain.StatusInProgress, domain.StatusPendingApproval} {
		if task, err = env.eng.Transition(ctx, task.ID, to, env.lan, ""); err != nil {
			t.Fatal(err)
		}
	}
	if n := len(env.notificationsFor(env.lan.ID)); n != 0 {
		t.Errorf("self notifications = %d, want 0", n)
	}
}

func TestTransitionSerializesPerTask(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := env.taskAt(domain.StatusPendingApproval)

	// Approve and cancel race; exactly one may win because each unit sees
	// the state the other committed.
	var wg sync.WaitGroup
	results := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, results[0] = env.eng.Transition(ctx, task.ID, domain.StatusCompleted, env.lan, "")
	}()
	go func() {
		defer wg.Done()
		_, results[1] = env.eng.Transition(ctx, task.ID, domain.StatusCancelled, env.lan, "")
	}()
	wg.Wait()

	var ok, invalid int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		default:
			var ite lifecycle.InvalidTransitionError
			if !errors.As(err, &ite) {
				t.Fatalf("unexpected error: %v", err)
			}
			invalid++
		}
	}
	if ok != 1 || invalid != 1 {
		t.Fatalf("ok=%d invalid=%d, want exactly one winner", ok, invalid)
	}
}

func TestCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.eng.Create(ctx, CreateOptions{Title: "   "}, env.lan)
	var ve ValidationError
	if !errors.As(err, &ve) || ve.Field != "title" {
		t.Fatalf("err = %v, want title ValidationError", err)
	}
	_, err = env.eng.Create(ctx, CreateOptions{Title: "X", DueDate: "next week"}, env.lan)
	if !errors.As(err, &ve) || ve.Field != "due_date" {
		t.Fatalf("err = %v, want due_date ValidationError", err)
	}
}

func TestCreateNotifiesAssignee(t *testing.T) {
	env := newTestEnv(t)
	task := env.newTask()

	ns := env.notificationsFor(env.minh.ID)
	if len(ns) != 1 {
		t.Fatalf("assignee notifications = %d, want 1", len(ns))
	}
	if want := `Bạn được giao công việc "Soạn báo cáo quý"`; ns[0].Message != want {
		t.Errorf("message = %q, want %q", ns[0].Message, want)
	}
	if ns[0].Link != fmt.Sprintf("/tasks/%d", task.ID) {
		t.Errorf("link = %q", ns[0].Link)
	}
	entries := env.auditEntries(task.ID)
	if len(entries) != 1 || entries[0].Action != "Tạo công việc" {
		t.Fatalf("audit = %+v", entries)
	}
}

func TestEdit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("diff audited", func(t *testing.T) {
		task := env.newTask()
		title := "Soạn báo cáo năm"
		prio := "high"
		got, err := env.eng.Edit(ctx, EditOptions{ID: task.ID, Title: &title, Priority: &prio}, env.lan)
		if err != nil {
			t.Fatal(err)
		}
		if got.Title != title || got.Priority != prio {
			t.Fatalf("task = %+v", got)
		}
		entries := env.auditEntries(task.ID)
		if entries[0].Action != "Cập nhật công việc" {
			t.Fatalf("action = %q", entries[0].Action)
		}
		if !strings.Contains(entries[0].Details, `Tiêu đề: "Soạn báo cáo quý" thành "Soạn báo cáo năm"`) {
			t.Errorf("details = %q", entries[0].Details)
		}
		if !strings.Contains(entries[0].Details, "Độ ưu tiên: (không) thành high") {
			t.Errorf("details = %q", entries[0].Details)
		}
	})

	t.Run("no-op writes nothing", func(t *testing.T) {
		task := env.newTask()
		before := len(env.auditEntries(task.ID))
		if _, err := env.eng.Edit(ctx, EditOptions{ID: task.ID}, env.lan); err != nil {
			t.Fatal(err)
		}
		same := task.Title
		if _, err := env.eng.Edit(ctx, EditOptions{ID: task.ID, Title: &same}, env.lan); err != nil {
			t.Fatal(err)
		}
		if after := len(env.auditEntries(task.ID)); after != before {
			t.Errorf("audit entries %d -> %d, want unchanged", before, after)
		}
	})

	t.Run("reassignment notifies new assignee", func(t *testing.T) {
		task := env.newTask()
		before := len(env.notificationsFor(env.hoa.ID))
		if _, err := env.eng.Edit(ctx, EditOptions{ID: task.ID, AssigneeID: &env.hoa.ID}, env.lan); err != nil {
			t.Fatal(err)
		}
		ns := env.notificationsFor(env.hoa.ID)
		if len(ns) != before+1 {
			t.Fatalf("notifications = %d, want %d", len(ns), before+1)
		}
		if want := `Bạn được giao công việc "Soạn báo cáo quý"`; ns[0].Message != want {
			t.Errorf("message = %q", ns[0].Message)
		}
	})

	t.Run("guard", func(t *testing.T) {
		task := env.newTask()
		title := "Khác"
		_, err := env.eng.Edit(ctx, EditOptions{ID: task.ID, Title: &title}, env.minh)
		var fe auth.ForbiddenError
		if !errors.As(err, &fe) {
			t.Fatalf("err = %v, want ForbiddenError for plain assignee", err)
		}
		if _, err := env.eng.Edit(ctx, EditOptions{ID: task.ID, Title: &title}, env.khanh); err != nil {
			t.Fatalf("edit_delete_task holder: %v", err)
		}
	})
}

func TestDeleteRestore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := env.taskAt(domain.StatusInProgress)

	task, err := env.eng.Delete(ctx, task.ID, env.lan, "hết nhu cầu")
	if err != nil {
		t.Fatal(err)
	}
	if task.Status != domain.StatusCancelled {
		t.Fatalf("status = %s", task.Status)
	}

	t.Run("restore only from cancelled", func(t *testing.T) {
		other := env.newTask()
		_, err := env.eng.Restore(ctx, other.ID, env.lan)
		var ite lifecycle.InvalidTransitionError
		if !errors.As(err, &ite) {
			t.Fatalf("err = %v, want InvalidTransitionError", err)
		}
	})

	task, err = env.eng.Restore(ctx, task.ID, env.lan)
	if err != nil {
		t.Fatal(err)
	}
	if task.Status != domain.StatusNew {
		t.Fatalf("status = %s, want new", task.Status)
	}
	if task.CompletedAt != nil || task.KPIScore != nil {
		t.Error("completion fields survived restore")
	}
	entries := env.auditEntries(task.ID)
	if entries[0].Action != "Khôi phục công việc" {
		t.Errorf("action = %q", entries[0].Action)
	}
}

func TestPermanentlyDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cancelled := func() domain.Task {
		task := env.newTask()
		task, err := env.eng.Delete(ctx, task.ID, env.lan, "")
		if err != nil {
			t.Fatal(err)
		}
		return task
	}

	t.Run("wrong credential refused before guard", func(t *testing.T) {
		task := cancelled()
		err := env.eng.PermanentlyDelete(ctx, task.ID, env.lan, "wrong")
		var fe auth.ForbiddenError
		if !errors.As(err, &fe) || fe.Requirement != "password confirmation" {
			t.Fatalf("err = %v, want password confirmation ForbiddenError", err)
		}
	})

	t.Run("only cancelled tasks", func(t *testing.T) {
		task := env.newTask()
		err := env.eng.PermanentlyDelete(ctx, task.ID, env.lan, "lan-secret")
		var ite lifecycle.InvalidTransitionError
		if !errors.As(err, &ite) {
			t.Fatalf("err = %v, want InvalidTransitionError", err)
		}
	})

	t.Run("purges dependents and keeps a trail", func(t *testing.T) {
		task := env.newTask()
		if _, err := env.eng.AddComment(ctx, task.ID, "ghi chú", env.minh); err != nil {
			t.Fatal(err)
		}
		task, err := env.eng.Delete(ctx, task.ID, env.lan, "")
		if err != nil {
			t.Fatal(err)
		}
		if err := env.eng.PermanentlyDelete(ctx, task.ID, env.lan, "lan-secret"); err != nil {
			t.Fatal(err)
		}
		if _, err := env.repo.GetTask(ctx, task.ID); !errors.Is(err, repo.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
		if cs, err := env.repo.ListComments(ctx, task.ID); err != nil || len(cs) != 0 {
			t.Fatalf("comments = %v, %v", cs, err)
		}
		// Per-task entries went with the row, but the erase itself is
		// recorded without a task id.
		entries, err := env.repo.ListAuditEntries(ctx, repo.AuditFilters{ActorID: env.lan.ID})
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) == 0 || entries[0].Action != "Xoá vĩnh viễn công việc" {
			t.Fatalf("latest entry = %+v", entries)
		}
		if entries[0].TaskID != nil {
			t.Error("purge entry still references the erased task")
		}
	})
}

func TestScoreKPI(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("range checked first", func(t *testing.T) {
		_, err := env.eng.ScoreKPI(ctx, 99999, 5, env.lan)
		var ve ValidationError
		if !errors.As(err, &ve) || ve.Field != "kpi_score" {
			t.Fatalf("err = %v, want kpi_score ValidationError", err)
		}
	})

	t.Run("completed only", func(t *testing.T) {
		task := env.taskAt(domain.StatusInProgress)
		_, err := env.eng.ScoreKPI(ctx, task.ID, 2, env.lan)
		var ite lifecycle.InvalidTransitionError
		if !errors.As(err, &ite) {
			t.Fatalf("err = %v, want InvalidTransitionError", err)
		}
	})

	t.Run("guard", func(t *testing.T) {
		task := env.taskAt(domain.StatusCompleted)
		_, err := env.eng.ScoreKPI(ctx, task.ID, 2, env.minh)
		var fe auth.ForbiddenError
		if !errors.As(err, &fe) {
			t.Fatalf("err = %v, want ForbiddenError", err)
		}
	})

	t.Run("records score and notifies assignee", func(t *testing.T) {
		task := env.taskAt(domain.StatusCompleted)
		before := len(env.notificationsFor(env.minh.ID))
		got, err := env.eng.ScoreKPI(ctx, task.ID, 3, env.hoa)
		if err != nil {
			t.Fatal(err)
		}
		if got.KPIScore == nil || *got.KPIScore != 3 {
			t.Fatalf("kpi_score = %v", got.KPIScore)
		}
		if len(env.notificationsFor(env.minh.ID)) != before+1 {
			t.Error("assignee not notified of the score")
		}
		entries := env.auditEntries(task.ID)
		if entries[0].Action != "Chấm điểm KPI" {
			t.Errorf("action = %q", entries[0].Action)
		}
	})
}

func TestCommentsAndAttachments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := env.newTask()

	if _, err := env.eng.AddComment(ctx, task.ID, " ", env.minh); err == nil {
		t.Fatal("blank comment accepted")
	}
	c, err := env.eng.AddComment(ctx, task.ID, "đã nhận, sẽ bắt đầu sáng mai", env.minh)
	if err != nil {
		t.Fatal(err)
	}
	if c.ID == 0 || c.AuthorID != env.minh.ID {
		t.Fatalf("comment = %+v", c)
	}

	a, err := env.eng.RecordAttachment(ctx, task.ID, "bao-cao.xlsx", env.minh)
	if err != nil {
		t.Fatal(err)
	}
	if a.StorageKey == "" {
		t.Error("attachment missing storage key")
	}
	as, err := env.repo.ListAttachments(ctx, task.ID)
	if err != nil || len(as) != 1 {
		t.Fatalf("attachments = %v, %v", as, err)
	}
}

func TestMarkNotificationRead(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newTask()

	ns := env.notificationsFor(env.minh.ID)
	if len(ns) != 1 {
		t.Fatalf("notifications = %d", len(ns))
	}
	// Only the recipient can mark it.
	if err := env.repo.MarkNotificationRead(ctx, ns[0].ID, env.lan.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound for foreign recipient", err)
	}
	if err := env.repo.MarkNotificationRead(ctx, ns[0].ID, env.minh.ID); err != nil {
		t.Fatal(err)
	}
	n, err := env.repo.CountUnreadNotifications(ctx, env.minh.ID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("unread = %d, want 0", n)
	}
}
