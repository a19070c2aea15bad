package domain

import "sort"

// Status is the lifecycle state of a task.
type Status string

const (
	StatusNew             Status = "new"
	StatusAccepted        Status = "accepted"
	StatusInProgress      Status = "in_progress"
	StatusPendingApproval Status = "pending_approval"
	StatusCompleted       Status = "completed"
	StatusNeedsRework     Status = "needs_rework"
	StatusCancelled       Status = "cancelled"
)

// Statuses lists every valid status, in workflow order.
var Statuses = []Status{
	StatusNew,
	StatusAccepted,
	StatusInProgress,
	StatusPendingApproval,
	StatusCompleted,
	StatusNeedsRework,
	StatusCancelled,
}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition may leave s.
func (s Status) Terminal() bool {
	return s == StatusCompleted
}

// Label returns the user-facing Vietnamese label for s.
func (s Status) Label() string {
	switch s {
	case StatusNew:
		return "Mới tạo"
	case StatusAccepted:
		return "Đã tiếp nhận"
	case StatusInProgress:
		return "Đang thực hiện"
	case StatusPendingApproval:
		return "Chờ duyệt"
	case StatusCompleted:
		return "Hoàn thành"
	case StatusNeedsRework:
		return "Làm lại"
	case StatusCancelled:
		return "Đã huỷ"
	}
	return string(s)
}

// Capability is a named permission granted to an actor.
type Capability string

const (
	CapApproveTask    Capability = "approve_task"
	CapEditDeleteTask Capability = "edit_delete_task"
	CapManageActors   Capability = "manage_actors"
)

// CapabilitySet is a membership set over capabilities.
type CapabilitySet map[Capability]struct{}

func NewCapabilitySet(names ...string) CapabilitySet {
	cs := make(CapabilitySet, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		cs[Capability(n)] = struct{}{}
	}
	return cs
}

func (cs CapabilitySet) Has(c Capability) bool {
	_, ok := cs[c]
	return ok
}

func (cs CapabilitySet) Names() []string {
	names := make([]string, 0, len(cs))
	for c := range cs {
		names = append(names, string(c))
	}
	sort.Strings(names)
	return names
}

// Actor is an authenticated user. Capabilities are loaded read-only from
// storage; a superadmin implicitly holds every capability.
type Actor struct {
	ID           int64         `json:"id"`
	Name         string        `json:"name"`
	Superadmin   bool          `json:"superadmin,omitempty"`
	Capabilities CapabilitySet `json:"-"`
	CreatedAt    string        `json:"created_at" format:"date-time"`
}

type Task struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Status      Status  `json:"status" enum:"new,accepted,in_progress,pending_approval,completed,needs_rework,cancelled"`
	Priority    string  `json:"priority,omitempty"`
	DueDate     *string `json:"due_date,omitempty" format:"date-time"`
	KPIScore    *int    `json:"kpi_score,omitempty" minimum:"1" maximum:"3"`
	CreatorID   int64   `json:"creator_id"`
	AssigneeID  *int64  `json:"assignee_id,omitempty"`
	CompletedAt *string `json:"completed_at,omitempty" format:"date-time"`
	CreatedAt   string  `json:"created_at" format:"date-time"`
	UpdatedAt   string  `json:"updated_at" format:"date-time"`
}

// AuditEntry is an append-only record of who did what to which task. TaskID
// is nullable so entries can outlive their task.
type AuditEntry struct {
	ID        int64  `json:"id"`
	ActorID   int64  `json:"actor_id"`
	Module    string `json:"module"`
	Action    string `json:"action"`
	Details   string `json:"details,omitempty"`
	TaskID    *int64 `json:"task_id,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type Notification struct {
	ID          int64  `json:"id"`
	RecipientID int64  `json:"recipient_id"`
	Message     string `json:"message"`
	Link        string `json:"link,omitempty"`
	Read        bool   `json:"read"`
	CreatedAt   string `json:"created_at" format:"date-time"`
}

type Comment struct {
	ID        int64  `json:"id"`
	TaskID    int64  `json:"task_id"`
	AuthorID  int64  `json:"author_id"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

// Attachment bookkeeping row; the blob itself lives in external storage
// addressed by StorageKey.
type Attachment struct {
	ID         int64  `json:"id"`
	TaskID     int64  `json:"task_id"`
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
	UploadedBy int64  `json:"uploaded_by"`
	CreatedAt  string `json:"created_at" format:"date-time"`
}

type APIKey struct {
	ID        string `json:"id"`
	ActorID   int64  `json:"actor_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}
