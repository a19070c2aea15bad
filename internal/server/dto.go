package server

import (
	"taskdesk/internal/domain"
)

// Request payloads

type CreateTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Priority    *string `json:"priority,omitempty" enum:"low,normal,high"`
	DueDate     *string `json:"due_date,omitempty" format:"date-time"`
	AssigneeID  *int64  `json:"assignee_id,omitempty"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Priority    *string `json:"priority,omitempty" enum:"low,normal,high"`
	DueDate     *string `json:"due_date,omitempty" format:"date-time"`
	AssigneeID  *int64  `json:"assignee_id,omitempty"`
}

type TransitionRequest struct {
	Status  string `json:"status" enum:"new,accepted,in_progress,pending_approval,completed,needs_rework,cancelled"`
	Details string `json:"details,omitempty"`
}

type DeleteTaskRequest struct {
	Reason string `json:"reason,omitempty"`
}

type PurgeTaskRequest struct {
	Password string `json:"password"`
}

type ScoreKPIRequest struct {
	Score int `json:"score" minimum:"1" maximum:"3"`
}

type CreateCommentRequest struct {
	Body string `json:"body"`
}

type CreateAttachmentRequest struct {
	FileName string `json:"file_name"`
}

// Response payloads

type TaskResponse struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Status      string  `json:"status" enum:"new,accepted,in_progress,pending_approval,completed,needs_rework,cancelled"`
	StatusLabel string  `json:"status_label"`
	Priority    string  `json:"priority,omitempty"`
	DueDate     *string `json:"due_date,omitempty" format:"date-time"`
	KPIScore    *int    `json:"kpi_score,omitempty" minimum:"1" maximum:"3"`
	CreatorID   int64   `json:"creator_id"`
	AssigneeID  *int64  `json:"assignee_id,omitempty"`
	CompletedAt *string `json:"completed_at,omitempty" format:"date-time"`
	CreatedAt   string  `json:"created_at" format:"date-time"`
	UpdatedAt   string  `json:"updated_at" format:"date-time"`
}

type paginatedTasks struct {
	Items      []TaskResponse `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

type AuditEntryResponse struct {
	ID        int64  `json:"id"`
	ActorID   int64  `json:"actor_id"`
	Module    string `json:"module"`
	Action    string `json:"action"`
	Details   string `json:"details,omitempty"`
	TaskID    *int64 `json:"task_id,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type paginatedAuditEntries struct {
	Items      []AuditEntryResponse `json:"items"`
	NextCursor string               `json:"next_cursor,omitempty"`
}

type NotificationResponse struct {
	ID        int64  `json:"id"`
	Message   string `json:"message"`
	Link      string `json:"link,omitempty"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type paginatedNotifications struct {
	Items      []NotificationResponse `json:"items"`
	Unread     int                    `json:"unread"`
	NextCursor string                 `json:"next_cursor,omitempty"`
}

type CommentResponse struct {
	ID        int64  `json:"id"`
	TaskID    int64  `json:"task_id"`
	AuthorID  int64  `json:"author_id"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type AttachmentResponse struct {
	ID         int64  `json:"id"`
	TaskID     int64  `json:"task_id"`
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
	UploadedBy int64  `json:"uploaded_by"`
	CreatedAt  string `json:"created_at" format:"date-time"`
}

type ActorResponse struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Superadmin   bool     `json:"superadmin"`
	Capabilities []string `json:"capabilities"`
	CreatedAt    string   `json:"created_at" format:"date-time"`
}

func taskResponse(t domain.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		StatusLabel: t.Status.Label(),
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		KPIScore:    t.KPIScore,
		CreatorID:   t.CreatorID,
		AssigneeID:  t.AssigneeID,
		CompletedAt: t.CompletedAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func mapTasks(tasks []domain.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskResponse(t))
	}
	return out
}

func auditResponse(e domain.AuditEntry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:        e.ID,
		ActorID:   e.ActorID,
		Module:    e.Module,
		Action:    e.Action,
		Details:   e.Details,
		TaskID:    e.TaskID,
		CreatedAt: e.CreatedAt,
	}
}

func notificationResponse(n domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Message:   n.Message,
		Link:      n.Link,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

func commentResponse(c domain.Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		TaskID:    c.TaskID,
		AuthorID:  c.AuthorID,
		Body:      c.Body,
		CreatedAt: c.CreatedAt,
	}
}

func attachmentResponse(a domain.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:         a.ID,
		TaskID:     a.TaskID,
		StorageKey: a.StorageKey,
		FileName:   a.FileName,
		UploadedBy: a.UploadedBy,
		CreatedAt:  a.CreatedAt,
	}
}

func actorResponse(a domain.Actor) ActorResponse {
	return ActorResponse{
		ID:           a.ID,
		Name:         a.Name,
		Superadmin:   a.Superadmin,
		Capabilities: a.Capabilities.Names(),
		CreatedAt:    a.CreatedAt,
	}
}
