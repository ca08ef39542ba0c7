package projection

import (
	"github.com/google/uuid"
)

// Read-model rows. Every row is keyed by an entity id carried in the event that
// produced it, so re-applying an event rewrites the same row.

type ProjectRow struct {
	ID        uuid.UUID `json:"project_id"`
	Title     string    `json:"title"`
	CreatorID uuid.UUID `json:"creator_id"`
	CreatedAt int64     `json:"created_at"`
}

type MemberRow struct {
	ID        uuid.UUID `json:"member_id"`
	ProjectID uuid.UUID `json:"project_id"`
	UserID    uuid.UUID `json:"user_id"`
}

type StatusRow struct {
	ID        uuid.UUID `json:"status_id"`
	ProjectID uuid.UUID `json:"project_id"`
	Text      string    `json:"text"`
	Color     string    `json:"color"`
}

type TaskRow struct {
	ID        uuid.UUID `json:"task_id"`
	ProjectID uuid.UUID `json:"project_id"`
	Title     string    `json:"title"`
	StatusID  uuid.UUID `json:"status_id"`
}

type AssignmentRow struct {
	ID       uuid.UUID `json:"assignment_id"`
	TaskID   uuid.UUID `json:"task_id"`
	MemberID uuid.UUID `json:"member_id"`
}

// UserProjectRow indexes the projects a user belongs to.
type UserProjectRow struct {
	UserID    uuid.UUID `json:"user_id"`
	ProjectID uuid.UUID `json:"project_id"`
	Title     string    `json:"title"`
}

type UserRow struct {
	ID       uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Realname string    `json:"realname"`
}

// TaskView is a task with its executors.
type TaskView struct {
	TaskRow
	Executors []AssignmentRow `json:"executors"`
}

// ProjectView is the denormalized project document served by the query API.
type ProjectView struct {
	ProjectRow
	Members  []MemberRow `json:"members"`
	Statuses []StatusRow `json:"statuses"`
	Tasks    []TaskView  `json:"tasks"`
}

// Versioned wraps a view with the last aggregate version its projection applied.
// Views are eventually consistent; Version tells a client how far behind they are.
type Versioned[T any] struct {
	Version int64 `json:"version"`
	Data    T     `json:"data"`
}
