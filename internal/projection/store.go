package projection

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Store reads for rows that were never projected.
var ErrNotFound = errors.New("read model not found")

// Store persists read models. Writes must be idempotent upserts keyed by entity id.
type Store interface {
	UpsertProject(ctx context.Context, row ProjectRow) error
	UpsertMember(ctx context.Context, row MemberRow) error
	UpsertStatus(ctx context.Context, row StatusRow) error
	DeleteStatus(ctx context.Context, statusID uuid.UUID) error
	UpsertTask(ctx context.Context, row TaskRow) error
	UpdateTaskTitle(ctx context.Context, taskID uuid.UUID, title string) error
	UpdateTaskStatus(ctx context.Context, taskID, statusID uuid.UUID) error
	UpsertAssignment(ctx context.Context, row AssignmentRow) error
	UpsertUserProject(ctx context.Context, row UserProjectRow) error
	UpsertUser(ctx context.Context, row UserRow) error

	// UserProjectTitle returns the title recorded in the membership index for projectID.
	UserProjectTitle(ctx context.Context, projectID uuid.UUID) (string, error)

	ProjectView(ctx context.Context, projectID uuid.UUID) (*ProjectView, error)
	UserProjects(ctx context.Context, userID uuid.UUID) ([]UserProjectRow, error)
	User(ctx context.Context, userID uuid.UUID) (*UserRow, error)
}
