package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aevon-lab/project-ledger/internal/projection"
	"github.com/google/uuid"
)

// ReadModelAdapter implements projection.Store using PostgreSQL.
type ReadModelAdapter struct {
	db *sql.DB
}

var _ projection.Store = (*ReadModelAdapter)(nil)

// NewReadModelAdapter creates a read-model store sharing the given connection.
func NewReadModelAdapter(db *sql.DB) *ReadModelAdapter {
	return &ReadModelAdapter{db: db}
}

func (a *ReadModelAdapter) exec(ctx context.Context, what, query string, args ...any) error {
	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to %s: %w", what, err)
	}
	return nil
}

// execOne fails with projection.ErrNotFound when no row was touched.
func (a *ReadModelAdapter) execOne(ctx context.Context, what, query string, args ...any) error {
	res, err := a.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", what, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", projection.ErrNotFound, what)
	}
	return nil
}

func (a *ReadModelAdapter) UpsertProject(ctx context.Context, row projection.ProjectRow) error {
	return a.exec(ctx, "upsert project", queryUpsertProject, row.ID, row.Title, row.CreatorID, row.CreatedAt)
}

func (a *ReadModelAdapter) UpsertMember(ctx context.Context, row projection.MemberRow) error {
	return a.exec(ctx, "upsert member", queryUpsertMember, row.ID, row.ProjectID, row.UserID)
}

func (a *ReadModelAdapter) UpsertStatus(ctx context.Context, row projection.StatusRow) error {
	return a.exec(ctx, "upsert status", queryUpsertStatus, row.ID, row.ProjectID, row.Text, row.Color)
}

func (a *ReadModelAdapter) DeleteStatus(ctx context.Context, statusID uuid.UUID) error {
	return a.exec(ctx, "delete status", queryDeleteStatus, statusID)
}

func (a *ReadModelAdapter) UpsertTask(ctx context.Context, row projection.TaskRow) error {
	return a.exec(ctx, "upsert task", queryUpsertTask, row.ID, row.ProjectID, row.Title, row.StatusID)
}

func (a *ReadModelAdapter) UpdateTaskTitle(ctx context.Context, taskID uuid.UUID, title string) error {
	return a.execOne(ctx, "update task title", queryUpdateTaskTitle, taskID, title)
}

func (a *ReadModelAdapter) UpdateTaskStatus(ctx context.Context, taskID, statusID uuid.UUID) error {
	return a.execOne(ctx, "update task status", queryUpdateTaskStatus, taskID, statusID)
}

func (a *ReadModelAdapter) UpsertAssignment(ctx context.Context, row projection.AssignmentRow) error {
	return a.exec(ctx, "upsert assignment", queryUpsertAssignment, row.ID, row.TaskID, row.MemberID)
}

func (a *ReadModelAdapter) UpsertUserProject(ctx context.Context, row projection.UserProjectRow) error {
	return a.exec(ctx, "upsert user project", queryUpsertUserProject, row.UserID, row.ProjectID, row.Title)
}

func (a *ReadModelAdapter) UpsertUser(ctx context.Context, row projection.UserRow) error {
	return a.exec(ctx, "upsert user", queryUpsertUser, row.ID, row.Username, row.Realname)
}

func (a *ReadModelAdapter) UserProjectTitle(ctx context.Context, projectID uuid.UUID) (string, error) {
	var title string
	err := a.db.QueryRowContext(ctx, queryUserProjectTitle, projectID).Scan(&title)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: project %s", projection.ErrNotFound, projectID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read user project title: %w", err)
	}
	return title, nil
}

// ProjectView reads the project and its children inside one read-only
// repeatable-read transaction so the document reflects a single snapshot.
func (a *ReadModelAdapter) ProjectView(ctx context.Context, projectID uuid.UUID) (*projection.ProjectView, error) {
	tx, err := a.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin read transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	view := &projection.ProjectView{}
	err = tx.QueryRowContext(ctx, querySelectProject, projectID).
		Scan(&view.ID, &view.Title, &view.CreatorID, &view.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: project %s", projection.ErrNotFound, projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read project: %w", err)
	}

	view.Members, err = queryRows(ctx, tx, querySelectMembers, projectID, func(rows *sql.Rows, m *projection.MemberRow) error {
		return rows.Scan(&m.ID, &m.ProjectID, &m.UserID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read members: %w", err)
	}

	view.Statuses, err = queryRows(ctx, tx, querySelectStatuses, projectID, func(rows *sql.Rows, s *projection.StatusRow) error {
		return rows.Scan(&s.ID, &s.ProjectID, &s.Text, &s.Color)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read statuses: %w", err)
	}

	tasks, err := queryRows(ctx, tx, querySelectTasks, projectID, func(rows *sql.Rows, t *projection.TaskRow) error {
		return rows.Scan(&t.ID, &t.ProjectID, &t.Title, &t.StatusID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read tasks: %w", err)
	}

	assignments, err := queryRows(ctx, tx, querySelectAssignments, projectID, func(rows *sql.Rows, as *projection.AssignmentRow) error {
		return rows.Scan(&as.ID, &as.TaskID, &as.MemberID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read assignments: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit read transaction: %w", err)
	}

	executors := make(map[uuid.UUID][]projection.AssignmentRow)
	for _, as := range assignments {
		executors[as.TaskID] = append(executors[as.TaskID], as)
	}
	view.Tasks = make([]projection.TaskView, 0, len(tasks))
	for _, t := range tasks {
		ex := executors[t.ID]
		if ex == nil {
			ex = []projection.AssignmentRow{}
		}
		view.Tasks = append(view.Tasks, projection.TaskView{TaskRow: t, Executors: ex})
	}
	return view, nil
}

func (a *ReadModelAdapter) UserProjects(ctx context.Context, userID uuid.UUID) ([]projection.UserProjectRow, error) {
	rows, err := queryRows(ctx, a.db, querySelectUserProjects, userID, func(rows *sql.Rows, r *projection.UserProjectRow) error {
		return rows.Scan(&r.UserID, &r.ProjectID, &r.Title)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read user projects: %w", err)
	}
	return rows, nil
}

func (a *ReadModelAdapter) User(ctx context.Context, userID uuid.UUID) (*projection.UserRow, error) {
	var u projection.UserRow
	err := a.db.QueryRowContext(ctx, querySelectUser, userID).Scan(&u.ID, &u.Username, &u.Realname)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", projection.ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user: %w", err)
	}
	return &u, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// queryRows runs a single-argument query and scans every row. The result is never nil.
func queryRows[T any](ctx context.Context, q querier, query string, arg any, scan func(*sql.Rows, *T) error) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		var v T
		if err := scan(rows, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
