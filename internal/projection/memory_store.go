package projection

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
)

type entry[T any] struct {
	seq int64
	row T
}

// MemoryStore is an in-process Store for the memory database mode and tests.
type MemoryStore struct {
	mu           sync.RWMutex
	seq          int64
	projects     map[uuid.UUID]ProjectRow
	members      map[uuid.UUID]entry[MemberRow]
	statuses     map[uuid.UUID]entry[StatusRow]
	tasks        map[uuid.UUID]entry[TaskRow]
	assignments  map[uuid.UUID]entry[AssignmentRow]
	userProjects map[uuid.UUID]map[uuid.UUID]entry[UserProjectRow]
	users        map[uuid.UUID]UserRow
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects:     make(map[uuid.UUID]ProjectRow),
		members:      make(map[uuid.UUID]entry[MemberRow]),
		statuses:     make(map[uuid.UUID]entry[StatusRow]),
		tasks:        make(map[uuid.UUID]entry[TaskRow]),
		assignments:  make(map[uuid.UUID]entry[AssignmentRow]),
		userProjects: make(map[uuid.UUID]map[uuid.UUID]entry[UserProjectRow]),
		users:        make(map[uuid.UUID]UserRow),
	}
}

// upsert keeps the insertion position of an existing row.
func upsert[T any](s *MemoryStore, m map[uuid.UUID]entry[T], id uuid.UUID, row T) {
	e, ok := m[id]
	if !ok {
		s.seq++
		e.seq = s.seq
	}
	e.row = row
	m[id] = e
}

func sortedRows[T any](m map[uuid.UUID]entry[T], keep func(T) bool) []T {
	entries := make([]entry[T], 0)
	for _, e := range m {
		if keep(e.row) {
			entries = append(entries, e)
		}
	}
	slices.SortFunc(entries, func(a, b entry[T]) int { return cmp.Compare(a.seq, b.seq) })

	out := make([]T, len(entries))
	for i, e := range entries {
		out[i] = e.row
	}
	return out
}

func (s *MemoryStore) UpsertProject(_ context.Context, row ProjectRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[row.ID] = row
	return nil
}

func (s *MemoryStore) UpsertMember(_ context.Context, row MemberRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	upsert(s, s.members, row.ID, row)
	return nil
}

func (s *MemoryStore) UpsertStatus(_ context.Context, row StatusRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	upsert(s, s.statuses, row.ID, row)
	return nil
}

func (s *MemoryStore) DeleteStatus(_ context.Context, statusID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.statuses, statusID)
	return nil
}

func (s *MemoryStore) UpsertTask(_ context.Context, row TaskRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	upsert(s, s.tasks, row.ID, row)
	return nil
}

func (s *MemoryStore) UpdateTaskTitle(_ context.Context, taskID uuid.UUID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.tasks[taskID]
	if !ok {
		return fmt.Errorf("%w: task %s", ErrNotFound, taskID)
	}
	e.row.Title = title
	s.tasks[taskID] = e
	return nil
}

func (s *MemoryStore) UpdateTaskStatus(_ context.Context, taskID, statusID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.tasks[taskID]
	if !ok {
		return fmt.Errorf("%w: task %s", ErrNotFound, taskID)
	}
	e.row.StatusID = statusID
	s.tasks[taskID] = e
	return nil
}

func (s *MemoryStore) UpsertAssignment(_ context.Context, row AssignmentRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	upsert(s, s.assignments, row.ID, row)
	return nil
}

func (s *MemoryStore) UpsertUserProject(_ context.Context, row UserProjectRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byProject, ok := s.userProjects[row.UserID]
	if !ok {
		byProject = make(map[uuid.UUID]entry[UserProjectRow])
		s.userProjects[row.UserID] = byProject
	}
	upsert(s, byProject, row.ProjectID, row)
	return nil
}

func (s *MemoryStore) UpsertUser(_ context.Context, row UserRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[row.ID] = row
	return nil
}

func (s *MemoryStore) UserProjectTitle(_ context.Context, projectID uuid.UUID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, byProject := range s.userProjects {
		if e, ok := byProject[projectID]; ok {
			return e.row.Title, nil
		}
	}
	return "", fmt.Errorf("%w: project %s", ErrNotFound, projectID)
}

func (s *MemoryStore) ProjectView(_ context.Context, projectID uuid.UUID) (*ProjectView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[projectID]
	if !ok {
		return nil, fmt.Errorf("%w: project %s", ErrNotFound, projectID)
	}

	view := &ProjectView{
		ProjectRow: p,
		Members:    sortedRows(s.members, func(r MemberRow) bool { return r.ProjectID == projectID }),
		Statuses:   sortedRows(s.statuses, func(r StatusRow) bool { return r.ProjectID == projectID }),
		Tasks:      []TaskView{},
	}
	for _, task := range sortedRows(s.tasks, func(r TaskRow) bool { return r.ProjectID == projectID }) {
		view.Tasks = append(view.Tasks, TaskView{
			TaskRow:   task,
			Executors: sortedRows(s.assignments, func(r AssignmentRow) bool { return r.TaskID == task.ID }),
		})
	}
	return view, nil
}

func (s *MemoryStore) UserProjects(_ context.Context, userID uuid.UUID) ([]UserProjectRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedRows(s.userProjects[userID], func(UserProjectRow) bool { return true }), nil
}

func (s *MemoryStore) User(_ context.Context, userID uuid.UUID) (*UserRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	return &u, nil
}
