package project

import (
	"fmt"
	"maps"
	"time"

	"github.com/aevon-lab/project-ledger/internal/core/eventsource"
	"github.com/google/uuid"
)

// State is the project aggregate as folded from its events.
type State struct {
	ID        uuid.UUID            `json:"project_id"`
	Title     string               `json:"title"`
	CreatorID uuid.UUID            `json:"creator_id"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
	Tasks     map[uuid.UUID]Task   `json:"tasks"`
	Statuses  map[uuid.UUID]Status `json:"statuses"`
	Members   map[uuid.UUID]Member `json:"members"`
}

type Task struct {
	ID        uuid.UUID              `json:"task_id"`
	Name      string                 `json:"name"`
	StatusID  uuid.UUID              `json:"status_id"`
	Executors map[uuid.UUID]Executor `json:"executors"`
}

type Status struct {
	ID    uuid.UUID `json:"status_id"`
	Text  string    `json:"text"`
	Color string    `json:"color"`
}

type Member struct {
	ID     uuid.UUID `json:"member_id"`
	UserID uuid.UUID `json:"user_id"`
}

// Executor is one assignment of a member to a task.
type Executor struct {
	ID       uuid.UUID `json:"assignment_id"`
	MemberID uuid.UUID `json:"member_id"`
}

// NewState returns the state of a project with no events.
func NewState(id uuid.UUID) State {
	return State{
		ID:       id,
		Tasks:    make(map[uuid.UUID]Task),
		Statuses: make(map[uuid.UUID]Status),
		Members:  make(map[uuid.UUID]Member),
	}
}

// Clone implements eventsource.State.
func (s State) Clone() State {
	c := s
	c.Tasks = make(map[uuid.UUID]Task, len(s.Tasks))
	for id, task := range s.Tasks {
		task.Executors = maps.Clone(task.Executors)
		if task.Executors == nil {
			task.Executors = make(map[uuid.UUID]Executor)
		}
		c.Tasks[id] = task
	}
	c.Statuses = maps.Clone(s.Statuses)
	if c.Statuses == nil {
		c.Statuses = make(map[uuid.UUID]Status)
	}
	c.Members = maps.Clone(s.Members)
	if c.Members == nil {
		c.Members = make(map[uuid.UUID]Member)
	}
	return c
}

// MemberByUser returns the member that maps to userID.
func (s State) MemberByUser(userID uuid.UUID) (Member, bool) {
	for _, m := range s.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return Member{}, false
}

// StatusInUse reports whether any task currently references statusID.
func (s State) StatusInUse(statusID uuid.UUID) bool {
	for _, t := range s.Tasks {
		if t.StatusID == statusID {
			return true
		}
	}
	return false
}

// NewRegistry builds the transition table of the project aggregate.
func NewRegistry() *eventsource.Registry[State] {
	r := eventsource.NewRegistry(AggregateType, NewState)

	eventsource.On(r, func(s *State, evt eventsource.Event, p ProjectCreated) error {
		s.ID = p.ProjectID
		s.Title = p.Title
		s.CreatorID = p.CreatorID
		s.CreatedAt = evt.CreatedAt
		s.UpdatedAt = evt.CreatedAt
		s.Members[p.CreatorMemberID] = Member{ID: p.CreatorMemberID, UserID: p.CreatorID}
		s.Statuses[p.DefaultStatusID] = Status{ID: p.DefaultStatusID, Text: DefaultStatusText, Color: DefaultStatusColor}
		return nil
	})

	eventsource.On(r, func(s *State, evt eventsource.Event, p TaskCreated) error {
		s.Tasks[p.TaskID] = Task{
			ID:        p.TaskID,
			Name:      p.TaskName,
			StatusID:  p.StatusID,
			Executors: make(map[uuid.UUID]Executor),
		}
		s.UpdatedAt = evt.CreatedAt
		return nil
	})

	eventsource.On(r, func(s *State, evt eventsource.Event, p UserAssigned) error {
		task, ok := s.Tasks[p.TaskID]
		if !ok {
			return fmt.Errorf("task %s missing", p.TaskID)
		}
		task.Executors[p.AssignmentID] = Executor{ID: p.AssignmentID, MemberID: p.MemberID}
		s.UpdatedAt = evt.CreatedAt
		return nil
	})

	eventsource.On(r, func(s *State, evt eventsource.Event, p TaskStatusChanged) error {
		task, ok := s.Tasks[p.TaskID]
		if !ok {
			return fmt.Errorf("task %s missing", p.TaskID)
		}
		task.StatusID = p.StatusID
		s.Tasks[p.TaskID] = task
		s.UpdatedAt = evt.CreatedAt
		return nil
	})

	eventsource.On(r, func(s *State, evt eventsource.Event, p TaskStatusCreated) error {
		s.Statuses[p.StatusID] = Status{ID: p.StatusID, Text: p.StatusText, Color: p.StatusColor}
		s.UpdatedAt = evt.CreatedAt
		return nil
	})

	eventsource.On(r, func(s *State, evt eventsource.Event, p UserAddedToProject) error {
		s.Members[p.MemberID] = Member{ID: p.MemberID, UserID: p.UserID}
		s.UpdatedAt = evt.CreatedAt
		return nil
	})

	eventsource.On(r, func(s *State, evt eventsource.Event, p TaskTitleChanged) error {
		task, ok := s.Tasks[p.TaskID]
		if !ok {
			return fmt.Errorf("task %s missing", p.TaskID)
		}
		task.Name = p.Title
		s.Tasks[p.TaskID] = task
		s.UpdatedAt = evt.CreatedAt
		return nil
	})

	eventsource.On(r, func(s *State, evt eventsource.Event, p TaskStatusDeleted) error {
		delete(s.Statuses, p.StatusID)
		s.UpdatedAt = evt.CreatedAt
		return nil
	})

	return r
}
