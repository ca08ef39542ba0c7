package project

import (
	"errors"
	"fmt"

	"github.com/aevon-lab/project-ledger/internal/core/eventsource"
	"github.com/google/uuid"
)

// newID generates the ids CreateProject mints itself. Tests replace it.
var newID = uuid.New

// Command is the closed set of project commands.
type Command interface {
	isProjectCommand()
}

type CreateProject struct {
	ProjectID uuid.UUID
	Title     string
	CreatorID uuid.UUID
}

type CreateTask struct {
	TaskID   uuid.UUID
	Name     string
	StatusID uuid.UUID
}

type AssignUser struct {
	AssignmentID uuid.UUID
	TaskID       uuid.UUID
	MemberID     uuid.UUID
}

type ChangeTaskStatus struct {
	TaskID   uuid.UUID
	StatusID uuid.UUID
}

type CreateStatus struct {
	StatusID uuid.UUID
	Text     string
	Color    string
}

type AddUser struct {
	UserID   uuid.UUID
	MemberID uuid.UUID
}

type ChangeTaskTitle struct {
	TaskID uuid.UUID
	Title  string
}

type DeleteStatus struct {
	StatusID uuid.UUID
}

func (CreateProject) isProjectCommand()    {}
func (CreateTask) isProjectCommand()       {}
func (AssignUser) isProjectCommand()       {}
func (ChangeTaskStatus) isProjectCommand() {}
func (CreateStatus) isProjectCommand()     {}
func (AddUser) isProjectCommand()          {}
func (ChangeTaskTitle) isProjectCommand()  {}
func (DeleteStatus) isProjectCommand()     {}

// Decide adapts cmd to the repository's command function.
func Decide(cmd Command) eventsource.CommandFunc[State] {
	return func(state State) (eventsource.Payload, error) {
		return Handle(state, cmd)
	}
}

// Handle validates cmd against state and returns the event it produces.
// It never mutates state.
func Handle(state State, cmd Command) (eventsource.Payload, error) {
	switch c := cmd.(type) {
	case CreateProject:
		return createProject(c), nil
	case CreateTask:
		return createTask(state, c)
	case AssignUser:
		return assignUser(state, c)
	case ChangeTaskStatus:
		return changeTaskStatus(state, c)
	case CreateStatus:
		return createStatus(state, c)
	case AddUser:
		return addUser(state, c)
	case ChangeTaskTitle:
		return changeTaskTitle(state, c)
	case DeleteStatus:
		return deleteStatus(state, c)
	default:
		return nil, fmt.Errorf("unsupported project command %T", cmd)
	}
}

func createProject(c CreateProject) eventsource.Payload {
	return ProjectCreated{
		ProjectID:       c.ProjectID,
		Title:           c.Title,
		CreatorID:       c.CreatorID,
		CreatorMemberID: newID(),
		DefaultStatusID: newID(),
	}
}

func createTask(s State, c CreateTask) (eventsource.Payload, error) {
	if _, ok := s.Statuses[c.StatusID]; !ok {
		return nil, &eventsource.ReferenceError{Kind: "status", ID: c.StatusID.String()}
	}
	if _, ok := s.Tasks[c.TaskID]; ok {
		return nil, &eventsource.DuplicateError{Kind: "task", Key: c.TaskID.String()}
	}
	return TaskCreated{ProjectID: s.ID, TaskID: c.TaskID, TaskName: c.Name, StatusID: c.StatusID}, nil
}

// assignUser checks member and task independently and reports every missing one.
func assignUser(s State, c AssignUser) (eventsource.Payload, error) {
	var missing []error
	if _, ok := s.Members[c.MemberID]; !ok {
		missing = append(missing, &eventsource.ReferenceError{Kind: "member", ID: c.MemberID.String()})
	}
	task, ok := s.Tasks[c.TaskID]
	if !ok {
		missing = append(missing, &eventsource.ReferenceError{Kind: "task", ID: c.TaskID.String()})
	}
	if err := joinErrors(missing); err != nil {
		return nil, err
	}
	if _, exists := task.Executors[c.AssignmentID]; exists {
		return nil, &eventsource.DuplicateError{Kind: "assignment", Key: c.AssignmentID.String()}
	}
	return UserAssigned{ProjectID: s.ID, MemberID: c.MemberID, AssignmentID: c.AssignmentID, TaskID: c.TaskID}, nil
}

func changeTaskStatus(s State, c ChangeTaskStatus) (eventsource.Payload, error) {
	var missing []error
	if _, ok := s.Tasks[c.TaskID]; !ok {
		missing = append(missing, &eventsource.ReferenceError{Kind: "task", ID: c.TaskID.String()})
	}
	if _, ok := s.Statuses[c.StatusID]; !ok {
		missing = append(missing, &eventsource.ReferenceError{Kind: "status", ID: c.StatusID.String()})
	}
	if err := joinErrors(missing); err != nil {
		return nil, err
	}
	return TaskStatusChanged{ProjectID: s.ID, TaskID: c.TaskID, StatusID: c.StatusID}, nil
}

func createStatus(s State, c CreateStatus) (eventsource.Payload, error) {
	if _, ok := s.Statuses[c.StatusID]; ok {
		return nil, &eventsource.DuplicateError{Kind: "status", Key: c.StatusID.String()}
	}
	return TaskStatusCreated{ProjectID: s.ID, StatusID: c.StatusID, StatusText: c.Text, StatusColor: c.Color}, nil
}

func addUser(s State, c AddUser) (eventsource.Payload, error) {
	if _, ok := s.MemberByUser(c.UserID); ok {
		return nil, &eventsource.DuplicateError{Kind: "member for user", Key: c.UserID.String()}
	}
	if _, ok := s.Members[c.MemberID]; ok {
		return nil, &eventsource.DuplicateError{Kind: "member", Key: c.MemberID.String()}
	}
	return UserAddedToProject{ProjectID: s.ID, UserID: c.UserID, MemberID: c.MemberID}, nil
}

func changeTaskTitle(s State, c ChangeTaskTitle) (eventsource.Payload, error) {
	if _, ok := s.Tasks[c.TaskID]; !ok {
		return nil, &eventsource.ReferenceError{Kind: "task", ID: c.TaskID.String()}
	}
	return TaskTitleChanged{ProjectID: s.ID, TaskID: c.TaskID, Title: c.Title}, nil
}

func deleteStatus(s State, c DeleteStatus) (eventsource.Payload, error) {
	if _, ok := s.Statuses[c.StatusID]; !ok {
		return nil, &eventsource.ReferenceError{Kind: "status", ID: c.StatusID.String()}
	}
	if s.StatusInUse(c.StatusID) {
		return nil, &eventsource.ConflictError{Reason: fmt.Sprintf("status %s is still assigned to tasks", c.StatusID)}
	}
	return TaskStatusDeleted{ProjectID: s.ID, StatusID: c.StatusID}, nil
}

func joinErrors(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return errors.Join(errs...)
	}
}
