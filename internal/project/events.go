package project

import "github.com/google/uuid"

// AggregateType is the aggregate_type of every project event.
const AggregateType = "project"

// Event tags. They are persisted and must never change.
const (
	ProjectCreatedType     = "PROJECT_CREATED_EVENT"
	TaskCreatedType        = "TASK_CREATED_EVENT"
	UserAssignedType       = "USER_ASSIGNED_EVENT"
	TaskStatusChangedType  = "TASK_STATUS_CHANGED_EVENT"
	TaskStatusCreatedType  = "TASK_STATUS_CREATED_EVENT"
	UserAddedToProjectType = "USER_ADDED_TO_PROJECT_EVENT"
	TaskTitleChangedType   = "TASK_TITTLE_CHANGED_EVENT"
	TaskStatusDeletedType  = "TASK_STATUS_DELETED_EVENT"
)

// Default status seeded into every new project.
const (
	DefaultStatusText  = "CREATED"
	DefaultStatusColor = "White"
)

type ProjectCreated struct {
	ProjectID       uuid.UUID `json:"projectId"`
	Title           string    `json:"title"`
	CreatorID       uuid.UUID `json:"creatorId"`
	CreatorMemberID uuid.UUID `json:"creatorMemberId"`
	DefaultStatusID uuid.UUID `json:"defaultStatusId"`
}

func (ProjectCreated) EventType() string { return ProjectCreatedType }

type TaskCreated struct {
	ProjectID uuid.UUID `json:"projectId"`
	TaskID    uuid.UUID `json:"taskId"`
	TaskName  string    `json:"taskName"`
	StatusID  uuid.UUID `json:"statusId"`
}

func (TaskCreated) EventType() string { return TaskCreatedType }

// UserAssigned adds an executor to a task. AssignmentID keys the executor entry.
type UserAssigned struct {
	ProjectID    uuid.UUID `json:"projectId"`
	MemberID     uuid.UUID `json:"memberId"`
	AssignmentID uuid.UUID `json:"memberExecutorId"`
	TaskID       uuid.UUID `json:"taskId"`
}

func (UserAssigned) EventType() string { return UserAssignedType }

type TaskStatusChanged struct {
	ProjectID uuid.UUID `json:"projectId"`
	TaskID    uuid.UUID `json:"taskId"`
	StatusID  uuid.UUID `json:"statusId"`
}

func (TaskStatusChanged) EventType() string { return TaskStatusChangedType }

type TaskStatusCreated struct {
	ProjectID   uuid.UUID `json:"projectId"`
	StatusID    uuid.UUID `json:"statusId"`
	StatusText  string    `json:"statusText"`
	StatusColor string    `json:"statusColor"`
}

func (TaskStatusCreated) EventType() string { return TaskStatusCreatedType }

type UserAddedToProject struct {
	ProjectID uuid.UUID `json:"projectId"`
	UserID    uuid.UUID `json:"userId"`
	MemberID  uuid.UUID `json:"userMemberId"`
}

func (UserAddedToProject) EventType() string { return UserAddedToProjectType }

type TaskTitleChanged struct {
	ProjectID uuid.UUID `json:"projectId"`
	TaskID    uuid.UUID `json:"taskId"`
	Title     string    `json:"newTittle"`
}

func (TaskTitleChanged) EventType() string { return TaskTitleChangedType }

type TaskStatusDeleted struct {
	ProjectID uuid.UUID `json:"projectId"`
	StatusID  uuid.UUID `json:"statusId"`
}

func (TaskStatusDeleted) EventType() string { return TaskStatusDeletedType }
