package command

import (
	"github.com/aevon-lab/project-ledger/internal/core/eventsource"
	"github.com/aevon-lab/project-ledger/internal/project"
	"github.com/aevon-lab/project-ledger/internal/user"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Service is the inbound command surface of the project and user aggregates.
type Service struct {
	projects         *eventsource.Repository[project.State]
	users            *eventsource.Repository[user.State]
	maxBodySizeBytes int
	newID            func() uuid.UUID
	hashPassword     func(string) (string, error)
}

func NewService(projects *eventsource.Repository[project.State], users *eventsource.Repository[user.State], maxBodySizeMB int) *Service {
	if projects == nil {
		panic("command: project repository must not be nil")
	}
	if users == nil {
		panic("command: user repository must not be nil")
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	return &Service{
		projects:         projects,
		users:            users,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
		newID:            uuid.New,
		hashPassword:     user.HashPassword,
	}
}

// RegisterRoutes registers the command and aggregate read routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/users", s.HandleCreateUser)
	r.GET("/v1/users/:user_id", s.HandleGetUser)

	r.POST("/v1/projects", s.HandleCreateProject)
	r.GET("/v1/projects/:project_id", s.HandleGetProject)
	r.GET("/v1/projects/:project_id/events", s.HandleProjectHistory)

	r.GET("/v1/projects/:project_id/tasks", s.HandleListTasks)
	r.GET("/v1/projects/:project_id/tasks/:task_id", s.HandleGetTask)
	r.POST("/v1/projects/:project_id/tasks", s.HandleCreateTask)
	r.POST("/v1/projects/:project_id/tasks/:task_id/assignments", s.HandleAssignUser)
	r.PUT("/v1/projects/:project_id/tasks/:task_id/status", s.HandleChangeTaskStatus)
	r.PUT("/v1/projects/:project_id/tasks/:task_id/title", s.HandleChangeTaskTitle)

	r.GET("/v1/projects/:project_id/statuses", s.HandleListStatuses)
	r.POST("/v1/projects/:project_id/statuses", s.HandleCreateStatus)
	r.DELETE("/v1/projects/:project_id/statuses/:status_id", s.HandleDeleteStatus)

	r.GET("/v1/projects/:project_id/members", s.HandleListMembers)
	r.POST("/v1/projects/:project_id/members", s.HandleAddUser)
}
