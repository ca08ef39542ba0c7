package command

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"

	v1 "github.com/aevon-lab/project-ledger/internal/api/v1"
	httperr "github.com/aevon-lab/project-ledger/internal/core/errors"
	"github.com/aevon-lab/project-ledger/internal/core/eventsource"
	"github.com/aevon-lab/project-ledger/internal/project"
	"github.com/aevon-lab/project-ledger/internal/user"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgReadBodyFailed = "Failed to read request body"
	msgInvalidJSON    = "Invalid JSON body"
	msgInvalidPath    = "Invalid path parameters"
)

type createUserRequest struct {
	Username string `json:"username" binding:"required"`
	Realname string `json:"realname" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type createProjectRequest struct {
	Title     string    `json:"title" binding:"required"`
	CreatorID uuid.UUID `json:"creator_id" binding:"required"`
}

type createTaskRequest struct {
	Name     string    `json:"name" binding:"required"`
	StatusID uuid.UUID `json:"status_id" binding:"required"`
}

type assignUserRequest struct {
	MemberID uuid.UUID `json:"member_id" binding:"required"`
}

type changeTaskStatusRequest struct {
	StatusID uuid.UUID `json:"status_id" binding:"required"`
}

type changeTaskTitleRequest struct {
	Title string `json:"title" binding:"required"`
}

type createStatusRequest struct {
	Text  string `json:"text" binding:"required"`
	Color string `json:"color" binding:"required"`
}

type addUserRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

// commandResponse returns the appended event and the id of the entity it introduced.
type commandResponse struct {
	ID    uuid.UUID `json:"id"`
	Event *v1.Event `json:"event"`
}

// HandleCreateUser handles POST /v1/users
func (s *Service) HandleCreateUser(c *gin.Context) {
	var req createUserRequest
	if cerr := s.bindJSON(c, &req); cerr != nil {
		writeError(c, cerr)
		return
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		writeError(c, mapError(err))
		return
	}

	id := s.newID()
	evt, err := s.users.Create(c.Request.Context(), id, user.Create(user.CreateUser{
		UserID:       id,
		Username:     req.Username,
		Realname:     req.Realname,
		PasswordHash: hash,
	}))
	s.respond(c, http.StatusCreated, id, evt, err, s.users.Registry().Encode)
}

// HandleGetUser handles GET /v1/users/:user_id
func (s *Service) HandleGetUser(c *gin.Context) {
	id, cerr := pathID(c, "user_id")
	if cerr != nil {
		writeError(c, cerr)
		return
	}
	snap, err := s.users.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, mapError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"version": snap.Version, "state": snap.State})
}

// HandleCreateProject handles POST /v1/projects
func (s *Service) HandleCreateProject(c *gin.Context) {
	var req createProjectRequest
	if cerr := s.bindJSON(c, &req); cerr != nil {
		writeError(c, cerr)
		return
	}

	id := s.newID()
	evt, err := s.projects.Create(c.Request.Context(), id, project.Decide(project.CreateProject{
		ProjectID: id,
		Title:     req.Title,
		CreatorID: req.CreatorID,
	}))
	s.respond(c, http.StatusCreated, id, evt, err, s.projects.Registry().Encode)
}

// HandleGetProject handles GET /v1/projects/:project_id
func (s *Service) HandleGetProject(c *gin.Context) {
	snap, ok := s.projectSnapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"version": snap.Version, "state": snap.State})
}

// HandleProjectHistory handles GET /v1/projects/:project_id/events
func (s *Service) HandleProjectHistory(c *gin.Context) {
	id, cerr := pathID(c, "project_id")
	if cerr != nil {
		writeError(c, cerr)
		return
	}
	history, err := s.projects.History(c.Request.Context(), id)
	if err != nil {
		writeError(c, mapError(err))
		return
	}

	records := make([]*v1.Event, 0, len(history))
	for _, evt := range history {
		rec, err := s.projects.Registry().Encode(evt)
		if err != nil {
			writeError(c, mapError(err))
			return
		}
		records = append(records, rec)
	}
	c.JSON(http.StatusOK, gin.H{"events": records})
}

// HandleListTasks handles GET /v1/projects/:project_id/tasks
func (s *Service) HandleListTasks(c *gin.Context) {
	snap, ok := s.projectSnapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"version": snap.Version, "tasks": snap.State.Tasks})
}

// HandleGetTask handles GET /v1/projects/:project_id/tasks/:task_id
func (s *Service) HandleGetTask(c *gin.Context) {
	taskID, cerr := pathID(c, "task_id")
	if cerr != nil {
		writeError(c, cerr)
		return
	}
	snap, ok := s.projectSnapshot(c)
	if !ok {
		return
	}
	task, found := snap.State.Tasks[taskID]
	if !found {
		writeError(c, &commandError{
			statusCode: http.StatusNotFound,
			errorType:  httperr.HttpNotFoundError,
			message:    "task " + taskID.String() + " does not exist",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"version": snap.Version, "task": task})
}

// HandleListStatuses handles GET /v1/projects/:project_id/statuses
func (s *Service) HandleListStatuses(c *gin.Context) {
	snap, ok := s.projectSnapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"version": snap.Version, "statuses": snap.State.Statuses})
}

// HandleListMembers handles GET /v1/projects/:project_id/members
func (s *Service) HandleListMembers(c *gin.Context) {
	snap, ok := s.projectSnapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"version": snap.Version, "members": snap.State.Members})
}

// HandleCreateTask handles POST /v1/projects/:project_id/tasks
func (s *Service) HandleCreateTask(c *gin.Context) {
	var req createTaskRequest
	if cerr := s.bindJSON(c, &req); cerr != nil {
		writeError(c, cerr)
		return
	}
	taskID := s.newID()
	s.updateProject(c, http.StatusCreated, taskID, project.CreateTask{
		TaskID:   taskID,
		Name:     req.Name,
		StatusID: req.StatusID,
	})
}

// HandleAssignUser handles POST /v1/projects/:project_id/tasks/:task_id/assignments
func (s *Service) HandleAssignUser(c *gin.Context) {
	taskID, cerr := pathID(c, "task_id")
	if cerr != nil {
		writeError(c, cerr)
		return
	}
	var req assignUserRequest
	if cerr := s.bindJSON(c, &req); cerr != nil {
		writeError(c, cerr)
		return
	}
	assignmentID := s.newID()
	s.updateProject(c, http.StatusCreated, assignmentID, project.AssignUser{
		AssignmentID: assignmentID,
		TaskID:       taskID,
		MemberID:     req.MemberID,
	})
}

// HandleChangeTaskStatus handles PUT /v1/projects/:project_id/tasks/:task_id/status
func (s *Service) HandleChangeTaskStatus(c *gin.Context) {
	taskID, cerr := pathID(c, "task_id")
	if cerr != nil {
		writeError(c, cerr)
		return
	}
	var req changeTaskStatusRequest
	if cerr := s.bindJSON(c, &req); cerr != nil {
		writeError(c, cerr)
		return
	}
	s.updateProject(c, http.StatusOK, taskID, project.ChangeTaskStatus{TaskID: taskID, StatusID: req.StatusID})
}

// HandleChangeTaskTitle handles PUT /v1/projects/:project_id/tasks/:task_id/title
func (s *Service) HandleChangeTaskTitle(c *gin.Context) {
	taskID, cerr := pathID(c, "task_id")
	if cerr != nil {
		writeError(c, cerr)
		return
	}
	var req changeTaskTitleRequest
	if cerr := s.bindJSON(c, &req); cerr != nil {
		writeError(c, cerr)
		return
	}
	s.updateProject(c, http.StatusOK, taskID, project.ChangeTaskTitle{TaskID: taskID, Title: req.Title})
}

// HandleCreateStatus handles POST /v1/projects/:project_id/statuses
func (s *Service) HandleCreateStatus(c *gin.Context) {
	var req createStatusRequest
	if cerr := s.bindJSON(c, &req); cerr != nil {
		writeError(c, cerr)
		return
	}
	statusID := s.newID()
	s.updateProject(c, http.StatusCreated, statusID, project.CreateStatus{
		StatusID: statusID,
		Text:     req.Text,
		Color:    req.Color,
	})
}

// HandleDeleteStatus handles DELETE /v1/projects/:project_id/statuses/:status_id
func (s *Service) HandleDeleteStatus(c *gin.Context) {
	statusID, cerr := pathID(c, "status_id")
	if cerr != nil {
		writeError(c, cerr)
		return
	}
	s.updateProject(c, http.StatusOK, statusID, project.DeleteStatus{StatusID: statusID})
}

// HandleAddUser handles POST /v1/projects/:project_id/members
func (s *Service) HandleAddUser(c *gin.Context) {
	var req addUserRequest
	if cerr := s.bindJSON(c, &req); cerr != nil {
		writeError(c, cerr)
		return
	}
	memberID := s.newID()
	s.updateProject(c, http.StatusCreated, memberID, project.AddUser{UserID: req.UserID, MemberID: memberID})
}

// updateProject runs cmd against the project in the path and writes the result.
func (s *Service) updateProject(c *gin.Context, status int, entityID uuid.UUID, cmd project.Command) {
	projectID, cerr := pathID(c, "project_id")
	if cerr != nil {
		writeError(c, cerr)
		return
	}
	evt, err := s.projects.Update(c.Request.Context(), projectID, project.Decide(cmd))
	s.respond(c, status, entityID, evt, err, s.projects.Registry().Encode)
}

func (s *Service) projectSnapshot(c *gin.Context) (eventsource.Snapshot[project.State], bool) {
	id, cerr := pathID(c, "project_id")
	if cerr != nil {
		writeError(c, cerr)
		return eventsource.Snapshot[project.State]{}, false
	}
	snap, err := s.projects.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, mapError(err))
		return eventsource.Snapshot[project.State]{}, false
	}
	return snap, true
}

func (s *Service) respond(c *gin.Context, status int, id uuid.UUID, evt eventsource.Event, err error, encode func(eventsource.Event) (*v1.Event, error)) {
	if err != nil {
		if eventsource.IsRejection(err) {
			slog.Info("[Command] Command rejected", "path", c.FullPath(), "reason", err)
		}
		writeError(c, mapError(err))
		return
	}

	rec, err := encode(evt)
	if err != nil {
		writeError(c, mapError(err))
		return
	}

	slog.Info("[Command] Appended event",
		"aggregate_type", rec.AggregateType,
		"aggregate_id", rec.AggregateID,
		"version", rec.Version,
		"event_type", rec.Type)
	c.JSON(status, commandResponse{ID: id, Event: rec})
}

// bindJSON reads the size-limited request body and binds it into dst.
func (s *Service) bindJSON(c *gin.Context, dst interface{}) *commandError {
	maxBytes := int64(s.maxBodySizeBytes)
	bodyBytes, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBytes+1)) // +1 to detect oversized requests
	if err != nil {
		slog.Error("Failed to read request body", "error", err)
		return &commandError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}
	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return &commandError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpInvalidJsonError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	if err := c.ShouldBindJSON(dst); err != nil {
		slog.Warn("Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return &commandError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
			details:    err.Error(),
		}
	}
	return nil
}

func pathID(c *gin.Context, param string) (uuid.UUID, *commandError) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return uuid.Nil, &commandError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidPath,
			details:    gin.H{param: err.Error()},
		}
	}
	return id, nil
}
