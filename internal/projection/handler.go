package projection

import (
	"errors"
	"log/slog"
	"net/http"

	httperr "github.com/aevon-lab/project-ledger/internal/core/errors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RegisterRoutes registers the read-model query routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/views/projects/:project_id", s.HandleGetProject)
	r.GET("/v1/views/users/:user_id", s.HandleGetUser)
	r.GET("/v1/views/users/:user_id/projects", s.HandleListUserProjects)
}

// HandleGetProject handles GET /v1/views/projects/:project_id
func (s *Service) HandleGetProject(c *gin.Context) {
	id, ok := pathID(c, "project_id")
	if !ok {
		return
	}
	view, err := s.Project(c.Request.Context(), id)
	if err != nil {
		writeQueryError(c, err, "project")
		return
	}
	c.JSON(http.StatusOK, view)
}

// HandleGetUser handles GET /v1/views/users/:user_id
func (s *Service) HandleGetUser(c *gin.Context) {
	id, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	view, err := s.User(c.Request.Context(), id)
	if err != nil {
		writeQueryError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, view)
}

// HandleListUserProjects handles GET /v1/views/users/:user_id/projects
func (s *Service) HandleListUserProjects(c *gin.Context) {
	id, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	rows, err := s.UserProjects(c.Request.Context(), id)
	if err != nil {
		writeQueryError(c, err, "user projects")
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": rows})
}

func pathID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid path parameters",
			Details:   err.Error(),
		})
		return uuid.Nil, false
	}
	return id, true
}

func writeQueryError(c *gin.Context, err error, what string) {
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpNotFoundError,
			Message:   "No projected " + what,
			Details:   err.Error(),
		})
		return
	}

	slog.Error("[Projection] Query failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
		ErrorType: httperr.HttpInternalError,
		Message:   "Failed to query " + what,
	})
}
