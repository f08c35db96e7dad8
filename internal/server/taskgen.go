package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quayside/quayside/internal/project"
	"github.com/quayside/quayside/internal/taskgen"
)

type generateRequest struct {
	ProjectID   string `json:"projectID"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// handleGenerateTasks drafts a task tree for a project from its name and
// description and persists it.
func (s *Server) handleGenerateTasks(c *gin.Context) {
	if s.generator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "task generation is not configured"})
		return
	}

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid JSON body"})
		return
	}
	if req.ProjectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "parameter \"projectID\" required", "field": "projectID"})
		return
	}
	if err := project.RequireMember(s.db, req.ProjectID, currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	created, err := taskgen.Generate(c.Request.Context(), s.db, s.generator, taskgen.GenerateOpts{
		ProjectID:   req.ProjectID,
		Name:        req.Name,
		Description: req.Description,
		Editor:      currentUserID(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if p, err := project.Get(s.db, req.ProjectID); err == nil && len(created) > 0 {
		s.notifier.TasksGenerated(c.Request.Context(), p, len(created), created[0].DurationMinutes)
	}

	c.JSON(http.StatusCreated, gin.H{"tasks": created})
}
