package server

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quayside/quayside/internal/kanban"
	"github.com/quayside/quayside/internal/project"
	"github.com/quayside/quayside/internal/task"
)

// moveRequest carries a drag-and-drop move. StatusID stays raw so an
// explicit null (fallback column) can be told apart from an absent field.
type moveRequest struct {
	ID       *string         `json:"id"`
	StatusID json.RawMessage `json:"statusId"`
	Priority *int            `json:"priority"`
}

// handleGetKanban returns the column-grouped board for a project.
func (s *Server) handleGetKanban(c *gin.Context) {
	projectID := c.Query("projectID")
	if projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "parameter \"projectID\" required", "field": "projectID"})
		return
	}

	board, err := kanban.GetBoard(s.db, projectID, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

// handleMoveTask relocates one task to a new column and position.
func (s *Server) handleMoveTask(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid JSON body"})
		return
	}
	if req.ID == nil || *req.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "parameter \"id\" required", "field": "id"})
		return
	}
	if req.StatusID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "parameter \"statusId\" required", "field": "statusId"})
		return
	}
	if req.Priority == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "parameter \"priority\" required", "field": "priority"})
		return
	}

	statusID, _, err := decodeNullableRef(req.StatusID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid statusId", "field": "statusId"})
		return
	}

	err = kanban.Move(s.db, kanban.MoveOpts{
		TaskID:   *req.ID,
		StatusID: statusID,
		Priority: *req.Priority,
	}, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	t, err := task.Get(s.db, *req.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	column := "Unassigned"
	if statusID != nil {
		if status, err := project.GetStatus(s.db, *statusID); err == nil {
			column = status.Name
		}
	}
	if p, err := project.Get(s.db, t.ProjectID); err == nil {
		s.notifier.TaskMoved(c.Request.Context(), p, t, column)
	}

	c.JSON(http.StatusOK, gin.H{"task": t})
}
