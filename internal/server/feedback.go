package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/quayside/quayside/internal/feedback"
	"github.com/quayside/quayside/internal/project"
)

type feedbackRequest struct {
	ProjectID   string  `json:"projectID"`
	TaskID      *string `json:"taskID"`
	Mood        int     `json:"mood"`
	Explanation string  `json:"explanation"`
}

// handleListFeedback returns feedback for a project the caller belongs to.
func (s *Server) handleListFeedback(c *gin.Context) {
	projectID := c.Query("projectID")
	if projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "parameter \"projectID\" required", "field": "projectID"})
		return
	}
	if err := project.RequireMember(s.db, projectID, currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	entries, err := feedback.List(s.db, feedback.ListFilters{
		ProjectID: projectID,
		UserID:    c.Query("userID"),
		TaskID:    c.Query("taskID"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": entries})
}

// handleCreateFeedback records a mood check-in by the caller.
func (s *Server) handleCreateFeedback(c *gin.Context) {
	var req feedbackRequest
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

	f, err := feedback.Create(s.db, feedback.CreateOpts{
		UserID:      currentUserID(c),
		ProjectID:   req.ProjectID,
		TaskID:      req.TaskID,
		Mood:        req.Mood,
		Explanation: req.Explanation,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"feedback": f})
}

// handleDeleteFeedback removes one entry. Only its author may delete it.
func (s *Server) handleDeleteFeedback(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid id", "field": "id"})
		return
	}

	f, err := feedback.Get(s.db, uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	if f.UserID != currentUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"message": "feedback belongs to another user"})
		return
	}

	if err := feedback.Delete(s.db, uint(id)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}
