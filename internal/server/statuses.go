package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quayside/quayside/internal/project"
)

type statusRequest struct {
	ProjectID *string `json:"projectID"`
	Name      *string `json:"name"`
	Color     *string `json:"color"`
	Order     *int    `json:"order"`
}

// handleListStatuses returns a project's columns in board order.
func (s *Server) handleListStatuses(c *gin.Context) {
	projectID := c.Query("projectID")
	if projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "parameter \"projectID\" required", "field": "projectID"})
		return
	}
	if err := project.RequireMember(s.db, projectID, currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	statuses, err := project.ListStatuses(s.db, projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"statuses": statuses})
}

// handleCreateStatus adds a column to a project.
func (s *Server) handleCreateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid JSON body"})
		return
	}
	if req.ProjectID == nil || *req.ProjectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "parameter \"projectID\" required", "field": "projectID"})
		return
	}
	if err := project.RequireMember(s.db, *req.ProjectID, currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	opts := project.StatusOpts{ProjectID: *req.ProjectID}
	if req.Name != nil {
		opts.Name = *req.Name
	}
	if req.Color != nil {
		opts.Color = *req.Color
	}
	if req.Order != nil {
		opts.Order = *req.Order
	}

	status, err := project.CreateStatus(s.db, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": status})
}

// handleUpdateStatus applies partial field updates to a column.
func (s *Server) handleUpdateStatus(c *gin.Context) {
	id := c.Param("id")
	status, err := project.GetStatus(s.db, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := project.RequireMember(s.db, status.ProjectID, currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid JSON body"})
		return
	}

	status, err = project.UpdateStatus(s.db, id, project.StatusUpdateOpts{
		Name:  req.Name,
		Color: req.Color,
		Order: req.Order,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// handleDeleteStatus removes a column. Its tasks drop into the fallback
// column on the next board read.
func (s *Server) handleDeleteStatus(c *gin.Context) {
	id := c.Param("id")
	status, err := project.GetStatus(s.db, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := project.RequireMember(s.db, status.ProjectID, currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	if err := project.DeleteStatus(s.db, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}
