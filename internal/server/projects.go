package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quayside/quayside/internal/kanban"
	"github.com/quayside/quayside/internal/project"
)

type projectRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
}

// handleListProjects returns the caller's projects.
func (s *Server) handleListProjects(c *gin.Context) {
	projects, err := project.ListForUser(s.db, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// handleCreateProject creates a project, seeds its default columns, and
// makes the caller the first member.
func (s *Server) handleCreateProject(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid JSON body"})
		return
	}

	opts := project.CreateOpts{
		OwnerID:   currentUserID(c),
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}
	if req.Name != nil {
		opts.Name = *req.Name
	}
	if req.Description != nil {
		opts.Description = *req.Description
	}

	p, err := project.Create(s.db, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	if _, err := kanban.CreateDefaultStatuses(s.db, p.ID); err != nil {
		respondError(c, err)
		return
	}

	s.notifier.ProjectCreated(c.Request.Context(), p)
	c.JSON(http.StatusCreated, gin.H{"project": p})
}

// handleGetProject returns one project the caller is a member of.
func (s *Server) handleGetProject(c *gin.Context) {
	id := c.Param("id")
	p, err := project.Get(s.db, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := project.RequireMember(s.db, id, currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": p})
}

// handleUpdateProject applies partial field updates.
func (s *Server) handleUpdateProject(c *gin.Context) {
	id := c.Param("id")
	if err := project.RequireMember(s.db, id, currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid JSON body"})
		return
	}

	p, err := project.Update(s.db, id, project.UpdateOpts{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": p})
}

// handleDeleteProject removes a project and everything it owns.
func (s *Server) handleDeleteProject(c *gin.Context) {
	id := c.Param("id")
	if err := project.RequireMember(s.db, id, currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	if err := project.Delete(s.db, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// handleAddMember adds a user to the project. Only existing members may
// invite.
func (s *Server) handleAddMember(c *gin.Context) {
	id := c.Param("id")
	if err := project.RequireMember(s.db, id, currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	var req struct {
		UserID string `json:"userID"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "parameter \"userID\" required", "field": "userID"})
		return
	}

	if err := project.AddMember(s.db, id, req.UserID); err != nil {
		respondError(c, err)
		return
	}

	members, err := project.Members(s.db, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}
