package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quayside/quayside/internal/project"
	"github.com/quayside/quayside/internal/task"
)

// taskRequest distinguishes absent fields (left nil) from explicit nulls
// for the nullable references, via json.RawMessage.
type taskRequest struct {
	ProjectID       *string         `json:"projectID"`
	ParentTaskID    json.RawMessage `json:"parentTaskID"`
	Name            *string         `json:"name"`
	Description     *string         `json:"description"`
	StatusID        json.RawMessage `json:"statusId"`
	Priority        *int            `json:"priority"`
	DurationMinutes *int            `json:"durationMinutes"`
	StartDate       *time.Time      `json:"startDate"`
	EndDate         *time.Time      `json:"endDate"`
}

// decodeNullableRef parses a raw JSON field that may be absent, null, or
// a string. present is false when the field was not in the body.
func decodeNullableRef(raw json.RawMessage) (value *string, present bool, err error) {
	if raw == nil {
		return nil, false, nil
	}
	if string(raw) == "null" {
		return nil, true, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, true, err
	}
	return &s, true, nil
}

// handleListTasks returns tasks filtered by the query parameters.
func (s *Server) handleListTasks(c *gin.Context) {
	projectID := c.Query("projectID")
	if projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "parameter \"projectID\" required", "field": "projectID"})
		return
	}
	if err := project.RequireMember(s.db, projectID, currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	filters := task.ListFilters{ProjectID: projectID}
	if v, ok := c.GetQuery("parentTaskID"); ok {
		filters.ParentTaskID = &v
	}
	if v, ok := c.GetQuery("statusId"); ok {
		filters.StatusID = &v
	}
	filters.ContributorID = c.Query("contributorID")

	tasks, err := task.List(s.db, filters)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// handleCreateTask inserts a task into a project the caller belongs to.
func (s *Server) handleCreateTask(c *gin.Context) {
	var req taskRequest
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

	parentID, _, err := decodeNullableRef(req.ParentTaskID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid parentTaskID", "field": "parentTaskID"})
		return
	}
	statusID, _, err := decodeNullableRef(req.StatusID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid statusId", "field": "statusId"})
		return
	}

	opts := task.CreateOpts{
		ProjectID:    *req.ProjectID,
		ParentTaskID: parentID,
		StatusID:     statusID,
		Priority:     req.Priority,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Editor:       currentUserID(c),
	}
	if req.Name != nil {
		opts.Name = *req.Name
	}
	if req.Description != nil {
		opts.Description = *req.Description
	}
	if req.DurationMinutes != nil {
		opts.DurationMinutes = *req.DurationMinutes
	}

	t, err := task.Create(s.db, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": t})
}

// handleGetTask returns one task.
func (s *Server) handleGetTask(c *gin.Context) {
	t, err := task.Get(s.db, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := project.RequireMember(s.db, t.ProjectID, currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": t})
}

// handleUpdateTask applies partial field updates.
func (s *Server) handleUpdateTask(c *gin.Context) {
	t, err := task.Get(s.db, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := project.RequireMember(s.db, t.ProjectID, currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid JSON body"})
		return
	}

	opts := task.UpdateOpts{
		Name:            req.Name,
		Description:     req.Description,
		Priority:        req.Priority,
		DurationMinutes: req.DurationMinutes,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Editor:          currentUserID(c),
	}
	if parentID, present, err := decodeNullableRef(req.ParentTaskID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid parentTaskID", "field": "parentTaskID"})
		return
	} else if present {
		opts.ParentTaskID = &parentID
	}
	if statusID, present, err := decodeNullableRef(req.StatusID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid statusId", "field": "statusId"})
		return
	} else if present {
		opts.StatusID = &statusID
	}

	t, err = task.Update(s.db, t.ID, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": t})
}

// handleDeleteTask removes a task. ?deleteChildren=true cascades to the
// whole subtree; the default re-attaches children to the grandparent.
func (s *Server) handleDeleteTask(c *gin.Context) {
	t, err := task.Get(s.db, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := project.RequireMember(s.db, t.ProjectID, currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	policy := task.ReparentChildrenToGrandparent
	if c.Query("deleteChildren") == "true" {
		policy = task.CascadeDeleteChildren
	}

	deleted, err := task.Delete(s.db, t.ID, policy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": t.ID, "deleted": deleted})
}
