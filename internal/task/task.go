// Package task is the task repository: CRUD over the task tree.
//
// It is a pure persistence layer. Authorization (project membership) is
// enforced by callers — the HTTP handlers and the kanban engine — so the
// repository stays usable from internal maintenance paths.
package task

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/quayside/quayside/internal/apperr"
	"github.com/quayside/quayside/internal/models"
)

// DeletePolicy selects what happens to a deleted task's children.
type DeletePolicy int

const (
	// CascadeDeleteChildren removes the task and its whole subtree.
	CascadeDeleteChildren DeletePolicy = iota
	// ReparentChildrenToGrandparent re-attaches children to the deleted
	// task's own parent (nil makes them top-level).
	ReparentChildrenToGrandparent
)

// CreateOpts holds parameters for creating a task.
type CreateOpts struct {
	ProjectID       string
	ParentTaskID    *string
	Name            string
	Description     string
	StatusID        *string
	Priority        *int
	DurationMinutes int
	StartDate       *time.Time
	EndDate         *time.Time
	Editor          string // user id recorded as lastEditor
}

// UpdateOpts holds optional task field updates; nil means leave unchanged.
type UpdateOpts struct {
	Name            *string
	Description     *string
	ParentTaskID    **string // outer nil: unchanged; inner nil: detach
	StatusID        **string
	Priority        *int
	DurationMinutes *int
	StartDate       *time.Time
	EndDate         *time.Time
	Editor          string
}

// ListFilters holds the enumerated filters for listing tasks. Zero-value
// fields are ignored.
type ListFilters struct {
	ProjectID     string
	ParentTaskID  *string
	StatusID      *string
	ContributorID string
}

// GenerateID creates a unique task ID in tsk-xxxxxxxx format (8-char hex).
func GenerateID() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("task: generate ID: %w", err)
	}
	return "tsk-" + hex.EncodeToString(b), nil
}

func generateUniqueID(db *gorm.DB) (string, error) {
	for attempt := 0; attempt < 2; attempt++ {
		id, err := GenerateID()
		if err != nil {
			return "", err
		}
		var count int64
		if err := db.Model(&models.Task{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return "", fmt.Errorf("task: check ID uniqueness: %w", err)
		}
		if count == 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("task: failed to generate unique ID after retries")
}

// Create inserts a task. A parent, when given, must belong to the same
// project.
func Create(db *gorm.DB, opts CreateOpts) (*models.Task, error) {
	if opts.ProjectID == "" {
		return nil, apperr.Validation("projectID")
	}
	if opts.Name == "" {
		return nil, apperr.Validation("name")
	}
	if opts.DurationMinutes < 0 {
		return nil, apperr.Validationf("durationMinutes", "must be >= 0")
	}

	if opts.ParentTaskID != nil {
		parent, err := Get(db, *opts.ParentTaskID)
		if err != nil {
			return nil, err
		}
		if parent.ProjectID != opts.ProjectID {
			return nil, apperr.Validationf("parentTaskID", "belongs to another project")
		}
	}

	id, err := generateUniqueID(db)
	if err != nil {
		return nil, err
	}
	t := models.Task{
		ID:              id,
		ProjectID:       opts.ProjectID,
		ParentTaskID:    opts.ParentTaskID,
		Name:            opts.Name,
		Description:     opts.Description,
		StatusID:        opts.StatusID,
		Priority:        opts.Priority,
		DurationMinutes: opts.DurationMinutes,
		StartDate:       opts.StartDate,
		EndDate:         opts.EndDate,
		LastEditor:      opts.Editor,
	}
	if err := db.Create(&t).Error; err != nil {
		return nil, fmt.Errorf("task: create: %w", err)
	}
	return &t, nil
}

// Get retrieves a task by ID.
func Get(db *gorm.DB, id string) (*models.Task, error) {
	var t models.Task
	if err := db.Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task: %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("task: get %s: %w", id, err)
	}
	return &t, nil
}

// List returns tasks matching the filters, oldest first.
func List(db *gorm.DB, filters ListFilters) ([]models.Task, error) {
	q := db.Model(&models.Task{})

	if filters.ProjectID != "" {
		q = q.Where("project_id = ?", filters.ProjectID)
	}
	if filters.ParentTaskID != nil {
		q = q.Where("parent_task_id = ?", *filters.ParentTaskID)
	}
	if filters.StatusID != nil {
		q = q.Where("status_id = ?", *filters.StatusID)
	}
	if filters.ContributorID != "" {
		q = q.Joins("JOIN task_contributors tc ON tc.task_id = tasks.id").
			Where("tc.user_id = ?", filters.ContributorID)
	}

	var tasks []models.Task
	if err := q.Order("created_at ASC, id ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("task: list: %w", err)
	}
	return tasks, nil
}

// Update applies partial field updates to a task.
func Update(db *gorm.DB, id string, opts UpdateOpts) (*models.Task, error) {
	t, err := Get(db, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if opts.Name != nil {
		if *opts.Name == "" {
			return nil, apperr.Validationf("name", "must not be empty")
		}
		updates["name"] = *opts.Name
	}
	if opts.Description != nil {
		updates["description"] = *opts.Description
	}
	if opts.ParentTaskID != nil {
		if *opts.ParentTaskID != nil {
			parent, err := Get(db, **opts.ParentTaskID)
			if err != nil {
				return nil, err
			}
			if parent.ProjectID != t.ProjectID {
				return nil, apperr.Validationf("parentTaskID", "belongs to another project")
			}
		}
		updates["parent_task_id"] = *opts.ParentTaskID
	}
	if opts.StatusID != nil {
		updates["status_id"] = *opts.StatusID
	}
	if opts.Priority != nil {
		updates["priority"] = *opts.Priority
	}
	if opts.DurationMinutes != nil {
		if *opts.DurationMinutes < 0 {
			return nil, apperr.Validationf("durationMinutes", "must be >= 0")
		}
		updates["duration_minutes"] = *opts.DurationMinutes
	}
	if opts.StartDate != nil {
		updates["start_date"] = *opts.StartDate
	}
	if opts.EndDate != nil {
		updates["end_date"] = *opts.EndDate
	}
	if opts.Editor != "" {
		updates["last_editor"] = opts.Editor
	}
	if len(updates) == 0 {
		return t, nil
	}

	if err := db.Model(t).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("task: update %s: %w", id, err)
	}
	return t, nil
}

// AddContributor assigns a user to a task.
func AddContributor(db *gorm.DB, taskID, userID string) error {
	t := models.Task{ID: taskID}
	u := models.User{ID: userID}
	if err := db.Model(&t).Association("Contributors").Append(&u); err != nil {
		return fmt.Errorf("task: add contributor %s to %s: %w", userID, taskID, err)
	}
	return nil
}

// Delete removes a task, applying the given child policy. It returns the
// number of tasks deleted.
func Delete(db *gorm.DB, id string, policy DeletePolicy) (int64, error) {
	t, err := Get(db, id)
	if err != nil {
		return 0, err
	}

	var deleted int64
	err = db.Transaction(func(tx *gorm.DB) error {
		switch policy {
		case CascadeDeleteChildren:
			n, err := deleteSubtree(tx, t.ID)
			if err != nil {
				return err
			}
			deleted = n
			return nil
		case ReparentChildrenToGrandparent:
			err := tx.Model(&models.Task{}).
				Where("parent_task_id = ?", t.ID).
				Update("parent_task_id", t.ParentTaskID).Error
			if err != nil {
				return fmt.Errorf("task: reparent children of %s: %w", t.ID, err)
			}
			res := tx.Where("id = ?", t.ID).Delete(&models.Task{})
			if res.Error != nil {
				return fmt.Errorf("task: delete %s: %w", t.ID, res.Error)
			}
			deleted = res.RowsAffected
			return nil
		default:
			return apperr.Validationf("deletePolicy", "unknown policy %d", policy)
		}
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// deleteSubtree removes a task and all descendants depth-first.
func deleteSubtree(tx *gorm.DB, id string) (int64, error) {
	var children []models.Task
	if err := tx.Where("parent_task_id = ?", id).Find(&children).Error; err != nil {
		return 0, fmt.Errorf("task: load children of %s: %w", id, err)
	}

	var total int64
	for _, c := range children {
		n, err := deleteSubtree(tx, c.ID)
		if err != nil {
			return 0, err
		}
		total += n
	}

	res := tx.Where("id = ?", id).Delete(&models.Task{})
	if res.Error != nil {
		return 0, fmt.Errorf("task: delete %s: %w", id, res.Error)
	}
	return total + res.RowsAffected, nil
}

// DeleteByProject removes every task in a project, as part of project
// deletion. Returns the number of tasks deleted.
func DeleteByProject(db *gorm.DB, projectID string) (int64, error) {
	if err := db.Exec(
		"DELETE FROM task_contributors WHERE task_id IN (SELECT id FROM tasks WHERE project_id = ?)",
		projectID,
	).Error; err != nil {
		return 0, fmt.Errorf("task: delete contributors for project %s: %w", projectID, err)
	}
	res := db.Where("project_id = ?", projectID).Delete(&models.Task{})
	if res.Error != nil {
		return 0, fmt.Errorf("task: delete by project %s: %w", projectID, res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteByIDs removes the given tasks without child handling. Used by the
// task generator to unwind a partially created tree.
func DeleteByIDs(db *gorm.DB, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := db.Where("id IN ?", ids).Delete(&models.Task{})
	if res.Error != nil {
		return 0, fmt.Errorf("task: delete by ids: %w", res.Error)
	}
	return res.RowsAffected, nil
}
