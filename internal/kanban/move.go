package kanban

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/quayside/quayside/internal/apperr"
	"github.com/quayside/quayside/internal/models"
	"github.com/quayside/quayside/internal/project"
	"github.com/quayside/quayside/internal/task"
)

// MoveOpts describes a drag-and-drop relocation of one task.
type MoveOpts struct {
	TaskID   string
	StatusID *string // nil targets the fallback column
	Priority int
}

// Move relocates a task to a new column and position, renumbering every
// affected sibling so both buckets stay dense.
//
// Same-column reorders shift only the interval between the old and new
// position: a blanket "close the gap, then open a slot" pass would shift
// the moved task's former neighbors twice when both passes hit the same
// bucket.
func Move(db *gorm.DB, opts MoveOpts, userID string) error {
	if opts.TaskID == "" {
		return apperr.Validation("id")
	}
	if opts.Priority < 0 {
		return apperr.Validationf("priority", "must be >= 0")
	}

	// This read only resolves the project for the lock and the
	// membership check. The position it carries is a snapshot.
	t, err := task.Get(db, opts.TaskID)
	if err != nil {
		return err
	}
	if err := project.RequireMember(db, t.ProjectID, userID); err != nil {
		return err
	}

	unlock := lockProject(t.ProjectID)
	defer unlock()

	return db.Transaction(func(tx *gorm.DB) error {
		// A competing move can commit while this call waits on the lock,
		// so the shifts below start from the current stored position.
		t, err := task.Get(tx, opts.TaskID)
		if err != nil {
			return err
		}
		sameBucket := refEqual(t.StatusID, opts.StatusID)

		switch {
		case sameBucket && t.Priority != nil && *t.Priority == opts.Priority:
			// Already in place.
			return nil

		case sameBucket && t.Priority != nil:
			old := *t.Priority
			if opts.Priority > old {
				// Moving toward the bottom: pull (old, new] up one.
				err = bucketScope(tx.Model(&models.Task{}), t.ProjectID, opts.StatusID).
					Where("priority > ? AND priority <= ?", old, opts.Priority).
					Where("id <> ?", t.ID).
					UpdateColumn("priority", gorm.Expr("priority - 1")).Error
			} else {
				// Moving toward the top: push [new, old) down one.
				err = bucketScope(tx.Model(&models.Task{}), t.ProjectID, opts.StatusID).
					Where("priority >= ? AND priority < ?", opts.Priority, old).
					Where("id <> ?", t.ID).
					UpdateColumn("priority", gorm.Expr("priority + 1")).Error
			}
			if err != nil {
				return fmt.Errorf("kanban: shift column for %s: %w", t.ID, err)
			}

		default:
			// Close the gap the task leaves behind. A nil stored priority
			// means the task was never placed; the old bucket heals on the
			// next board read.
			if t.Priority != nil {
				err = bucketScope(tx.Model(&models.Task{}), t.ProjectID, t.StatusID).
					Where("priority > ?", *t.Priority).
					Where("id <> ?", t.ID).
					UpdateColumn("priority", gorm.Expr("priority - 1")).Error
				if err != nil {
					return fmt.Errorf("kanban: close gap for %s: %w", t.ID, err)
				}
			}
			// Open a slot in the target bucket.
			err = bucketScope(tx.Model(&models.Task{}), t.ProjectID, opts.StatusID).
				Where("priority >= ?", opts.Priority).
				Where("id <> ?", t.ID).
				UpdateColumn("priority", gorm.Expr("priority + 1")).Error
			if err != nil {
				return fmt.Errorf("kanban: open slot for %s: %w", t.ID, err)
			}
		}

		err = tx.Model(&models.Task{}).Where("id = ?", t.ID).
			Updates(map[string]interface{}{
				"status_id":   opts.StatusID,
				"priority":    opts.Priority,
				"last_editor": userID,
			}).Error
		if err != nil {
			return fmt.Errorf("kanban: place task %s: %w", t.ID, err)
		}
		return nil
	})
}

// bucketScope narrows a query to one (projectID, statusID) bucket. The
// fallback bucket matches stored NULLs only; dangling references are
// folded into it by normalization, not here.
func bucketScope(q *gorm.DB, projectID string, statusID *string) *gorm.DB {
	q = q.Where("project_id = ?", projectID)
	if statusID == nil {
		return q.Where("status_id IS NULL")
	}
	return q.Where("status_id = ?", *statusID)
}
