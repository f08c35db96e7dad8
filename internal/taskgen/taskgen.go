package taskgen

import (
	"context"
	"log"

	"gorm.io/gorm"

	"github.com/quayside/quayside/internal/apperr"
	"github.com/quayside/quayside/internal/models"
	"github.com/quayside/quayside/internal/task"
)

// Generator produces a numbered task outline for a project description.
type Generator interface {
	GenerateOutline(ctx context.Context, name, description string) (string, error)
}

// GenerateOpts holds parameters for generating a project's task tree.
type GenerateOpts struct {
	ProjectID   string
	Name        string
	Description string
	Editor      string // user id recorded as lastEditor on created tasks
}

// Generate drafts an outline, parses it, and persists the resulting tree
// depth-first: the root is created first, then each child with its
// parent's fresh id. The created tasks are returned in creation order,
// root first.
//
// If any create fails, the error is returned as the operation's result
// and the rows created so far are unwound best-effort, so callers never
// get a partial tree reported as success.
func Generate(ctx context.Context, db *gorm.DB, gen Generator, opts GenerateOpts) ([]models.Task, error) {
	if opts.ProjectID == "" {
		return nil, apperr.Validation("projectID")
	}
	if opts.Name == "" {
		return nil, apperr.Validation("name")
	}

	outline, err := gen.GenerateOutline(ctx, opts.Name, opts.Description)
	if err != nil {
		return nil, err
	}
	root, err := BuildTree(opts.Name, outline)
	if err != nil {
		return nil, err
	}

	var created []models.Task
	var createdIDs []string

	var persist func(n *Node, parentID *string) error
	persist = func(n *Node, parentID *string) error {
		t, err := task.Create(db, task.CreateOpts{
			ProjectID:       opts.ProjectID,
			ParentTaskID:    parentID,
			Name:            n.Name,
			DurationMinutes: n.DurationMinutes,
			Editor:          opts.Editor,
		})
		if err != nil {
			return err
		}
		created = append(created, *t)
		createdIDs = append(createdIDs, t.ID)
		for _, c := range n.Children {
			if err := persist(c, &t.ID); err != nil {
				return err
			}
		}
		return nil
	}

	if err := persist(root, nil); err != nil {
		if _, delErr := task.DeleteByIDs(db, createdIDs); delErr != nil {
			log.Printf("taskgen: unwind partial tree: %v", delErr)
		}
		return nil, err
	}
	return created, nil
}
