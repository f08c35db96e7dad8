// Package kanban implements the board engine: bucketing tasks into
// ordered status columns, keeping per-column priority numbering dense,
// and moving tasks between columns.
//
// Column zero is always the fallback column. It holds every task whose
// status reference is nil or points at a status that no longer exists —
// a deleted status must not crash the view, and its orphaned tasks stay
// visible there for re-triage.
package kanban

import (
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/quayside/quayside/internal/models"
	"github.com/quayside/quayside/internal/project"
	"github.com/quayside/quayside/internal/task"
)

// Board is the column-grouped view of a project's tasks. TaskLists[0] is
// the fallback column; TaskLists[i] for i >= 1 corresponds to Statuses[i-1].
type Board struct {
	Statuses  []models.Status `json:"statuses"`
	TaskLists [][]models.Task `json:"taskLists"`
}

// GetBoard builds the board for a project on behalf of a user. The
// normalization pass it runs is self-healing and idempotent: stale,
// duplicate, or missing priorities are rewritten into a dense 0..n-1
// numbering, and dangling status references are reset to nil.
func GetBoard(db *gorm.DB, projectID, userID string) (*Board, error) {
	if _, err := project.Get(db, projectID); err != nil {
		return nil, err
	}
	if err := project.RequireMember(db, projectID, userID); err != nil {
		return nil, err
	}

	// Normalization writes, so it takes the same per-project lock as Move.
	unlock := lockProject(projectID)
	defer unlock()

	return buildBoard(db, projectID)
}

// Normalize rebuilds and renumbers a project's board without an
// authorization check. It backs the maintenance sweep.
func Normalize(db *gorm.DB, projectID string) (*Board, error) {
	unlock := lockProject(projectID)
	defer unlock()

	return buildBoard(db, projectID)
}

// NormalizeAll runs Normalize for every project. Used by the scheduled
// sweep; errors are collected so one bad project does not stop the rest.
func NormalizeAll(db *gorm.DB) error {
	var ids []string
	if err := db.Model(&models.Project{}).Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return fmt.Errorf("kanban: list projects: %w", err)
	}
	var firstErr error
	for _, id := range ids {
		if _, err := Normalize(db, id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func buildBoard(db *gorm.DB, projectID string) (*Board, error) {
	statuses, err := project.ListStatuses(db, projectID)
	if err != nil {
		return nil, err
	}
	tasks, err := task.List(db, task.ListFilters{ProjectID: projectID})
	if err != nil {
		return nil, err
	}

	// Partition into k+1 buckets: 0 = fallback, i+1 = statuses[i].
	columns := make([][]models.Task, len(statuses)+1)
	index := make(map[string]int, len(statuses))
	for i, s := range statuses {
		index[s.ID] = i + 1
	}
	for _, t := range tasks {
		col := 0
		if t.StatusID != nil {
			if i, ok := index[*t.StatusID]; ok {
				col = i
			}
		}
		columns[col] = append(columns[col], t)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		for i := range columns {
			var canonical *string
			if i > 0 {
				id := statuses[i-1].ID
				canonical = &id
			}
			if err := normalizeBucket(tx, columns[i], canonical); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range columns {
		if columns[i] == nil {
			columns[i] = []models.Task{}
		}
	}
	return &Board{Statuses: statuses, TaskLists: columns}, nil
}

// normalizeBucket sorts one bucket and rewrites any task whose stored
// (priority, statusId) differs from its computed position. A nil priority
// sorts before any explicit value. Tasks already in place produce no
// writes, which makes repeated passes free.
func normalizeBucket(tx *gorm.DB, bucket []models.Task, canonical *string) error {
	sort.SliceStable(bucket, func(i, j int) bool {
		pi, pj := bucket[i].Priority, bucket[j].Priority
		if pi == nil {
			return pj != nil
		}
		if pj == nil {
			return false
		}
		return *pi < *pj
	})

	for i := range bucket {
		t := &bucket[i]
		if t.Priority != nil && *t.Priority == i && refEqual(t.StatusID, canonical) {
			continue
		}
		p := i
		t.Priority = &p
		t.StatusID = canonical
		err := tx.Model(&models.Task{}).Where("id = ?", t.ID).
			Updates(map[string]interface{}{"priority": p, "status_id": canonical}).Error
		if err != nil {
			return fmt.Errorf("kanban: normalize task %s: %w", t.ID, err)
		}
	}
	return nil
}

// refEqual compares two nullable status references.
func refEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Default columns seeded at project creation.
var defaultStatuses = []project.StatusOpts{
	{Name: "Todo", Color: "323232", Order: 1},
	{Name: "In-Progress", Color: "EFA610", Order: 2},
	{Name: "Done", Color: "01796E", Order: 3},
}

// CreateDefaultStatuses seeds the three standard columns for a newly
// created project.
func CreateDefaultStatuses(db *gorm.DB, projectID string) ([]models.Status, error) {
	created := make([]models.Status, 0, len(defaultStatuses))
	for _, opts := range defaultStatuses {
		opts.ProjectID = projectID
		s, err := project.CreateStatus(db, opts)
		if err != nil {
			return nil, fmt.Errorf("kanban: seed status %q: %w", opts.Name, err)
		}
		created = append(created, *s)
	}
	return created, nil
}
