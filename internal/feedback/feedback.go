// Package feedback stores mood check-ins left by project members.
package feedback

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/quayside/quayside/internal/apperr"
	"github.com/quayside/quayside/internal/models"
)

// CreateOpts holds parameters for recording feedback.
type CreateOpts struct {
	UserID      string
	ProjectID   string
	TaskID      *string
	Mood        int // 1 (rough) to 5 (great)
	Explanation string
}

// ListFilters holds the enumerated filters for listing feedback.
// Zero-value fields are ignored.
type ListFilters struct {
	UserID    string
	ProjectID string
	TaskID    string
}

// Create records one feedback entry.
func Create(db *gorm.DB, opts CreateOpts) (*models.Feedback, error) {
	if opts.ProjectID == "" {
		return nil, apperr.Validation("projectID")
	}
	if opts.UserID == "" {
		return nil, apperr.Validation("userID")
	}
	if opts.Mood < 1 || opts.Mood > 5 {
		return nil, apperr.Validationf("mood", "must be between 1 and 5")
	}

	f := models.Feedback{
		UserID:      opts.UserID,
		ProjectID:   opts.ProjectID,
		TaskID:      opts.TaskID,
		Mood:        opts.Mood,
		Explanation: opts.Explanation,
	}
	if err := db.Create(&f).Error; err != nil {
		return nil, fmt.Errorf("feedback: create: %w", err)
	}
	return &f, nil
}

// Get retrieves one feedback entry by ID.
func Get(db *gorm.DB, id uint) (*models.Feedback, error) {
	var f models.Feedback
	if err := db.Where("id = ?", id).First(&f).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("feedback: %d: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("feedback: get %d: %w", id, err)
	}
	return &f, nil
}

// List returns feedback matching the filters, newest first.
func List(db *gorm.DB, filters ListFilters) ([]models.Feedback, error) {
	q := db.Model(&models.Feedback{})
	if filters.UserID != "" {
		q = q.Where("user_id = ?", filters.UserID)
	}
	if filters.ProjectID != "" {
		q = q.Where("project_id = ?", filters.ProjectID)
	}
	if filters.TaskID != "" {
		q = q.Where("task_id = ?", filters.TaskID)
	}

	var entries []models.Feedback
	if err := q.Order("created_at DESC, id DESC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("feedback: list: %w", err)
	}
	return entries, nil
}

// Delete removes one feedback entry.
func Delete(db *gorm.DB, id uint) error {
	res := db.Where("id = ?", id).Delete(&models.Feedback{})
	if res.Error != nil {
		return fmt.Errorf("feedback: delete %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("feedback: %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}
