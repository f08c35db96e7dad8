package project

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/quayside/quayside/internal/apperr"
	"github.com/quayside/quayside/internal/models"
)

// StatusOpts holds parameters for creating a kanban status column.
type StatusOpts struct {
	ProjectID string
	Name      string
	Color     string // hex code without '#'
	Order     int
}

// StatusUpdateOpts holds optional status field updates.
type StatusUpdateOpts struct {
	Name  *string
	Color *string
	Order *int
}

// GenerateStatusID creates a unique status ID in sts-xxxxx format.
func GenerateStatusID() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("project: generate status ID: %w", err)
	}
	return "sts-" + hex.EncodeToString(b)[:5], nil
}

// CreateStatus adds a column to a project. Status names are unique within
// a project.
func CreateStatus(db *gorm.DB, opts StatusOpts) (*models.Status, error) {
	if opts.ProjectID == "" {
		return nil, apperr.Validation("projectID")
	}
	if opts.Name == "" {
		return nil, apperr.Validation("name")
	}
	if _, err := Get(db, opts.ProjectID); err != nil {
		return nil, err
	}

	var count int64
	err := db.Model(&models.Status{}).
		Where("project_id = ? AND name = ?", opts.ProjectID, opts.Name).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("project: check status name: %w", err)
	}
	if count > 0 {
		return nil, apperr.Validationf("name", "status %q already exists in project", opts.Name)
	}

	id, err := GenerateStatusID()
	if err != nil {
		return nil, err
	}
	s := models.Status{
		ID:        id,
		ProjectID: opts.ProjectID,
		Name:      opts.Name,
		Color:     opts.Color,
		Order:     opts.Order,
	}
	if err := db.Create(&s).Error; err != nil {
		return nil, fmt.Errorf("project: create status: %w", err)
	}
	return &s, nil
}

// GetStatus retrieves a status by ID.
func GetStatus(db *gorm.DB, id string) (*models.Status, error) {
	var s models.Status
	if err := db.Where("id = ?", id).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project: status %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("project: get status %s: %w", id, err)
	}
	return &s, nil
}

// ListStatuses returns the project's columns ordered left to right.
func ListStatuses(db *gorm.DB, projectID string) ([]models.Status, error) {
	var statuses []models.Status
	err := db.Where("project_id = ?", projectID).
		Order("sort_order ASC").
		Find(&statuses).Error
	if err != nil {
		return nil, fmt.Errorf("project: list statuses of %s: %w", projectID, err)
	}
	return statuses, nil
}

// UpdateStatus applies partial field updates to a status.
func UpdateStatus(db *gorm.DB, id string, opts StatusUpdateOpts) (*models.Status, error) {
	s, err := GetStatus(db, id)
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
	if opts.Color != nil {
		updates["color"] = *opts.Color
	}
	if opts.Order != nil {
		updates["sort_order"] = *opts.Order
	}
	if len(updates) == 0 {
		return s, nil
	}

	if err := db.Model(s).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("project: update status %s: %w", id, err)
	}
	return s, nil
}

// DeleteStatus removes a column. Tasks still referencing it are left
// alone; the kanban engine resolves the dangling reference into the
// fallback column on the next board read.
func DeleteStatus(db *gorm.DB, id string) error {
	res := db.Where("id = ?", id).Delete(&models.Status{})
	if res.Error != nil {
		return fmt.Errorf("project: delete status %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("project: status %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}
