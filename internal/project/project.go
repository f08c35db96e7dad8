// Package project provides project and status lifecycle operations.
//
// Membership gates everything: a project is visible and editable only to
// its members, and every service that touches project-owned data calls
// IsMember before reading or writing.
package project

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/quayside/quayside/internal/apperr"
	"github.com/quayside/quayside/internal/models"
	"github.com/quayside/quayside/internal/task"
)

// CreateOpts holds parameters for creating a new project.
type CreateOpts struct {
	Name        string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
	OwnerID     string // becomes the first member
}

// UpdateOpts holds optional field updates; nil means leave unchanged.
type UpdateOpts struct {
	Name        *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
}

// GenerateID creates a unique project ID in prj-xxxxx format (5-char hex).
func GenerateID() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("project: generate ID: %w", err)
	}
	return "prj-" + hex.EncodeToString(b)[:5], nil
}

func generateUniqueID(db *gorm.DB) (string, error) {
	for attempt := 0; attempt < 2; attempt++ {
		id, err := GenerateID()
		if err != nil {
			return "", err
		}
		var count int64
		if err := db.Model(&models.Project{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return "", fmt.Errorf("project: check ID uniqueness: %w", err)
		}
		if count == 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("project: failed to generate unique ID after retries")
}

// Create creates a project with the owner as its first member. Status
// seeding is the kanban engine's job; callers invoke
// kanban.CreateDefaultStatuses after Create.
func Create(db *gorm.DB, opts CreateOpts) (*models.Project, error) {
	if opts.Name == "" {
		return nil, apperr.Validation("name")
	}
	if opts.OwnerID == "" {
		return nil, apperr.Validation("ownerID")
	}

	id, err := generateUniqueID(db)
	if err != nil {
		return nil, err
	}

	p := models.Project{
		ID:          id,
		Name:        opts.Name,
		Description: opts.Description,
		StartDate:   opts.StartDate,
		EndDate:     opts.EndDate,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&p).Error; err != nil {
			return fmt.Errorf("project: create: %w", err)
		}
		owner := models.User{ID: opts.OwnerID}
		if err := tx.Model(&p).Association("Members").Append(&owner); err != nil {
			return fmt.Errorf("project: add owner %s: %w", opts.OwnerID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Get retrieves a project by ID.
func Get(db *gorm.DB, id string) (*models.Project, error) {
	var p models.Project
	if err := db.Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project: %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("project: get %s: %w", id, err)
	}
	return &p, nil
}

// ListForUser returns all projects the user is a member of, newest first.
func ListForUser(db *gorm.DB, userID string) ([]models.Project, error) {
	var projects []models.Project
	err := db.
		Joins("JOIN project_members pm ON pm.project_id = projects.id").
		Where("pm.user_id = ?", userID).
		Order("projects.created_at DESC").
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("project: list for user %s: %w", userID, err)
	}
	return projects, nil
}

// IsMember reports whether the user belongs to the project.
func IsMember(db *gorm.DB, projectID, userID string) (bool, error) {
	var count int64
	err := db.Table("project_members").
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("project: membership check %s/%s: %w", projectID, userID, err)
	}
	return count > 0, nil
}

// RequireMember returns apperr.ErrForbidden when the user is not a member.
func RequireMember(db *gorm.DB, projectID, userID string) error {
	ok, err := IsMember(db, projectID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("project: user %s on %s: %w", userID, projectID, apperr.ErrForbidden)
	}
	return nil
}

// AddMember adds a user to the project.
func AddMember(db *gorm.DB, projectID, userID string) error {
	p := models.Project{ID: projectID}
	member := models.User{ID: userID}
	if err := db.Model(&p).Association("Members").Append(&member); err != nil {
		return fmt.Errorf("project: add member %s to %s: %w", userID, projectID, err)
	}
	return nil
}

// Members returns the project's member users.
func Members(db *gorm.DB, projectID string) ([]models.User, error) {
	var users []models.User
	err := db.
		Joins("JOIN project_members pm ON pm.user_id = users.id").
		Where("pm.project_id = ?", projectID).
		Order("users.id ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("project: members of %s: %w", projectID, err)
	}
	return users, nil
}

// Update applies partial field updates to a project.
func Update(db *gorm.DB, id string, opts UpdateOpts) (*models.Project, error) {
	p, err := Get(db, id)
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
	if opts.StartDate != nil {
		updates["start_date"] = *opts.StartDate
	}
	if opts.EndDate != nil {
		updates["end_date"] = *opts.EndDate
	}
	if len(updates) == 0 {
		return p, nil
	}

	if err := db.Model(p).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("project: update %s: %w", id, err)
	}
	return p, nil
}

// Delete removes a project and everything it owns: tasks, statuses,
// feedback, and memberships.
func Delete(db *gorm.DB, id string) error {
	if _, err := Get(db, id); err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if _, err := task.DeleteByProject(tx, id); err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.Status{}).Error; err != nil {
			return fmt.Errorf("project: delete statuses of %s: %w", id, err)
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.Feedback{}).Error; err != nil {
			return fmt.Errorf("project: delete feedback of %s: %w", id, err)
		}
		if err := tx.Exec("DELETE FROM project_members WHERE project_id = ?", id).Error; err != nil {
			return fmt.Errorf("project: delete memberships of %s: %w", id, err)
		}
		if err := tx.Where("id = ?", id).Delete(&models.Project{}).Error; err != nil {
			return fmt.Errorf("project: delete %s: %w", id, err)
		}
		return nil
	})
}
