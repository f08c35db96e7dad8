package models

import "time"

// Task is the core work item. Tasks form a tree within a project via
// ParentTaskID and sit on the kanban board via (StatusID, Priority).
//
// StatusID is a weak reference: nil or a dangling id are both valid and
// mean the task belongs to the board's fallback column. Priority is the
// dense ordering key within one (ProjectID, StatusID) bucket; nil means
// "not yet placed" and is healed by board normalization.
type Task struct {
	ID           string  `gorm:"primaryKey;size:32" json:"id"`
	ProjectID    string  `gorm:"size:32;index:idx_tasks_bucket" json:"projectID"`
	ParentTaskID *string `gorm:"size:32;index" json:"parentTaskID"`
	Name         string  `gorm:"not null" json:"name"`
	Description  string  `gorm:"type:text" json:"description"`

	StatusID *string `gorm:"size:32;index:idx_tasks_bucket" json:"statusId"`
	Priority *int    `json:"priority"`

	DurationMinutes int        `json:"durationMinutes"`
	StartDate       *time.Time `json:"startDate"`
	EndDate         *time.Time `json:"endDate"`

	LastEditor string    `gorm:"size:32" json:"lastEditor"`
	CreatedAt  time.Time `json:"dateCreated"`
	UpdatedAt  time.Time `json:"dateLastEdit"`

	Contributors []User `gorm:"many2many:task_contributors" json:"-"`
	Children     []Task `gorm:"foreignKey:ParentTaskID" json:"-"`
}
