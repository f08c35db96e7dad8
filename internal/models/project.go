package models

import "time"

// Project groups tasks and statuses. A project is visible only to its
// members; the creating user becomes the first member.
type Project struct {
	ID          string     `gorm:"primaryKey;size:32" json:"id"`
	Name        string     `gorm:"not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	CreatedAt   time.Time  `json:"dateCreated"`
	UpdatedAt   time.Time  `json:"dateLastEdit"`

	Members  []User   `gorm:"many2many:project_members" json:"-"`
	Statuses []Status `gorm:"foreignKey:ProjectID" json:"-"`
}

// Status is one kanban column owned by a project. Order defines the
// left-to-right column position; tasks reference statuses weakly, so a
// status can be deleted while tasks still point at it.
type Status struct {
	ID        string `gorm:"primaryKey;size:32" json:"id"`
	ProjectID string `gorm:"size:32;index" json:"projectID"`
	Name      string `gorm:"size:64" json:"name"`
	// Color is a display hex code without the leading '#'.
	Color string `gorm:"size:16" json:"color"`
	// Order maps to sort_order because ORDER is a reserved word in MySQL.
	Order int `gorm:"column:sort_order" json:"order"`
}
