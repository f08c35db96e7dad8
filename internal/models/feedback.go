package models

import "time"

// Feedback is a mood check-in left by a user on a project, optionally
// tied to a specific task.
type Feedback struct {
	ID        uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string  `gorm:"size:32;index" json:"userID"`
	ProjectID string  `gorm:"size:32;index" json:"projectID"`
	TaskID    *string `gorm:"size:32;index" json:"taskID"`
	// Mood is a 1 (rough) to 5 (great) scale.
	Mood        int       `json:"mood"`
	Explanation string    `gorm:"type:text" json:"explanation"`
	CreatedAt   time.Time `json:"dateCreated"`
}
