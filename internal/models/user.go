package models

import "time"

// User is an account created from an OAuth identity (GitHub or Google).
type User struct {
	ID        string `gorm:"primaryKey;size:32" json:"id"`
	Email     string `gorm:"size:255;uniqueIndex" json:"email"`
	Username  string `gorm:"size:128" json:"username"`
	Name      string `gorm:"size:255" json:"name"`
	AvatarURL string `gorm:"size:512" json:"avatarURL"`
	Provider  string `gorm:"size:16" json:"provider"`
	// APIToken is the HS256 bearer token last issued to this user.
	APIToken  string    `gorm:"size:512" json:"-"`
	CreatedAt time.Time `json:"dateCreated"`
	UpdatedAt time.Time `json:"dateLastEdit"`
}
