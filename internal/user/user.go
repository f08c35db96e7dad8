// Package user provides user account lookup and creation.
package user

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	gomysql "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/quayside/quayside/internal/apperr"
	"github.com/quayside/quayside/internal/auth"
	"github.com/quayside/quayside/internal/models"
)

// mysqlDupEntry is the MySQL error number for a duplicate key.
const mysqlDupEntry = 1062

// GenerateID creates a unique user ID in usr-xxxxxxxx format (8-char hex).
func GenerateID() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("user: generate ID: %w", err)
	}
	return "usr-" + hex.EncodeToString(b), nil
}

// Get retrieves a user by ID.
func Get(db *gorm.DB, id string) (*models.User, error) {
	var u models.User
	if err := db.Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user: %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("user: get %s: %w", id, err)
	}
	return &u, nil
}

// GetByEmail retrieves a user by email address.
func GetByEmail(db *gorm.DB, email string) (*models.User, error) {
	var u models.User
	if err := db.Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user: email %s: %w", email, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("user: get by email %s: %w", email, err)
	}
	return &u, nil
}

// FindOrCreate resolves an OAuth identity to a user row, creating one on
// first login and refreshing profile fields on subsequent logins.
func FindOrCreate(db *gorm.DB, id *auth.Identity) (*models.User, error) {
	if id.Email == "" {
		return nil, apperr.Validation("email")
	}

	existing, err := GetByEmail(db, id.Email)
	if err == nil {
		updates := map[string]interface{}{
			"username":   id.Username,
			"name":       id.Name,
			"avatar_url": id.AvatarURL,
			"provider":   id.Provider,
		}
		if err := db.Model(existing).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("user: refresh profile %s: %w", existing.ID, err)
		}
		return existing, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	uid, err := GenerateID()
	if err != nil {
		return nil, err
	}
	u := models.User{
		ID:        uid,
		Email:     id.Email,
		Username:  id.Username,
		Name:      id.Name,
		AvatarURL: id.AvatarURL,
		Provider:  id.Provider,
	}
	if err := db.Create(&u).Error; err != nil {
		// Two concurrent first logins can race on the email unique index;
		// the loser falls back to the winner's row.
		if isDuplicateEntry(err) {
			return GetByEmail(db, id.Email)
		}
		return nil, fmt.Errorf("user: create: %w", err)
	}
	return &u, nil
}

// SetAPIToken stores the last-issued bearer token on the user row.
func SetAPIToken(db *gorm.DB, userID, token string) error {
	res := db.Model(&models.User{}).Where("id = ?", userID).Update("api_token", token)
	if res.Error != nil {
		return fmt.Errorf("user: store token for %s: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user: %s: %w", userID, apperr.ErrNotFound)
	}
	return nil
}

// isDuplicateEntry reports whether err is a unique-constraint violation.
// MySQL reports error 1062; SQLite's message form covers local mode.
func isDuplicateEntry(err error) bool {
	var me *gomysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDupEntry
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
