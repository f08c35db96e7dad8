// Package auth issues and validates Quayside API tokens and drives the
// OAuth login flows.
package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// IssueToken signs an HS256 bearer token carrying the user's id.
func IssueToken(secret, userID string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("auth: token secret is empty")
	}
	claims := jwt.MapClaims{
		"userID": userID,
		"iat":    time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a bearer token and returns the user id it carries.
func ParseToken(secret, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("auth: parse token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token")
	}
	userID, _ := claims["userID"].(string)
	if userID == "" {
		return "", fmt.Errorf("auth: token has no userID claim")
	}
	return userID, nil
}

// ExtractToken pulls a bearer token from an Authorization header value,
// falling back to the apiToken cookie value. Returns "" if neither is set.
func ExtractToken(authHeader, cookie string) string {
	if authHeader != "" {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return cookie
}
