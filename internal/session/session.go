// Package session carries the authenticated caller through every service call.
package session

import (
	"strings"

	"influencer-hub-backend/internal/models"
)

type Session struct {
	UserID string
	Email  string
	Role   models.Role
}

func New(userID, email string, role models.Role) *Session {
	return &Session{UserID: strings.TrimSpace(userID), Email: email, Role: role}
}

// Require returns the caller's user id, or ErrUnauthenticated when there is none.
func Require(s *Session) (string, error) {
	if s == nil || s.UserID == "" {
		return "", models.ErrUnauthenticated
	}
	return s.UserID, nil
}
