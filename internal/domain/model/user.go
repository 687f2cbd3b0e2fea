package model

import (
	"time"

	"subscription-billing/internal/domain"
)

// User is a directory entry: identity plus the base permission set granted
// independently of any subscription.
type User struct {
	ID           string
	Username     string
	Permissions  []string
	RegisteredAt time.Time
}

// NewUser constructs and validates a User.
func NewUser(id, username string, permissions []string) (*User, error) {
	if id == "" || username == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &User{
		ID:           id,
		Username:     username,
		Permissions:  permissions,
		RegisteredAt: time.Now(),
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }
