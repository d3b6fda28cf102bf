package domain

import (
	"errors"
	"time"
)

// User is the authenticated identity handle consumed by the authorization core.
// IsPlatformOperator is global: it is not tied to any organization membership.
type User struct {
	ID                 string
	Email              string
	Name               string
	IsPlatformOperator bool
	Status             UserStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.Status == "" {
		u.Status = UserStatusActive
	}
	return nil
}

// DisplayName returns Name, falling back to Email when Name is empty.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
