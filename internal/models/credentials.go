package models

import (
	"errors"
	"strings"
)

// ErrEmptyCredentials is returned when the username or password is blank.
var ErrEmptyCredentials = errors.New("username and password are required")

// Credentials is the portal account used to log in.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"-"` // never echoed back
}

// Validate rejects blank usernames and passwords.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" || strings.TrimSpace(c.Password) == "" {
		return ErrEmptyCredentials
	}
	return nil
}
