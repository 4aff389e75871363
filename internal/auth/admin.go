// Package auth guards the admin pages with HTTP basic auth against a single
// bcrypt-hashed admin account.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const defaultCost = 12

// Password represents a hashed password
type Password struct {
	hash []byte
}

// Set hashes and stores a plaintext password
func (p *Password) Set(plaintextPassword string, cost int) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintextPassword), cost)
	if err != nil {
		return err
	}

	p.hash = hash
	return nil
}

// Matches checks if a plaintext password matches the hash
func (p *Password) Matches(plaintextPassword string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(p.hash, []byte(plaintextPassword))
	if err != nil {
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, err
		}
	}
	return true, nil
}

// Admin is the single account allowed onto the admin pages
type Admin struct {
	User     string
	Password Password
}

// NewAdmin hashes password once so requests never see the plaintext
func NewAdmin(user, password string) (*Admin, error) {
	return newAdmin(user, password, defaultCost)
}

func newAdmin(user, password string, cost int) (*Admin, error) {
	if user == "" {
		return nil, fmt.Errorf("admin user is required")
	}
	if password == "" {
		return nil, fmt.Errorf("admin password is required")
	}

	admin := &Admin{User: user}
	if err := admin.Password.Set(password, cost); err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}
	return admin, nil
}

// Authenticate checks a username and password pair
func (a *Admin) Authenticate(user, password string) (bool, error) {
	userMatches := subtle.ConstantTimeCompare([]byte(user), []byte(a.User)) == 1
	passwordMatches, err := a.Password.Matches(password)
	if err != nil {
		return false, err
	}
	return userMatches && passwordMatches, nil
}
