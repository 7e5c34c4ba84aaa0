// Package user provides landlord and tenant accounts and their data access.
package user

import (
	"errors"
	"slices"
	"time"
)

// Role decides what a user can see and do.
type Role string

const (
	RoleTenant   Role = "tenant"
	RoleLandlord Role = "landlord"
)

// IsValid checks if a role is recognized.
func (r Role) IsValid() bool {
	return r == RoleTenant || r == RoleLandlord
}

var (
	// ErrNotFound is returned when a user does not exist.
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when signing up with an email already in use.
	ErrEmailTaken = errors.New("email already registered")
)

// User is an account. PropertyIDs holds a tenant's memberships; landlords
// own properties through property.landlord_id instead.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	PropertyIDs  []string  `json:"property_ids"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsLandlord reports whether the user is a landlord.
func (u *User) IsLandlord() bool { return u.Role == RoleLandlord }

// IsTenant reports whether the user is a tenant.
func (u *User) IsTenant() bool { return u.Role == RoleTenant }

// HasProperty reports whether propertyID is in the user's membership set.
func (u *User) HasProperty(propertyID string) bool {
	return slices.Contains(u.PropertyIDs, propertyID)
}
