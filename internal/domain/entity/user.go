package entity

import (
	"time"
)

// UserRole represents user roles in the system
type UserRole string

const (
	RoleUser    UserRole = "user"
	RoleAdmin   UserRole = "admin"
	RoleManager UserRole = "manager"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleManager:
		return true
	}
	return false
}

// Staff roles manage the catalog.
var Staff = []UserRole{RoleAdmin, RoleManager}

// Address is a shipping address kept on the user document.
type Address struct {
	ID      string `json:"_id"`
	Alias   string `json:"alias"`
	Details string `json:"details"`
	Phone   string `json:"phone"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	Pincode string `json:"pincode"`
}

// User represents an account. Password holds the bcrypt hash and is never serialized.
type User struct {
	ID                string     `json:"_id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Password          string     `json:"-"`
	Phone             string     `json:"phone,omitempty"`
	Avatar            string     `json:"avatar,omitempty"`
	Role              UserRole   `json:"role"`
	PasswordChangedAt *time.Time `json:"-"`
	Wishlist          []string   `json:"wishlist"`
	Addresses         []Address  `json:"addresses"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// HasRole reports whether the user holds one of roles. No roles means any role.
func (u *User) HasRole(roles ...UserRole) bool {
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// PasswordChangedSince reports whether a token issued at issuedAt predates the
// last password change. One second of slack covers tokens minted in the same
// request that changed the password.
func (u *User) PasswordChangedSince(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return !u.PasswordChangedAt.Add(-time.Second).Before(issuedAt)
}

// FindAddress returns the address with the given id.
func (u *User) FindAddress(id string) (Address, bool) {
	for _, a := range u.Addresses {
		if a.ID == id {
			return a, true
		}
	}
	return Address{}, false
}
