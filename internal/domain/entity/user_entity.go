package entity

import (
	"time"
)

// User is the aggregate root for the account domain.
// PasswordHash holds a bcrypt hash. Users are immutable after registration.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Address      UserAddress
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserAddress is the mailing address a user claimed at signup.
type UserAddress struct {
	Address  string
	Movie    string
	IsCustom bool
}

// Ref returns the populated view of u used on mail rows.
func (u *User) Ref() *UserRef {
	return &UserRef{ID: u.ID, Username: u.Username, Address: u.Address}
}
