package model

import (
	"errors"
	"strings"
	"time"
)

// DefaultUserName is shown when a profile has no display name.
const DefaultUserName = "Pengguna"

// User is a locally managed account (table: profiles).
type User struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Role      Role      `gorm:"type:varchar(32);not null;index" json:"role"`
	Password  string    `gorm:"type:varchar(255)" json:"password,omitempty"` // bcrypt hash, local accounts only
	AuthID    string    `gorm:"type:varchar(64);index" json:"authId,omitempty"` // optional remote identity reference
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName pins the table to the profiles schema.
func (User) TableName() string {
	return "profiles"
}

// DisplayName returns the profile name, never empty.
func (u *User) DisplayName() string {
	if strings.TrimSpace(u.Name) == "" {
		return DefaultUserName
	}
	return u.Name
}

// Validate checks the structural invariants of the profile.
func (u *User) Validate() error {
	if u.ID == "" {
		return errors.New("user ID is required")
	}
	if !u.Role.Valid() {
		return errors.New("user role is invalid")
	}
	return nil
}

// Sanitized returns a copy safe to hand to API clients.
func (u User) Sanitized() User {
	u.Password = ""
	return u
}
