package models

import (
	"strings"
	"time"
)

// Contact is an address book entry. Every contact belongs to exactly one
// account (OwnerID) and is invisible to all others.
type Contact struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Favorite  bool      `json:"favorite"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ContactFields are the user-editable fields of a contact. A nil Favorite
// leaves the current flag as it is.
type ContactFields struct {
	Name     string
	Email    string
	Phone    string
	Favorite *bool
}

// Normalize trims every field and lower-cases the email.
func (f ContactFields) Normalize() ContactFields {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = NormalizeEmail(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
	return f
}
