//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const maxFullNameLen = 255

// User is the signed-in person as stored by the entity-access layer.
// CurrentBarnID is nil until the user picks an active barn.
type User struct {
	ID              string    `json:"id"                        db:"id"`
	FullName        string    `json:"full_name"                 db:"full_name"`
	Email           string    `json:"email,omitempty"           db:"email"`
	Role            string    `json:"role"                      db:"role"`
	CurrentBarnID   *string   `json:"current_barn_id"           db:"current_barn_id"`
	AssociatedBarns []string  `json:"associated_barns"          db:"associated_barns"`
	BarnSwitchSeq   int64     `json:"barn_switch_seq"           db:"barn_switch_seq"`
	CreatedAt       time.Time `json:"created_at"                db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"                db:"updated_at"`
}

// HasCurrentBarn reports whether the user has selected an active barn.
func (u *User) HasCurrentBarn() bool {
	return u != nil && u.CurrentBarnID != nil && *u.CurrentBarnID != ""
}

// CurrentBarn returns the active barn id or "" when none is selected.
func (u *User) CurrentBarn() string {
	if !u.HasCurrentBarn() {
		return ""
	}
	return *u.CurrentBarnID
}

// IsAssociatedWith reports whether barnID is in the user's associated barn set.
func (u *User) IsAssociatedWith(barnID string) bool {
	if u == nil {
		return false
	}
	for _, id := range u.AssociatedBarns {
		if id == barnID {
			return true
		}
	}
	return false
}

// Initial returns the first character of the full name, or "U" when the name is empty.
func (u *User) Initial() string {
	if u == nil {
		return "U"
	}
	name := strings.TrimSpace(u.FullName)
	r, size := utf8.DecodeRuneInString(name)
	if size == 0 || r == utf8.RuneError {
		return "U"
	}
	return string(r)
}

// DisplayName returns the full name, or "User" when the name is empty.
func (u *User) DisplayName() string {
	if u == nil || strings.TrimSpace(u.FullName) == "" {
		return "User"
	}
	return strings.TrimSpace(u.FullName)
}

// DisplayRole returns the role, or "Loading..." while it is unknown.
func (u *User) DisplayRole() string {
	if u == nil || strings.TrimSpace(u.Role) == "" {
		return "Loading..."
	}
	return u.Role
}

// UpsertUserRequest provisions or refreshes a user after sign-in.
// Barn fields are never touched by an upsert.
type UpsertUserRequest struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Validate validates UpsertUserRequest.
func (r *UpsertUserRequest) Validate() error {
	r.ID = strings.TrimSpace(r.ID)
	if r.ID == "" {
		return errors.New("id is required")
	}
	r.FullName = strings.TrimSpace(r.FullName)
	if utf8.RuneCountInString(r.FullName) > maxFullNameLen {
		return errors.New("full_name cannot exceed 255 characters")
	}
	r.Email = strings.TrimSpace(r.Email)
	r.Role = strings.TrimSpace(r.Role)
	return nil
}

// UpdateCurrentUserRequest is the partial update accepted for the signed-in user.
// Seq carries the barn_switch_seq the client last saw; a mismatch means a newer switch already won.
type UpdateCurrentUserRequest struct {
	CurrentBarnID *string `json:"current_barn_id"`
	Seq           *int64  `json:"seq,omitempty"`
}

// Validate validates UpdateCurrentUserRequest.
func (r *UpdateCurrentUserRequest) Validate() error {
	if r.CurrentBarnID == nil {
		return errors.New("current_barn_id is required")
	}
	id := strings.TrimSpace(*r.CurrentBarnID)
	if id == "" {
		return errors.New("current_barn_id cannot be empty")
	}
	r.CurrentBarnID = &id
	if r.Seq != nil && *r.Seq < 0 {
		return errors.New("seq must be >= 0")
	}
	return nil
}
