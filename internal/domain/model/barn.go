//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const maxBarnNameLen = 255

// Barn is a physical facility that scopes horse and record data.
type Barn struct {
	ID        string    `json:"id"                 db:"id"`
	Name      string    `json:"name"               db:"name"`
	Location  string    `json:"location,omitempty" db:"location"`
	CreatedAt time.Time `json:"created_at"         db:"created_at"`
}

// UpsertBarnRequest creates a barn or renames/relocates an existing one.
type UpsertBarnRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

// Validate validates UpsertBarnRequest.
func (r *UpsertBarnRequest) Validate() error {
	r.ID = strings.TrimSpace(r.ID)
	if r.ID == "" {
		return errors.New("id is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return errors.New("name is required and cannot be empty")
	}
	if utf8.RuneCountInString(r.Name) > maxBarnNameLen {
		return errors.New("name cannot exceed 255 characters")
	}
	r.Location = strings.TrimSpace(r.Location)
	return nil
}
