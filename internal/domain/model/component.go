//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxPartNumberLen  = 64
	maxPartNameLen    = 255
	maxDescriptionLen = 2000
	maxVersionLen     = 32
)

// ComponentStatus tracks the lifecycle stage of a component record.
type ComponentStatus string

const (
	ComponentStatusDraft    ComponentStatus = "draft"
	ComponentStatusReleased ComponentStatus = "released"
	ComponentStatusObsolete ComponentStatus = "obsolete"
)

// Valid reports whether the component status is supported.
func (s ComponentStatus) Valid() bool {
	switch s {
	case ComponentStatusDraft, ComponentStatusReleased, ComponentStatusObsolete:
		return true
	default:
		return false
	}
}

// ParseComponentStatus normalizes a status string and reports whether it is supported.
func ParseComponentStatus(value string) (ComponentStatus, bool) {
	status := ComponentStatus(strings.ToLower(strings.TrimSpace(value)))
	if status.Valid() {
		return status, true
	}
	return "", false
}

// Component represents a CAD component record keyed by part number.
type Component struct {
	PartNumber  string          `json:"part_number"           db:"part_number"`
	PartName    string          `json:"part_name"             db:"part_name"`
	Description *string         `json:"description,omitempty" db:"description"`
	Status      ComponentStatus `json:"status"                db:"status"`
	CreatedAt   time.Time       `json:"created_at"            db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"            db:"updated_at"`
}

// ComponentVersion is an immutable revision of a component, optionally
// pointing at an uploaded drawing in object storage.
type ComponentVersion struct {
	ID            string    `json:"id"                  db:"id"`
	PartNumber    string    `json:"part_number"         db:"part_number"`
	VersionNumber string    `json:"version_number"      db:"version_number"`
	FilePath      *string   `json:"file_path,omitempty" db:"file_path"`
	Cost          *float64  `json:"cost,omitempty"      db:"cost"`
	CreatedBy     string    `json:"created_by"          db:"created_by"`
	CreatedAt     time.Time `json:"created_at"          db:"created_at"`
}

// ComponentWithLatestVersion is the read model joining each component with
// its most recent version, backed by a SQL view.
type ComponentWithLatestVersion struct {
	PartNumber    string          `json:"part_number"           db:"part_number"`
	PartName      string          `json:"part_name"             db:"part_name"`
	Description   *string         `json:"description,omitempty" db:"description"`
	Status        ComponentStatus `json:"status"                db:"status"`
	VersionNumber string          `json:"version_number"        db:"version_number"`
	FilePath      *string         `json:"file_path,omitempty"   db:"file_path"`
	Cost          *float64        `json:"cost,omitempty"        db:"cost"`
	CreatedBy     string          `json:"created_by"            db:"created_by"`
	CreatedAt     time.Time       `json:"created_at"            db:"created_at"`
}

// ComponentsListOptions controls paging and filtering for the component
// library listing.
// Notes:
// - Sort supports: "part_number", "part_name", "created_at" (case-insensitive).
// - Dir supports: "asc", "desc" (case-insensitive); values are normalized internally.
// - Q matches part_number or part_name via ILIKE substring.
// - Status matches exactly.
type ComponentsListOptions struct {
	Limit  int
	Offset int
	Q      *string
	Status *ComponentStatus
	Sort   string
	Dir    string
}

// SubmitComponentRequest represents parameters to record a component and a
// new immutable version in one submission. CreatedBy is resolved from the
// submitting session, never from the form.
type SubmitComponentRequest struct {
	PartNumber    string          `json:"part_number"`
	PartName      string          `json:"part_name"`
	Description   *string         `json:"description,omitempty"`
	Status        ComponentStatus `json:"status"`
	VersionNumber string          `json:"version_number"`
	Cost          *float64        `json:"cost,omitempty"`
	CreatedBy     string          `json:"-"`
}

// PartNumberPattern constrains part numbers to a letter or digit followed by
// letters, digits, '.', '_' and '-'. Form-level validators share it.
var PartNumberPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Validate validates SubmitComponentRequest.
func (r *SubmitComponentRequest) Validate() error {
	r.PartNumber = strings.TrimSpace(r.PartNumber)
	r.PartName = strings.TrimSpace(r.PartName)
	r.VersionNumber = strings.TrimSpace(r.VersionNumber)

	if r.PartNumber == "" {
		return errors.New("part_number is required")
	}
	if utf8.RuneCountInString(r.PartNumber) > maxPartNumberLen {
		return errors.New("part_number cannot exceed 64 characters")
	}
	if !PartNumberPattern.MatchString(r.PartNumber) {
		return errors.New("part_number may only contain letters, digits, '.', '_' and '-'")
	}
	if r.PartName == "" {
		return errors.New("part_name is required")
	}
	if utf8.RuneCountInString(r.PartName) > maxPartNameLen {
		return errors.New("part_name cannot exceed 255 characters")
	}
	if r.Description != nil && utf8.RuneCountInString(*r.Description) > maxDescriptionLen {
		return errors.New("description cannot exceed 2000 characters")
	}
	if !r.Status.Valid() {
		return errors.New("status must be one of draft, released, obsolete")
	}
	if r.VersionNumber == "" {
		return errors.New("version_number is required")
	}
	if utf8.RuneCountInString(r.VersionNumber) > maxVersionLen {
		return errors.New("version_number cannot exceed 32 characters")
	}
	if r.Cost != nil && *r.Cost < 0 {
		return errors.New("cost cannot be negative")
	}
	return nil
}
