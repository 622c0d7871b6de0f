// Package models defines the persisted entities of the file-sharing service.
package models

import "time"

// Role is the tier assigned to an identity. Standard-tier owners are subject
// to the per-owner file quota.
type Role string

const (
	RoleStandard Role = "standard"
	RolePremium  Role = "premium"
)

// File is the metadata record for one stored object. ID is generated at
// upload start, never changes, and doubles as the object-store key.
// An empty Password means the record carries no password gate.
type File struct {
	ID          string
	Owner       string
	Name        string
	Password    string
	Length      int64
	UploadDate  time.Time
	IsPrivate   bool
	Description string
	Tags        []string
	Categories  []string
}

// Category groups public files for discovery.
type Category struct {
	Name        string
	Description string
}
