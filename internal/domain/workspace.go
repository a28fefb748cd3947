package domain

import "time"

// Workspace is the tenant boundary; every entity belongs to exactly one.
type Workspace struct {
	ID        string
	Name      string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
