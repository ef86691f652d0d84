package domain

import "time"

// District is read-only reference data describing a jurisdiction. The
// workflow core only compares identifiers; the full record serves lookups.
type District struct {
	ID        string
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Skill is a lookup-table entry describing a technician specialization.
type Skill struct {
	ID        string
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
