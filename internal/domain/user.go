package domain

import "time"

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is an account in any role. DistrictID is set for district-scoped
// roles; Branch for head-office roles. Skill is informational for
// technicians and references the skills lookup table.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	DistrictID   *string
	Branch       *string
	Skill        *string
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AsActor derives the capability descriptor handed to the workflow core.
func (u *User) AsActor() Actor {
	actor := Actor{UserID: u.ID, Role: u.Role}
	if u.DistrictID != nil {
		actor.DistrictID = *u.DistrictID
	}
	if u.Branch != nil {
		actor.Branch = *u.Branch
	}
	return actor
}
