// Package models defines GORM data models for votedesk.
package models

import "time"

// Role names seeded at bootstrap. The corporate API uses admin, moderator and
// participant; the election API uses admin, staff, party and voter.
const (
	RoleAdmin       = "admin"
	RoleModerator   = "moderator"
	RoleParticipant = "participant"
	RoleStaff       = "staff"
	RoleParty       = "party"
	RoleVoter       = "voter"
)

// DefaultRoles lists every role with its description, in seeding order.
var DefaultRoles = []Role{
	{Name: RoleAdmin, Description: "System administrator with full access"},
	{Name: RoleModerator, Description: "Content moderator with limited admin access"},
	{Name: RoleParticipant, Description: "Regular user who can vote and submit feedback"},
	{Name: RoleStaff, Description: "Election staff handling complaints"},
	{Name: RoleParty, Description: "Registered political party"},
	{Name: RoleVoter, Description: "Registered voter"},
}

type Role struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"size:200" json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// User is an account that can log in to either API. VoterID, PartyID and
// StaffID link an account to its election-side profile.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Username       string    `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Email          string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	HashedPassword string    `gorm:"size:255;not null" json:"-"`
	FullName       string    `gorm:"size:100" json:"full_name,omitempty"`
	IsActive       bool      `gorm:"not null;default:true" json:"is_active"`
	IsSuperuser    bool      `gorm:"not null;default:false" json:"is_superuser"`
	RoleID         uint      `gorm:"index" json:"role_id"`
	Role           *Role     `gorm:"foreignKey:RoleID" json:"-"`
	VoterID        *uint     `gorm:"index" json:"voter_id,omitempty"`
	PartyID        *uint     `gorm:"index" json:"party_id,omitempty"`
	StaffID        *uint     `gorm:"index" json:"staff_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// RoleName is empty when the role was not preloaded.
func (u *User) RoleName() string {
	if u.Role == nil {
		return ""
	}
	return u.Role.Name
}

// IsAdmin: superusers and the admin role.
func (u *User) IsAdmin() bool {
	return u.IsSuperuser || u.RoleName() == RoleAdmin
}

// IsStaff covers everyone allowed to moderate content in either API.
func (u *User) IsStaff() bool {
	if u.IsAdmin() {
		return true
	}
	switch u.RoleName() {
	case RoleModerator, RoleStaff:
		return true
	}
	return false
}

// UserResponse is the public view of a User.
type UserResponse struct {
	User
	RoleName string `json:"role_name,omitempty"`
}

func (u *User) Response() UserResponse {
	return UserResponse{User: *u, RoleName: u.RoleName()}
}
