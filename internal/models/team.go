package models

import "time"

type Team struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Name             string    `gorm:"size:100;not null" json:"name"`
	Description      string    `gorm:"type:text" json:"description"`
	Status           string    `gorm:"size:20;default:active" json:"status"`
	RegistrationDate time.Time `json:"registration_date"`
	CreatedAt        time.Time `json:"created_at"`
}

// TeamWithMembers is returned by GET /teams/:id/with-members.
type TeamWithMembers struct {
	Team
	Members []Participant `json:"members"`
}

// Participant is the voting identity of a user in the corporate API.
type Participant struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           *uint      `gorm:"uniqueIndex" json:"user_id"`
	TeamID           *uint      `gorm:"index" json:"team_id"`
	FullName         string     `gorm:"size:100;not null" json:"full_name"`
	Email            string     `gorm:"size:100" json:"email,omitempty"`
	Phone            string     `gorm:"size:20" json:"phone,omitempty"`
	BirthDate        *time.Time `json:"birth_date,omitempty"`
	Address          string     `gorm:"size:200" json:"address,omitempty"`
	RegistrationDate time.Time  `json:"registration_date"`
	Status           string     `gorm:"size:20;default:active" json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
}
