package models

import "time"

const (
	ElectionPlanned   = "planned"
	ElectionOngoing   = "ongoing"
	ElectionCompleted = "completed"
)

var (
	ElectionStatuses  = []string{ElectionPlanned, ElectionOngoing, ElectionCompleted}
	PartyStatuses     = []string{"active", "suspended", "liquidated"}
	ComplaintStatuses = []string{"new", "in_review", "resolved", "rejected"}
)

type Election struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	StartDate    Date      `gorm:"not null" json:"start_date"`
	EndDate      Date      `gorm:"not null" json:"end_date"`
	ElectionType string    `gorm:"not null" json:"election_type"`
	Status       string    `gorm:"index;default:planned" json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

type Voter struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	FullName         string    `gorm:"not null" json:"full_name"`
	DateOfBirth      Date      `gorm:"not null" json:"date_of_birth"`
	Address          string    `gorm:"not null" json:"address"`
	Email            string    `gorm:"uniqueIndex;not null" json:"email"`
	Phone            string    `json:"phone,omitempty"`
	RegistrationDate time.Time `json:"registration_date"`
}

type Party struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Name             string    `gorm:"uniqueIndex;not null" json:"name"`
	RegistrationDate Date      `gorm:"not null" json:"registration_date"`
	Status           string    `gorm:"default:active" json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

// Ballot records that a voter took part in an election, and where.
type Ballot struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	VoterID       uint      `gorm:"not null;uniqueIndex:idx_ballot_voter_election" json:"voter_id"`
	ElectionID    uint      `gorm:"not null;uniqueIndex:idx_ballot_voter_election;index" json:"election_id"`
	VotingTime    time.Time `json:"voting_time"`
	VotingPlace   string    `gorm:"not null" json:"voting_place"`
	VotingAddress string    `gorm:"not null" json:"voting_address"`
}

func (Ballot) TableName() string { return "election_votes" }

type Complaint struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	VoterID       uint      `gorm:"index;not null" json:"voter_id"`
	StaffID       *uint     `gorm:"index" json:"staff_id"`
	ComplaintType string    `gorm:"not null" json:"complaint_type"`
	Description   string    `gorm:"type:text;not null" json:"description"`
	ComplaintDate time.Time `json:"complaint_date"`
	Status        string    `gorm:"index;default:new" json:"status"`
}

type VotingResult struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ElectionID    uint      `gorm:"index;not null" json:"election_id"`
	PartyID       uint      `gorm:"index;not null" json:"party_id"`
	VoteCount     int       `gorm:"default:0" json:"vote_count"`
	Percentage    float64   `gorm:"default:0" json:"percentage"`
	ProcessedDate time.Time `json:"processed_date"`
}

// Turnout is computed, not stored.
type Turnout struct {
	ElectionID       uint    `json:"election_id"`
	Ballots          int64   `json:"ballots"`
	RegisteredVoters int64   `json:"registered_voters"`
	TurnoutPercent   float64 `json:"turnout_percent"`
}

// All lists every table for AutoMigrate, parents first.
func All() []any {
	return []any{
		&Role{}, &User{},
		&Poll{}, &PollOption{}, &Team{}, &Participant{}, &Vote{}, &Result{},
		&Staff{}, &Feedback{},
		&Election{}, &Voter{}, &Party{}, &Ballot{}, &Complaint{}, &VotingResult{},
	}
}
