package models

import "time"

// Poll statuses. Votes are only accepted while a poll is active.
const (
	PollDraft     = "draft"
	PollActive    = "active"
	PollCompleted = "completed"
	PollCancelled = "cancelled"
)

var PollStatuses = []string{PollDraft, PollActive, PollCompleted, PollCancelled}

type Poll struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"size:200;not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	PollType    string       `gorm:"size:50;default:corporate_survey" json:"poll_type"`
	Status      string       `gorm:"size:20;index;default:draft" json:"status"`
	StartDate   *time.Time   `json:"start_date"`
	EndDate     *time.Time   `json:"end_date"`
	Options     []PollOption `gorm:"foreignKey:PollID" json:"options,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// OpenAt reports whether t falls inside the poll's optional date window.
func (p *Poll) OpenAt(t time.Time) bool {
	if p.StartDate != nil && t.Before(*p.StartDate) {
		return false
	}
	if p.EndDate != nil && t.After(*p.EndDate) {
		return false
	}
	return true
}

type PollOption struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PollID      uint      `gorm:"index;not null" json:"poll_id"`
	Name        string    `gorm:"size:200;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Order       int       `gorm:"column:order;default:0" json:"order"`
	CreatedAt   time.Time `json:"created_at"`
}

// Vote is one participant's choice in one poll.
type Vote struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	PollID        uint      `gorm:"not null;uniqueIndex:idx_vote_poll_participant" json:"poll_id"`
	ParticipantID uint      `gorm:"not null;uniqueIndex:idx_vote_poll_participant;index" json:"participant_id"`
	OptionID      uint      `gorm:"not null;index" json:"option_id"`
	VoteTime      time.Time `json:"vote_time"`
	VoteMonth     string    `gorm:"size:7" json:"vote_month"` // YYYY-MM
	Location      string    `gorm:"size:100" json:"location,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Result is a materialised tally row. TeamID nil is the poll-wide figure.
type Result struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PollID      uint      `gorm:"index;not null" json:"poll_id"`
	TeamID      *uint     `gorm:"index" json:"team_id"`
	OptionID    *uint     `json:"option_id"`
	VoteCount   int       `gorm:"default:0" json:"vote_count"`
	Percentage  float64   `gorm:"default:0" json:"percentage"`
	ProcessedAt time.Time `json:"processed_at"`
	CreatedAt   time.Time `json:"created_at"`
}
