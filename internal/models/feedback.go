package models

import "time"

const (
	FeedbackOpen       = "open"
	FeedbackInProgress = "in_progress"
	FeedbackResolved   = "resolved"
	FeedbackClosed     = "closed"
)

var (
	FeedbackStatuses = []string{FeedbackOpen, FeedbackInProgress, FeedbackResolved, FeedbackClosed}
	FeedbackTypes    = []string{"complaint", "suggestion", "question", "bug_report"}
	StaffStatuses    = []string{"active", "on_leave", "inactive"}
)

// Feedback is submitted by a user; ParticipantID holds the user id and
// AdminID the staff member handling it.
type Feedback struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ParticipantID uint      `gorm:"index;not null" json:"participant_id"`
	AdminID       *uint     `gorm:"index" json:"admin_id"`
	FeedbackType  string    `gorm:"size:50;default:suggestion" json:"feedback_type"`
	Title         string    `gorm:"size:200" json:"title"`
	Description   string    `gorm:"type:text;not null" json:"description"`
	Status        string    `gorm:"size:20;index;default:open" json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Feedback) TableName() string { return "feedback" }

// Staff is shared by both APIs: corporate moderators and election staff.
type Staff struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           *uint     `gorm:"index" json:"user_id"`
	FullName         string    `gorm:"size:100;not null" json:"full_name"`
	Email            *string   `gorm:"size:100;uniqueIndex" json:"email"`
	Phone            string    `gorm:"size:20" json:"phone,omitempty"`
	DateOfBirth      Date      `json:"date_of_birth"`
	Address          string    `gorm:"size:200" json:"address"`
	Department       string    `gorm:"size:100" json:"department,omitempty"`
	Position         string    `gorm:"size:100" json:"position,omitempty"`
	Status           string    `gorm:"size:20;default:active" json:"status"`
	RegistrationDate time.Time `json:"registration_date"`
	CreatedAt        time.Time `json:"created_at"`
}

func (Staff) TableName() string { return "staff" }
