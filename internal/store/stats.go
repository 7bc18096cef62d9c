package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/vesaa/votedesk/internal/models"
)

// CorporateStats feeds the corporate admin dashboard.
type CorporateStats struct {
	TotalUsers        int64            `json:"total_users"`
	TotalPolls        int64            `json:"total_polls"`
	PollsByStatus     map[string]int64 `json:"polls_by_status"`
	TotalTeams        int64            `json:"total_teams"`
	TotalParticipants int64            `json:"total_participants"`
	TotalVotes        int64            `json:"total_votes"`
	OpenFeedback      int64            `json:"open_feedback"`
}

// ElectionStats feeds the election admin dashboard.
type ElectionStats struct {
	TotalElections    int64            `json:"total_elections"`
	ElectionsByStatus map[string]int64 `json:"elections_by_status"`
	TotalVoters       int64            `json:"total_voters"`
	TotalParties      int64            `json:"total_parties"`
	TotalStaff        int64            `json:"total_staff"`
	TotalBallots      int64            `json:"total_ballots"`
	OpenComplaints    int64            `json:"open_complaints"`
}

type counter struct {
	db  *gorm.DB
	err error
}

// count runs one COUNT query; after the first failure it is a no-op.
func (c *counter) count(dst *int64, model any, where ...any) {
	if c.err != nil {
		return
	}
	q := c.db.Model(model)
	if len(where) > 0 {
		q = q.Where(where[0], where[1:]...)
	}
	if err := q.Count(dst).Error; err != nil {
		c.err = fmt.Errorf("counting %T: %w", model, err)
	}
}

func (c *counter) byStatus(model any, statuses []string) map[string]int64 {
	out := make(map[string]int64, len(statuses))
	for _, st := range statuses {
		var n int64
		c.count(&n, model, "status = ?", st)
		out[st] = n
	}
	return out
}

func (s *Store) CorporateStats(ctx context.Context) (*CorporateStats, error) {
	c := &counter{db: s.db.WithContext(ctx)}
	st := &CorporateStats{}
	c.count(&st.TotalUsers, &models.User{})
	c.count(&st.TotalPolls, &models.Poll{})
	st.PollsByStatus = c.byStatus(&models.Poll{}, models.PollStatuses)
	c.count(&st.TotalTeams, &models.Team{})
	c.count(&st.TotalParticipants, &models.Participant{})
	c.count(&st.TotalVotes, &models.Vote{})
	c.count(&st.OpenFeedback, &models.Feedback{}, "status IN ?", []string{models.FeedbackOpen, models.FeedbackInProgress})
	if c.err != nil {
		return nil, c.err
	}
	return st, nil
}

func (s *Store) ElectionStats(ctx context.Context) (*ElectionStats, error) {
	c := &counter{db: s.db.WithContext(ctx)}
	st := &ElectionStats{}
	c.count(&st.TotalElections, &models.Election{})
	st.ElectionsByStatus = c.byStatus(&models.Election{}, models.ElectionStatuses)
	c.count(&st.TotalVoters, &models.Voter{})
	c.count(&st.TotalParties, &models.Party{})
	c.count(&st.TotalStaff, &models.Staff{})
	c.count(&st.TotalBallots, &models.Ballot{})
	c.count(&st.OpenComplaints, &models.Complaint{}, "status IN ?", []string{"new", "in_review"})
	if c.err != nil {
		return nil, c.err
	}
	return st, nil
}
