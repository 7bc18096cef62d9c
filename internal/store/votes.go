package store

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vesaa/votedesk/internal/models"
	"github.com/vesaa/votedesk/internal/tally"
)

type VoteInput struct {
	PollID        uint   `json:"poll_id" binding:"required"`
	OptionID      uint   `json:"option_id" binding:"required"`
	ParticipantID *uint  `json:"participant_id"`
	Location      string `json:"location" binding:"max=100"`
}

// VoteFilter narrows ListVotes. Zero values match everything.
type VoteFilter struct {
	PollID        uint
	ParticipantID uint
}

func (s *Store) ListVotes(ctx context.Context, f VoteFilter, page Page) ([]models.Vote, error) {
	db := s.db.WithContext(ctx)
	if f.PollID != 0 {
		db = db.Where("poll_id = ?", f.PollID)
	}
	if f.ParticipantID != 0 {
		db = db.Where("participant_id = ?", f.ParticipantID)
	}
	var votes []models.Vote
	if err := page.apply(db).Order("id").Find(&votes).Error; err != nil {
		return nil, fmt.Errorf("listing votes: %w", err)
	}
	return votes, nil
}

func (s *Store) GetVote(ctx context.Context, id uint) (*models.Vote, error) {
	return first[models.Vote](s.db.WithContext(ctx), "Vote", id)
}

// CastVote records participantID's choice. The checks run in a fixed order
// so the caller always sees the first reason a vote is refused.
func (s *Store) CastVote(ctx context.Context, participantID uint, in VoteInput) (*models.Vote, error) {
	now := s.now()
	vote := &models.Vote{
		PollID:        in.PollID,
		ParticipantID: participantID,
		OptionID:      in.OptionID,
		VoteTime:      now,
		VoteMonth:     now.Format("2006-01"),
		Location:      in.Location,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		poll, err := first[models.Poll](tx, "Poll", in.PollID)
		if err != nil {
			return err
		}
		if poll.Status != models.PollActive {
			return invalid("Poll is not active")
		}
		if !poll.OpenAt(now) {
			return invalid("Poll is not open for voting")
		}
		if ok, err := exists(tx, &models.PollOption{}, "id = ? AND poll_id = ?", in.OptionID, in.PollID); err != nil {
			return err
		} else if !ok {
			return &Problem{Kind: ErrNotFound, Detail: "Invalid poll option"}
		}
		if ok, err := exists(tx, &models.Participant{}, "id = ?", participantID); err != nil {
			return err
		} else if !ok {
			return notFound("Participant")
		}
		if voted, err := exists(tx, &models.Vote{}, "poll_id = ? AND participant_id = ?", in.PollID, participantID); err != nil {
			return err
		} else if voted {
			return invalid("Already voted in this poll")
		}
		if err := tx.Create(vote).Error; err != nil {
			if isDuplicate(err) {
				return invalid("Already voted in this poll")
			}
			return fmt.Errorf("saving vote: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("vote cast", zap.Uint("poll_id", vote.PollID), zap.Uint("participant_id", participantID))
	return vote, nil
}

func (s *Store) DeleteVote(ctx context.Context, id uint) error {
	db := s.db.WithContext(ctx)
	if _, err := first[models.Vote](db, "Vote", id); err != nil {
		return err
	}
	return db.Delete(&models.Vote{}, id).Error
}

// ── Tallies ──────────────────────────────────────────────────────────────────

// PollTally is the live count for one poll.
type PollTally struct {
	PollID   uint   `json:"poll_id"`
	PollName string `json:"poll_name"`
	tally.Summary
}

func (s *Store) tallyInputs(tx *gorm.DB, pollID uint) (*models.Poll, []tally.Option, []tally.Vote, error) {
	poll, err := first[models.Poll](tx.Preload("Options"), "Poll", pollID)
	if err != nil {
		return nil, nil, nil, err
	}
	opts := make([]tally.Option, len(poll.Options))
	for i, o := range poll.Options {
		opts[i] = tally.Option{ID: o.ID, Name: o.Name, Order: o.Order}
	}
	var votes []tally.Vote
	if err := tx.Model(&models.Vote{}).Select("option_id, participant_id").
		Where("poll_id = ?", pollID).Scan(&votes).Error; err != nil {
		return nil, nil, nil, fmt.Errorf("loading votes: %w", err)
	}
	return poll, opts, votes, nil
}

// PollTally counts a poll's votes now, without touching stored results.
func (s *Store) PollTally(ctx context.Context, pollID uint) (*PollTally, error) {
	poll, opts, votes, err := s.tallyInputs(s.db.WithContext(ctx), pollID)
	if err != nil {
		return nil, err
	}
	return &PollTally{PollID: poll.ID, PollName: poll.Name, Summary: tally.Count(opts, votes)}, nil
}

// ProcessResults replaces the poll's stored results with a fresh tally: one
// row per option overall, plus one per (team, option) for team members.
func (s *Store) ProcessResults(ctx context.Context, pollID uint) ([]models.Result, error) {
	var rows []models.Result
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, opts, votes, err := s.tallyInputs(tx, pollID)
		if err != nil {
			return err
		}

		var members []models.Participant
		if err := tx.Select("id, team_id").Where("team_id IS NOT NULL").Find(&members).Error; err != nil {
			return fmt.Errorf("loading teams: %w", err)
		}
		teamOf := make(map[uint]uint, len(members))
		for _, m := range members {
			teamOf[m.ID] = *m.TeamID
		}

		processed := s.now()
		rows = append(rows, resultRows(pollID, nil, tally.Count(opts, votes), processed)...)
		byTeam := tally.ByTeam(opts, votes, teamOf)
		for _, team := range slices.Sorted(maps.Keys(byTeam)) {
			id := team
			rows = append(rows, resultRows(pollID, &id, byTeam[team], processed)...)
		}

		if err := tx.Where("poll_id = ?", pollID).Delete(&models.Result{}).Error; err != nil {
			return fmt.Errorf("clearing results: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("results processed", zap.Uint("poll_id", pollID), zap.Int("rows", len(rows)))
	return rows, nil
}

func resultRows(pollID uint, teamID *uint, sum tally.Summary, at time.Time) []models.Result {
	out := make([]models.Result, 0, len(sum.Rows))
	for _, r := range sum.Rows {
		opt := r.OptionID
		out = append(out, models.Result{
			PollID:      pollID,
			TeamID:      teamID,
			OptionID:    &opt,
			VoteCount:   r.VoteCount,
			Percentage:  r.Percentage,
			ProcessedAt: at,
		})
	}
	return out
}

// StoredResults returns the materialised results of a poll, overall rows
// first.
func (s *Store) StoredResults(ctx context.Context, pollID uint) ([]models.Result, error) {
	db := s.db.WithContext(ctx)
	if _, err := first[models.Poll](db, "Poll", pollID); err != nil {
		return nil, err
	}
	var rows []models.Result
	if err := db.Where("poll_id = ?", pollID).Order("team_id IS NOT NULL, team_id, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("loading results: %w", err)
	}
	return rows, nil
}
