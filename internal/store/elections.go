package store

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vesaa/votedesk/internal/models"
	"github.com/vesaa/votedesk/internal/tally"
)

type ElectionInput struct {
	Name         string      `json:"name" binding:"required"`
	StartDate    models.Date `json:"start_date"`
	EndDate      models.Date `json:"end_date"`
	ElectionType string      `json:"election_type" binding:"required"`
	Status       string      `json:"status"`
}

type ElectionUpdate struct {
	Name         *string      `json:"name" binding:"omitempty,min=1"`
	StartDate    *models.Date `json:"start_date"`
	EndDate      *models.Date `json:"end_date"`
	ElectionType *string      `json:"election_type" binding:"omitempty,min=1"`
	Status       *string      `json:"status"`
}

func checkDates(start, end models.Date) error {
	if start.IsZero() {
		return invalid("start_date is required")
	}
	if end.IsZero() {
		return invalid("end_date is required")
	}
	if end.Before(start) {
		return invalid("end_date must not be before start_date")
	}
	return nil
}

func (s *Store) ListElections(ctx context.Context, status string, page Page) ([]models.Election, error) {
	db := s.db.WithContext(ctx)
	if status != "" {
		if err := checkStatus("status", status, models.ElectionStatuses); err != nil {
			return nil, err
		}
		db = db.Where("status = ?", status)
	}
	var out []models.Election
	if err := page.apply(db).Order("start_date DESC, id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("listing elections: %w", err)
	}
	return out, nil
}

func (s *Store) GetElection(ctx context.Context, id uint) (*models.Election, error) {
	return first[models.Election](s.db.WithContext(ctx), "Election", id)
}

func (s *Store) CreateElection(ctx context.Context, in ElectionInput) (*models.Election, error) {
	e := &models.Election{
		Name:         strings.TrimSpace(in.Name),
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		ElectionType: strings.TrimSpace(in.ElectionType),
		Status:       in.Status,
	}
	if e.Name == "" || e.ElectionType == "" {
		return nil, invalid("name and election_type are required")
	}
	if e.Status == "" {
		e.Status = models.ElectionPlanned
	}
	if err := checkStatus("status", e.Status, models.ElectionStatuses); err != nil {
		return nil, err
	}
	if err := checkDates(e.StartDate, e.EndDate); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(e).Error; err != nil {
		return nil, fmt.Errorf("creating election: %w", err)
	}
	s.log.Info("election created", zap.Uint("election_id", e.ID))
	return e, nil
}

func (s *Store) UpdateElection(ctx context.Context, id uint, in ElectionUpdate) (*models.Election, error) {
	e, err := s.GetElection(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		e.Name = strings.TrimSpace(*in.Name)
	}
	if in.ElectionType != nil {
		e.ElectionType = strings.TrimSpace(*in.ElectionType)
	}
	if in.StartDate != nil {
		e.StartDate = *in.StartDate
	}
	if in.EndDate != nil {
		e.EndDate = *in.EndDate
	}
	if in.Status != nil {
		if err := checkStatus("status", *in.Status, models.ElectionStatuses); err != nil {
			return nil, err
		}
		e.Status = *in.Status
	}
	if e.Name == "" || e.ElectionType == "" {
		return nil, invalid("name and election_type must not be empty")
	}
	if err := checkDates(e.StartDate, e.EndDate); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(e).Error; err != nil {
		return nil, fmt.Errorf("updating election: %w", err)
	}
	return e, nil
}

// DeleteElection removes an election with its ballots and results.
func (s *Store) DeleteElection(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := first[models.Election](tx, "Election", id); err != nil {
			return err
		}
		if err := tx.Where("election_id = ?", id).Delete(&models.Ballot{}).Error; err != nil {
			return fmt.Errorf("deleting ballots: %w", err)
		}
		if err := tx.Where("election_id = ?", id).Delete(&models.VotingResult{}).Error; err != nil {
			return fmt.Errorf("deleting results: %w", err)
		}
		return tx.Delete(&models.Election{}, id).Error
	})
	if err != nil {
		return err
	}
	s.log.Info("election deleted", zap.Uint("election_id", id))
	return nil
}

// ElectionTurnout compares ballots cast with the number of registered voters.
func (s *Store) ElectionTurnout(ctx context.Context, id uint) (*models.Turnout, error) {
	db := s.db.WithContext(ctx)
	if _, err := first[models.Election](db, "Election", id); err != nil {
		return nil, err
	}
	t := &models.Turnout{ElectionID: id}
	if err := db.Model(&models.Ballot{}).Where("election_id = ?", id).Count(&t.Ballots).Error; err != nil {
		return nil, fmt.Errorf("counting ballots: %w", err)
	}
	if err := db.Model(&models.Voter{}).Count(&t.RegisteredVoters).Error; err != nil {
		return nil, fmt.Errorf("counting voters: %w", err)
	}
	t.TurnoutPercent = tally.Percent(int(t.Ballots), int(t.RegisteredVoters))
	return t, nil
}

// ── Ballots ──────────────────────────────────────────────────────────────────

type BallotInput struct {
	VoterID       uint   `json:"voter_id" binding:"required"`
	ElectionID    uint   `json:"election_id" binding:"required"`
	VotingPlace   string `json:"voting_place" binding:"required"`
	VotingAddress string `json:"voting_address" binding:"required"`
}

func (s *Store) ListBallots(ctx context.Context, electionID uint, page Page) ([]models.Ballot, error) {
	db := s.db.WithContext(ctx)
	if electionID != 0 {
		db = db.Where("election_id = ?", electionID)
	}
	var out []models.Ballot
	if err := page.apply(db).Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("listing ballots: %w", err)
	}
	return out, nil
}

func (s *Store) GetBallot(ctx context.Context, id uint) (*models.Ballot, error) {
	return first[models.Ballot](s.db.WithContext(ctx), "Vote", id)
}

// CastBallot records a voter's participation in an election.
func (s *Store) CastBallot(ctx context.Context, in BallotInput) (*models.Ballot, error) {
	b := &models.Ballot{
		VoterID:       in.VoterID,
		ElectionID:    in.ElectionID,
		VotingTime:    s.now(),
		VotingPlace:   strings.TrimSpace(in.VotingPlace),
		VotingAddress: strings.TrimSpace(in.VotingAddress),
	}
	if b.VotingPlace == "" || b.VotingAddress == "" {
		return nil, invalid("voting_place and voting_address are required")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := first[models.Election](tx, "Election", in.ElectionID)
		if err != nil {
			return err
		}
		if e.Status == models.ElectionCompleted {
			return invalid("Election is closed")
		}
		if _, err := first[models.Voter](tx, "Voter", in.VoterID); err != nil {
			return err
		}
		if voted, err := exists(tx, &models.Ballot{}, "voter_id = ? AND election_id = ?", in.VoterID, in.ElectionID); err != nil {
			return err
		} else if voted {
			return invalid("Voter has already voted in this election")
		}
		if err := tx.Create(b).Error; err != nil {
			if isDuplicate(err) {
				return invalid("Voter has already voted in this election")
			}
			return fmt.Errorf("saving ballot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("ballot cast", zap.Uint("election_id", b.ElectionID), zap.Uint("voter_id", b.VoterID))
	return b, nil
}

func (s *Store) DeleteBallot(ctx context.Context, id uint) error {
	db := s.db.WithContext(ctx)
	if _, err := first[models.Ballot](db, "Vote", id); err != nil {
		return err
	}
	return db.Delete(&models.Ballot{}, id).Error
}

// ── Voting results ───────────────────────────────────────────────────────────

type VotingResultInput struct {
	ElectionID uint    `json:"election_id" binding:"required"`
	PartyID    uint    `json:"party_id" binding:"required"`
	VoteCount  int     `json:"vote_count" binding:"min=0"`
	Percentage float64 `json:"percentage" binding:"min=0,max=100"`
}

type VotingResultUpdate struct {
	VoteCount  *int     `json:"vote_count" binding:"omitempty,min=0"`
	Percentage *float64 `json:"percentage" binding:"omitempty,min=0,max=100"`
}

func checkResultRange(count int, pct float64) error {
	if count < 0 {
		return invalid("vote_count must not be negative")
	}
	if pct < 0 || pct > 100 {
		return invalid("percentage must be between 0 and 100")
	}
	return nil
}

func (s *Store) ListVotingResults(ctx context.Context, electionID uint, page Page) ([]models.VotingResult, error) {
	db := s.db.WithContext(ctx)
	if electionID != 0 {
		db = db.Where("election_id = ?", electionID)
	}
	var out []models.VotingResult
	if err := page.apply(db).Order("election_id, vote_count DESC, id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("listing results: %w", err)
	}
	return out, nil
}

func (s *Store) GetVotingResult(ctx context.Context, id uint) (*models.VotingResult, error) {
	return first[models.VotingResult](s.db.WithContext(ctx), "Result", id)
}

func (s *Store) CreateVotingResult(ctx context.Context, in VotingResultInput) (*models.VotingResult, error) {
	if err := checkResultRange(in.VoteCount, in.Percentage); err != nil {
		return nil, err
	}
	r := &models.VotingResult{
		ElectionID:    in.ElectionID,
		PartyID:       in.PartyID,
		VoteCount:     in.VoteCount,
		Percentage:    in.Percentage,
		ProcessedDate: s.now(),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := first[models.Election](tx, "Election", in.ElectionID); err != nil {
			return err
		}
		if _, err := first[models.Party](tx, "Party", in.PartyID); err != nil {
			return err
		}
		return tx.Create(r).Error
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Store) UpdateVotingResult(ctx context.Context, id uint, in VotingResultUpdate) (*models.VotingResult, error) {
	r, err := s.GetVotingResult(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.VoteCount != nil {
		r.VoteCount = *in.VoteCount
	}
	if in.Percentage != nil {
		r.Percentage = *in.Percentage
	}
	if err := checkResultRange(r.VoteCount, r.Percentage); err != nil {
		return nil, err
	}
	r.ProcessedDate = s.now()
	if err := s.db.WithContext(ctx).Save(r).Error; err != nil {
		return nil, fmt.Errorf("updating result: %w", err)
	}
	return r, nil
}

func (s *Store) DeleteVotingResult(ctx context.Context, id uint) error {
	db := s.db.WithContext(ctx)
	if _, err := first[models.VotingResult](db, "Result", id); err != nil {
		return err
	}
	return db.Delete(&models.VotingResult{}, id).Error
}
