package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vesaa/votedesk/internal/models"
)

// optionOrder sorts options for display. "order" is a reserved word, so the
// column goes through clause.Column to get quoted.
var optionOrder = clause.OrderBy{Columns: []clause.OrderByColumn{
	{Column: clause.Column{Name: "order"}},
	{Column: clause.Column{Name: "id"}},
}}

func orderedOptions(db *gorm.DB) *gorm.DB { return db.Order(optionOrder) }

type OptionInput struct {
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description"`
	Order       *int   `json:"order"`
}

type PollInput struct {
	Name        string        `json:"name" binding:"required,max=200"`
	Description string        `json:"description"`
	PollType    string        `json:"poll_type" binding:"max=50"`
	Status      string        `json:"status"`
	StartDate   *string       `json:"start_date"`
	EndDate     *string       `json:"end_date"`
	Options     []OptionInput `json:"options" binding:"dive"`
}

// PollUpdate is a partial update; nil fields are left alone. An empty date
// string clears that date.
type PollUpdate struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=200"`
	Description *string `json:"description"`
	PollType    *string `json:"poll_type" binding:"omitempty,max=50"`
	Status      *string `json:"status"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
}

func checkWindow(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return invalid("end_date must not be before start_date")
	}
	return nil
}

// ListPolls returns polls newest first, optionally filtered by status.
func (s *Store) ListPolls(ctx context.Context, status string, page Page) ([]models.Poll, error) {
	db := s.db.WithContext(ctx).Preload("Options", orderedOptions)
	if status != "" {
		if err := checkStatus("status", status, models.PollStatuses); err != nil {
			return nil, err
		}
		db = db.Where("status = ?", status)
	}
	var polls []models.Poll
	if err := page.apply(db).Order("id DESC").Find(&polls).Error; err != nil {
		return nil, fmt.Errorf("listing polls: %w", err)
	}
	return polls, nil
}

// GetPoll loads a poll with its options in display order.
func (s *Store) GetPoll(ctx context.Context, id uint) (*models.Poll, error) {
	return first[models.Poll](s.db.WithContext(ctx).Preload("Options", orderedOptions), "Poll", id)
}

// CreatePoll inserts a poll and its inline options. Options without an
// explicit order take their position in the list.
func (s *Store) CreatePoll(ctx context.Context, in PollInput) (*models.Poll, error) {
	poll := &models.Poll{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		PollType:    in.PollType,
		Status:      in.Status,
	}
	if poll.Name == "" {
		return nil, invalid("name is required")
	}
	if poll.PollType == "" {
		poll.PollType = "corporate_survey"
	}
	if poll.Status == "" {
		poll.Status = models.PollDraft
	}
	if err := checkStatus("status", poll.Status, models.PollStatuses); err != nil {
		return nil, err
	}
	var err error
	if poll.StartDate, err = parseOptionalTime("start_date", in.StartDate); err != nil {
		return nil, err
	}
	if poll.EndDate, err = parseOptionalTime("end_date", in.EndDate); err != nil {
		return nil, err
	}
	if err := checkWindow(poll.StartDate, poll.EndDate); err != nil {
		return nil, err
	}
	for i, o := range in.Options {
		opt, err := newOption(o, i)
		if err != nil {
			return nil, err
		}
		poll.Options = append(poll.Options, *opt)
	}

	if err := s.db.WithContext(ctx).Create(poll).Error; err != nil {
		return nil, fmt.Errorf("creating poll: %w", err)
	}
	s.log.Info("poll created", zap.Uint("poll_id", poll.ID), zap.Int("options", len(poll.Options)))
	return s.GetPoll(ctx, poll.ID)
}

func newOption(in OptionInput, defaultOrder int) (*models.PollOption, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("option name is required")
	}
	opt := &models.PollOption{Name: name, Description: in.Description, Order: defaultOrder}
	if in.Order != nil {
		opt.Order = *in.Order
	}
	return opt, nil
}

// UpdatePoll applies a partial update.
func (s *Store) UpdatePoll(ctx context.Context, id uint, in PollUpdate) (*models.Poll, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		poll, err := first[models.Poll](tx, "Poll", id)
		if err != nil {
			return err
		}
		if in.Name != nil {
			poll.Name = strings.TrimSpace(*in.Name)
			if poll.Name == "" {
				return invalid("name must not be empty")
			}
		}
		if in.Description != nil {
			poll.Description = *in.Description
		}
		if in.PollType != nil {
			poll.PollType = *in.PollType
		}
		if in.Status != nil {
			if err := checkStatus("status", *in.Status, models.PollStatuses); err != nil {
				return err
			}
			poll.Status = *in.Status
		}
		if in.StartDate != nil {
			if poll.StartDate, err = parseOptionalTime("start_date", in.StartDate); err != nil {
				return err
			}
		}
		if in.EndDate != nil {
			if poll.EndDate, err = parseOptionalTime("end_date", in.EndDate); err != nil {
				return err
			}
		}
		if err := checkWindow(poll.StartDate, poll.EndDate); err != nil {
			return err
		}
		return tx.Save(poll).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetPoll(ctx, id)
}

// DeletePoll removes a poll with its options, votes and stored results.
func (s *Store) DeletePoll(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := first[models.Poll](tx, "Poll", id); err != nil {
			return err
		}
		for _, model := range []any{&models.Vote{}, &models.Result{}, &models.PollOption{}} {
			if err := tx.Where("poll_id = ?", id).Delete(model).Error; err != nil {
				return fmt.Errorf("deleting poll children: %w", err)
			}
		}
		return tx.Delete(&models.Poll{}, id).Error
	})
	if err != nil {
		return err
	}
	s.log.Info("poll deleted", zap.Uint("poll_id", id))
	return nil
}

// ── Options ──────────────────────────────────────────────────────────────────

func (s *Store) ListOptions(ctx context.Context, pollID uint) ([]models.PollOption, error) {
	db := s.db.WithContext(ctx)
	if _, err := first[models.Poll](db, "Poll", pollID); err != nil {
		return nil, err
	}
	var opts []models.PollOption
	if err := db.Where("poll_id = ?", pollID).Order(optionOrder).Find(&opts).Error; err != nil {
		return nil, fmt.Errorf("listing options: %w", err)
	}
	return opts, nil
}

// CreateOption appends an option. Without an explicit order it goes last.
func (s *Store) CreateOption(ctx context.Context, pollID uint, in OptionInput) (*models.PollOption, error) {
	var opt *models.PollOption
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := first[models.Poll](tx, "Poll", pollID); err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&models.PollOption{}).Where("poll_id = ?", pollID).Count(&n).Error; err != nil {
			return err
		}
		var err error
		if opt, err = newOption(in, int(n)); err != nil {
			return err
		}
		opt.PollID = pollID
		return tx.Create(opt).Error
	})
	if err != nil {
		return nil, err
	}
	return opt, nil
}

// DeleteOption removes an option that nobody has voted for yet.
func (s *Store) DeleteOption(ctx context.Context, pollID, optionID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := first[models.PollOption](tx.Where("poll_id = ?", pollID), "Option", optionID); err != nil {
			return err
		}
		if voted, err := exists(tx, &models.Vote{}, "option_id = ?", optionID); err != nil {
			return err
		} else if voted {
			return conflict("Option already has votes")
		}
		return tx.Delete(&models.PollOption{}, optionID).Error
	})
}
