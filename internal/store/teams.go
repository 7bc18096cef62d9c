package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vesaa/votedesk/internal/models"
)

type TeamInput struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description"`
	Status      string `json:"status" binding:"max=20"`
}

type TeamUpdate struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description"`
	Status      *string `json:"status" binding:"omitempty,max=20"`
}

func (s *Store) ListTeams(ctx context.Context, page Page) ([]models.Team, error) {
	var teams []models.Team
	if err := page.apply(s.db.WithContext(ctx)).Order("id").Find(&teams).Error; err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	return teams, nil
}

func (s *Store) GetTeam(ctx context.Context, id uint) (*models.Team, error) {
	return first[models.Team](s.db.WithContext(ctx), "Team", id)
}

// TeamMembers returns the team together with its participants.
func (s *Store) TeamMembers(ctx context.Context, id uint) (*models.TeamWithMembers, error) {
	team, err := s.GetTeam(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &models.TeamWithMembers{Team: *team, Members: []models.Participant{}}
	if err := s.db.WithContext(ctx).Where("team_id = ?", id).Order("id").Find(&out.Members).Error; err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	return out, nil
}

func (s *Store) CreateTeam(ctx context.Context, in TeamInput) (*models.Team, error) {
	team := &models.Team{
		Name:             strings.TrimSpace(in.Name),
		Description:      in.Description,
		Status:           in.Status,
		RegistrationDate: s.now(),
	}
	if team.Name == "" {
		return nil, invalid("name is required")
	}
	if team.Status == "" {
		team.Status = "active"
	}
	if err := s.db.WithContext(ctx).Create(team).Error; err != nil {
		return nil, fmt.Errorf("creating team: %w", err)
	}
	s.log.Info("team created", zap.Uint("team_id", team.ID))
	return team, nil
}

func (s *Store) UpdateTeam(ctx context.Context, id uint, in TeamUpdate) (*models.Team, error) {
	team, err := s.GetTeam(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if team.Name = strings.TrimSpace(*in.Name); team.Name == "" {
			return nil, invalid("name must not be empty")
		}
	}
	if in.Description != nil {
		team.Description = *in.Description
	}
	if in.Status != nil {
		team.Status = *in.Status
	}
	if err := s.db.WithContext(ctx).Save(team).Error; err != nil {
		return nil, fmt.Errorf("updating team: %w", err)
	}
	return team, nil
}

// DeleteTeam detaches the team's participants and drops its per-team results.
func (s *Store) DeleteTeam(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := first[models.Team](tx, "Team", id); err != nil {
			return err
		}
		if err := tx.Model(&models.Participant{}).Where("team_id = ?", id).Update("team_id", nil).Error; err != nil {
			return fmt.Errorf("detaching participants: %w", err)
		}
		if err := tx.Where("team_id = ?", id).Delete(&models.Result{}).Error; err != nil {
			return fmt.Errorf("deleting team results: %w", err)
		}
		return tx.Delete(&models.Team{}, id).Error
	})
	if err != nil {
		return err
	}
	s.log.Info("team deleted", zap.Uint("team_id", id))
	return nil
}

// ── Participants ─────────────────────────────────────────────────────────────

type ParticipantInput struct {
	UserID    *uint   `json:"user_id"`
	TeamID    *uint   `json:"team_id"`
	FullName  string  `json:"full_name" binding:"required,max=100"`
	Email     string  `json:"email" binding:"omitempty,email,max=100"`
	Phone     string  `json:"phone" binding:"max=20"`
	BirthDate *string `json:"birth_date"`
	Address   string  `json:"address" binding:"max=200"`
	Status    string  `json:"status" binding:"max=20"`
}

type ParticipantUpdate struct {
	TeamID    *uint   `json:"team_id"`
	FullName  *string `json:"full_name" binding:"omitempty,min=1,max=100"`
	Email     *string `json:"email" binding:"omitempty,email,max=100"`
	Phone     *string `json:"phone" binding:"omitempty,max=20"`
	BirthDate *string `json:"birth_date"`
	Address   *string `json:"address" binding:"omitempty,max=200"`
	Status    *string `json:"status" binding:"omitempty,max=20"`
}

// ListParticipants lists participants, optionally only those of one team.
func (s *Store) ListParticipants(ctx context.Context, teamID *uint, page Page) ([]models.Participant, error) {
	db := s.db.WithContext(ctx)
	if teamID != nil {
		db = db.Where("team_id = ?", *teamID)
	}
	var out []models.Participant
	if err := page.apply(db).Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}
	return out, nil
}

func (s *Store) GetParticipant(ctx context.Context, id uint) (*models.Participant, error) {
	return first[models.Participant](s.db.WithContext(ctx), "Participant", id)
}

func (s *Store) CreateParticipant(ctx context.Context, in ParticipantInput) (*models.Participant, error) {
	p := &models.Participant{
		UserID:           in.UserID,
		TeamID:           in.TeamID,
		FullName:         strings.TrimSpace(in.FullName),
		Email:            in.Email,
		Phone:            in.Phone,
		Address:          in.Address,
		Status:           in.Status,
		RegistrationDate: s.now(),
	}
	if p.FullName == "" {
		return nil, invalid("full_name is required")
	}
	if p.Status == "" {
		p.Status = "active"
	}
	var err error
	if p.BirthDate, err = parseOptionalTime("birth_date", in.BirthDate); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if p.TeamID != nil {
			if _, err := first[models.Team](tx, "Team", *p.TeamID); err != nil {
				return err
			}
		}
		if p.UserID != nil {
			if _, err := first[models.User](tx, "User", *p.UserID); err != nil {
				return err
			}
			if taken, err := exists(tx, &models.Participant{}, "user_id = ?", *p.UserID); err != nil {
				return err
			} else if taken {
				return conflict("User already has a participant record")
			}
		}
		return tx.Create(p).Error
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) UpdateParticipant(ctx context.Context, id uint, in ParticipantUpdate) (*models.Participant, error) {
	var p *models.Participant
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if p, err = first[models.Participant](tx, "Participant", id); err != nil {
			return err
		}
		if in.TeamID != nil {
			if _, err := first[models.Team](tx, "Team", *in.TeamID); err != nil {
				return err
			}
			p.TeamID = in.TeamID
		}
		if in.FullName != nil {
			if p.FullName = strings.TrimSpace(*in.FullName); p.FullName == "" {
				return invalid("full_name must not be empty")
			}
		}
		if in.Email != nil {
			p.Email = *in.Email
		}
		if in.Phone != nil {
			p.Phone = *in.Phone
		}
		if in.Address != nil {
			p.Address = *in.Address
		}
		if in.Status != nil {
			p.Status = *in.Status
		}
		if in.BirthDate != nil {
			if p.BirthDate, err = parseOptionalTime("birth_date", in.BirthDate); err != nil {
				return err
			}
		}
		return tx.Save(p).Error
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteParticipant removes a participant and the votes they cast.
func (s *Store) DeleteParticipant(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := first[models.Participant](tx, "Participant", id); err != nil {
			return err
		}
		if err := tx.Where("participant_id = ?", id).Delete(&models.Vote{}).Error; err != nil {
			return fmt.Errorf("deleting votes: %w", err)
		}
		return tx.Delete(&models.Participant{}, id).Error
	})
}

// ParticipantForUser returns the user's participant record, creating it on
// first use.
func (s *Store) ParticipantForUser(ctx context.Context, user *models.User) (*models.Participant, error) {
	var p models.Participant
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ?", user.ID).First(&p).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		name := user.FullName
		if name == "" {
			name = user.Username
		}
		uid := user.ID
		p = models.Participant{
			UserID:           &uid,
			FullName:         name,
			Email:            user.Email,
			Status:           "active",
			RegistrationDate: s.now(),
		}
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		s.log.Info("participant created for user", zap.Uint("user_id", uid), zap.Uint("participant_id", p.ID))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("participant for user %d: %w", user.ID, err)
	}
	return &p, nil
}

// JoinTeam moves the user's participant into a team.
func (s *Store) JoinTeam(ctx context.Context, user *models.User, teamID uint) (*models.Participant, error) {
	if _, err := s.GetTeam(ctx, teamID); err != nil {
		return nil, err
	}
	p, err := s.ParticipantForUser(ctx, user)
	if err != nil {
		return nil, err
	}
	p.TeamID = &teamID
	if err := s.db.WithContext(ctx).Model(p).Update("team_id", teamID).Error; err != nil {
		return nil, fmt.Errorf("joining team: %w", err)
	}
	return p, nil
}

// LeaveTeam clears the team of the user's participant. It does not create a
// participant.
func (s *Store) LeaveTeam(ctx context.Context, user *models.User) (*models.Participant, error) {
	p, err := first[models.Participant](s.db.WithContext(ctx).Where("user_id = ?", user.ID), "Participant")
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(p).Update("team_id", nil).Error; err != nil {
		return nil, fmt.Errorf("leaving team: %w", err)
	}
	p.TeamID = nil
	return p, nil
}

// RemoveFromTeam clears a participant's team.
func (s *Store) RemoveFromTeam(ctx context.Context, participantID uint) error {
	db := s.db.WithContext(ctx)
	if _, err := first[models.Participant](db, "Participant", participantID); err != nil {
		return err
	}
	return db.Model(&models.Participant{}).Where("id = ?", participantID).Update("team_id", nil).Error
}
