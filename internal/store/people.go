package store

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vesaa/votedesk/internal/models"
)

// deactivateLinked switches off the login attached to a profile and clears
// the link.
func deactivateLinked(tx *gorm.DB, column string, id uint) error {
	return tx.Model(&models.User{}).Where(column+" = ?", id).
		Updates(map[string]any{column: nil, "is_active": false}).Error
}

// relinkLogin renames the login attached to a profile so it keeps matching
// the profile's email or name.
func relinkLogin(tx *gorm.DB, column string, id uint, username, email, taken string) error {
	clash, err := exists(tx, &models.User{},
		"(username = ? OR email = ?) AND ("+column+" IS NULL OR "+column+" <> ?)", username, email, id)
	if err != nil {
		return err
	}
	if clash {
		return conflict(taken)
	}
	return tx.Model(&models.User{}).Where(column+" = ?", id).
		Updates(map[string]any{"username": username, "email": email}).Error
}

// ── Voters ───────────────────────────────────────────────────────────────────

type VoterUpdate struct {
	FullName    *string      `json:"full_name" binding:"omitempty,min=1"`
	DateOfBirth *models.Date `json:"date_of_birth"`
	Address     *string      `json:"address" binding:"omitempty,min=1"`
	Email       *string      `json:"email" binding:"omitempty,email"`
	Phone       *string      `json:"phone"`
}

func (s *Store) ListVoters(ctx context.Context, page Page) ([]models.Voter, error) {
	var out []models.Voter
	if err := page.apply(s.db.WithContext(ctx)).Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("listing voters: %w", err)
	}
	return out, nil
}

func (s *Store) GetVoter(ctx context.Context, id uint) (*models.Voter, error) {
	return first[models.Voter](s.db.WithContext(ctx), "Voter", id)
}

func (s *Store) UpdateVoter(ctx context.Context, id uint, in VoterUpdate) (*models.Voter, error) {
	var v *models.Voter
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if v, err = first[models.Voter](tx, "Voter", id); err != nil {
			return err
		}
		if in.FullName != nil {
			v.FullName = strings.TrimSpace(*in.FullName)
		}
		if in.DateOfBirth != nil && !in.DateOfBirth.IsZero() {
			v.DateOfBirth = *in.DateOfBirth
		}
		if in.Address != nil {
			v.Address = strings.TrimSpace(*in.Address)
		}
		if in.Phone != nil {
			v.Phone = *in.Phone
		}
		if in.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*in.Email))
			if email != v.Email {
				if taken, err := exists(tx, &models.Voter{}, "email = ? AND id <> ?", email, id); err != nil {
					return err
				} else if taken {
					return conflict("Email already registered")
				}
				if err := relinkLogin(tx, "voter_id", id, email, email, "Email already registered"); err != nil {
					return err
				}
				v.Email = email
			}
		}
		if v.FullName == "" || v.Address == "" {
			return invalid("full_name and address must not be empty")
		}
		return tx.Save(v).Error
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// DeleteVoter removes a voter with their ballots and complaints. Their login
// is kept but unlinked and deactivated.
func (s *Store) DeleteVoter(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := first[models.Voter](tx, "Voter", id); err != nil {
			return err
		}
		if err := tx.Where("voter_id = ?", id).Delete(&models.Ballot{}).Error; err != nil {
			return fmt.Errorf("deleting ballots: %w", err)
		}
		if err := tx.Where("voter_id = ?", id).Delete(&models.Complaint{}).Error; err != nil {
			return fmt.Errorf("deleting complaints: %w", err)
		}
		if err := deactivateLinked(tx, "voter_id", id); err != nil {
			return fmt.Errorf("unlinking user: %w", err)
		}
		return tx.Delete(&models.Voter{}, id).Error
	})
	if err != nil {
		return err
	}
	s.log.Info("voter deleted", zap.Uint("voter_id", id))
	return nil
}

// ── Parties ──────────────────────────────────────────────────────────────────

type PartyInput struct {
	Name             string      `json:"name" yaml:"name"`
	RegistrationDate models.Date `json:"registration_date" yaml:"registration_date"`
	Status           string      `json:"status" yaml:"status"`
}

type PartyUpdate struct {
	Name             *string      `json:"name" binding:"omitempty,min=1"`
	RegistrationDate *models.Date `json:"registration_date"`
	Status           *string      `json:"status"`
}

func (s *Store) ListParties(ctx context.Context, page Page) ([]models.Party, error) {
	var out []models.Party
	if err := page.apply(s.db.WithContext(ctx)).Order("name").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("listing parties: %w", err)
	}
	return out, nil
}

func (s *Store) GetParty(ctx context.Context, id uint) (*models.Party, error) {
	return first[models.Party](s.db.WithContext(ctx), "Party", id)
}

// CreateParty inserts a party without a login. Fixtures use it.
func (s *Store) CreateParty(ctx context.Context, in PartyInput) (*models.Party, error) {
	p := &models.Party{Name: strings.TrimSpace(in.Name), RegistrationDate: in.RegistrationDate, Status: in.Status}
	if p.Name == "" {
		return nil, invalid("name is required")
	}
	if p.RegistrationDate.IsZero() {
		p.RegistrationDate = models.NewDate(s.now())
	}
	if p.Status == "" {
		p.Status = models.PartyStatuses[0]
	}
	if err := checkStatus("status", p.Status, models.PartyStatuses); err != nil {
		return nil, err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if taken, err := exists(tx, &models.Party{}, "name = ?", p.Name); err != nil {
			return err
		} else if taken {
			return conflict("Party already registered")
		}
		return tx.Create(p).Error
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) UpdateParty(ctx context.Context, id uint, in PartyUpdate) (*models.Party, error) {
	var p *models.Party
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if p, err = first[models.Party](tx, "Party", id); err != nil {
			return err
		}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return invalid("name must not be empty")
			}
			if name != p.Name {
				if taken, err := exists(tx, &models.Party{}, "name = ? AND id <> ?", name, id); err != nil {
					return err
				} else if taken {
					return conflict("Party already registered")
				}
				login := PartyLogin(name)
				if err := relinkLogin(tx, "party_id", id, login, login+"@party.local", "Party already registered"); err != nil {
					return err
				}
				p.Name = name
			}
		}
		if in.RegistrationDate != nil && !in.RegistrationDate.IsZero() {
			p.RegistrationDate = *in.RegistrationDate
		}
		if in.Status != nil {
			if err := checkStatus("status", *in.Status, models.PartyStatuses); err != nil {
				return err
			}
			p.Status = *in.Status
		}
		return tx.Save(p).Error
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteParty removes a party and its results, and deactivates its login.
func (s *Store) DeleteParty(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := first[models.Party](tx, "Party", id); err != nil {
			return err
		}
		if err := tx.Where("party_id = ?", id).Delete(&models.VotingResult{}).Error; err != nil {
			return fmt.Errorf("deleting results: %w", err)
		}
		if err := deactivateLinked(tx, "party_id", id); err != nil {
			return fmt.Errorf("unlinking user: %w", err)
		}
		return tx.Delete(&models.Party{}, id).Error
	})
	if err != nil {
		return err
	}
	s.log.Info("party deleted", zap.Uint("party_id", id))
	return nil
}

// ── Staff ────────────────────────────────────────────────────────────────────

type StaffUpdate struct {
	FullName    *string      `json:"full_name" binding:"omitempty,min=1"`
	DateOfBirth *models.Date `json:"date_of_birth"`
	Address     *string      `json:"address"`
	Email       *string      `json:"email" binding:"omitempty,email"`
	Phone       *string      `json:"phone"`
	Department  *string      `json:"department"`
	Position    *string      `json:"position"`
	Status      *string      `json:"status"`
}

func (s *Store) ListStaff(ctx context.Context, page Page) ([]models.Staff, error) {
	var out []models.Staff
	if err := page.apply(s.db.WithContext(ctx)).Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("listing staff: %w", err)
	}
	return out, nil
}

func (s *Store) GetStaff(ctx context.Context, id uint) (*models.Staff, error) {
	return first[models.Staff](s.db.WithContext(ctx), "Staff member", id)
}

func (s *Store) UpdateStaff(ctx context.Context, id uint, in StaffUpdate) (*models.Staff, error) {
	var st *models.Staff
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if st, err = first[models.Staff](tx, "Staff member", id); err != nil {
			return err
		}
		if in.FullName != nil {
			if st.FullName = strings.TrimSpace(*in.FullName); st.FullName == "" {
				return invalid("full_name must not be empty")
			}
		}
		if in.DateOfBirth != nil && !in.DateOfBirth.IsZero() {
			st.DateOfBirth = *in.DateOfBirth
		}
		if in.Address != nil {
			st.Address = strings.TrimSpace(*in.Address)
		}
		if in.Phone != nil {
			st.Phone = *in.Phone
		}
		if in.Department != nil {
			st.Department = *in.Department
		}
		if in.Position != nil {
			st.Position = *in.Position
		}
		if in.Status != nil {
			if err := checkStatus("status", *in.Status, models.StaffStatuses); err != nil {
				return err
			}
			st.Status = *in.Status
		}
		if in.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*in.Email))
			if st.Email == nil || email != *st.Email {
				if taken, err := exists(tx, &models.Staff{}, "email = ? AND id <> ?", email, id); err != nil {
					return err
				} else if taken {
					return conflict("Email already registered")
				}
				if err := relinkLogin(tx, "staff_id", id, email, email, "Email already registered"); err != nil {
					return err
				}
				st.Email = &email
			}
		}
		return tx.Save(st).Error
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// DeleteStaff removes a staff member. Complaints and feedback they were
// handling become unassigned and their login is deactivated.
func (s *Store) DeleteStaff(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := first[models.Staff](tx, "Staff member", id); err != nil {
			return err
		}
		if err := tx.Model(&models.Complaint{}).Where("staff_id = ?", id).Update("staff_id", nil).Error; err != nil {
			return fmt.Errorf("unassigning complaints: %w", err)
		}
		if err := tx.Model(&models.Feedback{}).Where("admin_id = ?", id).Update("admin_id", nil).Error; err != nil {
			return fmt.Errorf("unassigning feedback: %w", err)
		}
		if err := deactivateLinked(tx, "staff_id", id); err != nil {
			return fmt.Errorf("unlinking user: %w", err)
		}
		return tx.Delete(&models.Staff{}, id).Error
	})
	if err != nil {
		return err
	}
	s.log.Info("staff deleted", zap.Uint("staff_id", id))
	return nil
}
