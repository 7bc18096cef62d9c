package store

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vesaa/votedesk/internal/models"
)

type ComplaintInput struct {
	VoterID       uint   `json:"voter_id"`
	ComplaintType string `json:"complaint_type" binding:"required"`
	Description   string `json:"description" binding:"required"`
	StaffID       *uint  `json:"staff_id"`
}

type ComplaintUpdate struct {
	ComplaintType *string `json:"complaint_type" binding:"omitempty,min=1"`
	Description   *string `json:"description" binding:"omitempty,min=1"`
	Status        *string `json:"status"`
	StaffID       *uint   `json:"staff_id"`
}

type ComplaintFilter struct {
	Status  string
	VoterID uint
}

func (s *Store) ListComplaints(ctx context.Context, f ComplaintFilter, page Page) ([]models.Complaint, error) {
	db := s.db.WithContext(ctx)
	if f.Status != "" {
		if err := checkStatus("status", f.Status, models.ComplaintStatuses); err != nil {
			return nil, err
		}
		db = db.Where("status = ?", f.Status)
	}
	if f.VoterID != 0 {
		db = db.Where("voter_id = ?", f.VoterID)
	}
	var out []models.Complaint
	if err := page.apply(db).Order("complaint_date DESC, id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("listing complaints: %w", err)
	}
	return out, nil
}

func (s *Store) GetComplaint(ctx context.Context, id uint) (*models.Complaint, error) {
	return first[models.Complaint](s.db.WithContext(ctx), "Complaint", id)
}

func (s *Store) CreateComplaint(ctx context.Context, in ComplaintInput) (*models.Complaint, error) {
	c := &models.Complaint{
		VoterID:       in.VoterID,
		StaffID:       in.StaffID,
		ComplaintType: strings.TrimSpace(in.ComplaintType),
		Description:   strings.TrimSpace(in.Description),
		ComplaintDate: s.now(),
		Status:        models.ComplaintStatuses[0],
	}
	if c.ComplaintType == "" || c.Description == "" {
		return nil, invalid("complaint_type and description are required")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := first[models.Voter](tx, "Voter", in.VoterID); err != nil {
			return err
		}
		if in.StaffID != nil {
			if _, err := first[models.Staff](tx, "Staff member", *in.StaffID); err != nil {
				return err
			}
		}
		return tx.Create(c).Error
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("complaint filed", zap.Uint("complaint_id", c.ID), zap.Uint("voter_id", c.VoterID))
	return c, nil
}

func (s *Store) UpdateComplaint(ctx context.Context, id uint, in ComplaintUpdate) (*models.Complaint, error) {
	var c *models.Complaint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if c, err = first[models.Complaint](tx, "Complaint", id); err != nil {
			return err
		}
		if in.ComplaintType != nil {
			c.ComplaintType = strings.TrimSpace(*in.ComplaintType)
		}
		if in.Description != nil {
			c.Description = strings.TrimSpace(*in.Description)
		}
		if c.ComplaintType == "" || c.Description == "" {
			return invalid("complaint_type and description must not be empty")
		}
		if in.Status != nil {
			if err := checkStatus("status", *in.Status, models.ComplaintStatuses); err != nil {
				return err
			}
			c.Status = *in.Status
		}
		if in.StaffID != nil {
			if _, err := first[models.Staff](tx, "Staff member", *in.StaffID); err != nil {
				return err
			}
			c.StaffID = in.StaffID
		}
		return tx.Save(c).Error
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) DeleteComplaint(ctx context.Context, id uint) error {
	db := s.db.WithContext(ctx)
	if _, err := first[models.Complaint](db, "Complaint", id); err != nil {
		return err
	}
	return db.Delete(&models.Complaint{}, id).Error
}
