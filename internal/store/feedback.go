package store

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vesaa/votedesk/internal/models"
)

type FeedbackInput struct {
	Title        string `json:"title" binding:"max=200"`
	Description  string `json:"description" binding:"required"`
	FeedbackType string `json:"feedback_type" binding:"max=50"`
}

// FeedbackUpdate is partial. Owners may only change Title and Description;
// the handler enforces that.
type FeedbackUpdate struct {
	Title        *string `json:"title" binding:"omitempty,max=200"`
	Description  *string `json:"description" binding:"omitempty,min=1"`
	FeedbackType *string `json:"feedback_type" binding:"omitempty,max=50"`
	Status       *string `json:"status"`
	AdminID      *uint   `json:"admin_id"`
}

// StaffOnly reports whether the update touches fields owners may not change.
func (u FeedbackUpdate) StaffOnly() bool {
	return u.FeedbackType != nil || u.Status != nil || u.AdminID != nil
}

type FeedbackFilter struct {
	UserID       uint
	Status       string
	FeedbackType string
}

func (s *Store) ListFeedback(ctx context.Context, f FeedbackFilter, page Page) ([]models.Feedback, error) {
	db := s.db.WithContext(ctx)
	if f.UserID != 0 {
		db = db.Where("participant_id = ?", f.UserID)
	}
	if f.Status != "" {
		if err := checkStatus("status", f.Status, models.FeedbackStatuses); err != nil {
			return nil, err
		}
		db = db.Where("status = ?", f.Status)
	}
	if f.FeedbackType != "" {
		if err := checkStatus("feedback_type", f.FeedbackType, models.FeedbackTypes); err != nil {
			return nil, err
		}
		db = db.Where("feedback_type = ?", f.FeedbackType)
	}
	var out []models.Feedback
	if err := page.apply(db).Order("created_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("listing feedback: %w", err)
	}
	return out, nil
}

func (s *Store) GetFeedback(ctx context.Context, id uint) (*models.Feedback, error) {
	return first[models.Feedback](s.db.WithContext(ctx), "Feedback", id)
}

// CreateFeedback files feedback on behalf of userID.
func (s *Store) CreateFeedback(ctx context.Context, userID uint, in FeedbackInput) (*models.Feedback, error) {
	fb := &models.Feedback{
		ParticipantID: userID,
		Title:         strings.TrimSpace(in.Title),
		Description:   strings.TrimSpace(in.Description),
		FeedbackType:  in.FeedbackType,
		Status:        models.FeedbackOpen,
	}
	if fb.Description == "" {
		return nil, invalid("description is required")
	}
	if fb.FeedbackType == "" {
		fb.FeedbackType = "suggestion"
	}
	if err := checkStatus("feedback_type", fb.FeedbackType, models.FeedbackTypes); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(fb).Error; err != nil {
		return nil, fmt.Errorf("creating feedback: %w", err)
	}
	s.log.Info("feedback submitted", zap.Uint("feedback_id", fb.ID), zap.Uint("user_id", userID))
	return fb, nil
}

func (s *Store) UpdateFeedback(ctx context.Context, id uint, in FeedbackUpdate) (*models.Feedback, error) {
	var fb *models.Feedback
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if fb, err = first[models.Feedback](tx, "Feedback", id); err != nil {
			return err
		}
		if in.Title != nil {
			fb.Title = strings.TrimSpace(*in.Title)
		}
		if in.Description != nil {
			if fb.Description = strings.TrimSpace(*in.Description); fb.Description == "" {
				return invalid("description must not be empty")
			}
		}
		if in.FeedbackType != nil {
			if err := checkStatus("feedback_type", *in.FeedbackType, models.FeedbackTypes); err != nil {
				return err
			}
			fb.FeedbackType = *in.FeedbackType
		}
		if in.Status != nil {
			if err := checkStatus("status", *in.Status, models.FeedbackStatuses); err != nil {
				return err
			}
			fb.Status = *in.Status
		}
		if in.AdminID != nil {
			if _, err := first[models.Staff](tx, "Staff member", *in.AdminID); err != nil {
				return err
			}
			fb.AdminID = in.AdminID
		}
		return tx.Save(fb).Error
	})
	if err != nil {
		return nil, err
	}
	return fb, nil
}

func (s *Store) DeleteFeedback(ctx context.Context, id uint) error {
	db := s.db.WithContext(ctx)
	if _, err := first[models.Feedback](db, "Feedback", id); err != nil {
		return err
	}
	return db.Delete(&models.Feedback{}, id).Error
}
