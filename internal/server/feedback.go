package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vesaa/votedesk/internal/models"
	"github.com/vesaa/votedesk/internal/store"
)

func (s *Server) handleListFeedback(c *gin.Context) {
	p, ok := page(c)
	if !ok {
		return
	}
	f := store.FeedbackFilter{Status: c.Query("status"), FeedbackType: c.Query("feedback_type")}
	if u := currentUser(c); !u.IsStaff() {
		f.UserID = u.ID
	}
	out, err := s.store.ListFeedback(c.Request.Context(), f, p)
	s.reply(c, http.StatusOK, out, err)
}

// ownFeedback loads the feedback and checks the caller may see it. On failure
// it has already answered.
func (s *Server) ownFeedback(c *gin.Context) (*models.Feedback, bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return nil, false
	}
	fb, err := s.store.GetFeedback(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	if u := currentUser(c); !u.IsStaff() && fb.ParticipantID != u.ID {
		forbidden(c)
		return nil, false
	}
	return fb, true
}

func (s *Server) handleGetFeedback(c *gin.Context) {
	if fb, ok := s.ownFeedback(c); ok {
		c.JSON(http.StatusOK, fb)
	}
}

func (s *Server) handleCreateFeedback(c *gin.Context) {
	var in store.FeedbackInput
	if !bindJSON(c, &in) {
		return
	}
	fb, err := s.store.CreateFeedback(c.Request.Context(), currentUser(c).ID, in)
	s.reply(c, http.StatusCreated, fb, err)
}

// handleUpdateFeedback lets staff change anything. Owners may only edit the
// text, and only while the feedback is still open.
func (s *Server) handleUpdateFeedback(c *gin.Context) {
	fb, ok := s.ownFeedback(c)
	if !ok {
		return
	}
	var in store.FeedbackUpdate
	if !bindJSON(c, &in) {
		return
	}
	if !currentUser(c).IsStaff() && (in.StaffOnly() || fb.Status != models.FeedbackOpen) {
		forbidden(c)
		return
	}
	out, err := s.store.UpdateFeedback(c.Request.Context(), fb.ID, in)
	s.reply(c, http.StatusOK, out, err)
}

func (s *Server) handleDeleteFeedback(c *gin.Context) {
	fb, ok := s.ownFeedback(c)
	if !ok {
		return
	}
	s.noContent(c, s.store.DeleteFeedback(c.Request.Context(), fb.ID))
}
