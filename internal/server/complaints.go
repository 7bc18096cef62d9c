package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vesaa/votedesk/internal/store"
)

func (s *Server) handleListComplaints(c *gin.Context) {
	p, ok := page(c)
	if !ok {
		return
	}
	voterID, ok := queryID(c, "voter_id")
	if !ok {
		return
	}
	out, err := s.store.ListComplaints(c.Request.Context(),
		store.ComplaintFilter{Status: c.Query("status"), VoterID: voterID}, p)
	s.reply(c, http.StatusOK, out, err)
}

func (s *Server) handleGetComplaint(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cp, err := s.store.GetComplaint(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	if u := currentUser(c); !u.IsStaff() && (u.VoterID == nil || *u.VoterID != cp.VoterID) {
		forbidden(c)
		return
	}
	c.JSON(http.StatusOK, cp)
}

// handleCreateComplaint files for the caller's own voter profile. Staff may
// file on behalf of any voter.
func (s *Server) handleCreateComplaint(c *gin.Context) {
	var in store.ComplaintInput
	if !bindJSON(c, &in) {
		return
	}
	u := currentUser(c)
	switch {
	case u.IsStaff():
		if in.VoterID == 0 {
			detail(c, http.StatusUnprocessableEntity, "voter_id is required")
			return
		}
	case u.VoterID == nil:
		forbidden(c)
		return
	case in.VoterID != 0 && in.VoterID != *u.VoterID:
		forbidden(c)
		return
	default:
		in.VoterID = *u.VoterID
		in.StaffID = nil
	}
	cp, err := s.store.CreateComplaint(c.Request.Context(), in)
	s.reply(c, http.StatusCreated, cp, err)
}

func (s *Server) handleUpdateComplaint(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in store.ComplaintUpdate
	if !bindJSON(c, &in) {
		return
	}
	cp, err := s.store.UpdateComplaint(c.Request.Context(), id, in)
	s.reply(c, http.StatusOK, cp, err)
}

func (s *Server) handleDeleteComplaint(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	s.noContent(c, s.store.DeleteComplaint(c.Request.Context(), id))
}
