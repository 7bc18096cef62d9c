package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vesaa/votedesk/internal/models"
	"github.com/vesaa/votedesk/internal/store"
)

// profileID reads :id and checks the caller is an admin or owns that profile
// through link. On failure it has already answered.
func profileID(c *gin.Context, link func(*models.User) *uint) (uint, bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return 0, false
	}
	u := currentUser(c)
	if u.IsAdmin() {
		return id, true
	}
	if own := link(u); own == nil || *own != id {
		forbidden(c)
		return 0, false
	}
	return id, true
}

func voterOf(u *models.User) *uint { return u.VoterID }
func partyOf(u *models.User) *uint { return u.PartyID }
func staffOf(u *models.User) *uint { return u.StaffID }

// ── Voters ───────────────────────────────────────────────────────────────────

func (s *Server) handleListVoters(c *gin.Context) {
	p, ok := page(c)
	if !ok {
		return
	}
	out, err := s.store.ListVoters(c.Request.Context(), p)
	s.reply(c, http.StatusOK, out, err)
}

func (s *Server) handleGetVoter(c *gin.Context) {
	id, ok := profileID(c, voterOf)
	if !ok {
		return
	}
	v, err := s.store.GetVoter(c.Request.Context(), id)
	s.reply(c, http.StatusOK, v, err)
}

func (s *Server) handleUpdateVoter(c *gin.Context) {
	id, ok := profileID(c, voterOf)
	if !ok {
		return
	}
	var in store.VoterUpdate
	if !bindJSON(c, &in) {
		return
	}
	v, err := s.store.UpdateVoter(c.Request.Context(), id, in)
	s.reply(c, http.StatusOK, v, err)
}

func (s *Server) handleDeleteVoter(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	s.noContent(c, s.store.DeleteVoter(c.Request.Context(), id))
}

// ── Parties ──────────────────────────────────────────────────────────────────

func (s *Server) handleListParties(c *gin.Context) {
	p, ok := page(c)
	if !ok {
		return
	}
	out, err := s.store.ListParties(c.Request.Context(), p)
	s.reply(c, http.StatusOK, out, err)
}

func (s *Server) handleGetParty(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	party, err := s.store.GetParty(c.Request.Context(), id)
	s.reply(c, http.StatusOK, party, err)
}

func (s *Server) handleUpdateParty(c *gin.Context) {
	id, ok := profileID(c, partyOf)
	if !ok {
		return
	}
	var in store.PartyUpdate
	if !bindJSON(c, &in) {
		return
	}
	party, err := s.store.UpdateParty(c.Request.Context(), id, in)
	s.reply(c, http.StatusOK, party, err)
}

func (s *Server) handleDeleteParty(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	s.noContent(c, s.store.DeleteParty(c.Request.Context(), id))
}

// ── Staff ────────────────────────────────────────────────────────────────────

func (s *Server) handleListStaff(c *gin.Context) {
	p, ok := page(c)
	if !ok {
		return
	}
	out, err := s.store.ListStaff(c.Request.Context(), p)
	s.reply(c, http.StatusOK, out, err)
}

func (s *Server) handleGetStaff(c *gin.Context) {
	id, ok := profileID(c, staffOf)
	if !ok {
		return
	}
	st, err := s.store.GetStaff(c.Request.Context(), id)
	s.reply(c, http.StatusOK, st, err)
}

func (s *Server) handleUpdateStaff(c *gin.Context) {
	id, ok := profileID(c, staffOf)
	if !ok {
		return
	}
	var in store.StaffUpdate
	if !bindJSON(c, &in) {
		return
	}
	st, err := s.store.UpdateStaff(c.Request.Context(), id, in)
	s.reply(c, http.StatusOK, st, err)
}

func (s *Server) handleDeleteStaff(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	s.noContent(c, s.store.DeleteStaff(c.Request.Context(), id))
}
