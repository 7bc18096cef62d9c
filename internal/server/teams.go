package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vesaa/votedesk/internal/store"
)

func (s *Server) handleListTeams(c *gin.Context) {
	p, ok := page(c)
	if !ok {
		return
	}
	teams, err := s.store.ListTeams(c.Request.Context(), p)
	s.reply(c, http.StatusOK, teams, err)
}

func (s *Server) handleGetTeam(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	team, err := s.store.GetTeam(c.Request.Context(), id)
	s.reply(c, http.StatusOK, team, err)
}

func (s *Server) handleTeamMembers(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	team, err := s.store.TeamMembers(c.Request.Context(), id)
	s.reply(c, http.StatusOK, team, err)
}

func (s *Server) handleCreateTeam(c *gin.Context) {
	var in store.TeamInput
	if !bindJSON(c, &in) {
		return
	}
	team, err := s.store.CreateTeam(c.Request.Context(), in)
	s.reply(c, http.StatusCreated, team, err)
}

func (s *Server) handleUpdateTeam(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in store.TeamUpdate
	if !bindJSON(c, &in) {
		return
	}
	team, err := s.store.UpdateTeam(c.Request.Context(), id, in)
	s.reply(c, http.StatusOK, team, err)
}

func (s *Server) handleDeleteTeam(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	s.noContent(c, s.store.DeleteTeam(c.Request.Context(), id))
}

// ── Participants ─────────────────────────────────────────────────────────────

func (s *Server) handleListParticipants(c *gin.Context) {
	p, ok := page(c)
	if !ok {
		return
	}
	teamID, ok := queryID(c, "team_id")
	if !ok {
		return
	}
	var filter *uint
	if teamID != 0 {
		filter = &teamID
	}
	out, err := s.store.ListParticipants(c.Request.Context(), filter, p)
	s.reply(c, http.StatusOK, out, err)
}

func (s *Server) handleGetParticipant(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := s.store.GetParticipant(c.Request.Context(), id)
	s.reply(c, http.StatusOK, p, err)
}

// handleMyParticipant returns the caller's participant, creating it on first
// use.
func (s *Server) handleMyParticipant(c *gin.Context) {
	p, err := s.store.ParticipantForUser(c.Request.Context(), currentUser(c))
	s.reply(c, http.StatusOK, p, err)
}

func (s *Server) handleJoinTeam(c *gin.Context) {
	teamID, ok := queryID(c, "team_id")
	if !ok {
		return
	}
	if teamID == 0 {
		detail(c, http.StatusUnprocessableEntity, "team_id is required")
		return
	}
	p, err := s.store.JoinTeam(c.Request.Context(), currentUser(c), teamID)
	s.reply(c, http.StatusOK, p, err)
}

func (s *Server) handleLeaveTeam(c *gin.Context) {
	p, err := s.store.LeaveTeam(c.Request.Context(), currentUser(c))
	s.reply(c, http.StatusOK, p, err)
}

func (s *Server) handleCreateParticipant(c *gin.Context) {
	var in store.ParticipantInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := s.store.CreateParticipant(c.Request.Context(), in)
	s.reply(c, http.StatusCreated, p, err)
}

func (s *Server) handleUpdateParticipant(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in store.ParticipantUpdate
	if !bindJSON(c, &in) {
		return
	}
	p, err := s.store.UpdateParticipant(c.Request.Context(), id, in)
	s.reply(c, http.StatusOK, p, err)
}

func (s *Server) handleDeleteParticipant(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	s.noContent(c, s.store.DeleteParticipant(c.Request.Context(), id))
}

func (s *Server) handleRemoveFromTeam(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	s.noContent(c, s.store.RemoveFromTeam(c.Request.Context(), id))
}
