package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vesaa/votedesk/internal/store"
)

func (s *Server) handleListElections(c *gin.Context) {
	p, ok := page(c)
	if !ok {
		return
	}
	out, err := s.store.ListElections(c.Request.Context(), c.Query("status"), p)
	s.reply(c, http.StatusOK, out, err)
}

func (s *Server) handleGetElection(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	e, err := s.store.GetElection(c.Request.Context(), id)
	s.reply(c, http.StatusOK, e, err)
}

func (s *Server) handleElectionTurnout(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	t, err := s.store.ElectionTurnout(c.Request.Context(), id)
	s.reply(c, http.StatusOK, t, err)
}

func (s *Server) handleCreateElection(c *gin.Context) {
	var in store.ElectionInput
	if !bindJSON(c, &in) {
		return
	}
	e, err := s.store.CreateElection(c.Request.Context(), in)
	s.reply(c, http.StatusCreated, e, err)
}

func (s *Server) handleUpdateElection(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in store.ElectionUpdate
	if !bindJSON(c, &in) {
		return
	}
	e, err := s.store.UpdateElection(c.Request.Context(), id, in)
	s.reply(c, http.StatusOK, e, err)
}

func (s *Server) handleDeleteElection(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	s.noContent(c, s.store.DeleteElection(c.Request.Context(), id))
}

// ── Ballots ──────────────────────────────────────────────────────────────────

func (s *Server) handleListBallots(c *gin.Context) {
	p, ok := page(c)
	if !ok {
		return
	}
	electionID, ok := queryID(c, "election_id")
	if !ok {
		return
	}
	out, err := s.store.ListBallots(c.Request.Context(), electionID, p)
	s.reply(c, http.StatusOK, out, err)
}

func (s *Server) handleGetBallot(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	b, err := s.store.GetBallot(c.Request.Context(), id)
	s.reply(c, http.StatusOK, b, err)
}

// handleCastBallot lets a voter cast only their own ballot. Admins may record
// one for any voter.
func (s *Server) handleCastBallot(c *gin.Context) {
	var in store.BallotInput
	if !bindJSON(c, &in) {
		return
	}
	if u := currentUser(c); !u.IsAdmin() && (u.VoterID == nil || *u.VoterID != in.VoterID) {
		forbidden(c)
		return
	}
	b, err := s.store.CastBallot(c.Request.Context(), in)
	s.reply(c, http.StatusCreated, b, err)
}

func (s *Server) handleDeleteBallot(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	s.noContent(c, s.store.DeleteBallot(c.Request.Context(), id))
}

// ── Voting results ───────────────────────────────────────────────────────────

func (s *Server) handleListVotingResults(c *gin.Context) {
	p, ok := page(c)
	if !ok {
		return
	}
	electionID, ok := queryID(c, "election_id")
	if !ok {
		return
	}
	out, err := s.store.ListVotingResults(c.Request.Context(), electionID, p)
	s.reply(c, http.StatusOK, out, err)
}

func (s *Server) handleGetVotingResult(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	r, err := s.store.GetVotingResult(c.Request.Context(), id)
	s.reply(c, http.StatusOK, r, err)
}

func (s *Server) handleCreateVotingResult(c *gin.Context) {
	var in store.VotingResultInput
	if !bindJSON(c, &in) {
		return
	}
	r, err := s.store.CreateVotingResult(c.Request.Context(), in)
	s.reply(c, http.StatusCreated, r, err)
}

func (s *Server) handleUpdateVotingResult(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in store.VotingResultUpdate
	if !bindJSON(c, &in) {
		return
	}
	r, err := s.store.UpdateVotingResult(c.Request.Context(), id, in)
	s.reply(c, http.StatusOK, r, err)
}

func (s *Server) handleDeleteVotingResult(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	s.noContent(c, s.store.DeleteVotingResult(c.Request.Context(), id))
}
