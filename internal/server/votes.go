package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vesaa/votedesk/internal/store"
)

// handleListVotes shows staff every vote and everyone else their own.
func (s *Server) handleListVotes(c *gin.Context) {
	p, ok := page(c)
	if !ok {
		return
	}
	pollID, ok := queryID(c, "poll_id")
	if !ok {
		return
	}
	participantID, ok := queryID(c, "participant_id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	u := currentUser(c)
	if !u.IsStaff() {
		me, err := s.store.ParticipantForUser(ctx, u)
		if err != nil {
			s.fail(c, err)
			return
		}
		participantID = me.ID
	}
	votes, err := s.store.ListVotes(ctx, store.VoteFilter{PollID: pollID, ParticipantID: participantID}, p)
	s.reply(c, http.StatusOK, votes, err)
}

func (s *Server) handleGetVote(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	vote, err := s.store.GetVote(ctx, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	if u := currentUser(c); !u.IsStaff() {
		me, err := s.store.ParticipantForUser(ctx, u)
		if err != nil {
			s.fail(c, err)
			return
		}
		if vote.ParticipantID != me.ID {
			forbidden(c)
			return
		}
	}
	c.JSON(http.StatusOK, vote)
}

// handleCastVote votes as the caller's participant unless an admin names
// another one.
func (s *Server) handleCastVote(c *gin.Context) {
	var in store.VoteInput
	if !bindJSON(c, &in) {
		return
	}
	ctx := c.Request.Context()
	u := currentUser(c)

	var participantID uint
	if in.ParticipantID != nil && u.IsAdmin() {
		participantID = *in.ParticipantID
	} else {
		me, err := s.store.ParticipantForUser(ctx, u)
		if err != nil {
			s.fail(c, err)
			return
		}
		if in.ParticipantID != nil && *in.ParticipantID != me.ID {
			forbidden(c)
			return
		}
		participantID = me.ID
	}

	vote, err := s.store.CastVote(ctx, participantID, in)
	s.reply(c, http.StatusCreated, vote, err)
}

func (s *Server) handleDeleteVote(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	s.noContent(c, s.store.DeleteVote(c.Request.Context(), id))
}
