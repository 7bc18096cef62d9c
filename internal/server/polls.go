package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vesaa/votedesk/internal/store"
)

func (s *Server) handleListPolls(c *gin.Context) {
	p, ok := page(c)
	if !ok {
		return
	}
	polls, err := s.store.ListPolls(c.Request.Context(), c.Query("status"), p)
	s.reply(c, http.StatusOK, polls, err)
}

func (s *Server) handleGetPoll(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	poll, err := s.store.GetPoll(c.Request.Context(), id)
	s.reply(c, http.StatusOK, poll, err)
}

func (s *Server) handleCreatePoll(c *gin.Context) {
	var in store.PollInput
	if !bindJSON(c, &in) {
		return
	}
	poll, err := s.store.CreatePoll(c.Request.Context(), in)
	s.reply(c, http.StatusCreated, poll, err)
}

func (s *Server) handleUpdatePoll(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in store.PollUpdate
	if !bindJSON(c, &in) {
		return
	}
	poll, err := s.store.UpdatePoll(c.Request.Context(), id, in)
	s.reply(c, http.StatusOK, poll, err)
}

func (s *Server) handleDeletePoll(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	s.noContent(c, s.store.DeletePoll(c.Request.Context(), id))
}

func (s *Server) handleListOptions(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	opts, err := s.store.ListOptions(c.Request.Context(), id)
	s.reply(c, http.StatusOK, opts, err)
}

func (s *Server) handleCreateOption(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in store.OptionInput
	if !bindJSON(c, &in) {
		return
	}
	opt, err := s.store.CreateOption(c.Request.Context(), id, in)
	s.reply(c, http.StatusCreated, opt, err)
}

func (s *Server) handleDeleteOption(c *gin.Context) {
	pollID, ok := pathID(c, "id")
	if !ok {
		return
	}
	optionID, ok := pathID(c, "option_id")
	if !ok {
		return
	}
	s.noContent(c, s.store.DeleteOption(c.Request.Context(), pollID, optionID))
}

func (s *Server) handleStoredResults(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rows, err := s.store.StoredResults(c.Request.Context(), id)
	s.reply(c, http.StatusOK, rows, err)
}

func (s *Server) handleProcessResults(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rows, err := s.store.ProcessResults(c.Request.Context(), id)
	s.reply(c, http.StatusOK, rows, err)
}

// handlePollTally is the live count used by the results page.
func (s *Server) handlePollTally(c *gin.Context) {
	id, ok := pathID(c, "poll_id")
	if !ok {
		return
	}
	t, err := s.store.PollTally(c.Request.Context(), id)
	s.reply(c, http.StatusOK, t, err)
}
