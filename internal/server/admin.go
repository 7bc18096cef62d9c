package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (s *Server) handleCorporateStats(c *gin.Context) {
	st, err := s.store.CorporateStats(c.Request.Context())
	s.reply(c, http.StatusOK, st, err)
}

func (s *Server) handleElectionStats(c *gin.Context) {
	st, err := s.store.ElectionStats(c.Request.Context())
	s.reply(c, http.StatusOK, st, err)
}

// handleSystem reports host telemetry. Partial collector failures come back
// as warnings in the snapshot.
func (s *Server) handleSystem(c *gin.Context) {
	snap, err := s.host.Collect(c.Request.Context())
	if err != nil {
		s.log.Warn("collecting host metrics", zap.Error(err))
		detail(c, http.StatusServiceUnavailable, "Host metrics unavailable")
		return
	}
	c.JSON(http.StatusOK, snap)
}
