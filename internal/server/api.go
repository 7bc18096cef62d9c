// Package server provides the votedesk Gin-based REST API.
// Routes are split into two groups:
//   - Corporate (/api):      polls, teams, participants, votes and feedback.
//   - Election  (/api/v1):   elections, voters, parties, staff, ballots,
//     complaints and results.
//
// Both groups share one store, one user table and one JWT scheme.
package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vesaa/votedesk/internal/config"
	"github.com/vesaa/votedesk/internal/store"
	"github.com/vesaa/votedesk/internal/sysinfo"
)

// Server holds the dependencies of every handler.
type Server struct {
	store  *store.Store
	cfg    *config.Config
	log    *zap.Logger
	secret []byte
	host   *sysinfo.Collector
}

// New wires a Server. Call Handler to get the http.Handler.
func New(st *store.Store, cfg *config.Config, log *zap.Logger) *Server {
	return &Server{
		store:  st,
		cfg:    cfg,
		log:    log,
		secret: []byte(cfg.JWTSecret),
		host:   sysinfo.NewCollector(),
	}
}

// Handler builds the Gin engine with middleware, both API groups and, when
// enabled, the embedded UI fallback.
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestLogger(s.log), cors(s.cfg.CORSOrigins))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Welcome to %s", s.cfg.AppName),
			"version": config.Version,
			"docs":    "/api",
		})
	})
	health := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "app": s.cfg.AppName})
	}
	r.GET("/health", health)
	r.HEAD("/health", health)

	s.registerCorporateRoutes(r.Group("/api", s.OptionalUser()))
	s.registerElectionRoutes(r.Group("/api/v1", s.OptionalUser()))

	if s.cfg.ServeUI {
		RegisterStaticFiles(r)
	} else {
		r.NoRoute(func(c *gin.Context) { detail(c, http.StatusNotFound, "Not Found") })
	}
	return r
}

// registerCorporateRoutes wires up the corporate polling API.
//
//	Public:  login, register, poll/team reads, live tallies
//	User:    participants, votes, feedback
//	Staff:   poll/team writes, results processing, stats
//	Admin:   participant management
func (s *Server) registerCorporateRoutes(api *gin.RouterGroup) {
	user, staff, admin := s.RequireUser(), s.RequireStaff(), s.RequireAdmin()

	// ── Auth ──────────────────────────────────────────────────────────────────
	api.POST("/auth/register", s.handleRegister)
	api.POST("/auth/login", s.handleLogin)
	api.GET("/auth/me", user, s.handleMe)

	// ── Polls ─────────────────────────────────────────────────────────────────
	api.GET("/polls", s.handleListPolls)
	api.GET("/polls/:id", s.handleGetPoll)
	api.POST("/polls", user, staff, s.handleCreatePoll)
	api.PUT("/polls/:id", user, staff, s.handleUpdatePoll)
	api.DELETE("/polls/:id", user, staff, s.handleDeletePoll)
	api.GET("/polls/:id/options", s.handleListOptions)
	api.POST("/polls/:id/options", user, staff, s.handleCreateOption)
	api.DELETE("/polls/:id/options/:option_id", user, staff, s.handleDeleteOption)
	api.GET("/polls/:id/results", s.handleStoredResults)
	api.POST("/polls/:id/results/process", user, staff, s.handleProcessResults)

	// ── Teams ─────────────────────────────────────────────────────────────────
	api.GET("/teams", s.handleListTeams)
	api.GET("/teams/:id", s.handleGetTeam)
	api.GET("/teams/:id/with-members", s.handleTeamMembers)
	api.POST("/teams", user, staff, s.handleCreateTeam)
	api.PUT("/teams/:id", user, staff, s.handleUpdateTeam)
	api.DELETE("/teams/:id", user, staff, s.handleDeleteTeam)

	// ── Participants ──────────────────────────────────────────────────────────
	api.GET("/participants", user, s.handleListParticipants)
	api.GET("/participants/me", user, s.handleMyParticipant)
	api.POST("/participants/join-team", user, s.handleJoinTeam)
	api.POST("/participants/leave-team", user, s.handleLeaveTeam)
	api.GET("/participants/:id", user, s.handleGetParticipant)
	api.POST("/participants", user, admin, s.handleCreateParticipant)
	api.PUT("/participants/:id", user, admin, s.handleUpdateParticipant)
	api.DELETE("/participants/:id", user, admin, s.handleDeleteParticipant)
	api.DELETE("/participants/:id/remove-from-team", user, admin, s.handleRemoveFromTeam)

	// ── Votes ─────────────────────────────────────────────────────────────────
	api.GET("/votes", user, s.handleListVotes)
	api.GET("/votes/poll/:poll_id/results", s.handlePollTally)
	api.GET("/votes/:id", user, s.handleGetVote)
	api.POST("/votes", user, s.handleCastVote)
	api.DELETE("/votes/:id", user, staff, s.handleDeleteVote)

	// ── Feedback ──────────────────────────────────────────────────────────────
	api.GET("/feedback", user, s.handleListFeedback)
	api.GET("/feedback/:id", user, s.handleGetFeedback)
	api.POST("/feedback", user, s.handleCreateFeedback)
	api.PUT("/feedback/:id", user, s.handleUpdateFeedback)
	api.DELETE("/feedback/:id", user, s.handleDeleteFeedback)

	// ── Admin ─────────────────────────────────────────────────────────────────
	api.GET("/admin/stats", user, staff, s.handleCorporateStats)
}

// registerElectionRoutes wires up the election administration API.
func (s *Server) registerElectionRoutes(v1 *gin.RouterGroup) {
	user, staff, admin := s.RequireUser(), s.RequireStaff(), s.RequireAdmin()

	// ── Auth ──────────────────────────────────────────────────────────────────
	v1.POST("/auth/login", s.handleLogin)
	v1.GET("/auth/me", user, s.handleMe)
	v1.POST("/auth/register/voter", registerProfile(s, s.store.RegisterVoter))
	v1.POST("/auth/register/party", registerProfile(s, s.store.RegisterParty))
	v1.POST("/auth/register/staff", registerProfile(s, s.store.RegisterStaff))

	// ── Elections ─────────────────────────────────────────────────────────────
	v1.GET("/elections", s.handleListElections)
	v1.GET("/elections/:id", s.handleGetElection)
	v1.GET("/elections/:id/turnout", s.handleElectionTurnout)
	v1.POST("/elections", user, admin, s.handleCreateElection)
	v1.PUT("/elections/:id", user, admin, s.handleUpdateElection)
	v1.DELETE("/elections/:id", user, admin, s.handleDeleteElection)

	// ── Voters ────────────────────────────────────────────────────────────────
	v1.GET("/voters", user, admin, s.handleListVoters)
	v1.GET("/voters/:id", user, s.handleGetVoter)
	v1.PUT("/voters/:id", user, s.handleUpdateVoter)
	v1.DELETE("/voters/:id", user, admin, s.handleDeleteVoter)

	// ── Parties ───────────────────────────────────────────────────────────────
	v1.GET("/parties", s.handleListParties)
	v1.GET("/parties/:id", s.handleGetParty)
	v1.PUT("/parties/:id", user, s.handleUpdateParty)
	v1.DELETE("/parties/:id", user, admin, s.handleDeleteParty)

	// ── Staff ─────────────────────────────────────────────────────────────────
	v1.GET("/staff", user, admin, s.handleListStaff)
	v1.GET("/staff/:id", user, s.handleGetStaff)
	v1.PUT("/staff/:id", user, s.handleUpdateStaff)
	v1.DELETE("/staff/:id", user, admin, s.handleDeleteStaff)

	// ── Ballots ───────────────────────────────────────────────────────────────
	v1.GET("/votes", user, admin, s.handleListBallots)
	v1.GET("/votes/:id", user, admin, s.handleGetBallot)
	v1.POST("/votes", user, s.handleCastBallot)
	v1.DELETE("/votes/:id", user, admin, s.handleDeleteBallot)

	// ── Complaints ────────────────────────────────────────────────────────────
	v1.GET("/complaints", user, staff, s.handleListComplaints)
	v1.GET("/complaints/:id", user, s.handleGetComplaint)
	v1.POST("/complaints", user, s.handleCreateComplaint)
	v1.PUT("/complaints/:id", user, staff, s.handleUpdateComplaint)
	v1.DELETE("/complaints/:id", user, staff, s.handleDeleteComplaint)

	// ── Results ───────────────────────────────────────────────────────────────
	v1.GET("/results", s.handleListVotingResults)
	v1.GET("/results/:id", s.handleGetVotingResult)
	v1.POST("/results", user, admin, s.handleCreateVotingResult)
	v1.PUT("/results/:id", user, admin, s.handleUpdateVotingResult)
	v1.DELETE("/results/:id", user, admin, s.handleDeleteVotingResult)

	// ── Admin ─────────────────────────────────────────────────────────────────
	v1.GET("/admin/stats", user, staff, s.handleElectionStats)
	v1.GET("/admin/system", user, admin, s.handleSystem)
}

// ── Request helpers ──────────────────────────────────────────────────────────

// pathID parses a numeric path parameter. On failure it has already answered.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		detail(c, http.StatusUnprocessableEntity, fmt.Sprintf("invalid %s", name))
		return 0, false
	}
	return uint(id), true
}

// queryID parses an optional numeric query parameter; absent is 0.
func queryID(c *gin.Context, name string) (uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		detail(c, http.StatusUnprocessableEntity, fmt.Sprintf("invalid %s", name))
		return 0, false
	}
	return uint(id), true
}

// page reads skip and limit.
func page(c *gin.Context) (store.Page, bool) {
	var q struct {
		Skip  int `form:"skip" binding:"min=0"`
		Limit int `form:"limit" binding:"min=0,max=1000"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		unprocessable(c, err)
		return store.Page{}, false
	}
	return store.Page{Skip: q.Skip, Limit: q.Limit}, true
}

// bindJSON decodes the body into dst, answering 422 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		unprocessable(c, err)
		return false
	}
	return true
}

// reply answers with v, or maps err.
func (s *Server) reply(c *gin.Context, status int, v any, err error) {
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(status, v)
}

// noContent answers 204, or maps err.
func (s *Server) noContent(c *gin.Context, err error) {
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
