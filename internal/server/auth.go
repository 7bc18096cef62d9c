package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/vesaa/votedesk/internal/models"
	"github.com/vesaa/votedesk/internal/store"
)

// ─── JWT ─────────────────────────────────────────────────────────────────────

// Claims is the payload embedded in every access token. Subject is the user
// id; Role is informational only, permissions come from the user row.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// GenerateJWT creates a signed HS256 token for u.
func (s *Server) GenerateJWT(u *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: u.Username,
		Role:     u.RoleName(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.JWTIssuer,
			Subject:   strconv.FormatUint(uint64(u.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL())),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Server) tokenTTL() time.Duration {
	return time.Duration(s.cfg.TokenLifetime) * time.Minute
}

// parseJWT validates a token string and returns the claims.
func (s *Server) parseJWT(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.JWTIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// bearer extracts the token from "Authorization: Bearer <jwt>".
func bearer(c *gin.Context) (string, bool) {
	raw := c.GetHeader("Authorization")
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

var errBadToken = errors.New("could not validate credentials")

// userFromToken resolves the bearer token to a user row.
func (s *Server) userFromToken(ctx context.Context, raw string) (*models.User, error) {
	claims, err := s.parseJWT(raw)
	if err != nil {
		return nil, errBadToken
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, errBadToken
	}
	u, err := s.store.UserByID(ctx, uint(id))
	if errors.Is(err, store.ErrNotFound) {
		return nil, errBadToken
	}
	return u, err
}

// ─── Middleware ──────────────────────────────────────────────────────────────

// RequireUser rejects requests without a valid token for an active user.
// On success the user is stored in the context under "user".
func (s *Server) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentUser(c) != nil {
			c.Next()
			return
		}
		raw, ok := bearer(c)
		if !ok {
			unauthorized(c, "Could not validate credentials")
			return
		}
		u, err := s.userFromToken(c.Request.Context(), raw)
		if errors.Is(err, errBadToken) {
			unauthorized(c, "Could not validate credentials")
			return
		}
		if err != nil {
			s.fail(c, err)
			return
		}
		if !u.IsActive {
			detail(c, http.StatusBadRequest, "Inactive user")
			return
		}
		c.Set(ctxUser, u)
		c.Next()
	}
}

// OptionalUser attaches the user when a valid token is present and carries on
// anonymously otherwise. Both API groups run it so public reads are logged
// with the caller's id.
func (s *Server) OptionalUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, ok := bearer(c); ok {
			if u, err := s.userFromToken(c.Request.Context(), raw); err == nil && u.IsActive {
				c.Set(ctxUser, u)
			}
		}
		c.Next()
	}
}

// RequireAdmin must follow RequireUser.
func (s *Server) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if u := currentUser(c); u == nil || !u.IsAdmin() {
			forbidden(c)
			return
		}
		c.Next()
	}
}

// RequireStaff must follow RequireUser.
func (s *Server) RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if u := currentUser(c); u == nil || !u.IsStaff() {
			forbidden(c)
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(ctxUser)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

// ─── Handlers ────────────────────────────────────────────────────────────────

type tokenResponse struct {
	AccessToken string               `json:"access_token"`
	TokenType   string               `json:"token_type"`
	ExpiresIn   int                  `json:"expires_in"`
	User        *models.UserResponse `json:"user,omitempty"`
}

func (s *Server) tokenFor(u *models.User, withUser bool) (*tokenResponse, error) {
	token, err := s.GenerateJWT(u)
	if err != nil {
		return nil, err
	}
	resp := &tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.tokenTTL().Seconds()),
	}
	if withUser {
		ur := u.Response()
		resp.User = &ur
	}
	return resp, nil
}

// handleLogin accepts a username (or email) and password as a form or JSON
// and returns a signed JWT.
//
//	POST /api/auth/login, POST /api/v1/auth/login
//	Body: username=admin&password=admin123
func (s *Server) handleLogin(c *gin.Context) {
	var body struct {
		Username string `form:"username" json:"username" binding:"required"`
		Password string `form:"password" json:"password" binding:"required"`
	}
	if err := c.ShouldBind(&body); err != nil {
		unprocessable(c, err)
		return
	}

	u, err := s.store.Authenticate(c.Request.Context(), body.Username, body.Password)
	if err != nil {
		s.fail(c, err)
		return
	}

	resp, err := s.tokenFor(u, false)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.log.Info("login", zap.Uint("user_id", u.ID), zap.String("role", u.RoleName()))
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleMe(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c).Response())
}

// handleRegister creates a corporate participant account.
func (s *Server) handleRegister(c *gin.Context) {
	var in store.NewUser
	if err := c.ShouldBindJSON(&in); err != nil {
		unprocessable(c, err)
		return
	}
	in.Role, in.Superuser = models.RoleParticipant, false
	u, err := s.store.CreateUser(c.Request.Context(), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, u.Response())
}

// registerProfile binds T, runs create and answers 201 with a token for the
// new account.
func registerProfile[T any](s *Server, create func(context.Context, T) (*models.User, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in T
		if err := c.ShouldBindJSON(&in); err != nil {
			unprocessable(c, err)
			return
		}
		u, err := create(c.Request.Context(), in)
		if err != nil {
			s.fail(c, err)
			return
		}
		resp, err := s.tokenFor(u, true)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, resp)
	}
}
