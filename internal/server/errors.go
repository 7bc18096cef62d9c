package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vesaa/votedesk/internal/store"
)

// Every error body is {"detail": "..."}.

func detail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": msg})
}

// unauthorized answers 401 with the Bearer challenge; the web client drops
// its stored token when it sees one.
func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", "Bearer")
	detail(c, http.StatusUnauthorized, msg)
}

func forbidden(c *gin.Context) {
	detail(c, http.StatusForbidden, "Not enough permissions")
}

// unprocessable reports a request body or parameter that failed validation.
func unprocessable(c *gin.Context, err error) {
	detail(c, http.StatusUnprocessableEntity, err.Error())
}

// fail maps a store error to its HTTP status. Internal errors are logged and
// hidden from the client.
func (s *Server) fail(c *gin.Context, err error) {
	msg := store.Detail(err)
	switch {
	case errors.Is(err, store.ErrNotFound):
		detail(c, http.StatusNotFound, msg)
	case errors.Is(err, store.ErrConflict), errors.Is(err, store.ErrInvalid), errors.Is(err, store.ErrInactive):
		detail(c, http.StatusBadRequest, msg)
	case errors.Is(err, store.ErrForbidden):
		detail(c, http.StatusForbidden, msg)
	case errors.Is(err, store.ErrInvalidCredentials):
		unauthorized(c, msg)
	default:
		s.log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(ctxRequestID)),
			zap.Error(err))
		detail(c, http.StatusInternalServerError, "Internal server error")
	}
}
