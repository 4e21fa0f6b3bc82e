package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"tasker/internal/apperr"
	"tasker/internal/dashboard"
	"tasker/internal/domain"
	"tasker/internal/logger"
	"tasker/internal/service"
	"tasker/internal/session"
	"tasker/internal/store"
	"tasker/internal/timer"
	"tasker/internal/ws"

	"github.com/gin-gonic/gin"
)

// Authenticator is the identity provider used by the auth handlers.
type Authenticator interface {
	SignUp(ctx context.Context, name, email, password string) (*domain.User, error)
	SignIn(ctx context.Context, email, password string) (*domain.User, error)
	User(ctx context.Context, id string) (*domain.User, error)
}

type Handler struct {
	Store     *store.Store
	Identity  Authenticator
	Tokens    *service.TokenIssuer
	Snapshots *dashboard.SnapshotService
	Timers    *timer.Registry
	Saver     *timer.Saver
	Keys      session.KeyStore
	Hub       *ws.Hub
	Live      *ws.Live

	LoginPath     string
	AllowedOrigin string
	// CookieSecure forces the Secure attribute; nil follows the request scheme.
	CookieSecure *bool
	Now          func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// userID returns the signed-in user set by session.RequireSession.
func userID(c *gin.Context) (string, bool) {
	s := session.FromGin(c)
	if s == nil || s.UserID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return "", false
	}
	return s.UserID, true
}

// writeError maps store and validation errors to a status and a user-facing
// message.
func writeError(c *gin.Context, err error) {
	var v *apperr.ValidationError
	switch {
	case errors.As(err, &v):
		c.JSON(http.StatusBadRequest, gin.H{"error": v.Message, "field": v.Field})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": apperr.Message(err)})
	case errors.Is(err, apperr.ErrOperationFailed):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		logger.FromContext(c.Request.Context()).Error("request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": apperr.Message(err)})
	}
}
