package session

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tasker/internal/service"

	"github.com/gin-gonic/gin"
)

// CookieName is the session cookie set at sign-in.
const CookieName = "auth-token"

const ginKey = "session"

// RequireSession lets requests with a valid session cookie through and
// stores the session for FromGin. API requests without one get 401, page
// requests are redirected to loginPath with the reason in ?error=.
func RequireSession(opts service.VerifyOptions, loginPath string, now func() time.Time) gin.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(c *gin.Context) {
		token, _ := c.Cookie(CookieName)
		s, err := service.VerifySessionToken(token, now(), opts)
		if err != nil {
			msg := Reason(err)
			if WantsJSON(c) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
				return
			}
			c.Redirect(http.StatusFound, loginPath+"?error="+url.QueryEscape(msg))
			c.Abort()
			return
		}
		c.Set(ginKey, s)
		c.Next()
	}
}

// FromGin returns the session stored by RequireSession.
func FromGin(c *gin.Context) *service.Session {
	v, ok := c.Get(ginKey)
	if !ok {
		return nil
	}
	s, _ := v.(*service.Session)
	return s
}

// WantsJSON reports whether the caller is an API client rather than a page
// navigation.
func WantsJSON(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

// Reason is the user-facing message for a failed cookie check.
func Reason(err error) string {
	switch {
	case errors.Is(err, service.ErrMissingToken):
		return "Please sign in to continue"
	case errors.Is(err, service.ErrTokenExpired):
		return "Your session has expired. Please sign in again"
	default:
		return "Invalid session. Please sign in again"
	}
}
