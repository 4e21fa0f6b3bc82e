package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"tasker/internal/apperr"
	"tasker/internal/domain"
	"tasker/internal/logger"
	"tasker/internal/service"
	"tasker/internal/session"

	"github.com/gin-gonic/gin"
)

const dashboardPath = "/dashboard"

type loginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

type registerRequest struct {
	Name     string `form:"name" json:"name"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// loginFailure maps a sign-in error to its status and message.
func loginFailure(err error) (int, string) {
	switch apperr.CodeOf(err) {
	case apperr.CodeUserNotFound, apperr.CodeWrongPassword:
		return http.StatusUnauthorized, "Invalid credentials."
	case apperr.CodeInvalidEmail:
		return http.StatusBadRequest, "Invalid email address."
	case apperr.CodeUserDisabled:
		return http.StatusForbidden, "This account has been disabled."
	case apperr.CodeTooManyRequests:
		return http.StatusTooManyRequests, "Too many failed attempts. Please try again later."
	}
	return http.StatusInternalServerError, "Login failed. Please try again."
}

// registerFailure maps a sign-up error to its status and message.
func registerFailure(err error) (int, string) {
	switch apperr.CodeOf(err) {
	case apperr.CodeEmailAlreadyInUse:
		return http.StatusConflict, "An account with this email already exists."
	case apperr.CodeWeakPassword:
		return http.StatusBadRequest, "Password is too weak. Please use at least 6 characters."
	case apperr.CodeInvalidEmail:
		return http.StatusBadRequest, "Invalid email address."
	case apperr.CodeOperationNotAllowed:
		return http.StatusInternalServerError, "Email registration is not enabled."
	}
	if apperr.IsValidation(err) {
		return http.StatusBadRequest, apperr.Message(err)
	}
	return http.StatusInternalServerError, "Registration failed. Please try again."
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	_ = c.ShouldBind(&req)
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		h.authFailed(c, http.StatusBadRequest, "Email and password are required", h.loginPath())
		return
	}

	u, err := h.Identity.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		status, msg := loginFailure(err)
		h.authFailed(c, status, msg, h.loginPath())
		return
	}
	if !h.startSession(c, u) {
		return
	}
	h.authSucceeded(c, http.StatusOK)
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	_ = c.ShouldBind(&req)
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		h.authFailed(c, http.StatusBadRequest, "Name, email, and password are required", "/register")
		return
	}

	u, err := h.Identity.SignUp(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		status, msg := registerFailure(err)
		h.authFailed(c, status, msg, "/register")
		return
	}
	if !h.startSession(c, u) {
		return
	}
	h.authSucceeded(c, http.StatusCreated)
}

// Logout clears the cookie and tells the user's live sessions to leave.
func (h *Handler) Logout(c *gin.Context) {
	if token, err := c.Cookie(session.CookieName); err == nil && token != "" {
		if s, err := service.VerifySessionToken(token, h.now(), h.Tokens.VerifyOptions()); err == nil {
			h.Store.NotifySignOut(c.Request.Context(), s.UserID)
			h.Timers.Remove(s.UserID)
		}
	}
	h.setCookie(c, "", -1)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) startSession(c *gin.Context, u *domain.User) bool {
	token, _, err := h.Tokens.Issue(u)
	if err != nil {
		logger.FromContext(c.Request.Context()).Error("token issue failed", "user_id", u.ID, "error", err)
		h.authFailed(c, http.StatusInternalServerError, "Login failed. Please try again.", h.loginPath())
		return false
	}
	h.setCookie(c, token, int(h.Tokens.TTL().Seconds()))
	return true
}

func (h *Handler) authSucceeded(c *gin.Context, status int) {
	if acceptsJSON(c) {
		c.JSON(status, gin.H{"success": true})
		return
	}
	c.Redirect(http.StatusFound, dashboardPath)
}

func (h *Handler) authFailed(c *gin.Context, status int, msg, page string) {
	if acceptsJSON(c) {
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.Redirect(http.StatusFound, page+"?error="+url.QueryEscape(msg))
}

// acceptsJSON separates fetch clients from plain form posts; both hit the
// same /api path.
func acceptsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

func (h *Handler) setCookie(c *gin.Context, value string, maxAge int) {
	secure := c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https"
	if h.CookieSecure != nil {
		secure = *h.CookieSecure
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, value, maxAge, "/", "", secure, true)
}

func (h *Handler) loginPath() string {
	if h.LoginPath != "" {
		return h.LoginPath
	}
	return "/login"
}
