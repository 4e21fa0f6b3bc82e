package handlers

import (
	"context"
	"net/http"
	"strings"

	"tasker/internal/logger"
	"tasker/internal/session"
	"tasker/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// clientKey names the browser for the last-known user key. Clients send a
// stable ?client= id; otherwise the remote address stands in.
func clientKey(c *gin.Context) string {
	if k := strings.TrimSpace(c.Query("client")); k != "" {
		if _, err := uuid.Parse(k); err == nil {
			return k
		}
	}
	return c.ClientIP()
}

// WS upgrades to the live dashboard socket. The session comes from the
// auth cookie; a missing or bad cookie still upgrades so the client gets
// the redirect message.
func (h *Handler) WS(c *gin.Context) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if h.AllowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == h.AllowedOrigin
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("ws upgrade error", "error", err)
		return
	}

	token, _ := c.Cookie(session.CookieName)
	opts := h.Tokens.VerifyOptions()
	sc := session.NewContext(clientKey(c), session.TokenResolver(token, opts, h.now), h.Keys)
	confirm := session.CookieConfirmer(token, opts, h.now)

	// the request context ends with the handler; the socket outlives it
	ctx, cancel := context.WithCancel(context.Background())
	ctx = logger.IntoContext(ctx, logger.With("component", "ws", "client", clientKey(c)))

	// user id is set once the session resolves
	client := ws.NewClient("", conn, h.Hub)
	go func() {
		<-client.Done
		cancel()
	}()
	handle := h.Live.Serve(ctx, client, sc, confirm)
	if handle != nil {
		client.SetUser(sc.CurrentUserID(ctx))
	}
	go client.Run(handle)
}
