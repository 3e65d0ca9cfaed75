package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/physical-edu/physical-backend/internal/middleware"
	"github.com/physical-edu/physical-backend/internal/response"
	ws "github.com/physical-edu/physical-backend/internal/websocket"
	"github.com/rs/zerolog"
)

// OriginAllowed reports whether origin is in allowed or ends with one of
// suffixes. With neither configured every origin is permitted.
func OriginAllowed(origin string, allowed, suffixes []string) bool {
	if len(allowed) == 0 && len(suffixes) == 0 {
		return true
	}
	for _, a := range allowed {
		if strings.EqualFold(a, origin) {
			return true
		}
	}
	lower := strings.ToLower(origin)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

// buildUpgrader creates a WebSocket upgrader with origin validation.
// Requests without an Origin header are not browser requests and pass.
func buildUpgrader(allowed, suffixes []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			return OriginAllowed(origin, allowed, suffixes)
		},
	}
}

// WSHandler serves the live review feed.
type WSHandler struct {
	hub      *ws.Hub
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(hub *ws.Hub, log zerolog.Logger, allowedOrigins, allowedSuffixes []string) *WSHandler {
	return &WSHandler{
		hub:      hub,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins, allowedSuffixes),
	}
}

// ReviewStream godoc
// WS /ws/review?token=...
// Upgrades to WebSocket and streams question and teacher review events
// until the client disconnects.
func (h *WSHandler) ReviewStream(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	h.hub.Serve(conn, user)
}
