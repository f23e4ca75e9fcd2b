package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	wsAdapter "github.com/gamemod/support-desk/internal/adapters/primary/websocket"
	"github.com/gamemod/support-desk/internal/config"
	"github.com/gorilla/websocket"
)

// WebSocketHandler upgrades connections onto the live event feed
type WebSocketHandler struct {
	hub      *wsAdapter.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler creates a new WebSocket handler. Allowed origins
// follow the CORS configuration.
func NewWebSocketHandler(hub *wsAdapter.Hub, cfg *config.Config, logger *slog.Logger) *WebSocketHandler {
	handler := &WebSocketHandler{
		hub:    hub,
		logger: logger.With("handler", "websocket"),
	}

	handler.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		CheckOrigin:     handler.makeOriginChecker(cfg.CORS.AllowedOrigins),
	}

	return handler
}

// makeOriginChecker accepts exact hosts, "*.example.com" wildcards and "*".
func (h *WebSocketHandler) makeOriginChecker(allowedOrigins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// No origin header (same-origin request or non-browser client)
		if origin == "" {
			return true
		}

		parsedOrigin, err := url.Parse(origin)
		if err != nil {
			h.logger.Warn("failed to parse websocket origin", "origin", origin, "error", err)
			return false
		}
		originHost := parsedOrigin.Host

		for _, allowed := range allowedOrigins {
			if allowed == "*" {
				return true
			}

			allowedHost := allowed
			if parsed, err := url.Parse(allowed); err == nil && parsed.Host != "" {
				allowedHost = parsed.Host
			}

			if strings.HasPrefix(allowedHost, "*.") {
				suffix := allowedHost[1:]
				if strings.HasSuffix(originHost, suffix) || originHost == allowedHost[2:] {
					return true
				}
			} else if originHost == allowedHost {
				return true
			}
		}

		h.logger.Warn("websocket connection rejected due to origin",
			"origin", origin,
			"remote_addr", r.RemoteAddr,
		)
		return false
	}
}

// ServeHTTP handles WebSocket connection requests
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written a 4xx response
		h.logger.WarnContext(r.Context(), "failed to upgrade websocket connection", "error", err)
		return
	}

	client := wsAdapter.NewClient(h.hub, conn, h.logger)
	if !h.hub.Join(client) {
		h.logger.WarnContext(r.Context(), "websocket hub stopped, closing connection")
		_ = conn.Close()
		return
	}

	h.logger.InfoContext(r.Context(), "websocket connection established",
		"client_id", client.ID,
		"remote_addr", r.RemoteAddr,
	)

	go client.WritePump()
	go client.ReadPump()
}
