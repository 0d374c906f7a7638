package handlers

import (
	"net/http"

	"rtc-relay/internal/auth"
	"rtc-relay/internal/relay"
	"rtc-relay/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type WebSocketHandlers struct {
	authService *auth.Service
	relay       *relay.Relay
	upgrader    websocket.Upgrader
}

func NewWebSocketHandlers(authService *auth.Service, rl *relay.Relay, allowedOrigins []string) *WebSocketHandlers {
	return &WebSocketHandlers{
		authService: authService,
		relay:       rl,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowedOrigins []string) func(*http.Request) bool {
	if len(allowedOrigins) == 0 {
		return func(*http.Request) bool { return true }
	}
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}
	return func(r *http.Request) bool {
		return allowed[r.Header.Get("Origin")]
	}
}

// HandleWebSocket runs the identity gate before anything else: an invalid
// credential is refused before the upgrade, so no room logic ever sees the
// connection.
func (h *WebSocketHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	identity, err := h.authService.Authenticate(r.Context(), auth.TokenFromRequest(r))
	if err != nil {
		logger.Debug("Connection refused: %v", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Upgrade error: %v", err)
		return
	}

	client := relay.NewClient(uuid.NewString(), *identity, conn, h.relay)
	h.relay.Admit(client)

	go client.WritePump()
	go client.ReadPump()
}
