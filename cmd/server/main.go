package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"rtc-relay/internal/auth"
	"rtc-relay/internal/config"
	"rtc-relay/internal/database"
	"rtc-relay/internal/handlers"
	"rtc-relay/internal/relay"
	"rtc-relay/internal/services"
	"rtc-relay/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresDB(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize services
	authService := auth.NewService(db, cfg)
	roomService := services.NewRoomService(db, cfg.Chat.HistoryLimit)

	// Initialize the signaling relay
	rl := relay.NewRelay(db)

	// Initialize handlers
	roomHandlers := handlers.NewRoomHandlers(roomService, authService)
	wsHandlers := handlers.NewWebSocketHandlers(authService, rl, cfg.CORS.AllowedOrigins)

	// Setup routes
	mux := http.NewServeMux()
	setupRoutes(mux, roomHandlers, wsHandlers)

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      corsMiddleware(mux, cfg.CORS.AllowedOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	logger.Info("Server started on http://localhost%s", cfg.Server.Port)
	logger.Info("Signaling endpoint: ws://localhost%s/ws/rtc", cfg.Server.Port)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Server shutting down...")
}

func setupRoutes(mux *http.ServeMux, roomHandlers *handlers.RoomHandlers, wsHandlers *handlers.WebSocketHandlers) {
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Room query surface
	mux.HandleFunc("GET /api/rooms/{roomKey}", roomHandlers.GetOrCreateRoom)
	mux.HandleFunc("GET /api/rooms/{roomKey}/participants", roomHandlers.GetParticipants)
	mux.HandleFunc("GET /api/rooms/{roomKey}/messages", roomHandlers.ListMessages)

	// Signaling channel. Kept on its own path so other realtime channels
	// can share the process without message collision.
	mux.HandleFunc("/ws/rtc", wsHandlers.HandleWebSocket)
}

func corsMiddleware(next http.Handler, allowedOrigins []string) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if len(allowedOrigins) == 0 {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		} else if allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
