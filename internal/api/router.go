package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/cardroomhq/cardroom/internal/api/handler"
	"github.com/cardroomhq/cardroom/internal/api/middleware"
	"github.com/cardroomhq/cardroom/internal/services/auth"
	"github.com/cardroomhq/cardroom/internal/services/ledger"
	"github.com/cardroomhq/cardroom/internal/services/stats"
	"github.com/cardroomhq/cardroom/internal/services/table"
	"github.com/cardroomhq/cardroom/internal/storage"
	"github.com/cardroomhq/cardroom/internal/ws"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger        *slog.Logger
	AuthService   *auth.Service
	Registry      *table.Registry
	LedgerService ledger.ServiceInterface
	StatsService  stats.ServiceInterface
	Storage       storage.Storage
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	playerHandler := handler.NewPlayerHandler(cfg.AuthService, cfg.LedgerService)
	tableHandler := handler.NewTableHandler(cfg.Registry)
	statsHandler := handler.NewStatsHandler(cfg.StatsService, cfg.LedgerService, cfg.Storage)
	wsHandler := ws.NewHandler(cfg.Registry, cfg.Logger)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Player routes (no auth required for creating players/logging in)
	api.HandleFunc("/players/guest", playerHandler.CreateGuest).Methods(http.MethodPost)
	api.HandleFunc("/players/register", playerHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/players/login", playerHandler.Login).Methods(http.MethodPost)

	// Protected player routes
	playerProtected := api.PathPrefix("/players").Subrouter()
	playerProtected.Use(authMiddleware)
	playerProtected.HandleFunc("/logout", playerHandler.Logout).Methods(http.MethodPost)
	playerProtected.HandleFunc("/me", playerHandler.GetMe).Methods(http.MethodGet)
	playerProtected.HandleFunc("/me/stats", statsHandler.GetMyStats).Methods(http.MethodGet)
	playerProtected.HandleFunc("/me/wagers", statsHandler.GetMyWagers).Methods(http.MethodGet)

	// Table routes (all require auth)
	tables := api.PathPrefix("/tables").Subrouter()
	tables.Use(authMiddleware)
	tables.HandleFunc("", tableHandler.Create).Methods(http.MethodPost)
	tables.HandleFunc("", tableHandler.List).Methods(http.MethodGet)
	tables.HandleFunc("/join", tableHandler.JoinPublic).Methods(http.MethodPost)
	tables.HandleFunc("/{id}", tableHandler.Get).Methods(http.MethodGet)

	// Leaderboard (auth'd like everything else player-facing)
	leaderboard := api.PathPrefix("/leaderboard").Subrouter()
	leaderboard.Use(authMiddleware)
	leaderboard.HandleFunc("", statsHandler.GetLeaderboard).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Game WebSocket; the session token rides the Authorization header or
	// session cookie, same as the REST surface
	game := r.PathPrefix("/api/ws").Subrouter()
	game.Use(recoveryMiddleware)
	game.Use(loggingMiddleware)
	game.Use(authMiddleware)
	game.HandleFunc("/{variant}/{table_id}", wsHandler.ServeGame).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
