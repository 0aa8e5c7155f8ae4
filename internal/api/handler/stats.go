package handler

import (
	"net/http"
	"strconv"

	"github.com/cardroomhq/cardroom/internal/api/middleware"
	"github.com/cardroomhq/cardroom/internal/api/response"
	"github.com/cardroomhq/cardroom/internal/services/ledger"
	"github.com/cardroomhq/cardroom/internal/services/stats"
	"github.com/cardroomhq/cardroom/internal/storage"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100

	defaultLeaderboardSize = 10
	maxLeaderboardSize     = 50
)

// StatsHandler serves wager history, aggregate stats, and the leaderboard
type StatsHandler struct {
	statsService stats.ServiceInterface
	ledger       ledger.ServiceInterface
	storage      storage.Storage
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(statsService stats.ServiceInterface, ledger ledger.ServiceInterface, storage storage.Storage) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
		ledger:       ledger,
		storage:      storage,
	}
}

// GetMyStats handles GET /api/v1/players/me/stats
func (h *StatsHandler) GetMyStats(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	playerStats, err := h.statsService.PlayerStats(r.Context(), player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.StatsFromModel(playerStats))
}

// GetMyWagers handles GET /api/v1/players/me/wagers
func (h *StatsHandler) GetMyWagers(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	limit := queryLimit(r, "limit", defaultHistoryLimit, maxHistoryLimit)

	wagers, err := h.ledger.WagerHistory(r.Context(), player.ID, limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	resp := make([]response.Wager, 0, len(wagers))
	for _, wager := range wagers {
		resp = append(resp, response.WagerFromModel(wager))
	}
	response.JSON(w, http.StatusOK, resp)
}

// GetLeaderboard handles GET /api/v1/leaderboard
func (h *StatsHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, "limit", defaultLeaderboardSize, maxLeaderboardSize)

	top, err := h.statsService.Leaderboard(r.Context(), limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	entries := make([]response.LeaderboardEntry, 0, len(top))
	for _, playerStats := range top {
		entry := response.LeaderboardEntry{
			PlayerID: string(playerStats.PlayerID),
			Stats:    response.StatsFromModel(playerStats),
		}
		// Name lookups are best-effort; a deleted player still holds their rank
		if player, err := h.storage.GetPlayer(r.Context(), playerStats.PlayerID); err == nil {
			entry.Username = player.Username
		}
		entries = append(entries, entry)
	}

	response.JSON(w, http.StatusOK, entries)
}

// queryLimit parses a bounded positive integer query parameter
func queryLimit(r *http.Request, name string, fallback, max int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	if n > max {
		return max
	}
	return n
}
