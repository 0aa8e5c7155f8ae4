package response

import (
	"time"

	"github.com/cardroomhq/cardroom/internal/model"
	"github.com/cardroomhq/cardroom/internal/services/auth"
	"github.com/cardroomhq/cardroom/internal/services/table"
)

// Player represents a player in API responses
type Player struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	ProfilePicture int    `json:"profile_picture"`
	IsGuest        bool   `json:"is_guest"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:             string(p.ID),
		Username:       p.Username,
		ProfilePicture: p.ProfilePicture,
		IsGuest:        p.IsGuest,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	Player       Player `json:"player"`
	SessionToken string `json:"session_token"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Player:       PlayerFromModel(&s.Player),
		SessionToken: s.Token,
	}
}

// Profile is the authenticated player's own view, with their balance
type Profile struct {
	Player
	Balance int64 `json:"balance"`
}

// Table describes a table for the lobby list
type Table struct {
	ID       string `json:"id"`
	Game     string `json:"game"`
	Phase    string `json:"phase"`
	Seated   int    `json:"seated"`
	MaxSeats int    `json:"max_seats"`
	Public   bool   `json:"public"`
}

// TableFromInfo converts session occupancy info to a response Table
func TableFromInfo(info table.Info) Table {
	return Table{
		ID:       string(info.ID),
		Game:     string(info.Variant),
		Phase:    string(info.Phase),
		Seated:   info.Seated,
		MaxSeats: info.MaxSeats,
		Public:   info.Visibility == model.VisibilityPublic,
	}
}

// Wager represents a settled wager in API responses
type Wager struct {
	ID        string    `json:"id"`
	TableID   string    `json:"table_id"`
	Game      string    `json:"game"`
	Amount    int64     `json:"amount"`
	Payout    int64     `json:"payout"`
	Won       bool      `json:"won"`
	SettledAt time.Time `json:"settled_at"`
}

// WagerFromModel converts a model.Wager
func WagerFromModel(w *model.Wager) Wager {
	return Wager{
		ID:        w.ID,
		TableID:   string(w.TableID),
		Game:      string(w.Variant),
		Amount:    w.Amount,
		Payout:    w.Payout,
		Won:       w.Won,
		SettledAt: w.SettledAt,
	}
}

// Stats aggregates a player's settled wagers
type Stats struct {
	RoundsPlayed int64 `json:"rounds_played"`
	TotalWagered int64 `json:"total_wagered"`
	TotalWon     int64 `json:"total_won"`
	Net          int64 `json:"net"`
}

// StatsFromModel converts model.PlayerStats
func StatsFromModel(s *model.PlayerStats) Stats {
	return Stats{
		RoundsPlayed: s.RoundsPlayed,
		TotalWagered: s.TotalWagered,
		TotalWon:     s.TotalWon,
		Net:          s.Net,
	}
}

// LeaderboardEntry is one row of the net-winnings leaderboard
type LeaderboardEntry struct {
	PlayerID string `json:"player_id"`
	Username string `json:"username,omitempty"`
	Stats
}
