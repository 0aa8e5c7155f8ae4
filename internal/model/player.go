package model

import "time"

// PlayerID uniquely identifies a player across the system
type PlayerID string

// Player represents an account holder who can sit at tables
type Player struct {
	ID             PlayerID
	Username       string
	ProfilePicture int // index into the client's avatar set
	IsGuest        bool
	CreatedAt      time.Time
}

// RegisteredPlayer extends Player with authentication data.
// Stored separately so the password hash never travels with session state.
type RegisteredPlayer struct {
	PlayerID     PlayerID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Wager is the persisted record of one seat's stake in one settled round
type Wager struct {
	ID        string
	PlayerID  PlayerID
	TableID   TableID
	Variant   Variant
	Amount    int64 // total stake debited at bet time
	Payout    int64 // total credited at settlement (0 on a loss)
	Won       bool
	SettledAt time.Time
}

// PlayerStats aggregates a player's settled wagers
type PlayerStats struct {
	PlayerID     PlayerID
	RoundsPlayed int64
	TotalWagered int64
	TotalWon     int64
	Net          int64
}
