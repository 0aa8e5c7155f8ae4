package model

import "strings"

// TableID uniquely identifies a table (lobby) across the system
type TableID string

// Variant selects the game dealt at a table
type Variant string

const (
	VariantBlackjack Variant = "blackjack"
	VariantBaccarat  Variant = "baccarat"
)

// ParseVariant maps a client-supplied game name to a variant. Matching is
// case-insensitive since clients spell them "BlackJack" and "Baccarat".
func ParseVariant(s string) (Variant, bool) {
	switch strings.ToLower(s) {
	case string(VariantBlackjack):
		return VariantBlackjack, true
	case string(VariantBaccarat):
		return VariantBaccarat, true
	default:
		return "", false
	}
}

// Visibility controls whether matchmaking may place strangers at a table
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Table sizes per variant
const (
	BlackjackMaxSeats = 7
	BaccaratMaxSeats  = 14
)

// MaxSeats returns the seat count for a variant
func (v Variant) MaxSeats() int {
	if v == VariantBaccarat {
		return BaccaratMaxSeats
	}
	return BlackjackMaxSeats
}

// Decks returns the shoe size (number of 52-card decks) for a variant
func (v Variant) Decks() int {
	if v == VariantBaccarat {
		return 8
	}
	return 4
}

// Phase represents the current stage of a round
type Phase string

const (
	PhaseWaiting    Phase = "waiting_for_players"
	PhaseBetting    Phase = "betting"
	PhaseDealing    Phase = "dealing"
	PhasePlayerTurn Phase = "player_turn"
	PhasePlayerDraw Phase = "player_draw"
	PhaseBankerDraw Phase = "banker_draw"
	PhaseDealerTurn Phase = "dealer_turn"
	PhaseSettlement Phase = "settlement"
)

// SeatStatus tracks a seat through a round. Settlement is the only place
// the terminal statuses (won/lost/push/blackjack) are assigned.
type SeatStatus string

const (
	SeatStatusStandby   SeatStatus = "standby" // seated but sitting the round out
	SeatStatusPlaying   SeatStatus = "playing"
	SeatStatusStand     SeatStatus = "stand"
	SeatStatusBusted    SeatStatus = "busted"
	SeatStatusWon       SeatStatus = "won"
	SeatStatusLost      SeatStatus = "lost"
	SeatStatusPush      SeatStatus = "push"
	SeatStatusBlackjack SeatStatus = "blackjack"
)

// BetType identifies the outcome a baccarat bet backs
type BetType string

const (
	BetPlayer BetType = "player"
	BetBanker BetType = "banker"
	BetTie    BetType = "tie"
)

// GameResult is the outcome of a baccarat round
type GameResult string

const (
	ResultPlayerWins GameResult = "player_wins"
	ResultBankerWins GameResult = "banker_wins"
	ResultTie        GameResult = "tie"
)

// ActionType identifies a player action relayed to a session
type ActionType string

const (
	ActionBet    ActionType = "bet"
	ActionHit    ActionType = "hit"
	ActionStand  ActionType = "stand"
	ActionDouble ActionType = "double"
	ActionLeave  ActionType = "leave"
)

// Action is a validated, normalized player action. Amount is only meaningful
// for bets; BetType only for baccarat bets.
type Action struct {
	Type    ActionType
	Amount  int64
	BetType BetType
}
