package table

import (
	"time"

	"github.com/cardroomhq/cardroom/internal/model"
)

// Config holds the timing knobs for a single session
type Config struct {
	// BettingWindow is how long the betting phase stays open
	BettingWindow time.Duration

	// TurnTimeout is the per-turn deadline in blackjack; expiry forces a stand
	TurnTimeout time.Duration

	// RevealDelay spaces out baccarat card reveals
	RevealDelay time.Duration

	// SettlementPause is the display pause between settlement and the next
	// betting window
	SettlementPause time.Duration

	// LedgerRetryBackoff is the wait between settlement retries when the
	// ledger is unavailable
	LedgerRetryBackoff time.Duration
}

// DefaultConfig returns the standard table timings for a variant. Baccarat
// gets a longer betting window since bets accumulate across three outcomes.
func DefaultConfig(variant model.Variant) Config {
	if variant == model.VariantBaccarat {
		return Config{
			BettingWindow:      15 * time.Second,
			RevealDelay:        3 * time.Second,
			SettlementPause:    5 * time.Second,
			LedgerRetryBackoff: 2 * time.Second,
		}
	}
	return Config{
		BettingWindow:      5 * time.Second,
		TurnTimeout:        5 * time.Second,
		SettlementPause:    2 * time.Second,
		LedgerRetryBackoff: 2 * time.Second,
	}
}

// RegistryConfig holds registry-level settings
type RegistryConfig struct {
	// GraceWindow is how long an empty table is kept alive for reconnects
	// before it is released
	GraceWindow time.Duration

	// Table id generation
	IDLength   int
	IDAlphabet string
}

// DefaultRegistryConfig returns sensible registry defaults
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		GraceWindow: 30 * time.Second,
		IDLength:    5,
		IDAlphabet:  "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789",
	}
}
