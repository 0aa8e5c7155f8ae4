package storage

import (
	"context"

	"github.com/cardroomhq/cardroom/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	DeletePlayer(ctx context.Context, id model.PlayerID) error

	// Registered player operations
	SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error
	GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error)
	GetRegisteredPlayerByEmail(ctx context.Context, email string) (*model.RegisteredPlayer, error)

	// Balance operations. AdjustBalance applies delta atomically and fails
	// with model.ErrInsufficientFunds if the result would go negative; the
	// balance is the single source of truth for a player's chips.
	SetBalance(ctx context.Context, id model.PlayerID, amount int64) error
	GetBalance(ctx context.Context, id model.PlayerID) (int64, error)
	AdjustBalance(ctx context.Context, id model.PlayerID, delta int64) (int64, error)

	// Wager operations
	SaveWager(ctx context.Context, wager *model.Wager) error
	GetWagersForPlayer(ctx context.Context, id model.PlayerID, limit int) ([]*model.Wager, error)

	// Stats operations
	IncrementStats(ctx context.Context, id model.PlayerID, wagered, won int64) error
	GetPlayerStats(ctx context.Context, id model.PlayerID) (*model.PlayerStats, error)
	TopPlayersByNet(ctx context.Context, limit int) ([]*model.PlayerStats, error)
}
