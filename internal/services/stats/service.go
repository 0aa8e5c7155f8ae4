package stats

import (
	"context"
	"fmt"

	"github.com/cardroomhq/cardroom/internal/model"
	"github.com/cardroomhq/cardroom/internal/storage"
)

// Service maintains per-player aggregates and the leaderboard
type Service struct {
	storage storage.Storage
}

// New creates a new stats service
func New(storage storage.Storage) *Service {
	return &Service{
		storage: storage,
	}
}

// RecordRound folds one settled wager into the player's aggregates
func (s *Service) RecordRound(ctx context.Context, playerID model.PlayerID, wagered, won int64) error {
	if err := s.storage.IncrementStats(ctx, playerID, wagered, won); err != nil {
		return fmt.Errorf("recording round stats: %w", err)
	}
	return nil
}

// PlayerStats returns a player's lifetime aggregates. Players with no
// recorded rounds get zeroed stats, not an error.
func (s *Service) PlayerStats(ctx context.Context, playerID model.PlayerID) (*model.PlayerStats, error) {
	return s.storage.GetPlayerStats(ctx, playerID)
}

// Leaderboard returns the top players by net winnings
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]*model.PlayerStats, error) {
	return s.storage.TopPlayersByNet(ctx, limit)
}

// Interface for dependency injection
type ServiceInterface interface {
	RecordRound(ctx context.Context, playerID model.PlayerID, wagered, won int64) error
	PlayerStats(ctx context.Context, playerID model.PlayerID) (*model.PlayerStats, error)
	Leaderboard(ctx context.Context, limit int) ([]*model.PlayerStats, error)
}

var _ ServiceInterface = (*Service)(nil)
