package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/cardroomhq/cardroom/internal/model"
	"github.com/cardroomhq/cardroom/internal/storage"
)

// Service is the authoritative record of player chip balances. Every money
// movement in the system goes through Debit and Credit; sessions never touch
// balances directly.
type Service struct {
	storage storage.Storage
}

// New creates a new ledger service
func New(storage storage.Storage) *Service {
	return &Service{
		storage: storage,
	}
}

// OpenAccount creates an account with the given starting balance
func (s *Service) OpenAccount(ctx context.Context, playerID model.PlayerID, initial int64) error {
	if err := s.storage.SetBalance(ctx, playerID, initial); err != nil {
		return fmt.Errorf("%w: %w", model.ErrLedgerUnavailable, err)
	}
	return nil
}

// Balance returns the current balance for a player
func (s *Service) Balance(ctx context.Context, playerID model.PlayerID) (int64, error) {
	balance, err := s.storage.GetBalance(ctx, playerID)
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %w", model.ErrLedgerUnavailable, err)
	}
	return balance, nil
}

// Debit removes amount from a player's balance, failing with
// ErrInsufficientFunds if the balance would go negative. Returns the new
// balance.
func (s *Service) Debit(ctx context.Context, playerID model.PlayerID, amount int64) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("%w: negative debit amount %d", model.ErrInvalidAction, amount)
	}
	return s.adjust(ctx, playerID, -amount)
}

// Credit adds amount to a player's balance and returns the new balance
func (s *Service) Credit(ctx context.Context, playerID model.PlayerID, amount int64) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("%w: negative credit amount %d", model.ErrInvalidAction, amount)
	}
	return s.adjust(ctx, playerID, amount)
}

func (s *Service) adjust(ctx context.Context, playerID model.PlayerID, delta int64) (int64, error) {
	balance, err := s.storage.AdjustBalance(ctx, playerID, delta)
	if err != nil {
		if errors.Is(err, model.ErrInsufficientFunds) || errors.Is(err, model.ErrAccountNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %w", model.ErrLedgerUnavailable, err)
	}
	return balance, nil
}

// RecordWager persists a settled wager for history and stats
func (s *Service) RecordWager(ctx context.Context, wager *model.Wager) error {
	if err := s.storage.SaveWager(ctx, wager); err != nil {
		return fmt.Errorf("%w: %w", model.ErrLedgerUnavailable, err)
	}
	return nil
}

// WagerHistory returns a player's most recent wagers, newest first
func (s *Service) WagerHistory(ctx context.Context, playerID model.PlayerID, limit int) ([]*model.Wager, error) {
	wagers, err := s.storage.GetWagersForPlayer(ctx, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrLedgerUnavailable, err)
	}
	return wagers, nil
}

// Interface for dependency injection
type ServiceInterface interface {
	OpenAccount(ctx context.Context, playerID model.PlayerID, initial int64) error
	Balance(ctx context.Context, playerID model.PlayerID) (int64, error)
	Debit(ctx context.Context, playerID model.PlayerID, amount int64) (int64, error)
	Credit(ctx context.Context, playerID model.PlayerID, amount int64) (int64, error)
	RecordWager(ctx context.Context, wager *model.Wager) error
	WagerHistory(ctx context.Context, playerID model.PlayerID, limit int) ([]*model.Wager, error)
}

var _ ServiceInterface = (*Service)(nil)
