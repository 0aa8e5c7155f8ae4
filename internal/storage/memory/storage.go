package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/cardroomhq/cardroom/internal/model"
	"github.com/cardroomhq/cardroom/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	players           map[model.PlayerID]*model.Player
	registeredPlayers map[model.PlayerID]*model.RegisteredPlayer
	emailIndex        map[string]model.PlayerID
	balances          map[model.PlayerID]int64
	wagers            map[model.PlayerID][]*model.Wager
	stats             map[model.PlayerID]*model.PlayerStats
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players:           make(map[model.PlayerID]*model.Player),
		registeredPlayers: make(map[model.PlayerID]*model.RegisteredPlayer),
		emailIndex:        make(map[string]model.PlayerID),
		balances:          make(map[model.PlayerID]int64),
		wagers:            make(map[model.PlayerID][]*model.Wager),
		stats:             make(map[model.PlayerID]*model.PlayerStats),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[player.ID] = player
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return player, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.players, id)
	delete(s.balances, id)
	return nil
}

// Registered player operations

func (s *Storage) SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registeredPlayers[rp.PlayerID] = rp
	s.emailIndex[rp.Email] = rp.PlayerID
	return nil
}

func (s *Storage) GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rp, ok := s.registeredPlayers[playerID]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return rp, nil
}

func (s *Storage) GetRegisteredPlayerByEmail(ctx context.Context, email string) (*model.RegisteredPlayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	playerID, ok := s.emailIndex[email]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	rp, ok := s.registeredPlayers[playerID]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return rp, nil
}

// Balance operations

func (s *Storage) SetBalance(ctx context.Context, id model.PlayerID, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[id] = amount
	return nil
}

func (s *Storage) GetBalance(ctx context.Context, id model.PlayerID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	balance, ok := s.balances[id]
	if !ok {
		return 0, model.ErrAccountNotFound
	}
	return balance, nil
}

func (s *Storage) AdjustBalance(ctx context.Context, id model.PlayerID, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	balance, ok := s.balances[id]
	if !ok {
		return 0, model.ErrAccountNotFound
	}
	if balance+delta < 0 {
		return balance, model.ErrInsufficientFunds
	}
	s.balances[id] = balance + delta
	return s.balances[id], nil
}

// Wager operations

func (s *Storage) SaveWager(ctx context.Context, wager *model.Wager) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wagers[wager.PlayerID] = append(s.wagers[wager.PlayerID], wager)
	return nil
}

func (s *Storage) GetWagersForPlayer(ctx context.Context, id model.PlayerID, limit int) ([]*model.Wager, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.wagers[id]
	// Most recent first
	result := make([]*model.Wager, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		result = append(result, all[i])
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

// Stats operations

func (s *Storage) IncrementStats(ctx context.Context, id model.PlayerID, wagered, won int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stats[id]
	if !ok {
		st = &model.PlayerStats{PlayerID: id}
		s.stats[id] = st
	}
	st.RoundsPlayed++
	st.TotalWagered += wagered
	st.TotalWon += won
	st.Net += won - wagered
	return nil
}

func (s *Storage) GetPlayerStats(ctx context.Context, id model.PlayerID) (*model.PlayerStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stats[id]
	if !ok {
		return &model.PlayerStats{PlayerID: id}, nil
	}
	copied := *st
	return &copied, nil
}

func (s *Storage) TopPlayersByNet(ctx context.Context, limit int) ([]*model.PlayerStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*model.PlayerStats, 0, len(s.stats))
	for _, st := range s.stats {
		copied := *st
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Net != result[j].Net {
			return result[i].Net > result[j].Net
		}
		return result[i].PlayerID < result[j].PlayerID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
