package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/cardroomhq/cardroom/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.GuestPlayerTTL = time.Hour
	cfg.WagerTTL = time.Hour

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

// Player tests

func (s *StorageSuite) TestSaveAndGetPlayer() {
	player := &model.Player{
		ID:        "player-1",
		Username:  "Alice",
		IsGuest:   false,
		CreatedAt: time.Now().UTC(),
	}

	err := s.storage.SavePlayer(s.ctx, player)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetPlayer(s.ctx, "player-1")
	s.Require().NoError(err)
	s.Equal(player.ID, retrieved.ID)
	s.Equal(player.Username, retrieved.Username)
}

func (s *StorageSuite) TestGuestPlayerHasTTL() {
	player := &model.Player{ID: "guest-1", Username: "Guest", IsGuest: true}

	err := s.storage.SavePlayer(s.ctx, player)
	s.Require().NoError(err)

	ttl := s.mini.TTL(playerKey("guest-1"))
	s.Greater(ttl, time.Duration(0))
}

func (s *StorageSuite) TestGetPlayerNotFound() {
	_, err := s.storage.GetPlayer(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Registered player tests

func (s *StorageSuite) TestRegisteredPlayerEmailIndex() {
	rp := &model.RegisteredPlayer{
		PlayerID:     "player-1",
		Email:        "alice@example.com",
		PasswordHash: "hash123",
	}

	err := s.storage.SaveRegisteredPlayer(s.ctx, rp)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetRegisteredPlayerByEmail(s.ctx, "alice@example.com")
	s.Require().NoError(err)
	s.Equal(rp.PlayerID, retrieved.PlayerID)
}

// Balance tests

func (s *StorageSuite) TestSetAndGetBalance() {
	err := s.storage.SetBalance(s.ctx, "player-1", 2500)
	s.Require().NoError(err)

	balance, err := s.storage.GetBalance(s.ctx, "player-1")
	s.Require().NoError(err)
	s.Equal(int64(2500), balance)
}

func (s *StorageSuite) TestAdjustBalance() {
	_ = s.storage.SetBalance(s.ctx, "player-1", 100)

	balance, err := s.storage.AdjustBalance(s.ctx, "player-1", -40)
	s.Require().NoError(err)
	s.Equal(int64(60), balance)
}

func (s *StorageSuite) TestAdjustBalanceRejectsOverdraw() {
	_ = s.storage.SetBalance(s.ctx, "player-1", 100)

	_, err := s.storage.AdjustBalance(s.ctx, "player-1", -200)
	s.ErrorIs(err, model.ErrInsufficientFunds)

	balance, err := s.storage.GetBalance(s.ctx, "player-1")
	s.Require().NoError(err)
	s.Equal(int64(100), balance)
}

func (s *StorageSuite) TestAdjustBalanceNoAccount() {
	_, err := s.storage.AdjustBalance(s.ctx, "nonexistent", 10)
	s.ErrorIs(err, model.ErrAccountNotFound)
}

// Wager tests

func (s *StorageSuite) TestSaveAndGetWagers() {
	for i := 0; i < 3; i++ {
		err := s.storage.SaveWager(s.ctx, &model.Wager{
			ID:       string(rune('a' + i)),
			PlayerID: "player-1",
			TableID:  "table-1",
			Variant:  model.VariantBaccarat,
			Amount:   int64(10 * (i + 1)),
		})
		s.Require().NoError(err)
	}

	wagers, err := s.storage.GetWagersForPlayer(s.ctx, "player-1", 0)
	s.Require().NoError(err)
	s.Require().Len(wagers, 3)
	s.Equal(int64(30), wagers[0].Amount)
}

func (s *StorageSuite) TestWagerHistoryIsCapped() {
	cfg := DefaultConfig()
	cfg.WagerHistoryLen = 2
	cfg.WagerTTL = time.Hour
	client := redis.NewClient(&redis.Options{Addr: s.mini.Addr()})
	capped := NewWithClient(client, cfg)

	for i := 0; i < 4; i++ {
		_ = capped.SaveWager(s.ctx, &model.Wager{PlayerID: "player-1", Amount: int64(i)})
	}

	wagers, err := capped.GetWagersForPlayer(s.ctx, "player-1", 0)
	s.Require().NoError(err)
	s.Len(wagers, 2)
}

// Stats tests

func (s *StorageSuite) TestIncrementAndGetStats() {
	err := s.storage.IncrementStats(s.ctx, "player-1", 100, 250)
	s.Require().NoError(err)

	st, err := s.storage.GetPlayerStats(s.ctx, "player-1")
	s.Require().NoError(err)
	s.Equal(int64(1), st.RoundsPlayed)
	s.Equal(int64(100), st.TotalWagered)
	s.Equal(int64(250), st.TotalWon)
	s.Equal(int64(150), st.Net)
}

func (s *StorageSuite) TestTopPlayersByNet() {
	_ = s.storage.IncrementStats(s.ctx, "winner", 100, 400)
	_ = s.storage.IncrementStats(s.ctx, "loser", 100, 0)

	top, err := s.storage.TopPlayersByNet(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(top, 2)
	s.Equal(model.PlayerID("winner"), top[0].PlayerID)
	s.Equal(model.PlayerID("loser"), top[1].PlayerID)
}
