package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cardroomhq/cardroom/internal/model"
	"github.com/cardroomhq/cardroom/internal/storage"
)

// adjustBalanceScript applies a delta to a balance atomically, rejecting
// adjustments that would take the balance negative. Two tables settling the
// same player concurrently must never overdraw.
var adjustBalanceScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return redis.error_reply("no_account")
end
local balance = tonumber(redis.call("GET", KEYS[1]))
local delta = tonumber(ARGV[1])
if balance + delta < 0 then
	return redis.error_reply("insufficient_funds")
end
return redis.call("INCRBY", KEYS[1], delta)
`)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	key := playerKey(player.ID)

	// Apply TTL only for guest players
	var ttl time.Duration
	if player.IsGuest {
		ttl = s.cfg.GuestPlayerTTL
	}

	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	data, err := s.client.Get(ctx, playerKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, playerKey(id))
	pipe.Del(ctx, balanceKey(id))
	_, err := pipe.Exec(ctx)
	return err
}

// Registered player operations

func (s *Storage) SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error {
	data, err := json.Marshal(rp)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.Pipeline()
	pipe.Set(ctx, registeredPlayerKey(rp.PlayerID), data, 0) // No TTL
	pipe.Set(ctx, emailIndexKey(rp.Email), string(rp.PlayerID), 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error) {
	data, err := s.client.Get(ctx, registeredPlayerKey(playerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var rp model.RegisteredPlayer
	if err := json.Unmarshal(data, &rp); err != nil {
		return nil, err
	}
	return &rp, nil
}

func (s *Storage) GetRegisteredPlayerByEmail(ctx context.Context, email string) (*model.RegisteredPlayer, error) {
	playerIDStr, err := s.client.Get(ctx, emailIndexKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	return s.GetRegisteredPlayer(ctx, model.PlayerID(playerIDStr))
}

// Balance operations

func (s *Storage) SetBalance(ctx context.Context, id model.PlayerID, amount int64) error {
	return s.client.Set(ctx, balanceKey(id), amount, 0).Err()
}

func (s *Storage) GetBalance(ctx context.Context, id model.PlayerID) (int64, error) {
	val, err := s.client.Get(ctx, balanceKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, model.ErrAccountNotFound
		}
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

func (s *Storage) AdjustBalance(ctx context.Context, id model.PlayerID, delta int64) (int64, error) {
	result, err := adjustBalanceScript.Run(ctx, s.client, []string{balanceKey(id)}, delta).Int64()
	if err != nil {
		switch {
		case strings.Contains(err.Error(), "no_account"):
			return 0, model.ErrAccountNotFound
		case strings.Contains(err.Error(), "insufficient_funds"):
			return 0, model.ErrInsufficientFunds
		}
		return 0, err
	}
	return result, nil
}

// Wager operations

func (s *Storage) SaveWager(ctx context.Context, wager *model.Wager) error {
	data, err := json.Marshal(wager)
	if err != nil {
		return err
	}

	key := wagersKey(wager.PlayerID)

	// Newest-first list, capped so history cannot grow without bound
	pipe := s.client.Pipeline()
	pipe.LPush(ctx, key, data)
	if s.cfg.WagerHistoryLen > 0 {
		pipe.LTrim(ctx, key, 0, int64(s.cfg.WagerHistoryLen-1))
	}
	pipe.Expire(ctx, key, s.cfg.WagerTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetWagersForPlayer(ctx context.Context, id model.PlayerID, limit int) ([]*model.Wager, error) {
	end := int64(-1)
	if limit > 0 {
		end = int64(limit - 1)
	}

	values, err := s.client.LRange(ctx, wagersKey(id), 0, end).Result()
	if err != nil {
		return nil, err
	}

	wagers := make([]*model.Wager, 0, len(values))
	for _, val := range values {
		var w model.Wager
		if err := json.Unmarshal([]byte(val), &w); err != nil {
			continue // Skip invalid data
		}
		wagers = append(wagers, &w)
	}
	return wagers, nil
}

// Stats operations

func (s *Storage) IncrementStats(ctx context.Context, id model.PlayerID, wagered, won int64) error {
	key := statsKey(id)

	pipe := s.client.Pipeline()
	pipe.HIncrBy(ctx, key, "rounds", 1)
	pipe.HIncrBy(ctx, key, "wagered", wagered)
	pipe.HIncrBy(ctx, key, "won", won)
	pipe.ZIncrBy(ctx, leaderboardKey(), float64(won-wagered), string(id))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) GetPlayerStats(ctx context.Context, id model.PlayerID) (*model.PlayerStats, error) {
	fields, err := s.client.HGetAll(ctx, statsKey(id)).Result()
	if err != nil {
		return nil, err
	}
	return statsFromHash(id, fields), nil
}

func (s *Storage) TopPlayersByNet(ctx context.Context, limit int) ([]*model.PlayerStats, error) {
	if limit <= 0 {
		limit = 10
	}

	ids, err := s.client.ZRevRange(ctx, leaderboardKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	result := make([]*model.PlayerStats, 0, len(ids))
	for _, idStr := range ids {
		id := model.PlayerID(idStr)
		fields, err := s.client.HGetAll(ctx, statsKey(id)).Result()
		if err != nil {
			return nil, err
		}
		result = append(result, statsFromHash(id, fields))
	}
	return result, nil
}

func statsFromHash(id model.PlayerID, fields map[string]string) *model.PlayerStats {
	parse := func(field string) int64 {
		v, _ := strconv.ParseInt(fields[field], 10, 64)
		return v
	}
	st := &model.PlayerStats{
		PlayerID:     id,
		RoundsPlayed: parse("rounds"),
		TotalWagered: parse("wagered"),
		TotalWon:     parse("won"),
	}
	st.Net = st.TotalWon - st.TotalWagered
	return st
}
