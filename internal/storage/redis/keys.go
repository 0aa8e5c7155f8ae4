package redis

import (
	"fmt"

	"github.com/cardroomhq/cardroom/internal/model"
)

// Key prefix for all cardroom data
const keyPrefix = "cardroom"

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// registeredPlayerKey returns the Redis key for a RegisteredPlayer
func registeredPlayerKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:registered_player:%s", keyPrefix, playerID)
}

// emailIndexKey returns the Redis key for the email -> player_id index
func emailIndexKey(email string) string {
	return fmt.Sprintf("%s:idx:email:%s", keyPrefix, email)
}

// balanceKey returns the Redis key for a player's chip balance
func balanceKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:balance:%s", keyPrefix, id)
}

// wagersKey returns the Redis key for the LIST of a player's wagers
func wagersKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:wagers:%s", keyPrefix, id)
}

// statsKey returns the Redis key for a player's stats hash
func statsKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:stats:%s", keyPrefix, id)
}

// leaderboardKey returns the Redis key for the net-winnings sorted set
func leaderboardKey() string {
	return fmt.Sprintf("%s:leaderboard:net", keyPrefix)
}
