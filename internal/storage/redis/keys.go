package redis

import (
	"fmt"

	"github.com/pondside/pondside/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "pondside"

// Key generation functions for each entity type

// credentialsKey returns the Redis key for a player's credentials row
func credentialsKey(name model.PlayerName) string {
	return fmt.Sprintf("%s:creds:%s", keyPrefix, name.Key())
}

// playerKey returns the Redis key for a player's progress row
func playerKey(name model.PlayerName) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, name.Key())
}

// inventoryKey returns the Redis key for a player's inventory hash
// (field = item id, value = JSON item)
func inventoryKey(name model.PlayerName) string {
	return fmt.Sprintf("%s:inv:%s", keyPrefix, name.Key())
}

// sessionKey returns the Redis key for a session row
func sessionKey(token string) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, token)
}

// sessionExpiryIndexKey returns the Redis key for the token -> expiry ZSET
// used by the expiry sweep
func sessionExpiryIndexKey() string {
	return fmt.Sprintf("%s:idx:session_expiry", keyPrefix)
}

// chatKey returns the Redis key for an area's chat history ZSET
// (score = message id, member = JSON message)
func chatKey(area model.AreaID) string {
	return fmt.Sprintf("%s:chat:%s", keyPrefix, area)
}

// chatSeqKey returns the Redis key for the chat message id counter
func chatSeqKey() string {
	return fmt.Sprintf("%s:chat_seq", keyPrefix)
}
