package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pondside/pondside/internal/model"
	"github.com/pondside/pondside/internal/storage"
)

// sellRetries bounds optimistic-lock retries when a watched key changes
// between read and commit.
const sellRetries = 3

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

// Credential operations

func (s *Storage) SaveCredentials(ctx context.Context, creds *model.Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, credentialsKey(creds.Name), data, 0).Err()
}

func (s *Storage) GetCredentials(ctx context.Context, name model.PlayerName) (*model.Credentials, error) {
	data, err := s.client.Get(ctx, credentialsKey(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var creds model.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	row := *player
	row.Inventory = nil // inventory rows are stored separately
	data, err := json.Marshal(&row)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, playerKey(player.Name), data, 0).Err()
}

func (s *Storage) GetPlayer(ctx context.Context, name model.PlayerName) (*model.Player, error) {
	data, err := s.client.Get(ctx, playerKey(name)).Bytes()
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

// Inventory operations

func (s *Storage) AddInventoryItem(ctx context.Context, name model.PlayerName, item model.InventoryItem) error {
	exists, err := s.client.Exists(ctx, playerKey(name)).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return model.ErrPlayerNotFound
	}

	data, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, inventoryKey(name), item.ID, data).Err()
}

func (s *Storage) GetInventory(ctx context.Context, name model.PlayerName) ([]model.InventoryItem, error) {
	rows, err := s.client.HGetAll(ctx, inventoryKey(name)).Result()
	if err != nil {
		return nil, err
	}

	items := make([]model.InventoryItem, 0, len(rows))
	for _, raw := range rows {
		var item model.InventoryItem
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	// Hash fields come back unordered; present oldest catch first.
	sort.Slice(items, func(i, j int) bool {
		if items[i].CaughtAt.Equal(items[j].CaughtAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CaughtAt.Before(items[j].CaughtAt)
	})
	return items, nil
}

func (s *Storage) SellInventoryItem(ctx context.Context, name model.PlayerName, itemID string) (int, *model.InventoryItem, error) {
	pKey := playerKey(name)
	iKey := inventoryKey(name)

	var gold int
	var removed *model.InventoryItem

	sell := func(tx *redis.Tx) error {
		playerData, err := tx.Get(ctx, pKey).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrPlayerNotFound
			}
			return err
		}
		var player model.Player
		if err := json.Unmarshal(playerData, &player); err != nil {
			return err
		}

		itemData, err := tx.HGet(ctx, iKey, itemID).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrItemNotFound
			}
			return err
		}
		var item model.InventoryItem
		if err := json.Unmarshal(itemData, &item); err != nil {
			return err
		}

		player.Gold += item.Fish.Value
		updated, err := json.Marshal(&player)
		if err != nil {
			return err
		}

		// Item removal and gold credit land in one MULTI/EXEC.
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HDel(ctx, iKey, itemID)
			pipe.Set(ctx, pKey, updated, 0)
			return nil
		})
		if err != nil {
			return err
		}

		gold = player.Gold
		removed = &item
		return nil
	}

	var err error
	for attempt := 0; attempt < sellRetries; attempt++ {
		err = s.client.Watch(ctx, sell, pKey, iKey)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return 0, nil, err
	}
	return gold, removed, nil
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	// Row and expiry index land together.
	pipe := s.client.Pipeline()
	pipe.Set(ctx, sessionKey(session.Token), data, 0)
	pipe.ZAdd(ctx, sessionExpiryIndexKey(), redis.Z{
		Score:  float64(session.ExpiresAt.Unix()),
		Member: session.Token,
	})
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetSession(ctx context.Context, token string) (*model.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrInvalidSession
		}
		return nil, err
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Storage) DeleteSession(ctx context.Context, token string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, sessionKey(token))
	pipe.ZRem(ctx, sessionExpiryIndexKey(), token)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	cutoff := strconv.FormatInt(now.Unix(), 10)
	tokens, err := s.client.ZRangeByScore(ctx, sessionExpiryIndexKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: cutoff,
	}).Result()
	if err != nil {
		return 0, err
	}
	if len(tokens) == 0 {
		return 0, nil
	}

	pipe := s.client.Pipeline()
	for _, token := range tokens {
		pipe.Del(ctx, sessionKey(token))
	}
	pipe.ZRemRangeByScore(ctx, sessionExpiryIndexKey(), "-inf", cutoff)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return len(tokens), nil
}

// Chat operations

func (s *Storage) AppendChatMessage(ctx context.Context, msg *model.ChatMessage) (*model.ChatMessage, error) {
	id, err := s.client.Incr(ctx, chatSeqKey()).Result()
	if err != nil {
		return nil, err
	}

	stored := *msg
	stored.ID = id
	data, err := json.Marshal(&stored)
	if err != nil {
		return nil, err
	}

	key := chatKey(msg.Area)
	pipe := s.client.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(id), Member: data})
	// Keep only the newest cap entries; ids order the cutoff.
	pipe.ZRemRangeByRank(ctx, key, 0, int64(-(s.cfg.ChatHistoryCap + 1)))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *Storage) RecentChatMessages(ctx context.Context, area model.AreaID, limit int) ([]model.ChatMessage, error) {
	if limit <= 0 {
		limit = s.cfg.ChatHistoryCap
	}
	rows, err := s.client.ZRange(ctx, chatKey(area), int64(-limit), -1).Result()
	if err != nil {
		return nil, err
	}

	messages := make([]model.ChatMessage, 0, len(rows))
	for _, raw := range rows {
		var msg model.ChatMessage
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}
