package memory

import (
	"context"
	"sync"
	"time"

	"github.com/pondside/pondside/internal/model"
	"github.com/pondside/pondside/internal/storage"
)

// DefaultChatHistoryCap bounds per-area chat retention.
const DefaultChatHistoryCap = 1000

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	credentials map[string]*model.Credentials
	players     map[string]*model.Player
	inventories map[string][]model.InventoryItem
	sessions    map[string]*model.Session
	chat        map[model.AreaID][]model.ChatMessage
	chatSeq     int64
	chatCap     int
}

// New creates a new in-memory storage instance
func New() *Storage {
	return NewWithChatCap(DefaultChatHistoryCap)
}

// NewWithChatCap creates an in-memory storage with a custom chat retention cap
func NewWithChatCap(chatCap int) *Storage {
	return &Storage{
		credentials: make(map[string]*model.Credentials),
		players:     make(map[string]*model.Player),
		inventories: make(map[string][]model.InventoryItem),
		sessions:    make(map[string]*model.Session),
		chat:        make(map[model.AreaID][]model.ChatMessage),
		chatCap:     chatCap,
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Credential operations

func (s *Storage) SaveCredentials(ctx context.Context, creds *model.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *creds
	s.credentials[creds.Name.Key()] = &c
	return nil
}

func (s *Storage) GetCredentials(ctx context.Context, name model.PlayerName) (*model.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	creds, ok := s.credentials[name.Key()]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	c := *creds
	return &c, nil
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := *player
	p.Inventory = nil // inventory rows are stored separately
	s.players[player.Name.Key()] = &p
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, name model.PlayerName) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[name.Key()]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	p := *player
	return &p, nil
}

// Inventory operations

func (s *Storage) AddInventoryItem(ctx context.Context, name model.PlayerName, item model.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[name.Key()]; !ok {
		return model.ErrPlayerNotFound
	}
	s.inventories[name.Key()] = append(s.inventories[name.Key()], item)
	return nil
}

func (s *Storage) GetInventory(ctx context.Context, name model.PlayerName) ([]model.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := s.inventories[name.Key()]
	out := make([]model.InventoryItem, len(items))
	copy(out, items)
	return out, nil
}

func (s *Storage) SellInventoryItem(ctx context.Context, name model.PlayerName, itemID string) (int, *model.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, ok := s.players[name.Key()]
	if !ok {
		return 0, nil, model.ErrPlayerNotFound
	}

	items := s.inventories[name.Key()]
	for i, item := range items {
		if item.ID != itemID {
			continue
		}
		removed := item
		s.inventories[name.Key()] = append(items[:i:i], items[i+1:]...)
		player.Gold += removed.Fish.Value
		return player.Gold, &removed, nil
	}
	return 0, nil, model.ErrItemNotFound
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := *session
	s.sessions[session.Token] = &sess
	return nil
}

func (s *Storage) GetSession(ctx context.Context, token string) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[token]
	if !ok {
		return nil, model.ErrInvalidSession
	}
	sess := *session
	return &sess, nil
}

func (s *Storage) DeleteSession(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *Storage) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for token, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, token)
			deleted++
		}
	}
	return deleted, nil
}

// Chat operations

func (s *Storage) AppendChatMessage(ctx context.Context, msg *model.ChatMessage) (*model.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chatSeq++
	stored := *msg
	stored.ID = s.chatSeq

	history := append(s.chat[msg.Area], stored)
	if len(history) > s.chatCap {
		history = history[len(history)-s.chatCap:]
	}
	s.chat[msg.Area] = history

	out := stored
	return &out, nil
}

func (s *Storage) RecentChatMessages(ctx context.Context, area model.AreaID, limit int) ([]model.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.chat[area]
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	out := make([]model.ChatMessage, len(history))
	copy(out, history)
	return out, nil
}
