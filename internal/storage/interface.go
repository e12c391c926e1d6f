package storage

import (
	"context"
	"time"

	"github.com/pondside/pondside/internal/model"
)

// Storage defines the interface for data persistence.
//
// Player lookups are case-insensitive: implementations key rows by
// model.PlayerName.Key(). The Player row carries progress (gold, rod tier,
// last position) but not inventory; inventory items are stored and fetched
// separately and aggregated by the ledger.
type Storage interface {
	// Credential operations
	SaveCredentials(ctx context.Context, creds *model.Credentials) error
	GetCredentials(ctx context.Context, name model.PlayerName) (*model.Credentials, error)

	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, name model.PlayerName) (*model.Player, error)

	// Inventory operations
	AddInventoryItem(ctx context.Context, name model.PlayerName, item model.InventoryItem) error
	GetInventory(ctx context.Context, name model.PlayerName) ([]model.InventoryItem, error)
	// SellInventoryItem removes the item and credits its recorded value to
	// the player's gold as one atomic step: both happen or neither does.
	// Returns the updated gold balance and the removed item.
	SellInventoryItem(ctx context.Context, name model.PlayerName, itemID string) (int, *model.InventoryItem, error)

	// Session operations
	SaveSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, token string) (*model.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)

	// Chat operations. AppendChatMessage assigns the message id and prunes
	// the oldest rows for the area past the retention cap.
	AppendChatMessage(ctx context.Context, msg *model.ChatMessage) (*model.ChatMessage, error)
	RecentChatMessages(ctx context.Context, area model.AreaID, limit int) ([]model.ChatMessage, error)
}
