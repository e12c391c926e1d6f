package server

import (
	"encoding/json"

	"github.com/pondside/pondside/internal/model"
	"github.com/pondside/pondside/internal/services/presence"
	"github.com/pondside/pondside/internal/world"
)

// Envelope is the wire frame for every message in both directions.
type Envelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound message kinds.
const (
	KindJoin           = "join"
	KindRestoreSession = "restore_session"
	KindMove           = "move"
	KindChangeArea     = "change_area"
	KindStartFishing   = "start_fishing"
	KindSellItem       = "sell_item"
	KindOpenShop       = "open_shop"
	KindBuyUpgrade     = "buy_upgrade"
	KindCloseShop      = "close_shop"
	KindChat           = "chat"
)

// Outbound message kinds.
const (
	KindSessionIssued     = "session_issued"
	KindWelcome           = "welcome"
	KindAreaState         = "area_state"
	KindPeerJoined        = "peer_joined"
	KindPeerLeft          = "peer_left"
	KindPeerUpdate        = "peer_update"
	KindFishingStarted    = "fishing_started"
	KindFishingResult     = "fishing_result"
	KindInventoryChanged  = "inventory_changed"
	KindShopOpened        = "shop_opened"
	KindShopClosed        = "shop_closed"
	KindPurchaseConfirmed = "purchase_confirmed"
	KindAuthError         = "auth_error"
	KindChatMessage       = "chat_message"
	KindChatHistory       = "chat_history"
	KindError             = "error"
)

// JoinPayload authenticates by name and password, creating the account
// first when IsRegistering is set.
type JoinPayload struct {
	Name          string `json:"name"`
	Password      string `json:"password"`
	IsRegistering bool   `json:"isRegistering"`
}

// RestoreSessionPayload authenticates with a previously issued token.
type RestoreSessionPayload struct {
	Token string `json:"token"`
}

// MovePayload proposes an absolute destination tile and the facing the
// client turned to. The server validates the tile against the area map.
type MovePayload struct {
	Position  model.Position  `json:"position"`
	Direction model.Direction `json:"direction"`
}

// ChangeAreaPayload requests a transfer to another area's spawn point.
type ChangeAreaPayload struct {
	Area model.AreaID `json:"area"`
}

// SellItemPayload sells one inventory item by id.
type SellItemPayload struct {
	ItemID string `json:"itemId"`
}

// ChatPayload posts a message to the sender's current area.
type ChatPayload struct {
	Text string `json:"text"`
}

// SessionIssuedPayload carries the bearer token for later restores.
// It is sent exactly once, on join.
type SessionIssuedPayload struct {
	Token string `json:"token"`
}

// WelcomePayload is the post-auth snapshot of the player and their area.
type WelcomePayload struct {
	Player      *model.Player `json:"player"`
	Area        *world.Area   `json:"area"`
	IsNewPlayer bool          `json:"isNewPlayer"`
}

// AreaStatePayload lists everyone in the area except the recipient.
type AreaStatePayload struct {
	Area    model.AreaID     `json:"area"`
	Players []presence.State `json:"players"`
}

// PeerJoinedPayload announces a player appearing in the area.
type PeerJoinedPayload struct {
	Area   model.AreaID   `json:"area"`
	Player presence.State `json:"player"`
}

// PeerLeftPayload announces a player leaving the area.
type PeerLeftPayload struct {
	Area model.AreaID     `json:"area"`
	Name model.PlayerName `json:"name"`
}

// PeerUpdatePayload carries a peer's new position, facing, or fishing state.
type PeerUpdatePayload struct {
	Area   model.AreaID   `json:"area"`
	Player presence.State `json:"player"`
}

// FishingStartedPayload announces a cast beginning, to the caster too.
type FishingStartedPayload struct {
	Area model.AreaID     `json:"area"`
	Name model.PlayerName `json:"name"`
}

// FishingResultPayload is the private outcome of a resolved cast.
type FishingResultPayload struct {
	Success bool                 `json:"success"`
	Fish    *model.Fish          `json:"fish,omitempty"`
	Item    *model.InventoryItem `json:"item,omitempty"`
}

// InventoryChangedPayload is the refreshed inventory after a catch or sale.
type InventoryChangedPayload struct {
	Gold      int                   `json:"gold"`
	Inventory []model.InventoryItem `json:"inventory"`
}

// ShopOpenedPayload shows the current rod and the next upgrade, if any.
type ShopOpenedPayload struct {
	Gold       int            `json:"gold"`
	Rod        world.RodTier  `json:"rod"`
	Next       *world.RodTier `json:"next,omitempty"`
	Affordable bool           `json:"affordable"`
}

// PurchaseConfirmedPayload reports a committed rod upgrade.
type PurchaseConfirmedPayload struct {
	Gold int            `json:"gold"`
	Rod  world.RodTier  `json:"rod"`
	Next *world.RodTier `json:"next,omitempty"`
}

// ChatHistoryPayload is the recent history sent on entering an area.
type ChatHistoryPayload struct {
	Area     model.AreaID        `json:"area"`
	Messages []model.ChatMessage `json:"messages"`
}

// ErrorPayload is the body of both error and auth_error messages.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// encodeMessage wraps a payload in an envelope and marshals the whole frame.
func encodeMessage(kind string, payload any) ([]byte, error) {
	env := Envelope{Kind: kind}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Payload = raw
	}
	return json.Marshal(env)
}
