package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pondside/pondside/internal/model"
	"github.com/pondside/pondside/internal/services/chat"
	"github.com/pondside/pondside/internal/world"
)

func (co *Coordinator) handleJoin(ctx context.Context, c *conn, raw json.RawMessage) {
	var p JoinPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		co.logger.Debug("dropping malformed join payload", slog.String("conn", c.id))
		return
	}

	name := model.PlayerName(p.Name)
	var (
		player *model.Player
		err    error
	)
	if p.IsRegistering {
		player, err = co.ledger.Register(ctx, name, p.Password, co.catalog.DefaultArea())
		if err != nil {
			// Registration errors describe the caller's own input, so the
			// detail is safe to echo back.
			c.sendError(KindAuthError, codeFor(err), err.Error())
			return
		}
	} else {
		player, err = co.ledger.Authenticate(ctx, name, p.Password)
		if err != nil {
			c.sendError(KindAuthError, codeFor(err), "invalid name or password")
			return
		}
	}

	co.bindIdentity(ctx, c, player.Name)

	token, err := co.sessions.Issue(ctx, player.Name)
	if err != nil {
		co.logger.Error("failed to issue session",
			slog.String("player", string(player.Name)),
			slog.String("error", err.Error()),
		)
		c.sendError(KindAuthError, CodeInternal, "could not create session")
		return
	}
	_ = c.send(KindSessionIssued, SessionIssuedPayload{Token: token})

	co.completeLogin(ctx, c, player.Name, p.IsRegistering)
}

func (co *Coordinator) handleRestoreSession(ctx context.Context, c *conn, raw json.RawMessage) {
	var p RestoreSessionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		co.logger.Debug("dropping malformed restore payload", slog.String("conn", c.id))
		return
	}

	name, err := co.sessions.Validate(ctx, p.Token)
	if err != nil {
		// Expired and unknown tokens get the same answer.
		c.sendError(KindAuthError, CodeInvalidSession, "invalid or expired session")
		return
	}

	co.bindIdentity(ctx, c, name)
	co.completeLogin(ctx, c, name, false)
}

// completeLogin runs the post-auth handshake: reload the player (an
// eviction may have just saved a newer position), place them in the
// world, and send the welcome sequence. On failure the identity claim is
// rolled back so the map never points at a connection that did not bind.
func (co *Coordinator) completeLogin(ctx context.Context, c *conn, name model.PlayerName, isNew bool) {
	player, err := co.ledger.Load(ctx, name)
	if err != nil {
		co.logger.Error("failed to load player after auth",
			slog.String("player", string(name)),
			slog.String("error", err.Error()),
		)
		co.releaseIdentity(c, name)
		c.sendError(KindError, CodeInternal, "could not load player")
		return
	}

	area, pos, ok := co.placement(player)
	if !ok {
		co.releaseIdentity(c, name)
		c.sendError(KindError, CodeInternal, "no areas are loaded")
		return
	}
	if err := co.registry.Enter(area, name, pos); err != nil {
		co.releaseIdentity(c, name)
		c.sendError(KindError, codeFor(err), "could not enter area")
		return
	}
	c.bind(name, area)

	worldArea, _ := co.catalog.Area(area)
	_ = c.send(KindWelcome, WelcomePayload{Player: player, Area: worldArea, IsNewPlayer: isNew})

	if state, ok := co.registry.Get(area, name); ok {
		co.broadcast(area, KindPeerJoined, PeerJoinedPayload{Area: area, Player: state}, name)
	}
	co.sendAreaSnapshot(ctx, c, area, name)

	co.logger.Info("player joined",
		slog.String("player", string(name)),
		slog.String("area", string(area)),
	)
}

// placement picks where a player re-enters the world: their saved
// position when it is still walkable, the spawn point otherwise.
func (co *Coordinator) placement(player *model.Player) (model.AreaID, model.Position, bool) {
	area, ok := co.catalog.Area(player.LastArea)
	if !ok {
		if area, ok = co.catalog.Area(co.catalog.DefaultArea()); !ok {
			return "", model.Position{}, false
		}
	}
	if area.ID == player.LastArea && area.CanMoveTo(player.LastPosition) {
		return area.ID, player.LastPosition, true
	}
	return area.ID, area.SpawnPoint, true
}

// sendAreaSnapshot sends the peer list and recent chat for an area the
// player just entered.
func (co *Coordinator) sendAreaSnapshot(ctx context.Context, c *conn, area model.AreaID, name model.PlayerName) {
	_ = c.send(KindAreaState, AreaStatePayload{Area: area, Players: co.registry.Peers(area, name)})

	history, err := co.chat.Recent(ctx, area)
	if err != nil {
		co.logger.Warn("failed to load chat history",
			slog.String("area", string(area)),
			slog.String("error", err.Error()),
		)
		return
	}
	_ = c.send(KindChatHistory, ChatHistoryPayload{Area: area, Messages: history})
}

func (co *Coordinator) handleMove(ctx context.Context, c *conn, raw json.RawMessage) {
	name, area, ok := co.requireIdentity(c)
	if !ok {
		return
	}

	var p MovePayload
	if err := json.Unmarshal(raw, &p); err != nil || !p.Direction.Valid() {
		co.logger.Debug("dropping malformed move payload", slog.String("conn", c.id))
		return
	}

	if !co.registry.Move(area, name, p.Position, p.Direction) {
		// Blocked: the player turns toward the obstacle but stays put.
		co.registry.Face(area, name, p.Direction)
		if updated, ok := co.registry.Get(area, name); ok {
			co.broadcast(area, KindPeerUpdate, PeerUpdatePayload{Area: area, Player: updated}, name)
		}
		return
	}

	if err := co.ledger.RecordPosition(ctx, name, area, p.Position); err != nil {
		co.logger.Warn("failed to save position",
			slog.String("player", string(name)),
			slog.String("error", err.Error()),
		)
	}

	if updated, ok := co.registry.Get(area, name); ok {
		co.broadcast(area, KindPeerUpdate, PeerUpdatePayload{Area: area, Player: updated}, name)
	}
}

func (co *Coordinator) handleChangeArea(ctx context.Context, c *conn, raw json.RawMessage) {
	name, area, ok := co.requireIdentity(c)
	if !ok {
		return
	}

	var p ChangeAreaPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		co.logger.Debug("dropping malformed change_area payload", slog.String("conn", c.id))
		return
	}

	if _, ok := co.catalog.Area(p.Area); !ok {
		c.sendError(KindError, CodeInvalidArea, "no such area")
		return
	}
	if p.Area == area {
		co.sendAreaSnapshot(ctx, c, area, name)
		return
	}

	spawn, err := co.registry.Transfer(area, p.Area, name)
	if err != nil {
		c.sendError(KindError, codeFor(err), "could not change area")
		return
	}
	c.setArea(p.Area)

	if err := co.ledger.RecordPosition(ctx, name, p.Area, spawn); err != nil {
		co.logger.Warn("failed to save position",
			slog.String("player", string(name)),
			slog.String("error", err.Error()),
		)
	}

	co.broadcast(area, KindPeerLeft, PeerLeftPayload{Area: area, Name: name}, name)
	if state, ok := co.registry.Get(p.Area, name); ok {
		co.broadcast(p.Area, KindPeerJoined, PeerJoinedPayload{Area: p.Area, Player: state}, name)
	}
	co.sendAreaSnapshot(ctx, c, p.Area, name)
}

func (co *Coordinator) handleStartFishing(ctx context.Context, c *conn) {
	name, area, ok := co.requireIdentity(c)
	if !ok {
		return
	}

	state, ok := co.registry.Get(area, name)
	if !ok {
		c.sendError(KindError, CodeInternal, "not present in area")
		return
	}
	if !co.registry.CanFishAt(area, state.Position, state.Direction) {
		c.sendError(KindError, CodeCannotFish, "nothing to fish here")
		return
	}

	epoch, err := co.registry.StartFishing(area, name)
	if err != nil {
		c.sendError(KindError, codeFor(err), err.Error())
		return
	}

	co.broadcast(area, KindFishingStarted, FishingStartedPayload{Area: area, Name: name}, "")

	co.afterFunc(co.fishing.CastDelay(), func() {
		co.resolveCast(ctx, name, area, epoch)
	})
}

// resolveCast runs when a cast's delay elapses. The epoch check makes it
// a no-op if the player moved, re-cast, changed area, or disconnected
// since the cast started.
func (co *Coordinator) resolveCast(ctx context.Context, name model.PlayerName, area model.AreaID, epoch uint64) {
	defer func() {
		if r := recover(); r != nil {
			co.logger.Error("panic resolving cast", slog.Any("panic", r))
		}
	}()

	if !co.registry.FinishFishing(area, name, epoch) {
		return
	}

	if state, ok := co.registry.Get(area, name); ok {
		co.broadcast(area, KindPeerUpdate, PeerUpdatePayload{Area: area, Player: state}, name)
	}

	c := co.connFor(name)

	player, err := co.ledger.Load(ctx, name)
	if err != nil {
		co.logger.Error("failed to load player for cast resolution",
			slog.String("player", string(name)),
			slog.String("error", err.Error()),
		)
		if c != nil {
			c.sendError(KindError, CodeInternal, "could not resolve cast")
		}
		return
	}

	outcome := co.fishing.Resolve(area, player.RodTier)
	result := FishingResultPayload{Success: outcome.Success, Fish: outcome.Fish}

	if !outcome.Success {
		if c != nil {
			_ = c.send(KindFishingResult, result)
		}
		return
	}

	item := model.InventoryItem{
		ID:       uuid.NewString(),
		FishID:   outcome.Fish.ID,
		Fish:     *outcome.Fish,
		CaughtAt: co.clock.Now(),
		CaughtIn: area,
	}
	updated, err := co.ledger.GrantItem(ctx, name, item)
	if err != nil {
		co.logger.Error("failed to store catch",
			slog.String("player", string(name)),
			slog.String("error", err.Error()),
		)
		if c != nil {
			c.sendError(KindError, CodeInternal, "could not store catch")
		}
		return
	}

	result.Item = &item
	if c != nil {
		_ = c.send(KindFishingResult, result)
		_ = c.send(KindInventoryChanged, InventoryChangedPayload{Gold: updated.Gold, Inventory: updated.Inventory})
	}
}

func (co *Coordinator) handleSellItem(ctx context.Context, c *conn, raw json.RawMessage) {
	name, _, ok := co.requireIdentity(c)
	if !ok {
		return
	}

	var p SellItemPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.ItemID == "" {
		co.logger.Debug("dropping malformed sell_item payload", slog.String("conn", c.id))
		return
	}

	player, _, err := co.ledger.SellItem(ctx, name, p.ItemID)
	if err != nil {
		c.sendError(KindError, codeFor(err), "could not sell item")
		return
	}
	_ = c.send(KindInventoryChanged, InventoryChangedPayload{Gold: player.Gold, Inventory: player.Inventory})
}

func (co *Coordinator) handleOpenShop(ctx context.Context, c *conn) {
	name, area, ok := co.requireIdentity(c)
	if !ok {
		return
	}

	if !co.nearShop(area, name) {
		c.sendError(KindError, CodeNotNearShop, "no shop nearby")
		return
	}

	player, err := co.ledger.Load(ctx, name)
	if err != nil {
		c.sendError(KindError, CodeInternal, "could not load player")
		return
	}

	next := world.NextRod(player.RodTier)
	_ = c.send(KindShopOpened, ShopOpenedPayload{
		Gold:       player.Gold,
		Rod:        world.Rod(player.RodTier),
		Next:       next,
		Affordable: next != nil && player.Gold >= next.Price,
	})
}

func (co *Coordinator) handleBuyUpgrade(ctx context.Context, c *conn) {
	name, area, ok := co.requireIdentity(c)
	if !ok {
		return
	}

	if !co.nearShop(area, name) {
		c.sendError(KindError, CodeNotNearShop, "no shop nearby")
		return
	}

	player, bought, err := co.ledger.PurchaseUpgrade(ctx, name)
	if err != nil {
		c.sendError(KindError, codeFor(err), "could not buy upgrade")
		return
	}

	_ = c.send(KindPurchaseConfirmed, PurchaseConfirmedPayload{
		Gold: player.Gold,
		Rod:  *bought,
		Next: world.NextRod(bought.Level),
	})
}

func (co *Coordinator) handleCloseShop(c *conn) {
	if _, _, ok := co.requireIdentity(c); !ok {
		return
	}
	_ = c.send(KindShopClosed, nil)
}

func (co *Coordinator) handleChat(ctx context.Context, c *conn, raw json.RawMessage) {
	name, area, ok := co.requireIdentity(c)
	if !ok {
		return
	}

	var p ChatPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		co.logger.Debug("dropping malformed chat payload", slog.String("conn", c.id))
		return
	}

	msg, err := co.chat.Append(ctx, area, name, p.Text)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			return
		}
		c.sendError(KindError, CodeInternal, "could not send message")
		return
	}

	co.broadcast(area, KindChatMessage, msg, "")
}

// nearShop reports whether the player's current tile is on or beside a
// shop tile.
func (co *Coordinator) nearShop(area model.AreaID, name model.PlayerName) bool {
	state, ok := co.registry.Get(area, name)
	if !ok {
		return false
	}
	a, ok := co.catalog.Area(area)
	return ok && a.NearShop(state.Position)
}
