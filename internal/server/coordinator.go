package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/pondside/pondside/internal/dependencies/clock"
	"github.com/pondside/pondside/internal/model"
	"github.com/pondside/pondside/internal/services/chat"
	"github.com/pondside/pondside/internal/services/fishing"
	"github.com/pondside/pondside/internal/services/ledger"
	"github.com/pondside/pondside/internal/services/presence"
	"github.com/pondside/pondside/internal/services/session"
	"github.com/pondside/pondside/internal/world"
)

// Coordinator owns every live connection, routes inbound messages to the
// services, and fans events out to areas. Each connection gets one read
// goroutine; the shared maps sit behind a single mutex, and an identity
// never has more than one registered connection.
type Coordinator struct {
	sessions *session.Service
	ledger   *ledger.Service
	registry *presence.Registry
	fishing  *fishing.Service
	chat     *chat.Service
	catalog  *world.Catalog
	clock    clock.Clock
	logger   *slog.Logger

	// afterFunc schedules deferred cast resolution. Tests replace it to
	// fire callbacks on demand.
	afterFunc func(time.Duration, func())

	mu         sync.Mutex
	conns      map[string]*conn
	identities map[string]*conn
}

// NewCoordinator creates a new Coordinator
func NewCoordinator(
	sessions *session.Service,
	led *ledger.Service,
	registry *presence.Registry,
	fish *fishing.Service,
	chatSvc *chat.Service,
	catalog *world.Catalog,
	clk clock.Clock,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		sessions: sessions,
		ledger:   led,
		registry: registry,
		fishing:  fish,
		chat:     chatSvc,
		catalog:  catalog,
		clock:    clk,
		logger:   logger.With(slog.String("component", "coordinator")),
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
		conns:      make(map[string]*conn),
		identities: make(map[string]*conn),
	}
}

// HandleConnection runs a connection's read loop until the transport
// errors, then tears the connection down. It blocks for the life of the
// connection.
func (co *Coordinator) HandleConnection(ctx context.Context, t transport) {
	c := newConn(t)

	co.mu.Lock()
	co.conns[c.id] = c
	co.mu.Unlock()

	co.logger.Debug("connection opened", slog.String("conn", c.id))

	for {
		data, err := t.ReadMessage()
		if err != nil {
			break
		}
		co.handleMessage(ctx, c, data)
	}

	co.disconnect(ctx, c)
}

// handleMessage decodes and dispatches one inbound frame. A panic in a
// handler is contained to this message; the connection stays open.
func (co *Coordinator) handleMessage(ctx context.Context, c *conn, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			co.logger.Error("panic handling message",
				slog.Any("panic", r),
				slog.String("conn", c.id),
			)
			c.sendError(KindError, CodeInternal, "internal error")
		}
	}()

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		co.logger.Debug("dropping malformed message", slog.String("conn", c.id))
		return
	}

	switch env.Kind {
	case KindJoin:
		co.handleJoin(ctx, c, env.Payload)
	case KindRestoreSession:
		co.handleRestoreSession(ctx, c, env.Payload)
	case KindMove:
		co.handleMove(ctx, c, env.Payload)
	case KindChangeArea:
		co.handleChangeArea(ctx, c, env.Payload)
	case KindStartFishing:
		co.handleStartFishing(ctx, c)
	case KindSellItem:
		co.handleSellItem(ctx, c, env.Payload)
	case KindOpenShop:
		co.handleOpenShop(ctx, c)
	case KindBuyUpgrade:
		co.handleBuyUpgrade(ctx, c)
	case KindCloseShop:
		co.handleCloseShop(c)
	case KindChat:
		co.handleChat(ctx, c, env.Payload)
	default:
		co.logger.Debug("dropping unknown message kind",
			slog.String("kind", env.Kind),
			slog.String("conn", c.id),
		)
	}
}

// bindIdentity registers c as the identity's single live connection. Any
// previous connection is removed from the maps in the same critical
// section and then evicted; eviction saves its position before this
// returns, so the caller always loads post-write state.
func (co *Coordinator) bindIdentity(ctx context.Context, c *conn, name model.PlayerName) {
	// A connection re-authenticating under a different name gives up the
	// identity it already holds first, so the old player departs cleanly
	// instead of lingering as a ghost.
	if oldName, oldArea, bound := c.identity(); bound && oldName.Key() != name.Key() {
		co.releaseIdentity(c, oldName)
		c.unbind()
		co.departArea(ctx, oldName, oldArea)
	}

	co.mu.Lock()
	prev := co.identities[name.Key()]
	if prev == c {
		co.mu.Unlock()
		return
	}
	co.identities[name.Key()] = c
	if prev != nil {
		delete(co.conns, prev.id)
	}
	co.mu.Unlock()

	if prev != nil {
		co.evict(ctx, prev)
	}
}

// evict tears down a superseded connection: tell it why, persist its
// position, drop its presence entry, and close the socket. The caller
// has already removed it from the maps.
func (co *Coordinator) evict(ctx context.Context, prev *conn) {
	prev.sendError(KindError, CodeDuplicateSession, "signed in from another connection")

	if name, area, bound := prev.identity(); bound {
		co.departArea(ctx, name, area)
	}
	prev.close()

	co.logger.Info("connection evicted", slog.String("conn", prev.id))
}

// releaseIdentity drops the identity map entry if it still points at c.
func (co *Coordinator) releaseIdentity(c *conn, name model.PlayerName) {
	co.mu.Lock()
	defer co.mu.Unlock()
	if co.identities[name.Key()] == c {
		delete(co.identities, name.Key())
	}
}

// disconnect runs when a read loop exits. Presence and position cleanup
// only happen if the departing connection still owns its identity; an
// evicted connection must not clobber its replacement.
func (co *Coordinator) disconnect(ctx context.Context, c *conn) {
	name, area, bound := c.identity()

	co.mu.Lock()
	delete(co.conns, c.id)
	owned := bound && co.identities[name.Key()] == c
	if owned {
		delete(co.identities, name.Key())
	}
	co.mu.Unlock()

	c.close()

	if !owned {
		return
	}

	co.departArea(ctx, name, area)
	co.logger.Info("player disconnected", slog.String("player", string(name)))
}

// departArea persists the player's last position, removes them from the
// presence table, and tells the area they left. The position save is
// best-effort.
func (co *Coordinator) departArea(ctx context.Context, name model.PlayerName, area model.AreaID) {
	if state, ok := co.registry.Get(area, name); ok {
		if err := co.ledger.RecordPosition(ctx, name, area, state.Position); err != nil {
			co.logger.Warn("failed to save position",
				slog.String("player", string(name)),
				slog.String("error", err.Error()),
			)
		}
	}
	co.registry.Leave(area, name)
	co.broadcast(area, KindPeerLeft, PeerLeftPayload{Area: area, Name: name}, name)
}

// broadcast sends one envelope to every connection bound to the area,
// optionally excluding one player. A write failure is left for the
// failing connection's own read loop to notice.
func (co *Coordinator) broadcast(area model.AreaID, kind string, payload any, exclude model.PlayerName) {
	co.mu.Lock()
	targets := make([]*conn, 0, len(co.conns))
	for _, c := range co.conns {
		targets = append(targets, c)
	}
	co.mu.Unlock()

	for _, c := range targets {
		name, connArea, bound := c.identity()
		if !bound || connArea != area {
			continue
		}
		if exclude != "" && name.Key() == exclude.Key() {
			continue
		}
		if err := c.send(kind, payload); err != nil {
			co.logger.Debug("broadcast write failed", slog.String("conn", c.id))
		}
	}
}

// connFor returns the identity's registered connection, if any.
func (co *Coordinator) connFor(name model.PlayerName) *conn {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.identities[name.Key()]
}

// requireIdentity gates gameplay messages behind a completed handshake.
func (co *Coordinator) requireIdentity(c *conn) (model.PlayerName, model.AreaID, bool) {
	name, area, ok := c.identity()
	if !ok {
		c.sendError(KindError, CodeNotAuthenticated, "join or restore a session first")
	}
	return name, area, ok
}
