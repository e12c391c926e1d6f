package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/pondside/pondside/internal/dependencies/mocks"
	"github.com/pondside/pondside/internal/model"
	"github.com/pondside/pondside/internal/services/chat"
	"github.com/pondside/pondside/internal/services/fishing"
	"github.com/pondside/pondside/internal/services/ledger"
	"github.com/pondside/pondside/internal/services/presence"
	"github.com/pondside/pondside/internal/services/session"
	"github.com/pondside/pondside/internal/storage/memory"
	"github.com/pondside/pondside/internal/testutil"
)

// fakeTransport records every outbound frame and is never read from: the
// suite drives handleMessage directly, so each test runs fully
// synchronously on one goroutine.
type fakeTransport struct {
	mu     sync.Mutex
	frames []Envelope
	closed bool
}

func (t *fakeTransport) ReadMessage() ([]byte, error) {
	return nil, errors.New("fakeTransport is write-only")
}

func (t *fakeTransport) WriteMessage(data []byte) error {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frames = append(t.frames, env)
	return nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

func (t *fakeTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

type testClient struct {
	s         *CoordinatorSuite
	conn      *conn
	transport *fakeTransport
}

// push delivers one inbound frame as if it arrived on the socket.
func (c *testClient) push(kind string, payload any) {
	data, err := encodeMessage(kind, payload)
	c.s.Require().NoError(err)
	c.s.co.handleMessage(c.s.ctx, c.conn, data)
}

// drain returns and clears everything written to the client so far.
func (c *testClient) drain() []Envelope {
	c.transport.mu.Lock()
	defer c.transport.mu.Unlock()
	frames := c.transport.frames
	c.transport.frames = nil
	return frames
}

// expect drains and returns the first frame of the given kind, failing
// the test when none arrived.
func (c *testClient) expect(kind string) Envelope {
	for _, env := range c.drain() {
		if env.Kind == kind {
			return env
		}
	}
	c.s.Require().FailNowf("missing frame", "no %q frame was sent", kind)
	return Envelope{}
}

type CoordinatorSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	random  *mocks.MockRandom
	co      *Coordinator
	ctx     context.Context

	casts []func()
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorSuite))
}

func (s *CoordinatorSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.ctx = context.Background()
	s.casts = nil

	catalog := testutil.WorldCatalog()
	logger := testutil.NopLogger()

	s.co = NewCoordinator(
		session.New(s.storage, s.clock, session.DefaultConfig(), logger),
		ledger.New(s.storage, catalog, s.clock, logger),
		presence.NewRegistry(catalog),
		fishing.New(catalog, s.random, logger),
		chat.New(s.storage, s.clock, logger),
		catalog,
		s.clock,
		logger,
	)
	// Capture deferred cast callbacks instead of scheduling timers.
	s.co.afterFunc = func(d time.Duration, f func()) {
		s.casts = append(s.casts, f)
	}
}

// dial registers a connection the way HandleConnection would, minus the
// read loop.
func (s *CoordinatorSuite) dial() *testClient {
	t := &fakeTransport{}
	c := newConn(t)
	s.co.mu.Lock()
	s.co.conns[c.id] = c
	s.co.mu.Unlock()
	return &testClient{s: s, conn: c, transport: t}
}

func (s *CoordinatorSuite) hangUp(c *testClient) {
	s.co.disconnect(s.ctx, c.conn)
}

// joined dials and completes a registration handshake, discarding the
// handshake frames.
func (s *CoordinatorSuite) joined(name string) *testClient {
	c := s.dial()
	c.push(KindJoin, JoinPayload{Name: name, Password: "hunter2", IsRegistering: true})
	c.expect(KindWelcome)
	c.drain()
	return c
}

// fireCasts runs every captured cast callback, as if all delays elapsed.
func (s *CoordinatorSuite) fireCasts() {
	casts := s.casts
	s.casts = nil
	for _, f := range casts {
		f()
	}
}

func (s *CoordinatorSuite) decode(env Envelope, target any) {
	s.Require().NoError(json.Unmarshal(env.Payload, target))
}

// Handshake tests

func (s *CoordinatorSuite) TestRegisterHandshake() {
	c := s.dial()
	c.push(KindJoin, JoinPayload{Name: "Ann", Password: "hunter2", IsRegistering: true})

	frames := c.drain()
	s.Require().GreaterOrEqual(len(frames), 3)
	s.Equal(KindSessionIssued, frames[0].Kind)
	s.Equal(KindWelcome, frames[1].Kind)
	s.Equal(KindAreaState, frames[2].Kind)

	var issued SessionIssuedPayload
	s.decode(frames[0], &issued)
	s.NotEmpty(issued.Token)

	var welcome WelcomePayload
	s.decode(frames[1], &welcome)
	s.True(welcome.IsNewPlayer)
	s.Equal(model.PlayerName("Ann"), welcome.Player.Name)
	s.Equal(0, welcome.Player.Gold)
	s.Equal(1, welcome.Player.RodTier)
	s.Equal(testutil.CoveID, welcome.Area.ID)

	var state AreaStatePayload
	s.decode(frames[2], &state)
	s.Empty(state.Players)

	got, ok := s.co.registry.Get(testutil.CoveID, "Ann")
	s.Require().True(ok)
	s.Equal(model.Position{X: 1, Y: 3}, got.Position)
}

func (s *CoordinatorSuite) TestLoginWrongPassword() {
	s.joined("Ann")

	c := s.dial()
	c.push(KindJoin, JoinPayload{Name: "Ann", Password: "wrong"})

	var p ErrorPayload
	s.decode(c.expect(KindAuthError), &p)
	s.Equal(CodeInvalidCredentials, p.Code)
	s.Equal("invalid name or password", p.Message)
}

func (s *CoordinatorSuite) TestLoginUnknownPlayerLooksLikeBadPassword() {
	c := s.dial()
	c.push(KindJoin, JoinPayload{Name: "nobody", Password: "hunter2"})

	var p ErrorPayload
	s.decode(c.expect(KindAuthError), &p)
	s.Equal(CodeInvalidCredentials, p.Code)
	s.Equal("invalid name or password", p.Message)
}

func (s *CoordinatorSuite) TestRegisterNameTaken() {
	s.joined("Ann")

	c := s.dial()
	c.push(KindJoin, JoinPayload{Name: "ANN", Password: "other", IsRegistering: true})

	var p ErrorPayload
	s.decode(c.expect(KindAuthError), &p)
	s.Equal(CodeNameTaken, p.Code)
}

func (s *CoordinatorSuite) TestRestoreSession() {
	c := s.dial()
	c.push(KindJoin, JoinPayload{Name: "Ann", Password: "hunter2", IsRegistering: true})
	var issued SessionIssuedPayload
	s.decode(c.expect(KindSessionIssued), &issued)
	s.hangUp(c)

	c2 := s.dial()
	c2.push(KindRestoreSession, RestoreSessionPayload{Token: issued.Token})

	frames := c2.drain()
	s.Require().NotEmpty(frames)
	s.Equal(KindWelcome, frames[0].Kind)
	for _, env := range frames {
		// A restore never mints a new token.
		s.NotEqual(KindSessionIssued, env.Kind)
	}

	var welcome WelcomePayload
	s.decode(frames[0], &welcome)
	s.False(welcome.IsNewPlayer)
	s.Equal(model.PlayerName("Ann"), welcome.Player.Name)
}

func (s *CoordinatorSuite) TestRestoreSessionBadToken() {
	c := s.dial()
	c.push(KindRestoreSession, RestoreSessionPayload{Token: "stale"})

	var p ErrorPayload
	s.decode(c.expect(KindAuthError), &p)
	s.Equal(CodeInvalidSession, p.Code)
}

func (s *CoordinatorSuite) TestGameplayRequiresIdentity() {
	c := s.dial()
	c.push(KindMove, MovePayload{Direction: model.DirRight})

	var p ErrorPayload
	s.decode(c.expect(KindError), &p)
	s.Equal(CodeNotAuthenticated, p.Code)
}

func (s *CoordinatorSuite) TestMalformedFrameIsDropped() {
	c := s.dial()
	s.co.handleMessage(s.ctx, c.conn, []byte("{not json"))

	s.Empty(c.drain())
	s.False(c.transport.isClosed())
}

// Duplicate-session tests

func (s *CoordinatorSuite) TestSecondJoinEvictsFirst() {
	a := s.joined("Ann")
	a.push(KindMove, MovePayload{Position: model.Position{X: 2, Y: 3}, Direction: model.DirRight})
	a.drain()

	b := s.dial()
	b.push(KindJoin, JoinPayload{Name: "Ann", Password: "hunter2"})

	var p ErrorPayload
	s.decode(a.expect(KindError), &p)
	s.Equal(CodeDuplicateSession, p.Code)
	s.True(a.transport.isClosed())

	// The replacement sees the position the eviction just saved.
	var welcome WelcomePayload
	s.decode(b.expect(KindWelcome), &welcome)
	s.Equal(model.Position{X: 2, Y: 3}, welcome.Player.LastPosition)

	s.Same(b.conn, s.co.connFor("Ann"))
}

func (s *CoordinatorSuite) TestEvictedConnectionCannotClobberReplacement() {
	a := s.joined("Ann")
	b := s.dial()
	b.push(KindJoin, JoinPayload{Name: "Ann", Password: "hunter2"})
	b.drain()

	// The evicted read loop exits and runs its teardown late.
	s.hangUp(a)

	_, ok := s.co.registry.Get(testutil.CoveID, "Ann")
	s.True(ok)
	s.Same(b.conn, s.co.connFor("Ann"))
}

func (s *CoordinatorSuite) TestRejoinUnderNewNameReleasesOldIdentity() {
	watcher := s.joined("Cat")
	a := s.joined("Ann")
	watcher.drain()

	a.push(KindJoin, JoinPayload{Name: "Ben", Password: "hunter2", IsRegistering: true})

	var welcome WelcomePayload
	s.decode(a.expect(KindWelcome), &welcome)
	s.Equal(model.PlayerName("Ben"), welcome.Player.Name)

	// The old identity is fully unwound: no presence record, no routing
	// entry, and the area saw the departure.
	_, ok := s.co.registry.Get(testutil.CoveID, "Ann")
	s.False(ok)
	s.Nil(s.co.connFor("Ann"))
	s.Same(a.conn, s.co.connFor("Ben"))

	var left PeerLeftPayload
	s.decode(watcher.expect(KindPeerLeft), &left)
	s.Equal(model.PlayerName("Ann"), left.Name)
}

func (s *CoordinatorSuite) TestLoginAfterRebindDoesNotEvictNewIdentity() {
	a := s.joined("Ann")
	a.push(KindJoin, JoinPayload{Name: "Ben", Password: "hunter2", IsRegistering: true})
	a.drain()

	b := s.dial()
	b.push(KindJoin, JoinPayload{Name: "Ann", Password: "hunter2"})
	b.expect(KindWelcome)

	// Ann's fresh login must not tear down the connection now playing Ben.
	s.False(a.transport.isClosed())
	s.Same(a.conn, s.co.connFor("Ben"))
	_, ok := s.co.registry.Get(testutil.CoveID, "Ben")
	s.True(ok)
}

func (s *CoordinatorSuite) TestFailedLoginCompletionReleasesIdentity() {
	// A valid session whose player row has vanished.
	s.Require().NoError(s.storage.SaveSession(s.ctx, &model.Session{
		Token:      "tok-ghost",
		PlayerName: "Ghost",
		CreatedAt:  s.clock.Now(),
		ExpiresAt:  s.clock.Now().Add(time.Hour),
	}))

	c := s.dial()
	c.push(KindRestoreSession, RestoreSessionPayload{Token: "tok-ghost"})

	var p ErrorPayload
	s.decode(c.expect(KindError), &p)
	s.Equal(CodeInternal, p.Code)

	// The identity claim was rolled back with the failure.
	s.Nil(s.co.connFor("Ghost"))
}

// Movement tests

func (s *CoordinatorSuite) TestMoveBroadcastsToPeersOnly() {
	ann := s.joined("Ann")
	ben := s.joined("Ben")
	ann.drain()

	ann.push(KindMove, MovePayload{Position: model.Position{X: 2, Y: 3}, Direction: model.DirRight})

	var p PeerUpdatePayload
	s.decode(ben.expect(KindPeerUpdate), &p)
	s.Equal(model.PlayerName("Ann"), p.Player.Name)
	s.Equal(model.Position{X: 2, Y: 3}, p.Player.Position)

	// The mover already knows; no echo.
	s.Empty(ann.drain())

	player, err := s.storage.GetPlayer(s.ctx, "Ann")
	s.Require().NoError(err)
	s.Equal(model.Position{X: 2, Y: 3}, player.LastPosition)
}

func (s *CoordinatorSuite) TestBlockedMoveTurnsInPlace() {
	ann := s.joined("Ann")
	ben := s.joined("Ben")
	ann.drain()

	ann.push(KindMove, MovePayload{Position: model.Position{X: 0, Y: 3}, Direction: model.DirLeft})

	var p PeerUpdatePayload
	s.decode(ben.expect(KindPeerUpdate), &p)
	s.Equal(model.Position{X: 1, Y: 3}, p.Player.Position)
	s.Equal(model.DirLeft, p.Player.Direction)
	s.Empty(ann.drain())
}

func (s *CoordinatorSuite) TestMoveInvalidDirectionDropped() {
	ann := s.joined("Ann")
	ann.push(KindMove, MovePayload{Position: model.Position{X: 2, Y: 3}, Direction: "sideways"})
	s.Empty(ann.drain())
}

func (s *CoordinatorSuite) TestMoveAcceptsClientPositionAgainstMap() {
	ann := s.joined("Ann")
	ben := s.joined("Ben")
	ann.drain()

	// The client proposes the absolute destination; the server only
	// checks it against the map.
	ann.push(KindMove, MovePayload{Position: model.Position{X: 4, Y: 3}, Direction: model.DirRight})

	var p PeerUpdatePayload
	s.decode(ben.expect(KindPeerUpdate), &p)
	s.Equal(model.Position{X: 4, Y: 3}, p.Player.Position)

	got, _ := s.co.registry.Get(testutil.CoveID, "Ann")
	s.Equal(model.Position{X: 4, Y: 3}, got.Position)
}

// Area-change tests

func (s *CoordinatorSuite) TestChangeAreaUnknown() {
	ann := s.joined("Ann")
	ann.push(KindChangeArea, ChangeAreaPayload{Area: "atlantis"})

	var p ErrorPayload
	s.decode(ann.expect(KindError), &p)
	s.Equal(CodeInvalidArea, p.Code)

	_, ok := s.co.registry.Get(testutil.CoveID, "Ann")
	s.True(ok)
}

func (s *CoordinatorSuite) TestChangeArea() {
	ann := s.joined("Ann")
	ben := s.joined("Ben")
	ann.drain()

	ann.push(KindChangeArea, ChangeAreaPayload{Area: testutil.BrookID})

	var left PeerLeftPayload
	s.decode(ben.expect(KindPeerLeft), &left)
	s.Equal(model.PlayerName("Ann"), left.Name)

	var state AreaStatePayload
	s.decode(ann.expect(KindAreaState), &state)
	s.Equal(testutil.BrookID, state.Area)
	s.Empty(state.Players)

	got, ok := s.co.registry.Get(testutil.BrookID, "Ann")
	s.Require().True(ok)
	s.Equal(model.Position{X: 1, Y: 1}, got.Position)

	player, err := s.storage.GetPlayer(s.ctx, "Ann")
	s.Require().NoError(err)
	s.Equal(testutil.BrookID, player.LastArea)
}

// Fishing tests

// walkToDock steps a fresh joiner from the spawn point (1,3) onto the
// dock at (4,2).
func (s *CoordinatorSuite) walkToDock(c *testClient) {
	for _, step := range []MovePayload{
		{Position: model.Position{X: 2, Y: 3}, Direction: model.DirRight},
		{Position: model.Position{X: 3, Y: 3}, Direction: model.DirRight},
		{Position: model.Position{X: 4, Y: 3}, Direction: model.DirRight},
		{Position: model.Position{X: 4, Y: 2}, Direction: model.DirUp},
	} {
		c.push(KindMove, step)
	}
	c.drain()
}

func (s *CoordinatorSuite) TestStartFishingOffWater() {
	ann := s.joined("Ann")
	ann.push(KindStartFishing, nil)

	var p ErrorPayload
	s.decode(ann.expect(KindError), &p)
	s.Equal(CodeCannotFish, p.Code)
}

func (s *CoordinatorSuite) TestCastResolvesIntoCatch() {
	ann := s.joined("Ann")
	s.walkToDock(ann)
	s.random.QueueFloat64(0.5) // cast delay
	s.random.QueueFloat64(0.0) // draw: rarest fish

	ann.push(KindStartFishing, nil)

	var started FishingStartedPayload
	s.decode(ann.expect(KindFishingStarted), &started)
	s.Equal(model.PlayerName("Ann"), started.Name)
	s.Require().Len(s.casts, 1)

	s.fireCasts()

	frames := ann.drain()
	var result *FishingResultPayload
	var inv *InventoryChangedPayload
	for _, env := range frames {
		switch env.Kind {
		case KindFishingResult:
			result = new(FishingResultPayload)
			s.decode(env, result)
		case KindInventoryChanged:
			inv = new(InventoryChangedPayload)
			s.decode(env, inv)
		}
	}

	s.Require().NotNil(result)
	s.True(result.Success)
	s.Equal("golden-koi", result.Fish.ID)
	s.Require().NotNil(result.Item)
	s.True(result.Item.CaughtAt.Equal(s.clock.Now()))

	s.Require().NotNil(inv)
	s.Require().Len(inv.Inventory, 1)
	s.Equal("golden-koi", inv.Inventory[0].FishID)

	items, err := s.storage.GetInventory(s.ctx, "Ann")
	s.Require().NoError(err)
	s.Len(items, 1)

	got, _ := s.co.registry.Get(testutil.CoveID, "Ann")
	s.False(got.Fishing)
}

func (s *CoordinatorSuite) TestMoveCancelsPendingCast() {
	ann := s.joined("Ann")
	s.walkToDock(ann)

	ann.push(KindStartFishing, nil)
	ann.push(KindMove, MovePayload{Position: model.Position{X: 4, Y: 3}, Direction: model.DirDown})
	ann.drain()

	s.fireCasts()

	for _, env := range ann.drain() {
		s.NotEqual(KindFishingResult, env.Kind)
		s.NotEqual(KindInventoryChanged, env.Kind)
	}
	items, err := s.storage.GetInventory(s.ctx, "Ann")
	s.Require().NoError(err)
	s.Empty(items)
}

func (s *CoordinatorSuite) TestDoubleCastRejected() {
	ann := s.joined("Ann")
	s.walkToDock(ann)

	ann.push(KindStartFishing, nil)
	ann.drain()
	ann.push(KindStartFishing, nil)

	var p ErrorPayload
	s.decode(ann.expect(KindError), &p)
	s.Equal(CodeAlreadyFishing, p.Code)
}

func (s *CoordinatorSuite) TestCastResolutionAfterDisconnectIsSilent() {
	ann := s.joined("Ann")
	s.walkToDock(ann)
	ann.push(KindStartFishing, nil)
	ann.drain()

	s.hangUp(ann)
	s.fireCasts()

	items, err := s.storage.GetInventory(s.ctx, "Ann")
	s.Require().NoError(err)
	s.Empty(items)
}

// Shop tests

// walkToShop steps a fresh joiner from the spawn point (1,3) to (2,1),
// beside the shop tile at (3,1).
func (s *CoordinatorSuite) walkToShop(c *testClient) {
	for _, step := range []MovePayload{
		{Position: model.Position{X: 1, Y: 2}, Direction: model.DirUp},
		{Position: model.Position{X: 1, Y: 1}, Direction: model.DirUp},
		{Position: model.Position{X: 2, Y: 1}, Direction: model.DirRight},
	} {
		c.push(KindMove, step)
	}
	c.drain()
}

func (s *CoordinatorSuite) TestOpenShopAwayFromShop() {
	ann := s.joined("Ann")
	ann.push(KindOpenShop, nil)

	var p ErrorPayload
	s.decode(ann.expect(KindError), &p)
	s.Equal(CodeNotNearShop, p.Code)
}

func (s *CoordinatorSuite) TestOpenShop() {
	ann := s.joined("Ann")
	s.walkToShop(ann)

	ann.push(KindOpenShop, nil)

	var p ShopOpenedPayload
	s.decode(ann.expect(KindShopOpened), &p)
	s.Equal(0, p.Gold)
	s.Equal(1, p.Rod.Level)
	s.Require().NotNil(p.Next)
	s.Equal(2, p.Next.Level)
	s.False(p.Affordable)
}

func (s *CoordinatorSuite) TestBuyUpgradeWithoutFunds() {
	ann := s.joined("Ann")
	s.walkToShop(ann)

	ann.push(KindBuyUpgrade, nil)

	var p ErrorPayload
	s.decode(ann.expect(KindError), &p)
	s.Equal(CodeInsufficientFunds, p.Code)

	player, err := s.storage.GetPlayer(s.ctx, "Ann")
	s.Require().NoError(err)
	s.Equal(0, player.Gold)
	s.Equal(1, player.RodTier)
}

func (s *CoordinatorSuite) TestBuyUpgrade() {
	ann := s.joined("Ann")
	s.walkToShop(ann)

	player, err := s.storage.GetPlayer(s.ctx, "Ann")
	s.Require().NoError(err)
	player.Gold = 150
	s.Require().NoError(s.storage.SavePlayer(s.ctx, player))

	ann.push(KindBuyUpgrade, nil)

	var p PurchaseConfirmedPayload
	s.decode(ann.expect(KindPurchaseConfirmed), &p)
	s.Equal(2, p.Rod.Level)
	s.Equal(50, p.Gold)
	s.Require().NotNil(p.Next)
	s.Equal(3, p.Next.Level)
}

func (s *CoordinatorSuite) TestSellItem() {
	ann := s.joined("Ann")
	item := model.InventoryItem{
		ID:       "i1",
		FishID:   "bluegill",
		Fish:     model.Fish{ID: "bluegill", Name: "Bluegill", Rarity: model.RarityCommon, Value: 5},
		CaughtAt: s.clock.Now(),
		CaughtIn: testutil.CoveID,
	}
	s.Require().NoError(s.storage.AddInventoryItem(s.ctx, "Ann", item))

	ann.push(KindSellItem, SellItemPayload{ItemID: "i1"})

	var p InventoryChangedPayload
	s.decode(ann.expect(KindInventoryChanged), &p)
	s.Equal(5, p.Gold)
	s.Empty(p.Inventory)
}

func (s *CoordinatorSuite) TestSellUnknownItem() {
	ann := s.joined("Ann")
	ann.push(KindSellItem, SellItemPayload{ItemID: "ghost"})

	var p ErrorPayload
	s.decode(ann.expect(KindError), &p)
	s.Equal(CodeItemNotFound, p.Code)
}

// Chat tests

func (s *CoordinatorSuite) TestChatReachesWholeAreaIncludingSender() {
	ann := s.joined("Ann")
	ben := s.joined("Ben")
	ann.drain()

	ann.push(KindChat, ChatPayload{Text: "anything biting?"})

	var got model.ChatMessage
	s.decode(ann.expect(KindChatMessage), &got)
	s.Equal("anything biting?", got.Text)
	s.Equal(model.PlayerName("Ann"), got.Author)

	s.decode(ben.expect(KindChatMessage), &got)
	s.Equal("anything biting?", got.Text)
}

func (s *CoordinatorSuite) TestEmptyChatDroppedSilently() {
	ann := s.joined("Ann")
	ann.push(KindChat, ChatPayload{Text: "   "})
	s.Empty(ann.drain())
}

func (s *CoordinatorSuite) TestChatHistoryOnJoin() {
	ann := s.joined("Ann")
	ann.push(KindChat, ChatPayload{Text: "first!"})

	cat := s.dial()
	cat.push(KindJoin, JoinPayload{Name: "Cat", Password: "hunter2", IsRegistering: true})

	var p ChatHistoryPayload
	s.decode(cat.expect(KindChatHistory), &p)
	s.Require().Len(p.Messages, 1)
	s.Equal("first!", p.Messages[0].Text)
}

// Disconnect tests

func (s *CoordinatorSuite) TestDisconnectAnnouncesAndPersists() {
	ann := s.joined("Ann")
	ben := s.joined("Ben")
	ann.push(KindMove, MovePayload{Position: model.Position{X: 2, Y: 3}, Direction: model.DirRight})
	ben.drain()

	s.hangUp(ann)

	var p PeerLeftPayload
	s.decode(ben.expect(KindPeerLeft), &p)
	s.Equal(model.PlayerName("Ann"), p.Name)

	_, ok := s.co.registry.Get(testutil.CoveID, "Ann")
	s.False(ok)

	player, err := s.storage.GetPlayer(s.ctx, "Ann")
	s.Require().NoError(err)
	s.Equal(model.Position{X: 2, Y: 3}, player.LastPosition)
}
