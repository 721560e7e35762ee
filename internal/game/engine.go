package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	rand "math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/sekalabs/seka-server/internal/deck"
	"github.com/sekalabs/seka-server/internal/ledger"
	"github.com/sekalabs/seka-server/internal/money"
	"github.com/sekalabs/seka-server/internal/randutil"
)

// Rules are the table-independent game parameters.
type Rules struct {
	Countdown         time.Duration // pre-round window once two players are ready
	TurnTimeout       time.Duration // acting window before a server-driven fold
	CommissionPercent int           // house cut of the winning payout
	RoomListLimit     int           // page cap on the lobby broadcast
}

// DefaultRules returns the standard Seka parameters.
func DefaultRules() Rules {
	return Rules{
		Countdown:         10 * time.Second,
		TurnTimeout:       30 * time.Second,
		CommissionPercent: 5,
		RoomListLimit:     50,
	}
}

// RoomLister supplies the lobby projection for room-list broadcasts.
type RoomLister interface {
	WaitingRooms(limit int) []RoomSummary
}

// Engine drives a room's round: dealing, turn order, timeouts, bets, folds,
// showdowns and offers. One Engine serves every room; per-room serialization
// comes from the room's own lock, which every operation here acquires.
type Engine struct {
	ledger ledger.Ledger
	pub    Publisher
	clock  quartz.Clock
	rules  Rules
	logger *log.Logger
	lists  RoomLister

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures an Engine.
type Option func(*Engine)

// WithRNG injects the RNG used to shuffle decks, for deterministic deals in
// tests.
func WithRNG(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// NewEngine creates an engine. The clock is injected so tests can drive the
// countdown and turn timers explicitly.
func NewEngine(l ledger.Ledger, pub Publisher, clock quartz.Clock, rules Rules, logger *log.Logger, opts ...Option) *Engine {
	e := &Engine{
		ledger: l,
		pub:    pub,
		clock:  clock,
		rules:  rules,
		logger: logger.WithPrefix("engine"),
		rng:    randutil.NewFromTime(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetRoomLister wires the lobby projection used when a resolution or leave
// changes what the room list shows.
func (e *Engine) SetRoomLister(l RoomLister) {
	e.lists = l
}

// mapLedgerErr converts ledger failures into the engine's error taxonomy.
// Anything that is not a plain shortfall means the ledger is unavailable and
// the action must not be applied.
func mapLedgerErr(err error) error {
	if errors.Is(err, ledger.ErrInsufficientFunds) {
		return ErrInsufficientBalance
	}
	return fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
}

// EnterRound antes the player into the next round. The debit happens before
// any state change; a ledger failure leaves the room untouched.
func (e *Engine) EnterRound(ctx context.Context, room *Room, username string) error {
	room.mu.Lock()
	defer room.mu.Unlock()

	p := room.find(username)
	if p == nil {
		return ErrPlayerNotInRoom
	}
	if room.status != RoomWaiting {
		return ErrRoundInProgress
	}
	if p.Status != StatusWaiting {
		return ErrAlreadyEntered
	}

	fee := room.MinBet
	newBal, err := e.ledger.Debit(ctx, username, fee)
	if err != nil {
		return mapLedgerErr(err)
	}

	p.Status = StatusReady
	p.CurrentBet = fee
	room.totalBank += fee

	e.logger.Info("player anted", "room", room.ID, "player", username, "fee", fee)
	e.pub.ToRoom(room.ID, EventPlayersUpdate, PlayersUpdate{Players: room.views(), TotalBank: room.totalBank})
	e.pub.ToPlayer(p.ConnID, EventBalanceUpdate, BalanceUpdate{Username: username, NewBalance: newBal})

	if room.readyCount() >= 2 && !room.countdownActive {
		e.startCountdownLocked(room)
	}
	return nil
}

// Raise processes a raise (or call, when amount equals the current bet) by
// the acting player.
func (e *Engine) Raise(ctx context.Context, room *Room, username string, amount money.Amount) error {
	room.mu.Lock()
	defer room.mu.Unlock()

	p := room.find(username)
	if p == nil {
		return ErrPlayerNotInRoom
	}
	if room.status != RoomPlaying {
		return ErrNoActiveRound
	}
	if room.currentTurn() != p {
		return ErrNotYourTurn
	}
	if amount < room.lastBet {
		return ErrBetTooLow
	}

	// The balance read at ante time may be stale by now; the debit re-checks
	// atomically at the ledger.
	increment := amount - p.CurrentBet
	if increment > 0 {
		newBal, err := e.ledger.Debit(ctx, username, increment)
		if err != nil {
			return mapLedgerErr(err)
		}
		p.CurrentBet = amount
		room.totalBank += increment
		e.pub.ToPlayer(p.ConnID, EventBalanceUpdate, BalanceUpdate{Username: username, NewBalance: newBal})
	}
	room.lastBet = amount
	room.pendingOffer = nil

	e.logger.Info("raise", "room", room.ID, "player", username, "amount", amount, "bank", room.totalBank)
	e.pub.ToRoom(room.ID, EventGameState, GameState{
		Players:      room.views(),
		TotalBank:    room.totalBank,
		LastBet:      room.lastBet,
		ActivePlayer: username,
	})

	if len(room.activePlayers()) == 2 {
		e.pub.ToRoom(room.ID, EventFinalTwo, FinalTwo{By: username, Amount: amount})
	}
	e.advanceTurnLocked(room)
	return nil
}

// Fold folds the player. Folding out of turn is allowed; the round resolves
// immediately if only one active player remains.
func (e *Engine) Fold(ctx context.Context, room *Room, username string) error {
	room.mu.Lock()
	p := room.find(username)
	if p == nil {
		room.mu.Unlock()
		return ErrPlayerNotInRoom
	}
	if room.status != RoomPlaying {
		room.mu.Unlock()
		return ErrNoActiveRound
	}
	if p.Status != StatusActive {
		room.mu.Unlock()
		return ErrNotInRound
	}
	resolved := e.foldLocked(ctx, room, p, "fold")
	room.mu.Unlock()

	if resolved {
		e.refreshRoomList()
	}
	return nil
}

// Show forces a heads-up showdown. Strictly higher score takes the pot;
// equal scores trigger an automatic re-deal with the pot retained.
func (e *Engine) Show(ctx context.Context, room *Room, username string) error {
	room.mu.Lock()
	p := room.find(username)
	if p == nil {
		room.mu.Unlock()
		return ErrPlayerNotInRoom
	}
	if room.status != RoomPlaying {
		room.mu.Unlock()
		return ErrNoActiveRound
	}
	active := room.activePlayers()
	if len(active) != 2 {
		room.mu.Unlock()
		return ErrNotHeadsUp
	}
	if room.currentTurn() != p {
		room.mu.Unlock()
		return ErrNotYourTurn
	}

	e.pub.ToRoom(room.ID, EventMoveMade, MoveMade{Username: username, MoveType: "show"})

	a, b := active[0], active[1]
	if a.Score == b.Score {
		e.logger.Info("showdown tie, redealing", "room", room.ID, "score", a.Score)
		e.pub.ToRoom(room.ID, EventSeka, SekaTie{
			Players:   []string{a.Username, b.Username},
			Score:     a.Score,
			TotalBank: room.totalBank,
		})
		e.redealLocked(room)
		room.mu.Unlock()
		return nil
	}

	winner := a
	if b.Score > a.Score {
		winner = b
	}
	e.resolveWinLocked(ctx, room, winner)
	room.mu.Unlock()

	e.refreshRoomList()
	return nil
}

// Offer proposes a split or a re-deal to the single opponent. Only valid
// heads-up and on the offerer's turn; the turn timer keeps running while the
// offer is pending.
func (e *Engine) Offer(room *Room, username string, offerType OfferType) error {
	room.mu.Lock()
	defer room.mu.Unlock()

	p := room.find(username)
	if p == nil {
		return ErrPlayerNotInRoom
	}
	if room.status != RoomPlaying {
		return ErrNoActiveRound
	}
	active := room.activePlayers()
	if len(active) != 2 {
		return ErrNotHeadsUp
	}
	if room.currentTurn() != p {
		return ErrNotYourTurn
	}
	if room.pendingOffer != nil {
		return ErrOfferPending
	}

	opp := active[0]
	if opp == p {
		opp = active[1]
	}
	room.pendingOffer = &Offer{Type: offerType, From: username, To: opp.Username}

	e.logger.Info("offer made", "room", room.ID, "from", username, "to", opp.Username, "type", offerType)
	e.pub.ToPlayer(opp.ConnID, EventOfferReceived, OfferReceived{Type: offerType.String(), From: username})
	return nil
}

// RespondOffer accepts or rejects the pending offer. Only the player the
// offer was addressed to may respond.
func (e *Engine) RespondOffer(ctx context.Context, room *Room, username string, accepted bool) error {
	room.mu.Lock()
	p := room.find(username)
	if p == nil {
		room.mu.Unlock()
		return ErrPlayerNotInRoom
	}
	if room.status != RoomPlaying {
		room.mu.Unlock()
		return ErrNoActiveRound
	}
	offer := room.pendingOffer
	if offer == nil || offer.To != username {
		room.mu.Unlock()
		return ErrNoPendingOffer
	}
	room.pendingOffer = nil

	if !accepted {
		if sender := room.find(offer.From); sender != nil {
			e.pub.ToPlayer(sender.ConnID, EventOfferRejected, OfferRejected{By: username})
		}
		// the offer consumed the offerer's action
		e.advanceTurnLocked(room)
		room.mu.Unlock()
		return nil
	}

	switch offer.Type {
	case OfferSplit:
		e.resolveSplitLocked(ctx, room)
		room.mu.Unlock()
		e.refreshRoomList()
	case OfferSeka:
		e.redealLocked(room)
		room.mu.Unlock()
	}
	return nil
}

// Leave removes the player's seat. An active player is folded first, which
// may resolve the round; a departing ready player's ante stays in the pot.
// Returns true when the room is empty and should be deleted.
func (e *Engine) Leave(ctx context.Context, room *Room, username string) (empty bool, err error) {
	room.mu.Lock()
	p := room.find(username)
	if p == nil {
		room.mu.Unlock()
		return false, ErrPlayerNotInRoom
	}

	if room.status == RoomPlaying && p.Status == StatusActive {
		e.foldLocked(ctx, room, p, "fold")
	}
	wasReady := p.Status == StatusReady

	for i, q := range room.players {
		if q == p {
			room.players = append(room.players[:i], room.players[i+1:]...)
			break
		}
	}

	if wasReady && room.countdownActive && room.readyCount() < 2 {
		room.countdownActive = false
		if room.countdownTimer != nil {
			room.countdownTimer.Stop()
			room.countdownTimer = nil
		}
		e.pub.ToRoom(room.ID, EventCountdownCancelled, struct{}{})
	}

	e.logger.Info("player left", "room", room.ID, "player", username, "remaining", len(room.players))
	e.pub.ToRoom(room.ID, EventPlayersUpdate, PlayersUpdate{Players: room.views(), TotalBank: room.totalBank})

	empty = len(room.players) == 0
	if empty {
		room.stopTimersLocked()
	}
	room.mu.Unlock()
	return empty, nil
}

// --- internal transitions (all require the room lock) ---

func (e *Engine) startCountdownLocked(room *Room) {
	room.countdownActive = true
	seconds := int(e.rules.Countdown / time.Second)
	e.logger.Info("start countdown", "room", room.ID, "seconds", seconds)
	e.pub.ToRoom(room.ID, EventStartCountdown, CountdownStarted{Seconds: seconds})
	room.countdownTimer = e.clock.AfterFunc(e.rules.Countdown, func() {
		e.countdownElapsed(room)
	})
}

func (e *Engine) countdownElapsed(room *Room) {
	room.mu.Lock()
	if !room.countdownActive || room.status != RoomWaiting {
		room.mu.Unlock()
		return
	}
	room.countdownActive = false
	room.countdownTimer = nil
	if room.readyCount() < 2 {
		room.mu.Unlock()
		return
	}
	e.startRoundLocked(room)
	room.mu.Unlock()

	e.refreshRoomList()
}

func (e *Engine) startRoundLocked(room *Room) {
	d := e.newDeck()
	var active []*Player
	for _, p := range room.players {
		if p.Status == StatusReady {
			p.Status = StatusActive
			p.Hand = d.Deal(deck.HandSize)
			p.Score = deck.Score(p.Hand)
			active = append(active, p)
		}
	}

	room.status = RoomPlaying
	room.turnIndex = 0
	room.lastBet = room.MinBet

	e.logger.Info("round started", "room", room.ID, "players", len(active), "bank", room.totalBank)
	e.pub.ToRoom(room.ID, EventBattleStart, BattleStart{
		Players:      room.views(),
		TotalBank:    room.totalBank,
		ActivePlayer: active[0].Username,
		LastBet:      room.lastBet,
	})
	for _, p := range active {
		e.pub.ToPlayer(p.ConnID, EventDealHand, DealHand{Hand: p.Hand, Score: p.Score})
	}
	e.scheduleTurnLocked(room)
}

// scheduleTurnLocked arms the turn timer for the current turn. Bumping
// turnSeq first invalidates whatever was scheduled before, so a turn that
// concluded early can never be double-processed by its old timer.
func (e *Engine) scheduleTurnLocked(room *Room) {
	room.turnSeq++
	if room.turnTimer != nil {
		room.turnTimer.Stop()
	}
	seq := room.turnSeq
	room.turnTimer = e.clock.AfterFunc(e.rules.TurnTimeout, func() {
		e.turnTimeout(room, seq)
	})
}

func (e *Engine) turnTimeout(room *Room, seq uint64) {
	room.mu.Lock()
	if room.status != RoomPlaying || seq != room.turnSeq {
		room.mu.Unlock()
		return
	}
	p := room.currentTurn()
	if p == nil {
		room.mu.Unlock()
		return
	}
	e.logger.Info("turn timeout, auto-folding", "room", room.ID, "player", p.Username)
	resolved := e.foldLocked(context.Background(), room, p, "timeout_fold")
	room.mu.Unlock()

	if resolved {
		e.refreshRoomList()
	}
}

// foldLocked marks p folded, keeps turnIndex addressing the right player and
// resolves the round when one active player remains. Returns true when the
// round resolved.
func (e *Engine) foldLocked(ctx context.Context, room *Room, p *Player, tag string) bool {
	active := room.activePlayers()
	idx := -1
	for i, q := range active {
		if q == p {
			idx = i
			break
		}
	}

	p.Status = StatusFolded
	if o := room.pendingOffer; o != nil && (o.From == p.Username || o.To == p.Username) {
		room.pendingOffer = nil
	}
	e.pub.ToRoom(room.ID, EventMoveMade, MoveMade{Username: p.Username, MoveType: tag})

	remaining := room.activePlayers()
	if len(remaining) == 1 {
		e.resolveWinLocked(ctx, room, remaining[0])
		return true
	}
	if len(remaining) == 0 {
		// defensive: should be unreachable since folding requires an active
		// opponent to exist
		e.resetRoomLocked(room)
		return true
	}

	held := idx == room.turnIndex
	if idx >= 0 && idx < room.turnIndex {
		room.turnIndex--
	}
	if held {
		// the seat after the folder now occupies the same index
		room.turnIndex = room.turnIndex % len(remaining)
		e.announceTurnLocked(room)
	}
	return false
}

func (e *Engine) advanceTurnLocked(room *Room) {
	active := room.activePlayers()
	room.turnIndex = (room.turnIndex + 1) % len(active)
	e.announceTurnLocked(room)
}

func (e *Engine) announceTurnLocked(room *Room) {
	cur := room.currentTurn()
	e.pub.ToRoom(room.ID, EventNextTurn, NextTurn{
		ActivePlayer: cur.Username,
		TotalBank:    room.totalBank,
		LastBet:      room.lastBet,
	})
	e.scheduleTurnLocked(room)
}

func (e *Engine) redealLocked(room *Room) {
	d := e.newDeck()
	active := room.activePlayers()
	for _, p := range active {
		p.Hand = d.Deal(deck.HandSize)
		p.Score = deck.Score(p.Hand)
		p.CurrentBet = 0
	}
	room.lastBet = room.MinBet
	room.turnIndex = 0

	e.logger.Info("redeal", "room", room.ID, "bank", room.totalBank)
	e.pub.ToRoom(room.ID, EventRedeal, BattleStart{
		Players:      room.views(),
		TotalBank:    room.totalBank,
		ActivePlayer: active[0].Username,
		LastBet:      room.lastBet,
	})
	for _, p := range active {
		e.pub.ToPlayer(p.ConnID, EventDealHand, DealHand{Hand: p.Hand, Score: p.Score})
	}
	e.scheduleTurnLocked(room)
}

func (e *Engine) resolveWinLocked(ctx context.Context, room *Room, winner *Player) {
	room.stopTimersLocked()

	pot := room.totalBank
	commission := money.Commission(pot, e.rules.CommissionPercent)
	payout := pot - commission

	newBal, err := e.ledger.Credit(ctx, winner.Username, payout)
	if err != nil {
		// the round still resolves; the credit is retried operationally
		e.logger.Error("failed to credit winner", "room", room.ID,
			"player", winner.Username, "amount", payout, "error", err)
	} else {
		e.pub.ToPlayer(winner.ConnID, EventBalanceUpdate, BalanceUpdate{Username: winner.Username, NewBalance: newBal})
	}

	e.logger.Info("round resolved", "room", room.ID, "winner", winner.Username,
		"payout", payout, "commission", commission)
	e.pub.ToRoom(room.ID, EventGameOver, GameOver{
		Winner:     winner.Username,
		WinAmount:  payout,
		Commission: commission,
		AllHands:   room.revealAll(),
	})
	e.resetRoomLocked(room)
}

func (e *Engine) resolveSplitLocked(ctx context.Context, room *Room) {
	room.stopTimersLocked()

	active := room.activePlayers()
	share, remainder := money.SplitEven(room.totalBank, len(active))

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range active {
		g.Go(func() error {
			newBal, err := e.ledger.Credit(gctx, p.Username, share)
			if err != nil {
				return fmt.Errorf("crediting %s: %w", p.Username, err)
			}
			e.pub.ToPlayer(p.ConnID, EventBalanceUpdate, BalanceUpdate{Username: p.Username, NewBalance: newBal})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.logger.Error("split credit failed", "room", room.ID, "error", err)
	}

	e.logger.Info("pot split", "room", room.ID, "share", share, "remainder", remainder, "players", len(active))
	e.pub.ToRoom(room.ID, EventGameOver, GameOver{
		IsSplit:   true,
		WinAmount: share,
		AllHands:  room.revealAll(),
	})
	e.resetRoomLocked(room)
}

func (e *Engine) resetRoomLocked(room *Room) {
	room.status = RoomWaiting
	room.totalBank = 0
	room.lastBet = room.MinBet
	room.turnIndex = 0
	room.pendingOffer = nil
	for _, p := range room.players {
		p.resetForNextRound()
	}
}

func (e *Engine) refreshRoomList() {
	if e.lists == nil {
		return
	}
	e.pub.RoomList(e.lists.WaitingRooms(e.rules.RoomListLimit))
}

func (e *Engine) newDeck() *deck.Deck {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return deck.New(e.rng)
}
