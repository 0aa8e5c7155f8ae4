package table

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cardroomhq/cardroom/internal/dependencies/clock"
	"github.com/cardroomhq/cardroom/internal/model"
	"github.com/cardroomhq/cardroom/internal/protocol"
	"github.com/cardroomhq/cardroom/internal/services/deck"
	"github.com/cardroomhq/cardroom/internal/services/hand"
	"github.com/cardroomhq/cardroom/internal/services/ledger"
	"github.com/cardroomhq/cardroom/internal/services/stats"
)

// Sink receives snapshots for one bound connection. Send must not block;
// implementations drop or buffer as they see fit.
type Sink interface {
	Send(snapshot *protocol.Snapshot)
}

// Dependencies bundles the services a session needs
type Dependencies struct {
	Logger *slog.Logger
	Clock  clock.Clock
	Decks  *deck.Service
	Hands  *hand.Service
	Ledger ledger.ServiceInterface
	Stats  stats.ServiceInterface
}

// seat is the actor-owned state for one player at the table
type seat struct {
	player    *model.Player
	status    model.SeatStatus
	hand      model.Hand
	balance   int64 // display snapshot; the ledger stays authoritative
	connected bool
	sink      Sink

	// blackjack
	bet    int64
	locked bool // stake has been debited

	// baccarat
	playerBet   int64
	bankerBet   int64
	tieBet      int64
	lastWinning int64
}

// stake returns the total amount the seat has riding on the current round
func (st *seat) stake(variant model.Variant) int64 {
	if variant == model.VariantBaccarat {
		return st.playerBet + st.bankerBet + st.tieBet
	}
	return st.bet
}

// payout is a pending money movement out of settlement. Refunds carry a nil
// wager. Each payout is applied exactly once; unapplied payouts survive a
// ledger outage and are retried.
type payout struct {
	seat   *seat
	amount int64
	stake  int64
	wager  *model.Wager
}

// Session is a single table: one goroutine owns all seat, shoe, and phase
// state and consumes commands one at a time, so no two actions ever race.
type Session struct {
	ID         model.TableID
	Variant    model.Variant
	Visibility model.Visibility

	logger *slog.Logger
	clock  clock.Clock
	decks  *deck.Service
	hands  *hand.Service
	ledger ledger.ServiceInterface
	stats  stats.ServiceInterface
	cfg    Config

	commands chan command

	closeOnce sync.Once
	closing   chan struct{}
	done      chan struct{}

	// onEmpty fires when the last connected player leaves. Must not block
	// the actor; the registry spawns its grace timer from it.
	onEmpty func()

	// Actor-owned state below; touched only from run()
	phase          model.Phase
	shoe           *deck.Shoe
	seats          []*seat
	dealerHand     model.Hand
	playerHand     model.Hand
	bankerHand     model.Hand
	activeSeat     int
	result         model.GameResult
	seq            uint64
	timer          <-chan time.Time
	pendingPayouts []payout
}

type cmdKind int

const (
	cmdJoin cmdKind = iota
	cmdAct
	cmdDisconnect
	cmdInfo
)

type command struct {
	kind      cmdKind
	player    *model.Player
	playerID  model.PlayerID
	sink      Sink
	action    model.Action
	reply     chan error
	infoReply chan Info
}

// Info is a point-in-time view of table occupancy
type Info struct {
	ID         model.TableID
	Variant    model.Variant
	Visibility model.Visibility
	Phase      model.Phase
	Seated     int
	Connected  int
	MaxSeats   int

	// PendingPayouts counts settlement credits still waiting on the
	// ledger. The registry must not release a table while any remain.
	PendingPayouts int
}

// NewSession creates a table and starts its actor goroutine
func NewSession(id model.TableID, variant model.Variant, visibility model.Visibility, cfg Config, deps Dependencies, onEmpty func()) *Session {
	s := &Session{
		ID:         id,
		Variant:    variant,
		Visibility: visibility,
		logger: deps.Logger.With(
			slog.String("table_id", string(id)),
			slog.String("variant", string(variant)),
		),
		clock:      deps.Clock,
		decks:      deps.Decks,
		hands:      deps.Hands,
		ledger:     deps.Ledger,
		stats:      deps.Stats,
		cfg:        cfg,
		commands:   make(chan command),
		closing:    make(chan struct{}),
		done:       make(chan struct{}),
		onEmpty:    onEmpty,
		phase:      model.PhaseWaiting,
		shoe:       deps.Decks.NewShoe(variant),
		seats:      make([]*seat, variant.MaxSeats()),
		activeSeat: -1,
	}

	go s.run()

	return s
}

// Join seats a player, or rebinds an existing seat on reconnect. The seat's
// hand, bet, and status survive across reconnects within a round.
func (s *Session) Join(ctx context.Context, player *model.Player, sink Sink) error {
	return s.send(ctx, command{kind: cmdJoin, player: player, sink: sink, reply: make(chan error, 1)})
}

// Act applies a validated player action. Validation failures are returned to
// the caller and never mutate table state.
func (s *Session) Act(ctx context.Context, playerID model.PlayerID, action model.Action) error {
	return s.send(ctx, command{kind: cmdAct, playerID: playerID, action: action, reply: make(chan error, 1)})
}

// Disconnect detaches a player's sink without freeing the seat, so a
// reconnect within the round finds their hand and bet intact. sink
// identifies the closing connection: if the seat has already been rebound
// to a newer connection, the stale disconnect is ignored. A nil sink
// disconnects unconditionally.
func (s *Session) Disconnect(playerID model.PlayerID, sink Sink) {
	_ = s.send(context.Background(), command{kind: cmdDisconnect, playerID: playerID, sink: sink, reply: make(chan error, 1)})
}

// Info reports current occupancy, for matchmaking and the lobby API
func (s *Session) Info() Info {
	cmd := command{kind: cmdInfo, infoReply: make(chan Info, 1)}
	select {
	case s.commands <- cmd:
	case <-s.closing:
		return Info{ID: s.ID, Variant: s.Variant, Visibility: s.Visibility}
	}
	select {
	case info := <-cmd.infoReply:
		return info
	case <-s.closing:
		return Info{ID: s.ID, Variant: s.Variant, Visibility: s.Visibility}
	}
}

// Close stops the actor. Idempotent.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closing)
	})
	<-s.done
}

func (s *Session) send(ctx context.Context, cmd command) error {
	select {
	case s.commands <- cmd:
	case <-s.closing:
		return model.ErrTableClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-s.closing:
		return model.ErrTableClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) run() {
	defer close(s.done)
	for {
		select {
		case <-s.closing:
			return
		case cmd := <-s.commands:
			s.handleCommand(cmd)
		case <-s.timer:
			s.timer = nil
			s.advance()
		}
	}
}

func (s *Session) handleCommand(cmd command) {
	switch cmd.kind {
	case cmdJoin:
		cmd.reply <- s.handleJoin(cmd.player, cmd.sink)
	case cmdAct:
		cmd.reply <- s.handleAction(cmd.playerID, cmd.action)
	case cmdDisconnect:
		s.handleDisconnect(cmd.playerID, cmd.sink)
		cmd.reply <- nil
	case cmdInfo:
		cmd.infoReply <- Info{
			ID:             s.ID,
			Variant:        s.Variant,
			Visibility:     s.Visibility,
			Phase:          s.phase,
			Seated:         s.seatedCount(),
			Connected:      s.connectedCount(),
			MaxSeats:       len(s.seats),
			PendingPayouts: len(s.pendingPayouts),
		}
	}
}

func (s *Session) handleJoin(player *model.Player, sink Sink) error {
	if existing := s.findSeat(player.ID); existing != nil {
		// Reconnect: same seat, hand, and bet
		existing.connected = true
		existing.sink = sink
		existing.player = player
		s.refreshBalance(existing)
		s.logger.Info("player reconnected", slog.String("player_id", string(player.ID)))
		s.maybeOpenBetting()
		s.broadcast()
		return nil
	}

	idx := s.freeSeat()
	if idx < 0 {
		return model.ErrTableFull
	}

	balance, err := s.ledger.Balance(context.Background(), player.ID)
	if err != nil {
		return err
	}

	s.seats[idx] = &seat{
		player:    player,
		status:    model.SeatStatusStandby,
		balance:   balance,
		connected: true,
		sink:      sink,
	}
	s.logger.Info("player joined",
		slog.String("player_id", string(player.ID)),
		slog.Int("seat", idx),
	)
	s.maybeOpenBetting()
	s.broadcast()
	return nil
}

func (s *Session) handleAction(playerID model.PlayerID, action model.Action) error {
	st := s.findSeat(playerID)
	if st == nil {
		return model.ErrPlayerNotFound
	}

	if action.Type == model.ActionLeave {
		s.handleLeave(st)
		return nil
	}

	if s.Variant == model.VariantBaccarat {
		return s.baccaratAction(st, action)
	}
	return s.blackjackAction(st, action)
}

func (s *Session) handleLeave(st *seat) {
	st.connected = false
	st.sink = nil

	switch {
	case s.roundInProgress() && st.status == model.SeatStatusPlaying && s.isActive(st):
		// Leaving on your own turn stands the hand; the round settles it
		st.status = model.SeatStatusStand
		s.advanceBlackjackTurn()
	case !s.roundInProgress() || !st.locked:
		// No stake riding: free the seat immediately
		s.clearSeat(st)
		s.broadcast()
	default:
		s.broadcast()
	}

	s.checkEmpty()
}

func (s *Session) handleDisconnect(playerID model.PlayerID, sink Sink) {
	st := s.findSeat(playerID)
	if st == nil {
		return
	}
	if sink != nil && st.sink != sink {
		// A newer connection already holds the seat
		return
	}
	st.connected = false
	st.sink = nil

	if s.roundInProgress() && st.status == model.SeatStatusPlaying && s.isActive(st) {
		st.status = model.SeatStatusStand
		s.advanceBlackjackTurn()
	} else {
		s.broadcast()
	}

	s.logger.Info("player disconnected", slog.String("player_id", string(playerID)))
	s.checkEmpty()
}

func (s *Session) advance() {
	switch s.phase {
	case model.PhaseSettlement:
		if len(s.pendingPayouts) > 0 {
			// Retrying a settlement interrupted by a ledger outage
			if s.applyPayouts() {
				s.broadcast()
				s.arm(s.cfg.SettlementPause)
			} else {
				s.arm(s.cfg.LedgerRetryBackoff)
			}
			return
		}
		s.resetRound()
	case model.PhaseBetting:
		s.closeBetting()
	default:
		if s.Variant == model.VariantBaccarat {
			s.advanceBaccarat()
		} else {
			s.advanceBlackjack()
		}
	}
}

func (s *Session) closeBetting() {
	if s.totalStaked() == 0 {
		if s.connectedCount() == 0 {
			s.phase = model.PhaseWaiting
			return
		}
		// Nobody bet; open a fresh window
		s.arm(s.cfg.BettingWindow)
		return
	}

	if s.Variant == model.VariantBaccarat {
		s.startBaccaratRound()
	} else {
		s.startBlackjackRound()
	}
}

// abortRound handles an exhausted shoe mid-round: every locked stake is
// refunded, the shoe is rebuilt, and the round restarts from betting.
// Stakes are never forfeited to an infrastructure fault.
func (s *Session) abortRound() {
	s.logger.Warn("shoe exhausted mid-round, refunding stakes and restarting")

	for _, st := range s.occupiedSeats() {
		if !st.locked {
			continue
		}
		if amount := st.stake(s.Variant); amount > 0 {
			s.pendingPayouts = append(s.pendingPayouts, payout{seat: st, amount: amount})
		}
	}

	s.phase = model.PhaseSettlement
	if s.applyPayouts() {
		s.broadcast()
		s.arm(s.cfg.SettlementPause)
	} else {
		s.broadcast()
		s.arm(s.cfg.LedgerRetryBackoff)
	}
}

// applyPayouts drains the pending payout queue. Returns false if the ledger
// is unavailable, leaving unapplied payouts queued for retry; no payout is
// ever applied twice.
func (s *Session) applyPayouts() bool {
	ctx := context.Background()

	for len(s.pendingPayouts) > 0 {
		p := s.pendingPayouts[0]

		if p.amount > 0 {
			balance, err := s.ledger.Credit(ctx, p.seat.player.ID, p.amount)
			switch {
			case errors.Is(err, model.ErrLedgerUnavailable):
				s.logger.Error("ledger unavailable during settlement, will retry",
					slog.String("player_id", string(p.seat.player.ID)),
					slog.String("error", err.Error()),
				)
				return false
			case err != nil:
				s.logger.Error("settlement credit failed",
					slog.String("player_id", string(p.seat.player.ID)),
					slog.String("error", err.Error()),
				)
			default:
				p.seat.balance = balance
			}
		}

		if p.wager != nil {
			if err := s.ledger.RecordWager(ctx, p.wager); err != nil {
				s.logger.Error("failed to record wager", slog.String("error", err.Error()))
			}
			if err := s.stats.RecordRound(ctx, p.wager.PlayerID, p.stake, p.amount); err != nil {
				s.logger.Error("failed to record round stats", slog.String("error", err.Error()))
			}
		}

		s.pendingPayouts = s.pendingPayouts[1:]
	}

	return true
}

func (s *Session) newWager(st *seat, stake, amount int64) *model.Wager {
	return &model.Wager{
		ID:        uuid.NewString(),
		PlayerID:  st.player.ID,
		TableID:   s.ID,
		Variant:   s.Variant,
		Amount:    stake,
		Payout:    amount,
		Won:       amount > 0,
		SettledAt: s.clock.Now(),
	}
}

// finishSettlement queues the computed payouts, applies them, and arms
// either the between-round pause or the ledger retry backoff
func (s *Session) finishSettlement(payouts []payout) {
	s.pendingPayouts = append(s.pendingPayouts, payouts...)
	s.phase = model.PhaseSettlement
	if s.applyPayouts() {
		s.broadcast()
		s.arm(s.cfg.SettlementPause)
	} else {
		s.broadcast()
		s.arm(s.cfg.LedgerRetryBackoff)
	}
}

func (s *Session) resetRound() {
	s.dealerHand = nil
	s.playerHand = nil
	s.bankerHand = nil
	s.result = ""
	s.activeSeat = -1

	for i, st := range s.seats {
		if st == nil {
			continue
		}
		if !st.connected {
			s.seats[i] = nil
			continue
		}
		st.hand = nil
		st.bet = 0
		st.playerBet = 0
		st.bankerBet = 0
		st.tieBet = 0
		st.locked = false
		st.status = model.SeatStatusStandby
	}

	// Rebuild the shoe before it can run out mid-round
	if s.shoe.Remaining() < 52 {
		s.shoe = s.decks.NewShoe(s.Variant)
	}

	if s.connectedCount() == 0 {
		s.phase = model.PhaseWaiting
		return
	}

	s.phase = model.PhaseBetting
	s.broadcast()
	s.arm(s.cfg.BettingWindow)
}

func (s *Session) maybeOpenBetting() {
	if s.phase == model.PhaseWaiting {
		s.phase = model.PhaseBetting
		s.arm(s.cfg.BettingWindow)
	}
}

func (s *Session) refreshBalance(st *seat) {
	balance, err := s.ledger.Balance(context.Background(), st.player.ID)
	if err != nil {
		s.logger.Warn("failed to refresh balance",
			slog.String("player_id", string(st.player.ID)),
			slog.String("error", err.Error()),
		)
		return
	}
	st.balance = balance
}

func (s *Session) checkEmpty() {
	if s.connectedCount() == 0 && s.onEmpty != nil {
		s.onEmpty()
	}
}

func (s *Session) arm(d time.Duration) {
	s.timer = s.clock.After(d)
}

func (s *Session) roundInProgress() bool {
	switch s.phase {
	case model.PhaseWaiting, model.PhaseBetting, model.PhaseSettlement:
		return false
	}
	return true
}

func (s *Session) isActive(st *seat) bool {
	return s.activeSeat >= 0 && s.activeSeat < len(s.seats) && s.seats[s.activeSeat] == st
}

func (s *Session) findSeat(playerID model.PlayerID) *seat {
	for _, st := range s.seats {
		if st != nil && st.player.ID == playerID {
			return st
		}
	}
	return nil
}

func (s *Session) freeSeat() int {
	for i, st := range s.seats {
		if st == nil {
			return i
		}
	}
	return -1
}

func (s *Session) clearSeat(target *seat) {
	for i, st := range s.seats {
		if st == target {
			s.seats[i] = nil
			return
		}
	}
}

func (s *Session) occupiedSeats() []*seat {
	seats := make([]*seat, 0, len(s.seats))
	for _, st := range s.seats {
		if st != nil {
			seats = append(seats, st)
		}
	}
	return seats
}

func (s *Session) seatedCount() int {
	return len(s.occupiedSeats())
}

func (s *Session) connectedCount() int {
	n := 0
	for _, st := range s.seats {
		if st != nil && st.connected {
			n++
		}
	}
	return n
}

func (s *Session) totalStaked() int64 {
	var total int64
	for _, st := range s.occupiedSeats() {
		total += st.stake(s.Variant)
	}
	return total
}

// broadcast sends a fresh snapshot to every connected seat. Snapshots are
// built and sent inside the actor, so delivery order matches mutation order
// and Seq is strictly increasing.
func (s *Session) broadcast() {
	s.seq++

	views := make([]protocol.SeatView, 0, s.seatedCount())
	for _, st := range s.occupiedSeats() {
		views = append(views, s.seatView(st))
	}

	base := protocol.Snapshot{
		Phase:   string(s.phase),
		Seq:     s.seq,
		Players: views,
	}

	if s.Variant == model.VariantBaccarat {
		base.PlayerHand = s.playerHand
		base.BankerHand = s.bankerHand
		base.GameResult = string(s.result)
		if len(s.playerHand) > 0 {
			base.PlayerTotal = s.hands.BaccaratTotal(s.playerHand)
			base.BankerTotal = s.hands.BaccaratTotal(s.bankerHand)
		}
	} else {
		base.DealerHand = s.visibleDealerHand()
		if s.phase == model.PhasePlayerTurn && s.activeSeat >= 0 && s.seats[s.activeSeat] != nil {
			base.ActivePlayerID = string(s.seats[s.activeSeat].player.ID)
		}
	}

	for _, st := range s.occupiedSeats() {
		if !st.connected || st.sink == nil {
			continue
		}
		snap := base
		snap.YourID = string(st.player.ID)
		if s.Variant == model.VariantBlackjack {
			snap.YourHand = st.hand
		}
		st.sink.Send(&snap)
	}
}

func (s *Session) seatView(st *seat) protocol.SeatView {
	view := protocol.SeatView{
		ID:             string(st.player.ID),
		Username:       st.player.Username,
		ProfilePicture: st.player.ProfilePicture,
		Balance:        st.balance,
	}
	if s.Variant == model.VariantBaccarat {
		view.PlayerBet = st.playerBet
		view.BankerBet = st.bankerBet
		view.TieBet = st.tieBet
		view.LastWinning = st.lastWinning
	} else {
		view.Hand = st.hand
		view.Bet = st.bet
		view.Status = string(st.status)
	}
	return view
}

// visibleDealerHand masks the dealer's second card until the dealer's turn
func (s *Session) visibleDealerHand() model.Hand {
	if len(s.dealerHand) < 2 {
		return s.dealerHand
	}
	if s.phase == model.PhaseDealerTurn || s.phase == model.PhaseSettlement {
		return s.dealerHand
	}
	return model.Hand{s.dealerHand[0], model.HoleCard}
}
