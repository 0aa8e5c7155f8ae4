package table

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/cardroomhq/cardroom/internal/dependencies/mocks"
	"github.com/cardroomhq/cardroom/internal/dependencies/random"
	"github.com/cardroomhq/cardroom/internal/model"
	"github.com/cardroomhq/cardroom/internal/protocol"
	"github.com/cardroomhq/cardroom/internal/services/deck"
	"github.com/cardroomhq/cardroom/internal/services/hand"
	"github.com/cardroomhq/cardroom/internal/services/ledger"
	"github.com/cardroomhq/cardroom/internal/services/stats"
	"github.com/cardroomhq/cardroom/internal/storage/memory"
	"github.com/cardroomhq/cardroom/internal/testutil"
)

// fakeSink records every snapshot a connection would receive
type fakeSink struct {
	mu    sync.Mutex
	snaps []*protocol.Snapshot
}

func (f *fakeSink) Send(snap *protocol.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snaps = append(f.snaps, snap)
}

func (f *fakeSink) last() *protocol.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.snaps) == 0 {
		return nil
	}
	return f.snaps[len(f.snaps)-1]
}

// outageLedger lets tests flip the ledger into an unavailable state
type outageLedger struct {
	*ledger.Service
	mu   sync.Mutex
	down bool
}

func (o *outageLedger) setDown(down bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.down = down
}

func (o *outageLedger) Credit(ctx context.Context, playerID model.PlayerID, amount int64) (int64, error) {
	o.mu.Lock()
	down := o.down
	o.mu.Unlock()
	if down {
		return 0, fmt.Errorf("%w: connection refused", model.ErrLedgerUnavailable)
	}
	return o.Service.Credit(ctx, playerID, amount)
}

func c(rank model.Rank) model.Card {
	return model.Card{Suit: model.Clubs, Rank: rank}
}

type SessionSuite struct {
	suite.Suite
	clock  *mocks.MockClock
	store  *memory.Storage
	ledger *outageLedger
	deps   Dependencies
	ctx    context.Context
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func (s *SessionSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	s.store = memory.New()
	s.ledger = &outageLedger{Service: ledger.New(s.store)}
	s.deps = Dependencies{
		Logger: testutil.NopLogger(),
		Clock:  s.clock,
		Decks:  deck.New(random.New()),
		Hands:  hand.New(),
		Ledger: s.ledger,
		Stats:  stats.New(s.store),
	}
	s.ctx = context.Background()
}

func (s *SessionSuite) newTable(variant model.Variant, shoe *deck.Shoe) *Session {
	sess := NewSession("TABLE", variant, model.VisibilityPrivate, DefaultConfig(variant), s.deps, nil)
	if shoe != nil {
		sess.shoe = shoe
	}
	return sess
}

func (s *SessionSuite) seatPlayer(sess *Session, id string, balance int64) *fakeSink {
	player := &model.Player{ID: model.PlayerID(id), Username: id}
	s.Require().NoError(s.ledger.OpenAccount(s.ctx, player.ID, balance))
	sink := &fakeSink{}
	s.Require().NoError(sess.Join(s.ctx, player, sink))
	return sink
}

func (s *SessionSuite) balance(id string) int64 {
	balance, err := s.ledger.Balance(s.ctx, model.PlayerID(id))
	s.Require().NoError(err)
	return balance
}

func (s *SessionSuite) awaitPhase(sess *Session, phase model.Phase) {
	s.Require().Eventually(func() bool {
		return sess.Info().Phase == phase
	}, time.Second, time.Millisecond, "waiting for phase %s", phase)
}

func bet(amount int64) model.Action {
	return model.Action{Type: model.ActionBet, Amount: amount}
}

func baccaratBet(betType model.BetType, amount int64) model.Action {
	return model.Action{Type: model.ActionBet, Amount: amount, BetType: betType}
}

// Blackjack

func (s *SessionSuite) TestBlackjackPlayerStandsDealerDrawsToWin() {
	// Player 17 vs dealer 16; dealer must draw and catches a 5 for 21
	sess := s.newTable(model.VariantBlackjack, deck.NewStacked(
		c("10"), c("7"), // player
		c("10"), c("6"), // dealer
		c("5"), // dealer's forced draw
	))
	defer sess.Close()
	sink := s.seatPlayer(sess, "alice", 1000)

	s.Require().NoError(sess.Act(s.ctx, "alice", bet(50)))
	s.Equal(model.PhasePlayerTurn, sess.Info().Phase)

	s.Require().NoError(sess.Act(s.ctx, "alice", model.Action{Type: model.ActionStand}))

	s.Equal(model.PhaseSettlement, sess.Info().Phase)
	snap := sink.last()
	s.Equal(string(model.PhaseSettlement), snap.Phase)
	s.Len(snap.DealerHand, 3)
	s.Equal(string(model.SeatStatusLost), snap.Players[0].Status)

	// Only the stake is gone
	s.Equal(int64(950), s.balance("alice"))
}

func (s *SessionSuite) TestBlackjackNaturalPaysThreeToTwo() {
	sess := s.newTable(model.VariantBlackjack, deck.NewStacked(
		c("A"), c("K"), // player natural
		c("9"), c("5"), // dealer 14
		c("5"), // dealer draws to 19
	))
	defer sess.Close()
	s.seatPlayer(sess, "alice", 1000)

	s.Require().NoError(sess.Act(s.ctx, "alice", bet(50)))

	// The natural skips the player's turn entirely
	s.Equal(model.PhaseSettlement, sess.Info().Phase)
	s.Equal(int64(1075), s.balance("alice"))
}

func (s *SessionSuite) TestBlackjackDoubleWins() {
	sess := s.newTable(model.VariantBlackjack, deck.NewStacked(
		c("5"), c("6"), // player 11
		c("10"), c("7"), // dealer 17, stands
		c("10"), // player's double card, 21
	))
	defer sess.Close()
	s.seatPlayer(sess, "alice", 1000)

	s.Require().NoError(sess.Act(s.ctx, "alice", bet(50)))
	s.Require().NoError(sess.Act(s.ctx, "alice", model.Action{Type: model.ActionDouble}))

	s.Equal(model.PhaseSettlement, sess.Info().Phase)
	// Doubled stake of 100 pays 1:1
	s.Equal(int64(1100), s.balance("alice"))
}

func (s *SessionSuite) TestBlackjackDoubleOnlyAsFirstAction() {
	sess := s.newTable(model.VariantBlackjack, deck.NewStacked(
		c("2"), c("3"),
		c("10"), c("7"),
		c("2"), // hit card
		c("10"),
	))
	defer sess.Close()
	s.seatPlayer(sess, "alice", 1000)

	s.Require().NoError(sess.Act(s.ctx, "alice", bet(50)))
	s.Require().NoError(sess.Act(s.ctx, "alice", model.Action{Type: model.ActionHit}))

	err := sess.Act(s.ctx, "alice", model.Action{Type: model.ActionDouble})
	s.ErrorIs(err, model.ErrInvalidAction)
}

func (s *SessionSuite) TestBlackjackHitFromNonActiveSeatRejected() {
	sess := s.newTable(model.VariantBlackjack, deck.NewStacked(
		c("2"), c("3"), // alice
		c("4"), c("5"), // bob
		c("9"), c("9"), // dealer
	))
	defer sess.Close()
	aliceSink := s.seatPlayer(sess, "alice", 1000)
	s.seatPlayer(sess, "bob", 1000)

	s.Require().NoError(sess.Act(s.ctx, "alice", bet(10)))
	s.Require().NoError(sess.Act(s.ctx, "bob", bet(10)))

	s.Equal(model.PhasePlayerTurn, sess.Info().Phase)
	s.Equal("alice", aliceSink.last().ActivePlayerID)

	err := sess.Act(s.ctx, "bob", model.Action{Type: model.ActionHit})
	s.ErrorIs(err, model.ErrInvalidAction)

	// No hand changed
	snap := aliceSink.last()
	s.Len(snap.Players[0].Hand, 2)
	s.Len(snap.Players[1].Hand, 2)
}

func (s *SessionSuite) TestBlackjackTurnTimeoutForcesStand() {
	sess := s.newTable(model.VariantBlackjack, deck.NewStacked(
		c("10"), c("7"),
		c("10"), c("6"),
		c("5"),
	))
	defer sess.Close()
	s.seatPlayer(sess, "alice", 1000)

	s.Require().NoError(sess.Act(s.ctx, "alice", bet(50)))
	s.Equal(model.PhasePlayerTurn, sess.Info().Phase)

	s.clock.Advance(5 * time.Second)
	s.awaitPhase(sess, model.PhaseSettlement)
	s.Equal(int64(950), s.balance("alice"))
}

func (s *SessionSuite) TestBlackjackBettingWindowPartialBets() {
	sess := s.newTable(model.VariantBlackjack, deck.NewStacked(
		c("10"), c("7"),
		c("10"), c("9"),
	))
	defer sess.Close()
	aliceSink := s.seatPlayer(sess, "alice", 1000)
	s.seatPlayer(sess, "bob", 1000)

	s.Require().NoError(sess.Act(s.ctx, "alice", bet(50)))
	s.Equal(model.PhaseBetting, sess.Info().Phase)

	s.clock.Advance(5 * time.Second)
	s.awaitPhase(sess, model.PhasePlayerTurn)

	snap := aliceSink.last()
	s.Equal(string(model.SeatStatusPlaying), snap.Players[0].Status)
	s.Equal(string(model.SeatStatusStandby), snap.Players[1].Status)
	s.Equal(int64(1000), s.balance("bob"))
}

func (s *SessionSuite) TestBlackjackBetExceedingBalanceRejected() {
	sess := s.newTable(model.VariantBlackjack, nil)
	defer sess.Close()
	s.seatPlayer(sess, "alice", 100)

	err := sess.Act(s.ctx, "alice", bet(101))
	s.ErrorIs(err, model.ErrInsufficientFunds)
	s.Equal(int64(100), s.balance("alice"))
}

func (s *SessionSuite) TestBlackjackBetOutsideBettingPhaseRejected() {
	sess := s.newTable(model.VariantBlackjack, deck.NewStacked(
		c("10"), c("7"),
		c("10"), c("9"),
	))
	defer sess.Close()
	s.seatPlayer(sess, "alice", 1000)

	s.Require().NoError(sess.Act(s.ctx, "alice", bet(50)))
	s.Equal(model.PhasePlayerTurn, sess.Info().Phase)

	err := sess.Act(s.ctx, "alice", bet(75))
	s.ErrorIs(err, model.ErrInvalidAction)
}

func (s *SessionSuite) TestBlackjackHoleCardHiddenUntilDealerTurn() {
	sess := s.newTable(model.VariantBlackjack, deck.NewStacked(
		c("10"), c("7"),
		c("10"), c("6"),
		c("5"),
	))
	defer sess.Close()
	sink := s.seatPlayer(sess, "alice", 1000)

	s.Require().NoError(sess.Act(s.ctx, "alice", bet(50)))

	snap := sink.last()
	s.Equal(string(model.PhasePlayerTurn), snap.Phase)
	s.Require().Len(snap.DealerHand, 2)
	s.Equal(c("10"), snap.DealerHand[0])
	s.True(snap.DealerHand[1].IsHole())

	s.Require().NoError(sess.Act(s.ctx, "alice", model.Action{Type: model.ActionStand}))

	snap = sink.last()
	for _, card := range snap.DealerHand {
		s.False(card.IsHole())
	}
}

func (s *SessionSuite) TestReconnectPreservesSeatMidRound() {
	sess := s.newTable(model.VariantBlackjack, deck.NewStacked(
		c("2"), c("3"), // alice
		c("4"), c("5"), // bob
		c("9"), c("9"), // dealer
	))
	defer sess.Close()
	aliceSink := s.seatPlayer(sess, "alice", 1000)
	bobSink := s.seatPlayer(sess, "bob", 1000)

	s.Require().NoError(sess.Act(s.ctx, "alice", bet(10)))
	s.Require().NoError(sess.Act(s.ctx, "bob", bet(20)))
	s.Equal(model.PhasePlayerTurn, sess.Info().Phase)

	before := bobSink.last()

	sess.Disconnect("bob", bobSink)

	// Rebind with the same identity
	rejoined := &fakeSink{}
	s.Require().NoError(sess.Join(s.ctx, &model.Player{ID: "bob", Username: "bob"}, rejoined))

	after := rejoined.last()
	s.Equal("bob", after.YourID)
	s.Equal(before.YourHand, after.YourHand)
	s.Equal(before.Players[1].Bet, after.Players[1].Bet)
	s.Equal(before.Players[1].Status, after.Players[1].Status)
	s.Equal(before.Players[1].Balance, after.Players[1].Balance)

	// The round was never interrupted
	s.Equal(model.PhasePlayerTurn, sess.Info().Phase)
	s.Equal("alice", aliceSink.last().ActivePlayerID)
}

func (s *SessionSuite) TestEmptyShoeRefundsAndRestarts() {
	sess := s.newTable(model.VariantBlackjack, deck.NewStacked(
		c("10"), c("7"), c("4"), // not enough to finish the deal
	))
	defer sess.Close()
	s.seatPlayer(sess, "alice", 1000)

	s.Require().NoError(sess.Act(s.ctx, "alice", bet(50)))

	// Stake refunded in full
	s.Equal(model.PhaseSettlement, sess.Info().Phase)
	s.Equal(int64(1000), s.balance("alice"))

	// Fresh shoe, fresh betting window
	s.clock.Advance(2 * time.Second)
	s.awaitPhase(sess, model.PhaseBetting)
}

func (s *SessionSuite) TestLedgerOutagePausesSettlementAndRetries() {
	sess := s.newTable(model.VariantBlackjack, deck.NewStacked(
		c("10"), c("9"), // player 19
		c("10"), c("7"), // dealer 17, stands
	))
	defer sess.Close()
	s.seatPlayer(sess, "alice", 1000)

	s.Require().NoError(sess.Act(s.ctx, "alice", bet(50)))

	s.ledger.setDown(true)
	s.Require().NoError(sess.Act(s.ctx, "alice", model.Action{Type: model.ActionStand}))

	// Winnings held, not lost
	s.Equal(model.PhaseSettlement, sess.Info().Phase)
	s.Equal(int64(950), s.balance("alice"))

	s.ledger.setDown(false)
	s.clock.Advance(2 * time.Second)

	s.Require().Eventually(func() bool {
		return s.balance("alice") == 1050
	}, time.Second, time.Millisecond)
}

func (s *SessionSuite) TestMoneyConservationAcrossRound() {
	sess := s.newTable(model.VariantBlackjack, deck.NewStacked(
		c("A"), c("K"), // alice: natural
		c("10"), c("6"), // bob: 16
		c("10"), c("9"), // dealer 19
	))
	defer sess.Close()
	s.seatPlayer(sess, "alice", 1000)
	s.seatPlayer(sess, "bob", 1000)

	s.Require().NoError(sess.Act(s.ctx, "alice", bet(50)))
	s.Require().NoError(sess.Act(s.ctx, "bob", bet(30)))

	s.Require().NoError(sess.Act(s.ctx, "bob", model.Action{Type: model.ActionStand}))
	s.Equal(model.PhaseSettlement, sess.Info().Phase)

	// Every balance equals initial - stake + recorded payout, exactly once
	for _, id := range []string{"alice", "bob"} {
		wagers, err := s.ledger.WagerHistory(s.ctx, model.PlayerID(id), 10)
		s.Require().NoError(err)
		s.Require().Len(wagers, 1)
		s.Equal(1000-wagers[0].Amount+wagers[0].Payout, s.balance(id))
	}

	s.Equal(int64(1075), s.balance("alice"))
	s.Equal(int64(970), s.balance("bob"))
}

func (s *SessionSuite) TestJoinFullTableRejected() {
	sess := s.newTable(model.VariantBlackjack, nil)
	defer sess.Close()

	for i := 0; i < model.BlackjackMaxSeats; i++ {
		s.seatPlayer(sess, fmt.Sprintf("player-%d", i), 100)
	}

	extra := &model.Player{ID: "latecomer", Username: "latecomer"}
	s.Require().NoError(s.ledger.OpenAccount(s.ctx, extra.ID, 100))
	err := sess.Join(s.ctx, extra, &fakeSink{})
	s.ErrorIs(err, model.ErrTableFull)
}

// Baccarat

func (s *SessionSuite) TestBaccaratNaturalPlayerWins() {
	// Player {5,3}=8 natural vs banker {2,2}=4: both stand, player wins
	sess := s.newTable(model.VariantBaccarat, deck.NewStacked(
		c("5"), c("2"), c("3"), c("2"),
	))
	defer sess.Close()
	aliceSink := s.seatPlayer(sess, "alice", 1000)
	s.seatPlayer(sess, "bob", 1000)

	s.Require().NoError(sess.Act(s.ctx, "alice", baccaratBet(model.BetPlayer, 50)))
	s.Require().NoError(sess.Act(s.ctx, "bob", baccaratBet(model.BetBanker, 40)))
	s.Require().NoError(sess.Act(s.ctx, "bob", baccaratBet(model.BetTie, 10)))

	s.clock.Advance(15 * time.Second)
	s.awaitPhase(sess, model.PhaseDealing)
	s.clock.Advance(3 * time.Second)
	s.awaitPhase(sess, model.PhaseSettlement)

	snap := aliceSink.last()
	s.Equal(string(model.ResultPlayerWins), snap.GameResult)
	s.Equal(8, snap.PlayerTotal)
	s.Equal(4, snap.BankerTotal)

	// Player bet pays 1:1; banker and tie bets lose
	s.Equal(int64(1050), s.balance("alice"))
	s.Equal(int64(950), s.balance("bob"))
	s.Equal(int64(-50), snap.Players[1].LastWinning)
}

func (s *SessionSuite) TestBaccaratTiePushesSideBets() {
	// Player {4,4}=8 vs banker {3,5}=8: tie
	sess := s.newTable(model.VariantBaccarat, deck.NewStacked(
		c("4"), c("3"), c("4"), c("5"),
	))
	defer sess.Close()
	sink := s.seatPlayer(sess, "alice", 1000)

	s.Require().NoError(sess.Act(s.ctx, "alice", baccaratBet(model.BetPlayer, 20)))
	s.Require().NoError(sess.Act(s.ctx, "alice", baccaratBet(model.BetBanker, 30)))
	s.Require().NoError(sess.Act(s.ctx, "alice", baccaratBet(model.BetTie, 10)))

	s.clock.Advance(15 * time.Second)
	s.awaitPhase(sess, model.PhaseDealing)
	s.clock.Advance(3 * time.Second)
	s.awaitPhase(sess, model.PhaseSettlement)

	// Tie pays 8:1, player and banker stakes pushed
	s.Equal(int64(1080), s.balance("alice"))
	s.Equal(int64(80), sink.last().Players[0].LastWinning)
}

func (s *SessionSuite) TestBaccaratThirdCardSequence() {
	// Player {2,3}=5 draws a 6 for 1; banker {2,3}=5 draws against a 6,
	// catching a 9 for 4. Banker wins 4 to 1.
	sess := s.newTable(model.VariantBaccarat, deck.NewStacked(
		c("2"), c("2"), c("3"), c("3"), c("6"), c("9"),
	))
	defer sess.Close()
	sink := s.seatPlayer(sess, "alice", 1000)

	s.Require().NoError(sess.Act(s.ctx, "alice", baccaratBet(model.BetBanker, 100)))

	s.clock.Advance(15 * time.Second)
	s.awaitPhase(sess, model.PhaseDealing)
	s.clock.Advance(3 * time.Second)
	s.awaitPhase(sess, model.PhasePlayerDraw)
	s.clock.Advance(3 * time.Second)
	s.awaitPhase(sess, model.PhaseBankerDraw)
	s.clock.Advance(3 * time.Second)
	s.awaitPhase(sess, model.PhaseSettlement)

	snap := sink.last()
	s.Equal(string(model.ResultBankerWins), snap.GameResult)
	s.Len(snap.PlayerHand, 3)
	s.Len(snap.BankerHand, 3)

	// Banker pays 0.95:1 after commission
	s.Equal(int64(1095), s.balance("alice"))
}

func (s *SessionSuite) TestBaccaratBetsAccumulate() {
	sess := s.newTable(model.VariantBaccarat, nil)
	defer sess.Close()
	sink := s.seatPlayer(sess, "alice", 1000)

	s.Require().NoError(sess.Act(s.ctx, "alice", baccaratBet(model.BetPlayer, 20)))
	s.Require().NoError(sess.Act(s.ctx, "alice", baccaratBet(model.BetPlayer, 30)))

	s.Equal(int64(50), sink.last().Players[0].PlayerBet)
}

func (s *SessionSuite) TestBaccaratBetBeyondBalanceRejected() {
	sess := s.newTable(model.VariantBaccarat, nil)
	defer sess.Close()
	s.seatPlayer(sess, "alice", 100)

	s.Require().NoError(sess.Act(s.ctx, "alice", baccaratBet(model.BetPlayer, 80)))

	err := sess.Act(s.ctx, "alice", baccaratBet(model.BetTie, 30))
	s.ErrorIs(err, model.ErrInsufficientFunds)
}

func (s *SessionSuite) TestBaccaratRejectsBlackjackActions() {
	sess := s.newTable(model.VariantBaccarat, nil)
	defer sess.Close()
	s.seatPlayer(sess, "alice", 1000)

	err := sess.Act(s.ctx, "alice", model.Action{Type: model.ActionHit})
	s.ErrorIs(err, model.ErrInvalidAction)
}

func (s *SessionSuite) TestSnapshotSequenceIsMonotonic() {
	sess := s.newTable(model.VariantBlackjack, deck.NewStacked(
		c("10"), c("7"),
		c("10"), c("9"),
	))
	defer sess.Close()
	sink := s.seatPlayer(sess, "alice", 1000)

	s.Require().NoError(sess.Act(s.ctx, "alice", bet(50)))
	s.Require().NoError(sess.Act(s.ctx, "alice", model.Action{Type: model.ActionStand}))

	sink.mu.Lock()
	defer sink.mu.Unlock()
	for i := 1; i < len(sink.snaps); i++ {
		s.Greater(sink.snaps[i].Seq, sink.snaps[i-1].Seq)
	}
}
