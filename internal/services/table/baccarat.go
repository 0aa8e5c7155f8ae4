package table

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cardroomhq/cardroom/internal/model"
)

// baccaratPayout computes the total credit returned to a seat for a round,
// stakes included. Player pays 1:1, banker 0.95:1 (5% commission), tie 8:1
// with player and banker stakes pushed.
func baccaratPayout(st *seat, result model.GameResult) int64 {
	switch result {
	case model.ResultPlayerWins:
		return st.playerBet * 2
	case model.ResultBankerWins:
		return st.bankerBet + st.bankerBet*95/100
	case model.ResultTie:
		return st.tieBet*9 + st.playerBet + st.bankerBet
	default:
		return 0
	}
}

func (s *Session) baccaratAction(st *seat, action model.Action) error {
	if action.Type != model.ActionBet {
		// Baccarat has no mid-round decisions
		return model.ErrInvalidAction
	}
	return s.baccaratBet(st, action)
}

// baccaratBet adds to one of the seat's three outcome bets. Bets accumulate
// across calls within a betting window.
func (s *Session) baccaratBet(st *seat, action model.Action) error {
	if s.phase != model.PhaseBetting {
		return model.ErrInvalidAction
	}
	if action.BetType == "" || action.Amount <= 0 {
		return model.ErrInvalidAction
	}

	balance, err := s.ledger.Balance(context.Background(), st.player.ID)
	if err != nil {
		return err
	}
	if st.stake(model.VariantBaccarat)+action.Amount > balance {
		return model.ErrInsufficientFunds
	}

	switch action.BetType {
	case model.BetPlayer:
		st.playerBet += action.Amount
	case model.BetBanker:
		st.bankerBet += action.Amount
	case model.BetTie:
		st.tieBet += action.Amount
	}
	st.balance = balance
	s.broadcast()
	return nil
}

func (s *Session) startBaccaratRound() {
	s.lockBaccaratBets()
	if !s.anyLockedStake() {
		s.arm(s.cfg.BettingWindow)
		return
	}

	if err := s.dealBaccarat(); err != nil {
		s.abortRound()
		return
	}

	s.phase = model.PhaseDealing
	s.broadcast()
	s.arm(s.cfg.RevealDelay)
}

func (s *Session) lockBaccaratBets() {
	ctx := context.Background()
	for _, st := range s.occupiedSeats() {
		total := st.stake(model.VariantBaccarat)
		if total <= 0 {
			continue
		}

		balance, err := s.ledger.Debit(ctx, st.player.ID, total)
		if err != nil {
			if !errors.Is(err, model.ErrInsufficientFunds) {
				s.logger.Error("failed to lock bets",
					slog.String("player_id", string(st.player.ID)),
					slog.String("error", err.Error()),
				)
			}
			st.playerBet = 0
			st.bankerBet = 0
			st.tieBet = 0
			continue
		}
		st.balance = balance
		st.locked = true
	}
}

// dealBaccarat deals two cards each, alternating player then banker
func (s *Session) dealBaccarat() error {
	for i := 0; i < 2; i++ {
		card, err := s.shoe.Draw()
		if err != nil {
			return err
		}
		s.playerHand = append(s.playerHand, card)

		card, err = s.shoe.Draw()
		if err != nil {
			return err
		}
		s.bankerHand = append(s.bankerHand, card)
	}
	return nil
}

// advanceBaccarat drives the deterministic reveal sequence. Players make no
// decisions after betting closes; every step is the drawing table's call.
func (s *Session) advanceBaccarat() {
	switch s.phase {
	case model.PhaseDealing:
		if s.hands.IsNatural(s.playerHand) || s.hands.IsNatural(s.bankerHand) {
			// Naturals stand both hands
			s.settleBaccarat()
			return
		}
		if s.hands.PlayerDraws(s.hands.BaccaratTotal(s.playerHand)) {
			s.baccaratPlayerDraw()
			return
		}
		s.baccaratBankerDraw()

	case model.PhasePlayerDraw:
		s.baccaratBankerDraw()

	case model.PhaseBankerDraw:
		s.settleBaccarat()
	}
}

func (s *Session) baccaratPlayerDraw() {
	card, err := s.shoe.Draw()
	if err != nil {
		s.abortRound()
		return
	}
	s.playerHand = append(s.playerHand, card)
	s.phase = model.PhasePlayerDraw
	s.broadcast()
	s.arm(s.cfg.RevealDelay)
}

func (s *Session) baccaratBankerDraw() {
	bankerTotal := s.hands.BaccaratTotal(s.bankerHand)
	playerDrew := len(s.playerHand) == 3

	var playerThird model.Card
	if playerDrew {
		playerThird = s.playerHand[2]
	}

	if s.hands.BankerDraws(bankerTotal, playerDrew, playerThird) {
		card, err := s.shoe.Draw()
		if err != nil {
			s.abortRound()
			return
		}
		s.bankerHand = append(s.bankerHand, card)
	}

	s.phase = model.PhaseBankerDraw
	s.broadcast()
	s.arm(s.cfg.RevealDelay)
}

func (s *Session) settleBaccarat() {
	playerTotal := s.hands.BaccaratTotal(s.playerHand)
	bankerTotal := s.hands.BaccaratTotal(s.bankerHand)
	s.result = s.hands.Outcome(playerTotal, bankerTotal)

	s.logger.Info("baccarat round complete",
		slog.Int("player_total", playerTotal),
		slog.Int("banker_total", bankerTotal),
		slog.String("result", string(s.result)),
	)

	var payouts []payout
	for _, st := range s.occupiedSeats() {
		if !st.locked {
			continue
		}

		stake := st.stake(model.VariantBaccarat)
		amount := baccaratPayout(st, s.result)
		st.lastWinning = amount - stake

		payouts = append(payouts, payout{
			seat:   st,
			amount: amount,
			stake:  stake,
			wager:  s.newWager(st, stake, amount),
		})
	}

	s.finishSettlement(payouts)
}
