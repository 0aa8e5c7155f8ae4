package table

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cardroomhq/cardroom/internal/model"
)

// dealerStandTotal is the dealer's stand threshold. The dealer stands on
// every 17, soft 17 included.
const dealerStandTotal = 17

// blackjackPayout computes the total credit returned to a winning or pushed
// seat, stake included. Naturals pay 3:2.
func blackjackPayout(bet int64, status model.SeatStatus) int64 {
	switch status {
	case model.SeatStatusBlackjack:
		return bet + bet*3/2
	case model.SeatStatusWon:
		return bet * 2
	case model.SeatStatusPush:
		return bet
	default:
		return 0
	}
}

func (s *Session) blackjackAction(st *seat, action model.Action) error {
	switch action.Type {
	case model.ActionBet:
		return s.blackjackBet(st, action.Amount)
	case model.ActionHit:
		return s.blackjackHit(st)
	case model.ActionStand:
		return s.blackjackStand(st)
	case model.ActionDouble:
		return s.blackjackDouble(st)
	default:
		return model.ErrInvalidAction
	}
}

func (s *Session) blackjackBet(st *seat, amount int64) error {
	if s.phase != model.PhaseBetting {
		return model.ErrInvalidAction
	}

	// Always re-check the ledger: the player may be seated at another table
	balance, err := s.ledger.Balance(context.Background(), st.player.ID)
	if err != nil {
		return err
	}
	if amount > balance {
		return model.ErrInsufficientFunds
	}

	st.bet = amount
	st.balance = balance
	s.broadcast()

	// Everyone seated has a bet down: no reason to keep the window open
	if s.allConnectedSeatsBet() {
		s.timer = nil
		s.closeBetting()
	}
	return nil
}

func (s *Session) blackjackHit(st *seat) error {
	if err := s.requireTurn(st); err != nil {
		return err
	}

	card, err := s.shoe.Draw()
	if err != nil {
		s.abortRound()
		return nil
	}
	st.hand = append(st.hand, card)

	if s.hands.IsBust(st.hand) {
		st.status = model.SeatStatusBusted
		s.advanceBlackjackTurn()
		return nil
	}
	s.broadcast()
	return nil
}

func (s *Session) blackjackStand(st *seat) error {
	if err := s.requireTurn(st); err != nil {
		return err
	}
	st.status = model.SeatStatusStand
	s.advanceBlackjackTurn()
	return nil
}

func (s *Session) blackjackDouble(st *seat) error {
	if err := s.requireTurn(st); err != nil {
		return err
	}
	if len(st.hand) != 2 {
		// Double is only available as the first action on a hand
		return model.ErrInvalidAction
	}

	balance, err := s.ledger.Debit(context.Background(), st.player.ID, st.bet)
	if err != nil {
		return err
	}
	st.balance = balance
	st.bet *= 2

	card, drawErr := s.shoe.Draw()
	if drawErr != nil {
		s.abortRound()
		return nil
	}
	st.hand = append(st.hand, card)

	if s.hands.IsBust(st.hand) {
		st.status = model.SeatStatusBusted
	} else {
		st.status = model.SeatStatusStand
	}
	s.advanceBlackjackTurn()
	return nil
}

func (s *Session) requireTurn(st *seat) error {
	if s.phase != model.PhasePlayerTurn || !s.isActive(st) || st.status != model.SeatStatusPlaying {
		return model.ErrInvalidAction
	}
	return nil
}

func (s *Session) allConnectedSeatsBet() bool {
	any := false
	for _, st := range s.occupiedSeats() {
		if !st.connected {
			continue
		}
		if st.bet == 0 {
			return false
		}
		any = true
	}
	return any
}

// startBlackjackRound locks bets, deals, and hands the round to the first
// player who has a decision to make
func (s *Session) startBlackjackRound() {
	s.lockBlackjackBets()
	if !s.anyLockedStake() {
		// Every debit failed; reopen betting
		s.arm(s.cfg.BettingWindow)
		return
	}

	if err := s.dealBlackjack(); err != nil {
		s.abortRound()
		return
	}

	s.phase = model.PhaseDealing
	s.broadcast()

	s.flagNaturals()

	if s.hands.IsBlackjack(s.dealerHand) {
		// Dealer natural: no player decisions this round
		s.blackjackDealerTurn()
		return
	}

	s.activeSeat = -1
	s.advanceBlackjackTurn()
}

func (s *Session) lockBlackjackBets() {
	ctx := context.Background()
	for _, st := range s.occupiedSeats() {
		if st.bet <= 0 {
			st.status = model.SeatStatusStandby
			continue
		}

		balance, err := s.ledger.Debit(ctx, st.player.ID, st.bet)
		if err != nil {
			if !errors.Is(err, model.ErrInsufficientFunds) {
				s.logger.Error("failed to lock bet",
					slog.String("player_id", string(st.player.ID)),
					slog.String("error", err.Error()),
				)
			}
			st.bet = 0
			st.status = model.SeatStatusStandby
			continue
		}
		st.balance = balance
		st.locked = true
	}
}

func (s *Session) anyLockedStake() bool {
	for _, st := range s.occupiedSeats() {
		if st.locked {
			return true
		}
	}
	return false
}

func (s *Session) dealBlackjack() error {
	for _, st := range s.occupiedSeats() {
		if !st.locked {
			continue
		}
		for i := 0; i < 2; i++ {
			card, err := s.shoe.Draw()
			if err != nil {
				return err
			}
			st.hand = append(st.hand, card)
		}
		st.status = model.SeatStatusPlaying
	}

	for i := 0; i < 2; i++ {
		card, err := s.shoe.Draw()
		if err != nil {
			return err
		}
		s.dealerHand = append(s.dealerHand, card)
	}
	return nil
}

// flagNaturals marks two-card 21s so turn order skips them
func (s *Session) flagNaturals() {
	for _, st := range s.occupiedSeats() {
		if st.locked && s.hands.IsBlackjack(st.hand) {
			st.status = model.SeatStatusBlackjack
		}
	}
}

// advanceBlackjackTurn moves to the next seat still owed a decision, or
// plays out the dealer when none remain
func (s *Session) advanceBlackjackTurn() {
	for i := s.activeSeat + 1; i < len(s.seats); i++ {
		st := s.seats[i]
		if st != nil && st.status == model.SeatStatusPlaying {
			s.activeSeat = i
			s.phase = model.PhasePlayerTurn
			s.broadcast()
			s.arm(s.cfg.TurnTimeout)
			return
		}
	}
	s.blackjackDealerTurn()
}

func (s *Session) advanceBlackjack() {
	if s.phase != model.PhasePlayerTurn {
		return
	}

	// Turn timer expired: the active seat stands by default
	if s.activeSeat >= 0 && s.activeSeat < len(s.seats) {
		if st := s.seats[s.activeSeat]; st != nil && st.status == model.SeatStatusPlaying {
			st.status = model.SeatStatusStand
		}
	}
	s.advanceBlackjackTurn()
}

func (s *Session) blackjackDealerTurn() {
	s.phase = model.PhaseDealerTurn
	s.activeSeat = -1
	s.timer = nil

	// Dealer only draws when a live hand remains to beat
	if s.anyLiveHand() {
		for {
			total, _ := s.hands.BlackjackTotal(s.dealerHand)
			if total >= dealerStandTotal {
				break
			}
			card, err := s.shoe.Draw()
			if err != nil {
				s.abortRound()
				return
			}
			s.dealerHand = append(s.dealerHand, card)
		}
	}

	s.broadcast()
	s.settleBlackjack()
}

func (s *Session) anyLiveHand() bool {
	for _, st := range s.occupiedSeats() {
		if st.locked && st.status != model.SeatStatusBusted {
			return true
		}
	}
	return false
}

func (s *Session) settleBlackjack() {
	dealerTotal, _ := s.hands.BlackjackTotal(s.dealerHand)
	dealerBusted := dealerTotal > 21
	dealerNatural := s.hands.IsBlackjack(s.dealerHand)

	var payouts []payout
	for _, st := range s.occupiedSeats() {
		if !st.locked {
			continue
		}

		playerTotal, _ := s.hands.BlackjackTotal(st.hand)
		playerNatural := st.status == model.SeatStatusBlackjack

		switch {
		case st.status == model.SeatStatusBusted:
			st.status = model.SeatStatusLost
		case playerNatural && dealerNatural:
			st.status = model.SeatStatusPush
		case playerNatural:
			st.status = model.SeatStatusBlackjack
		case dealerNatural:
			st.status = model.SeatStatusLost
		case dealerBusted:
			st.status = model.SeatStatusWon
		case playerTotal > dealerTotal:
			st.status = model.SeatStatusWon
		case playerTotal == dealerTotal:
			st.status = model.SeatStatusPush
		default:
			st.status = model.SeatStatusLost
		}

		amount := blackjackPayout(st.bet, st.status)
		payouts = append(payouts, payout{
			seat:   st,
			amount: amount,
			stake:  st.bet,
			wager:  s.newWager(st, st.bet, amount),
		})
	}

	s.finishSettlement(payouts)
}
