package hand

import (
	"github.com/cardroomhq/cardroom/internal/model"
)

// Service evaluates blackjack and baccarat hands. It is stateless; a single
// instance is shared by every session.
type Service struct{}

// New creates a new hand evaluator
func New() *Service {
	return &Service{}
}

// BlackjackTotal returns the best total for a blackjack hand, counting aces
// as 11 where that does not bust the hand. soft reports whether an ace is
// currently counted as 11.
func (s *Service) BlackjackTotal(h model.Hand) (total int, soft bool) {
	aces := 0
	for _, c := range h {
		switch c.Rank {
		case "A":
			aces++
			total += 11
		case "K", "Q", "J", "10":
			total += 10
		default:
			total += int(c.Rank[0] - '0')
		}
	}

	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}

	return total, aces > 0
}

// IsBlackjack reports whether a hand is a natural: exactly two cards
// totalling 21
func (s *Service) IsBlackjack(h model.Hand) bool {
	if len(h) != 2 {
		return false
	}
	total, _ := s.BlackjackTotal(h)
	return total == 21
}

// IsBust reports whether a blackjack hand exceeds 21
func (s *Service) IsBust(h model.Hand) bool {
	total, _ := s.BlackjackTotal(h)
	return total > 21
}

// BaccaratTotal returns the baccarat point value of a hand: card values
// summed modulo 10, with tens and face cards worth zero
func (s *Service) BaccaratTotal(h model.Hand) int {
	total := 0
	for _, c := range h {
		switch c.Rank {
		case "A":
			total++
		case "K", "Q", "J", "10":
			// zero
		default:
			total += int(c.Rank[0] - '0')
		}
	}
	return total % 10
}

// IsNatural reports whether a two-card baccarat hand totals 8 or 9, which
// ends the round without further draws
func (s *Service) IsNatural(h model.Hand) bool {
	return len(h) == 2 && s.BaccaratTotal(h) >= 8
}

// PlayerDraws reports whether the baccarat player hand takes a third card:
// it draws on totals 0-5 and stands on 6-7
func (s *Service) PlayerDraws(playerTotal int) bool {
	return playerTotal <= 5
}

// BankerDraws applies the banker drawing table. playerDrew indicates whether
// the player hand took a third card; playerThird is that card (ignored when
// playerDrew is false).
func (s *Service) BankerDraws(bankerTotal int, playerDrew bool, playerThird model.Card) bool {
	if !playerDrew {
		// Player stood pat: banker draws on 0-5, stands on 6-7
		return bankerTotal <= 5
	}

	third := s.baccaratCardValue(playerThird)
	switch bankerTotal {
	case 0, 1, 2:
		return true
	case 3:
		return third != 8
	case 4:
		return third >= 2 && third <= 7
	case 5:
		return third >= 4 && third <= 7
	case 6:
		return third == 6 || third == 7
	default:
		return false
	}
}

// Outcome compares final baccarat totals
func (s *Service) Outcome(playerTotal, bankerTotal int) model.GameResult {
	switch {
	case playerTotal > bankerTotal:
		return model.ResultPlayerWins
	case bankerTotal > playerTotal:
		return model.ResultBankerWins
	default:
		return model.ResultTie
	}
}

func (s *Service) baccaratCardValue(c model.Card) int {
	switch c.Rank {
	case "A":
		return 1
	case "K", "Q", "J", "10":
		return 0
	default:
		return int(c.Rank[0] - '0')
	}
}
