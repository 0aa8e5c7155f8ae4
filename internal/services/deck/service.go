package deck

import (
	"github.com/cardroomhq/cardroom/internal/dependencies/random"
	"github.com/cardroomhq/cardroom/internal/model"
)

// Service builds and deals multi-deck shoes
type Service struct {
	random random.Random
}

// New creates a new deck service
func New(random random.Random) *Service {
	return &Service{
		random: random,
	}
}

// NewShoe builds a shuffled shoe sized for the variant (4 decks for
// blackjack, 8 for baccarat)
func (s *Service) NewShoe(variant model.Variant) *Shoe {
	decks := variant.Decks()
	cards := make([]model.Card, 0, decks*52)
	for d := 0; d < decks; d++ {
		for _, suit := range model.Suits {
			for _, rank := range model.Ranks {
				cards = append(cards, model.Card{Suit: suit, Rank: rank})
			}
		}
	}

	s.random.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})

	return &Shoe{cards: cards}
}

// Shoe is a dealt-from stack of cards. Not safe for concurrent use; each
// session owns its shoe and deals from its own goroutine.
type Shoe struct {
	cards []model.Card
}

// NewStacked builds a shoe that deals the given cards in order. Intended for
// tests that need exact deals.
func NewStacked(cards ...model.Card) *Shoe {
	return &Shoe{cards: cards}
}

// Draw removes and returns the top card of the shoe
func (sh *Shoe) Draw() (model.Card, error) {
	if len(sh.cards) == 0 {
		return model.Card{}, model.ErrEmptyDeck
	}
	card := sh.cards[0]
	sh.cards = sh.cards[1:]
	return card, nil
}

// Remaining returns the number of undealt cards
func (sh *Shoe) Remaining() int {
	return len(sh.cards)
}
