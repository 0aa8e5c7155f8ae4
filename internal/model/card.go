package model

// Suit identifies one of the four card suits, encoded the way the wire
// protocol sends them ("H", "D", "C", "S")
type Suit string

const (
	Hearts   Suit = "H"
	Diamonds Suit = "D"
	Clubs    Suit = "C"
	Spades   Suit = "S"
)

// Suits lists every suit in deck-building order
var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}

// Rank identifies a card rank ("2".."10", "J", "Q", "K", "A")
type Rank string

// Ranks lists every rank in deck-building order
var Ranks = []Rank{"2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A"}

// Card is an immutable playing card value
type Card struct {
	Suit Suit `json:"Suit"`
	Rank Rank `json:"Value"`
}

// HoleCard is the face-down placeholder broadcast in place of the dealer's
// second card until the dealer's turn. Clients render it as a card back.
var HoleCard = Card{Suit: "0", Rank: "0"}

// IsHole reports whether the card is the face-down placeholder
func (c Card) IsHole() bool {
	return c == HoleCard
}

// Hand is an ordered sequence of cards
type Hand []Card
