// Package protocol defines the JSON messages exchanged with game clients
// over a table's WebSocket. Field names match the deployed client contract,
// so renames here are wire-breaking.
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/cardroomhq/cardroom/internal/model"
)

// ClientMessage is the envelope for every client-to-server message
type ClientMessage struct {
	Action  string        `json:"Action"`
	Bet     *int64        `json:"Bet,omitempty"`
	Amount  *int64        `json:"Amount,omitempty"`
	BetType model.BetType `json:"BetType,omitempty"`
}

var knownActions = map[string]model.ActionType{
	string(model.ActionBet):    model.ActionBet,
	string(model.ActionHit):    model.ActionHit,
	string(model.ActionStand):  model.ActionStand,
	string(model.ActionDouble): model.ActionDouble,
	string(model.ActionLeave):  model.ActionLeave,
}

var knownBetTypes = map[model.BetType]bool{
	model.BetPlayer: true,
	model.BetBanker: true,
	model.BetTie:    true,
}

// DecodeAction parses and validates a client message into a normalized
// action. Unknown action tags, unknown fields, and negative amounts are all
// rejected with ErrMalformedMessage; nothing downstream sees a message this
// function did not accept.
func DecodeAction(data []byte) (model.Action, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var msg ClientMessage
	if err := dec.Decode(&msg); err != nil {
		return model.Action{}, fmt.Errorf("%w: %w", model.ErrMalformedMessage, err)
	}

	actionType, ok := knownActions[msg.Action]
	if !ok {
		return model.Action{}, fmt.Errorf("%w: unknown action %q", model.ErrMalformedMessage, msg.Action)
	}

	action := model.Action{Type: actionType}

	// Blackjack clients send "Bet", baccarat clients send "Amount"
	switch {
	case msg.Bet != nil:
		action.Amount = *msg.Bet
	case msg.Amount != nil:
		action.Amount = *msg.Amount
	}

	if action.Amount < 0 {
		return model.Action{}, fmt.Errorf("%w: negative amount %d", model.ErrMalformedMessage, action.Amount)
	}

	if msg.BetType != "" {
		if !knownBetTypes[msg.BetType] {
			return model.Action{}, fmt.Errorf("%w: unknown bet type %q", model.ErrMalformedMessage, msg.BetType)
		}
		action.BetType = msg.BetType
	}

	return action, nil
}

// SeatView is the per-player entry in a snapshot. Blackjack seats populate
// Hand/Bet/Status; baccarat seats populate the per-outcome bets and
// LastWinning.
type SeatView struct {
	ID             string     `json:"ID"`
	Username       string     `json:"Username"`
	ProfilePicture int        `json:"ProfilePicture"`
	Balance        int64      `json:"Balance"`
	Hand           model.Hand `json:"Hand,omitempty"`
	Bet            int64      `json:"Bet"`
	Status         string     `json:"Status,omitempty"`
	PlayerBet      int64      `json:"PlayerBet,omitempty"`
	BankerBet      int64      `json:"BankerBet,omitempty"`
	TieBet         int64      `json:"TieBet,omitempty"`
	LastWinning    int64      `json:"LastWinning,omitempty"`
}

// Snapshot is the full table state broadcast after every mutation. Seq is
// monotonic per table, so clients can discard stale snapshots.
type Snapshot struct {
	Phase          string     `json:"Phase"`
	Seq            uint64     `json:"Seq"`
	DealerHand     model.Hand `json:"DealerHand,omitempty"`
	PlayerHand     model.Hand `json:"PlayerHand,omitempty"`
	BankerHand     model.Hand `json:"BankerHand,omitempty"`
	Players        []SeatView `json:"Players"`
	ActivePlayerID string     `json:"ActivePlayerID,omitempty"`
	YourID         string     `json:"YourID,omitempty"`
	YourHand       model.Hand `json:"YourHand,omitempty"`
	GameResult     string     `json:"GameResult,omitempty"`
	PlayerTotal    int        `json:"PlayerTotal"`
	BankerTotal    int        `json:"BankerTotal"`
}

// ErrorFrame is sent to a single offending connection and never broadcast
type ErrorFrame struct {
	Error string `json:"Error"`
	Code  string `json:"Code"`
}
