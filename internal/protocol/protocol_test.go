package protocol

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/cardroomhq/cardroom/internal/model"
)

type ProtocolSuite struct {
	suite.Suite
}

func TestProtocolSuite(t *testing.T) {
	suite.Run(t, new(ProtocolSuite))
}

func (s *ProtocolSuite) TestDecodeBlackjackBet() {
	action, err := DecodeAction([]byte(`{"Action": "bet", "Bet": 50}`))
	s.Require().NoError(err)
	s.Equal(model.ActionBet, action.Type)
	s.Equal(int64(50), action.Amount)
}

func (s *ProtocolSuite) TestDecodeBaccaratBet() {
	action, err := DecodeAction([]byte(`{"Action": "bet", "Amount": 25, "BetType": "banker"}`))
	s.Require().NoError(err)
	s.Equal(model.ActionBet, action.Type)
	s.Equal(int64(25), action.Amount)
	s.Equal(model.BetBanker, action.BetType)
}

func (s *ProtocolSuite) TestDecodeBareActions() {
	for _, raw := range []string{
		`{"Action": "hit"}`,
		`{"Action": "stand"}`,
		`{"Action": "double"}`,
		`{"Action": "leave"}`,
	} {
		_, err := DecodeAction([]byte(raw))
		s.NoError(err, raw)
	}
}

func (s *ProtocolSuite) TestDecodeRejectsUnknownAction() {
	_, err := DecodeAction([]byte(`{"Action": "split"}`))
	s.ErrorIs(err, model.ErrMalformedMessage)
}

func (s *ProtocolSuite) TestDecodeRejectsUnknownField() {
	_, err := DecodeAction([]byte(`{"Action": "hit", "Cheat": true}`))
	s.ErrorIs(err, model.ErrMalformedMessage)
}

func (s *ProtocolSuite) TestDecodeRejectsUnknownBetType() {
	_, err := DecodeAction([]byte(`{"Action": "bet", "Amount": 10, "BetType": "dragon"}`))
	s.ErrorIs(err, model.ErrMalformedMessage)
}

func (s *ProtocolSuite) TestDecodeRejectsNegativeAmount() {
	_, err := DecodeAction([]byte(`{"Action": "bet", "Bet": -5}`))
	s.ErrorIs(err, model.ErrMalformedMessage)
}

func (s *ProtocolSuite) TestDecodeRejectsGarbage() {
	_, err := DecodeAction([]byte(`not json`))
	s.ErrorIs(err, model.ErrMalformedMessage)
}
