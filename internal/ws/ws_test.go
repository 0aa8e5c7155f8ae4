package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"github.com/cardroomhq/cardroom/internal/api/middleware"
	"github.com/cardroomhq/cardroom/internal/dependencies/mocks"
	"github.com/cardroomhq/cardroom/internal/model"
	"github.com/cardroomhq/cardroom/internal/protocol"
	"github.com/cardroomhq/cardroom/internal/services/auth"
	"github.com/cardroomhq/cardroom/internal/services/deck"
	"github.com/cardroomhq/cardroom/internal/services/hand"
	"github.com/cardroomhq/cardroom/internal/services/ledger"
	"github.com/cardroomhq/cardroom/internal/services/stats"
	"github.com/cardroomhq/cardroom/internal/services/table"
	"github.com/cardroomhq/cardroom/internal/storage/memory"
	"github.com/cardroomhq/cardroom/internal/testutil"
)

// frame is a decoded server message; snapshots and error frames share the
// wire, distinguished by the Code field
type frame struct {
	protocol.Snapshot
	ErrorMsg string `json:"Error"`
	Code     string `json:"Code"`
}

type WsSuite struct {
	suite.Suite
	clock    *mocks.MockClock
	registry *table.Registry
	auth     *auth.Service
	server   *httptest.Server
	ctx      context.Context
}

func TestWsSuite(t *testing.T) {
	suite.Run(t, new(WsSuite))
}

func (s *WsSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	random := &mocks.MockRandom{NoShuffle: true}
	store := memory.New()
	ldg := ledger.New(store)

	deps := table.Dependencies{
		Logger: testutil.NopLogger(),
		Clock:  s.clock,
		Decks:  deck.New(random),
		Hands:  hand.New(),
		Ledger: ldg,
		Stats:  stats.New(store),
	}
	s.registry = table.NewRegistry(deps, random, table.DefaultRegistryConfig())
	s.auth = auth.New(store, ldg, s.clock, auth.DefaultConfig())

	r := mux.NewRouter()
	handler := NewHandler(s.registry, testutil.NopLogger())
	game := r.PathPrefix("/api/ws").Subrouter()
	game.Use(middleware.Auth(s.auth))
	game.HandleFunc("/{variant}/{table_id}", handler.ServeGame)

	s.server = httptest.NewServer(r)
	s.ctx = context.Background()
}

func (s *WsSuite) TearDownTest() {
	s.server.Close()
	s.registry.CloseAll()
}

func (s *WsSuite) guest(username string) *auth.Session {
	session, err := s.auth.CreateGuestPlayer(s.ctx, username, 0)
	s.Require().NoError(err)
	return session
}

func (s *WsSuite) dial(token, variant, tableID string) (*websocket.Conn, *http.Response, error) {
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/api/ws/" + variant + "/" + tableID
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	return websocket.DefaultDialer.Dial(url, header)
}

func (s *WsSuite) connect(token, variant, tableID string) *websocket.Conn {
	conn, _, err := s.dial(token, variant, tableID)
	s.Require().NoError(err)
	return conn
}

// awaitFrame reads frames until one satisfies the predicate
func (s *WsSuite) awaitFrame(conn *websocket.Conn, match func(frame) bool) frame {
	deadline := time.Now().Add(2 * time.Second)
	for {
		s.Require().NoError(conn.SetReadDeadline(deadline))
		_, data, err := conn.ReadMessage()
		s.Require().NoError(err, "connection closed before expected frame arrived")

		var f frame
		s.Require().NoError(json.Unmarshal(data, &f))
		if match(f) {
			return f
		}
	}
}

func (s *WsSuite) sendJSON(conn *websocket.Conn, msg string) {
	s.Require().NoError(conn.WriteMessage(websocket.TextMessage, []byte(msg)))
}

func seatOf(f frame, id string) *protocol.SeatView {
	for i := range f.Players {
		if f.Players[i].ID == id {
			return &f.Players[i]
		}
	}
	return nil
}

func (s *WsSuite) TestConnectReceivesPersonalizedSnapshot() {
	guest := s.guest("alice")
	conn := s.connect(guest.Token, "BlackJack", "TBL01")
	defer conn.Close()

	f := s.awaitFrame(conn, func(f frame) bool { return f.YourID != "" })
	s.Equal(string(guest.PlayerID), f.YourID)
	s.Equal(string(model.PhaseBetting), f.Phase)

	seat := seatOf(f, string(guest.PlayerID))
	s.Require().NotNil(seat)
	s.Equal("alice", seat.Username)
	s.Equal(int64(1000), seat.Balance)
}

func (s *WsSuite) TestRejectsUnauthenticatedDial() {
	conn, resp, err := s.dial("", "BlackJack", "TBL01")
	s.Require().Error(err)
	s.Nil(conn)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *WsSuite) TestRejectsUnknownVariant() {
	guest := s.guest("alice")
	conn, resp, err := s.dial(guest.Token, "Poker", "TBL01")
	s.Require().Error(err)
	s.Nil(conn)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *WsSuite) TestRejectsVariantMismatchOnExistingTable() {
	alice := s.guest("alice")
	conn := s.connect(alice.Token, "BlackJack", "TBL01")
	defer conn.Close()

	// The table is live as blackjack; dialing it as baccarat must not seat us
	bob := s.guest("bob")
	bobConn, resp, err := s.dial(bob.Token, "Baccarat", "TBL01")
	s.Require().Error(err)
	s.Nil(bobConn)
	s.Equal(http.StatusBadRequest, resp.StatusCode)

	s.Equal(model.VariantBlackjack, s.registry.Get("TBL01").Variant)
}

func (s *WsSuite) TestBetAndStandPlaysOutRound() {
	guest := s.guest("alice")
	conn := s.connect(guest.Token, "BlackJack", "TBL01")
	defer conn.Close()

	s.awaitFrame(conn, func(f frame) bool { return f.Phase == string(model.PhaseBetting) })

	// The only connected seat betting closes the window immediately
	s.sendJSON(conn, `{"Action":"bet","Bet":50}`)
	turn := s.awaitFrame(conn, func(f frame) bool { return f.Phase == string(model.PhasePlayerTurn) })
	s.Equal(string(guest.PlayerID), turn.ActivePlayerID)
	s.Len(turn.YourHand, 2)
	s.Len(turn.DealerHand, 2)
	s.True(turn.DealerHand[1].IsHole())

	// Unshuffled shoe: player holds 2+3, dealer draws out of 4+5 and busts
	s.sendJSON(conn, `{"Action":"stand"}`)
	settled := s.awaitFrame(conn, func(f frame) bool { return f.Phase == string(model.PhaseSettlement) })

	seat := seatOf(settled, string(guest.PlayerID))
	s.Require().NotNil(seat)
	s.Equal(string(model.SeatStatusWon), seat.Status)
	s.Equal(int64(1050), seat.Balance)
	s.False(settled.DealerHand[1].IsHole())
}

func (s *WsSuite) TestMalformedMessageGetsErrorFrame() {
	guest := s.guest("alice")
	conn := s.connect(guest.Token, "BlackJack", "TBL01")
	defer conn.Close()

	s.sendJSON(conn, `{"Action":"split"}`)
	f := s.awaitFrame(conn, func(f frame) bool { return f.Code != "" })
	s.Equal("MALFORMED_MESSAGE", f.Code)
	s.NotEmpty(f.ErrorMsg)
}

func (s *WsSuite) TestInvalidActionGetsErrorFrame() {
	guest := s.guest("alice")
	conn := s.connect(guest.Token, "BlackJack", "TBL01")
	defer conn.Close()

	s.awaitFrame(conn, func(f frame) bool { return f.Phase == string(model.PhaseBetting) })

	// Hitting during betting is well-formed but not legal
	s.sendJSON(conn, `{"Action":"hit"}`)
	f := s.awaitFrame(conn, func(f frame) bool { return f.Code != "" })
	s.Equal("INVALID_ACTION", f.Code)
}

func (s *WsSuite) TestErrorFramesAreNotBroadcast() {
	alice := s.guest("alice")
	bob := s.guest("bob")
	aliceConn := s.connect(alice.Token, "BlackJack", "TBL01")
	defer aliceConn.Close()
	bobConn := s.connect(bob.Token, "BlackJack", "TBL01")
	defer bobConn.Close()

	s.sendJSON(aliceConn, `not json`)
	s.awaitFrame(aliceConn, func(f frame) bool { return f.Code == "MALFORMED_MESSAGE" })

	// Bob sees a snapshot for alice's bet, but never her error frame
	s.sendJSON(aliceConn, `{"Action":"bet","Bet":25}`)
	f := s.awaitFrame(bobConn, func(f frame) bool {
		seat := seatOf(f, string(alice.PlayerID))
		return seat != nil && seat.Bet == 25
	})
	s.Empty(f.Code)
}

func (s *WsSuite) TestReconnectResumesSeat() {
	guest := s.guest("alice")
	conn := s.connect(guest.Token, "BlackJack", "TBL01")
	s.awaitFrame(conn, func(f frame) bool { return f.YourID != "" })
	s.Require().NoError(conn.Close())

	reconn := s.connect(guest.Token, "BlackJack", "TBL01")
	defer reconn.Close()

	f := s.awaitFrame(reconn, func(f frame) bool { return f.YourID != "" })
	s.Equal(string(guest.PlayerID), f.YourID)
	s.Len(f.Players, 1)
}
