package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cardroomhq/cardroom/internal/model"
	"github.com/cardroomhq/cardroom/internal/protocol"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

// PrintSnapshot outputs one table snapshot from the game WebSocket
func (o *Output) PrintSnapshot(s *protocol.Snapshot) {
	if o.format == "json" {
		data, _ := json.Marshal(s)
		fmt.Println(string(data))
		return
	}
	o.printSnapshot(s)
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Player:
		o.printPlayer(v)
	case AuthResult:
		o.printAuthResult(v)
	case Profile:
		o.printProfile(v)
	case Table:
		o.printTable(v)
	case []Table:
		o.printTables(v)
	case Stats:
		o.printStats(v)
	case []Wager:
		o.printWagers(v)
	case []LeaderboardEntry:
		o.printLeaderboard(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	ProfilePicture int    `json:"profile_picture"`
	IsGuest        bool   `json:"is_guest"`
}

// AuthResult combines player and token
type AuthResult struct {
	Player       Player `json:"player"`
	SessionToken string `json:"session_token"`
}

// Profile response type
type Profile struct {
	Player
	Balance int64 `json:"balance"`
}

// Table response type
type Table struct {
	ID       string `json:"id"`
	Game     string `json:"game"`
	Phase    string `json:"phase"`
	Seated   int    `json:"seated"`
	MaxSeats int    `json:"max_seats"`
	Public   bool   `json:"public"`
}

// Stats response type
type Stats struct {
	RoundsPlayed int64 `json:"rounds_played"`
	TotalWagered int64 `json:"total_wagered"`
	TotalWon     int64 `json:"total_won"`
	Net          int64 `json:"net"`
}

// Wager response type
type Wager struct {
	ID        string    `json:"id"`
	TableID   string    `json:"table_id"`
	Game      string    `json:"game"`
	Amount    int64     `json:"amount"`
	Payout    int64     `json:"payout"`
	Won       bool      `json:"won"`
	SettledAt time.Time `json:"settled_at"`
}

// LeaderboardEntry response type
type LeaderboardEntry struct {
	PlayerID string `json:"player_id"`
	Username string `json:"username,omitempty"`
	Stats
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printPlayer(p Player) {
	guestStr := "no"
	if p.IsGuest {
		guestStr = "yes"
	}
	fmt.Printf("Player: %s (%s)\n", p.Username, p.ID)
	fmt.Printf("Guest: %s\n", guestStr)
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printPlayer(a.Player)
	fmt.Printf("Token: %s\n", a.SessionToken)
}

func (o *Output) printProfile(p Profile) {
	o.printPlayer(p.Player)
	fmt.Printf("Balance: %d\n", p.Balance)
}

func (o *Output) printTable(t Table) {
	visibility := "private"
	if t.Public {
		visibility = "public"
	}
	fmt.Printf("Table: %s\n", t.ID)
	fmt.Printf("Game: %s\n", t.Game)
	fmt.Printf("Phase: %s\n", t.Phase)
	fmt.Printf("Seats: %d/%d\n", t.Seated, t.MaxSeats)
	fmt.Printf("Visibility: %s\n", visibility)
}

func (o *Output) printTables(tables []Table) {
	if len(tables) == 0 {
		fmt.Println("No public tables")
		return
	}
	fmt.Printf("Tables (%d):\n", len(tables))
	for _, t := range tables {
		fmt.Printf("  %s  %-9s %-11s %d/%d seats\n", t.ID, t.Game, t.Phase, t.Seated, t.MaxSeats)
	}
}

func (o *Output) printStats(s Stats) {
	fmt.Printf("Rounds Played: %d\n", s.RoundsPlayed)
	fmt.Printf("Total Wagered: %d\n", s.TotalWagered)
	fmt.Printf("Total Won: %d\n", s.TotalWon)
	fmt.Printf("Net: %+d\n", s.Net)
}

func (o *Output) printWagers(wagers []Wager) {
	if len(wagers) == 0 {
		fmt.Println("No wagers yet")
		return
	}
	fmt.Printf("Wagers (%d):\n", len(wagers))
	for _, w := range wagers {
		result := "lost"
		if w.Won {
			result = "won"
		}
		fmt.Printf("  %s  %-9s bet %-6d payout %-6d %-4s %s\n",
			w.SettledAt.Format(time.RFC3339), w.Game, w.Amount, w.Payout, result, w.TableID)
	}
}

func (o *Output) printLeaderboard(entries []LeaderboardEntry) {
	if len(entries) == 0 {
		fmt.Println("No ranked players yet")
		return
	}
	for i, e := range entries {
		name := e.Username
		if name == "" {
			name = e.PlayerID
		}
		fmt.Printf("%2d. %-20s net %+d (%d rounds)\n", i+1, name, e.Net, e.RoundsPlayed)
	}
}

func (o *Output) printSnapshot(s *protocol.Snapshot) {
	fmt.Printf("--- %s (seq %d) ---\n", s.Phase, s.Seq)

	if len(s.DealerHand) > 0 {
		fmt.Printf("Dealer: %s\n", formatHand(s.DealerHand))
	}
	if len(s.PlayerHand) > 0 || len(s.BankerHand) > 0 {
		fmt.Printf("Player: %s (%d)\n", formatHand(s.PlayerHand), s.PlayerTotal)
		fmt.Printf("Banker: %s (%d)\n", formatHand(s.BankerHand), s.BankerTotal)
	}
	if s.GameResult != "" {
		fmt.Printf("Result: %s\n", s.GameResult)
	}

	for _, p := range s.Players {
		marker := " "
		if p.ID == s.ActivePlayerID {
			marker = "*"
		}
		you := ""
		if p.ID == s.YourID {
			you = " (you)"
		}
		line := fmt.Sprintf("%s %s%s  balance %d", marker, p.Username, you, p.Balance)
		if len(p.Hand) > 0 {
			line += "  hand " + formatHand(p.Hand)
		}
		if p.Bet > 0 {
			line += fmt.Sprintf("  bet %d", p.Bet)
		}
		if p.PlayerBet > 0 || p.BankerBet > 0 || p.TieBet > 0 {
			line += fmt.Sprintf("  bets P:%d B:%d T:%d", p.PlayerBet, p.BankerBet, p.TieBet)
		}
		if p.Status != "" {
			line += "  " + p.Status
		}
		fmt.Println(line)
	}
}

func formatHand(hand model.Hand) string {
	parts := make([]string, 0, len(hand))
	for _, c := range hand {
		if c.IsHole() {
			parts = append(parts, "??")
			continue
		}
		parts = append(parts, string(c.Rank)+string(c.Suit))
	}
	return strings.Join(parts, " ")
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
