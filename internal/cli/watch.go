package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/cardroomhq/cardroom/internal/model"
	"github.com/cardroomhq/cardroom/internal/protocol"
)

func newWatchCmd() *cobra.Command {
	var game string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "watch <table-id>",
		Short: "Connect to a table and play from the terminal",
		Long: `Connect to the table's game WebSocket, stream state snapshots, and send
actions typed on stdin.

Actions:
  bet <amount>            Place a blackjack bet
  bet <amount> <outcome>  Place a baccarat bet (player, banker, or tie)
  hit | stand | double    Blackjack turn actions
  leave                   Give up the seat and disconnect

Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return watchTable(args[0], game, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&game, "game", "", "Game variant: blackjack or baccarat (required)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output snapshots as JSON lines")
	_ = cmd.MarkFlagRequired("game")

	return cmd
}

func watchTable(tableID, game string, jsonOutput bool) error {
	url := wsURL(cfg.ServerURL) + "/api/ws/" + game + "/" + tableID

	header := http.Header{}
	if cfg.Token != "" {
		header.Set("Authorization", "Bearer "+cfg.Token)
	}

	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("connection failed: HTTP %d", resp.StatusCode)
		}
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if !jsonOutput {
		fmt.Printf("Connected to table %s\n", tableID)
	}

	// Handle interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		_ = conn.Close()
	}()

	// Relay stdin lines as actions
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			msg, err := parseActionLine(scanner.Text())
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %s\n", err)
				continue
			}
			if msg == nil {
				continue
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}()

	out := NewOutput(cfg.Output)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !jsonOutput {
				fmt.Println("Disconnected")
			}
			return nil
		}

		if jsonOutput {
			fmt.Println(string(data))
			continue
		}

		// Error frames and snapshots share the wire
		var errFrame protocol.ErrorFrame
		if json.Unmarshal(data, &errFrame) == nil && errFrame.Code != "" {
			fmt.Fprintf(os.Stderr, "Error: %s (%s)\n", errFrame.Error, errFrame.Code)
			continue
		}

		var snapshot protocol.Snapshot
		if err := json.Unmarshal(data, &snapshot); err != nil {
			continue
		}
		out.PrintSnapshot(&snapshot)
	}
}

// parseActionLine turns a typed command into a wire message
func parseActionLine(line string) (*protocol.ClientMessage, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(line)))
	if len(fields) == 0 {
		return nil, nil
	}

	switch fields[0] {
	case "bet":
		if len(fields) < 2 {
			return nil, fmt.Errorf("usage: bet <amount> [player|banker|tie]")
		}
		amount, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid amount %q", fields[1])
		}
		msg := &protocol.ClientMessage{Action: "bet"}
		if len(fields) >= 3 {
			switch fields[2] {
			case "player", "banker", "tie":
				msg.Amount = &amount
				msg.BetType = model.BetType(fields[2])
			default:
				return nil, fmt.Errorf("bet outcome must be player, banker, or tie")
			}
		} else {
			msg.Bet = &amount
		}
		return msg, nil
	case "hit", "stand", "double", "leave":
		return &protocol.ClientMessage{Action: fields[0]}, nil
	default:
		return nil, fmt.Errorf("unknown action %q", fields[0])
	}
}

// wsURL converts the configured HTTP base URL to its WebSocket form
func wsURL(serverURL string) string {
	url := strings.TrimSuffix(serverURL, "/")
	switch {
	case strings.HasPrefix(url, "https://"):
		return "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		return "ws://" + strings.TrimPrefix(url, "http://")
	default:
		return url
	}
}
