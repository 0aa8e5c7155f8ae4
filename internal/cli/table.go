package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Table creation and matchmaking commands",
	}

	cmd.AddCommand(newTableCreateCmd())
	cmd.AddCommand(newTableJoinCmd())
	cmd.AddCommand(newTableListCmd())
	cmd.AddCommand(newTableGetCmd())

	return cmd
}

func newTableCreateCmd() *cobra.Command {
	var game, visibility string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new table",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"game":       game,
				"visibility": visibility,
			}
			var result Table

			if err := client.Post("/api/v1/tables", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&game, "game", "", "Game variant: blackjack or baccarat (required)")
	cmd.Flags().StringVar(&visibility, "visibility", "private", "Table visibility: public or private")
	_ = cmd.MarkFlagRequired("game")

	return cmd
}

func newTableJoinCmd() *cobra.Command {
	var game string

	cmd := &cobra.Command{
		Use:   "join",
		Short: "Matchmake into a public table with an open seat",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"game": game}
			var result Table

			if err := client.Post("/api/v1/tables/join", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&game, "game", "", "Game variant: blackjack or baccarat (required)")
	_ = cmd.MarkFlagRequired("game")

	return cmd
}

func newTableListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List public tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []Table

			if err := client.Get("/api/v1/tables", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newTableGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <table-id>",
		Short: "Show one table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Table

			if err := client.Get("/api/v1/tables/"+args[0], &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newLeaderboardCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the net-winnings leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []LeaderboardEntry

			path := fmt.Sprintf("/api/v1/leaderboard?limit=%d", limit)
			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Number of entries to fetch")

	return cmd
}
