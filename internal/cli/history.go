package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"trivia-room-service/internal/config"
	"trivia-room-service/internal/domain"
)

// NewHistoryCmd prints the most recently finished games as JSON.
func NewHistoryCmd(configPath *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recent game history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if limit <= 0 {
				limit = cfg.Timings().HistoryLimit
			}
			b, err := openBackends(cmd.Context(), cfg, cfg.NewLogger())
			if err != nil {
				return err
			}
			defer b.Close()

			games, err := b.history.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if games == nil {
				games = []domain.GameHistory{}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(games)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "number of games to print (defaults to game.history_limit)")
	return cmd
}
