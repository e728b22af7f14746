package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/postforge/internal/wire"
)

// HistoryCmd returns the history command
func HistoryCmd() *cobra.Command {
	var state string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent content records",
		Long: `List recent content records, most recent first.

Each record tracks one post through its lifecycle: created, rendered,
published, or failed.

Examples:
  postforge history
  postforge history --state failed
  postforge history --limit 50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer wire.Teardown()
			return wire.ContentAdapter().History(cmd.Context(), state, limit)
		},
	}

	cmd.Flags().StringVarP(&state, "state", "s", "", "Filter by state (created, rendered, published, failed)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of records to show")

	return cmd
}
