package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/postforge/internal/wire"
)

// ScheduleCmd returns the schedule command
func ScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the unattended posting loop",
		Long: `Run the posting loop until interrupted. The first post fires
immediately; subsequent posts follow POSTFORGE_POST_INTERVAL (default 8h).

Each tick picks a random topic from the configured pool and retries with
a different topic when generation keeps producing duplicates.

Examples:
  postforge schedule
  POSTFORGE_POST_INTERVAL=2h postforge schedule`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wire.Config().Validate(); err != nil {
				return fmt.Errorf("configuration incomplete: %w", err)
			}
			defer wire.Teardown()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := wire.Scheduler().Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}

	return cmd
}
