package command

import (
	"context"
	"errors"
	"fmt"

	"agrimarket/internal/app"

	"github.com/spf13/cobra"
)

var errInlineMode = errors.New("ALERT_DISPATCH_MODE is inline; there is no outbox to inspect")

var outboxCmd = &cobra.Command{
	Use:   "outbox",
	Short: "Alert outbox commands",
}

var outboxStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show pending and dead-lettered alert jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if a.Outbox == nil {
				return errInlineMode
			}
			pending, dead, err := a.Outbox.Len(ctx)
			if err != nil {
				return fmt.Errorf("failed to read outbox: %w", err)
			}
			fmt.Printf("Pending: %d\n", pending)
			fmt.Printf("Dead:    %d\n", dead)
			return nil
		})
	},
}

func init() {
	outboxCmd.AddCommand(outboxStatsCmd)
	rootCmd.AddCommand(outboxCmd)
}
