package command

import (
	"context"
	"fmt"

	"agrimarket/internal/app"

	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete read notifications older than RETENTION_WINDOW",
	Long:  `Runs one retention sweep. Unread notifications are never deleted, whatever their age.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			deleted, err := a.Service.CleanupOldNotifications(ctx)
			if err != nil {
				return fmt.Errorf("cleanup failed: %w", err)
			}
			fmt.Printf("✓ Deleted %d read notifications older than %s\n", deleted, a.Config.RetentionWindow)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}
