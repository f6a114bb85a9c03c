package command

import (
	"context"
	"fmt"
	"strings"

	"agrimarket/internal/app"
	"agrimarket/internal/microservices/http-api/models"

	"github.com/spf13/cobra"
)

var (
	alertVendor   string
	alertTitle    string
	alertMessage  string
	alertPriority string
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Record notifications by hand",
}

var systemAlertCmd = &cobra.Command{
	Use:   "system-alert",
	Short: "Post a SYSTEM_ALERT notification to one vendor",
	RunE: func(cmd *cobra.Command, args []string) error {
		priority := models.Priority(strings.ToUpper(alertPriority))

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			n, err := a.Service.NotifySystemAlert(ctx, alertVendor, alertTitle, alertMessage, priority)
			if err != nil {
				return fmt.Errorf("failed to record alert: %w", err)
			}
			fmt.Println("✓ System alert recorded")
			fmt.Printf("ID: %s\n", n.ID)
			fmt.Printf("Vendor: %s | Priority: %s\n", n.VendorID, n.Priority)
			return nil
		})
	},
}

func init() {
	systemAlertCmd.Flags().StringVar(&alertVendor, "vendor", "", "vendor id")
	systemAlertCmd.Flags().StringVar(&alertTitle, "title", "", "notification title")
	systemAlertCmd.Flags().StringVar(&alertMessage, "message", "", "notification message")
	systemAlertCmd.Flags().StringVar(&alertPriority, "priority", "", "LOW, MEDIUM or HIGH (default MEDIUM)")
	systemAlertCmd.MarkFlagRequired("vendor")
	systemAlertCmd.MarkFlagRequired("title")
	systemAlertCmd.MarkFlagRequired("message")

	notifyCmd.AddCommand(systemAlertCmd)
	rootCmd.AddCommand(notifyCmd)
}
