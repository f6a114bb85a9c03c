package command

import (
	"context"
	"errors"
	"fmt"

	"agrimarket/internal/app"
	"agrimarket/internal/mailer"
	"agrimarket/internal/microservices/http-api/models"

	"github.com/spf13/cobra"
)

var (
	sampleTo     string
	sampleKind   string
	sampleVendor string
)

var mailCmd = &cobra.Command{
	Use:   "mail",
	Short: "Mail relay commands",
}

var mailTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Check that the SMTP relay accepts our connection and credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if !a.Mailer.TestConnection(ctx) {
				return fmt.Errorf("SMTP relay %s:%d is not reachable", a.Config.SMTPHost, a.Config.SMTPPort)
			}
			fmt.Printf("✓ SMTP relay %s:%d is ready\n", a.Config.SMTPHost, a.Config.SMTPPort)
			return nil
		})
	},
}

var mailSampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Send a sample low-stock or out-of-stock alert",
	RunE: func(cmd *cobra.Command, args []string) error {
		product := models.Product{
			ID:       "sample-product",
			Name:     "Organic Tomatoes",
			Category: "Vegetables",
			Price:    45,
			Stock:    3,
		}

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			var (
				result mailer.Result
				err    error
			)
			switch sampleKind {
			case "low":
				result, err = a.Mailer.SendLowStockAlert(ctx, sampleTo, sampleVendor, product)
			case "out":
				product.Stock = 0
				result, err = a.Mailer.SendOutOfStockAlert(ctx, sampleTo, sampleVendor, product)
			default:
				return fmt.Errorf("unknown kind %q, want low or out", sampleKind)
			}
			if err != nil {
				var dispatchErr *mailer.DispatchError
				if errors.As(err, &dispatchErr) {
					return fmt.Errorf("%s error sending to %s: %w", dispatchErr.Kind, sampleTo, dispatchErr.Err)
				}
				return err
			}

			fmt.Println("✓ Sample alert sent")
			fmt.Printf("Message-ID: %s\n", result.MessageID)
			return nil
		})
	},
}

func init() {
	mailSampleCmd.Flags().StringVar(&sampleTo, "to", "", "recipient address")
	mailSampleCmd.Flags().StringVar(&sampleKind, "kind", "low", "alert kind: low or out")
	mailSampleCmd.Flags().StringVar(&sampleVendor, "vendor-name", "Sample Farms", "vendor name in the greeting")
	mailSampleCmd.MarkFlagRequired("to")

	mailCmd.AddCommand(mailTestCmd)
	mailCmd.AddCommand(mailSampleCmd)
	rootCmd.AddCommand(mailCmd)
}
