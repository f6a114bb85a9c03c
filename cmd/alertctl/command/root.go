package command

// root.go defines the root command for alertctl, the operator tool of the
// vendor alert pipeline, and the shared flags every subcommand uses.

import (
	"context"
	"fmt"
	"os"
	"time"

	"agrimarket/internal/app"
	"agrimarket/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	envFile string        // extra .env file loaded before the environment
	timeout time.Duration // upper bound for one command
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "alertctl",
	Short: "alertctl - AgriCorus vendor alert pipeline operator tool",
	Long: `alertctl talks directly to the notification store, the mail relay and the
alert outbox using the same configuration as the API server. Use it to:
- Run the retention sweep on demand
- Check the SMTP relay and send a sample stock alert
- Inspect the alert outbox backlog and dead letters
- Post a system alert to a vendor

Use "alertctl command --help" to see all available commands.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "additional .env file to load")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "time limit for the command")
}

// loadConfig reads and validates configuration the same way the API server does
func loadConfig() (*config.Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withApp builds the core, runs fn under the command timeout and releases everything
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	a, err := app.Build(ctx, cfg, cfg.Logger())
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}
