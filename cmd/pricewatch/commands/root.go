package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/koizuka/pricewatch"
	"github.com/spf13/cobra"
)

var configPath *string

var rootCmd = &cobra.Command{
	Use:           "pricewatch",
	Short:         "pricewatch tracks shop prices and stock in spreadsheets.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "pricewatch.json5", "configuration file, <name>.local.<ext> overrides it")
}

// ExecuteContext runs the command line and returns the process exit code.
func ExecuteContext(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func loadConfig() (pricewatch.Config, error) {
	config, err := pricewatch.LoadConfig(*configPath)
	if err != nil {
		return config, fmt.Errorf("failed to read config: %w", err)
	}
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return config, err
	}
	return config, nil
}

// withBrowser opens a browser for the duration of fn.
func withBrowser(config pricewatch.Config, log pricewatch.Logger, fn func(agent *pricewatch.ChromeAgent) error) error {
	agent, err := pricewatch.NewChromeAgent(config.ChromeOptions(), log)
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer agent.Close()
	return fn(agent)
}
