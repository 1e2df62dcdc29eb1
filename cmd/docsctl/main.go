package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"ponydocs/infrastructure/config"
	"ponydocs/infrastructure/di"

	"github.com/spf13/cobra"
)

var (
	outputJSON bool

	// ambient state flags shared by the read commands
	ambientProduct string
	ambientManual  string
	ambientTopic   string
	ambientVersion string

	rootCmd = &cobra.Command{
		Use:   "docsctl",
		Short: "Operate a ponydocs documentation store",
		Long: `docsctl runs the documentation engine against the backend named by
STORAGE_BACKEND, for imports and for inspecting links and navigation.`,
		SilenceUsage: true,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Print results as JSON")

	for _, cmd := range []*cobra.Command{translateCmd, resolveCmd, navCmd} {
		cmd.Flags().StringVar(&ambientProduct, "product", "", "Current product")
		cmd.Flags().StringVar(&ambientManual, "manual", "", "Current manual")
		cmd.Flags().StringVar(&ambientTopic, "topic", "", "Current topic")
		cmd.Flags().StringVar(&ambientVersion, "version", "", "Selected version of the current product")
	}

	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "List the import order without saving")

	rootCmd.AddCommand(translateCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(navCmd)
	rootCmd.AddCommand(backlinksCmd)
	rootCmd.AddCommand(importCmd)
}

// withContainer loads configuration, wires the engine and runs fn
func withContainer(ctx context.Context, fn func(c *di.Container) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer cleanup()
	defer container.Logger.Sync() //nolint:errcheck

	return fn(container)
}

func printResult(v interface{}, plain func()) error {
	if !outputJSON {
		plain()
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
