// Boardd renders a live Kanban board over a changing collection of task
// records. A source (task file, GitHub repository, or NATS subject) emits
// update notifications; the pipeline groups records into columns by the
// configured property and keeps the board correct across partial and
// out-of-order updates.
//
// Usage:
//
//	# Headless daemon serving the board over HTTP/SSE
//	boardd serve
//
//	# Interactive terminal board
//	boardd view
//
//	# One-shot render to stdout
//	boardd snapshot --json
//
// Configuration is loaded from ~/.config/boardd/config.yaml and overridden
// by environment variables (SERVER_HTTP_PORT, BOARD_GROUP_BY, ...). See
// internal/config for details.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var version = "dev"

// configPath is the --config flag, empty for the default location.
var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "boardd",
	Short: "Kanban board daemon over live task sources",
	Long: `boardd watches a task source and renders a Kanban-style board,
grouping task records into columns by a configurable property.

The grouping key is resolved fresh on every update, in precedence order:
view definition file, source-level setting, application config default.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"config file path (default ~/.config/boardd/config.yaml)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(snapshotCmd)
}
