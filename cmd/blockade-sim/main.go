// Package main provides blockade-sim, a headless simulator for the
// blockade decision core: it runs scripted sessions for balancing and
// regression checks and validates map files.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "blockade-sim",
	Short: "Headless simulator for the blockade decision core",
	Long: `blockade-sim runs the blockade game core without a renderer.

Examples:
  blockade-sim maps                         # List the embedded maps
  blockade-sim maps --watch ./maps          # Re-validate maps as they change
  blockade-sim run --map meadow             # Unopposed session
  blockade-sim run --map meadow --script cutoff --seed 7`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(mapsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
