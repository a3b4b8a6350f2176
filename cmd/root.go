// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"io"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "github-census",
	Short: "A CLI tool to survey GitHub users of a location and their repositories.",
	Long: `github-census searches GitHub users by location and follower count,
fetches every matching user's profile and owned repositories, stores both
as tables (CSV, optionally SQLite) and prints a fixed set of statistics
about them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
}

// newLogger discards everything unless --verbose was given.
func newLogger(cmd *cobra.Command) *log.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := log.New(io.Discard, "", log.LstdFlags)
	if verbose {
		logger.SetOutput(os.Stderr)
	}
	return logger
}
