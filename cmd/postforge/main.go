package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/postforge/internal/cli"
	"github.com/example/postforge/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "postforge",
		Short:   "PostForge - automated Instagram content pipeline",
		Version: version.String(),
		Long: `PostForge generates social media posts with Gemini, renders the artwork
over stock photography, publishes to Instagram, and tracks every post
through its lifecycle in a local content history.`,
	}

	// Add subcommands
	rootCmd.AddCommand(cli.PostCmd())
	rootCmd.AddCommand(cli.HistoryCmd())
	rootCmd.AddCommand(cli.ScheduleCmd())
	rootCmd.AddCommand(cli.DoctorCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
