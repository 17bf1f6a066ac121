// Package main provides the narreyes binary: the HTTP server plus the
// database and generation maintenance commands.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const appName = "narreyes"

// Set with -ldflags at release time.
var (
	Version   = "0.1.0"
	BuildTime = "dev"
)

func main() {
	// .env is optional; production sets real environment variables
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Creative writing workspace server",
		Long: `NarrEyes keeps a writer's characters, chapters, timeline and
character relationships, and relays prompts to a text-generation model.

Configuration is read from the environment (and a .env file when present).`,
		SilenceUsage: true,
	}

	cmd.AddCommand(
		serveCmd(),
		migrateCmd(),
		resetCmd(),
		seedCmd(),
		generateCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)

	return cmd
}
