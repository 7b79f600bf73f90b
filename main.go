package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version and Commit are set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "chirp",
	Short:         "A minimal micro-blogging feed service",
	Long:          "chirp serves a reverse-chronological feed of short posts. Reads are public, writes need a session and are rate-limited per author.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("chirp %s (%s)\n", Version, Commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CHIRP_CONFIG"), "path to a YAML config file (environment variables override it)")
	rootCmd.AddCommand(versionCmd, serveCmd, migrateCmd, reindexCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
