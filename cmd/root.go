package cmd

import (
	"fmt"
	"os"

	"github.com/heinsupport/hein-assist/internal"
	"github.com/spf13/cobra"
)

var (
	verbose       bool
	configPath    string
	envFilePath   string
	endpointFlag  string
	langFlag      string
	storageDriver string
	storagePath   string
	redisURL      string
	version       string = "dev"
	commit        string = "unknown"
	date          string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hein-assist",
	Short: "Troubleshooting assistant for HEIN equipment",
	Long: `A command-line client for the HEIN troubleshooting assistant.

Ask questions about your equipment, keep a history of conversations on this
machine, and manage the reference manuals the assistant works from.

Features:
  • Interactive chat with a remote troubleshooting workflow
  • Conversation history that survives restarts
  • Connectivity status of the assistant endpoint
  • Manual management for administrators (PDF only)
  • Export conversations (JSONL, Markdown, YAML, JSON)

Quick Start:
  hein-assist chat                       # Start an interactive chat
  hein-assist send "Oven shows E3"       # Ask a single question
  hein-assist list                       # Browse past conversations
  hein-assist status                     # Check the assistant endpoint

Configuration is read from config.yaml and .env in the user config directory,
then HEIN_* environment variables, then the flags below.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: <user config dir>/hein-assist/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFilePath, "env-file", "", "Environment file (default: <user config dir>/hein-assist/.env)")
	rootCmd.PersistentFlags().StringVar(&endpointFlag, "endpoint", "", "Assistant workflow URL")
	rootCmd.PersistentFlags().StringVar(&langFlag, "lang", "", "Default language when none is saved (EN, FR, DE, NL)")
	rootCmd.PersistentFlags().StringVar(&storageDriver, "storage-driver", "", "Durable store driver (sqlite, pebble, redis, memory)")
	rootCmd.PersistentFlags().StringVar(&storagePath, "storage", "", "Durable store location (file for sqlite, directory for pebble)")
	rootCmd.PersistentFlags().StringVar(&redisURL, "redis-url", "", "Redis URL for the redis driver")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
