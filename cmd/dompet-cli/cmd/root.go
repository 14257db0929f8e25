// Package cmd provides the dompet-cli commands.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"dompet/internal/cli"
	"dompet/internal/config"
	"dompet/internal/log"
)

var (
	debug       bool
	backendType string
	dbPath      string
	dataDir     string

	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "dompet-cli",
	Short: "Talk to the dompet finance interpreter from a terminal",
	Long: `dompet-cli runs the chat command interpreter locally.

Example:
  dompet-cli chat --phone 628111
  dompet-cli parse 1,5jt
  dompet-cli explain "keluar 50rb makan siang @makan"
  dompet-cli user add 628111 Budi --db ./data/dompet.db`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cli.LoadEnvFile()
		appConfig = config.Load()
		level := appConfig.LogLevel
		if debug {
			level = "debug"
		}
		log.SetDefault(log.New(log.Config{
			Level:     log.ParseLevel(level),
			Component: log.ComponentCLI,
			Output:    os.Stderr,
		}))
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&backendType, "backend", "", "data backend: memory or sqlite (default from DATA_BACKEND)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (default from SQLITE_DB_PATH)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "seed directory for the memory backend (default from DATA_DIR)")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(userCmd)
}

// effectiveConfig overlays the persistent flags on the environment config.
func effectiveConfig() *config.Config {
	cfg := *appConfig
	if backendType != "" {
		cfg.DataBackend = backendType
	}
	if dbPath != "" {
		cfg.SQLiteDBPath = dbPath
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	// The CLI never talks to the broker.
	cfg.AMQPURL = ""
	return &cfg
}
