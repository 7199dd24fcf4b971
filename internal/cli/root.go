package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkflow/inkwell/internal/config"
	"github.com/inkflow/inkwell/internal/logger"
)

var (
	serverURL  string
	logLevel   string
	logFile    string
	logConsole bool
)

var rootCmd = &cobra.Command{
	Use:   "inkwell",
	Short: "Inkwell - terminal client for the Inkwell blogging platform",
	Long: `Inkwell is a terminal client for the Inkwell blogging platform:
browse and publish articles, follow comment threads live, and keep up
with notifications without leaving the shell.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			cfg = config.DefaultConfig()
		}

		// CLI flags win over the config file
		if cmd.Flags().Changed("server") {
			cfg.ServerURL = serverURL
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("log-file") {
			cfg.LogFile = logFile
		}
		if cmd.Flags().Changed("log-console") {
			cfg.LogConsole = logConsole
		}

		logConfig := logger.DefaultConfig()
		logConfig.Level = logger.ParseLevel(cfg.LogLevel)
		if cfg.LogFile != "" {
			logConfig.FilePath = cfg.LogFile
		}
		logConfig.Console = cfg.LogConsole
		if err := logger.Init(logConfig); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		loadedConfig = cfg
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Close()
	},
}

// loadedConfig is the config resolved by PersistentPreRunE, shared by
// every command in this invocation.
var loadedConfig *config.Config

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Server URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Log file path")
	rootCmd.PersistentFlags().BoolVar(&logConsole, "log-console", false, "Also log to stderr")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(articlesCmd)
	rootCmd.AddCommand(commentsCmd)
	rootCmd.AddCommand(notificationsCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(watchCmd)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
