package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/WagnerMushayija/momo-summative/internal/app"
	"github.com/WagnerMushayija/momo-summative/internal/config"
	"github.com/WagnerMushayija/momo-summative/internal/logging"
)

var (
	cfgFile     string
	logLevel    string
	appHandle   *app.App
	closeLogger func() error
)

var rootCmd = &cobra.Command{
	Use:           "momo",
	Short:         "Classify mobile-money SMS backups into transaction records",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if appHandle != nil {
			return nil
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}

		logger, closer, err := logging.NewLogger(cfg.Logging)
		if err != nil {
			return err
		}
		closeLogger = closer
		appHandle = app.NewApp(cfg, logger)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if closeLogger != nil {
			return closeLogger()
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level defined in config")

	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

func getApp() *app.App {
	if appHandle == nil {
		panic("application not initialized; PersistentPreRunE not executed")
	}
	return appHandle
}
