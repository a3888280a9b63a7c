// Package cli implements the archway-update diagnostic command line. It is a
// thin operator surface over the update core: nothing here adds trust logic.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/archway-app/updater/internal/config"
	"github.com/archway-app/updater/internal/logging"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "archway-update",
	Short: "Archway update verification diagnostics",
	Long: `archway-update exercises the Archway updater core from the command line:
fetch the signed release manifest, and run the full verification pipeline
(signature, version gate, platform artifact, content hash) against a
downloaded file.

It uses exactly the code paths the application uses, so a release that
verifies here verifies in the app.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.NewLogger(logLevel, logFormat)
		if err != nil {
			return err
		}

		// version and sign operate without updater configuration.
		switch cmd.Name() {
		case "version", "sign":
			return nil
		}

		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional; ARCHWAY_UPDATE_* env vars also apply)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (json, console)")
}
