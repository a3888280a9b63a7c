package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/archway-app/updater/internal/fetch"
	"github.com/archway-app/updater/internal/verify"
)

var currentVersion string

var verifyCmd = &cobra.Command{
	Use:   "verify <downloaded-file>",
	Short: "Run the full verification pipeline against a downloaded file",
	Long: `Fetch the signed release manifest and run the complete four-stage
verification against a locally downloaded artifact:

  1. manifest signature
  2. version gate (must be newer than --current-version)
  3. platform artifact selection
  4. SHA-256 content hash of the file

The command exits non-zero on the first failing stage, printing the same
diagnostic the application would surface.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := cfg.ManifestURL()
		if err != nil {
			return err
		}

		fetcher := fetch.New(logger, fetch.WithTimeout(cfg.FetchTimeout))
		m, err := fetcher.Fetch(cmd.Context(), url)
		if err != nil {
			return err
		}

		pipeline := verify.NewPipeline(cfg.PublicKey, currentVersion, cfg.Platform, logger)
		if err := pipeline.Verify(m, args[0]); err != nil {
			return err
		}

		fmt.Printf("Verified: %s is an authentic %s build of version %s\n",
			args[0], cfg.Platform, m.Version)
		return nil
	},
}

func init() {
	verifyCmd.Flags().StringVar(&currentVersion, "current-version", "0.0.0", "version the running application reports")
	rootCmd.AddCommand(verifyCmd)
}
