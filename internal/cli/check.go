package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/archway-app/updater/internal/fetch"
	"github.com/archway-app/updater/internal/verify"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Fetch the release manifest and report its contents",
	Long: `Fetch the signed release manifest from the configured repository (or
override URL), verify its signature, and print the release it describes.

The manifest's structure and signature are checked; the local file hash is
not, since nothing has been downloaded. Use "verify" for the full pipeline.`,
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

		if !verify.Signature(m, cfg.PublicKey) {
			return verify.ErrSignature
		}

		fmt.Printf("Manifest:  %s\n", url)
		fmt.Printf("Version:   %s\n", m.Version)
		fmt.Printf("Created:   %s\n", m.CreatedAt)
		fmt.Printf("Signature: OK\n")
		for _, a := range m.Artifacts {
			fmt.Printf("Artifact:  %-7s %-8s %s\n", a.Platform, a.Type, a.URL)
		}
		if _, ok := verify.FindForPlatform(m.Artifacts, cfg.Platform); !ok {
			fmt.Printf("Note:      no artifact for this platform (%s)\n", cfg.Platform)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
