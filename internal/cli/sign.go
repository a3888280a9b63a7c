package cli

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/archway-app/updater/internal/manifest"
	"github.com/archway-app/updater/internal/verify"
)

var (
	signDir     string
	signOut     string
	signKeyFile string
	signVersion string
	signBaseURL string
)

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Build and sign a release manifest from a directory of artifacts",
	Long: `Scan a release directory, compute the SHA-256 digest of every artifact,
and write a signed manifest.json describing them.

The artifact platform and type are inferred from each file name:
.dmg is darwin, .AppImage is linux, .exe is win32; .zip files need a
platform token (darwin, linux, win32 or mac, win) somewhere in the name.
Files that match none of these are skipped.

The signing key file contains the base64 ed25519 private key (64 bytes,
or the 32-byte seed).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := loadSigningKey(signKeyFile)
		if err != nil {
			return err
		}

		artifacts, err := collectArtifacts(signDir, signBaseURL)
		if err != nil {
			return err
		}
		if len(artifacts) == 0 {
			return fmt.Errorf("no release artifacts found in %s", signDir)
		}

		m := &manifest.SignedManifest{
			Version:   strings.TrimPrefix(strings.TrimSpace(signVersion), "v"),
			Artifacts: artifacts,
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if m.Version == "" {
			return fmt.Errorf("--release-version is required")
		}
		if err := manifest.Sign(m, key); err != nil {
			return err
		}

		out := signOut
		if out == "" {
			out = filepath.Join(signDir, manifest.FileName)
		}
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}

		fmt.Printf("Wrote %s (%d artifacts, version %s)\n", out, len(artifacts), m.Version)
		return nil
	},
}

func loadSigningKey(path string) (ed25519.PrivateKey, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("--key is required")
	}
	// #nosec G304 -- operator-supplied key path
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read signing key %s: %w", path, err)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("signing key %s is not base64: %w", path, err)
	}
	switch len(raw) {
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(raw), nil
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(raw), nil
	default:
		return nil, fmt.Errorf("signing key %s decodes to %d bytes, want %d or %d",
			path, len(raw), ed25519.PrivateKeySize, ed25519.SeedSize)
	}
}

func collectArtifacts(dir, baseURL string) ([]manifest.Artifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	var artifacts []manifest.Artifact
	for _, name := range names {
		platform, typ, ok := classifyArtifact(name)
		if !ok {
			continue
		}
		sum, err := verify.HashFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, manifest.Artifact{
			URL:      base + "/" + name,
			SHA256:   sum,
			Platform: platform,
			Type:     typ,
		})
	}
	return artifacts, nil
}

// classifyArtifact infers the manifest platform and type from a release file
// name. Unrecognized files (checksum lists, signatures, sources) report false.
func classifyArtifact(name string) (platform, typ string, ok bool) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".dmg"):
		return manifest.PlatformDarwin, "dmg", true
	case strings.HasSuffix(lower, ".appimage"):
		return manifest.PlatformLinux, "AppImage", true
	case strings.HasSuffix(lower, ".exe"):
		return manifest.PlatformWin32, "exe", true
	case strings.HasSuffix(lower, ".zip"):
		switch {
		case strings.Contains(lower, "darwin"), strings.Contains(lower, "mac"):
			return manifest.PlatformDarwin, "zip", true
		case strings.Contains(lower, "win"):
			return manifest.PlatformWin32, "zip", true
		case strings.Contains(lower, "linux"):
			return manifest.PlatformLinux, "zip", true
		}
		return "", "", false
	default:
		return "", "", false
	}
}

func init() {
	signCmd.Flags().StringVar(&signDir, "dir", "dist/release", "directory containing release artifacts")
	signCmd.Flags().StringVar(&signOut, "out", "", "output path (default <dir>/manifest.json)")
	signCmd.Flags().StringVar(&signKeyFile, "key", "", "file containing the base64 ed25519 signing key")
	signCmd.Flags().StringVar(&signVersion, "release-version", "", "version the manifest describes")
	signCmd.Flags().StringVar(&signBaseURL, "base-url", "https://github.com/archway-app/archway/releases/latest/download", "URL prefix for artifact download links")
	rootCmd.AddCommand(signCmd)
}
