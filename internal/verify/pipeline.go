package verify

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/archway-app/updater/internal/manifest"
	"github.com/archway-app/updater/internal/version"
)

// ErrSignature rejects a manifest whose detached signature did not verify.
// The message deliberately carries no key or signature material.
var ErrSignature = errors.New("manifest signature verification failed")

// PlatformError rejects a manifest that lists no artifact for the running
// platform.
type PlatformError struct {
	Platform string
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("no artifact found for platform %s", e.Platform)
}

// MismatchError rejects a downloaded file whose digest differs from the one
// the signed manifest lists for the selected artifact.
type MismatchError struct {
	Expected string
	Actual   string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("artifact hash mismatch: manifest lists %s, file digests to %s", e.Expected, e.Actual)
}

// Pipeline sequences the four verification stages into one atomic decision
// over a fetched manifest and a downloaded file. The order is fixed and
// fail-fast: signature first, so the version, platform, and hash stages only
// ever evaluate data that provably came from the trusted signer.
type Pipeline struct {
	PublicKey      string
	CurrentVersion string
	Platform       string

	Log *zap.Logger
}

// NewPipeline builds a pipeline for one installation's identity. A nil logger
// is replaced with a no-op one.
func NewPipeline(publicKey, currentVersion, platform string, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		PublicKey:      publicKey,
		CurrentVersion: currentVersion,
		Platform:       platform,
		Log:            log,
	}
}

// Verify returns nil only when every stage passes. The first failing stage's
// error is returned unchanged; no stage is skipped or reordered, and there is
// no partial recovery.
func (p *Pipeline) Verify(m *manifest.SignedManifest, filePath string) error {
	if !Signature(m, p.PublicKey) {
		return ErrSignature
	}
	p.Log.Debug("manifest signature verified", zap.String("version", m.Version))

	if err := version.Validate(m.Version, p.CurrentVersion); err != nil {
		return err
	}
	p.Log.Debug("version gate passed",
		zap.String("candidate", m.Version), zap.String("current", p.CurrentVersion))

	artifact, ok := FindForPlatform(m.Artifacts, p.Platform)
	if !ok {
		return &PlatformError{Platform: p.Platform}
	}

	actual, err := HashFile(filePath)
	if err != nil {
		return err
	}
	if !HashMatches(artifact.SHA256, actual) {
		return &MismatchError{Expected: artifact.SHA256, Actual: actual}
	}
	p.Log.Debug("artifact hash verified", zap.String("platform", p.Platform))

	return nil
}
