package verify

import "github.com/archway-app/updater/internal/manifest"

// FindForPlatform returns the first artifact whose platform field exactly
// equals the requested platform. Matching is case-sensitive; "DARWIN" does not
// match "darwin". No side effects, deterministic for a given list.
func FindForPlatform(artifacts []manifest.Artifact, platform string) (*manifest.Artifact, bool) {
	for i := range artifacts {
		if artifacts[i].Platform == platform {
			return &artifacts[i], true
		}
	}
	return nil, false
}
