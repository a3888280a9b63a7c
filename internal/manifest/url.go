package manifest

import (
	"errors"
	"fmt"
	"strings"
)

// FileName is the fixed name of the manifest within a release.
const FileName = "manifest.json"

const productionHost = "https://github.com"

// ErrNotConfigured is returned when the release repository has not been
// configured. It is a configuration failure, distinct from any network error.
var ErrNotConfigured = errors.New("update repository owner and name must be configured")

// ProductionURL derives the manifest URL from a code-hosting owner/repo pair.
// The URL is deliberately version-independent: any running version discovers
// the newest manifest through the latest-release redirect.
func ProductionURL(owner, repo string) (string, error) {
	owner = strings.TrimSpace(owner)
	repo = strings.TrimSpace(repo)
	if owner == "" || repo == "" {
		return "", ErrNotConfigured
	}
	return fmt.Sprintf("%s/%s/%s/releases/latest/download/%s", productionHost, owner, repo, FileName), nil
}

// OverrideURL appends the manifest file name to a custom base URL, joining
// with exactly one slash regardless of whether the base carries one.
func OverrideURL(base string) string {
	return strings.TrimRight(base, "/") + "/" + FileName
}
