// Package manifest defines the signed release manifest: the wire types, the
// canonical byte encoding that signatures cover, structural validation of the
// fetched JSON, and derivation of the manifest URL.
package manifest

// Platform tokens a manifest artifact may target.
const (
	PlatformDarwin = "darwin"
	PlatformLinux  = "linux"
	PlatformWin32  = "win32"
)

// Artifact is one downloadable platform build referenced by a signed manifest.
// Immutable once constructed; its field order is the canonical serialization
// order.
type Artifact struct {
	URL      string `json:"url"`
	SHA256   string `json:"sha256"`
	Platform string `json:"platform"`
	Type     string `json:"type"`
}

// SignedManifest is the remotely published description of the latest release.
// Signature is a base64 detached signature over the canonical encoding of
// {version, artifacts, createdAt}; see CanonicalPayload. CreatedAt is part of
// the signed payload but is not otherwise validated. A manifest is fetched
// once per verification attempt and never mutated.
type SignedManifest struct {
	Version   string     `json:"version"`
	Artifacts []Artifact `json:"artifacts"`
	CreatedAt string     `json:"createdAt"`
	Signature string     `json:"signature"`
}
