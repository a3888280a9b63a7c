package manifest

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// payload mirrors the signed subset of a manifest in its fixed field order.
// The signature field itself is deliberately absent.
type payload struct {
	Version   string     `json:"version"`
	Artifacts []Artifact `json:"artifacts"`
	CreatedAt string     `json:"createdAt"`
}

// CanonicalPayload returns the exact byte sequence a manifest signature
// covers: compact JSON of {version, artifacts, createdAt} with keys in that
// order, artifact fields in their natural order, no inserted whitespace, and
// no HTML escaping. Signer and verifier must produce identical bytes, so any
// change here is a wire-format break.
func CanonicalPayload(m *SignedManifest) ([]byte, error) {
	p := payload{
		Version:   m.Version,
		Artifacts: m.Artifacts,
		CreatedAt: m.CreatedAt,
	}
	if p.Artifacts == nil {
		p.Artifacts = []Artifact{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("encode manifest payload: %w", err)
	}
	// Encode appends a newline that is not part of the signed message.
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Sign computes the ed25519 detached signature over the canonical payload and
// stores it base64-encoded on the manifest. Used by release tooling and tests;
// verification lives in the verify package.
func Sign(m *SignedManifest, key ed25519.PrivateKey) error {
	if len(key) != ed25519.PrivateKeySize {
		return fmt.Errorf("signing key must be %d bytes, got %d", ed25519.PrivateKeySize, len(key))
	}
	msg, err := CanonicalPayload(m)
	if err != nil {
		return err
	}
	m.Signature = base64.StdEncoding.EncodeToString(ed25519.Sign(key, msg))
	return nil
}
