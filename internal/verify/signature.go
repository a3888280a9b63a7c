// Package verify implements the four verification stages that gate an update:
// manifest signature, version precedence, platform artifact selection, and
// content hash. The pipeline runs them in that fixed order, fail-fast, so
// every later stage operates on data already proven authentic.
package verify

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"github.com/jedisct1/go-minisign"

	"github.com/archway-app/updater/internal/manifest"
)

// Scheme verifies a detached signature over a message with one fixed public
// key. One implementation exists per asymmetric scheme; the scheme is chosen
// by key encoding at configuration time, never by probing both.
type Scheme interface {
	Name() string
	Verify(message, signature []byte) bool
}

type ed25519Scheme struct {
	key ed25519.PublicKey
}

func (s ed25519Scheme) Name() string { return "ed25519" }

func (s ed25519Scheme) Verify(message, signature []byte) bool {
	if len(s.key) != ed25519.PublicKeySize || len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(s.key, message, signature)
}

type rsaScheme struct {
	key *rsa.PublicKey
}

func (s rsaScheme) Name() string { return "rsa-pkcs1v15-sha256" }

func (s rsaScheme) Verify(message, signature []byte) bool {
	digest := sha256.Sum256(message)
	return rsa.VerifyPKCS1v15(s.key, crypto.SHA256, digest[:], signature) == nil
}

// ParsePublicKey selects the signature scheme from the key encoding:
//
//   - PEM-armored SPKI is the legacy RSA path (an SPKI ed25519 key is also
//     accepted and routed to the ed25519 scheme),
//   - a minisign public key (the full "untrusted comment:" block or the bare
//     base64 line) yields the ed25519 scheme with the embedded raw key,
//   - bare base64 or hex of 32 raw bytes yields the ed25519 scheme.
//
// Exactly one scheme results from one key; there is no dual acceptance.
func ParsePublicKey(encoded string) (Scheme, error) {
	trimmed := strings.TrimSpace(encoded)
	if trimmed == "" {
		return nil, errors.New("public key is empty")
	}

	if strings.Contains(trimmed, "-----BEGIN") {
		return parsePEMKey(trimmed)
	}

	if strings.Contains(trimmed, "untrusted comment:") {
		return parseMinisignKey(minisignKeyLine(trimmed))
	}

	if raw, err := base64.StdEncoding.DecodeString(trimmed); err == nil {
		switch len(raw) {
		case ed25519.PublicKeySize:
			return ed25519Scheme{key: ed25519.PublicKey(raw)}, nil
		case minisignKeySize:
			return parseMinisignKey(trimmed)
		}
	}

	if raw, err := hex.DecodeString(trimmed); err == nil && len(raw) == ed25519.PublicKeySize {
		return ed25519Scheme{key: ed25519.PublicKey(raw)}, nil
	}

	return nil, fmt.Errorf("unrecognized public key encoding (%d chars)", len(trimmed))
}

func parsePEMKey(armored string) (Scheme, error) {
	block, _ := pem.Decode([]byte(armored))
	if block == nil {
		return nil, errors.New("public key is not valid PEM")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse SPKI public key: %w", err)
	}
	switch k := pub.(type) {
	case *rsa.PublicKey:
		return rsaScheme{key: k}, nil
	case ed25519.PublicKey:
		return ed25519Scheme{key: k}, nil
	default:
		return nil, fmt.Errorf("unsupported public key type %T", pub)
	}
}

// minisignKeySize is the decoded length of a minisign public key:
// 2-byte algorithm, 8-byte key ID, 32-byte ed25519 key.
const minisignKeySize = 42

func parseMinisignKey(b64 string) (Scheme, error) {
	pk, err := minisign.NewPublicKey(b64)
	if err != nil {
		return nil, fmt.Errorf("parse minisign public key: %w", err)
	}
	return ed25519Scheme{key: ed25519.PublicKey(pk.PublicKey[:])}, nil
}

// minisignKeyLine extracts the base64 key line from a minisign .pub file body,
// skipping comment lines.
func minisignKeyLine(body string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "untrusted comment:") {
			continue
		}
		return line
	}
	return ""
}

// Signature reports whether the manifest's detached signature is valid under
// the given public key. It canonicalizes exactly {version, artifacts,
// createdAt}, decodes the base64 signature, and runs the scheme selected by
// the key encoding. Malformed input of any kind yields false, never a panic.
func Signature(m *manifest.SignedManifest, publicKey string) bool {
	if m == nil {
		return false
	}
	scheme, err := ParsePublicKey(publicKey)
	if err != nil {
		return false
	}
	msg, err := manifest.CanonicalPayload(m)
	if err != nil {
		return false
	}
	sig, err := base64.StdEncoding.DecodeString(strings.TrimSpace(m.Signature))
	if err != nil {
		return false
	}
	return scheme.Verify(msg, sig)
}
