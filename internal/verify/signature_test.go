package verify

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"testing"

	"github.com/archway-app/updater/internal/manifest"
)

func testManifest() *manifest.SignedManifest {
	return &manifest.SignedManifest{
		Version: "2.0.0",
		Artifacts: []manifest.Artifact{
			{
				URL:      "https://example.com/app.dmg",
				SHA256:   "aa11bb22cc33dd44ee55ff6600112233445566778899aabbccddeeff00112233",
				Platform: "darwin",
				Type:     "dmg",
			},
		},
		CreatedAt: "2024-01-01T00:00:00Z",
	}
}

func signedTestManifest(t *testing.T) (*manifest.SignedManifest, ed25519.PublicKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	m := testManifest()
	if err := manifest.Sign(m, priv); err != nil {
		t.Fatalf("sign manifest: %v", err)
	}
	return m, pub
}

func TestSignatureRoundTrip(t *testing.T) {
	t.Parallel()

	m, pub := signedTestManifest(t)
	key := base64.StdEncoding.EncodeToString(pub)
	if !Signature(m, key) {
		t.Fatal("valid signature rejected")
	}
}

func TestSignatureHexKeyEncoding(t *testing.T) {
	t.Parallel()

	m, pub := signedTestManifest(t)
	if !Signature(m, hex.EncodeToString(pub)) {
		t.Fatal("valid signature rejected under hex key encoding")
	}
}

func TestSignatureMinisignKeyEncoding(t *testing.T) {
	t.Parallel()

	m, pub := signedTestManifest(t)

	// A minisign public key is alg(2) + key id(8) + raw ed25519 key(32).
	blob := append([]byte("Ed"), 1, 2, 3, 4, 5, 6, 7, 8)
	blob = append(blob, pub...)
	bare := base64.StdEncoding.EncodeToString(blob)

	if !Signature(m, bare) {
		t.Fatal("valid signature rejected under bare minisign key line")
	}
	fileBody := "untrusted comment: minisign public key\n" + bare + "\n"
	if !Signature(m, fileBody) {
		t.Fatal("valid signature rejected under full minisign key file body")
	}
}

func TestSignatureRSARoundTrip(t *testing.T) {
	t.Parallel()

	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}

	m := testManifest()
	msg, err := manifest.CanonicalPayload(m)
	if err != nil {
		t.Fatalf("canonical payload: %v", err)
	}
	digest := sha256.Sum256(msg)
	sig, err := rsa.SignPKCS1v15(rand.Reader, rsaKey, crypto.SHA256, digest[:])
	if err != nil {
		t.Fatalf("rsa sign: %v", err)
	}
	m.Signature = base64.StdEncoding.EncodeToString(sig)

	der, err := x509.MarshalPKIXPublicKey(&rsaKey.PublicKey)
	if err != nil {
		t.Fatalf("marshal spki: %v", err)
	}
	pemKey := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))

	if !Signature(m, pemKey) {
		t.Fatal("valid RSA signature rejected")
	}

	m.Version = "9.9.9"
	if Signature(m, pemKey) {
		t.Fatal("tampered manifest accepted under RSA scheme")
	}
}

func TestSignatureSingleFieldTampering(t *testing.T) {
	t.Parallel()

	mutations := []struct {
		name   string
		mutate func(m *manifest.SignedManifest)
	}{
		{"version", func(m *manifest.SignedManifest) { m.Version = "2.0.1" }},
		{"createdAt", func(m *manifest.SignedManifest) { m.CreatedAt = "2024-01-01T00:00:01Z" }},
		{"artifact url", func(m *manifest.SignedManifest) { m.Artifacts[0].URL = "https://evil.example.com/app.dmg" }},
		{"artifact sha256", func(m *manifest.SignedManifest) {
			m.Artifacts[0].SHA256 = "ff11bb22cc33dd44ee55ff6600112233445566778899aabbccddeeff00112233"
		}},
		{"artifact platform", func(m *manifest.SignedManifest) { m.Artifacts[0].Platform = "linux" }},
		{"artifact type", func(m *manifest.SignedManifest) { m.Artifacts[0].Type = "zip" }},
		{"artifact appended", func(m *manifest.SignedManifest) {
			m.Artifacts = append(m.Artifacts, m.Artifacts[0])
		}},
		{"signature bytes appended", func(m *manifest.SignedManifest) { m.Signature += "AB" }},
	}

	for _, tc := range mutations {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m, pub := signedTestManifest(t)
			key := base64.StdEncoding.EncodeToString(pub)
			if !Signature(m, key) {
				t.Fatal("precondition failed: untampered manifest rejected")
			}
			tc.mutate(m)
			if Signature(m, key) {
				t.Fatalf("tampered %s accepted", tc.name)
			}
		})
	}
}

func TestSignatureWrongKeyRejected(t *testing.T) {
	t.Parallel()

	m, _ := signedTestManifest(t)
	otherPub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	if Signature(m, base64.StdEncoding.EncodeToString(otherPub)) {
		t.Fatal("signature accepted under a key that did not sign")
	}
}

func TestSignatureMalformedInputsNeverPanic(t *testing.T) {
	t.Parallel()

	m, pub := signedTestManifest(t)
	goodKey := base64.StdEncoding.EncodeToString(pub)

	cases := []struct {
		name     string
		manifest *manifest.SignedManifest
		key      string
	}{
		{"nil manifest", nil, goodKey},
		{"empty key", m, ""},
		{"key not base64", m, "!!!not-base64!!!"},
		{"key wrong length", m, base64.StdEncoding.EncodeToString([]byte("short"))},
		{"key is PEM garbage", m, "-----BEGIN PUBLIC KEY-----\nnot pem\n-----END PUBLIC KEY-----"},
		{"signature not base64", &manifest.SignedManifest{Version: "1.0.0", Signature: "%%%"}, goodKey},
		{"empty signature", &manifest.SignedManifest{Version: "1.0.0"}, goodKey},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if Signature(tc.manifest, tc.key) {
				t.Fatal("malformed input accepted")
			}
		})
	}
}

func TestParsePublicKeySchemeSelection(t *testing.T) {
	t.Parallel()

	edPub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	scheme, err := ParsePublicKey(base64.StdEncoding.EncodeToString(edPub))
	if err != nil {
		t.Fatalf("ParsePublicKey(ed25519): %v", err)
	}
	if scheme.Name() != "ed25519" {
		t.Fatalf("scheme: got %q want ed25519", scheme.Name())
	}

	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&rsaKey.PublicKey)
	if err != nil {
		t.Fatalf("marshal spki: %v", err)
	}
	pemKey := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
	scheme, err = ParsePublicKey(pemKey)
	if err != nil {
		t.Fatalf("ParsePublicKey(rsa pem): %v", err)
	}
	if scheme.Name() != "rsa-pkcs1v15-sha256" {
		t.Fatalf("scheme: got %q want rsa-pkcs1v15-sha256", scheme.Name())
	}

	if _, err := ParsePublicKey("definitely not a key"); err == nil {
		t.Fatal("expected error for unrecognized encoding")
	}
}
