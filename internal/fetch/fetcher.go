// Package fetch retrieves the signed release manifest over the network with
// transport hardening: HTTPS only, cache-bypassing headers, a hard timeout
// that cancels the in-flight request, a bounded response body, and structural
// validation of the JSON before anything downstream sees it.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"

	"github.com/archway-app/updater/internal/manifest"
)

const (
	// DefaultTimeout is the hard deadline for one manifest fetch. The state
	// machine relies on it to never be left in a non-terminal phase.
	DefaultTimeout = 30 * time.Second

	// maxManifestBytes bounds the response body. A release manifest is a few
	// kilobytes; anything larger is not a manifest.
	maxManifestBytes = 1 << 20
)

// ErrTimeout marks a fetch that exceeded its deadline. It is distinct from
// ErrNetwork so operators can tell "server too slow" from "server unreachable".
var ErrTimeout = errors.New("manifest fetch timed out")

// ErrNetwork marks a connection-level failure before any HTTP status arrived.
var ErrNetwork = errors.New("manifest fetch failed")

// InvalidURLError rejects a manifest URL before any network call is issued.
type InvalidURLError struct {
	URL    string
	Reason string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid manifest URL %q: %s", e.URL, e.Reason)
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("manifest fetch returned HTTP status %d", e.Code)
}

// ParseError reports a response body that is not valid JSON. It is a distinct
// kind from transport and schema failures.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("manifest is not valid JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Fetcher retrieves and structurally validates signed manifests.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
	log     *zap.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout overrides the default fetch deadline.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.timeout = d }
}

// WithHTTPClient substitutes the HTTP client, mainly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// New builds a Fetcher. A nil logger is replaced with a no-op one.
func New(log *zap.Logger, opts ...Option) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}
	f := &Fetcher{
		client:  &http.Client{},
		timeout: DefaultTimeout,
		log:     log,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves the manifest at rawURL. The URL must be HTTPS; anything else
// is rejected before a single packet leaves. On timeout the underlying request
// is cancelled, not abandoned. The returned manifest has passed structural
// validation only — signature verification is the pipeline's first stage.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*manifest.SignedManifest, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &InvalidURLError{URL: rawURL, Reason: "not a parsable URL"}
	}
	if u.Scheme != "https" {
		return nil, &InvalidURLError{URL: rawURL, Reason: "https scheme is required"}
	}
	if u.Host == "" {
		return nil, &InvalidURLError{URL: rawURL, Reason: "missing host"}
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &InvalidURLError{URL: rawURL, Reason: err.Error()}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	f.log.Debug("fetching manifest", zap.String("url", u.Redacted()))

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, f.timeout)
		}
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestBytes+1))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, f.timeout)
		}
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	if len(body) > maxManifestBytes {
		return nil, &ParseError{Err: fmt.Errorf("body exceeds %d bytes", maxManifestBytes)}
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	if err := manifest.ValidateShape(doc); err != nil {
		return nil, err
	}

	var m manifest.SignedManifest
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, &ParseError{Err: err}
	}

	f.log.Debug("manifest fetched",
		zap.String("version", m.Version), zap.Int("artifacts", len(m.Artifacts)))
	return &m, nil
}
