package manifest

import (
	"errors"
	"strings"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

func decode(t *testing.T, body string) any {
	t.Helper()
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(body))
	if err != nil {
		t.Fatalf("decode test body: %v", err)
	}
	return doc
}

const validManifestJSON = `{
  "version": "1.2.3",
  "artifacts": [
    {"url": "https://example.com/app.dmg",
     "sha256": "aa11bb22cc33dd44ee55ff6600112233445566778899aabbccddeeff00112233",
     "platform": "darwin", "type": "dmg"}
  ],
  "createdAt": "2024-01-01T00:00:00Z",
  "signature": "c2ln"
}`

func TestValidateShape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		body      string
		wantInErr []string
	}{
		{
			name: "valid manifest",
			body: validManifestJSON,
		},
		{
			name: "empty artifacts allowed",
			body: `{"version":"1.0.0","artifacts":[],"createdAt":"2024-01-01T00:00:00Z","signature":"c2ln"}`,
		},
		{
			name:      "missing version named",
			body:      `{"artifacts":[],"createdAt":"2024-01-01T00:00:00Z","signature":"c2ln"}`,
			wantInErr: []string{"version"},
		},
		{
			name:      "missing signature named",
			body:      `{"version":"1.0.0","artifacts":[],"createdAt":"2024-01-01T00:00:00Z"}`,
			wantInErr: []string{"signature"},
		},
		{
			name:      "artifacts wrong type named",
			body:      `{"version":"1.0.0","artifacts":"nope","createdAt":"2024-01-01T00:00:00Z","signature":"c2ln"}`,
			wantInErr: []string{"artifacts"},
		},
		{
			name:      "version wrong type named",
			body:      `{"version":7,"artifacts":[],"createdAt":"2024-01-01T00:00:00Z","signature":"c2ln"}`,
			wantInErr: []string{"version"},
		},
		{
			name: "artifact digest wrong length located",
			body: `{"version":"1.0.0","artifacts":[
				{"url":"https://x","sha256":"abc","platform":"linux","type":"AppImage"}
			],"createdAt":"2024-01-01T00:00:00Z","signature":"c2ln"}`,
			wantInErr: []string{"sha256"},
		},
		{
			name: "unknown platform located",
			body: `{"version":"1.0.0","artifacts":[
				{"url":"https://x","sha256":"aa11bb22cc33dd44ee55ff6600112233445566778899aabbccddeeff00112233","platform":"plan9","type":"zip"}
			],"createdAt":"2024-01-01T00:00:00Z","signature":"c2ln"}`,
			wantInErr: []string{"platform"},
		},
		{
			name:      "document is not an object",
			body:      `["not", "a", "manifest"]`,
			wantInErr: []string{"(document root)"},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateShape(decode(t, tc.body))
			if len(tc.wantInErr) == 0 {
				if err != nil {
					t.Fatalf("ValidateShape: unexpected error %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("ValidateShape: expected schema error")
			}
			var serr *SchemaError
			if !errors.As(err, &serr) {
				t.Fatalf("error type: got %T want *SchemaError (%v)", err, err)
			}
			for _, want := range tc.wantInErr {
				if !strings.Contains(err.Error(), want) {
					t.Fatalf("error %q missing %q", err.Error(), want)
				}
			}
		})
	}
}
