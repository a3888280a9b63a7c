package verify

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// FileIOError means the downloaded file could not be read. The orchestrator
// treats it as "could not check", distinct from a hash that checked and failed.
type FileIOError struct {
	Path string
	Err  error
}

func (e *FileIOError) Error() string {
	return fmt.Sprintf("read downloaded file %s: %v", e.Path, e.Err)
}

func (e *FileIOError) Unwrap() error { return e.Err }

// HashFile returns the lowercase hex SHA-256 digest of the file at path.
// The content is streamed; artifacts are installer-sized and must never be
// buffered whole in memory.
func HashFile(path string) (string, error) {
	// #nosec G304 -- path comes from the download engine, not remote input
	f, err := os.Open(path)
	if err != nil {
		return "", &FileIOError{Path: path, Err: err}
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", &FileIOError{Path: path, Err: err}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashMatches compares two hex digests case-insensitively; manifests encode
// digests in either case.
func HashMatches(expected, actual string) bool {
	if expected == "" || actual == "" {
		return false
	}
	return strings.EqualFold(expected, actual)
}
