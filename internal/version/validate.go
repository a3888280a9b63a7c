// Package version gates update candidates on semantic-version precedence.
// The rule is strict: a candidate must be newer than the running version, so a
// manifest can never move an installation sideways or backwards.
package version

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// ParseError reports an input that is not a valid semantic version. Input
// names which argument failed ("candidate" or "current") and Value echoes the
// offending string verbatim for diagnostics.
type ParseError struct {
	Input string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid %s version %q: %v", e.Input, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// GateError rejects a candidate that does not strictly exceed the running
// version. Equal distinguishes "same version" from a downgrade attempt.
type GateError struct {
	Candidate string
	Current   string
	Equal     bool
}

func (e *GateError) Error() string {
	if e.Equal {
		return fmt.Sprintf("update version %q equals current version %q", e.Candidate, e.Current)
	}
	return fmt.Sprintf("update version %q is older than current version %q", e.Candidate, e.Current)
}

// Validate returns nil only when candidate is strictly newer than current
// under semver precedence (prereleases sort below their release, numeric
// identifiers compare numerically, alphanumeric ones lexically). It is a pure
// function: same inputs, same verdict.
func Validate(candidate, current string) error {
	cand, err := semver.StrictNewVersion(candidate)
	if err != nil {
		return &ParseError{Input: "candidate", Value: candidate, Err: err}
	}
	cur, err := semver.StrictNewVersion(current)
	if err != nil {
		return &ParseError{Input: "current", Value: current, Err: err}
	}

	switch cand.Compare(cur) {
	case 0:
		return &GateError{Candidate: candidate, Current: current, Equal: true}
	case -1:
		return &GateError{Candidate: candidate, Current: current}
	}
	return nil
}
