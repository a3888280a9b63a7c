// Package state models the lifecycle of one update attempt as an explicit
// state machine over a closed set of input events, and drives the
// verification pipeline when an artifact finishes downloading.
package state

import "github.com/archway-app/updater/pkg/updatestate"

// Event is one input to the update state machine. The set is closed: download
// engine callbacks and the periodic checker are translated into exactly these
// values, so transitions are unit-testable without a live engine.
type Event interface {
	event()
}

// Checking means an update check has started. Accepted from any phase.
type Checking struct{}

// Available means the checker found a newer version.
type Available struct {
	Version string
}

// NotAvailable means the checker found nothing newer; the cycle rests.
type NotAvailable struct{}

// DownloadProgress is one progress report from the download engine.
type DownloadProgress struct {
	Progress updatestate.Progress
}

// Downloaded means the engine finished writing the artifact to disk. It
// triggers the verification pipeline.
type Downloaded struct {
	Version string
	Path    string
}

// Failed carries any error from the engine, the fetcher, or verification.
// It is accepted unconditionally from every phase, including checking and
// verifying: the machine must never be stranded in a non-resting phase.
type Failed struct {
	Err error
}

// verifying and verified are internal follow-on events emitted while the
// machine runs the pipeline after Downloaded.
type verifying struct {
	version string
}

type verified struct {
	version string
}

func (Checking) event()         {}
func (Available) event()        {}
func (NotAvailable) event()     {}
func (DownloadProgress) event() {}
func (Downloaded) event()       {}
func (Failed) event()           {}
func (verifying) event()        {}
func (verified) event()         {}
