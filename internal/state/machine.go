package state

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/archway-app/updater/internal/manifest"
	"github.com/archway-app/updater/pkg/updatestate"
)

// Next is the pure transition function: given the current state and one
// event, it returns the next state. It performs no I/O and never errors;
// every event maps to exactly one successor state.
func Next(s updatestate.State, ev Event) updatestate.State {
	switch e := ev.(type) {
	case Checking:
		return updatestate.State{Phase: updatestate.PhaseChecking}
	case Available:
		return updatestate.State{Phase: updatestate.PhaseAvailable, Version: e.Version}
	case NotAvailable:
		return updatestate.State{Phase: updatestate.PhaseIdle}
	case DownloadProgress:
		p := e.Progress.Normalized()
		return updatestate.State{
			Phase:    updatestate.PhaseDownloading,
			Version:  s.Version,
			Progress: &p,
		}
	case Downloaded:
		return updatestate.State{Phase: updatestate.PhaseDownloaded, Version: e.Version}
	case verifying:
		return updatestate.State{Phase: updatestate.PhaseVerifying, Version: e.version}
	case verified:
		return updatestate.State{Phase: updatestate.PhaseReady, Version: e.version}
	case Failed:
		detail := ""
		if e.Err != nil {
			detail = e.Err.Error()
		}
		return updatestate.State{Phase: updatestate.PhaseFailed, Version: s.Version, Detail: detail}
	}
	return s
}

// ManifestSource fetches the signed manifest; implemented by fetch.Fetcher.
type ManifestSource interface {
	Fetch(ctx context.Context, url string) (*manifest.SignedManifest, error)
}

// Verifier runs the four-stage decision; implemented by verify.Pipeline.
type Verifier interface {
	Verify(m *manifest.SignedManifest, filePath string) error
}

// Machine owns the single UpdateState value for the process. All mutation
// happens through Dispatch; observers receive immutable snapshots, exactly one
// per transition. Only one verification attempt is ever in flight, enforced by
// the phase itself rather than a separate latch.
type Machine struct {
	mu        sync.Mutex
	state     updatestate.State
	observers []func(updatestate.State)

	source      ManifestSource
	verifier    Verifier
	manifestURL string
	log         *zap.Logger
}

// NewMachine builds a machine in the idle phase. A nil logger is replaced
// with a no-op one.
func NewMachine(source ManifestSource, verifier Verifier, manifestURL string, log *zap.Logger) *Machine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Machine{
		state:       updatestate.Initial(),
		source:      source,
		verifier:    verifier,
		manifestURL: manifestURL,
		log:         log,
	}
}

// State returns a snapshot of the current state.
func (m *Machine) State() updatestate.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// Subscribe registers an observer for state broadcasts. Observers are invoked
// synchronously on the dispatching goroutine with a snapshot they own.
func (m *Machine) Subscribe(fn func(updatestate.State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

// Dispatch feeds one event into the machine. For Downloaded it also runs the
// whole verification sequence: fetch the manifest, run the pipeline, land in
// ready or failed. Dispatch blocks the calling goroutine for the duration;
// the update core runs on a single control thread.
func (m *Machine) Dispatch(ctx context.Context, ev Event) {
	if e, ok := ev.(Downloaded); ok {
		m.runVerification(ctx, e)
		return
	}
	m.transition(ev)
}

// transition applies one event, stores the successor state, and broadcasts it
// exactly once.
func (m *Machine) transition(ev Event) updatestate.State {
	m.mu.Lock()
	next, observers := m.applyLocked(ev)
	m.mu.Unlock()

	m.broadcast(next, observers)
	return next
}

// applyLocked stores the successor state and snapshots the observer list.
// The caller holds mu.
func (m *Machine) applyLocked(ev Event) (updatestate.State, []func(updatestate.State)) {
	next := Next(m.state, ev)
	m.state = next
	observers := make([]func(updatestate.State), len(m.observers))
	copy(observers, m.observers)
	return next, observers
}

func (m *Machine) broadcast(next updatestate.State, observers []func(updatestate.State)) {
	m.log.Debug("update state transition",
		zap.String("phase", string(next.Phase)),
		zap.String("version", next.Version),
		zap.String("detail", next.Detail))

	for _, fn := range observers {
		fn(next.Clone())
	}
}

func (m *Machine) runVerification(ctx context.Context, e Downloaded) {
	// The guard and the first transition happen under one lock acquisition,
	// and the downloaded phase also rejects: a second Downloaded event can
	// never slip in between the two transitions of a running attempt.
	m.mu.Lock()
	switch m.state.Phase {
	case updatestate.PhaseDownloaded, updatestate.PhaseVerifying:
		m.mu.Unlock()
		m.log.Warn("verification already in flight, dropping downloaded event",
			zap.String("version", e.Version))
		return
	}
	next, observers := m.applyLocked(e)
	m.mu.Unlock()
	m.broadcast(next, observers)

	m.transition(verifying{version: e.Version})

	man, err := m.source.Fetch(ctx, m.manifestURL)
	if err != nil {
		m.transition(Failed{Err: err})
		return
	}
	if err := m.verifier.Verify(man, e.Path); err != nil {
		m.transition(Failed{Err: err})
		return
	}

	// Report the manifest's version: it is the one proven authentic.
	m.transition(verified{version: man.Version})
}
