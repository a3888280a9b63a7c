package updatestate

// Phase is one step of the update lifecycle. No other phases exist.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseChecking    Phase = "checking"
	PhaseAvailable   Phase = "available"
	PhaseDownloading Phase = "downloading"
	PhaseDownloaded  Phase = "downloaded"
	PhaseVerifying   Phase = "verifying"
	PhaseReady       Phase = "ready"
	PhaseFailed      Phase = "failed"
)

// Progress describes one download-progress report from the download engine.
type Progress struct {
	Percent        float64 `json:"percent"`
	Transferred    int64   `json:"transferred"`
	Total          int64   `json:"total"`
	BytesPerSecond float64 `json:"bytesPerSecond"`
}

// State is the snapshot broadcast to observers on every transition.
// Version is set once an update is known, Detail carries a human-readable
// failure reason, and Progress is present only while downloading.
type State struct {
	Phase    Phase     `json:"phase"`
	Version  string    `json:"version,omitempty"`
	Detail   string    `json:"detail,omitempty"`
	Progress *Progress `json:"progress,omitempty"`
}

// Initial returns the state a fresh process starts in.
func Initial() State {
	return State{Phase: PhaseIdle}
}

// Clone returns a deep copy so observers can never alias machine-owned state.
func (s State) Clone() State {
	out := s
	if s.Progress != nil {
		p := *s.Progress
		out.Progress = &p
	}
	return out
}
