// Package updatestate defines the lifecycle types the updater core exposes to
// its observers: the phase enumeration, the state snapshot broadcast on every
// transition, and small pure helpers for presenting download progress.
//
// It is intentionally dependency-free so that UI shells and IPC bridges can
// consume update state without pulling in the verification machinery.
//
// Lifecycle model
//   - A fresh process starts in PhaseIdle.
//   - External events (periodic check, download engine callbacks) move the
//     state through checking/available/downloading/downloaded/verifying.
//   - PhaseReady and PhaseFailed are resting states, not terminal ones: the
//     next external trigger restarts the cycle.
package updatestate
