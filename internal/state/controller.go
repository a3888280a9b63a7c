package state

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/archway-app/updater/pkg/updatestate"
)

// Engine is the external download engine. It writes the artifact to disk and
// reports progress through the controller; everything else about it is out of
// scope for the update core.
type Engine interface {
	Download(ctx context.Context) error
}

// Controller is the thin driver between the download engine and the state
// machine: it starts downloads and feeds progress reports in.
type Controller struct {
	engine  Engine
	machine *Machine
	log     *zap.Logger

	downloading atomic.Bool
}

// NewController builds a controller. A nil logger is replaced with a no-op one.
func NewController(engine Engine, machine *Machine, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{engine: engine, machine: machine, log: log}
}

// DownloadUpdate starts a download unless one is already running; concurrent
// calls are absorbed without starting a second download. Engine failures are
// routed into the state machine as a Failed event.
func (c *Controller) DownloadUpdate(ctx context.Context) error {
	if !c.downloading.CompareAndSwap(false, true) {
		c.log.Debug("download already in progress, ignoring trigger")
		return nil
	}
	defer c.downloading.Store(false)

	if err := c.engine.Download(ctx); err != nil {
		c.machine.Dispatch(ctx, Failed{Err: err})
		return err
	}
	return nil
}

// ReportProgress feeds one engine progress callback into the state machine.
// Values are normalized on transition: percent clamped to [0, 100] and
// transferred capped at total once the total is known.
func (c *Controller) ReportProgress(ctx context.Context, p updatestate.Progress) {
	c.machine.Dispatch(ctx, DownloadProgress{Progress: p})
}
