// Package clipboard copies text through the host's asynchronous clipboard,
// or through the legacy selection-copy path when that channel was never
// available.
package clipboard

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/handoff/internal/clock"
	"github.com/hpungsan/handoff/internal/errors"
	"github.com/hpungsan/handoff/internal/host"
	"github.com/hpungsan/handoff/internal/state"
)

// Options configures a Copier.
type Options struct {
	// Timeout returns the copier to idle this long after a successful
	// write. Zero keeps the success status until Reset.
	Timeout time.Duration

	OnSuccess    func()
	OnError      func(error)
	OnTransition func(from, to state.Status)

	Clock  clock.Clock
	Logger *zap.Logger
}

// Copier writes text to the clipboard and tracks the outcome.
type Copier struct {
	host    host.Host
	opts    Options
	machine *state.Machine
	logger  *zap.Logger

	mu    sync.Mutex
	timer clock.Timer
}

// New creates a Copier bound to h.
func New(h host.Host, opts Options) *Copier {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Copier{host: h, opts: opts, logger: logger}
	c.machine = state.NewMachine(func(from, to state.Status) {
		logger.Debug("clipboard transition", zap.String("from", string(from)), zap.String("to", string(to)))
		if opts.OnTransition != nil {
			opts.OnTransition(from, to)
		}
	})
	return c
}

// Write copies text. A rejected asynchronous write is final: the legacy path
// is only taken when the asynchronous channel is absent, never as a retry.
func (c *Copier) Write(ctx context.Context, text string) error {
	c.stopTimer()
	gen := c.machine.Begin()

	caps := host.Probe(c.host)
	if caps.Clipboard {
		if err := caps.Navigator.Clipboard().WriteText(ctx, text); err != nil {
			return c.fail(gen, errors.NewClipboardFailed(err))
		}
		c.succeed(gen)
		return nil
	}

	doc := c.documentOf()
	if doc == nil {
		return c.fail(gen, errors.NewNoChannel("clipboard is not available in this host"))
	}
	legacyCopy(doc, text)
	c.succeed(gen)
	return nil
}

// legacyCopy runs the selection-copy sequence. The copy command has no
// reliable failure signal, so its result is ignored.
func legacyCopy(doc host.Document, text string) {
	carrier := doc.CreateTextCarrier()
	defer carrier.Remove()
	carrier.SetText(text)
	carrier.Select()
	_ = doc.ExecCopy()
}

func (c *Copier) documentOf() host.Document {
	if c.host == nil {
		return nil
	}
	return c.host.Document()
}

func (c *Copier) succeed(gen uint64) {
	if !c.machine.Succeed(gen) {
		return
	}
	if c.opts.Timeout > 0 {
		c.armTimer(gen)
	}
	if c.opts.OnSuccess != nil {
		c.opts.OnSuccess()
	}
}

func (c *Copier) fail(gen uint64, err *errors.HandoffError) error {
	c.machine.Fail(gen, err)
	c.logger.Debug("clipboard write failed", zap.Error(err))
	if c.opts.OnError != nil {
		c.opts.OnError(err)
	}
	return err
}

// armTimer replaces any pending timer with one that returns gen to idle.
func (c *Copier) armTimer(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = c.opts.Clock.AfterFunc(c.opts.Timeout, func() {
		c.machine.ResetIf(gen)
	})
}

func (c *Copier) stopTimer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// CanShare reports whether the native share channel exists and, when data is
// given and the host can validate payloads, whether it accepts data.
func (c *Copier) CanShare(data *host.ShareData) bool {
	return CanShareWith(host.Probe(c.host), data)
}

// CanShareWith is CanShare against an existing capability snapshot.
func CanShareWith(caps host.Capabilities, data *host.ShareData) bool {
	if !caps.NativeShare {
		return false
	}
	if data == nil {
		return true
	}
	if caps.NativeCanShare {
		ok, err := caps.Navigator.CanShare()(*data)
		if err != nil {
			return false
		}
		return ok
	}
	return true
}

// Reset returns to idle and cancels the pending timer.
func (c *Copier) Reset() {
	c.stopTimer()
	c.machine.Reset()
}

// Status returns the current status.
func (c *Copier) Status() state.Status { return c.machine.Status() }

// Err returns the last write error.
func (c *Copier) Err() error { return c.machine.Err() }

// IsSharing reports whether a write is in flight.
func (c *Copier) IsSharing() bool { return c.machine.IsSharing() }
