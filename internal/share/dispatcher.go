// Package share hands a payload to the best available channel: the host's
// native share sheet when it is preferred and accepts the payload, otherwise
// the configured fallback.
package share

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/handoff/internal/clipboard"
	"github.com/hpungsan/handoff/internal/clock"
	"github.com/hpungsan/handoff/internal/errors"
	"github.com/hpungsan/handoff/internal/host"
	"github.com/hpungsan/handoff/internal/state"
)

// DefaultTimeout is how long a shared id stays visible after success.
const DefaultTimeout = 2000 * time.Millisecond

// Method is the channel that carried a successful share.
type Method string

const (
	MethodNative   Method = "native"
	MethodFallback Method = "fallback"
)

// Result is the outcome of one Share call.
type Result struct {
	OK     bool   `json:"ok"`
	Method Method `json:"method,omitempty"`
	Err    error  `json:"-"`
}

// SuccessInfo is passed to Options.OnSuccess.
type SuccessInfo struct {
	ID     string         `json:"id,omitempty"`
	Method Method         `json:"method"`
	Data   host.ShareData `json:"data"`
}

// ShareOptions are per-call options.
type ShareOptions struct {
	// ID is remembered for Options.Timeout after a successful share.
	ID string
}

// Options configures a Dispatcher.
type Options struct {
	// Timeout bounds how long a shared id is remembered. Zero means
	// DefaultTimeout.
	Timeout time.Duration
	// PreferNative tries the native channel first. Nil means true.
	PreferNative *bool
	Fallback     Fallback

	OnSuccess    func(SuccessInfo)
	OnError      func(error)
	OnTransition func(from, to state.Status)
	Toast        Toast
	Messages     Messages

	Clock  clock.Clock
	Logger *zap.Logger
}

// Dispatcher drives share calls against one host. Callers are expected to
// issue Share calls one at a time; a call that overlaps an in-flight one
// supersedes it in the status machine.
type Dispatcher struct {
	host    host.Host
	opts    Options
	machine *state.Machine
	copier  *clipboard.Copier
	logger  *zap.Logger

	mu       sync.Mutex
	sharedID string
	idSeq    uint64
	timer    clock.Timer
}

// New creates a Dispatcher bound to h.
func New(h host.Host, opts Options) *Dispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &Dispatcher{host: h, opts: opts, logger: logger}
	d.machine = state.NewMachine(func(from, to state.Status) {
		logger.Debug("share transition", zap.String("from", string(from)), zap.String("to", string(to)))
		if opts.OnTransition != nil {
			opts.OnTransition(from, to)
		}
	})
	// The dispatcher reports clipboard outcomes itself.
	d.copier = clipboard.New(h, clipboard.Options{Clock: opts.Clock, Logger: logger})
	return d
}

func (d *Dispatcher) preferNative() bool {
	return d.opts.PreferNative == nil || *d.opts.PreferNative
}

// Share normalizes p and hands it to a channel. Failures are terminal for the
// call: a rejected native share is not retried through the fallback.
func (d *Dispatcher) Share(ctx context.Context, p Payload, so ShareOptions) Result {
	data := normalize(p)
	gen := d.machine.Begin()

	method, err := d.dispatch(ctx, data)
	if err != nil {
		d.failed(gen, err)
		return Result{OK: false, Err: err}
	}
	d.succeeded(gen, method, data, so.ID)
	return Result{OK: true, Method: method}
}

// HandleShare is Share for callers that hold the fields separately.
func (d *Dispatcher) HandleShare(ctx context.Context, url, title, text, id string) Result {
	return d.Share(ctx, Record{URL: url, Title: title, Text: text}, ShareOptions{ID: id})
}

func (d *Dispatcher) dispatch(ctx context.Context, data host.ShareData) (Method, error) {
	caps := host.Probe(d.host)
	if d.preferNative() && clipboard.CanShareWith(caps, &data) {
		if err := caps.Navigator.Share()(ctx, data); err != nil {
			return MethodNative, errors.NewChannelFailed("native", err)
		}
		return MethodNative, nil
	}

	switch d.opts.Fallback.kind {
	case kindClipboard:
		if err := d.copier.Write(ctx, clipboardText(data)); err != nil {
			return MethodFallback, err
		}
		return MethodFallback, nil
	case kindNone:
		return MethodFallback, nil
	case kindCustom:
		if d.opts.Fallback.handler == nil {
			break
		}
		if err := d.opts.Fallback.handler(ctx, data); err != nil {
			return MethodFallback, err
		}
		return MethodFallback, nil
	}
	return "", errors.NewNoChannel("native share not supported and no fallback provided")
}

func (d *Dispatcher) succeeded(gen uint64, method Method, data host.ShareData, id string) {
	if d.machine.Succeed(gen) && id != "" {
		d.rememberID(id)
	}

	if d.opts.OnSuccess != nil {
		observe(d.logger, "on_success", func() {
			d.opts.OnSuccess(SuccessInfo{ID: id, Method: method, Data: data})
		})
	}
	if d.opts.Toast.Success != nil {
		msg := d.opts.Messages.success(method, data)
		if method == MethodFallback && d.opts.Fallback.kind == kindClipboard {
			msg = d.opts.Messages.fallbackCopied(data)
		}
		observe(d.logger, "toast_success", func() { d.opts.Toast.Success(msg) })
	}
}

func (d *Dispatcher) failed(gen uint64, err error) {
	d.machine.Fail(gen, err)
	d.logger.Debug("share failed", zap.Error(err))

	if d.opts.OnError != nil {
		observe(d.logger, "on_error", func() { d.opts.OnError(err) })
	}
	if d.opts.Toast.Error != nil {
		msg := d.opts.Messages.failure(err)
		observe(d.logger, "toast_error", func() { d.opts.Toast.Error(msg) })
	}
}

// rememberID shows id until the timeout elapses. Arming cancels any
// outstanding timer, so at most one is alive per dispatcher.
func (d *Dispatcher) rememberID(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.idSeq++
	seq := d.idSeq
	d.sharedID = id
	d.timer = d.opts.Clock.AfterFunc(d.opts.Timeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.idSeq != seq {
			return
		}
		d.sharedID = ""
		d.timer = nil
		d.logger.Debug("shared id expired", zap.String("id", id))
	})
}

// SharedID returns the id of the last successful share while it is still
// within its timeout.
func (d *Dispatcher) SharedID() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sharedID, d.sharedID != ""
}

// Reset returns to idle, forgets the shared id, and cancels pending timers.
// It is idempotent.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.idSeq++
	d.sharedID = ""
	d.mu.Unlock()

	d.machine.Reset()
	d.copier.Reset()
}

// CopyToClipboard copies text directly, bypassing the native channel.
func (d *Dispatcher) CopyToClipboard(ctx context.Context, text string) error {
	return d.copier.Write(ctx, text)
}

// CanShare reports whether the native channel would accept data.
func (d *Dispatcher) CanShare(data *host.ShareData) bool {
	return d.copier.CanShare(data)
}

// Support describes the channels available right now.
type Support struct {
	WebShare      bool `json:"web_share"`
	CanShareFiles bool `json:"can_share_files"`
	Clipboard     bool `json:"clipboard"`
}

// Support probes the host.
func (d *Dispatcher) Support() Support {
	caps := host.Probe(d.host)
	return Support{
		WebShare:      caps.NativeShare,
		CanShareFiles: caps.NativeCanShare,
		Clipboard:     caps.Clipboard,
	}
}

// Status returns the current status.
func (d *Dispatcher) Status() state.Status { return d.machine.Status() }

// Err returns the error of the last failed share.
func (d *Dispatcher) Err() error { return d.machine.Err() }

// IsSharing reports whether a share is in flight.
func (d *Dispatcher) IsSharing() bool { return d.machine.IsSharing() }
