// Package opener opens links through a native app when the device can route
// a deep link, falling back to the web URL after a delay.
//
// The web fallback is best-effort. Hosts give no reliable signal that an app
// handled the native URI, so once armed the fallback timer fires unless the
// opener is closed or another link is opened first. A user who lands in the
// app may therefore also get the web page.
package opener

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/handoff/internal/clock"
	"github.com/hpungsan/handoff/internal/deeplink"
	"github.com/hpungsan/handoff/internal/host"
	"github.com/hpungsan/handoff/internal/platform"
)

// DefaultFallbackDelay is the wait before navigating to the web URL.
const DefaultFallbackDelay = 2500 * time.Millisecond

// Options configures one Open call.
type Options struct {
	// FallbackToWeb arms the web fallback after a native attempt. Nil means true.
	FallbackToWeb *bool
	// FallbackDelay is the wait before the web fallback. Nil means
	// DefaultFallbackDelay; zero fires on the next tick.
	FallbackDelay *time.Duration
	// OpenInNewTab opens the web URL in a new window. Nil means true.
	OpenInNewTab *bool
}

func (o Options) fallbackToWeb() bool { return o.FallbackToWeb == nil || *o.FallbackToWeb }
func (o Options) openInNewTab() bool  { return o.OpenInNewTab == nil || *o.OpenInNewTab }

func (o Options) fallbackDelay() time.Duration {
	switch {
	case o.FallbackDelay == nil:
		return DefaultFallbackDelay
	case *o.FallbackDelay < 0:
		return 0
	}
	return *o.FallbackDelay
}

// Delay returns a pointer to d for Options.FallbackDelay.
func Delay(d time.Duration) *time.Duration { return &d }

// Plan is what Open does for a link on a given device.
type Plan struct {
	OS       platform.OS       `json:"os"`
	Platform deeplink.Platform `json:"platform"`
	WebURL   string            `json:"web_url"`
	// NativeURI is empty when the link is opened on the web directly.
	NativeURI       string `json:"native_uri,omitempty"`
	FallbackToWeb   bool   `json:"fallback_to_web"`
	FallbackDelayMS int64  `json:"fallback_delay_ms"`
	NewTab          bool   `json:"new_tab"`
}

// PlanFor decides how url is opened on os. Only mobile devices attempt a
// native URI, and only when the link resolves to one.
func PlanFor(url string, os platform.OS, opts Options) Plan {
	link := deeplink.Generate(url)
	p := Plan{
		OS:       os,
		Platform: link.Platform,
		WebURL:   link.WebURL,
		NewTab:   opts.openInNewTab(),
	}

	var native *string
	switch os {
	case platform.IOS:
		native = link.IOS
	case platform.Android:
		native = link.Android
	}
	if native == nil {
		return p
	}

	p.NativeURI = *native
	if opts.fallbackToWeb() {
		p.FallbackToWeb = true
		p.FallbackDelayMS = opts.fallbackDelay().Milliseconds()
	}
	return p
}

// Opener navigates a host. It owns at most one pending fallback timer.
type Opener struct {
	host   host.Host
	clock  clock.Clock
	logger *zap.Logger

	mu    sync.Mutex
	timer clock.Timer
}

// New creates an Opener. A nil clock means the real clock and a nil logger
// discards output.
func New(h host.Host, clk clock.Clock, logger *zap.Logger) *Opener {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Opener{host: h, clock: clk, logger: logger}
}

// Open navigates to url using the plan for the host's device. It cancels any
// fallback still pending from a previous call.
func (o *Opener) Open(url string, opts Options) Plan {
	o.Close()

	plan := PlanFor(url, platform.DetectHostOS(o.host), opts)
	if plan.NativeURI == "" {
		o.openWeb(plan)
		return plan
	}

	o.navigate("native", func(loc host.Location) error { return loc.Assign(plan.NativeURI) })
	if plan.FallbackToWeb {
		o.arm(plan)
	}
	return plan
}

func (o *Opener) arm(plan Plan) {
	o.mu.Lock()
	defer o.mu.Unlock()

	var t clock.Timer
	t = o.clock.AfterFunc(time.Duration(plan.FallbackDelayMS)*time.Millisecond, func() {
		o.mu.Lock()
		if o.timer != t {
			o.mu.Unlock()
			return
		}
		o.timer = nil
		o.mu.Unlock()

		o.logger.Debug("web fallback fired", zap.String("url", plan.WebURL))
		o.openWeb(plan)
	})
	o.timer = t
}

func (o *Opener) openWeb(plan Plan) {
	o.navigate("web", func(loc host.Location) error {
		if plan.NewTab {
			return loc.Open(plan.WebURL, "_blank", "")
		}
		return loc.Assign(plan.WebURL)
	})
}

func (o *Opener) navigate(kind string, fn func(host.Location) error) {
	if o.host == nil {
		return
	}
	loc := o.host.Location()
	if loc == nil {
		o.logger.Debug("host cannot navigate", zap.String("kind", kind))
		return
	}
	if err := fn(loc); err != nil {
		o.logger.Debug("navigation failed", zap.String("kind", kind), zap.Error(err))
	}
}

// Close cancels a pending web fallback.
func (o *Opener) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
}
