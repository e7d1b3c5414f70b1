package web

import (
	"sync"
	"time"

	"github.com/hpungsan/handoff/internal/clock"
	"github.com/hpungsan/handoff/internal/host"
)

// navigation is one Location call made by the opener against a response.
type navigation struct {
	url    string
	newTab bool
}

// responseHost is a host.Host backed by one HTTP request. It reports the
// request's user agent and records navigations so the handler can turn them
// into a redirect or a bounce page. It has no share or clipboard channel.
type responseHost struct {
	ua string

	mu   sync.Mutex
	navs []navigation
}

func (h *responseHost) Navigator() host.Navigator { return requestNavigator{ua: h.ua} }
func (h *responseHost) Document() host.Document { return nil }
func (h *responseHost) Location() host.Location { return responseLocation{h: h} }

func (h *responseHost) navigations() []navigation {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]navigation, len(h.navs))
	copy(out, h.navs)
	return out
}

type requestNavigator struct{ ua string }

func (n requestNavigator) UserAgent() string { return n.ua }
func (requestNavigator) Share() host.ShareFunc { return nil }
func (requestNavigator) CanShare() host.CanShareFunc { return nil }
func (requestNavigator) Clipboard() host.Clipboard { return nil }

type responseLocation struct{ h *responseHost }

func (l responseLocation) Assign(url string) error {
	l.h.mu.Lock()
	l.h.navs = append(l.h.navs, navigation{url: url})
	l.h.mu.Unlock()
	return nil
}

func (l responseLocation) Open(url, target, _ string) error {
	l.h.mu.Lock()
	l.h.navs = append(l.h.navs, navigation{url: url, newTab: target != "" && target != "_self"})
	l.h.mu.Unlock()
	return nil
}

// deferredClock collects scheduled callbacks instead of running them. The
// handler replays them to learn what the browser should do later.
type deferredClock struct {
	mu      sync.Mutex
	pending []*deferredTimer
}

type deferredTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
}

func (t *deferredTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (c *deferredClock) Now() time.Time { return time.Now() }

func (c *deferredClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &deferredTimer{delay: d, fn: f}
	c.pending = append(c.pending, t)
	return t
}

// drain runs every live callback and returns the longest delay among them.
func (c *deferredClock) drain() (time.Duration, bool) {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	var longest time.Duration
	fired := false
	for _, t := range pending {
		if t.stopped {
			continue
		}
		t.stopped = true
		t.fn()
		fired = true
		if t.delay > longest {
			longest = t.delay
		}
	}
	return longest, fired
}
