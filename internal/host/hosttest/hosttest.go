// Package hosttest provides a scriptable in-memory host for tests.
package hosttest

import (
	"context"
	"sync"

	"github.com/hpungsan/handoff/internal/host"
)

// Navigation records one call on the fake Location.
type Navigation struct {
	// Kind is "assign" or "open".
	Kind     string
	URL      string
	Target   string
	Features string
}

// Host is a fake host. Leave a func field nil to make that capability
// absent. Set NoNavigator/NoDocument to drop whole surfaces.
type Host struct {
	UA          string
	ShareFn     host.ShareFunc
	CanShareFn  host.CanShareFunc
	ClipboardFn func(ctx context.Context, text string) error
	NoNavigator bool
	NoDocument  bool

	mu          sync.Mutex
	shared      []host.ShareData
	written     []string
	legacy      []string
	selection   *string
	removed     int
	navigations []Navigation
}

// Navigator returns the fake navigator, or nil when NoNavigator is set.
func (h *Host) Navigator() host.Navigator {
	if h.NoNavigator {
		return nil
	}
	return navigator{h: h}
}

// Document returns the fake document, or nil when NoDocument is set.
func (h *Host) Document() host.Document {
	if h.NoDocument {
		return nil
	}
	return document{h: h}
}

// Location returns a recording location.
func (h *Host) Location() host.Location {
	return location{h: h}
}

// Shared returns the payloads passed to the native share channel.
func (h *Host) Shared() []host.ShareData {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]host.ShareData(nil), h.shared...)
}

// Written returns the texts written through the async clipboard.
func (h *Host) Written() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.written...)
}

// LegacyCopied returns the texts copied through the document carrier.
func (h *Host) LegacyCopied() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.legacy...)
}

// Navigations returns every navigation in call order.
func (h *Host) Navigations() []Navigation {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Navigation(nil), h.navigations...)
}

type navigator struct{ h *Host }

func (n navigator) UserAgent() string { return n.h.UA }

func (n navigator) Share() host.ShareFunc {
	if n.h.ShareFn == nil {
		return nil
	}
	return func(ctx context.Context, data host.ShareData) error {
		n.h.mu.Lock()
		n.h.shared = append(n.h.shared, data)
		n.h.mu.Unlock()
		return n.h.ShareFn(ctx, data)
	}
}

func (n navigator) CanShare() host.CanShareFunc { return n.h.CanShareFn }

func (n navigator) Clipboard() host.Clipboard {
	if n.h.ClipboardFn == nil {
		return nil
	}
	return clipboard{h: n.h}
}

type clipboard struct{ h *Host }

func (c clipboard) WriteText(ctx context.Context, text string) error {
	if err := c.h.ClipboardFn(ctx, text); err != nil {
		return err
	}
	c.h.mu.Lock()
	c.h.written = append(c.h.written, text)
	c.h.mu.Unlock()
	return nil
}

type document struct{ h *Host }

func (d document) CreateTextCarrier() host.TextCarrier { return &carrier{h: d.h} }

func (d document) ExecCopy() bool {
	d.h.mu.Lock()
	defer d.h.mu.Unlock()
	if d.h.selection == nil {
		return false
	}
	d.h.legacy = append(d.h.legacy, *d.h.selection)
	return true
}

type carrier struct {
	h    *Host
	text string
}

func (c *carrier) SetText(text string) { c.text = text }

func (c *carrier) Select() {
	c.h.mu.Lock()
	t := c.text
	c.h.selection = &t
	c.h.mu.Unlock()
}

func (c *carrier) Remove() {
	c.h.mu.Lock()
	c.h.selection = nil
	c.h.removed++
	c.h.mu.Unlock()
}

type location struct{ h *Host }

func (l location) Assign(url string) error {
	l.h.record(Navigation{Kind: "assign", URL: url})
	return nil
}

func (l location) Open(url, target, features string) error {
	l.h.record(Navigation{Kind: "open", URL: url, Target: target, Features: features})
	return nil
}

func (h *Host) record(n Navigation) {
	h.mu.Lock()
	h.navigations = append(h.navigations, n)
	h.mu.Unlock()
}

// CarriersRemoved reports how many legacy text carriers were cleaned up.
func (h *Host) CarriersRemoved() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.removed
}
