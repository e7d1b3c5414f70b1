package share

import (
	"context"
	"fmt"
	"strings"

	"github.com/hpungsan/handoff/internal/host"
)

// Handler is a caller-supplied fallback channel.
type Handler func(ctx context.Context, data host.ShareData) error

type fallbackKind int

const (
	kindClipboard fallbackKind = iota
	kindNone
	kindCustom
)

// Fallback selects what Share does when the native channel is unavailable,
// declined, or not preferred. The zero value is the clipboard fallback.
type Fallback struct {
	kind    fallbackKind
	handler Handler
}

// ClipboardFallback copies the payload's text (or url) to the clipboard.
func ClipboardFallback() Fallback { return Fallback{kind: kindClipboard} }

// NoFallback succeeds without doing anything.
func NoFallback() Fallback { return Fallback{kind: kindNone} }

// CustomFallback hands the normalized payload to h. A nil h leaves Share
// with no viable channel.
func CustomFallback(h Handler) Fallback { return Fallback{kind: kindCustom, handler: h} }

// String returns the config name of f.
func (f Fallback) String() string {
	switch f.kind {
	case kindNone:
		return "none"
	case kindCustom:
		return "custom"
	default:
		return "clipboard"
	}
}

// ParseFallback maps a config value to a Fallback. Custom handlers can only
// be supplied in code.
func ParseFallback(s string) (Fallback, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "clipboard":
		return ClipboardFallback(), nil
	case "none", "no-op", "noop":
		return NoFallback(), nil
	default:
		return Fallback{}, fmt.Errorf("unknown fallback %q (want clipboard or none)", s)
	}
}
