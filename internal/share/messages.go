package share

import (
	"go.uber.org/zap"

	"github.com/hpungsan/handoff/internal/host"
	"github.com/hpungsan/handoff/internal/social"
)

// Default toast messages.
const (
	DefaultSuccessMessage        = "Shared successfully"
	DefaultFallbackCopiedMessage = "Copied to clipboard"
	DefaultSocialManualMessage   = "Open this link to share"
)

// Toast receives user-facing notifications. Any hook may be nil.
type Toast struct {
	Success func(msg string)
	Error   func(msg string)
	// Info fires when OpenSocialShare could not open the share URL.
	Info func(msg string)
}

// Messages overrides toast text. The Func variants win over the plain
// strings when both are set.
type Messages struct {
	Success            string
	SuccessFunc        func(method Method, data host.ShareData) string
	FallbackCopied     string
	FallbackCopiedFunc func(data host.ShareData) string
	Error              func(err error) string
	SocialManualFunc   func(p social.Platform, href string) string
}

func (m Messages) success(method Method, data host.ShareData) string {
	if m.SuccessFunc != nil {
		return m.SuccessFunc(method, data)
	}
	if m.Success != "" {
		return m.Success
	}
	return DefaultSuccessMessage
}

func (m Messages) fallbackCopied(data host.ShareData) string {
	if m.FallbackCopiedFunc != nil {
		return m.FallbackCopiedFunc(data)
	}
	if m.FallbackCopied != "" {
		return m.FallbackCopied
	}
	return DefaultFallbackCopiedMessage
}

func (m Messages) socialManual(p social.Platform, href string) string {
	if m.SocialManualFunc != nil {
		return m.SocialManualFunc(p, href)
	}
	return DefaultSocialManualMessage + ": " + href
}

func (m Messages) failure(err error) string {
	if m.Error != nil {
		return m.Error(err)
	}
	return err.Error()
}

// observe runs a notification hook. Hooks are observers: a panicking hook is
// logged and swallowed so it cannot change the share result.
func observe(logger *zap.Logger, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("share hook panicked", zap.String("hook", name), zap.Any("panic", r))
		}
	}()
	fn()
}
