package ops

import (
	"github.com/hpungsan/handoff/internal/config"
	"github.com/hpungsan/handoff/internal/errors"
	"github.com/hpungsan/handoff/internal/host"
	"github.com/hpungsan/handoff/internal/opener"
	"github.com/hpungsan/handoff/internal/share"
)

// NewDispatcher builds a dispatcher for h from cfg. Hooks, clock, and logger
// in base are kept; cfg supplies timeout, channel preference, fallback, and
// message text.
func NewDispatcher(h host.Host, cfg *config.Config, base share.Options) (*share.Dispatcher, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	fallback, err := share.ParseFallback(cfg.Fallback)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}

	opts := base
	opts.Timeout = cfg.ShareTimeout()
	opts.PreferNative = config.Bool(config.BoolValue(cfg.PreferNative, true))
	opts.Fallback = fallback
	if opts.Messages.Success == "" {
		opts.Messages.Success = cfg.Messages.Success
	}
	if opts.Messages.FallbackCopied == "" {
		opts.Messages.FallbackCopied = cfg.Messages.FallbackCopied
	}
	return share.New(h, opts), nil
}

// OpenOptions returns the link opener settings from cfg.
func OpenOptions(cfg *config.Config) opener.Options {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return opener.Options{
		FallbackToWeb: config.Bool(config.BoolValue(cfg.FallbackToWeb, true)),
		FallbackDelay: opener.Delay(cfg.FallbackDelay()),
		OpenInNewTab:  config.Bool(config.BoolValue(cfg.OpenInNewTab, true)),
	}
}
