package share

import (
	"go.uber.org/zap"

	"github.com/hpungsan/handoff/internal/deeplink"
	"github.com/hpungsan/handoff/internal/host"
	"github.com/hpungsan/handoff/internal/platform"
	"github.com/hpungsan/handoff/internal/social"
)

// Window features used when opening a social share endpoint.
const (
	DefaultSocialTarget = "_blank"
	socialFeatures      = "noopener,noreferrer"
)

// SocialURL builds the web share URL for p.
func (d *Dispatcher) SocialURL(p social.Platform, params social.Params) string {
	return social.BuildURL(p, params)
}

// OpenSocialShare builds the share URL for p and opens it in target (default
// "_blank"). The URL is returned even when the host cannot navigate; in that
// case the Info toast asks the user to open it themselves.
func (d *Dispatcher) OpenSocialShare(p social.Platform, params social.Params, target string) string {
	href := social.BuildURL(p, params)
	if target == "" {
		target = DefaultSocialTarget
	}

	var loc host.Location
	if d.host != nil {
		loc = d.host.Location()
	}
	if loc == nil {
		d.info(d.opts.Messages.socialManual(p, href))
		return href
	}
	if err := loc.Open(href, target, socialFeatures); err != nil {
		d.logger.Debug("social share navigation failed", zap.String("platform", string(p)), zap.Error(err))
		d.info(d.opts.Messages.socialManual(p, href))
	}
	return href
}

func (d *Dispatcher) info(msg string) {
	if d.opts.Toast.Info != nil {
		observe(d.logger, "toast_info", func() { d.opts.Toast.Info(msg) })
	}
}

// DetectOS classifies the dispatcher's host.
func (d *Dispatcher) DetectOS() platform.OS {
	return platform.DetectHostOS(d.host)
}

// DetectPlatform returns the deep-link platform tag for url.
func (d *Dispatcher) DetectPlatform(url string) deeplink.Platform {
	return platform.DetectPlatform(url)
}

// GenerateDeepLink resolves url to its native URI candidates.
func (d *Dispatcher) GenerateDeepLink(url string) deeplink.Result {
	return deeplink.Generate(url)
}
