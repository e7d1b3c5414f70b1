// Package platform classifies the runtime device and the platform a URL
// belongs to.
package platform

import (
	"regexp"
	"strings"

	"github.com/hpungsan/handoff/internal/deeplink"
	"github.com/hpungsan/handoff/internal/host"
)

// OS is the device family.
type OS string

const (
	IOS     OS = "ios"
	Android OS = "android"
	Desktop OS = "desktop"
)

// IsMobile reports whether os can route native deep links.
func (os OS) IsMobile() bool {
	return os == IOS || os == Android
}

var (
	iosPattern     = regexp.MustCompile(`iphone|ipad|ipod`)
	androidPattern = regexp.MustCompile(`android`)
)

// DetectOS classifies a user agent string. Anything unrecognized, including
// the empty string, is Desktop.
func DetectOS(userAgent string) OS {
	ua := strings.ToLower(userAgent)
	switch {
	case iosPattern.MatchString(ua):
		return IOS
	case androidPattern.MatchString(ua):
		return Android
	default:
		return Desktop
	}
}

// DetectHostOS classifies h by its navigator's user agent. A host without a
// navigator is Desktop.
func DetectHostOS(h host.Host) OS {
	return DetectOS(host.UserAgent(h))
}

// DetectPlatform returns the deep-link platform tag for url.
func DetectPlatform(url string) deeplink.Platform {
	return deeplink.DetectPlatform(url)
}
