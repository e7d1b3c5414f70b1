// Package deeplink maps web URLs of well-known platforms to the URIs that open
// the same content in the platform's native app.
package deeplink

import (
	"fmt"
	"regexp"
	"strings"
)

// Platform identifies the app a URL was recognized as belonging to.
type Platform string

const (
	YouTube         Platform = "youtube"
	YouTubeChannel  Platform = "youtube_channel"
	Instagram       Platform = "instagram"
	TikTok          Platform = "tiktok"
	LinkedIn        Platform = "linkedin"
	LinkedInCompany Platform = "linkedin_company"
	Twitter         Platform = "twitter"
	WhatsApp        Platform = "whatsapp"
	Telegram        Platform = "telegram"
	Facebook        Platform = "facebook"
	Spotify         Platform = "spotify"
	Unknown         Platform = "unknown"
)

// Platforms returns every tag Generate can produce, Unknown last.
func Platforms() []Platform {
	return []Platform{
		YouTube, YouTubeChannel, Instagram, TikTok, LinkedIn, LinkedInCompany,
		Twitter, WhatsApp, Telegram, Facebook, Spotify, Unknown,
	}
}

// Valid reports whether p is a member of the deep-link platform set.
func (p Platform) Valid() bool {
	for _, known := range Platforms() {
		if p == known {
			return true
		}
	}
	return false
}

// Result is the outcome of resolving one URL. IOS and Android are nil when
// the URL matched no rule.
type Result struct {
	WebURL   string   `json:"web_url"`
	IOS      *string  `json:"ios"`
	Android  *string  `json:"android"`
	Platform Platform `json:"platform"`
}

// HasNative reports whether any native URI was produced.
func (r Result) HasNative() bool {
	return r.IOS != nil || r.Android != nil
}

// rule is one row of the recognizer table. Templates take the values
// returned by extract, in order.
type rule struct {
	platform Platform
	pattern  *regexp.Regexp
	extract  func(m []string) []any
	ios      string
	android  string
}

// Host names are anchored to a scheme, subdomain dot, or string start so that
// short domains like x.com and t.me don't match inside longer hosts.
const hostStart = `(?:^|[/.])`

// rules is evaluated top to bottom; the first match wins.
var rules = []rule{
	{
		platform: YouTube,
		pattern:  regexp.MustCompile(hostStart + `youtube\.com/watch\?v=([^&]+)|` + hostStart + `youtu\.be/([^?]+)`),
		extract:  firstGroup,
		ios:      "vnd.youtube://watch?v=%s",
		android:  "intent://watch?v=%s#Intent;scheme=vnd.youtube;package=com.google.android.youtube;end",
	},
	{
		platform: YouTubeChannel,
		pattern:  regexp.MustCompile(hostStart + `youtube\.com/c/([^/?]+)|` + hostStart + `youtube\.com/@([^/?]+)`),
		extract:  firstGroup,
		ios:      "vnd.youtube://user/%s",
		android:  "intent://user/%s#Intent;scheme=vnd.youtube;package=com.google.android.youtube;end",
	},
	{
		platform: Instagram,
		pattern:  regexp.MustCompile(hostStart + `instagram\.com/([^/?]+)`),
		extract:  firstGroup,
		ios:      "instagram://user?username=%s",
		android:  "intent://instagram.com/%s#Intent;scheme=https;package=com.instagram.android;end",
	},
	{
		platform: TikTok,
		pattern:  regexp.MustCompile(hostStart + `vt\.tiktok\.com/([^/?]+)|` + hostStart + `tiktok\.com/@([^/?]+)`),
		extract: func(m []string) []any {
			if m[2] != "" {
				return []any{"@" + m[2]}
			}
			return []any{m[1]}
		},
		ios:     "tiktok://user/%s",
		android: "intent://tiktok.com/%s#Intent;scheme=https;package=com.ss.android.ugc.tiktok;end",
	},
	{
		platform: LinkedIn,
		pattern:  regexp.MustCompile(hostStart + `linkedin\.com/in/([^/?]+)`),
		extract:  firstGroup,
		ios:      "linkedin://in/%s",
		android:  "intent://in/%s#Intent;scheme=linkedin;package=com.linkedin.android;end",
	},
	{
		platform: LinkedInCompany,
		pattern:  regexp.MustCompile(hostStart + `linkedin\.com/company/([^/?]+)`),
		extract:  firstGroup,
		ios:      "linkedin://company/%s",
		android:  "intent://company/%s#Intent;scheme=linkedin;package=com.linkedin.android;end",
	},
	{
		platform: Twitter,
		pattern:  regexp.MustCompile(hostStart + `twitter\.com/([^/?]+)|` + hostStart + `x\.com/([^/?]+)`),
		extract:  firstGroup,
		ios:      "twitter://user?screen_name=%s",
		android:  "intent://X.com/%s#Intent;scheme=https;package=com.twitter.android;end",
	},
	{
		platform: Telegram,
		pattern:  regexp.MustCompile(hostStart + `t\.me/([^/?]+)`),
		extract:  firstGroup,
		ios:      "tg://resolve?domain=%s",
		android:  "intent://t.me/%s#Intent;scheme=https;package=org.telegram.messenger;end",
	},
	{
		platform: Facebook,
		pattern:  regexp.MustCompile(hostStart + `facebook\.com/([^/?]+)`),
		extract:  firstGroup,
		ios:      "fb://profile/%s",
		android:  "intent://facebook.com/%s#Intent;scheme=https;package=com.facebook.katana;end",
	},
	{
		platform: WhatsApp,
		pattern:  regexp.MustCompile(hostStart + `wa\.me/(\d+)`),
		extract:  firstGroup,
		ios:      "whatsapp://send?phone=%s",
		android:  "intent://send?phone=%s#Intent;scheme=whatsapp;package=com.whatsapp;end",
	},
	{
		platform: Spotify,
		pattern:  regexp.MustCompile(hostStart + `open\.spotify\.com/(track|album|playlist|artist)/([^/?]+)`),
		extract:  func(m []string) []any { return []any{m[1], m[2]} },
		ios:      "spotify:%s:%s",
		android:  "intent://open.spotify.com/%s/%s#Intent;scheme=https;package=com.spotify.music;end",
	},
}

// firstGroup returns the first non-empty capture group. Patterns with
// alternatives put the identifier in a different group per branch.
func firstGroup(m []string) []any {
	for _, g := range m[1:] {
		if g != "" {
			return []any{g}
		}
	}
	return []any{""}
}

// Generate resolves url against the recognizer table. It never fails: a URL
// that matches nothing yields Unknown with nil native URIs.
func Generate(url string) Result {
	webURL := strings.TrimSpace(url)

	for _, r := range rules {
		m := r.pattern.FindStringSubmatch(webURL)
		if m == nil {
			continue
		}
		args := r.extract(m)
		ios := fmt.Sprintf(r.ios, args...)
		android := fmt.Sprintf(r.android, args...)
		return Result{
			WebURL:   webURL,
			IOS:      &ios,
			Android:  &android,
			Platform: r.platform,
		}
	}

	return Result{WebURL: webURL, Platform: Unknown}
}

// DetectPlatform returns only the platform tag for url.
func DetectPlatform(url string) Platform {
	return Generate(url).Platform
}
