// Package social builds web share-intent URLs for social networks.
//
// Each network's endpoint honors a fixed subset of Params. Fields outside that
// subset are dropped without error: widening what a network receives would
// change the external API surface.
package social

import (
	"net/url"
	"strings"
)

// Platform is a network that has a web share endpoint.
type Platform string

const (
	X         Platform = "x"
	Twitter   Platform = "twitter"
	Facebook  Platform = "facebook"
	LinkedIn  Platform = "linkedin"
	Reddit    Platform = "reddit"
	WhatsApp  Platform = "whatsapp"
	Telegram  Platform = "telegram"
	Email     Platform = "email"
	Instagram Platform = "instagram"
	Snapchat  Platform = "snapchat"
)

// Field names a member of Params.
type Field string

const (
	FieldURL      Field = "url"
	FieldTitle    Field = "title"
	FieldText     Field = "text"
	FieldVia      Field = "via"
	FieldHashtags Field = "hashtags"
)

// Params is the share content offered to a network.
type Params struct {
	URL      string   `json:"url"`
	Title    string   `json:"title,omitempty"`
	Text     string   `json:"text,omitempty"`
	Via      string   `json:"via,omitempty"`
	Hashtags []string `json:"hashtags,omitempty"`
}

type platformInfo struct {
	label  string
	fields []Field
}

var platforms = map[Platform]platformInfo{
	X:         {label: "X", fields: []Field{FieldURL, FieldText, FieldVia, FieldHashtags}},
	Twitter:   {label: "Twitter/X", fields: []Field{FieldURL, FieldText, FieldVia, FieldHashtags}},
	Facebook:  {label: "Facebook", fields: []Field{FieldURL}},
	LinkedIn:  {label: "LinkedIn", fields: []Field{FieldURL}},
	Reddit:    {label: "Reddit", fields: []Field{FieldURL, FieldTitle}},
	WhatsApp:  {label: "WhatsApp", fields: []Field{FieldURL, FieldText}},
	Telegram:  {label: "Telegram", fields: []Field{FieldURL, FieldText}},
	Email:     {label: "Email", fields: []Field{FieldTitle, FieldText, FieldURL}},
	Instagram: {label: "Instagram", fields: []Field{FieldURL}},
	Snapchat:  {label: "Snapchat", fields: []Field{FieldURL, FieldText}},
}

// DefaultOrder is the platform order of the share sheet.
var DefaultOrder = []Platform{
	WhatsApp, Telegram, Email, Twitter, Snapchat, Facebook, LinkedIn, Reddit,
}

// Platforms returns every supported platform in a stable order.
func Platforms() []Platform {
	return []Platform{X, Twitter, Facebook, LinkedIn, Reddit, WhatsApp, Telegram, Email, Instagram, Snapchat}
}

// Valid reports whether p is a supported platform.
func (p Platform) Valid() bool {
	_, ok := platforms[p]
	return ok
}

// Label returns the display name of p, or p itself when unknown.
func (p Platform) Label() string {
	if info, ok := platforms[p]; ok {
		return info.label
	}
	return string(p)
}

// Fields returns the Params fields the platform's endpoint honors.
// Instagram has no web share endpoint; only the plain URL survives.
func Fields(p Platform) []Field {
	info, ok := platforms[p]
	if !ok {
		return []Field{FieldURL}
	}
	out := make([]Field, len(info.fields))
	copy(out, info.fields)
	return out
}

// BuildURL returns the share URL for platform. Unknown platforms, and
// platforms without a web endpoint, get params.URL back unchanged.
func BuildURL(platform Platform, params Params) string {
	u := params.URL
	hash := strings.Join(params.Hashtags, ",")

	switch platform {
	case Twitter, X:
		var b strings.Builder
		b.WriteString("https://twitter.com/intent/tweet?url=")
		b.WriteString(enc(u))
		appendParam(&b, "text", params.Text)
		appendParam(&b, "via", params.Via)
		appendParam(&b, "hashtags", hash)
		return b.String()

	case Facebook:
		return "https://www.facebook.com/sharer/sharer.php?u=" + enc(u)

	case LinkedIn:
		return "https://www.linkedin.com/sharing/share-offsite/?url=" + enc(u)

	case Reddit:
		var b strings.Builder
		b.WriteString("https://www.reddit.com/submit?url=")
		b.WriteString(enc(u))
		appendParam(&b, "title", params.Title)
		return b.String()

	case WhatsApp:
		return "https://wa.me/?text=" + enc(joinNonEmpty(" ", params.Text, u))

	case Telegram:
		var b strings.Builder
		b.WriteString("https://t.me/share/url?url=")
		b.WriteString(enc(u))
		appendParam(&b, "text", params.Text)
		return b.String()

	case Email:
		return "mailto:?subject=" + enc(params.Title) + "&body=" + enc(joinNonEmpty("\n\n", params.Text, u))

	case Snapchat:
		var b strings.Builder
		b.WriteString("https://www.snapchat.com/share?")
		if u != "" {
			b.WriteString("link=")
			b.WriteString(enc(u))
			b.WriteString("&")
		}
		b.WriteString("message=")
		b.WriteString(enc(params.Text))
		return b.String()

	default:
		return u
	}
}

// appendParam writes &key=value when value is non-empty.
func appendParam(b *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	b.WriteString("&")
	b.WriteString(key)
	b.WriteString("=")
	b.WriteString(enc(value))
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// enc percent-encodes a query component, spaces as %20 rather than "+" so
// mailto bodies read correctly in mail clients.
func enc(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Info describes a platform for pickers and tool listings.
type Info struct {
	Platform   Platform `json:"platform"`
	Label      string   `json:"label"`
	Fields     []Field  `json:"fields"`
	ShareSheet bool     `json:"share_sheet"`
}

// Catalog lists every platform, share-sheet platforms first in DefaultOrder.
func Catalog() []Info {
	inSheet := make(map[Platform]bool, len(DefaultOrder))
	out := make([]Info, 0, len(platforms))
	for _, p := range DefaultOrder {
		inSheet[p] = true
		out = append(out, Info{Platform: p, Label: p.Label(), Fields: Fields(p), ShareSheet: true})
	}
	for _, p := range Platforms() {
		if !inSheet[p] {
			out = append(out, Info{Platform: p, Label: p.Label(), Fields: Fields(p)})
		}
	}
	return out
}
