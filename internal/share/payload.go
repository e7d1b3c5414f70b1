package share

import "github.com/hpungsan/handoff/internal/host"

// Payload is anything Share accepts. Both the host's native payload
// (host.ShareData) and a plain Record normalize to the same canonical shape.
type Payload interface {
	Normalize() host.ShareData
}

// Record is a plain share record, as decoded from a CLI flag set or a tool
// call. All fields are optional.
type Record struct {
	URL   string      `json:"url,omitempty"`
	Title string      `json:"title,omitempty"`
	Text  string      `json:"text,omitempty"`
	Files []host.File `json:"files,omitempty"`
}

// Normalize converts r to the canonical payload.
func (r Record) Normalize() host.ShareData {
	return Native(host.ShareData{URL: r.URL, Title: r.Title, Text: r.Text, Files: r.Files}).Normalize()
}

// Native adapts a host.ShareData to Payload.
type Native host.ShareData

// Normalize returns a copy whose Files slice is not shared with the caller.
func (n Native) Normalize() host.ShareData {
	d := host.ShareData(n)
	if len(d.Files) > 0 {
		d.Files = append([]host.File(nil), d.Files...)
	} else {
		d.Files = nil
	}
	return d
}

func normalize(p Payload) host.ShareData {
	if p == nil {
		return host.ShareData{}
	}
	return p.Normalize()
}

// clipboardText picks what the clipboard fallback copies: text, else url.
// An empty payload copies the empty string.
func clipboardText(d host.ShareData) string {
	if d.Text != "" {
		return d.Text
	}
	return d.URL
}
