// Package host abstracts the environment a share is handed off to: the
// navigator with its optional share and clipboard channels, a document
// surface for the legacy copy path, and the location used for navigation.
//
// Every accessor may return nil. A nil value means the capability is absent
// in the current host, which callers treat as "route to a fallback", never as
// an error.
package host

import "context"

// File is an attachment offered to the native share channel.
type File struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type,omitempty"`
	Data     []byte `json:"-"`
}

// ShareData is the canonical share payload. All fields are optional.
type ShareData struct {
	URL   string `json:"url,omitempty"`
	Title string `json:"title,omitempty"`
	Text  string `json:"text,omitempty"`
	Files []File `json:"files,omitempty"`
}

// IsEmpty reports whether d carries nothing at all.
func (d ShareData) IsEmpty() bool {
	return d.URL == "" && d.Title == "" && d.Text == "" && len(d.Files) == 0
}

// ShareFunc invokes the native share sheet and blocks until it settles.
type ShareFunc func(ctx context.Context, data ShareData) error

// CanShareFunc asks the native channel whether it accepts data.
type CanShareFunc func(data ShareData) (bool, error)

// Clipboard is the asynchronous clipboard write channel.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// Navigator exposes the host's user agent and optional channels.
type Navigator interface {
	UserAgent() string
	Share() ShareFunc
	CanShare() CanShareFunc
	Clipboard() Clipboard
}

// TextCarrier is an off-screen editable text element.
type TextCarrier interface {
	SetText(text string)
	Select()
	Remove()
}

// Document is the surface behind the synchronous legacy copy path.
type Document interface {
	CreateTextCarrier() TextCarrier
	// ExecCopy issues the "copy selection" command. The result carries no
	// reliable failure signal.
	ExecCopy() bool
}

// Location performs navigation.
type Location interface {
	// Assign navigates the current context to url.
	Assign(url string) error
	// Open navigates a target context (e.g. "_blank") to url.
	Open(url, target, features string) error
}

// Host is the environment the engine runs in.
type Host interface {
	Navigator() Navigator
	Document() Document
	Location() Location
}

// Headless is a host with no interactive environment.
type Headless struct{}

func (Headless) Navigator() Navigator { return nil }
func (Headless) Document() Document { return nil }
func (Headless) Location() Location { return nil }
