package host

// Capabilities is a snapshot of which channels the host offers.
type Capabilities struct {
	NativeShare    bool      `json:"native_share"`
	NativeCanShare bool      `json:"native_can_share"`
	Clipboard      bool      `json:"clipboard"`
	Navigator      Navigator `json:"-"`
}

// Probe inspects h. It is recomputed on every call because capabilities can
// change between calls (a clipboard permission can be revoked, a helper binary
// removed). A nil host reports nothing available.
func Probe(h Host) Capabilities {
	if h == nil {
		return Capabilities{}
	}
	nav := h.Navigator()
	if nav == nil {
		return Capabilities{}
	}
	return Capabilities{
		NativeShare:    nav.Share() != nil,
		NativeCanShare: nav.CanShare() != nil,
		Clipboard:      nav.Clipboard() != nil,
		Navigator:      nav,
	}
}

// UserAgent returns the host's user agent, or "" when there is no navigator.
func UserAgent(h Host) string {
	if h == nil {
		return ""
	}
	nav := h.Navigator()
	if nav == nil {
		return ""
	}
	return nav.UserAgent()
}
