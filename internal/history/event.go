// Package history defines the share-event record kept in the local database.
//
// An event captures the outcome of one share call. The caller's transient
// shared id is not stored; it only lives in the dispatcher.
package history

// Event is one recorded share outcome.
type Event struct {
	// ID is a ULID assigned when the event is recorded
	ID string `json:"id"`

	// Method is "native" or "fallback", empty when the share failed
	Method string `json:"method,omitempty"`

	// OK reports whether the share succeeded
	OK bool `json:"ok"`

	// ErrorCode is the handoff error code of a failed share
	ErrorCode string `json:"error_code,omitempty"`

	// ErrorMessage is the failure text of a failed share
	ErrorMessage string `json:"error_message,omitempty"`

	URL   string `json:"url,omitempty"`
	Title string `json:"title,omitempty"`

	// Platform is the deep-link platform tag detected for URL
	Platform string `json:"platform"`

	// CreatedAt is the Unix timestamp of the share
	CreatedAt int64 `json:"created_at"`
}
