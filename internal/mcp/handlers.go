package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/hpungsan/handoff/internal/config"
	"github.com/hpungsan/handoff/internal/deeplink"
	"github.com/hpungsan/handoff/internal/errors"
	"github.com/hpungsan/handoff/internal/host"
	"github.com/hpungsan/handoff/internal/opener"
	"github.com/hpungsan/handoff/internal/ops"
	"github.com/hpungsan/handoff/internal/platform"
	"github.com/hpungsan/handoff/internal/share"
	"github.com/hpungsan/handoff/internal/social"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	host     host.Host
	logger   *zap.Logger
	opener   *opener.Opener
	recorder *ops.Recorder

	// shareMu serializes share calls; the dispatcher expects one at a time.
	shareMu    sync.Mutex
	dispatcher *share.Dispatcher
	toast      string
}

// NewHandlers creates a new Handlers instance. The dispatcher and opener
// live as long as the handlers, so a shared id and a pending web fallback
// survive between tool calls.
func NewHandlers(db *sql.DB, cfg *config.Config, h host.Host, logger *zap.Logger) (*Handlers, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	handlers := &Handlers{
		db:       db,
		cfg:      cfg,
		host:     h,
		logger:   logger,
		opener:   opener.New(h, nil, logger),
		recorder: &ops.Recorder{Logger: logger},
	}
	if config.BoolValue(cfg.HistoryEnabled, true) {
		handlers.recorder.DB = db
	}

	d, err := ops.NewDispatcher(h, cfg, share.Options{
		Logger: logger,
		Toast: share.Toast{
			Success: func(msg string) { handlers.toast = msg },
			Error:   func(msg string) { handlers.toast = msg },
		},
	})
	if err != nil {
		return nil, err
	}
	handlers.dispatcher = d
	return handlers, nil
}

// Request types for each tool

// URLRequest represents the arguments for tools taking only a URL.
type URLRequest struct {
	URL string `json:"url"`
}

// DetectOSRequest represents the arguments for share_detect_os.
type DetectOSRequest struct {
	UserAgent *string `json:"user_agent,omitempty"`
}

// SocialURLRequest represents the arguments for share_social_url.
type SocialURLRequest struct {
	Platform string   `json:"platform"`
	URL      string   `json:"url,omitempty"`
	Title    string   `json:"title,omitempty"`
	Text     string   `json:"text,omitempty"`
	Via      string   `json:"via,omitempty"`
	Hashtags []string `json:"hashtags,omitempty"`
}

// OpenLinkRequest represents the arguments for share_open_link.
type OpenLinkRequest struct {
	URL             string `json:"url"`
	FallbackToWeb   *bool  `json:"fallback_to_web,omitempty"`
	FallbackDelayMS *int   `json:"fallback_delay_ms,omitempty"`
	OpenInNewTab    *bool  `json:"open_in_new_tab,omitempty"`
	DryRun          bool   `json:"dry_run,omitempty"`
}

// SendRequest represents the arguments for share_send.
type SendRequest struct {
	URL   string `json:"url,omitempty"`
	Title string `json:"title,omitempty"`
	Text  string `json:"text,omitempty"`
	ID    string `json:"id,omitempty"`
}

// CopyRequest represents the arguments for share_copy.
type CopyRequest struct {
	Text string `json:"text"`
}

// HistoryListRequest represents the arguments for history_list.
type HistoryListRequest struct {
	Platform string `json:"platform,omitempty"`
	OK       *bool  `json:"ok,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// HistoryFetchRequest represents the arguments for history_fetch.
type HistoryFetchRequest struct {
	ID string `json:"id"`
}

// HistoryPurgeRequest represents the arguments for history_purge.
type HistoryPurgeRequest struct {
	OlderThanDays *int `json:"older_than_days,omitempty"`
}

// Response types

// DetectPlatformResponse is returned by share_detect_platform.
type DetectPlatformResponse struct {
	URL      string            `json:"url"`
	Platform deeplink.Platform `json:"platform"`
}

// DetectOSResponse is returned by share_detect_os.
type DetectOSResponse struct {
	OS        platform.OS `json:"os"`
	UserAgent string      `json:"user_agent"`
}

// SocialURLResponse is returned by share_social_url.
type SocialURLResponse struct {
	Platform social.Platform `json:"platform"`
	URL      string          `json:"url"`
	Fields   []social.Field  `json:"fields"`
}

// SendResponse is returned by share_send on success.
type SendResponse struct {
	OK      bool         `json:"ok"`
	Method  share.Method `json:"method"`
	Message string       `json:"message,omitempty"`
	EventID string       `json:"event_id,omitempty"`
}

// Handler implementations

// HandleDeepLink handles the share_deeplink tool call.
func (h *Handlers) HandleDeepLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[URLRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return successResult(deeplink.Generate(input.URL))
}

// HandleDetectPlatform handles the share_detect_platform tool call.
func (h *Handlers) HandleDetectPlatform(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[URLRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return successResult(DetectPlatformResponse{
		URL:      input.URL,
		Platform: platform.DetectPlatform(input.URL),
	})
}

// HandleDetectOS handles the share_detect_os tool call.
func (h *Handlers) HandleDetectOS(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DetectOSRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	ua := host.UserAgent(h.host)
	if input.UserAgent != nil {
		ua = *input.UserAgent
	}
	return successResult(DetectOSResponse{OS: platform.DetectOS(ua), UserAgent: ua})
}

// HandleSocialURL handles the share_social_url tool call.
func (h *Handlers) HandleSocialURL(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SocialURLRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	p := social.Platform(strings.ToLower(strings.TrimSpace(input.Platform)))
	if p == "" {
		return errorResult(errors.NewInvalidRequest("platform is required")), nil
	}

	return successResult(SocialURLResponse{
		Platform: p,
		URL: h.dispatcher.SocialURL(p, social.Params{
			URL:      input.URL,
			Title:    input.Title,
			Text:     input.Text,
			Via:      input.Via,
			Hashtags: input.Hashtags,
		}),
		Fields: social.Fields(p),
	})
}

// HandleSocialPlatforms handles the share_social_platforms tool call.
func (h *Handlers) HandleSocialPlatforms(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(map[string]any{"platforms": social.Catalog()})
}

// HandleOpenLink handles the share_open_link tool call.
func (h *Handlers) HandleOpenLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[OpenLinkRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if strings.TrimSpace(input.URL) == "" {
		return errorResult(errors.NewInvalidRequest("url is required")), nil
	}

	opts := ops.OpenOptions(h.cfg)
	if input.FallbackToWeb != nil {
		opts.FallbackToWeb = input.FallbackToWeb
	}
	if input.FallbackDelayMS != nil {
		if *input.FallbackDelayMS < 0 {
			return errorResult(errors.NewInvalidRequest("fallback_delay_ms must be >= 0")), nil
		}
		opts.FallbackDelay = opener.Delay(time.Duration(*input.FallbackDelayMS) * time.Millisecond)
	}
	if input.OpenInNewTab != nil {
		opts.OpenInNewTab = input.OpenInNewTab
	}

	if input.DryRun {
		return successResult(opener.PlanFor(input.URL, platform.DetectHostOS(h.host), opts))
	}
	return successResult(h.opener.Open(input.URL, opts))
}

// HandleSend handles the share_send tool call.
func (h *Handlers) HandleSend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SendRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	payload := share.Record{URL: input.URL, Title: input.Title, Text: input.Text}
	if payload.Normalize().IsEmpty() {
		return errorResult(errors.NewInvalidRequest("one of url, title, or text is required")), nil
	}

	h.shareMu.Lock()
	defer h.shareMu.Unlock()
	h.toast = ""

	res, event := h.recorder.Share(ctx, h.dispatcher, payload, share.ShareOptions{ID: input.ID})
	if !res.OK {
		return errorResult(res.Err), nil
	}

	out := SendResponse{OK: true, Method: res.Method, Message: h.toast}
	if event != nil {
		out.EventID = event.ID
	}
	return successResult(out)
}

// HandleCopy handles the share_copy tool call.
func (h *Handlers) HandleCopy(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CopyRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	h.shareMu.Lock()
	defer h.shareMu.Unlock()

	if err := h.dispatcher.CopyToClipboard(ctx, input.Text); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"copied": true, "chars": len([]rune(input.Text))})
}

// HandleHistoryList handles the history_list tool call.
func (h *Handlers) HandleHistoryList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HistoryListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.List(ctx, h.db, ops.ListInput{
		Platform: input.Platform,
		OK:       input.OK,
		Limit:    input.Limit,
		Offset:   input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleHistoryFetch handles the history_fetch tool call.
func (h *Handlers) HandleHistoryFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HistoryFetchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Fetch(ctx, h.db, input.ID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleHistoryPurge handles the history_purge tool call.
func (h *Handlers) HandleHistoryPurge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HistoryPurgeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Purge(ctx, h.db, ops.PurgeInput{OlderThanDays: input.OlderThanDays})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// errorResult creates an MCP error result from an error.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var hErr *errors.HandoffError
	if stderrors.As(err, &hErr) {
		message := hErr.Message
		if err != error(hErr) {
			// Keep the wrapping context.
			message = err.Error()
		}
		errorObj := map[string]any{
			"code":    hErr.Code,
			"message": message,
			"status":  hErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if hErr.Code != errors.ErrInternal && hErr.Details != nil {
			errorObj["details"] = hErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
