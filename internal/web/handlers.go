package web

import (
	"database/sql"
	"html/template"
	"net/http"
	neturl "net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/handoff/internal/config"
	"github.com/hpungsan/handoff/internal/deeplink"
	"github.com/hpungsan/handoff/internal/errors"
	"github.com/hpungsan/handoff/internal/opener"
	"github.com/hpungsan/handoff/internal/ops"
	"github.com/hpungsan/handoff/internal/platform"
	"github.com/hpungsan/handoff/internal/social"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	renderer *Renderer
	logger   *zap.Logger
}

func (h *Handlers) page(title, nav string) PageData {
	return PageData{
		Title:   title,
		Version: h.renderer.version,
		Nav:     nav,
		History: h.db != nil,
	}
}

// HandleInspect handles GET /inspect: resolve a link and preview its share targets.
func (h *Handlers) HandleInspect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := InspectPageData{
		PageData: h.page("Inspect", "inspect"),
		URL:      strings.TrimSpace(q.Get("url")),
		Title:    q.Get("title"),
		Text:     q.Get("text"),
	}

	if data.URL != "" {
		data.HasURL = true
		data.Link = deeplink.Generate(data.URL)

		opts := h.openOptions(r)
		for _, os := range []platform.OS{platform.IOS, platform.Android, platform.Desktop} {
			data.Plans = append(data.Plans, opener.PlanFor(data.URL, os, opts))
		}

		params := social.Params{URL: data.URL, Title: data.Title, Text: data.Text}
		for _, info := range social.Catalog() {
			if !info.ShareSheet {
				continue
			}
			data.Social = append(data.Social, SocialLink{Info: info, Href: social.BuildURL(info.Platform, params)})
		}
	}
	if data.Text != "" {
		data.Preview = renderMarkdown(data.Text)
	}

	h.renderer.renderPage(w, r, "inspect", data)
}

// HandleOpen handles GET /open: run the link opener against the requesting
// browser. Desktop browsers, and links without a native URI, get a redirect.
// Mobile browsers get a bounce page that tries the app and then the web.
func (h *Handlers) HandleOpen(w http.ResponseWriter, r *http.Request) {
	url, err := webURLParam(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	opts, err := h.requestOpenOptions(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	rh := &responseHost{ua: r.UserAgent()}
	clk := &deferredClock{}
	plan := opener.New(rh, clk, h.logger).Open(url, opts)
	delay, fallback := clk.drain()

	navs := rh.navigations()
	if len(navs) == 0 {
		h.renderer.renderError(w, r, errors.NewInternal(nil))
		return
	}

	if plan.NativeURI == "" {
		http.Redirect(w, r, navs[0].url, http.StatusFound)
		return
	}

	data := BouncePageData{
		PageData:  h.page("Opening…", ""),
		NativeURI: template.URL(navs[0].url),
		WebURL:    plan.WebURL,
		Fallback:  fallback && len(navs) > 1,
	}
	if data.Fallback {
		data.WebURL = navs[1].url
		data.NewTab = navs[1].newTab
		data.DelayMS = delay.Milliseconds()
	}
	h.renderer.renderPage(w, r, "bounce", data)
}

// HandleHistory handles GET /history: list recorded share events.
func (h *Handlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	input, err := listInput(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	result, err := ops.List(r.Context(), h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "history", HistoryPageData{
		PageData:   h.page("History", "history"),
		Items:      result.Items,
		Pagination: result.Pagination,
		Platform:   input.Platform,
		OK:         r.URL.Query().Get("ok"),
		Platforms:  deeplink.Platforms(),
	})
}

// HandleEvent handles GET /history/{id}: view one share event.
func (h *Handlers) HandleEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("event ID is required"))
		return
	}

	event, err := ops.Fetch(r.Context(), h.db, id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, event)
		return
	}

	h.renderer.renderPage(w, r, "event", EventPageData{
		PageData: h.page(event.ID, "history"),
		Event:    event,
		Link:     deeplink.Generate(event.URL),
	})
}

// HandlePurge handles POST /history/purge: permanently delete share events.
func (h *Handlers) HandlePurge(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	if r.FormValue("confirm") != "true" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("confirm parameter must be \"true\""))
		return
	}

	var input ops.PurgeInput
	if days := r.FormValue("older_than_days"); days != "" {
		d, err := strconv.Atoi(days)
		if err != nil {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("older_than_days must be an integer"))
			return
		}
		input.OlderThanDays = &d
	}

	result, err := ops.Purge(r.Context(), h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	// HTMX request: return HTML fragment
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`<div class="purge-result">` + template.HTMLEscapeString(result.Message) + `</div>`))
		return
	}

	// JSON request
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	// Default: redirect
	http.Redirect(w, r, "/history", http.StatusFound)
}

// HandleAPIDeepLink handles GET /api/deeplink.
func (h *Handlers) HandleAPIDeepLink(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("url is required"))
		return
	}
	renderJSON(w, http.StatusOK, deeplink.Generate(url))
}

// HandleAPIPlan handles GET /api/plan: what /open would do for this client.
// A user_agent parameter overrides the request header.
func (h *Handlers) HandleAPIPlan(w http.ResponseWriter, r *http.Request) {
	url, err := webURLParam(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	opts, err := h.requestOpenOptions(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	ua := r.UserAgent()
	if r.URL.Query().Has("user_agent") {
		ua = r.URL.Query().Get("user_agent")
	}
	renderJSON(w, http.StatusOK, opener.PlanFor(url, platform.DetectOS(ua), opts))
}

// HandleAPISocial handles GET /api/social: build one platform's share URL,
// or list platforms when no platform is given.
func (h *Handlers) HandleAPISocial(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := social.Platform(strings.ToLower(q.Get("platform")))
	if p == "" {
		renderJSON(w, http.StatusOK, map[string]any{"platforms": social.Catalog()})
		return
	}
	if !p.Valid() {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("unknown platform: "+string(p)))
		return
	}

	params := social.Params{
		URL:   q.Get("url"),
		Title: q.Get("title"),
		Text:  q.Get("text"),
		Via:   q.Get("via"),
	}
	if tags := q.Get("hashtags"); tags != "" {
		params.Hashtags = strings.Split(tags, ",")
	}

	renderJSON(w, http.StatusOK, map[string]any{
		"platform": p,
		"url":      social.BuildURL(p, params),
		"fields":   social.Fields(p),
	})
}

// HandleAPIHistory handles GET /api/history.
func (h *Handlers) HandleAPIHistory(w http.ResponseWriter, r *http.Request) {
	input, err := listInput(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	result, err := ops.List(r.Context(), h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

func (h *Handlers) openOptions(r *http.Request) opener.Options {
	opts, err := h.requestOpenOptions(r)
	if err != nil {
		return ops.OpenOptions(h.cfg)
	}
	return opts
}

// requestOpenOptions layers query overrides on the configured opener options.
func (h *Handlers) requestOpenOptions(r *http.Request) (opener.Options, error) {
	opts := ops.OpenOptions(h.cfg)
	q := r.URL.Query()

	if q.Has("fallback_to_web") {
		opts.FallbackToWeb = config.Bool(parseBoolParam(r, "fallback_to_web"))
	}
	if q.Has("open_in_new_tab") {
		opts.OpenInNewTab = config.Bool(parseBoolParam(r, "open_in_new_tab"))
	}
	if s := q.Get("fallback_delay_ms"); s != "" {
		ms, err := strconv.Atoi(s)
		if err != nil || ms < 0 {
			return opts, errors.NewInvalidRequest("fallback_delay_ms must be a non-negative integer")
		}
		opts.FallbackDelay = opener.Delay(time.Duration(ms) * time.Millisecond)
	}
	return opts, nil
}

// webURLParam returns the url query parameter. Only absolute http and https
// URLs are accepted.
func webURLParam(r *http.Request) (string, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("url"))
	if raw == "" {
		return "", errors.NewInvalidRequest("url is required")
	}
	u, err := neturl.Parse(raw)
	if err != nil {
		return "", errors.NewInvalidRequest("url is not a valid URL")
	}
	if scheme := strings.ToLower(u.Scheme); (scheme != "http" && scheme != "https") || u.Host == "" {
		return "", errors.NewInvalidRequest("url must be an absolute http or https URL")
	}
	return raw, nil
}

func listInput(r *http.Request) (ops.ListInput, error) {
	input := ops.ListInput{
		Platform: r.URL.Query().Get("platform"),
		Limit:    parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:   parseIntParam(r, "offset", 0),
	}
	switch r.URL.Query().Get("ok") {
	case "":
	case "true", "1":
		input.OK = config.Bool(true)
	case "false", "0":
		input.OK = config.Bool(false)
	default:
		return input, errors.NewInvalidRequest("ok must be true or false")
	}
	return input, nil
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}
