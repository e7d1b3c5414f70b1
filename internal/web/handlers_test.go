package web

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/hpungsan/handoff/internal/config"
	"github.com/hpungsan/handoff/internal/db"
	"github.com/hpungsan/handoff/internal/host"
	"github.com/hpungsan/handoff/internal/ops"
	"github.com/hpungsan/handoff/internal/share"
)

const (
	iphoneUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15"
	androidUA = "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36"
	desktopUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_0) AppleWebKit/605.1.15"

	videoURL = "https://www.youtube.com/watch?v=abc"
)

func setupTest(t *testing.T) (http.Handler, *sql.DB) {
	t.Helper()
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("db.Init: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	srv, err := NewServer(database, config.DefaultConfig(), nil, "test", "127.0.0.1", 0)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv.Handler, database
}

// seedEvent records one share outcome and returns its ID.
func seedEvent(t *testing.T, database *sql.DB, rawURL string, ok bool) string {
	t.Helper()
	res := share.Result{OK: ok, Method: share.MethodNative}
	e, err := ops.Record(context.Background(), database, ops.RecordInput{
		Data:   host.ShareData{URL: rawURL},
		Result: res,
	})
	if err != nil {
		t.Fatalf("seed event %q: %v", rawURL, err)
	}
	return e.ID
}

func get(t *testing.T, handler http.Handler, target, ua string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", target, nil)
	if ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func openPath(rawURL string, extra ...string) string {
	q := url.Values{"url": {rawURL}}
	for i := 0; i+1 < len(extra); i += 2 {
		q.Set(extra[i], extra[i+1])
	}
	return "/open?" + q.Encode()
}

// --- Routing ---

func TestRootRedirectsToInspect(t *testing.T) {
	handler, _ := setupTest(t)

	w := get(t, handler, "/", "")
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/inspect" {
		t.Errorf("Location = %q, want /inspect", loc)
	}
}

func TestSecurityHeaders(t *testing.T) {
	handler, _ := setupTest(t)

	w := get(t, handler, "/inspect", "")
	if csp := w.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "script-src 'self'") {
		t.Errorf("CSP = %q", csp)
	}
	if w.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("missing X-Frame-Options")
	}
}

func TestStaticAssets(t *testing.T) {
	handler, _ := setupTest(t)

	for _, path := range []string{"/static/style.css", "/static/handoff.js"} {
		if w := get(t, handler, path, ""); w.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, w.Code)
		}
	}
}

// --- HandleOpen ---

func TestHandleOpen_DesktopRedirects(t *testing.T) {
	handler, _ := setupTest(t)

	w := get(t, handler, openPath(videoURL), desktopUA)
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != videoURL {
		t.Errorf("Location = %q, want %q", loc, videoURL)
	}
}

func TestHandleOpen_MobileBouncePage(t *testing.T) {
	handler, _ := setupTest(t)

	w := get(t, handler, openPath(videoURL, "fallback_delay_ms", "500"), iphoneUA)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `data-native="vnd.youtube://watch?v=abc"`) {
		t.Errorf("bounce page missing native URI:\n%s", body)
	}
	if !strings.Contains(body, `data-delay="500"`) {
		t.Error("bounce page missing fallback delay")
	}
	if !strings.Contains(body, `data-new-tab="true"`) {
		t.Error("bounce page should open the web fallback in a new tab by default")
	}
	if !strings.Contains(body, `/static/handoff.js`) {
		t.Error("bounce page should load the bounce script")
	}
}

func TestHandleOpen_AndroidIntent(t *testing.T) {
	handler, _ := setupTest(t)

	w := get(t, handler, openPath(videoURL, "open_in_new_tab", "false"), androidUA)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "intent://watch?v=abc") {
		t.Errorf("bounce page missing intent URI:\n%s", body)
	}
	if !strings.Contains(body, `data-new-tab="false"`) {
		t.Error("expected same-tab web fallback")
	}
}

func TestHandleOpen_FallbackDisabled(t *testing.T) {
	handler, _ := setupTest(t)

	w := get(t, handler, openPath(videoURL, "fallback_to_web", "false"), iphoneUA)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if strings.Contains(w.Body.String(), "data-web=") {
		t.Error("no web fallback should be scheduled")
	}
}

func TestHandleOpen_MobileWithoutDeepLinkRedirects(t *testing.T) {
	handler, _ := setupTest(t)

	w := get(t, handler, openPath("https://example.com/page"), iphoneUA)
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "https://example.com/page" {
		t.Errorf("Location = %q", loc)
	}
}

func TestHandleOpen_Validation(t *testing.T) {
	handler, _ := setupTest(t)

	if w := get(t, handler, "/open", iphoneUA); w.Code != http.StatusBadRequest {
		t.Errorf("missing url: status = %d, want 400", w.Code)
	}
	if w := get(t, handler, openPath(videoURL, "fallback_delay_ms", "-5"), iphoneUA); w.Code != http.StatusBadRequest {
		t.Errorf("negative delay: status = %d, want 400", w.Code)
	}
}

func TestHandleOpen_RejectsNonWebSchemes(t *testing.T) {
	handler, _ := setupTest(t)

	for _, raw := range []string{
		"javascript:alert(document.domain)//x.com/a",
		"JavaScript:alert(1)//youtube.com/watch?v=abc",
		"data:text/html,<script>alert(1)</script>//t.me/x",
		"vnd.youtube://watch?v=abc",
		"//www.youtube.com/watch?v=abc",
		"www.youtube.com/watch?v=abc",
	} {
		for _, ua := range []string{iphoneUA, desktopUA} {
			w := get(t, handler, openPath(raw), ua)
			if w.Code != http.StatusBadRequest {
				t.Errorf("%q (%s): status = %d, want 400", raw, ua, w.Code)
			}
			if loc := w.Header().Get("Location"); loc != "" {
				t.Errorf("%q: unexpected redirect to %q", raw, loc)
			}
			if strings.Contains(w.Body.String(), "data-web=") {
				t.Errorf("%q: bounce page rendered", raw)
			}
		}
	}

	target := "/api/plan?" + url.Values{"url": {"javascript:alert(1)//x.com/a"}}.Encode()
	if w := get(t, handler, target, iphoneUA); w.Code != http.StatusBadRequest {
		t.Errorf("api plan: status = %d, want 400", w.Code)
	}
}

func TestHandleOpen_ZeroDelay(t *testing.T) {
	handler, _ := setupTest(t)

	w := get(t, handler, openPath(videoURL, "fallback_delay_ms", "0"), iphoneUA)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `data-delay="0"`) {
		t.Errorf("explicit zero delay should not fall back to the default:\n%s", w.Body.String())
	}
}

// --- HandleInspect ---

func TestHandleInspect(t *testing.T) {
	handler, _ := setupTest(t)

	q := url.Values{"url": {videoURL}, "text": {"**watch** this"}}
	w := get(t, handler, "/inspect?"+q.Encode(), "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	body := w.Body.String()
	for _, want := range []string{
		"vnd.youtube://watch?v=abc",
		"<strong>watch</strong>",
		`data-platform="whatsapp"`,
		`data-platform="reddit"`,
		"direct to web",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("inspect page missing %q", want)
		}
	}
	if strings.Contains(body, `data-platform="instagram"`) {
		t.Error("instagram is not part of the share sheet")
	}
}

func TestHandleInspect_MarkdownDropsRawHTML(t *testing.T) {
	handler, _ := setupTest(t)

	q := url.Values{"text": {"<script>alert(1)</script>"}}
	w := get(t, handler, "/inspect?"+q.Encode(), "")
	if strings.Contains(w.Body.String(), "<script>alert(1)</script>") {
		t.Error("raw HTML in text must not be rendered")
	}
}

// --- JSON API ---

func TestAPIDeepLink(t *testing.T) {
	handler, _ := setupTest(t)

	w := get(t, handler, "/api/deeplink?url="+url.QueryEscape("https://open.spotify.com/track/xyz"), "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["platform"] != "spotify" {
		t.Errorf("platform = %v, want spotify", resp["platform"])
	}
	if resp["ios"] != "spotify:track:xyz" {
		t.Errorf("ios = %v", resp["ios"])
	}

	w = get(t, handler, "/api/deeplink", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("API errors should be JSON, got %q", ct)
	}
}

func TestAPIPlan(t *testing.T) {
	handler, _ := setupTest(t)

	target := "/api/plan?" + url.Values{"url": {videoURL}, "user_agent": {iphoneUA}}.Encode()
	w := get(t, handler, target, desktopUA)
	var plan map[string]any
	if err := json.NewDecoder(w.Body).Decode(&plan); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if plan["os"] != "ios" || plan["fallback_delay_ms"] != float64(2500) {
		t.Errorf("unexpected plan: %v", plan)
	}

	w = get(t, handler, "/api/plan?url="+url.QueryEscape(videoURL), desktopUA)
	plan = nil
	if err := json.NewDecoder(w.Body).Decode(&plan); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if plan["os"] != "desktop" {
		t.Errorf("os = %v, want desktop from request header", plan["os"])
	}
}

func TestAPISocial(t *testing.T) {
	handler, _ := setupTest(t)

	t.Run("email", func(t *testing.T) {
		q := url.Values{"platform": {"email"}, "url": {"https://a.io"}, "title": {"Hi"}}
		w := get(t, handler, "/api/social?"+q.Encode(), "")
		var resp map[string]any
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp["url"] != "mailto:?subject=Hi&body=https%3A%2F%2Fa.io" {
			t.Errorf("url = %v", resp["url"])
		}
	})

	t.Run("catalog", func(t *testing.T) {
		w := get(t, handler, "/api/social", "")
		var resp struct {
			Platforms []map[string]any `json:"platforms"`
		}
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(resp.Platforms) != 10 {
			t.Errorf("platforms = %d, want 10", len(resp.Platforms))
		}
	})

	t.Run("unknown platform", func(t *testing.T) {
		if w := get(t, handler, "/api/social?platform=myspace", ""); w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

// --- History ---

func TestHandleHistory(t *testing.T) {
	handler, database := setupTest(t)

	w := get(t, handler, "/history", "")
	if !strings.Contains(w.Body.String(), "No share events recorded.") {
		t.Error("expected empty state")
	}

	seedEvent(t, database, "https://youtu.be/a", true)
	seedEvent(t, database, "https://open.spotify.com/track/b", false)

	w = get(t, handler, "/history", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "https://youtu.be/a") || !strings.Contains(body, "https://open.spotify.com/track/b") {
		t.Error("history page should list both events")
	}

	w = get(t, handler, "/history?ok=maybe", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid ok filter: status = %d, want 400", w.Code)
	}
}

func TestAPIHistory_Filters(t *testing.T) {
	handler, database := setupTest(t)
	seedEvent(t, database, "https://youtu.be/a", true)
	seedEvent(t, database, "https://youtu.be/b", false)
	seedEvent(t, database, "https://open.spotify.com/track/c", true)

	tests := []struct {
		query string
		total float64
	}{
		{"", 3},
		{"platform=youtube", 2},
		{"ok=true", 2},
		{"platform=youtube&ok=false", 1},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := get(t, handler, "/api/history?"+tt.query, "")
			var resp map[string]any
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			total := resp["pagination"].(map[string]any)["total"]
			if total != tt.total {
				t.Errorf("total = %v, want %v", total, tt.total)
			}
		})
	}
}

func TestHandleEvent(t *testing.T) {
	handler, database := setupTest(t)
	id := seedEvent(t, database, "https://youtu.be/a", true)

	w := get(t, handler, "/history/"+id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), id) {
		t.Error("event page should show the event ID")
	}

	w = get(t, handler, "/history/"+id, "", "Accept", "application/json")
	var event map[string]any
	if err := json.NewDecoder(w.Body).Decode(&event); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if event["platform"] != "youtube" {
		t.Errorf("platform = %v", event["platform"])
	}

	w = get(t, handler, "/history/01ARZ3NDEKTSV4RRFFQ69G5FAV", "", "Accept", "application/json")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestHandlePurge(t *testing.T) {
	handler, database := setupTest(t)
	seedEvent(t, database, "https://youtu.be/a", true)
	seedEvent(t, database, "https://youtu.be/b", true)

	post := func(form url.Values, headers ...string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/history/purge", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		for i := 0; i+1 < len(headers); i += 2 {
			req.Header.Set(headers[i], headers[i+1])
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	if w := post(url.Values{}); w.Code != http.StatusBadRequest {
		t.Errorf("without confirm: status = %d, want 400", w.Code)
	}

	w := post(url.Values{"confirm": {"true"}}, "Accept", "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["purged"] != float64(2) {
		t.Errorf("purged = %v, want 2", resp["purged"])
	}

	w = post(url.Values{"confirm": {"true"}}, "HX-Request", "true")
	if !strings.Contains(w.Body.String(), "No share events to purge") {
		t.Errorf("htmx fragment = %q", w.Body.String())
	}

	if w := post(url.Values{"confirm": {"true"}}); w.Code != http.StatusFound {
		t.Errorf("form post: status = %d, want 302", w.Code)
	}
}

func TestHistoryUnmountedWithoutDatabase(t *testing.T) {
	srv, err := NewServer(nil, nil, nil, "test", "127.0.0.1", 0)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	if w := get(t, srv.Handler, "/history", ""); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	w := get(t, srv.Handler, "/inspect", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if strings.Contains(w.Body.String(), `href="/history"`) {
		t.Error("nav should not link to history without a database")
	}
}

// --- Helpers ---

func TestDeferredClock(t *testing.T) {
	var clk deferredClock
	fired := 0
	clk.AfterFunc(100, func() { fired++ })
	stopped := clk.AfterFunc(900, func() { fired += 10 })
	stopped.Stop()

	delay, ok := clk.drain()
	if !ok || delay != 100 || fired != 1 {
		t.Errorf("drain = (%v, %v), fired = %d", delay, ok, fired)
	}
	if _, ok := clk.drain(); ok {
		t.Error("second drain should have nothing to run")
	}
}
