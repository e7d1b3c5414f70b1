package ops

import (
	"context"
	"database/sql"
	stderrors "errors"
	"testing"
	"time"

	"github.com/hpungsan/handoff/internal/db"
	"github.com/hpungsan/handoff/internal/errors"
	"github.com/hpungsan/handoff/internal/host"
	"github.com/hpungsan/handoff/internal/host/hosttest"
	"github.com/hpungsan/handoff/internal/share"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func boolPtr(b bool) *bool { return &b }
func intPtr(n int) *int    { return &n }

func recordN(t *testing.T, database *sql.DB, url string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := Record(context.Background(), database, RecordInput{
			Data:   host.ShareData{URL: url},
			Result: share.Result{OK: true, Method: share.MethodNative},
		})
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
}

func TestRecord_Success(t *testing.T) {
	database := newTestDB(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	e, err := Record(context.Background(), database, RecordInput{
		Data:   host.ShareData{URL: "https://youtu.be/abc123", Title: "Clip", Text: "watch"},
		Result: share.Result{OK: true, Method: share.MethodFallback},
		Now:    now,
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if len(e.ID) != 26 {
		t.Errorf("ID = %q, want a 26-char ULID", e.ID)
	}
	if e.Platform != "youtube" {
		t.Errorf("Platform = %q, want youtube", e.Platform)
	}
	if e.Method != "fallback" || !e.OK {
		t.Errorf("unexpected outcome %+v", *e)
	}
	if e.CreatedAt != now.Unix() {
		t.Errorf("CreatedAt = %d, want %d", e.CreatedAt, now.Unix())
	}

	got, err := Fetch(context.Background(), database, e.ID)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if *got != *e {
		t.Errorf("Fetch = %+v, want %+v", *got, *e)
	}
}

func TestRecord_Failure(t *testing.T) {
	database := newTestDB(t)

	e, err := Record(context.Background(), database, RecordInput{
		Data:   host.ShareData{URL: "https://example.com"},
		Result: share.Result{Err: errors.NewNoChannel("nothing to share with")},
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if e.OK || e.Method != "" {
		t.Errorf("failure should have no method: %+v", *e)
	}
	if e.ErrorCode != string(errors.ErrNoChannel) || e.ErrorMessage != "nothing to share with" {
		t.Errorf("unexpected error fields: %+v", *e)
	}
	if e.Platform != "unknown" {
		t.Errorf("Platform = %q, want unknown", e.Platform)
	}

	// Plain errors from custom fallbacks are recorded as INTERNAL.
	e, err = Record(context.Background(), database, RecordInput{
		Result: share.Result{Err: stderrors.New("webhook down")},
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if e.ErrorCode != string(errors.ErrInternal) || e.ErrorMessage != "webhook down" {
		t.Errorf("unexpected error fields: %+v", *e)
	}
}

func TestRecorder_Share(t *testing.T) {
	database := newTestDB(t)
	h := &hosttest.Host{ShareFn: func(context.Context, host.ShareData) error { return nil }}
	d := share.New(h, share.Options{})
	r := &Recorder{DB: database}

	res, e := r.Share(context.Background(), d, share.Record{URL: "https://t.me/durov"}, share.ShareOptions{ID: "card"})

	if !res.OK {
		t.Fatalf("share failed: %v", res.Err)
	}
	if e == nil {
		t.Fatal("expected a recorded event")
	}
	if e.Platform != "telegram" || e.Method != "native" {
		t.Errorf("unexpected event %+v", *e)
	}
	if e.ID == "card" {
		t.Error("the caller's shared id must not be persisted")
	}

	out, err := List(context.Background(), database, ListInput{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if out.Pagination.Total != 1 {
		t.Errorf("Total = %d, want 1", out.Pagination.Total)
	}
}

func TestRecorder_DisabledOrNil(t *testing.T) {
	d := share.New(host.Headless{}, share.Options{Fallback: share.NoFallback()})

	res, e := (&Recorder{}).Share(context.Background(), d, share.Record{}, share.ShareOptions{})
	if !res.OK || e != nil {
		t.Errorf("disabled recorder: res=%+v event=%v", res, e)
	}

	var nilRecorder *Recorder
	res, e = nilRecorder.Share(context.Background(), d, nil, share.ShareOptions{})
	if !res.OK || e != nil {
		t.Errorf("nil recorder: res=%+v event=%v", res, e)
	}
}

func TestRecorder_StoreFailureKeepsResult(t *testing.T) {
	database := newTestDB(t)
	database.Close()
	d := share.New(host.Headless{}, share.Options{Fallback: share.NoFallback()})

	res, e := (&Recorder{DB: database}).Share(context.Background(), d, share.Record{URL: "https://a"}, share.ShareOptions{})

	if !res.OK {
		t.Errorf("share result should be unaffected, got %+v", res)
	}
	if e != nil {
		t.Errorf("expected no event, got %+v", *e)
	}
}

func TestList_Pagination(t *testing.T) {
	database := newTestDB(t)
	recordN(t, database, "https://youtu.be/x", 5)

	out, err := List(context.Background(), database, ListInput{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(out.Items) != 2 {
		t.Errorf("len(Items) = %d, want 2", len(out.Items))
	}
	if !out.Pagination.HasMore || out.Pagination.Total != 5 {
		t.Errorf("Pagination = %+v, want has_more with total 5", out.Pagination)
	}
	if out.Sort != "created_at_desc" {
		t.Errorf("Sort = %q, want created_at_desc", out.Sort)
	}
}

func TestList_LimitBounds(t *testing.T) {
	database := newTestDB(t)

	out, err := List(context.Background(), database, ListInput{Limit: 1000, Offset: -3})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if out.Pagination.Limit != MaxListLimit {
		t.Errorf("Limit = %d, want %d", out.Pagination.Limit, MaxListLimit)
	}
	if out.Pagination.Offset != 0 {
		t.Errorf("Offset = %d, want 0", out.Pagination.Offset)
	}
	if out.Items == nil {
		t.Error("Items should be an empty slice, not nil")
	}

	out, err = List(context.Background(), database, ListInput{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if out.Pagination.Limit != DefaultListLimit {
		t.Errorf("Limit = %d, want %d", out.Pagination.Limit, DefaultListLimit)
	}
}

func TestList_Filters(t *testing.T) {
	database := newTestDB(t)
	recordN(t, database, "https://youtu.be/x", 2)
	recordN(t, database, "https://open.spotify.com/track/abc", 1)
	if _, err := Record(context.Background(), database, RecordInput{
		Data:   host.ShareData{URL: "https://youtu.be/y"},
		Result: share.Result{Err: errors.NewNoChannel("none")},
	}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	out, err := List(context.Background(), database, ListInput{Platform: " YouTube "})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if out.Pagination.Total != 3 {
		t.Errorf("youtube Total = %d, want 3", out.Pagination.Total)
	}

	out, err = List(context.Background(), database, ListInput{Platform: "youtube", OK: boolPtr(false)})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if out.Pagination.Total != 1 {
		t.Errorf("failed youtube Total = %d, want 1", out.Pagination.Total)
	}
}

func TestList_UnknownPlatform(t *testing.T) {
	database := newTestDB(t)

	_, err := List(context.Background(), database, ListInput{Platform: "myspace"})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestFetch_Errors(t *testing.T) {
	database := newTestDB(t)

	if _, err := Fetch(context.Background(), database, "  "); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("blank id: expected ErrInvalidRequest, got %v", err)
	}
	if _, err := Fetch(context.Background(), database, "01MISSING"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("missing id: expected ErrNotFound, got %v", err)
	}
}

func TestPurge(t *testing.T) {
	database := newTestDB(t)
	recordN(t, database, "https://youtu.be/x", 3)

	out, err := Purge(context.Background(), database, PurgeInput{OlderThanDays: intPtr(1)})
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if out.Purged != 0 || out.Message != "No share events to purge" {
		t.Errorf("recent events should survive: %+v", out)
	}

	out, err = Purge(context.Background(), database, PurgeInput{})
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if out.Purged != 3 {
		t.Errorf("Purged = %d, want 3", out.Purged)
	}
	if out.Message != "Permanently deleted 3 share events" {
		t.Errorf("Message = %q", out.Message)
	}

	if _, err := Purge(context.Background(), database, PurgeInput{OlderThanDays: intPtr(-1)}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("negative days: expected ErrInvalidRequest, got %v", err)
	}
}

func TestFormatPurgeMessage(t *testing.T) {
	tests := []struct {
		count int
		days  *int
		want  string
	}{
		{0, nil, "No share events to purge"},
		{1, nil, "Permanently deleted 1 share event"},
		{4, intPtr(30), "Permanently deleted 4 share events (recorded more than 30 days ago)"},
	}
	for _, tc := range tests {
		if got := formatPurgeMessage(tc.count, tc.days); got != tc.want {
			t.Errorf("formatPurgeMessage(%d) = %q, want %q", tc.count, got, tc.want)
		}
	}
}
