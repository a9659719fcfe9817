package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hamed0406/apicanary/internal/domain"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "canary.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_RunsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	if r, err := s.Latest(ctx); err != nil || r != nil {
		t.Fatalf("empty store: want nil,nil got %+v,%v", r, err)
	}

	base := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	ok := &domain.RunRecord{
		Project: "shop", Environment: "prod", Endpoint: "https://example.com/health",
		Success: true, StatusCode: 200, LatencyMS: 12, StartedAt: base,
	}
	bad := &domain.RunRecord{
		Project: "shop", Environment: "prod", Endpoint: "https://example.com/health",
		ErrorKind: domain.ErrorKindValidation, Message: "Expected status code 200, but got 503",
		LatencyMS: 30, StartedAt: base.Add(time.Minute),
	}
	for _, r := range []*domain.RunRecord{ok, bad} {
		if err := s.Append(ctx, r); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	latest, err := s.Latest(ctx)
	if err != nil || latest == nil {
		t.Fatalf("Latest: %+v %v", latest, err)
	}
	if latest.ID != bad.ID || latest.Success || latest.StatusCode != 0 || latest.ErrorKind != domain.ErrorKindValidation {
		t.Fatalf("unexpected latest %+v", latest)
	}
	if !latest.StartedAt.Equal(bad.StartedAt) {
		t.Fatalf("started_at %v != %v", latest.StartedAt, bad.StartedAt)
	}

	list, err := s.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[1].StatusCode != 200 || !list[1].Success {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestSQLiteStore_Alerts(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	if rec, err := s.Get(ctx, "shop/prod"); err != nil || rec != nil {
		t.Fatalf("expected nil, got %+v err=%v", rec, err)
	}
	if err := s.Set(ctx, "shop/prod", false, time.Time{}); err != nil {
		t.Fatalf("set: %v", err)
	}
	rec, err := s.Get(ctx, "shop/prod")
	if err != nil || rec == nil || rec.LastState || rec.LastSentAt != nil {
		t.Fatalf("unexpected: %+v err=%v", rec, err)
	}
	if err := s.Set(ctx, "shop/prod", true, time.Now()); err != nil {
		t.Fatalf("set2: %v", err)
	}
	rec, err = s.Get(ctx, "shop/prod")
	if err != nil || rec == nil || !rec.LastState || rec.LastSentAt == nil {
		t.Fatalf("unexpected2: %+v err=%v", rec, err)
	}
}

func TestWithBusyTimeout(t *testing.T) {
	cases := map[string]string{
		"canary.db":                   "canary.db?_busy_timeout=5000",
		"canary.db?mode=rwc":          "canary.db?mode=rwc&_busy_timeout=5000",
		"canary.db?_busy_timeout=100": "canary.db?_busy_timeout=100",
		"file:canary.db?cache=shared": "file:canary.db?cache=shared&_busy_timeout=5000",
	}
	for in, want := range cases {
		if got := withBusyTimeout(in); got != want {
			t.Errorf("withBusyTimeout(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOpen_PathWithQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canary.db")
	s, err := Open(path + "?mode=rwc")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	rec := &domain.RunRecord{Project: "shop", Environment: "prod", Success: true, StartedAt: time.Now().UTC()}
	if err := s.Append(context.Background(), rec); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("want database at %s: %v", path, err)
	}
}
