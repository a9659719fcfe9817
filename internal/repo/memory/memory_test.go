package memory

import (
	"context"
	"testing"
	"time"

	"github.com/hamed0406/apicanary/internal/domain"
)

func TestMemoryStore_AppendLatestList(t *testing.T) {
	ctx := context.Background()
	s := New()

	if r, err := s.Latest(ctx); err != nil || r != nil {
		t.Fatalf("empty store: want nil,nil got %+v,%v", r, err)
	}

	base := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		rec := &domain.RunRecord{
			Endpoint:   "https://example.com/health",
			Success:    i != 1,
			StatusCode: 200,
			LatencyMS:  int64(10 * i),
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.Append(ctx, rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
		if rec.ID == "" {
			t.Fatalf("expected ID to be set")
		}
	}

	latest, err := s.Latest(ctx)
	if err != nil || latest == nil {
		t.Fatalf("Latest: %+v %v", latest, err)
	}
	if latest.LatencyMS != 20 {
		t.Fatalf("latest should be the last appended, got %+v", latest)
	}

	list, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].LatencyMS != 20 || list[1].LatencyMS != 10 {
		t.Fatalf("want newest first, got %+v", list)
	}

	all, _ := s.List(ctx, 0)
	if len(all) != 3 {
		t.Fatalf("limit 0 should return everything, got %d", len(all))
	}
}

func TestMemoryStore_Alerts(t *testing.T) {
	ctx := context.Background()
	s := New()

	if rec, err := s.Get(ctx, "shop/prod"); err != nil || rec != nil {
		t.Fatalf("expected nil, got %+v err=%v", rec, err)
	}
	if err := s.Set(ctx, "shop/prod", false, time.Time{}); err != nil {
		t.Fatalf("set: %v", err)
	}
	rec, _ := s.Get(ctx, "shop/prod")
	if rec == nil || rec.LastState || rec.LastSentAt != nil {
		t.Fatalf("unexpected: %+v", rec)
	}
	now := time.Now()
	_ = s.Set(ctx, "shop/prod", true, now)
	rec, _ = s.Get(ctx, "shop/prod")
	if rec == nil || !rec.LastState || rec.LastSentAt == nil || !rec.LastSentAt.Equal(now) {
		t.Fatalf("unexpected after send: %+v", rec)
	}
}
