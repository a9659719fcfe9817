package metrics

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMulti_PublishesToAllAndCombinesErrors(t *testing.T) {
	ok := &Recorder{}
	bad1 := &Recorder{Err: errors.New("sink one down")}
	bad2 := &Recorder{Err: errors.New("sink two down")}

	m := Multi{bad1, nil, ok, bad2}
	err := m.Publish(context.Background(), []Datum{Count(Success, 1)})
	if err == nil {
		t.Fatalf("expected combined error")
	}
	if !errors.Is(err, bad1.Err) || !errors.Is(err, bad2.Err) {
		t.Fatalf("expected both errors in %v", err)
	}
	for i, r := range []*Recorder{ok, bad1, bad2} {
		if r.Batches() != 1 {
			t.Fatalf("publisher %d: want 1 batch, got %d", i, r.Batches())
		}
	}
}

func TestRecorder_LastKeyedByName(t *testing.T) {
	r := &Recorder{}
	_ = r.Publish(context.Background(), []Datum{Count(Success, 0), Count(Error, 1)})

	last := r.Last()
	if last[Success] != 0 || last[Error] != 1 {
		t.Fatalf("unexpected last batch: %+v", last)
	}
	if _, ok := last[StatusCode]; ok {
		t.Fatalf("status code should not be present: %+v", last)
	}
}

func TestLogPublisher_OneLinePerDatum(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := NewLogPublisher(zap.New(core))

	data := []Datum{Count(ResponseTime, 12), Count(StatusCode, 200), Count(Success, 1)}
	if err := p.Publish(context.Background(), data); err != nil {
		t.Fatalf("publish: %v", err)
	}
	entries := logs.FilterMessage("metric").All()
	if len(entries) != 3 {
		t.Fatalf("want 3 metric lines, got %d", len(entries))
	}
	if entries[1].ContextMap()["name"] != StatusCode || entries[1].ContextMap()["unit"] != UnitCount {
		t.Fatalf("unexpected fields: %+v", entries[1].ContextMap())
	}
}
