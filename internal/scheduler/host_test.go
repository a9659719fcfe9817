package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/apicanary/internal/domain"
	"github.com/hamed0406/apicanary/internal/probe"
	"github.com/hamed0406/apicanary/internal/repo/memory"
)

// --- fakes ---

type fakeProber struct {
	mu       sync.Mutex
	calls    int
	res      domain.Result
	err      error
	deadline bool
}

func (f *fakeProber) Run(ctx context.Context) (domain.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	_, f.deadline = ctx.Deadline()
	return f.res, f.err
}

func (f *fakeProber) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var probeCfg = domain.ProbeConfig{
	EndpointURL:    "https://example.com/health",
	Method:         "GET",
	ExpectedStatus: 200,
	ProjectTag:     "shop",
	EnvironmentTag: "prod",
}

// --- tests ---

func TestHost_Invoke_RecordsSuccess(t *testing.T) {
	store := memory.New()
	p := &fakeProber{res: domain.Result{Success: true, StatusCode: 200, LatencyMS: 17}}
	h := NewHost(zap.NewNop(), p, probeCfg, store, nil, time.Second)

	rec, err := h.Invoke(context.Background())
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if !p.deadline {
		t.Fatalf("host must bound the run with a deadline")
	}
	if !rec.Success || rec.StatusCode != 200 || rec.LatencyMS != 17 || rec.Project != "shop" {
		t.Fatalf("unexpected record %+v", rec)
	}
	latest, _ := store.Latest(context.Background())
	if latest == nil || latest.ID != rec.ID {
		t.Fatalf("record not stored: %+v", latest)
	}
}

func TestHost_Invoke_ValidationFailureKeepsObservedStatus(t *testing.T) {
	store := memory.New()
	verr := &probe.ValidationError{Expected: 200, Actual: 503, LatencyMS: 40}
	p := &fakeProber{err: verr}
	h := NewHost(zap.NewNop(), p, probeCfg, store, nil, time.Second)

	rec, err := h.Invoke(context.Background())
	if !errors.Is(err, verr) {
		t.Fatalf("probe error must be returned untouched, got %v", err)
	}
	if rec.Success || rec.ErrorKind != domain.ErrorKindValidation || rec.StatusCode != 503 || rec.LatencyMS != 40 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.Message != "Expected status code 200, but got 503" {
		t.Fatalf("unexpected message %q", rec.Message)
	}
}

func TestHost_Invoke_RequestFailureAlerts(t *testing.T) {
	store := memory.New()
	nt := &memNotifier{}
	al := NewAlerter(store, nt, AlerterConfig{AlertOnRecovery: true, Cooldown: time.Minute})
	p := &fakeProber{err: &probe.RequestError{Endpoint: probeCfg.EndpointURL, LatencyMS: 3, Err: errors.New("connection refused")}}
	h := NewHost(zap.NewNop(), p, probeCfg, store, al, time.Second)

	rec, err := h.Invoke(context.Background())
	if err == nil {
		t.Fatalf("want error")
	}
	if rec.ErrorKind != domain.ErrorKindRequest || rec.StatusCode != 0 || rec.LatencyMS != 3 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if nt.n != 1 {
		t.Fatalf("want one failure alert, got %d", nt.n)
	}
}

func TestHost_StartRunsOnSchedule(t *testing.T) {
	p := &fakeProber{res: domain.Result{Success: true, StatusCode: 200}}
	h := NewHost(zap.NewNop(), p, probeCfg, memory.New(), nil, time.Second)

	if err := h.Start("@every 1s"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		h.Stop(ctx)
	}()

	deadline := time.Now().Add(3 * time.Second)
	for p.Calls() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if p.Calls() == 0 {
		t.Fatalf("expected at least one scheduled invocation")
	}
}

func TestHost_StartRejectsBadSpec(t *testing.T) {
	h := NewHost(zap.NewNop(), &fakeProber{}, probeCfg, nil, nil, 0)
	if err := h.Start("every now and then"); err == nil {
		t.Fatalf("expected schedule parse error")
	}
	h.Stop(context.Background()) // no-op when never started
}
