package metrics

import (
	"context"
	"sync"
)

// Recorder keeps every published batch in memory.
type Recorder struct {
	mu      sync.Mutex
	batches [][]Datum
	Err     error // returned from Publish when set
}

func (r *Recorder) Publish(_ context.Context, data []Datum) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]Datum, len(data))
	copy(cp, data)
	r.batches = append(r.batches, cp)
	return r.Err
}

// Batches returns how many times Publish was called.
func (r *Recorder) Batches() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

// Last returns the most recent batch keyed by metric name.
func (r *Recorder) Last() map[string]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.batches) == 0 {
		return nil
	}
	out := make(map[string]float64)
	for _, d := range r.batches[len(r.batches)-1] {
		out[d.Name] = d.Value
	}
	return out
}
