package geocode

import (
	"context"
	"sync"
	"testing"
	"time"

	"sushiDelivery/models"
)

type recordingResolver struct {
	mu       sync.Mutex
	resolved []string
	block    map[string]chan struct{}
}

func (r *recordingResolver) Resolve(ctx context.Context, a models.Address) (*models.ResolvedLocation, error) {
	r.mu.Lock()
	r.resolved = append(r.resolved, a.Street)
	ch := r.block[a.Street]
	r.mu.Unlock()
	if ch != nil {
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if a.Street == "Nowhere" {
		return nil, nil
	}
	return &models.ResolvedLocation{Lat: -41.47, Lng: -72.94, Precision: models.PrecisionRoad}, nil
}

type result struct {
	street string
	loc    *models.ResolvedLocation
	err    error
}

func collect() (ResultFunc, <-chan result) {
	ch := make(chan result, 8)
	return func(a models.Address, loc *models.ResolvedLocation, err error) {
		ch <- result{a.Street, loc, err}
	}, ch
}

func TestDebouncer_LastInputWins(t *testing.T) {
	r := &recordingResolver{}
	fn, results := collect()
	d := NewDebouncer(context.Background(), r, 30*time.Millisecond, fn)
	defer d.Stop()

	d.Submit(models.Address{Street: "Eg"})
	d.Submit(models.Address{Street: "Egañ"})
	d.Submit(models.Address{Street: "Egaña"})

	select {
	case res := <-results:
		if res.street != "Egaña" || res.loc == nil {
			t.Fatalf("unexpected result: %+v", res)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no result delivered")
	}
	select {
	case res := <-results:
		t.Fatalf("unexpected extra result: %+v", res)
	case <-time.After(100 * time.Millisecond):
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.resolved) != 1 {
		t.Fatalf("resolver called %d times, want 1", len(r.resolved))
	}
}

func TestDebouncer_NewInputCancelsInFlight(t *testing.T) {
	r := &recordingResolver{block: map[string]chan struct{}{"Old": make(chan struct{})}}
	fn, results := collect()
	d := NewDebouncer(context.Background(), r, 10*time.Millisecond, fn)
	defer d.Stop()

	d.Submit(models.Address{Street: "Old"})
	deadline := time.Now().Add(2 * time.Second)
	for {
		r.mu.Lock()
		started := len(r.resolved) == 1
		r.mu.Unlock()
		if started {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("first resolution never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	d.Submit(models.Address{Street: "New"})
	select {
	case res := <-results:
		if res.street != "New" {
			t.Fatalf("stale result delivered: %+v", res)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no result delivered")
	}
}

func TestDebouncer_DuplicateSubmitIgnored(t *testing.T) {
	r := &recordingResolver{}
	fn, results := collect()
	d := NewDebouncer(context.Background(), r, 10*time.Millisecond, fn)
	defer d.Stop()

	d.Submit(models.Address{Street: "Egaña", Number: "1"})
	<-results
	d.Submit(models.Address{Street: " egaña", Number: "1 "}.Normalized(""))
	select {
	case res := <-results:
		t.Fatalf("duplicate input resolved again: %+v", res)
	case <-time.After(80 * time.Millisecond):
	}
}

func TestDebouncer_StopDropsPending(t *testing.T) {
	r := &recordingResolver{}
	fn, results := collect()
	d := NewDebouncer(context.Background(), r, 20*time.Millisecond, fn)
	d.Submit(models.Address{Street: "Egaña"})
	d.Stop()
	d.Submit(models.Address{Street: "Other"})
	select {
	case res := <-results:
		t.Fatalf("result after Stop: %+v", res)
	case <-time.After(80 * time.Millisecond):
	}
}

func TestDebouncer_SameAddressRetriedAfterMiss(t *testing.T) {
	r := &recordingResolver{}
	fn, results := collect()
	d := NewDebouncer(context.Background(), r, 10*time.Millisecond, fn)
	defer d.Stop()

	for i := 0; i < 2; i++ {
		d.Submit(models.Address{Street: "Nowhere"})
		select {
		case res := <-results:
			if res.loc != nil || res.err != nil {
				t.Fatalf("attempt %d: expected a miss, got %+v", i, res)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("attempt %d: no result delivered", i)
		}
	}

	d.Submit(models.Address{Street: "Egaña"})
	select {
	case res := <-results:
		if res.loc == nil {
			t.Fatalf("expected a hit, got %+v", res)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no result for a found address")
	}
	d.Submit(models.Address{Street: "Egaña"})
	select {
	case res := <-results:
		t.Fatalf("found address should not resolve again: %+v", res)
	case <-time.After(100 * time.Millisecond):
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.resolved) != 3 {
		t.Fatalf("resolver called %d times, want 3", len(r.resolved))
	}
}
