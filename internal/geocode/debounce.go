package geocode

import (
	"context"
	"sync"
	"time"

	"sushiDelivery/models"
)

// DefaultDebounceWindow is the input inactivity required before resolving.
const DefaultDebounceWindow = 700 * time.Millisecond

// AddressResolver is what the Debouncer drives; *Resolver satisfies it.
type AddressResolver interface {
	Resolve(ctx context.Context, addr models.Address) (*models.ResolvedLocation, error)
}

// ResultFunc receives the outcome for the latest submitted address.
// loc is nil when the address was not found.
type ResultFunc func(addr models.Address, loc *models.ResolvedLocation, err error)

// Debouncer resolves only the most recent address after a quiet window.
// A newer Submit cancels any pending or in-flight resolution, and results
// belonging to superseded input are dropped.
type Debouncer struct {
	resolver AddressResolver
	window   time.Duration
	onResult ResultFunc

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	gen      uint64
	lastKey  string
	timer    *time.Timer
	inflight context.CancelFunc
	stopped  bool
}

// NewDebouncer creates a Debouncer whose work is scoped to ctx.
func NewDebouncer(ctx context.Context, r AddressResolver, window time.Duration, onResult ResultFunc) *Debouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	dctx, cancel := context.WithCancel(ctx)
	return &Debouncer{resolver: r, window: window, onResult: onResult, ctx: dctx, cancel: cancel}
}

// Submit records new input and restarts the window. Submitting the same
// address again while it is pending or already found is a no-op.
func (d *Debouncer) Submit(addr models.Address) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	key := addr.Key()
	if key == d.lastKey {
		return
	}
	d.lastKey = key
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	if d.inflight != nil {
		d.inflight()
		d.inflight = nil
	}
	d.timer = time.AfterFunc(d.window, func() { d.fire(gen, addr) })
}

func (d *Debouncer) fire(gen uint64, addr models.Address) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(d.ctx)
	d.inflight = cancel
	d.mu.Unlock()
	defer cancel()

	loc, err := d.resolver.Resolve(ctx, addr)

	d.mu.Lock()
	current := !d.stopped && gen == d.gen
	if current {
		d.inflight = nil
		if loc == nil || err != nil {
			// A miss or a provider failure may be retried with the same input.
			d.lastKey = ""
		}
	}
	d.mu.Unlock()
	if current && d.onResult != nil {
		d.onResult(addr, loc, err)
	}
}

// Stop cancels pending and in-flight work. Further Submits are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.cancel()
}
