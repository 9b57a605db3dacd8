// Package poller keeps a session's view of the order collection fresh by fetching it on an
// interval and diffing each fetch against the previous snapshot.
package poller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/models"
)

// ErrFetchInFlight is returned by Tick when the previous fetch has not finished yet
var ErrFetchInFlight = errors.New("order fetch already in flight")

// Fetcher returns the authoritative order collection for one session. Staff sessions get every
// order, customers their own.
type Fetcher interface {
	FetchOrders(ctx context.Context) ([]models.Order, error)
}

// ChangeKind classifies one entry of a diff
type ChangeKind string

const (
	ChangeNew           ChangeKind = "new"
	ChangeStatusChanged ChangeKind = "status_changed"
)

// Change is one order that is new or whose status moved since the previous snapshot
type Change struct {
	Kind           ChangeKind
	Order          models.Order
	PreviousStatus models.OrderStatus
}

// DiffHandler receives every non-empty diff as one batch
type DiffHandler func(ctx context.Context, changes []Change)

// Option configures a Poller
type Option func(*Poller)

// WithInterval sets the polling interval. Default 10s.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithLogger sets the poller logger
func WithLogger(logger *slog.Logger) Option {
	return func(p *Poller) { p.logger = logger }
}

// WithDiffHandler registers the callback that receives diffs. The handler runs while Stop waits
// for it, so it must not call Start or Stop itself.
func WithDiffHandler(h DiffHandler) Option {
	return func(p *Poller) { p.onDiff = h }
}

// Poller periodically fetches orders for a single session. At most one fetch runs at a time;
// a tick that arrives while a fetch is running is skipped.
type Poller struct {
	fetcher  Fetcher
	interval time.Duration
	logger   *slog.Logger
	onDiff   DiffHandler

	inFlight atomic.Bool

	// deliverMu is held from the generation check until onDiff returns
	deliverMu sync.Mutex

	mu         sync.Mutex
	snapshot   map[string]models.OrderStatus
	baselined  bool
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}
}

// New creates a stopped poller
func New(fetcher Fetcher, opts ...Option) *Poller {
	p := &Poller{
		fetcher:  fetcher,
		interval: 10 * time.Second,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		snapshot: make(map[string]models.OrderStatus),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start fetches immediately and then on every interval until Stop is called or ctx ends.
// Calling Start on a running poller re-arms the interval instead of adding a second loop.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	p.stopLocked()

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done
	generation := p.generation

	go p.run(ctx, loopCtx, done, generation)
	p.mu.Unlock()

	p.waitDelivery()
}

// Stop halts the loop. A fetch already in flight is left to finish but its result is dropped.
// Once Stop returns no diff from before the call is delivered.
func (p *Poller) Stop() {
	p.mu.Lock()
	p.stopLocked()
	p.mu.Unlock()

	p.waitDelivery()
}

// Running reports whether the polling loop is active
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Poller) stopLocked() {
	p.generation++
	if p.cancel == nil {
		return
	}
	p.cancel()
	p.cancel = nil
	p.done = nil
}

// waitDelivery blocks until a diff handler that passed its generation check has returned.
func (p *Poller) waitDelivery() {
	p.deliverMu.Lock()
	p.deliverMu.Unlock()
}

// Done returns a channel closed when the current loop exits, or nil when stopped
func (p *Poller) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// run drives ticks for one generation until loopCtx ends. Fetches use the caller's ctx so that
// Stop does not abort a request already on the wire.
func (p *Poller) run(ctx, loopCtx context.Context, done chan struct{}, generation uint64) {
	defer close(done)
	defer p.loopExited(done)

	if loopCtx.Err() != nil {
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tickAsync(ctx, generation)
	for {
		select {
		case <-loopCtx.Done():
			return
		case <-ticker.C:
			p.tickAsync(ctx, generation)
		}
	}
}

// loopExited clears the running state when the loop ends on its own, e.g. when the Start
// context is cancelled. A newer loop's state is left alone.
func (p *Poller) loopExited(done chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != done {
		return
	}
	p.cancel()
	p.cancel = nil
	p.done = nil
}

// tickAsync runs a tick without holding up the loop, so a slow fetch makes later ticks skip
// instead of queueing behind it.
func (p *Poller) tickAsync(ctx context.Context, generation uint64) {
	go func() {
		err := p.tick(ctx, generation)
		switch {
		case err == nil:
		case errors.Is(err, ErrFetchInFlight):
			p.logger.Debug("poll tick skipped, fetch in flight")
		case ctx.Err() != nil:
		default:
			p.logger.Warn("order poll failed, retrying next tick", "error", err)
		}
	}()
}

// Tick performs one fetch and diff. The first successful fetch only records the baseline.
// It returns ErrFetchInFlight without fetching when another fetch is running.
func (p *Poller) Tick(ctx context.Context) error {
	p.mu.Lock()
	generation := p.generation
	p.mu.Unlock()
	return p.tick(ctx, generation)
}

// tick applies a fetch only while generation is still current.
func (p *Poller) tick(ctx context.Context, generation uint64) error {
	if !p.inFlight.CompareAndSwap(false, true) {
		return ErrFetchInFlight
	}
	defer p.inFlight.Store(false)

	p.mu.Lock()
	stale := generation != p.generation
	p.mu.Unlock()
	if stale {
		return nil
	}

	orders, err := p.fetcher.FetchOrders(ctx)
	if err != nil {
		return fmt.Errorf("fetch orders: %w", err)
	}

	p.deliverMu.Lock()
	defer p.deliverMu.Unlock()

	p.mu.Lock()
	if generation != p.generation {
		p.mu.Unlock()
		p.logger.Debug("discarding poll result from before stop")
		return nil
	}
	var changes []Change
	if p.baselined {
		changes = DiffSnapshots(p.snapshot, orders)
	}
	p.snapshot = snapshotOf(orders)
	p.baselined = true
	p.mu.Unlock()

	if len(changes) > 0 {
		p.logger.Info("orders changed", "changes", len(changes), "orders", len(orders))
		if p.onDiff != nil {
			p.onDiff(ctx, changes)
		}
	}
	return nil
}

// DiffSnapshots compares a fetch against the previous id → status snapshot. Orders keep the
// fetch order; unchanged orders are omitted.
func DiffSnapshots(previous map[string]models.OrderStatus, current []models.Order) []Change {
	var changes []Change
	for _, o := range current {
		prev, seen := previous[o.ID]
		switch {
		case !seen:
			changes = append(changes, Change{Kind: ChangeNew, Order: o})
		case prev != o.Status:
			changes = append(changes, Change{Kind: ChangeStatusChanged, Order: o, PreviousStatus: prev})
		}
	}
	return changes
}

func snapshotOf(orders []models.Order) map[string]models.OrderStatus {
	snapshot := make(map[string]models.OrderStatus, len(orders))
	for _, o := range orders {
		snapshot[o.ID] = o.Status
	}
	return snapshot
}
