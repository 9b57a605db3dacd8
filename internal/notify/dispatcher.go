// Package notify turns observed order changes into role-scoped, deduplicated notifications kept
// in a per-session store.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/auth"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/models"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/poller"
)

// ErrNotificationNotFound is returned by MarkRead for an unknown id
var ErrNotificationNotFound = errors.New("notification not found")

const (
	defaultDedupWindow      = 60 * time.Second
	defaultMaxNotifications = 50
)

// Option configures a Dispatcher
type Option func(*Dispatcher)

func WithSignaler(s Signaler) Option {
	return func(d *Dispatcher) { d.signaler = s }
}

func WithDedupWindow(window time.Duration) Option {
	return func(d *Dispatcher) {
		if window > 0 {
			d.window = window
		}
	}
}

func WithMaxNotifications(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.max = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// Dispatcher raises notifications for one session
type Dispatcher struct {
	session  auth.Session
	store    Store
	signaler Signaler
	window   time.Duration
	max      int
	logger   *slog.Logger
	now      func() time.Time

	mu sync.Mutex
}

func NewDispatcher(session auth.Session, store Store, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		session: session,
		store:   store,
		window:  defaultDedupWindow,
		max:     defaultMaxNotifications,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Visible reports whether session may see n
func Visible(n models.Notification, session auth.Session) bool {
	return n.TargetRole == models.RoleAll ||
		n.TargetRole == session.Role ||
		(n.TargetUserID != "" && n.TargetUserID == session.UserID)
}

// Dispatch records n and signals it. It reports false without error when n is not addressed to
// this session or duplicates a notification raised within the dedup window.
func (d *Dispatcher) Dispatch(ctx context.Context, n models.Notification) (bool, error) {
	if !Visible(n, d.session) {
		return false, nil
	}

	d.mu.Lock()
	now := d.now()
	list, err := d.load(ctx, now)
	if err != nil {
		d.mu.Unlock()
		return false, err
	}

	cutoff := now.Add(-d.window)
	for _, existing := range list {
		if existing.OrderNumber == n.OrderNumber && existing.Type == n.Type && existing.CreatedAt.After(cutoff) {
			d.mu.Unlock()
			d.logger.Debug("duplicate notification suppressed", "type", n.Type, "order_number", n.OrderNumber)
			return false, nil
		}
	}

	n.ID = uuid.NewString()
	n.CreatedAt = now
	n.Read = false
	list = append([]models.Notification{n}, list...)

	err = d.save(ctx, list, now)
	d.mu.Unlock()
	if err != nil {
		return false, err
	}

	d.signal(n)
	return true, nil
}

// HandleDiff raises notifications for one poll diff. Store failures are logged per notification
// and the rest of the batch still goes out. It returns how many notifications were raised.
func (d *Dispatcher) HandleDiff(ctx context.Context, changes []poller.Change) int {
	raised := 0
	for _, change := range changes {
		var candidates []models.Notification
		switch change.Kind {
		case poller.ChangeNew:
			candidates = NewOrderNotifications(change.Order)
		case poller.ChangeStatusChanged:
			candidates = []models.Notification{StatusChangeNotification(change.Order)}
		}

		for _, n := range candidates {
			ok, err := d.Dispatch(ctx, n)
			if err != nil {
				d.logger.Error("failed to record notification", "error", err, "type", n.Type, "order_number", n.OrderNumber)
				continue
			}
			if ok {
				raised++
			}
		}
	}
	return raised
}

// List returns today's notifications visible to the session, newest first
func (d *Dispatcher) List(ctx context.Context) ([]models.Notification, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	list, err := d.load(ctx, d.now())
	if err != nil {
		return nil, err
	}
	visible := make([]models.Notification, 0, len(list))
	for _, n := range list {
		if Visible(n, d.session) {
			visible = append(visible, n)
		}
	}
	return visible, nil
}

// UnreadCount counts visible unread notifications
func (d *Dispatcher) UnreadCount(ctx context.Context) (int, error) {
	list, err := d.List(ctx)
	if err != nil {
		return 0, err
	}
	unread := 0
	for _, n := range list {
		if !n.Read {
			unread++
		}
	}
	return unread, nil
}

// MarkRead flags one notification as read
func (d *Dispatcher) MarkRead(ctx context.Context, id string) error {
	return d.mutate(ctx, func(list []models.Notification) ([]models.Notification, error) {
		for i := range list {
			if list[i].ID == id {
				list[i].Read = true
				return list, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrNotificationNotFound, id)
	})
}

// MarkAllRead flags every notification as read
func (d *Dispatcher) MarkAllRead(ctx context.Context) error {
	return d.mutate(ctx, func(list []models.Notification) ([]models.Notification, error) {
		for i := range list {
			list[i].Read = true
		}
		return list, nil
	})
}

// Clear removes every notification
func (d *Dispatcher) Clear(ctx context.Context) error {
	return d.mutate(ctx, func([]models.Notification) ([]models.Notification, error) {
		return nil, nil
	})
}

// Sweep applies retention and reports how many notifications were dropped
func (d *Dispatcher) Sweep(ctx context.Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	raw, err := d.store.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load notifications: %w", err)
	}
	kept := prune(raw, now, d.max)
	removed := len(raw) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := d.store.Save(ctx, kept); err != nil {
		return 0, fmt.Errorf("save notifications: %w", err)
	}
	return removed, nil
}

// RunSweeper sweeps on every interval until ctx is cancelled
func (d *Dispatcher) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed, err := d.Sweep(ctx)
			if err != nil {
				d.logger.Warn("notification sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				d.logger.Debug("notifications swept", "removed", removed)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (d *Dispatcher) mutate(ctx context.Context, fn func([]models.Notification) ([]models.Notification, error)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	list, err := d.load(ctx, now)
	if err != nil {
		return err
	}
	list, err = fn(list)
	if err != nil {
		return err
	}
	return d.save(ctx, list, now)
}

// load returns the stored list with retention applied. Callers hold d.mu.
func (d *Dispatcher) load(ctx context.Context, now time.Time) ([]models.Notification, error) {
	list, err := d.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load notifications: %w", err)
	}
	return prune(list, now, d.max), nil
}

// save applies retention and persists. Callers hold d.mu.
func (d *Dispatcher) save(ctx context.Context, list []models.Notification, now time.Time) error {
	if err := d.store.Save(ctx, prune(list, now, d.max)); err != nil {
		return fmt.Errorf("save notifications: %w", err)
	}
	return nil
}

// signal hands n to the signaler without blocking the caller. Failures and panics are logged.
func (d *Dispatcher) signal(n models.Notification) {
	if d.signaler == nil {
		return
	}
	s := SignalFor(n)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("notification signaler panicked", "panic", r, "notification_id", n.ID)
			}
		}()
		if err := d.signaler.Signal(context.Background(), s); err != nil {
			d.logger.Warn("failed to signal notification", "error", err, "notification_id", n.ID)
		}
	}()
}

// prune keeps notifications created on now's calendar day, newest first, at most limit of them
func prune(list []models.Notification, now time.Time, limit int) []models.Notification {
	y, m, day := now.Date()
	kept := make([]models.Notification, 0, len(list))
	for _, n := range list {
		ny, nm, nd := n.CreatedAt.In(now.Location()).Date()
		if ny == y && nm == m && nd == day {
			kept = append(kept, n)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].CreatedAt.After(kept[j].CreatedAt)
	})
	if len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}
