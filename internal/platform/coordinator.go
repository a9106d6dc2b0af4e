package platform

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// UpdateFunc fetches a fresh snapshot from a vendor service.
//
// The coordinator calls it on every poll cycle. Implementations should
// honour ctx cancellation; the coordinator applies no timeout of its own.
type UpdateFunc[T any] func(ctx context.Context) (T, error)

// CoordinatorOptions configures a Coordinator.
type CoordinatorOptions struct {
	// Name identifies the coordinator in logs (e.g., "weather:entry-1").
	Name string

	// Interval is the polling period. Must be positive.
	Interval time.Duration

	// Logger receives refresh failures. Optional.
	Logger Logger

	// OnRefresh is invoked after every refresh attempt with the outcome
	// and the vendor call duration. Optional; used for telemetry.
	OnRefresh func(success bool, duration time.Duration)
}

// Coordinator periodically polls a vendor service and fans the latest
// snapshot out to dependent entities.
//
// Entities hold a reference to the coordinator and read the snapshot
// through Data() on each property access. They never mutate it. Listeners
// registered via AddListener are notified after every refresh attempt,
// successful or not, so entities can recompute availability.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Data() returns the snapshot by value; callers must treat any
//     reference types inside it as read-only.
type Coordinator[T any] struct {
	name     string
	interval time.Duration
	update   UpdateFunc[T]
	logger   Logger

	onRefresh func(success bool, duration time.Duration)

	mu          sync.RWMutex
	data        T
	lastSuccess bool
	lastUpdated time.Time
	lastError   error

	listenerMu sync.Mutex
	listeners  map[int]func()
	nextID     int

	refreshCh chan struct{}
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewCoordinator creates a coordinator around an update function.
//
// The coordinator does not poll until Start is called. Call FirstRefresh
// before Start to fail setup fast when the vendor is unreachable.
//
// Parameters:
//   - update: Function that fetches one snapshot
//   - opts: Name, polling interval, optional logger and telemetry hook
func NewCoordinator[T any](update UpdateFunc[T], opts CoordinatorOptions) *Coordinator[T] {
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	return &Coordinator[T]{
		name:      opts.Name,
		interval:  opts.Interval,
		update:    update,
		logger:    logger,
		onRefresh: opts.OnRefresh,
		listeners: make(map[int]func()),
		refreshCh: make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
}

// FirstRefresh performs one synchronous refresh.
//
// Integrations call this during setup so a dead vendor service surfaces
// as a setup failure instead of an entity that never becomes available.
//
// Returns:
//   - error: The update function's error, unwrapped
func (c *Coordinator[T]) FirstRefresh(ctx context.Context) error {
	return c.refresh(ctx)
}

// Start launches the polling loop in a background goroutine.
//
// The loop runs until Stop is called or ctx is cancelled. A refresh
// request via RequestRefresh resets nothing; the periodic tick continues
// on its own schedule.
func (c *Coordinator[T]) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	go func() {
		defer close(c.done)

		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
			case <-c.refreshCh:
			}

			if err := c.refresh(runCtx); err != nil {
				c.logger.Warn("coordinator refresh failed",
					"coordinator", c.name,
					"error", err,
				)
			}
		}
	}()
}

// Stop terminates the polling loop and waits for it to exit.
// Safe to call more than once. A coordinator that was never started
// stops immediately.
func (c *Coordinator[T]) Stop() {
	c.stopOnce.Do(func() {
		if c.cancel == nil {
			close(c.done)
			return
		}
		c.cancel()
	})
	<-c.done
}

// RequestRefresh asks the polling loop for an immediate refresh.
//
// Non-blocking; if a request is already pending the call is a no-op.
// Has no effect before Start.
func (c *Coordinator[T]) RequestRefresh() {
	select {
	case c.refreshCh <- struct{}{}:
	default:
	}
}

// refresh runs the update function once and publishes the outcome.
func (c *Coordinator[T]) refresh(ctx context.Context) error {
	start := time.Now()
	data, err := c.update(ctx)
	duration := time.Since(start)

	c.mu.Lock()
	if err == nil {
		c.data = data
		c.lastSuccess = true
		c.lastUpdated = time.Now()
		c.lastError = nil
	} else {
		c.lastSuccess = false
		c.lastError = err
	}
	c.mu.Unlock()

	if c.onRefresh != nil {
		c.onRefresh(err == nil, duration)
	}

	c.notifyListeners()

	if err != nil {
		return fmt.Errorf("refreshing %s: %w", c.name, err)
	}
	return nil
}

// Data returns the most recent successful snapshot.
//
// If no refresh has succeeded yet, the zero value of T is returned;
// check LastUpdateSuccess before trusting the data.
func (c *Coordinator[T]) Data() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data
}

// LastUpdateSuccess reports whether the most recent refresh succeeded.
func (c *Coordinator[T]) LastUpdateSuccess() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSuccess
}

// LastUpdated returns when the last successful refresh completed.
// Zero if no refresh has succeeded.
func (c *Coordinator[T]) LastUpdated() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastUpdated
}

// LastError returns the error from the most recent refresh, or nil.
func (c *Coordinator[T]) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastError
}

// AddListener registers a callback invoked after every refresh attempt.
//
// Listeners run synchronously on the polling goroutine and must not block.
//
// Returns:
//   - func(): Removes the listener when called. Idempotent.
func (c *Coordinator[T]) AddListener(listener func()) func() {
	c.listenerMu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = listener
	c.listenerMu.Unlock()

	return func() {
		c.listenerMu.Lock()
		delete(c.listeners, id)
		c.listenerMu.Unlock()
	}
}

// notifyListeners invokes all registered listeners.
func (c *Coordinator[T]) notifyListeners() {
	c.listenerMu.Lock()
	callbacks := make([]func(), 0, len(c.listeners))
	for _, l := range c.listeners {
		callbacks = append(callbacks, l)
	}
	c.listenerMu.Unlock()

	for _, callback := range callbacks {
		callback()
	}
}
