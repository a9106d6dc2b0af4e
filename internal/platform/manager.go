package platform

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Integration is the contract an integration domain implements.
//
// SetupEntry builds vendor clients, coordinators, and entities for one
// config entry. Failure classification drives the entry's state:
//   - wrap ErrEntryAuthFailed when the vendor rejects the credentials
//   - wrap ErrEntryNotReady when the vendor is unreachable or not yet up
//   - any other error is recorded as an unrecoverable setup error
type Integration interface {
	// Domain returns the domain name this integration handles.
	Domain() string

	// SetupEntry configures one entry and returns its teardown function.
	SetupEntry(ctx context.Context, entry *ConfigEntry) (UnloadFunc, error)
}

// UnloadFunc tears down everything SetupEntry created for an entry:
// stops coordinators, disconnects dispatcher handlers, closes clients.
// Entity deregistration is handled by the Manager.
type UnloadFunc func(ctx context.Context) error

// Default timing for entry setup and retry.
const (
	defaultSetupTimeout  = 60 * time.Second
	defaultRetryInterval = 30 * time.Second
	maxParallelSetups    = 4
)

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	// Logger receives lifecycle events. Optional.
	Logger Logger

	// SetupTimeout bounds a single SetupEntry call. Zero means the default.
	SetupTimeout time.Duration

	// RetryInterval is how often entries in setup_retry are re-attempted.
	// Zero means the default.
	RetryInterval time.Duration
}

// Manager owns the config entry lifecycle.
//
// It maps entry domains to registered integrations, drives setup and
// unload, classifies setup failures into entry states, and re-attempts
// entries whose vendor was temporarily unreachable.
//
// All public methods are thread-safe.
type Manager struct {
	repo     EntryRepository
	registry *EntityRegistry
	logger   Logger

	setupTimeout  time.Duration
	retryInterval time.Duration

	mu           sync.Mutex
	integrations map[string]Integration
	unloaders    map[string]UnloadFunc
}

// NewManager creates a manager over an entry repository and entity registry.
func NewManager(repo EntryRepository, registry *EntityRegistry, opts ManagerOptions) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	setupTimeout := opts.SetupTimeout
	if setupTimeout <= 0 {
		setupTimeout = defaultSetupTimeout
	}
	retryInterval := opts.RetryInterval
	if retryInterval <= 0 {
		retryInterval = defaultRetryInterval
	}
	return &Manager{
		repo:          repo,
		registry:      registry,
		logger:        logger,
		setupTimeout:  setupTimeout,
		retryInterval: retryInterval,
		integrations:  make(map[string]Integration),
		unloaders:     make(map[string]UnloadFunc),
	}
}

// Register makes an integration available for entry setup.
// Later registrations for the same domain replace earlier ones.
func (m *Manager) Register(integration Integration) {
	m.mu.Lock()
	m.integrations[integration.Domain()] = integration
	m.mu.Unlock()

	m.logger.Info("integration registered", "domain", integration.Domain())
}

// Registry returns the entity registry the manager maintains.
func (m *Manager) Registry() *EntityRegistry {
	return m.registry
}

// SetupEntry loads a config entry and sets it up.
//
// The resulting state is persisted on the entry:
//   - loaded on success
//   - auth_failed when the integration reports ErrEntryAuthFailed
//   - setup_retry when the integration reports ErrEntryNotReady
//   - setup_error for any other failure
//
// Parameters:
//   - ctx: Bounded internally by the configured setup timeout
//   - id: Config entry ID
//
// Returns:
//   - error: The classified setup error, or nil on success
func (m *Manager) SetupEntry(ctx context.Context, id string) error {
	entry, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if _, loaded := m.unloaders[id]; loaded {
		m.mu.Unlock()
		return nil
	}
	integration, ok := m.integrations[entry.Domain]
	m.mu.Unlock()

	if !ok {
		reason := fmt.Sprintf("no integration for domain %q", entry.Domain)
		if stateErr := m.repo.UpdateState(ctx, id, EntryStateSetupError, reason); stateErr != nil {
			m.logger.Error("persisting entry state failed", "entry_id", id, "error", stateErr)
		}
		return fmt.Errorf("%w: %s", ErrDomainNotRegistered, entry.Domain)
	}

	setupCtx, cancel := context.WithTimeout(ctx, m.setupTimeout)
	defer cancel()

	unload, setupErr := integration.SetupEntry(setupCtx, entry)

	state, reason := classifySetup(setupErr)
	if err := m.repo.UpdateState(ctx, id, state, reason); err != nil {
		m.logger.Error("persisting entry state failed", "entry_id", id, "error", err)
	}

	if setupErr != nil {
		m.logger.Warn("entry setup failed",
			"entry_id", id,
			"domain", entry.Domain,
			"state", string(state),
			"error", setupErr,
		)
		return setupErr
	}

	m.mu.Lock()
	m.unloaders[id] = unload
	m.mu.Unlock()

	m.logger.Info("entry loaded",
		"entry_id", id,
		"domain", entry.Domain,
		"entities", len(m.registry.ListByEntry(id)),
	)
	return nil
}

// UnloadEntry tears down a loaded entry and deregisters its entities.
//
// Returns:
//   - error: ErrEntryNotLoaded if the entry has no active unloader
func (m *Manager) UnloadEntry(ctx context.Context, id string) error {
	m.mu.Lock()
	unload, ok := m.unloaders[id]
	delete(m.unloaders, id)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrEntryNotLoaded, id)
	}

	var unloadErr error
	if unload != nil {
		unloadErr = unload(ctx)
	}

	removed := m.registry.RemoveEntry(id)

	if err := m.repo.UpdateState(ctx, id, EntryStateNotLoaded, ""); err != nil {
		m.logger.Error("persisting entry state failed", "entry_id", id, "error", err)
	}

	m.logger.Info("entry unloaded", "entry_id", id, "entities_removed", removed)
	return unloadErr
}

// SetupAll sets up every persisted entry in parallel.
//
// Individual setup failures are recorded on their entries and logged;
// they do not abort the startup of other entries.
//
// Returns:
//   - error: Only if the entry list itself cannot be loaded
func (m *Manager) SetupAll(ctx context.Context) error {
	entries, err := m.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("listing entries: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelSetups)

	for _, entry := range entries {
		g.Go(func() error {
			// Failures are classified and persisted inside SetupEntry;
			// one bad entry must not stop the rest.
			_ = m.SetupEntry(gctx, entry.ID)
			return nil
		})
	}

	return g.Wait()
}

// StartRetryLoop re-attempts entries stuck in setup_retry until ctx is
// cancelled. Runs in a background goroutine.
func (m *Manager) StartRetryLoop(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(m.retryInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.retryPending(ctx)
			}
		}
	}()
}

// retryPending sets up every entry currently in setup_retry.
func (m *Manager) retryPending(ctx context.Context) {
	entries, err := m.repo.List(ctx)
	if err != nil {
		m.logger.Error("listing entries for retry failed", "error", err)
		return
	}

	for _, entry := range entries {
		if entry.State != EntryStateSetupRetry {
			continue
		}
		m.logger.Info("retrying entry setup", "entry_id", entry.ID, "domain", entry.Domain)
		_ = m.SetupEntry(ctx, entry.ID)
	}
}

// Close unloads every loaded entry.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	ids := make([]string, 0, len(m.unloaders))
	for id := range m.unloaders {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	var firstErr error
	for _, id := range ids {
		if err := m.UnloadEntry(ctx, id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// classifySetup maps a setup error onto an entry state and reason.
func classifySetup(err error) (EntryState, string) {
	switch {
	case err == nil:
		return EntryStateLoaded, ""
	case errors.Is(err, ErrEntryAuthFailed):
		return EntryStateAuthFailed, err.Error()
	case errors.Is(err, ErrEntryNotReady):
		return EntryStateSetupRetry, err.Error()
	default:
		return EntryStateSetupError, err.Error()
	}
}
