// Package platform provides the integration hosting kernel for Hearth Core.
//
// It owns the pieces every integration builds on:
//
//   - ConfigEntry: a persisted record of one configured integration
//     instance (credentials, options, lifecycle state), stored in SQLite
//     via EntryRepository.
//   - Coordinator: a generic polling loop that fetches vendor snapshots
//     on an interval and fans them out to dependent entities. Entities
//     read the latest snapshot; they never fetch themselves.
//   - Dispatcher: synchronous in-process signals for push-style updates
//     (e.g., a camera's stream source changing under it).
//   - EntityRegistry: the live index of entities, grouped by the config
//     entry that created them.
//   - Manager: drives entry setup and unload, classifies setup failures
//     into entry states, and retries entries whose vendor service was
//     temporarily unreachable.
//
// # Setup Outcome Classification
//
// Integrations signal setup failures by wrapping one of two sentinels:
//
//	ErrEntryAuthFailed  credentials rejected; needs user action
//	ErrEntryNotReady    vendor unreachable; retried automatically
//
// Anything else is persisted as setup_error and left alone.
//
// # Usage
//
//	registry := platform.NewEntityRegistry()
//	manager := platform.NewManager(repo, registry, platform.ManagerOptions{
//	    Logger: log,
//	})
//	manager.Register(weather.New(weatherDeps))
//	if err := manager.SetupAll(ctx); err != nil {
//	    return err
//	}
//	manager.StartRetryLoop(ctx)
package platform
