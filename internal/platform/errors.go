package platform

import "errors"

// Domain errors for the platform package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, platform.ErrEntryAuthFailed) {
//	    // prompt for re-authentication
//	}
var (
	// ErrEntryNotFound is returned when a config entry ID does not exist.
	ErrEntryNotFound = errors.New("platform: entry not found")

	// ErrEntryExists is returned when creating an entry that collides with an
	// existing (domain, unique_id) pair.
	ErrEntryExists = errors.New("platform: entry already exists")

	// ErrInvalidEntry is returned when config entry validation fails.
	ErrInvalidEntry = errors.New("platform: invalid entry")

	// ErrEntryAuthFailed signals that an integration could not authenticate
	// with its vendor service. The entry needs new credentials; retrying with
	// the stored ones will not help.
	ErrEntryAuthFailed = errors.New("platform: entry authentication failed")

	// ErrEntryNotReady signals a transient setup failure. The vendor service
	// is unreachable or not yet responding; the manager schedules a retry.
	ErrEntryNotReady = errors.New("platform: entry not ready")

	// ErrEntryNotLoaded is returned when unloading an entry that is not loaded.
	ErrEntryNotLoaded = errors.New("platform: entry not loaded")

	// ErrDomainNotRegistered is returned when an entry references an
	// integration domain the manager does not know.
	ErrDomainNotRegistered = errors.New("platform: integration domain not registered")

	// ErrEntityNotFound is returned when an entity ID does not exist in the registry.
	ErrEntityNotFound = errors.New("platform: entity not found")

	// ErrEntityExists is returned when registering an entity whose unique ID
	// is already registered.
	ErrEntityExists = errors.New("platform: entity already registered")

	// ErrCoordinatorStopped is returned when refreshing a stopped coordinator.
	ErrCoordinatorStopped = errors.New("platform: coordinator stopped")
)
