package platform

import (
	"fmt"
	"sort"
	"sync"
)

// EntityRegistry is the in-memory index of all live entities.
//
// Entities are registered under the config entry that created them so an
// entry unload removes exactly its own entities. The API layer reads the
// registry to list entities and serve state.
//
// All public methods are thread-safe.
type EntityRegistry struct {
	mu       sync.RWMutex
	entities map[string]Entity   // by unique ID
	byEntry  map[string][]string // entry ID -> unique IDs
	logger   Logger
}

// NewEntityRegistry creates an empty registry.
func NewEntityRegistry() *EntityRegistry {
	return &EntityRegistry{
		entities: make(map[string]Entity),
		byEntry:  make(map[string][]string),
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *EntityRegistry) SetLogger(logger Logger) {
	r.logger = logger
}

// Add registers an entity under a config entry.
//
// Parameters:
//   - entryID: The config entry that created the entity
//   - entity: The entity to register
//
// Returns:
//   - error: ErrEntityExists if the unique ID is already registered
func (r *EntityRegistry) Add(entryID string, entity Entity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := entity.UniqueID()
	if _, exists := r.entities[id]; exists {
		return fmt.Errorf("%w: %s", ErrEntityExists, id)
	}

	r.entities[id] = entity
	r.byEntry[entryID] = append(r.byEntry[entryID], id)

	r.logger.Debug("entity registered",
		"entity_id", id,
		"domain", entity.Domain(),
		"entry_id", entryID,
	)
	return nil
}

// Get retrieves an entity by unique ID.
//
// Returns:
//   - Entity: The registered entity
//   - error: ErrEntityNotFound if the ID is unknown
func (r *EntityRegistry) Get(uniqueID string) (Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entity, ok := r.entities[uniqueID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntityNotFound, uniqueID)
	}
	return entity, nil
}

// List returns all registered entities sorted by unique ID.
func (r *EntityRegistry) List() []Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.entities))
	for id := range r.entities {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	entities := make([]Entity, 0, len(ids))
	for _, id := range ids {
		entities = append(entities, r.entities[id])
	}
	return entities
}

// ListByEntry returns the entities a config entry created, sorted by
// unique ID. Unknown entry IDs return an empty slice.
func (r *EntityRegistry) ListByEntry(entryID string) []Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := append([]string(nil), r.byEntry[entryID]...)
	sort.Strings(ids)

	entities := make([]Entity, 0, len(ids))
	for _, id := range ids {
		if entity, ok := r.entities[id]; ok {
			entities = append(entities, entity)
		}
	}
	return entities
}

// RemoveEntry deregisters every entity a config entry created.
//
// Returns:
//   - int: The number of entities removed
func (r *EntityRegistry) RemoveEntry(entryID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := r.byEntry[entryID]
	for _, id := range ids {
		delete(r.entities, id)
	}
	delete(r.byEntry, entryID)

	if len(ids) > 0 {
		r.logger.Debug("entities deregistered",
			"entry_id", entryID,
			"count", len(ids),
		)
	}
	return len(ids)
}

// Count returns the number of registered entities.
func (r *EntityRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entities)
}
