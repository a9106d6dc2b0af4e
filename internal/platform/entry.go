package platform

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EntryState describes the lifecycle state of a config entry.
type EntryState string

// Config entry lifecycle states.
//
// State transitions are driven by the Manager:
//
//	not_loaded --SetupEntry--> loaded
//	not_loaded --SetupEntry--> setup_retry   (vendor unreachable)
//	not_loaded --SetupEntry--> auth_failed   (credentials rejected)
//	not_loaded --SetupEntry--> setup_error   (unrecoverable failure)
//	loaded     --UnloadEntry-> not_loaded
const (
	EntryStateNotLoaded  EntryState = "not_loaded"
	EntryStateLoaded     EntryState = "loaded"
	EntryStateSetupError EntryState = "setup_error"
	EntryStateSetupRetry EntryState = "setup_retry"
	EntryStateAuthFailed EntryState = "auth_failed"
)

// ConfigEntry is one configured instance of an integration.
//
// It persists everything an integration needs to reach its vendor service:
// credentials and connection details in Data, user-tunable behaviour in
// Options. Integrations read entries; only the Manager and the API layer
// write them.
type ConfigEntry struct {
	// ID is the stable identifier for this entry (UUID v4).
	ID string `json:"id"`

	// Domain names the integration this entry configures
	// (e.g., "weather", "garagedoor", "nvr").
	Domain string `json:"domain"`

	// Title is the human-readable name shown in the UI.
	Title string `json:"title"`

	// UniqueID prevents configuring the same physical account or device
	// twice within a domain. Empty means no dedup.
	UniqueID string `json:"unique_id,omitempty"`

	// Data holds credentials and connection details (host, username, password).
	Data map[string]any `json:"data"`

	// Options holds user-tunable settings (e.g., snapshot quality).
	Options map[string]any `json:"options"`

	// State is the current lifecycle state.
	State EntryState `json:"state"`

	// StateReason carries a human-readable explanation for error states.
	StateReason string `json:"state_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewConfigEntry creates a config entry in the not_loaded state.
//
// Parameters:
//   - domain: Integration domain the entry configures
//   - title: Human-readable name
//   - data: Credentials and connection details (may be nil)
//
// Returns:
//   - *ConfigEntry: Entry with a fresh UUID, ready to persist
func NewConfigEntry(domain, title string, data map[string]any) *ConfigEntry {
	now := time.Now().UTC()
	if data == nil {
		data = make(map[string]any)
	}
	return &ConfigEntry{
		ID:        uuid.NewString(),
		Domain:    domain,
		Title:     title,
		Data:      data,
		Options:   make(map[string]any),
		State:     EntryStateNotLoaded,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks the entry for structural problems.
//
// Returns:
//   - error: wrapping ErrInvalidEntry, or nil if valid
func (e *ConfigEntry) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidEntry)
	}
	if _, err := uuid.Parse(e.ID); err != nil {
		return fmt.Errorf("%w: id is not a valid UUID: %v", ErrInvalidEntry, err)
	}
	if e.Domain == "" {
		return fmt.Errorf("%w: missing domain", ErrInvalidEntry)
	}
	if e.Title == "" {
		return fmt.Errorf("%w: missing title", ErrInvalidEntry)
	}
	switch e.State {
	case EntryStateNotLoaded, EntryStateLoaded, EntryStateSetupError,
		EntryStateSetupRetry, EntryStateAuthFailed:
	default:
		return fmt.Errorf("%w: unknown state %q", ErrInvalidEntry, e.State)
	}
	return nil
}

// DataString returns a string value from Data, or def if absent or not a string.
//
// Entry data round-trips through JSON, so values arrive as any; this helper
// keeps the type assertions in one place.
func (e *ConfigEntry) DataString(key, def string) string {
	if v, ok := e.Data[key].(string); ok {
		return v
	}
	return def
}

// OptionInt returns an integer option, or def if absent.
//
// JSON unmarshalling produces float64 for numbers; both int and float64
// representations are accepted.
func (e *ConfigEntry) OptionInt(key string, def int) int {
	switch v := e.Options[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return def
	}
}

// DeepCopy returns a copy of the entry with its own Data and Options maps.
// Nested maps inside Data/Options are not copied; entries store flat values.
func (e *ConfigEntry) DeepCopy() *ConfigEntry {
	clone := *e
	clone.Data = make(map[string]any, len(e.Data))
	for k, v := range e.Data {
		clone.Data[k] = v
	}
	clone.Options = make(map[string]any, len(e.Options))
	for k, v := range e.Options {
		clone.Options[k] = v
	}
	return &clone
}
