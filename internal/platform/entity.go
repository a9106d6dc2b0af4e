package platform

// Entity is a named, uniquely identified object exposing typed state to
// the UI and automation layers.
//
// Entities are created once at entry setup and removed on unload. Their
// UniqueID is stable for their lifetime and globally unique across the
// registry. Entities derive state from a coordinator snapshot; they do
// not fetch data themselves.
type Entity interface {
	// UniqueID returns the stable, registry-wide identifier.
	UniqueID() string

	// Name returns the human-readable name.
	Name() string

	// Domain returns the integration domain that owns the entity.
	Domain() string

	// Available reports whether the entity's backing data is current.
	Available() bool

	// State returns the entity's externally visible state as a
	// JSON-serialisable value.
	State() any
}

// DeviceInfo describes the physical device an entity belongs to.
// Used by the API layer to group entities per device.
type DeviceInfo struct {
	Identifiers  []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Model        string   `json:"model,omitempty"`
	Name         string   `json:"name"`
	SWVersion    string   `json:"sw_version,omitempty"`
}

// DeviceInfoProvider is implemented by entities that can describe their
// physical device.
type DeviceInfoProvider interface {
	DeviceInfo() DeviceInfo
}
