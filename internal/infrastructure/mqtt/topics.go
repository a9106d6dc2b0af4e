package mqtt

import "fmt"

// Topic prefixes for the Hearth MQTT bus.
//
// Entity topics use the flat scheme: hearth/{category}/{domain}/{id}
const (
	// TopicPrefix is the base for all Hearth topics.
	TopicPrefix = "hearth"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "hearth/system"

	// TopicPrefixSignal is the base for dispatcher signal mirror topics.
	TopicPrefixSignal = "hearth/signal"
)

// Topics provides builders for Hearth MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
// Example:
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.EntityState("weather", "weather-home-daily")
//	// Returns: "hearth/state/weather/weather-home-daily"
type Topics struct{}

// EntityState returns the topic for entity state publications.
//
// Example: hearth/state/nvr/camera-front-door
func (Topics) EntityState(domain, entityID string) string {
	return fmt.Sprintf("%s/state/%s/%s", TopicPrefix, domain, entityID)
}

// EntityAvailability returns the topic for entity availability changes.
//
// Example: hearth/availability/nvr/camera-front-door
func (Topics) EntityAvailability(domain, entityID string) string {
	return fmt.Sprintf("%s/availability/%s/%s", TopicPrefix, domain, entityID)
}

// EntryEvent returns the topic for config entry lifecycle events
// (loaded, setup_retry, auth_failed, unloaded).
//
// Example: hearth/entry/2f6c.../event
func (Topics) EntryEvent(entryID string) string {
	return fmt.Sprintf("%s/entry/%s/event", TopicPrefix, entryID)
}

// CameraSourceSignal returns the topic carrying camera stream source
// updates for one camera of one config entry. The payload is the new
// stream URL. The platform dispatcher mirrors these messages to
// in-process subscribers.
//
// Example: hearth/signal/camera_source/2f6c.../cam-01
func (Topics) CameraSourceSignal(entryID, cameraID string) string {
	return fmt.Sprintf("%s/camera_source/%s/%s", TopicPrefixSignal, entryID, cameraID)
}

// SystemStatus returns the system status topic (online/offline, LWT).
//
// Example: hearth/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllEntityStates returns a pattern matching all entity state publications.
//
// Pattern: hearth/state/+/+
func (Topics) AllEntityStates() string {
	return fmt.Sprintf("%s/state/+/+", TopicPrefix)
}

// AllCameraSourceSignals returns a pattern matching camera source updates
// for every entry and camera.
//
// Pattern: hearth/signal/camera_source/+/+
func (Topics) AllCameraSourceSignals() string {
	return fmt.Sprintf("%s/camera_source/+/+", TopicPrefixSignal)
}

// AllEntryEvents returns a pattern matching all entry lifecycle events.
//
// Pattern: hearth/entry/+/event
func (Topics) AllEntryEvents() string {
	return fmt.Sprintf("%s/entry/+/event", TopicPrefix)
}
