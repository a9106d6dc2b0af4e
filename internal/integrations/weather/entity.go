package weather

import (
	"fmt"

	"github.com/oakfield/hearth-core/internal/platform"
)

// ForecastMode selects which forecast series an entity exposes.
type ForecastMode string

// Forecast modes. One entity is created per mode; daily is the default
// and hourly is opt-in per entry.
const (
	ModeDaily  ForecastMode = "daily"
	ModeHourly ForecastMode = "hourly"
)

// Entity exposes one weather station in one forecast mode.
//
// All properties read through the shared coordinator snapshot and return
// the stored values unmodified. The entity holds no state of its own
// beyond identity.
type Entity struct {
	coordinator *platform.Coordinator[Snapshot]
	mode        ForecastMode
	name        string
	uniqueID    string
}

// NewEntity creates a weather entity bound to a coordinator.
//
// Parameters:
//   - coordinator: Shared snapshot source for all entities of the entry
//   - mode: Which forecast series this entity exposes
//   - entryID: Config entry ID, used to derive the unique ID
//   - title: Entry title, used to derive the display name
func NewEntity(coordinator *platform.Coordinator[Snapshot], mode ForecastMode, entryID, title string) *Entity {
	return &Entity{
		coordinator: coordinator,
		mode:        mode,
		name:        fmt.Sprintf("%s %s", title, mode),
		uniqueID:    fmt.Sprintf("weather-%s-%s", entryID, mode),
	}
}

// UniqueID returns the stable registry identifier.
func (e *Entity) UniqueID() string { return e.uniqueID }

// Name returns the display name.
func (e *Entity) Name() string { return e.name }

// Domain returns the owning integration domain.
func (e *Entity) Domain() string { return Domain }

// Available reports whether the last coordinator poll succeeded.
func (e *Entity) Available() bool { return e.coordinator.LastUpdateSuccess() }

// Condition returns the current condition string from the snapshot.
func (e *Entity) Condition() string { return e.coordinator.Data().Condition }

// Humidity returns the relative humidity percentage from the snapshot.
func (e *Entity) Humidity() float64 { return e.coordinator.Data().Humidity }

// Pressure returns the barometric pressure from the snapshot.
func (e *Entity) Pressure() float64 { return e.coordinator.Data().Pressure }

// Temperature returns the air temperature from the snapshot.
func (e *Entity) Temperature() float64 { return e.coordinator.Data().Temperature }

// WindBearing returns the wind direction from the snapshot.
func (e *Entity) WindBearing() float64 { return e.coordinator.Data().WindBearing }

// WindSpeed returns the wind speed from the snapshot.
func (e *Entity) WindSpeed() float64 { return e.coordinator.Data().WindSpeed }

// Forecast returns the forecast series for the entity's mode.
//
// An unrecognised mode is a programming error and panics; modes are
// fixed at construction and validated at setup.
func (e *Entity) Forecast() []Forecast {
	switch e.mode {
	case ModeDaily:
		return e.coordinator.Data().DailyForecast
	case ModeHourly:
		return e.coordinator.Data().HourlyForecast
	default:
		panic(fmt.Sprintf("weather: unknown forecast mode %q", e.mode))
	}
}

// State returns the externally visible state for the API and bus.
func (e *Entity) State() any {
	snap := e.coordinator.Data()
	return map[string]any{
		"condition":    snap.Condition,
		"humidity":     snap.Humidity,
		"pressure":     snap.Pressure,
		"temperature":  snap.Temperature,
		"wind_bearing": snap.WindBearing,
		"wind_speed":   snap.WindSpeed,
		"forecast":     e.Forecast(),
		"available":    e.Available(),
	}
}
