// Package weather adapts a weather service into Hearth entities.
//
// One config entry produces one coordinator polling the vendor endpoint
// and one entity per forecast mode: daily always, hourly when the entry
// option "hourly_forecast" is set. Both entities share the coordinator
// snapshot; every property returns the corresponding snapshot field
// unmodified. Entities never fetch data themselves.
//
// Entity state is mirrored onto the MQTT bus under
// hearth/state/weather/{entity} after every refresh, and observations
// are recorded in InfluxDB when telemetry is enabled.
package weather
