package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteWeatherObservation records one weather coordinator snapshot.
//
// The write is non-blocking; data is batched and sent asynchronously.
// Fields mirror the snapshot values the entities expose, so graphs and
// the live entity state agree.
//
// Parameters:
//   - entryID: Config entry the observation belongs to
//   - condition: Current condition string (e.g., "partlycloudy")
//   - temperature: Air temperature in degrees Celsius
//   - humidity: Relative humidity percentage
//   - pressure: Barometric pressure in hPa
//   - windBearing: Wind direction in degrees
//   - windSpeed: Wind speed in km/h
func (c *Client) WriteWeatherObservation(entryID, condition string, temperature, humidity, pressure, windBearing, windSpeed float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"weather",
		map[string]string{
			"entry_id":  entryID,
			"condition": condition,
		},
		map[string]interface{}{
			"temperature_c": temperature,
			"humidity_pct":  humidity,
			"pressure_hpa":  pressure,
			"wind_bearing":  windBearing,
			"wind_speed":    windSpeed,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteEntityAvailability records an entity availability transition.
//
// Parameters:
//   - domain: Integration domain (e.g., "nvr", "garagedoor")
//   - entityID: The entity whose availability changed
//   - available: New availability state
func (c *Client) WriteEntityAvailability(domain, entityID string, available bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"entity_availability",
		map[string]string{
			"domain":    domain,
			"entity_id": entityID,
		},
		map[string]interface{}{
			"available": available,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteCoordinatorRefresh records the outcome of one coordinator poll cycle.
//
// Used for tracking vendor API latency and failure rates per entry.
//
// Parameters:
//   - domain: Integration domain
//   - entryID: Config entry the coordinator serves
//   - success: Whether the refresh succeeded
//   - duration: How long the vendor call took
func (c *Client) WriteCoordinatorRefresh(domain, entryID string, success bool, duration time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"coordinator_refresh",
		map[string]string{
			"domain":   domain,
			"entry_id": entryID,
		},
		map[string]interface{}{
			"success":     success,
			"duration_ms": float64(duration.Milliseconds()),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
