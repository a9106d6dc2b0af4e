package weather

import (
	"context"
	"time"
)

// Snapshot is the latest vendor-reported weather state.
//
// The coordinator owns the snapshot; entities read fields through it and
// never mutate it. Every entity property returns the corresponding field
// unmodified.
type Snapshot struct {
	Condition   string  `json:"condition"`
	Humidity    float64 `json:"humidity"`
	Pressure    float64 `json:"pressure"`
	Temperature float64 `json:"temperature"`
	WindBearing float64 `json:"wind_bearing"`
	WindSpeed   float64 `json:"wind_speed"`

	DailyForecast  []Forecast `json:"daily_forecast"`
	HourlyForecast []Forecast `json:"hourly_forecast"`
}

// Forecast is one forecast period (a day or an hour depending on mode).
type Forecast struct {
	Time                     time.Time `json:"time"`
	Condition                string    `json:"condition"`
	Temperature              float64   `json:"temperature"`
	TemperatureLow           float64   `json:"temperature_low,omitempty"`
	Precipitation            float64   `json:"precipitation"`
	PrecipitationProbability float64   `json:"precipitation_probability"`
	WindBearing              float64   `json:"wind_bearing"`
	WindSpeed                float64   `json:"wind_speed"`
}

// Provider fetches weather snapshots from a vendor service.
//
// Implementations wrap a vendor SDK or HTTP API. Fetch is called by the
// coordinator on every poll cycle and must honour ctx cancellation.
type Provider interface {
	Fetch(ctx context.Context) (Snapshot, error)
}

// ProviderFactory builds a Provider from a config entry's stored data.
type ProviderFactory func(data map[string]any) (Provider, error)
