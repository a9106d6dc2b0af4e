package weather

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oakfield/hearth-core/internal/platform"
)

// staticProvider returns a fixed snapshot or error.
type staticProvider struct {
	snap Snapshot
	err  error
}

func (p *staticProvider) Fetch(context.Context) (Snapshot, error) {
	return p.snap, p.err
}

func newTestCoordinator(t *testing.T, provider Provider) *platform.Coordinator[Snapshot] {
	t.Helper()
	coord := platform.NewCoordinator(provider.Fetch, platform.CoordinatorOptions{
		Name:     "weather:test",
		Interval: time.Hour,
	})
	return coord
}

func TestEntity_PropertiesMirrorSnapshot(t *testing.T) {
	snap := Snapshot{
		Condition:   "partlycloudy",
		Humidity:    72,
		Pressure:    1013.2,
		Temperature: 18.4,
		WindBearing: 225,
		WindSpeed:   14.8,
		DailyForecast: []Forecast{
			{Condition: "rainy", Temperature: 16, TemperatureLow: 9},
		},
		HourlyForecast: []Forecast{
			{Condition: "cloudy", Temperature: 17},
			{Condition: "rainy", Temperature: 16},
		},
	}
	coord := newTestCoordinator(t, &staticProvider{snap: snap})
	if err := coord.FirstRefresh(context.Background()); err != nil {
		t.Fatalf("FirstRefresh() error = %v", err)
	}

	entity := NewEntity(coord, ModeDaily, "entry-1", "Home")

	if got := entity.Condition(); got != snap.Condition {
		t.Errorf("Condition() = %q, want %q", got, snap.Condition)
	}
	if got := entity.Humidity(); got != snap.Humidity {
		t.Errorf("Humidity() = %v, want %v", got, snap.Humidity)
	}
	if got := entity.Pressure(); got != snap.Pressure {
		t.Errorf("Pressure() = %v, want %v", got, snap.Pressure)
	}
	if got := entity.Temperature(); got != snap.Temperature {
		t.Errorf("Temperature() = %v, want %v", got, snap.Temperature)
	}
	if got := entity.WindBearing(); got != snap.WindBearing {
		t.Errorf("WindBearing() = %v, want %v", got, snap.WindBearing)
	}
	if got := entity.WindSpeed(); got != snap.WindSpeed {
		t.Errorf("WindSpeed() = %v, want %v", got, snap.WindSpeed)
	}
}

func TestEntity_ForecastPerMode(t *testing.T) {
	snap := Snapshot{
		DailyForecast:  []Forecast{{Condition: "sunny"}},
		HourlyForecast: []Forecast{{Condition: "cloudy"}, {Condition: "rainy"}},
	}
	coord := newTestCoordinator(t, &staticProvider{snap: snap})
	if err := coord.FirstRefresh(context.Background()); err != nil {
		t.Fatalf("FirstRefresh() error = %v", err)
	}

	daily := NewEntity(coord, ModeDaily, "entry-1", "Home")
	hourly := NewEntity(coord, ModeHourly, "entry-1", "Home")

	if got := daily.Forecast(); len(got) != 1 || got[0].Condition != "sunny" {
		t.Errorf("daily Forecast() = %v", got)
	}
	if got := hourly.Forecast(); len(got) != 2 {
		t.Errorf("hourly Forecast() returned %d periods, want 2", len(got))
	}
}

func TestEntity_UnknownModePanics(t *testing.T) {
	coord := newTestCoordinator(t, &staticProvider{})
	entity := NewEntity(coord, ForecastMode("weekly"), "entry-1", "Home")

	defer func() {
		if recover() == nil {
			t.Error("Forecast() with unknown mode did not panic")
		}
	}()
	entity.Forecast()
}

func TestEntity_AvailabilityTracksCoordinator(t *testing.T) {
	provider := &staticProvider{snap: Snapshot{Condition: "sunny"}}
	coord := newTestCoordinator(t, provider)
	entity := NewEntity(coord, ModeDaily, "entry-1", "Home")

	if entity.Available() {
		t.Error("Available() = true before any refresh")
	}

	if err := coord.FirstRefresh(context.Background()); err != nil {
		t.Fatalf("FirstRefresh() error = %v", err)
	}
	if !entity.Available() {
		t.Error("Available() = false after successful refresh")
	}

	provider.err = errors.New("vendor down")
	coord.FirstRefresh(context.Background())
	if entity.Available() {
		t.Error("Available() = true after failed refresh")
	}
}

func TestEntity_Identity(t *testing.T) {
	coord := newTestCoordinator(t, &staticProvider{})
	entity := NewEntity(coord, ModeDaily, "entry-1", "Home Weather")

	if got := entity.UniqueID(); got != "weather-entry-1-daily" {
		t.Errorf("UniqueID() = %q", got)
	}
	if got := entity.Name(); got != "Home Weather daily" {
		t.Errorf("Name() = %q", got)
	}
	if got := entity.Domain(); got != "weather" {
		t.Errorf("Domain() = %q", got)
	}
}
