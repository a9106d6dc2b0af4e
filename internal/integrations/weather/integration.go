package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oakfield/hearth-core/internal/infrastructure/mqtt"
	"github.com/oakfield/hearth-core/internal/platform"
)

// Domain is the integration domain name.
const Domain = "weather"

// Entry option keys.
const (
	// optionHourlyForecast enables the hourly forecast entity for an entry.
	optionHourlyForecast = "hourly_forecast"
)

const defaultPollInterval = 10 * time.Minute

// Bus publishes entity state onto the external message bus.
// Satisfied by mqtt.Client.
type Bus interface {
	PublishRetained(topic string, payload []byte) error
}

// Telemetry records weather observations and poll outcomes.
// Satisfied by influxdb.Client.
type Telemetry interface {
	WriteWeatherObservation(entryID, condition string, temperature, humidity, pressure, windBearing, windSpeed float64)
	WriteCoordinatorRefresh(domain, entryID string, success bool, duration time.Duration)
}

// Options configures the weather integration.
type Options struct {
	// Registry receives the entities each entry creates. Required.
	Registry *platform.EntityRegistry

	// NewProvider builds a vendor client from entry data.
	// Defaults to NewHTTPProvider.
	NewProvider ProviderFactory

	// Bus mirrors entity state onto MQTT. Optional.
	Bus Bus

	// Telemetry records observations in InfluxDB. Optional.
	Telemetry Telemetry

	// Logger receives refresh failures. Optional.
	Logger platform.Logger

	// PollInterval overrides the default 10 minute polling period.
	PollInterval time.Duration
}

// Integration adapts a weather service into platform entities.
//
// Each config entry gets one coordinator polling the vendor, a daily
// forecast entity, and optionally an hourly forecast entity. Entity
// properties read the coordinator snapshot unmodified.
type Integration struct {
	registry     *platform.EntityRegistry
	newProvider  ProviderFactory
	bus          Bus
	telemetry    Telemetry
	logger       platform.Logger
	pollInterval time.Duration
}

// New creates the weather integration.
func New(opts Options) *Integration {
	newProvider := opts.NewProvider
	if newProvider == nil {
		newProvider = NewHTTPProvider
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &Integration{
		registry:     opts.Registry,
		newProvider:  newProvider,
		bus:          opts.Bus,
		telemetry:    opts.Telemetry,
		logger:       opts.Logger,
		pollInterval: pollInterval,
	}
}

// Domain returns the integration domain name.
func (i *Integration) Domain() string { return Domain }

// SetupEntry builds the provider, coordinator, and entities for one entry.
//
// The first refresh runs synchronously; if the vendor is unreachable the
// entry is reported not ready and retried later.
func (i *Integration) SetupEntry(ctx context.Context, entry *platform.ConfigEntry) (platform.UnloadFunc, error) {
	provider, err := i.newProvider(entry.Data)
	if err != nil {
		return nil, fmt.Errorf("building weather provider: %w", err)
	}

	coordinator := platform.NewCoordinator(provider.Fetch, platform.CoordinatorOptions{
		Name:     fmt.Sprintf("%s:%s", Domain, entry.ID),
		Interval: i.pollInterval,
		Logger:   i.logger,
		OnRefresh: func(success bool, duration time.Duration) {
			if i.telemetry != nil {
				i.telemetry.WriteCoordinatorRefresh(Domain, entry.ID, success, duration)
			}
		},
	})

	if err := coordinator.FirstRefresh(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", platform.ErrEntryNotReady, err)
	}

	entities := []*Entity{
		NewEntity(coordinator, ModeDaily, entry.ID, entry.Title),
	}
	if hourly, ok := entry.Options[optionHourlyForecast].(bool); ok && hourly {
		entities = append(entities, NewEntity(coordinator, ModeHourly, entry.ID, entry.Title))
	}

	for _, entity := range entities {
		if err := i.registry.Add(entry.ID, entity); err != nil {
			return nil, err
		}
	}

	removeListener := coordinator.AddListener(func() {
		i.publishState(coordinator, entry.ID, entities)
	})

	// Publish the initial snapshot before the first poll tick
	i.publishState(coordinator, entry.ID, entities)

	coordinator.Start(context.Background())

	unload := func(context.Context) error {
		removeListener()
		coordinator.Stop()
		return nil
	}
	return unload, nil
}

// publishState mirrors the current snapshot onto the bus and telemetry.
func (i *Integration) publishState(coordinator *platform.Coordinator[Snapshot], entryID string, entities []*Entity) {
	if i.telemetry != nil && coordinator.LastUpdateSuccess() {
		snap := coordinator.Data()
		i.telemetry.WriteWeatherObservation(entryID, snap.Condition,
			snap.Temperature, snap.Humidity, snap.Pressure,
			snap.WindBearing, snap.WindSpeed)
	}

	if i.bus == nil {
		return
	}
	for _, entity := range entities {
		payload, err := json.Marshal(entity.State())
		if err != nil {
			continue
		}
		topic := mqtt.Topics{}.EntityState(Domain, entity.UniqueID())
		if err := i.bus.PublishRetained(topic, payload); err != nil && i.logger != nil {
			i.logger.Warn("publishing weather state failed",
				"entity_id", entity.UniqueID(),
				"error", err,
			)
		}
	}
}
