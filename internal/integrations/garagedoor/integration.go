package garagedoor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oakfield/hearth-core/internal/infrastructure/mqtt"
	"github.com/oakfield/hearth-core/internal/platform"
)

// Domain is the integration domain name.
const Domain = "garagedoor"

const (
	defaultPollInterval = 30 * time.Second
	defaultLoginTimeout = 15 * time.Second
)

// Bus publishes entity state onto the external message bus.
// Satisfied by mqtt.Client.
type Bus interface {
	PublishRetained(topic string, payload []byte) error
}

// Telemetry records poll outcomes. Satisfied by influxdb.Client.
type Telemetry interface {
	WriteCoordinatorRefresh(domain, entryID string, success bool, duration time.Duration)
}

// Options configures the garage door integration.
type Options struct {
	// Registry receives the entities each entry creates. Required.
	Registry *platform.EntityRegistry

	// NewClient builds a vendor client from entry data.
	// Defaults to NewHTTPClient.
	NewClient ClientFactory

	// Bus mirrors entity state onto MQTT. Optional.
	Bus Bus

	// Telemetry records poll outcomes in InfluxDB. Optional.
	Telemetry Telemetry

	// Logger receives refresh failures. Optional.
	Logger platform.Logger

	// PollInterval overrides the default 30 second polling period.
	PollInterval time.Duration

	// LoginTimeout bounds the setup-time login call.
	LoginTimeout time.Duration
}

// Integration adapts a garage door controller into platform cover entities.
//
// Setup authenticates the stored credentials before anything else:
// a rejected login reports ErrEntryAuthFailed so the entry surfaces as
// needing re-authentication, while transport and decoding failures
// report ErrEntryNotReady and are retried.
type Integration struct {
	registry     *platform.EntityRegistry
	newClient    ClientFactory
	bus          Bus
	telemetry    Telemetry
	logger       platform.Logger
	pollInterval time.Duration
	loginTimeout time.Duration
}

// New creates the garage door integration.
func New(opts Options) *Integration {
	newClient := opts.NewClient
	if newClient == nil {
		newClient = NewHTTPClient
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	loginTimeout := opts.LoginTimeout
	if loginTimeout <= 0 {
		loginTimeout = defaultLoginTimeout
	}
	return &Integration{
		registry:     opts.Registry,
		newClient:    newClient,
		bus:          opts.Bus,
		telemetry:    opts.Telemetry,
		logger:       opts.Logger,
		pollInterval: pollInterval,
		loginTimeout: loginTimeout,
	}
}

// Domain returns the integration domain name.
func (i *Integration) Domain() string { return Domain }

// SetupEntry authenticates the client and builds door entities.
//
// Failure classification:
//   - login returns false: ErrEntryAuthFailed (credentials rejected)
//   - login returns ErrRequestFailed or ErrMalformedResponse:
//     ErrEntryNotReady (controller transient, retried)
//   - anything else: propagated unwrapped (unrecoverable)
func (i *Integration) SetupEntry(ctx context.Context, entry *platform.ConfigEntry) (platform.UnloadFunc, error) {
	client, err := i.newClient(entry.Data)
	if err != nil {
		return nil, fmt.Errorf("building garage door client: %w", err)
	}

	loginCtx, cancel := context.WithTimeout(ctx, i.loginTimeout)
	defer cancel()

	authenticated, err := client.Login(loginCtx)
	if err != nil {
		if errors.Is(err, ErrRequestFailed) || errors.Is(err, ErrMalformedResponse) {
			return nil, fmt.Errorf("%w: %v", platform.ErrEntryNotReady, err)
		}
		return nil, fmt.Errorf("logging in: %w", err)
	}
	if !authenticated {
		return nil, fmt.Errorf("%w: controller rejected credentials", platform.ErrEntryAuthFailed)
	}

	coordinator := platform.NewCoordinator(func(ctx context.Context) (map[string]Door, error) {
		doors, err := client.Doors(ctx)
		if err != nil {
			return nil, err
		}
		byID := make(map[string]Door, len(doors))
		for _, door := range doors {
			byID[door.ID] = door
		}
		return byID, nil
	}, platform.CoordinatorOptions{
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

	entities := make([]*CoverEntity, 0, len(coordinator.Data()))
	for _, door := range coordinator.Data() {
		entity := NewCoverEntity(coordinator, client, entry.ID, door)
		if err := i.registry.Add(entry.ID, entity); err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}

	removeListener := coordinator.AddListener(func() {
		i.publishState(entities)
	})
	i.publishState(entities)

	coordinator.Start(context.Background())

	unload := func(context.Context) error {
		removeListener()
		coordinator.Stop()
		return nil
	}
	return unload, nil
}

// publishState mirrors door state onto the bus.
func (i *Integration) publishState(entities []*CoverEntity) {
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
			i.logger.Warn("publishing door state failed",
				"entity_id", entity.UniqueID(),
				"error", err,
			)
		}
	}
}
