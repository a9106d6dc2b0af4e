package nvr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oakfield/hearth-core/internal/infrastructure/mqtt"
	"github.com/oakfield/hearth-core/internal/platform"
)

// Domain is the integration domain name.
const Domain = "nvr"

// Entry option keys.
const (
	// optionSnapshotQuality selects the vendor quality level for still
	// image capture (1 highest, 5 lowest).
	optionSnapshotQuality = "snapshot_quality"
)

const (
	defaultPollInterval    = 30 * time.Second
	defaultSnapshotQuality = 1
	busQoS                 = 1
)

// SignalCameraSource names the dispatcher signal carrying stream source
// updates for one camera. The payload is the new source URL string.
func SignalCameraSource(entryID, cameraID string) string {
	return fmt.Sprintf("camera_source_changed/%s/%s", entryID, cameraID)
}

// Bus is the message bus surface the integration uses: publishing entity
// state and receiving camera source updates from sidecar processes.
// Satisfied by mqtt.Client.
type Bus interface {
	PublishRetained(topic string, payload []byte) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Telemetry records poll outcomes and availability transitions.
// Satisfied by influxdb.Client.
type Telemetry interface {
	WriteCoordinatorRefresh(domain, entryID string, success bool, duration time.Duration)
	WriteEntityAvailability(domain, entityID string, available bool)
}

// Options configures the NVR integration.
type Options struct {
	// Registry receives the entities each entry creates. Required.
	Registry *platform.EntityRegistry

	// Dispatcher delivers camera source update signals. Required.
	Dispatcher *platform.Dispatcher

	// NewClient builds a vendor client from entry data.
	// Defaults to NewHTTPClient.
	NewClient ClientFactory

	// Bus mirrors entity state onto MQTT and feeds source updates from
	// the bus into the dispatcher. Optional.
	Bus Bus

	// Telemetry records poll outcomes in InfluxDB. Optional.
	Telemetry Telemetry

	// Logger receives refresh and command failures. Optional.
	Logger platform.Logger

	// PollInterval overrides the default 30 second polling period.
	PollInterval time.Duration
}

// Integration adapts a surveillance station into platform camera entities.
//
// Setup verifies the surveillance API responds before creating anything.
// Each camera on the station becomes one entity sharing the entry's
// coordinator. Stream source updates are push, not poll: they arrive as
// dispatcher signals keyed by entry and camera ID, and each entity swaps
// its own stream source in place. Updates for camera X never touch
// camera Y.
type Integration struct {
	registry     *platform.EntityRegistry
	dispatcher   *platform.Dispatcher
	newClient    ClientFactory
	bus          Bus
	telemetry    Telemetry
	logger       platform.Logger
	pollInterval time.Duration
}

// New creates the NVR integration.
func New(opts Options) *Integration {
	newClient := opts.NewClient
	if newClient == nil {
		newClient = NewHTTPClient
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &Integration{
		registry:     opts.Registry,
		dispatcher:   opts.Dispatcher,
		newClient:    newClient,
		bus:          opts.Bus,
		telemetry:    opts.Telemetry,
		logger:       opts.Logger,
		pollInterval: pollInterval,
	}
}

// Domain returns the integration domain name.
func (i *Integration) Domain() string { return Domain }

// SetupEntry verifies the surveillance API and builds camera entities.
//
// Failure classification:
//   - ErrRequestFailed or ErrAPIError from the availability check or
//     first poll: ErrEntryNotReady (station transient, retried)
//   - anything else: propagated unwrapped (unrecoverable)
func (i *Integration) SetupEntry(ctx context.Context, entry *platform.ConfigEntry) (platform.UnloadFunc, error) {
	client, err := i.newClient(entry.Data)
	if err != nil {
		return nil, fmt.Errorf("building surveillance client: %w", err)
	}

	if _, err := client.Info(ctx); err != nil {
		if errors.Is(err, ErrRequestFailed) || errors.Is(err, ErrAPIError) {
			return nil, fmt.Errorf("%w: surveillance api unavailable: %v", platform.ErrEntryNotReady, err)
		}
		return nil, fmt.Errorf("checking surveillance api: %w", err)
	}

	coordinator := platform.NewCoordinator(func(ctx context.Context) (map[string]Camera, error) {
		cameras, err := client.Cameras(ctx)
		if err != nil {
			return nil, err
		}
		byID := make(map[string]Camera, len(cameras))
		for _, camera := range cameras {
			byID[camera.ID] = camera
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

	quality := entry.OptionInt(optionSnapshotQuality, defaultSnapshotQuality)

	var (
		entities    []*CameraEntity
		disconnects []func()
	)
	for _, camera := range coordinator.Data() {
		entity := NewCameraEntity(coordinator, client, entry.ID, camera, quality, i.logger)
		if err := i.registry.Add(entry.ID, entity); err != nil {
			for _, disconnect := range disconnects {
				disconnect()
			}
			return nil, err
		}
		disconnect := i.dispatcher.Connect(
			SignalCameraSource(entry.ID, camera.ID),
			entity.handleSourceUpdate,
		)
		entities = append(entities, entity)
		disconnects = append(disconnects, disconnect)
	}

	busTopic, err := i.bridgeBusSignals(entry.ID)
	if err != nil {
		for _, disconnect := range disconnects {
			disconnect()
		}
		return nil, err
	}

	removeListener := coordinator.AddListener(func() {
		i.publishState(entities)
	})
	i.publishState(entities)

	coordinator.Start(context.Background())

	unload := func(context.Context) error {
		removeListener()
		for _, disconnect := range disconnects {
			disconnect()
		}
		if i.bus != nil && busTopic != "" {
			if err := i.bus.Unsubscribe(busTopic); err != nil && i.logger != nil {
				i.logger.Warn("unsubscribing camera source topic failed", "error", err)
			}
		}
		coordinator.Stop()
		return nil
	}
	return unload, nil
}

// bridgeBusSignals subscribes to the entry's camera source topics and
// forwards payloads into the dispatcher. Sidecar processes publish to
// hearth/signal/camera_source/{entry}/{camera} when a stream moves.
func (i *Integration) bridgeBusSignals(entryID string) (string, error) {
	if i.bus == nil {
		return "", nil
	}

	topic := mqtt.Topics{}.CameraSourceSignal(entryID, "+")
	err := i.bus.Subscribe(topic, busQoS, func(topic string, payload []byte) error {
		segments := strings.Split(topic, "/")
		cameraID := segments[len(segments)-1]
		i.dispatcher.Send(SignalCameraSource(entryID, cameraID), string(payload))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("subscribing camera source topic: %w", err)
	}
	return topic, nil
}

// publishState mirrors camera state onto the bus and records
// availability in telemetry.
func (i *Integration) publishState(entities []*CameraEntity) {
	for _, entity := range entities {
		if i.telemetry != nil {
			i.telemetry.WriteEntityAvailability(Domain, entity.UniqueID(), entity.Available())
		}
		if i.bus == nil {
			continue
		}
		payload, err := json.Marshal(entity.State())
		if err != nil {
			continue
		}
		topic := mqtt.Topics{}.EntityState(Domain, entity.UniqueID())
		if err := i.bus.PublishRetained(topic, payload); err != nil && i.logger != nil {
			i.logger.Warn("publishing camera state failed",
				"entity_id", entity.UniqueID(),
				"error", err,
			)
		}
	}
}
