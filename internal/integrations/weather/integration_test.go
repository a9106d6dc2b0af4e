package weather

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/oakfield/hearth-core/internal/platform"
)

// recordingBus captures published state for assertions.
type recordingBus struct {
	mu     sync.Mutex
	topics []string
}

func (b *recordingBus) PublishRetained(topic string, _ []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.topics = append(b.topics, topic)
	return nil
}

func (b *recordingBus) published(prefix string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	count := 0
	for _, t := range b.topics {
		if strings.HasPrefix(t, prefix) {
			count++
		}
	}
	return count
}

func setupIntegration(t *testing.T, provider Provider, bus Bus) (*Integration, *platform.EntityRegistry) {
	t.Helper()
	registry := platform.NewEntityRegistry()
	integration := New(Options{
		Registry: registry,
		Bus:      bus,
		NewProvider: func(map[string]any) (Provider, error) {
			return provider, nil
		},
	})
	return integration, registry
}

func TestSetupEntry_DailyOnlyByDefault(t *testing.T) {
	integration, registry := setupIntegration(t, &staticProvider{snap: Snapshot{Condition: "sunny"}}, nil)
	entry := platform.NewConfigEntry(Domain, "Home", nil)

	unload, err := integration.SetupEntry(context.Background(), entry)
	if err != nil {
		t.Fatalf("SetupEntry() error = %v", err)
	}
	defer unload(context.Background())

	if registry.Count() != 1 {
		t.Fatalf("registry Count() = %d, want 1 (daily only)", registry.Count())
	}
	entity, err := registry.Get("weather-" + entry.ID + "-daily")
	if err != nil {
		t.Fatalf("daily entity not registered: %v", err)
	}
	if !entity.Available() {
		t.Error("daily entity unavailable after successful first refresh")
	}
}

func TestSetupEntry_HourlyOptIn(t *testing.T) {
	integration, registry := setupIntegration(t, &staticProvider{}, nil)
	entry := platform.NewConfigEntry(Domain, "Home", nil)
	entry.Options[optionHourlyForecast] = true

	unload, err := integration.SetupEntry(context.Background(), entry)
	if err != nil {
		t.Fatalf("SetupEntry() error = %v", err)
	}
	defer unload(context.Background())

	if registry.Count() != 2 {
		t.Fatalf("registry Count() = %d, want 2 (daily + hourly)", registry.Count())
	}
	if _, err := registry.Get("weather-" + entry.ID + "-hourly"); err != nil {
		t.Errorf("hourly entity not registered: %v", err)
	}
}

func TestSetupEntry_VendorDownIsNotReady(t *testing.T) {
	provider := &staticProvider{err: errors.New("connection timeout")}
	integration, registry := setupIntegration(t, provider, nil)
	entry := platform.NewConfigEntry(Domain, "Home", nil)

	_, err := integration.SetupEntry(context.Background(), entry)
	if !errors.Is(err, platform.ErrEntryNotReady) {
		t.Errorf("SetupEntry() error = %v, want ErrEntryNotReady", err)
	}
	if registry.Count() != 0 {
		t.Errorf("registry Count() = %d after failed setup, want 0", registry.Count())
	}
}

func TestSetupEntry_BadProviderConfig(t *testing.T) {
	registry := platform.NewEntityRegistry()
	integration := New(Options{Registry: registry}) // default HTTP provider
	entry := platform.NewConfigEntry(Domain, "Home", nil) // no url in data

	_, err := integration.SetupEntry(context.Background(), entry)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("SetupEntry() error = %v, want ErrInvalidConfig", err)
	}
	if errors.Is(err, platform.ErrEntryNotReady) {
		t.Error("config errors must not be classified as not-ready")
	}
}

func TestSetupEntry_PublishesStateToBus(t *testing.T) {
	bus := &recordingBus{}
	integration, _ := setupIntegration(t, &staticProvider{snap: Snapshot{Condition: "sunny"}}, bus)
	entry := platform.NewConfigEntry(Domain, "Home", nil)

	unload, err := integration.SetupEntry(context.Background(), entry)
	if err != nil {
		t.Fatalf("SetupEntry() error = %v", err)
	}
	defer unload(context.Background())

	topic := "hearth/state/weather/weather-" + entry.ID + "-daily"
	if got := bus.published(topic); got < 1 {
		t.Errorf("no state published to %s", topic)
	}
}
