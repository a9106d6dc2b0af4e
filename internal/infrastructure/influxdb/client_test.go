package influxdb

import (
	"context"
	"errors"
	"testing"

	"github.com/oakfield/hearth-core/internal/infrastructure/config"
)

func TestConnect_Disabled(t *testing.T) {
	cfg := config.InfluxDBConfig{Enabled: false}

	client, err := Connect(cfg)
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
	if client != nil {
		t.Error("Connect() returned non-nil client for disabled config")
	}
}

func TestClose_NeverConnected(t *testing.T) {
	client := &Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on zero client error = %v, want nil", err)
	}
}

func TestHealthCheck_NotConnected(t *testing.T) {
	client := &Client{}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestWrites_NoopWhenDisconnected(t *testing.T) {
	// Writes must be silently dropped when disconnected; a panic here
	// means a write helper touched the nil writeAPI.
	client := &Client{}

	client.WriteWeatherObservation("entry-1", "sunny", 21.5, 48, 1013, 180, 12)
	client.WriteEntityAvailability("nvr", "camera-1", true)
	client.WriteCoordinatorRefresh("weather", "entry-1", true, 0)
	client.WritePoint("custom", nil, map[string]interface{}{"v": 1})
	client.Flush()
}

func TestSetOnError(t *testing.T) {
	client := &Client{}
	called := false
	client.SetOnError(func(error) { called = true })

	errorsCh := make(chan error, 1)
	errorsCh <- errors.New("write failed")
	close(errorsCh)

	client.handleWriteErrors(errorsCh)

	if !called {
		t.Error("onError callback was not invoked")
	}
}
