package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewHTTPProvider_RequiresURL(t *testing.T) {
	_, err := NewHTTPProvider(map[string]any{})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("NewHTTPProvider() error = %v, want ErrInvalidConfig", err)
	}
}

func TestHTTPProvider_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization header = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"condition": "rainy",
			"humidity": 85,
			"pressure": 1002.5,
			"temperature": 12.3,
			"wind_bearing": 90,
			"wind_speed": 22,
			"daily_forecast": [{"condition": "rainy", "temperature": 11}]
		}`))
	}))
	defer server.Close()

	provider, err := NewHTTPProvider(map[string]any{
		"url":     server.URL,
		"api_key": "test-key",
	})
	if err != nil {
		t.Fatalf("NewHTTPProvider() error = %v", err)
	}

	snap, err := provider.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if snap.Condition != "rainy" || snap.Temperature != 12.3 {
		t.Errorf("Fetch() = %+v", snap)
	}
	if len(snap.DailyForecast) != 1 {
		t.Errorf("DailyForecast has %d periods, want 1", len(snap.DailyForecast))
	}
}

func TestHTTPProvider_FetchErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	provider, err := NewHTTPProvider(map[string]any{"url": server.URL})
	if err != nil {
		t.Fatalf("NewHTTPProvider() error = %v", err)
	}

	if _, err := provider.Fetch(context.Background()); !errors.Is(err, ErrFetchFailed) {
		t.Errorf("Fetch() error = %v, want ErrFetchFailed", err)
	}
}
