// Hearth Core - Home Integration Platform
//
// This is the main entry point for the Hearth Core application.
// Hearth Core hosts vendor integrations behind a common entity model:
//   - Config entries hold per-instance credentials and options
//   - Coordinators poll vendor APIs on fixed intervals
//   - Entities expose the polled state over MQTT, REST, and WebSocket
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/oakfield/hearth-core/migrations"

	"github.com/oakfield/hearth-core/internal/api"
	"github.com/oakfield/hearth-core/internal/infrastructure/config"
	"github.com/oakfield/hearth-core/internal/infrastructure/database"
	"github.com/oakfield/hearth-core/internal/infrastructure/influxdb"
	"github.com/oakfield/hearth-core/internal/infrastructure/logging"
	"github.com/oakfield/hearth-core/internal/infrastructure/mqtt"
	"github.com/oakfield/hearth-core/internal/integrations/garagedoor"
	"github.com/oakfield/hearth-core/internal/integrations/nvr"
	"github.com/oakfield/hearth-core/internal/integrations/weather"
	"github.com/oakfield/hearth-core/internal/platform"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Hearth Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Platform kernel: entry repository, entity registry, dispatcher, manager
	entryRepo := platform.NewSQLiteEntryRepository(db.DB)
	registry := platform.NewEntityRegistry()
	registry.SetLogger(log)
	dispatcher := platform.NewDispatcher()

	manager := platform.NewManager(entryRepo, registry, platform.ManagerOptions{
		Logger: log,
	})

	registerIntegrations(manager, registry, dispatcher, mqttClient, influxClient, cfg, log)

	if err := manager.SetupAll(ctx); err != nil {
		return fmt.Errorf("setting up config entries: %w", err)
	}
	manager.StartRetryLoop(ctx)
	defer func() {
		log.Info("unloading config entries")
		if closeErr := manager.Close(context.Background()); closeErr != nil {
			log.Error("error unloading entries", "error", closeErr)
		}
	}()
	log.Info("config entries set up", "entities", registry.Count())

	// Start API server
	apiServer, err := api.New(api.Deps{
		Config:    cfg.API,
		WS:        cfg.WebSocket,
		Security:  cfg.Security,
		Logger:    log,
		Manager:   manager,
		Registry:  registry,
		EntryRepo: entryRepo,
		MQTT:      mqttClient,
		Version:   version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient, apiServer); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. Config entries (coordinators, vendor clients)
	// 3. InfluxDB (if enabled)
	// 4. MQTT
	// 5. Database

	log.Info("Hearth Core stopped")
	return nil
}

// registerIntegrations wires every built-in integration into the manager.
//
// The MQTT client and InfluxDB client are shared across integrations.
// Interface assignments stay nil when a client is absent so integrations
// skip the optional paths instead of calling a nil client.
func registerIntegrations(
	manager *platform.Manager,
	registry *platform.EntityRegistry,
	dispatcher *platform.Dispatcher,
	mqttClient *mqtt.Client,
	influxClient *influxdb.Client,
	cfg *config.Config,
	log *logging.Logger,
) {
	weatherOpts := weather.Options{
		Registry:     registry,
		Logger:       log,
		PollInterval: cfg.GetWeatherPollInterval(),
	}
	garageOpts := garagedoor.Options{
		Registry:     registry,
		Logger:       log,
		PollInterval: cfg.GetGarageDoorPollInterval(),
		LoginTimeout: cfg.GetGarageDoorLoginTimeout(),
	}
	nvrOpts := nvr.Options{
		Registry:     registry,
		Dispatcher:   dispatcher,
		Logger:       log,
		PollInterval: cfg.GetNVRPollInterval(),
	}

	if mqttClient != nil {
		weatherOpts.Bus = mqttClient
		garageOpts.Bus = mqttClient
		nvrOpts.Bus = mqttClient
	}
	if influxClient != nil {
		weatherOpts.Telemetry = influxClient
		garageOpts.Telemetry = influxClient
		nvrOpts.Telemetry = influxClient
	}

	manager.Register(weather.New(weatherOpts))
	manager.Register(garagedoor.New(garageOpts))
	manager.Register(nvr.New(nvrOpts))
}

// getConfigPath returns the configuration file path.
// Uses HEARTH_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("HEARTH_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//   - apiServer: API server to check
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(
	ctx context.Context,
	db *database.DB,
	mqttClient *mqtt.Client,
	influxClient *influxdb.Client,
	apiServer *api.Server,
) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	if err := apiServer.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	return nil
}
