// Package mqtt provides MQTT client connectivity for Hearth Core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// Hearth uses MQTT as the external message bus. Entity state changes and
// dispatcher signals are mirrored onto the bus so wall panels, recorders,
// and sidecar processes can follow the platform without going through the
// REST API. Camera stream source updates arrive on the bus and are fed
// into the in-process dispatcher.
//
//	Hearth Core ↔ MQTT Broker ↔ panels / recorders / NVR sidecar
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	// Follow camera source updates
//	err = client.Subscribe(mqtt.Topics{}.AllCameraSourceSignals(), 1,
//	    func(topic string, payload []byte) error {
//	        // topic: hearth/signal/camera_source/{entry}/{camera}
//	        return nil
//	    })
package mqtt
