// Package api provides the HTTP and WebSocket interface to Hearth Core.
//
// The server exposes a versioned REST API under /api/v1 for managing
// config entries and inspecting entities, plus a WebSocket endpoint for
// real-time entity state. Entity state updates published to the MQTT bus
// are relayed to WebSocket clients subscribed to the "entities" channel.
//
// Authentication is a single admin account configured in the security
// section. Login issues a short-lived HS256 JWT; WebSocket upgrades use
// single-use tickets because browsers cannot set headers on upgrade
// requests.
//
// Route overview:
//
//	GET  /api/v1/health               liveness and version (no auth)
//	POST /api/v1/auth/login           obtain a bearer token (no auth)
//	POST /api/v1/auth/ws-ticket       obtain a WebSocket ticket
//	GET  /api/v1/entries              list config entries
//	POST /api/v1/entries              create an entry and set it up
//	GET  /api/v1/entries/{id}         fetch one entry
//	PUT  /api/v1/entries/{id}/options replace entry options and reload
//	POST /api/v1/entries/{id}/reload  unload and set up again
//	DELETE /api/v1/entries/{id}       unload and remove an entry
//	GET  /api/v1/entities             list entities with state
//	GET  /api/v1/entities/{id}        fetch one entity
//	GET  /api/v1/entities/{id}/image  camera still image (image/jpeg)
//	GET  /api/v1/weather              current conditions per weather entity
//	GET  /ws?ticket=...               WebSocket upgrade
package api
