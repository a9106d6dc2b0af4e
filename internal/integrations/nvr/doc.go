// Package nvr adapts a network video recorder's surveillance station
// into Hearth camera entities.
//
// Setup checks the surveillance API responds, then creates one entity
// per camera over a shared polling coordinator. Camera metadata
// (recording flag, motion detection flag, enabled flag) is pull; stream
// source URLs are push, delivered as dispatcher signals keyed by entry
// and camera ID so an update for one camera never touches another.
// Sidecar processes can publish source changes to
// hearth/signal/camera_source/{entry}/{camera} and they are bridged
// into the dispatcher.
//
// A camera is available only while it is enabled on the station and the
// last poll succeeded. Image capture returns nothing when the camera is
// unavailable or the vendor call fails with a recognised kind (API
// error, request failure, connection refused); motion detection
// commands are fire-and-forget.
package nvr
