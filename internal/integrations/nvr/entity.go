package nvr

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"time"

	"github.com/oakfield/hearth-core/internal/platform"
)

const motionCommandTimeout = 10 * time.Second

// CameraEntity exposes one camera from the surveillance station.
//
// Metadata (recording flag, motion detection flag, enabled flag) reads
// through the shared coordinator snapshot. Image capture and motion
// detection commands go to the vendor API directly.
//
// Availability is enabled AND last-poll-successful: a disabled camera is
// unavailable even while polling works, and every camera is unavailable
// while the station cannot be polled.
type CameraEntity struct {
	coordinator *platform.Coordinator[map[string]Camera]
	client      SurveillanceClient
	stream      *Stream
	logger      platform.Logger

	cameraID string
	name     string
	model    string
	uniqueID string
	quality  int
}

// NewCameraEntity creates a camera entity.
//
// Parameters:
//   - coordinator: Shared per-entry snapshot of all cameras
//   - client: Vendor API for image capture and motion commands
//   - entryID: Config entry ID, used to derive the unique ID
//   - camera: Initial metadata; the live view URL seeds the stream
//   - quality: Snapshot quality from the entry options
//   - logger: Receives fire-and-forget command failures. Optional.
func NewCameraEntity(coordinator *platform.Coordinator[map[string]Camera], client SurveillanceClient, entryID string, camera Camera, quality int, logger platform.Logger) *CameraEntity {
	if logger == nil {
		logger = noopLogger{}
	}
	return &CameraEntity{
		coordinator: coordinator,
		client:      client,
		stream:      NewStream(camera.LiveViewRTSP),
		logger:      logger,
		cameraID:    camera.ID,
		name:        camera.Name,
		model:       camera.Model,
		uniqueID:    fmt.Sprintf("nvr-%s-%s", entryID, camera.ID),
		quality:     quality,
	}
}

// noopLogger mirrors platform's silent default for optional loggers.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// SetQuality sets the snapshot quality used for image capture.
func (e *CameraEntity) SetQuality(quality int) { e.quality = quality }

// UniqueID returns the stable registry identifier.
func (e *CameraEntity) UniqueID() string { return e.uniqueID }

// Name returns the display name.
func (e *CameraEntity) Name() string { return e.name }

// Domain returns the owning integration domain.
func (e *CameraEntity) Domain() string { return Domain }

// camera returns the entity's snapshot entry, if present.
func (e *CameraEntity) camera() (Camera, bool) {
	camera, ok := e.coordinator.Data()[e.cameraID]
	return camera, ok
}

// Available reports whether the camera is enabled and the last poll
// succeeded.
func (e *CameraEntity) Available() bool {
	if !e.coordinator.LastUpdateSuccess() {
		return false
	}
	camera, ok := e.camera()
	return ok && camera.IsEnabled
}

// IsRecording reports the snapshot's recording flag.
func (e *CameraEntity) IsRecording() bool {
	camera, _ := e.camera()
	return camera.IsRecording
}

// MotionDetectionEnabled reports the snapshot's motion detection flag.
func (e *CameraEntity) MotionDetectionEnabled() bool {
	camera, _ := e.camera()
	return camera.IsMotionDetectionEnabled
}

// StreamSource returns the current live view URL.
func (e *CameraEntity) StreamSource() string {
	return e.stream.Source()
}

// Image captures a still image from the camera.
//
// Returns nil (with a nil error) when the camera is unavailable, or when
// the vendor call fails with one of the recognised kinds: ErrAPIError,
// ErrRequestFailed, or a connection refusal. Any other failure is
// returned to the caller.
//
// Returns:
//   - []byte: Raw image bytes exactly as the vendor returned them
//   - error: Only for unrecognised failures
func (e *CameraEntity) Image(ctx context.Context) ([]byte, error) {
	if !e.Available() {
		return nil, nil
	}

	image, err := e.client.CameraImage(ctx, e.cameraID, e.quality)
	if err != nil {
		if errors.Is(err, ErrAPIError) || errors.Is(err, ErrRequestFailed) || errors.Is(err, syscall.ECONNREFUSED) {
			e.logger.Debug("camera image capture failed",
				"camera_id", e.cameraID,
				"error", err,
			)
			return nil, nil
		}
		return nil, fmt.Errorf("capturing image from %s: %w", e.cameraID, err)
	}
	return image, nil
}

// EnableMotionDetection turns motion detection on.
//
// Fire-and-forget: the vendor call runs in the background and failures
// are logged, not returned. The snapshot flag catches up on the next poll.
func (e *CameraEntity) EnableMotionDetection() {
	e.motionCommand("enable", e.client.EnableMotionDetection)
}

// DisableMotionDetection turns motion detection off.
//
// Fire-and-forget, same as EnableMotionDetection.
func (e *CameraEntity) DisableMotionDetection() {
	e.motionCommand("disable", e.client.DisableMotionDetection)
}

func (e *CameraEntity) motionCommand(action string, call func(context.Context, string) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), motionCommandTimeout)
		defer cancel()

		if err := call(ctx, e.cameraID); err != nil {
			e.logger.Warn("motion detection command failed",
				"camera_id", e.cameraID,
				"action", action,
				"error", err,
			)
			return
		}
		e.coordinator.RequestRefresh()
	}()
}

// handleSourceUpdate applies a dispatched stream source change.
// Non-string payloads are ignored.
func (e *CameraEntity) handleSourceUpdate(payload any) {
	source, ok := payload.(string)
	if !ok {
		return
	}
	e.stream.UpdateSource(source)
}

// State returns the externally visible state for the API and bus.
func (e *CameraEntity) State() any {
	camera, _ := e.camera()
	return map[string]any{
		"model":                    e.model,
		"enabled":                  camera.IsEnabled,
		"recording":                camera.IsRecording,
		"motion_detection_enabled": camera.IsMotionDetectionEnabled,
		"stream_source":            e.StreamSource(),
		"available":                e.Available(),
	}
}

// DeviceInfo describes the physical camera.
func (e *CameraEntity) DeviceInfo() platform.DeviceInfo {
	return platform.DeviceInfo{
		Identifiers: []string{e.cameraID},
		Model:       e.model,
		Name:        e.name,
	}
}
