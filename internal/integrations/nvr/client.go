package nvr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Camera is one camera's metadata from the surveillance station.
//
// All fields are vendor-owned; entities observe them read-only through
// the coordinator snapshot.
type Camera struct {
	ID                       string `json:"id"`
	Name                     string `json:"name"`
	Model                    string `json:"model"`
	IsEnabled                bool   `json:"is_enabled"`
	IsRecording              bool   `json:"is_recording"`
	IsMotionDetectionEnabled bool   `json:"is_motion_detection_enabled"`
	LiveViewRTSP             string `json:"live_view_rtsp"`
}

// StationInfo describes the surveillance station service.
type StationInfo struct {
	Version      string `json:"version"`
	CameraNumber int    `json:"camera_number"`
}

// SurveillanceClient is the vendor surveillance API consumed by the
// integration.
type SurveillanceClient interface {
	// Info checks the surveillance API is present and responding.
	Info(ctx context.Context) (StationInfo, error)

	// Cameras lists all cameras with their current metadata.
	Cameras(ctx context.Context) ([]Camera, error)

	// CameraImage captures a still image at the given quality level.
	CameraImage(ctx context.Context, cameraID string, quality int) ([]byte, error)

	// EnableMotionDetection turns motion detection on for a camera.
	EnableMotionDetection(ctx context.Context, cameraID string) error

	// DisableMotionDetection turns motion detection off for a camera.
	DisableMotionDetection(ctx context.Context, cameraID string) error
}

// ClientFactory builds a SurveillanceClient from a config entry's data.
type ClientFactory func(data map[string]any) (SurveillanceClient, error)

const requestTimeout = 15 * time.Second

// apiEnvelope is the vendor's JSON response wrapper.
type apiEnvelope struct {
	Success bool            `json:"success"`
	Error   int             `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// HTTPClient talks to a surveillance station over its JSON HTTP API.
//
// Vendor-level failures (success=false in the envelope) map to
// ErrAPIError; transport and status failures map to ErrRequestFailed
// with the underlying error kept in the chain so connection refusals
// remain detectable.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient builds an HTTPClient from entry data.
//
// Entry data fields:
//   - host: Station base URL. Required.
//   - token: API token sent on every request. Required.
func NewHTTPClient(data map[string]any) (SurveillanceClient, error) {
	baseURL, _ := data["host"].(string)
	token, _ := data["token"].(string)

	if baseURL == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidConfig)
	}
	if token == "" {
		return nil, fmt.Errorf("%w: missing token", ErrInvalidConfig)
	}

	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: requestTimeout},
	}, nil
}

// Info checks the surveillance API is present and responding.
func (c *HTTPClient) Info(ctx context.Context) (StationInfo, error) {
	var info StationInfo
	if err := c.getJSON(ctx, "/api/info", &info); err != nil {
		return StationInfo{}, err
	}
	return info, nil
}

// Cameras lists all cameras with their current metadata.
func (c *HTTPClient) Cameras(ctx context.Context) ([]Camera, error) {
	var cameras []Camera
	if err := c.getJSON(ctx, "/api/cameras", &cameras); err != nil {
		return nil, err
	}
	return cameras, nil
}

// CameraImage captures a still image at the given quality level.
//
// The raw image bytes are returned as-is; quality interpretation is the
// vendor's (1 highest, 5 lowest).
func (c *HTTPClient) CameraImage(ctx context.Context, cameraID string, quality int) ([]byte, error) {
	path := fmt.Sprintf("/api/cameras/%s/snapshot?quality=%d", cameraID, quality)
	resp, err := c.do(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrCameraNotFound, cameraID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}

	image, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading image: %w", ErrRequestFailed, err)
	}
	return image, nil
}

// EnableMotionDetection turns motion detection on for a camera.
func (c *HTTPClient) EnableMotionDetection(ctx context.Context, cameraID string) error {
	return c.postJSON(ctx, fmt.Sprintf("/api/cameras/%s/motion/enable", cameraID))
}

// DisableMotionDetection turns motion detection off for a camera.
func (c *HTTPClient) DisableMotionDetection(ctx context.Context, cameraID string) error {
	return c.postJSON(ctx, fmt.Sprintf("/api/cameras/%s/motion/disable", cameraID))
}

// do performs one authenticated request.
func (c *HTTPClient) do(ctx context.Context, method, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		// Keep the transport error in the chain; callers distinguish
		// connection refusals from other request failures.
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	return resp, nil
}

// getJSON performs a GET and decodes the envelope's data field.
func (c *HTTPClient) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%w: decoding response: %w", ErrRequestFailed, err)
	}
	if !envelope.Success {
		return fmt.Errorf("%w: code %d", ErrAPIError, envelope.Error)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("%w: decoding data: %w", ErrRequestFailed, err)
	}
	return nil
}

// postJSON performs a POST and checks the envelope for success.
func (c *HTTPClient) postJSON(ctx context.Context, path string) error {
	resp, err := c.do(ctx, http.MethodPost, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w", ErrCameraNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%w: decoding response: %w", ErrRequestFailed, err)
	}
	if !envelope.Success {
		return fmt.Errorf("%w: code %d", ErrAPIError, envelope.Error)
	}
	return nil
}
