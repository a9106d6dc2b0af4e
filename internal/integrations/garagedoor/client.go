package garagedoor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DoorStatus is a vendor-reported door position.
type DoorStatus string

// Door positions as reported by the controller.
const (
	StatusOpen    DoorStatus = "open"
	StatusClosed  DoorStatus = "closed"
	StatusOpening DoorStatus = "opening"
	StatusClosing DoorStatus = "closing"
	StatusUnknown DoorStatus = "unknown"
)

// Door is one garage door on the vendor account.
type Door struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Status DoorStatus `json:"status"`
}

// Client is the vendor controller API consumed by the integration.
//
// Login authenticates the stored credentials. It returns false (with a
// nil error) when the vendor rejects them; errors are reserved for
// transport and decoding failures.
type Client interface {
	Login(ctx context.Context) (bool, error)
	Doors(ctx context.Context) ([]Door, error)
	OpenDoor(ctx context.Context, doorID string) error
	CloseDoor(ctx context.Context, doorID string) error
}

// ClientFactory builds a Client from a config entry's stored data.
type ClientFactory func(data map[string]any) (Client, error)

const requestTimeout = 15 * time.Second

// HTTPClient talks to a door controller over its JSON HTTP API.
type HTTPClient struct {
	baseURL  string
	username string
	password string
	client   *http.Client
}

// NewHTTPClient builds an HTTPClient from entry data.
//
// Entry data fields:
//   - host: Controller base URL. Required.
//   - username, password: Account credentials. Required.
func NewHTTPClient(data map[string]any) (Client, error) {
	baseURL, _ := data["host"].(string)
	username, _ := data["username"].(string)
	password, _ := data["password"].(string)

	if baseURL == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidConfig)
	}
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: missing credentials", ErrInvalidConfig)
	}

	return &HTTPClient{
		baseURL:  baseURL,
		username: username,
		password: password,
		client:   &http.Client{Timeout: requestTimeout},
	}, nil
}

// Login authenticates against the controller.
//
// Returns:
//   - bool: false when the controller rejects the credentials
//   - error: wrapping ErrRequestFailed or ErrMalformedResponse
func (c *HTTPClient) Login(ctx context.Context) (bool, error) {
	body, err := json.Marshal(map[string]string{
		"username": c.username,
		"password": c.password,
	})
	if err != nil {
		return false, fmt.Errorf("%w: encoding credentials: %v", ErrRequestFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/session", bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}

	var session struct {
		Authenticated bool `json:"authenticated"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return false, fmt.Errorf("%w: decoding session: %v", ErrMalformedResponse, err)
	}
	return session.Authenticated, nil
}

// Doors lists the doors on the account.
func (c *HTTPClient) Doors(ctx context.Context) ([]Door, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/doors", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}

	var doors []Door
	if err := json.NewDecoder(resp.Body).Decode(&doors); err != nil {
		return nil, fmt.Errorf("%w: decoding doors: %v", ErrMalformedResponse, err)
	}
	return doors, nil
}

// OpenDoor commands a door to open.
func (c *HTTPClient) OpenDoor(ctx context.Context, doorID string) error {
	return c.command(ctx, doorID, "open")
}

// CloseDoor commands a door to close.
func (c *HTTPClient) CloseDoor(ctx context.Context, doorID string) error {
	return c.command(ctx, doorID, "close")
}

func (c *HTTPClient) command(ctx context.Context, doorID, action string) error {
	url := fmt.Sprintf("%s/doors/%s/%s", c.baseURL, doorID, action)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrDoorNotFound, doorID)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}
	return nil
}
