package weather

import "errors"

// Domain errors for the weather integration.
var (
	// ErrInvalidConfig is returned when entry data is missing required fields.
	ErrInvalidConfig = errors.New("weather: invalid config")

	// ErrFetchFailed is returned when the vendor endpoint cannot be reached
	// or returns an unusable response.
	ErrFetchFailed = errors.New("weather: fetch failed")
)
