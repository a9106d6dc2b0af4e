package nvr

import "errors"

// Vendor failure kinds recognised at the adapter boundary.
//
// Image capture swallows exactly three kinds: ErrAPIError,
// ErrRequestFailed, and connection refusals (syscall.ECONNREFUSED in
// the error chain). Anything else is surfaced to the caller.
var (
	// ErrAPIError indicates the surveillance API accepted the request but
	// reported a vendor-level failure code.
	ErrAPIError = errors.New("nvr: api error")

	// ErrRequestFailed indicates the surveillance service could not be
	// reached or returned an error status.
	ErrRequestFailed = errors.New("nvr: request failed")

	// ErrInvalidConfig is returned when entry data is missing required fields.
	ErrInvalidConfig = errors.New("nvr: invalid config")

	// ErrCameraNotFound is returned when a request targets an unknown camera.
	ErrCameraNotFound = errors.New("nvr: camera not found")
)
