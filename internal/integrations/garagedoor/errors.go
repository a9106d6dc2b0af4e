package garagedoor

import "errors"

// Vendor failure kinds recognised at the adapter boundary.
//
// These are the only client errors treated as transient during setup;
// anything else propagates as an unrecoverable setup error.
var (
	// ErrRequestFailed indicates the vendor service could not be reached
	// or returned an error status.
	ErrRequestFailed = errors.New("garagedoor: request failed")

	// ErrMalformedResponse indicates the vendor returned a response that
	// could not be decoded.
	ErrMalformedResponse = errors.New("garagedoor: malformed response")

	// ErrInvalidConfig is returned when entry data is missing required fields.
	ErrInvalidConfig = errors.New("garagedoor: invalid config")

	// ErrDoorNotFound is returned when a command targets an unknown door.
	ErrDoorNotFound = errors.New("garagedoor: door not found")
)
