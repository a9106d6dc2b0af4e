// Package garagedoor adapts a smart garage door controller into Hearth
// cover entities.
//
// Setup authenticates the stored credentials up front. A rejected login
// marks the entry auth_failed so the UI can prompt for new credentials;
// a controller that cannot be reached, or that returns undecodable
// responses, marks the entry setup_retry and is re-attempted. Those two
// vendor failure kinds (ErrRequestFailed, ErrMalformedResponse) are the
// only errors treated as transient.
//
// Each door on the account becomes one cover entity. Position state is
// polled through a shared coordinator; open and close commands call the
// vendor directly and then request an immediate refresh.
package garagedoor
