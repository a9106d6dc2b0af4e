package garagedoor

import (
	"context"
	"fmt"

	"github.com/oakfield/hearth-core/internal/platform"
)

// CoverEntity exposes one garage door as a cover.
//
// Position state reads through the shared coordinator snapshot; open and
// close commands go straight to the vendor client and then nudge the
// coordinator so the new position shows up without waiting a full poll
// cycle.
type CoverEntity struct {
	coordinator *platform.Coordinator[map[string]Door]
	client      Client
	doorID      string
	name        string
	uniqueID    string
}

// NewCoverEntity creates a cover entity for one door.
func NewCoverEntity(coordinator *platform.Coordinator[map[string]Door], client Client, entryID string, door Door) *CoverEntity {
	return &CoverEntity{
		coordinator: coordinator,
		client:      client,
		doorID:      door.ID,
		name:        door.Name,
		uniqueID:    fmt.Sprintf("garagedoor-%s-%s", entryID, door.ID),
	}
}

// UniqueID returns the stable registry identifier.
func (e *CoverEntity) UniqueID() string { return e.uniqueID }

// Name returns the display name.
func (e *CoverEntity) Name() string { return e.name }

// Domain returns the owning integration domain.
func (e *CoverEntity) Domain() string { return Domain }

// Available reports whether the last coordinator poll succeeded and the
// door is still present on the account.
func (e *CoverEntity) Available() bool {
	if !e.coordinator.LastUpdateSuccess() {
		return false
	}
	_, ok := e.coordinator.Data()[e.doorID]
	return ok
}

// Status returns the current door position from the snapshot.
func (e *CoverEntity) Status() DoorStatus {
	door, ok := e.coordinator.Data()[e.doorID]
	if !ok {
		return StatusUnknown
	}
	return door.Status
}

// IsClosed reports whether the door is fully closed.
func (e *CoverEntity) IsClosed() bool { return e.Status() == StatusClosed }

// IsOpening reports whether the door is currently opening.
func (e *CoverEntity) IsOpening() bool { return e.Status() == StatusOpening }

// IsClosing reports whether the door is currently closing.
func (e *CoverEntity) IsClosing() bool { return e.Status() == StatusClosing }

// Open commands the door to open.
func (e *CoverEntity) Open(ctx context.Context) error {
	if err := e.client.OpenDoor(ctx, e.doorID); err != nil {
		return err
	}
	e.coordinator.RequestRefresh()
	return nil
}

// Close commands the door to close.
func (e *CoverEntity) Close(ctx context.Context) error {
	if err := e.client.CloseDoor(ctx, e.doorID); err != nil {
		return err
	}
	e.coordinator.RequestRefresh()
	return nil
}

// State returns the externally visible state for the API and bus.
func (e *CoverEntity) State() any {
	return map[string]any{
		"status":    string(e.Status()),
		"closed":    e.IsClosed(),
		"available": e.Available(),
	}
}
