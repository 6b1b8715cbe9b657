/*
Package handshake implements PIN based pairing of exactly two participants.

A host creates a room and shares its 6-digit PIN; a guest joins with the PIN;
after a short delay both occupants receive handshake_complete. Rooms live in
memory only and are removed when both slots are empty, on explicit leave or by
the liveness reaper.
*/
package handshake

import (
	"time"

	"voxpair/internal/app/user"
)

// State is the pairing progress of a room.
type State string

const (
	// StateCreated means the host is waiting for a guest.
	StateCreated State = "created"

	// StatePaired means both slots are filled and completion is pending.
	StatePaired State = "paired"

	// StateComplete means handshake_complete has been sent.
	StateComplete State = "complete"
)

// Room is a snapshot of a pairing room. Values returned by Service are copies.
type Room struct {
	ID             string            `json:"roomId"`
	PIN            string            `json:"pin"`
	Host           *user.Participant `json:"host"`
	Guest          *user.Participant `json:"guest"`
	IsActive       bool              `json:"isActive"`
	State          State             `json:"state"`
	CreatedAt      time.Time         `json:"createdAt"`
	LastActivityAt time.Time         `json:"lastActivityAt"`
}

// Occupants returns the ids of the filled slots, host first.
func (r *Room) Occupants() []string {
	ids := make([]string, 0, 2)
	if r.Host != nil {
		ids = append(ids, r.Host.ID)
	}
	if r.Guest != nil {
		ids = append(ids, r.Guest.ID)
	}
	return ids
}

// Has reports whether userID occupies either slot.
func (r *Room) Has(userID string) bool {
	return (r.Host != nil && r.Host.ID == userID) || (r.Guest != nil && r.Guest.ID == userID)
}

// Empty reports whether both slots are vacant.
func (r *Room) Empty() bool {
	return r.Host == nil && r.Guest == nil
}

func (r *Room) touch(now time.Time) {
	r.LastActivityAt = now
}

// refresh recomputes IsActive and State after a slot change.
func (r *Room) refresh() {
	r.IsActive = r.Host != nil && r.Guest != nil
	if !r.IsActive {
		r.State = StateCreated
	}
}
