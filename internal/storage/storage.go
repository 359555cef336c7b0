// Package storage provides the durable key/value slots backing the ticket
// and session stores. Each slot holds one full JSON blob; a write replaces
// the whole blob. Three backends are available: local files (default),
// Redis, and PostgreSQL.
package storage

import (
	"context"
	"errors"
)

// Fixed slot names. These are the persistence keys carried over from the
// first deployment and must not change, or existing profiles lose their data.
const (
	SlotUser          = "hostel-dex-user"
	SlotTickets       = "hostel-dex-tickets"
	SlotNotifications = "hostel-dex-notifications"
)

// ErrSlotNotFound is returned by Read when a slot has never been written
// or has been deleted.
var ErrSlotNotFound = errors.New("storage: slot not found")

// Store is a named-slot blob store. Implementations must make Write
// atomic per slot: a reader never observes a partially written blob.
type Store interface {
	// Read returns the blob currently held in the slot.
	Read(ctx context.Context, slot string) ([]byte, error)

	// Write replaces the slot's blob in full.
	Write(ctx context.Context, slot string, data []byte) error

	// Delete removes the slot. Deleting an absent slot is not an error.
	Delete(ctx context.Context, slot string) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
