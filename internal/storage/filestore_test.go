package storage

import (
	"context"
	"errors"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	ctx := context.Background()

	if _, err := store.Read(ctx, SlotTickets); !errors.Is(err, ErrSlotNotFound) {
		t.Fatalf("expected ErrSlotNotFound for unwritten slot, got %v", err)
	}

	blob := []byte(`[{"id":"t1"}]`)
	if err := store.Write(ctx, SlotTickets, blob); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := store.Read(ctx, SlotTickets)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != string(blob) {
		t.Fatalf("expected %s, got %s", blob, got)
	}

	// Overwrite replaces the blob in full.
	if err := store.Write(ctx, SlotTickets, []byte(`[]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _ = store.Read(ctx, SlotTickets)
	if string(got) != `[]` {
		t.Fatalf("expected empty collection, got %s", got)
	}
}

func TestFileStoreDelete(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	ctx := context.Background()

	if err := store.Write(ctx, SlotUser, []byte(`{"id":"1"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := store.Delete(ctx, SlotUser); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Read(ctx, SlotUser); !errors.Is(err, ErrSlotNotFound) {
		t.Fatalf("expected ErrSlotNotFound after delete, got %v", err)
	}

	// Deleting an absent slot is not an error.
	if err := store.Delete(ctx, SlotUser); err != nil {
		t.Fatalf("delete absent slot: %v", err)
	}
}

func TestFileStoreSlotsAreIndependent(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	ctx := context.Background()

	if err := store.Write(ctx, SlotTickets, []byte(`["a"]`)); err != nil {
		t.Fatalf("write tickets: %v", err)
	}
	if err := store.Write(ctx, SlotNotifications, []byte(`["b"]`)); err != nil {
		t.Fatalf("write notifications: %v", err)
	}
	if err := store.Delete(ctx, SlotTickets); err != nil {
		t.Fatalf("delete tickets: %v", err)
	}

	got, err := store.Read(ctx, SlotNotifications)
	if err != nil || string(got) != `["b"]` {
		t.Fatalf("notifications slot affected by tickets delete: %s, %v", got, err)
	}
}
