package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/hosteldex/hosteldex-server/internal/models"
	"github.com/hosteldex/hosteldex-server/internal/storage"
)

func newTestSession(t *testing.T) (*SessionService, storage.Store) {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	return NewSessionService(NewDirectory(), store, zap.NewNop().Sugar(), 0), store
}

func TestLoginWithValidCredentials(t *testing.T) {
	svc, _ := newTestSession(t)
	ctx := context.Background()

	cases := []struct {
		email, credential string
		role              models.Role
	}{
		{"student@hostel.com", "password", models.RoleStudent},
		{"admin@hostel.com", "admin123", models.RoleAdmin},
	}
	for _, tc := range cases {
		identity, err := svc.Login(ctx, tc.email, tc.credential)
		if err != nil {
			t.Fatalf("login %s: %v", tc.email, err)
		}
		if identity.Role != tc.role {
			t.Fatalf("expected role %s, got %s", tc.role, identity.Role)
		}
		current, ok := svc.Current()
		if !ok || current.Email != tc.email {
			t.Fatalf("expected current identity %s, got %+v", tc.email, current)
		}
	}
}

func TestLoginFailureLeavesSessionUntouched(t *testing.T) {
	svc, _ := newTestSession(t)
	ctx := context.Background()

	if _, err := svc.Login(ctx, "student@hostel.com", "password"); err != nil {
		t.Fatalf("login: %v", err)
	}

	bad := [][2]string{
		{"student@hostel.com", "wrong"},
		{"admin@hostel.com", "password"},
		{"nobody@hostel.com", "password"},
	}
	for _, pair := range bad {
		if _, err := svc.Login(ctx, pair[0], pair[1]); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials for %v, got %v", pair, err)
		}
		current, ok := svc.Current()
		if !ok || current.Email != "student@hostel.com" {
			t.Fatalf("failed login disturbed the current session: %+v", current)
		}
	}
}

func TestLoginPersistsIdentityWithoutCredential(t *testing.T) {
	svc, store := newTestSession(t)
	ctx := context.Background()

	if _, err := svc.Login(ctx, "student@hostel.com", "password"); err != nil {
		t.Fatalf("login: %v", err)
	}

	data, err := store.Read(ctx, storage.SlotUser)
	if err != nil {
		t.Fatalf("read user slot: %v", err)
	}
	for _, secret := range []string{"password", "credential_hash", "credentialHash"} {
		if bytes.Contains(data, []byte(secret)) {
			t.Fatalf("persisted identity leaks credential material: %s", data)
		}
	}

	// A fresh service over the same store restores the session.
	restored := NewSessionService(NewDirectory(), store, zap.NewNop().Sugar(), 0)
	current, ok := restored.Current()
	if !ok || current.ID != "1" || current.Role != models.RoleStudent {
		t.Fatalf("expected restored student session, got %+v", current)
	}
}

func TestRegisterAlwaysSucceeds(t *testing.T) {
	svc, _ := newTestSession(t)
	ctx := context.Background()

	profile := models.Identity{
		Name:        "New Student",
		Email:       "student@hostel.com", // duplicate of the directory, by design no uniqueness check
		Role:        models.RoleStudent,
		RoomNumber:  "204",
		BlockNumber: "B",
	}
	identity, err := svc.Register(ctx, profile)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if identity.ID == "" || identity.ID == "1" {
		t.Fatalf("expected a fresh unique id, got %q", identity.ID)
	}

	second, err := svc.Register(ctx, profile)
	if err != nil {
		t.Fatalf("second register: %v", err)
	}
	if second.ID == identity.ID {
		t.Fatal("expected distinct ids across registrations")
	}
}

func TestUpdateProfileMergesMutableFieldsOnly(t *testing.T) {
	svc, _ := newTestSession(t)
	ctx := context.Background()

	if _, err := svc.Login(ctx, "student@hostel.com", "password"); err != nil {
		t.Fatalf("login: %v", err)
	}

	room := "305"
	name := "John D."
	updated, err := svc.UpdateProfile(ctx, ProfileUpdate{RoomNumber: &room, Name: &name})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.RoomNumber != "305" || updated.Name != "John D." {
		t.Fatalf("updates not applied: %+v", updated)
	}
	if updated.ID != "1" || updated.Email != "student@hostel.com" || updated.Role != models.RoleStudent {
		t.Fatalf("immutable fields changed: %+v", updated)
	}
	if updated.BlockNumber != "A" {
		t.Fatalf("untouched field lost: %+v", updated)
	}
}

func TestUpdateProfileWithoutSession(t *testing.T) {
	svc, _ := newTestSession(t)

	name := "Nobody"
	if _, err := svc.UpdateProfile(context.Background(), ProfileUpdate{Name: &name}); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestLogoutClearsSessionAndSlot(t *testing.T) {
	svc, store := newTestSession(t)
	ctx := context.Background()

	if _, err := svc.Login(ctx, "admin@hostel.com", "admin123"); err != nil {
		t.Fatalf("login: %v", err)
	}
	svc.Logout(ctx)

	if _, ok := svc.Current(); ok {
		t.Fatal("expected no current identity after logout")
	}
	if _, err := store.Read(ctx, storage.SlotUser); !errors.Is(err, storage.ErrSlotNotFound) {
		t.Fatalf("expected user slot cleared, got %v", err)
	}
}
