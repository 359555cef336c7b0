// Package services contains business logic layers.
// Services are called by handlers and persist their state through the
// durable storage slots.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hosteldex/hosteldex-server/internal/models"
	"github.com/hosteldex/hosteldex-server/internal/storage"
)

// Session errors surfaced to handlers.
var (
	ErrInvalidCredentials = errors.New("invalid email or credential")
	ErrNoSession          = errors.New("no active session")
)

// ProfileUpdate carries the mutable identity fields. ID, email and role
// are immutable and deliberately absent.
type ProfileUpdate struct {
	Name          *string `json:"name,omitempty"`
	RoomNumber    *string `json:"roomNumber,omitempty"`
	BlockNumber   *string `json:"blockNumber,omitempty"`
	ContactNumber *string `json:"contactNumber,omitempty"`
	ProfilePhoto  *string `json:"profilePhoto,omitempty"`
}

// SessionService owns the single current identity and its lifecycle:
// load from the user slot on startup, mutate through login/register/update,
// clear on logout. Login and register simulate a remote call with a fixed
// artificial delay; Loading reports true only inside that window.
type SessionService struct {
	verifier CredentialVerifier
	store    storage.Store
	logger   *zap.SugaredLogger
	latency  time.Duration

	mu      sync.RWMutex
	current *models.Identity
	loading atomic.Bool
}

// NewSessionService builds the service and restores any persisted identity
// from the user slot. A corrupt or absent slot leaves the session empty.
func NewSessionService(verifier CredentialVerifier, store storage.Store, logger *zap.SugaredLogger, latency time.Duration) *SessionService {
	s := &SessionService{
		verifier: verifier,
		store:    store,
		logger:   logger,
		latency:  latency,
	}

	data, err := store.Read(context.Background(), storage.SlotUser)
	if err == nil {
		var id models.Identity
		if err := json.Unmarshal(data, &id); err == nil {
			s.current = &id
			logger.Infow("Restored session", "user_id", id.ID, "role", id.Role)
		} else {
			logger.Warnw("Discarding corrupt session slot", "error", err)
		}
	} else if !errors.Is(err, storage.ErrSlotNotFound) {
		logger.Warnw("Failed to read session slot", "error", err)
	}

	return s
}

// Login validates the pair against the credential directory. On a match the
// identity becomes current and is persisted; on a mismatch the current
// identity is left untouched and ErrInvalidCredentials is returned.
func (s *SessionService) Login(ctx context.Context, email, credential string) (models.Identity, error) {
	s.simulateLatency(ctx)

	identity, ok := s.verifier.Verify(email, credential)
	if !ok {
		s.logger.Infow("Login rejected", "email", email)
		return models.Identity{}, ErrInvalidCredentials
	}

	s.setCurrent(ctx, identity)
	s.logger.Infow("Login", "user_id", identity.ID, "role", identity.Role)
	return identity, nil
}

// Register synthesizes a brand-new identity with a fresh id, sets it as
// current and persists it. It never fails by design: there is no uniqueness
// check against the directory, and the credential is discarded unread.
func (s *SessionService) Register(ctx context.Context, profile models.Identity) (models.Identity, error) {
	s.simulateLatency(ctx)

	profile.ID = uuid.NewString()
	s.setCurrent(ctx, profile)
	s.logger.Infow("Registered", "user_id", profile.ID, "role", profile.Role)
	return profile, nil
}

// UpdateProfile merges the given fields into the current identity and
// persists the result. Fails only when no identity is current.
func (s *SessionService) UpdateProfile(ctx context.Context, update ProfileUpdate) (models.Identity, error) {
	s.simulateLatency(ctx)

	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return models.Identity{}, ErrNoSession
	}

	id := *s.current
	if update.Name != nil {
		id.Name = *update.Name
	}
	if update.RoomNumber != nil {
		id.RoomNumber = *update.RoomNumber
	}
	if update.BlockNumber != nil {
		id.BlockNumber = *update.BlockNumber
	}
	if update.ContactNumber != nil {
		id.ContactNumber = *update.ContactNumber
	}
	if update.ProfilePhoto != nil {
		id.ProfilePhoto = *update.ProfilePhoto
	}
	s.current = &id
	s.mu.Unlock()

	s.persist(ctx, id)
	return id, nil
}

// Logout clears the current identity and deletes its persisted slot.
func (s *SessionService) Logout(ctx context.Context) {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	if err := s.store.Delete(ctx, storage.SlotUser); err != nil {
		s.logger.Warnw("Failed to clear session slot", "error", err)
	}
	s.logger.Info("Logout")
}

// Current returns the active identity, or ok=false when none is set.
func (s *SessionService) Current() (models.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return models.Identity{}, false
	}
	return *s.current, true
}

// Loading reports whether a simulated remote call is in flight.
func (s *SessionService) Loading() bool {
	return s.loading.Load()
}

func (s *SessionService) setCurrent(ctx context.Context, id models.Identity) {
	s.mu.Lock()
	s.current = &id
	s.mu.Unlock()
	s.persist(ctx, id)
}

// persist writes the identity to the user slot. In-memory state has already
// mutated; a storage failure is logged, not propagated, matching the
// unconditional side-effect semantics of the original store.
func (s *SessionService) persist(ctx context.Context, id models.Identity) {
	data, err := json.Marshal(id)
	if err != nil {
		s.logger.Errorw("Failed to encode session", "error", err)
		return
	}
	if err := s.store.Write(ctx, storage.SlotUser, data); err != nil {
		s.logger.Errorw("Failed to persist session", "error", fmt.Errorf("slot %s: %w", storage.SlotUser, err))
	}
}

// simulateLatency blocks for the configured mock delay with the loading
// flag raised. Cancellation is not supported: once the delay elapses the
// operation always applies.
func (s *SessionService) simulateLatency(_ context.Context) {
	if s.latency <= 0 {
		return
	}
	s.loading.Store(true)
	time.Sleep(s.latency)
	s.loading.Store(false)
}
