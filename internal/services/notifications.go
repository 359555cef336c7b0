package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hosteldex/hosteldex-server/internal/models"
	"github.com/hosteldex/hosteldex-server/internal/storage"
)

// NotificationService owns the notification collection, persisted in full
// to the notifications slot after every mutation. Individual entries are
// never deleted; the collection only grows, gets marked read in place, or
// is cleared wholesale. Live subscribers receive each new notification
// addressed to them as it is added.
type NotificationService struct {
	store  storage.Store
	logger *zap.SugaredLogger

	mu            sync.RWMutex
	notifications []models.Notification

	subMu       sync.Mutex
	subscribers map[string]map[chan models.Notification]struct{} // userID -> channels
}

// NewNotificationService restores the collection from the notifications
// slot.
func NewNotificationService(store storage.Store, logger *zap.SugaredLogger) *NotificationService {
	s := &NotificationService{
		store:       store,
		logger:      logger,
		subscribers: map[string]map[chan models.Notification]struct{}{},
	}

	data, err := store.Read(context.Background(), storage.SlotNotifications)
	if err == nil {
		if err := json.Unmarshal(data, &s.notifications); err != nil {
			logger.Warnw("Discarding corrupt notifications slot", "error", err)
			s.notifications = nil
		} else {
			logger.Infow("Restored notifications", "count", len(s.notifications))
		}
	} else if !errors.Is(err, storage.ErrSlotNotFound) {
		logger.Warnw("Failed to read notifications slot", "error", err)
	}

	return s
}

// Add creates a notification with a fresh id and createdAt, prepends it,
// persists, and pushes it to any live subscribers of the target user.
func (s *NotificationService) Add(ctx context.Context, userID, title, message string, kind models.NotificationType) models.Notification {
	n := models.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      kind,
		Read:      false,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.notifications = append([]models.Notification{n}, s.notifications...)
	s.mu.Unlock()

	s.persist(ctx)
	s.broadcast(n)
	s.logger.Infow("Notification created", "id", n.ID, "user_id", userID, "type", kind)
	return n
}

// MarkRead flips the entry's read flag to true. A missing id is a silent
// no-op; marking an already-read entry changes nothing.
func (s *NotificationService) MarkRead(ctx context.Context, id string) {
	s.mu.Lock()
	changed := false
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			if !s.notifications[i].Read {
				s.notifications[i].Read = true
				changed = true
			}
			break
		}
	}
	s.mu.Unlock()

	if changed {
		s.persist(ctx)
	}
}

// Clear empties the collection entirely and persists the empty state.
func (s *NotificationService) Clear(ctx context.Context) {
	s.mu.Lock()
	s.notifications = []models.Notification{}
	s.mu.Unlock()

	s.persist(ctx)
	s.logger.Info("Notifications cleared")
}

// All returns a copy of the full collection, most recent first.
func (s *NotificationService) All() []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// ForUser returns the notifications addressed to the given user.
func (s *NotificationService) ForUser(userID string) []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Notification{}
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// UnreadCount returns how many of the user's notifications are unread.
func (s *NotificationService) UnreadCount(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count
}

// Subscribe registers a live feed of new notifications for the user.
// The returned cancel func must be called when the consumer goes away.
func (s *NotificationService) Subscribe(userID string) (<-chan models.Notification, func()) {
	ch := make(chan models.Notification, 16)

	s.subMu.Lock()
	if s.subscribers[userID] == nil {
		s.subscribers[userID] = map[chan models.Notification]struct{}{}
	}
	s.subscribers[userID][ch] = struct{}{}
	s.subMu.Unlock()

	cancel := func() {
		s.subMu.Lock()
		if subs, ok := s.subscribers[userID]; ok {
			delete(subs, ch)
			if len(subs) == 0 {
				delete(s.subscribers, userID)
			}
		}
		s.subMu.Unlock()
	}
	return ch, cancel
}

// broadcast delivers a notification to the target user's live subscribers.
// Slow consumers are skipped rather than blocked on.
func (s *NotificationService) broadcast(n models.Notification) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subscribers[n.UserID] {
		select {
		case ch <- n:
		default:
		}
	}
}

func (s *NotificationService) persist(ctx context.Context) {
	s.mu.RLock()
	data, err := json.Marshal(s.notifications)
	s.mu.RUnlock()
	if err != nil {
		s.logger.Errorw("Failed to encode notifications", "error", err)
		return
	}
	if err := s.store.Write(ctx, storage.SlotNotifications, data); err != nil {
		s.logger.Errorw("Failed to persist notifications", "error", err)
	}
}
