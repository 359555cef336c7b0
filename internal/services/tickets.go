package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hosteldex/hosteldex-server/internal/models"
	"github.com/hosteldex/hosteldex-server/internal/storage"
)

// TicketService owns the ticket collection: an in-memory, most-recent-first
// ordered list persisted in full to the tickets slot after every mutation.
// All projections (filters, search, stats) are computed on read and never
// stored.
type TicketService struct {
	store  storage.Store
	logger *zap.SugaredLogger

	mu      sync.RWMutex
	tickets []models.Ticket
}

// NewTicketService restores the collection from the tickets slot. An absent
// slot starts empty; a corrupt one is discarded with a warning.
func NewTicketService(store storage.Store, logger *zap.SugaredLogger) *TicketService {
	s := &TicketService{store: store, logger: logger}

	data, err := store.Read(context.Background(), storage.SlotTickets)
	if err == nil {
		if err := json.Unmarshal(data, &s.tickets); err != nil {
			logger.Warnw("Discarding corrupt tickets slot", "error", err)
			s.tickets = nil
		} else {
			logger.Infow("Restored tickets", "count", len(s.tickets))
		}
	} else if !errors.Is(err, storage.ErrSlotNotFound) {
		logger.Warnw("Failed to read tickets slot", "error", err)
	}

	return s
}

// Add creates a ticket from the submission: fresh unique id, status open,
// createdAt == updatedAt, prepended so the collection stays
// most-recent-first. Enum membership and media limits are the caller's
// concern; the store does not re-validate.
func (s *TicketService) Add(ctx context.Context, student models.Identity, sub models.TicketSubmission) models.Ticket {
	now := time.Now().UTC()
	ticket := models.Ticket{
		ID:            uuid.NewString(),
		StudentID:     student.ID,
		StudentName:   student.Name,
		StudentEmail:  student.Email,
		RoomNumber:    sub.RoomNumber,
		BlockNumber:   sub.BlockNumber,
		ContactNumber: sub.ContactNumber,
		IssueType:     sub.IssueType,
		Title:         sub.Title,
		Description:   sub.Description,
		Status:        models.StatusOpen,
		Priority:      sub.Priority,
		CreatedAt:     now,
		UpdatedAt:     now,
		MediaFiles:    sub.MediaFiles,
	}

	s.mu.Lock()
	s.tickets = append([]models.Ticket{ticket}, s.tickets...)
	s.mu.Unlock()

	s.persist(ctx)
	s.logger.Infow("Ticket created",
		"id", ticket.ID,
		"student_id", ticket.StudentID,
		"issue_type", ticket.IssueType,
		"priority", ticket.Priority,
	)
	return ticket
}

// Update merges the patch into the ticket with the given id and bumps
// UpdatedAt. A missing id is a silent no-op.
func (s *TicketService) Update(ctx context.Context, id string, patch models.TicketPatch) {
	s.mu.Lock()
	changed := false
	for i := range s.tickets {
		if s.tickets[i].ID != id {
			continue
		}
		t := &s.tickets[i]
		if patch.Title != nil {
			t.Title = *patch.Title
		}
		if patch.Description != nil {
			t.Description = *patch.Description
		}
		if patch.IssueType != nil {
			t.IssueType = *patch.IssueType
		}
		if patch.Status != nil {
			t.Status = *patch.Status
		}
		if patch.Priority != nil {
			t.Priority = *patch.Priority
		}
		if patch.AssignedTo != nil {
			t.AssignedTo = *patch.AssignedTo
		}
		if patch.AdminNotes != nil {
			t.AdminNotes = *patch.AdminNotes
		}
		t.UpdatedAt = time.Now().UTC()
		changed = true
		break
	}
	s.mu.Unlock()

	if changed {
		s.persist(ctx)
		s.logger.Infow("Ticket updated", "id", id)
	}
}

// Delete removes the ticket with the given id. A missing id is a silent
// no-op.
func (s *TicketService) Delete(ctx context.Context, id string) {
	s.mu.Lock()
	changed := false
	for i := range s.tickets {
		if s.tickets[i].ID == id {
			s.tickets = append(s.tickets[:i], s.tickets[i+1:]...)
			changed = true
			break
		}
	}
	s.mu.Unlock()

	if changed {
		s.persist(ctx)
		s.logger.Infow("Ticket deleted", "id", id)
	}
}

// Get returns the ticket with the given id.
func (s *TicketService) Get(id string) (models.Ticket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tickets {
		if t.ID == id {
			return t, true
		}
	}
	return models.Ticket{}, false
}

// All returns a copy of the full collection, most recent first.
func (s *TicketService) All() []models.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Ticket, len(s.tickets))
	copy(out, s.tickets)
	return out
}

// TicketFilter narrows a ticket listing. Zero values mean "no constraint".
type TicketFilter struct {
	StudentID string
	Status    models.TicketStatus
	Priority  models.TicketPriority
	Search    string
}

// Filter returns the tickets matching every set constraint, preserving the
// most-recent-first order. Search is a case-insensitive substring match
// over title and description.
func (s *TicketService) Filter(f TicketFilter) []models.Ticket {
	term := strings.ToLower(f.Search)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Ticket{}
	for _, t := range s.tickets {
		if f.StudentID != "" && t.StudentID != f.StudentID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Priority != "" && t.Priority != f.Priority {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(t.Title), term) &&
			!strings.Contains(strings.ToLower(t.Description), term) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Urgent returns the urgent-priority subset.
func (s *TicketService) Urgent() []models.Ticket {
	return s.Filter(TicketFilter{Priority: models.PriorityUrgent})
}

// Recent returns the first n tickets of the most-recent-first ordering.
func (s *TicketService) Recent(n int) []models.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n > len(s.tickets) {
		n = len(s.tickets)
	}
	out := make([]models.Ticket, n)
	copy(out, s.tickets[:n])
	return out
}

// recentWindow is the dashboard's "recent tickets" size.
const recentWindow = 5

// Stats derives the dashboard counters over the given subset owner. An
// empty studentID aggregates across all tickets (the administrator view).
func (s *TicketService) Stats(studentID string) models.TicketStats {
	tickets := s.Filter(TicketFilter{StudentID: studentID})

	stats := models.TicketStats{
		Total:   len(tickets),
		ByIssue: map[models.IssueType]int{},
	}
	for _, t := range tickets {
		switch t.Status {
		case models.StatusOpen:
			stats.Open++
		case models.StatusInProgress:
			stats.InProgress++
		case models.StatusResolved:
			stats.Resolved++
		case models.StatusClosed:
			stats.Closed++
		}
		if t.Priority == models.PriorityUrgent {
			stats.Urgent++
		}
		stats.ByIssue[t.IssueType]++
	}

	n := recentWindow
	if n > len(tickets) {
		n = len(tickets)
	}
	stats.Recent = tickets[:n]
	return stats
}

// persist writes the full collection to the tickets slot. State has already
// mutated in memory; storage failures are logged, not propagated.
func (s *TicketService) persist(ctx context.Context) {
	s.mu.RLock()
	data, err := json.Marshal(s.tickets)
	s.mu.RUnlock()
	if err != nil {
		s.logger.Errorw("Failed to encode tickets", "error", err)
		return
	}
	if err := s.store.Write(ctx, storage.SlotTickets, data); err != nil {
		s.logger.Errorw("Failed to persist tickets", "error", err)
	}
}
