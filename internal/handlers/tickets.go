// Package handlers contains HTTP request handlers for the HostelDex API.
// Handlers parse requests, enforce role/ownership rules, call services,
// and return JSON responses.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hosteldex/hosteldex-server/internal/middleware"
	"github.com/hosteldex/hosteldex-server/internal/models"
	"github.com/hosteldex/hosteldex-server/internal/services"
)

// TicketHandler handles ticket-related HTTP endpoints
type TicketHandler struct {
	ticketSvc *services.TicketService
	notifySvc *services.NotificationService
	logger    *zap.SugaredLogger
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(ts *services.TicketService, ns *services.NotificationService, logger *zap.SugaredLogger) *TicketHandler {
	return &TicketHandler{ticketSvc: ts, notifySvc: ns, logger: logger}
}

// Submit handles POST /api/v1/tickets.
// Accepts a ticket submission from the authenticated student, creates the
// ticket, then creates a success notification for the submitter. The two
// writes are independent; there is no atomicity between them.
func (h *TicketHandler) Submit(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFrom(r.Context())

	var req struct {
		models.TicketSubmission
		StudentName  string `json:"studentName"`
		StudentEmail string `json:"studentEmail"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Presence checks and enum membership; the store does not re-validate.
	if req.Title == "" || req.Description == "" || req.RoomNumber == "" {
		respondError(w, http.StatusBadRequest, "Missing required fields: title, description, roomNumber")
		return
	}
	if !models.ValidIssueType(req.IssueType) {
		respondError(w, http.StatusBadRequest, "Unknown issue type")
		return
	}
	if !models.ValidPriority(req.Priority) {
		respondError(w, http.StatusBadRequest, "Unknown priority")
		return
	}
	if err := services.ValidateMediaFiles(req.MediaFiles); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	student := models.Identity{
		ID:    claims.UserID,
		Name:  req.StudentName,
		Email: req.StudentEmail,
		Role:  claims.Role,
	}
	ticket := h.ticketSvc.Add(r.Context(), student, req.TicketSubmission)

	h.notifySvc.Add(r.Context(), claims.UserID,
		"Ticket Submitted",
		`Your ticket "`+ticket.Title+`" has been submitted successfully.`,
		models.NotifySuccess,
	)

	respondJSON(w, http.StatusCreated, ticket)
}

// List handles GET /api/v1/tickets.
// Students see only their own tickets; administrators see all. Optional
// query params: status, priority, search.
func (h *TicketHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFrom(r.Context())

	filter := services.TicketFilter{
		Status:   models.TicketStatus(r.URL.Query().Get("status")),
		Priority: models.TicketPriority(r.URL.Query().Get("priority")),
		Search:   r.URL.Query().Get("search"),
	}
	if claims.Role != models.RoleAdmin {
		filter.StudentID = claims.UserID
	}

	respondJSON(w, http.StatusOK, h.ticketSvc.Filter(filter))
}

// Get handles GET /api/v1/tickets/{id}.
func (h *TicketHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFrom(r.Context())

	ticket, ok := h.ticketSvc.Get(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusNotFound, "Ticket not found")
		return
	}
	if claims.Role != models.RoleAdmin && ticket.StudentID != claims.UserID {
		respondError(w, http.StatusForbidden, "Not your ticket")
		return
	}

	respondJSON(w, http.StatusOK, ticket)
}

// Update handles PATCH /api/v1/tickets/{id}.
// Owners and administrators may update; a patch against an unknown id is a
// silent no-op per the store's policy, answered with 204 either way.
func (h *TicketHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFrom(r.Context())
	id := chi.URLParam(r, "id")

	var patch models.TicketPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if patch.Status != nil && !models.ValidStatus(*patch.Status) {
		respondError(w, http.StatusBadRequest, "Unknown status")
		return
	}
	if patch.Priority != nil && !models.ValidPriority(*patch.Priority) {
		respondError(w, http.StatusBadRequest, "Unknown priority")
		return
	}
	if patch.IssueType != nil && !models.ValidIssueType(*patch.IssueType) {
		respondError(w, http.StatusBadRequest, "Unknown issue type")
		return
	}

	if ticket, ok := h.ticketSvc.Get(id); ok {
		if claims.Role != models.RoleAdmin && ticket.StudentID != claims.UserID {
			respondError(w, http.StatusForbidden, "Not your ticket")
			return
		}
		// Status changes by an administrator notify the ticket owner.
		if patch.Status != nil && *patch.Status != ticket.Status && claims.Role == models.RoleAdmin {
			h.notifySvc.Add(r.Context(), ticket.StudentID,
				"Ticket Updated",
				`Your ticket "`+ticket.Title+`" is now `+string(*patch.Status)+`.`,
				models.NotifyInfo,
			)
		}
	}

	h.ticketSvc.Update(r.Context(), id, patch)
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/v1/tickets/{id}.
// Only the owning student or an administrator may delete. Deleting an
// unknown id is a silent no-op.
func (h *TicketHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFrom(r.Context())
	id := chi.URLParam(r, "id")

	if ticket, ok := h.ticketSvc.Get(id); ok {
		if claims.Role != models.RoleAdmin && ticket.StudentID != claims.UserID {
			respondError(w, http.StatusForbidden, "Not your ticket")
			return
		}
	}

	h.ticketSvc.Delete(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /api/v1/dashboard/stats.
// Students get counters over their own tickets; administrators over all.
func (h *TicketHandler) Stats(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFrom(r.Context())

	studentID := ""
	if claims.Role != models.RoleAdmin {
		studentID = claims.UserID
	}
	respondJSON(w, http.StatusOK, h.ticketSvc.Stats(studentID))
}

// Helper: respond with JSON
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Helper: respond with error
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
