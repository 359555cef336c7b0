package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hosteldex/hosteldex-server/internal/middleware"
	"github.com/hosteldex/hosteldex-server/internal/models"
	"github.com/hosteldex/hosteldex-server/internal/services"
	"github.com/hosteldex/hosteldex-server/internal/storage"
)

const testSecret = "test-secret"

// newTestAPI wires the real services over a throwaway file store, with the
// mock latency disabled, behind the same routes the server mounts.
func newTestAPI(t *testing.T) http.Handler {
	t.Helper()

	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	sugar := zap.NewNop().Sugar()

	sessionSvc := services.NewSessionService(services.NewDirectory(), store, sugar, 0)
	ticketSvc := services.NewTicketService(store, sugar)
	notifySvc := services.NewNotificationService(store, sugar)

	authHandler := NewAuthHandler(sessionSvc, testSecret, time.Hour, sugar)
	ticketHandler := NewTicketHandler(ticketSvc, notifySvc, sugar)
	notifyHandler := NewNotificationHandler(notifySvc, sugar)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/register", authHandler.Register)
			r.Get("/me", authHandler.Me)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth(testSecret))
				r.Put("/profile", authHandler.UpdateProfile)
				r.Post("/logout", authHandler.Logout)
			})
		})
		r.Route("/tickets", func(r chi.Router) {
			r.Use(middleware.RequireAuth(testSecret))
			r.Post("/", ticketHandler.Submit)
			r.Get("/", ticketHandler.List)
			r.Get("/{id}", ticketHandler.Get)
			r.Patch("/{id}", ticketHandler.Update)
			r.Delete("/{id}", ticketHandler.Delete)
		})
		r.Route("/dashboard", func(r chi.Router) {
			r.Use(middleware.RequireAuth(testSecret))
			r.Get("/stats", ticketHandler.Stats)
		})
		r.Route("/notifications", func(r chi.Router) {
			r.Use(middleware.RequireAuth(testSecret))
			r.Get("/", notifyHandler.List)
			r.Post("/{id}/read", notifyHandler.MarkRead)
			r.Delete("/", notifyHandler.Clear)
		})
	})
	return r
}

func doJSON(t *testing.T, api http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %s: %v", rec.Body.String(), err)
	}
}

func login(t *testing.T, api http.Handler, email, password string) sessionResponse {
	t.Helper()
	rec := doJSON(t, api, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d, body %s", email, rec.Code, rec.Body.String())
	}
	var session sessionResponse
	decode(t, rec, &session)
	return session
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	api := newTestAPI(t)

	rec := doJSON(t, api, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "student@hostel.com", "password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestTicketLifecycleScenario(t *testing.T) {
	api := newTestAPI(t)

	// Student files a ticket.
	student := login(t, api, "student@hostel.com", "password")
	rec := doJSON(t, api, http.MethodPost, "/api/v1/tickets/", student.Token, map[string]interface{}{
		"issueType":    "electricity",
		"title":        "Broken fan",
		"description":  "The ceiling fan stopped working",
		"priority":     "high",
		"roomNumber":   "204",
		"blockNumber":  "B",
		"studentName":  student.User.Name,
		"studentEmail": student.User.Email,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: status %d, body %s", rec.Code, rec.Body.String())
	}
	var ticket models.Ticket
	decode(t, rec, &ticket)
	if ticket.Status != models.StatusOpen || ticket.RoomNumber != "204" || ticket.Priority != models.PriorityHigh {
		t.Fatalf("unexpected ticket: %+v", ticket)
	}

	// The student's list shows exactly that ticket.
	rec = doJSON(t, api, http.MethodGet, "/api/v1/tickets/", student.Token, nil)
	var mine []models.Ticket
	decode(t, rec, &mine)
	if len(mine) != 1 || mine[0].ID != ticket.ID || mine[0].Title != "Broken fan" {
		t.Fatalf("student list wrong: %+v", mine)
	}

	// The administrator's unfiltered list shows it too.
	admin := login(t, api, "admin@hostel.com", "admin123")
	rec = doJSON(t, api, http.MethodGet, "/api/v1/tickets/", admin.Token, nil)
	var all []models.Ticket
	decode(t, rec, &all)
	if len(all) != 1 || all[0].ID != ticket.ID {
		t.Fatalf("admin list wrong: %+v", all)
	}

	// A success notification was addressed to the student.
	rec = doJSON(t, api, http.MethodGet, "/api/v1/notifications/", student.Token, nil)
	var inbox struct {
		Notifications []models.Notification `json:"notifications"`
		Unread        int                   `json:"unread"`
	}
	decode(t, rec, &inbox)
	if len(inbox.Notifications) != 1 || inbox.Notifications[0].Type != models.NotifySuccess {
		t.Fatalf("expected one success notification, got %+v", inbox.Notifications)
	}
	if inbox.Unread != 1 {
		t.Fatalf("expected 1 unread, got %d", inbox.Unread)
	}

	// The administrator moves it to in-progress.
	time.Sleep(5 * time.Millisecond)
	rec = doJSON(t, api, http.MethodPatch, "/api/v1/tickets/"+ticket.ID, admin.Token, map[string]string{
		"status": "in-progress",
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("patch: status %d, body %s", rec.Code, rec.Body.String())
	}

	// The student sees the new status and a strictly newer updatedAt.
	rec = doJSON(t, api, http.MethodGet, "/api/v1/tickets/"+ticket.ID, student.Token, nil)
	var updated models.Ticket
	decode(t, rec, &updated)
	if updated.Status != models.StatusInProgress {
		t.Fatalf("expected in-progress, got %s", updated.Status)
	}
	if !updated.UpdatedAt.After(ticket.UpdatedAt) {
		t.Fatalf("expected updatedAt to move forward: %v vs %v", updated.UpdatedAt, ticket.UpdatedAt)
	}

	// The status change notified the ticket owner.
	rec = doJSON(t, api, http.MethodGet, "/api/v1/notifications/", student.Token, nil)
	decode(t, rec, &inbox)
	if len(inbox.Notifications) != 2 || inbox.Notifications[0].Type != models.NotifyInfo {
		t.Fatalf("expected a status-change notification, got %+v", inbox.Notifications)
	}
}

func TestSubmitValidation(t *testing.T) {
	api := newTestAPI(t)
	student := login(t, api, "student@hostel.com", "password")

	// Missing title.
	rec := doJSON(t, api, http.MethodPost, "/api/v1/tickets/", student.Token, map[string]interface{}{
		"issueType":   "wifi",
		"description": "No signal",
		"priority":    "low",
		"roomNumber":  "204",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing title, got %d", rec.Code)
	}

	// Unknown enum values.
	rec = doJSON(t, api, http.MethodPost, "/api/v1/tickets/", student.Token, map[string]interface{}{
		"issueType":   "plumbing",
		"title":       "x",
		"description": "y",
		"priority":    "low",
		"roomNumber":  "204",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown issue type, got %d", rec.Code)
	}

	// Too many attachments.
	files := make([]map[string]interface{}, 6)
	for i := range files {
		files[i] = map[string]interface{}{"id": "m", "name": "p.jpg", "url": "/m", "type": "image", "size": 100}
	}
	rec = doJSON(t, api, http.MethodPost, "/api/v1/tickets/", student.Token, map[string]interface{}{
		"issueType":   "wifi",
		"title":       "x",
		"description": "y",
		"priority":    "low",
		"roomNumber":  "204",
		"mediaFiles":  files,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for too many media files, got %d", rec.Code)
	}
}

func TestOwnershipRules(t *testing.T) {
	api := newTestAPI(t)

	student := login(t, api, "student@hostel.com", "password")
	rec := doJSON(t, api, http.MethodPost, "/api/v1/tickets/", student.Token, map[string]interface{}{
		"issueType":    "cleaning",
		"title":        "Dusty corridor",
		"description":  "Block B corridor needs cleaning",
		"priority":     "low",
		"roomNumber":   "204",
		"studentName":  student.User.Name,
		"studentEmail": student.User.Email,
	})
	var ticket models.Ticket
	decode(t, rec, &ticket)

	// A different student cannot read or delete it.
	rec = doJSON(t, api, http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"name":     "Jane Roe",
		"email":    "jane@hostel.com",
		"role":     "student",
		"password": "whatever",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status %d, body %s", rec.Code, rec.Body.String())
	}
	var other sessionResponse
	decode(t, rec, &other)

	if rec := doJSON(t, api, http.MethodGet, "/api/v1/tickets/"+ticket.ID, other.Token, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign read, got %d", rec.Code)
	}
	if rec := doJSON(t, api, http.MethodDelete, "/api/v1/tickets/"+ticket.ID, other.Token, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign delete, got %d", rec.Code)
	}

	// An administrator may delete any ticket.
	admin := login(t, api, "admin@hostel.com", "admin123")
	if rec := doJSON(t, api, http.MethodDelete, "/api/v1/tickets/"+ticket.ID, admin.Token, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for admin delete, got %d", rec.Code)
	}

	rec = doJSON(t, api, http.MethodGet, "/api/v1/tickets/", admin.Token, nil)
	var left []models.Ticket
	decode(t, rec, &left)
	if len(left) != 0 {
		t.Fatalf("expected empty collection after delete, got %+v", left)
	}
}

func TestDashboardStats(t *testing.T) {
	api := newTestAPI(t)
	student := login(t, api, "student@hostel.com", "password")

	for _, title := range []string{"A", "B", "C"} {
		doJSON(t, api, http.MethodPost, "/api/v1/tickets/", student.Token, map[string]interface{}{
			"issueType":   "wifi",
			"title":       title,
			"description": "no signal",
			"priority":    "urgent",
			"roomNumber":  "204",
		})
	}

	rec := doJSON(t, api, http.MethodGet, "/api/v1/dashboard/stats", student.Token, nil)
	var stats models.TicketStats
	decode(t, rec, &stats)
	if stats.Total != 3 || stats.Open != 3 || stats.Urgent != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.ByIssue[models.IssueWifi] != 3 {
		t.Fatalf("issue grouping wrong: %+v", stats.ByIssue)
	}
}

func TestNotificationEndpoints(t *testing.T) {
	api := newTestAPI(t)
	student := login(t, api, "student@hostel.com", "password")

	doJSON(t, api, http.MethodPost, "/api/v1/tickets/", student.Token, map[string]interface{}{
		"issueType":   "other",
		"title":       "Misc",
		"description": "Something else",
		"priority":    "low",
		"roomNumber":  "204",
	})

	var inbox struct {
		Notifications []models.Notification `json:"notifications"`
		Unread        int                   `json:"unread"`
	}
	rec := doJSON(t, api, http.MethodGet, "/api/v1/notifications/", student.Token, nil)
	decode(t, rec, &inbox)
	if len(inbox.Notifications) != 1 || inbox.Unread != 1 {
		t.Fatalf("unexpected inbox: %+v", inbox)
	}

	// Mark read, then clear.
	id := inbox.Notifications[0].ID
	if rec := doJSON(t, api, http.MethodPost, "/api/v1/notifications/"+id+"/read", student.Token, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("mark read: %d", rec.Code)
	}
	rec = doJSON(t, api, http.MethodGet, "/api/v1/notifications/", student.Token, nil)
	decode(t, rec, &inbox)
	if inbox.Unread != 0 {
		t.Fatalf("expected 0 unread, got %d", inbox.Unread)
	}

	if rec := doJSON(t, api, http.MethodDelete, "/api/v1/notifications/", student.Token, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("clear: %d", rec.Code)
	}
	rec = doJSON(t, api, http.MethodGet, "/api/v1/notifications/", student.Token, nil)
	decode(t, rec, &inbox)
	if len(inbox.Notifications) != 0 {
		t.Fatalf("expected empty inbox after clear, got %+v", inbox.Notifications)
	}
}

func TestProfileUpdateKeepsIdentityFields(t *testing.T) {
	api := newTestAPI(t)
	student := login(t, api, "student@hostel.com", "password")

	rec := doJSON(t, api, http.MethodPut, "/api/v1/auth/profile", student.Token, map[string]string{
		"roomNumber": "305",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("profile update: status %d, body %s", rec.Code, rec.Body.String())
	}
	var updated models.Identity
	decode(t, rec, &updated)
	if updated.RoomNumber != "305" {
		t.Fatalf("room number not updated: %+v", updated)
	}
	if updated.ID != student.User.ID || updated.Email != student.User.Email || updated.Role != student.User.Role {
		t.Fatalf("immutable fields changed: %+v", updated)
	}
}
