// Package models defines the data structures shared across the application.
// All entities serialize to JSON for the durable storage slots; timestamps
// round-trip as RFC 3339 strings.
package models

import "time"

// Role distinguishes the two identity variants.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Identity is an authenticated user's profile. The student variant carries
// the hostel fields (room, block, contact); the admin variant leaves them
// empty. Email and Role are immutable after creation; ID is assigned once
// and never reused.
type Identity struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Role          Role   `json:"role"`
	RoomNumber    string `json:"roomNumber,omitempty"`
	BlockNumber   string `json:"blockNumber,omitempty"`
	ContactNumber string `json:"contactNumber,omitempty"`
	ProfilePhoto  string `json:"profilePhoto,omitempty"`
}

// IssueType categorizes a maintenance ticket.
type IssueType string

const (
	IssueElectricity IssueType = "electricity"
	IssueCleaning    IssueType = "cleaning"
	IssueWaterCooler IssueType = "water-cooler"
	IssueCarpentry   IssueType = "carpentry"
	IssueWifi        IssueType = "wifi"
	IssueOther       IssueType = "other"
)

// ValidIssueType reports whether t is one of the closed issue-type values.
func ValidIssueType(t IssueType) bool {
	switch t {
	case IssueElectricity, IssueCleaning, IssueWaterCooler, IssueCarpentry, IssueWifi, IssueOther:
		return true
	}
	return false
}

// TicketStatus tracks a ticket through its lifecycle. Any status may follow
// any other; there is deliberately no transition table.
type TicketStatus string

const (
	StatusOpen       TicketStatus = "open"
	StatusInProgress TicketStatus = "in-progress"
	StatusResolved   TicketStatus = "resolved"
	StatusClosed     TicketStatus = "closed"
)

// ValidStatus reports whether s is one of the closed status values.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// TicketPriority ranks how urgent a ticket is.
type TicketPriority string

const (
	PriorityLow    TicketPriority = "low"
	PriorityMedium TicketPriority = "medium"
	PriorityHigh   TicketPriority = "high"
	PriorityUrgent TicketPriority = "urgent"
)

// ValidPriority reports whether p is one of the closed priority values.
func ValidPriority(p TicketPriority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// MediaFile is a reference to an image or video attached to a ticket at
// creation time. The URL points at caller-managed storage; the server keeps
// only the reference.
type MediaFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type"` // "image" | "video"
	Size int64  `json:"size"`
}

// Ticket is a single maintenance-issue report tied to one student.
// ID and CreatedAt are fixed at creation; UpdatedAt is refreshed on every
// mutation. MediaFiles are attached only at creation.
type Ticket struct {
	ID            string         `json:"id"`
	StudentID     string         `json:"studentId"`
	StudentName   string         `json:"studentName"`
	StudentEmail  string         `json:"studentEmail"`
	RoomNumber    string         `json:"roomNumber"`
	BlockNumber   string         `json:"blockNumber"`
	ContactNumber string         `json:"contactNumber"`
	IssueType     IssueType      `json:"issueType"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Status        TicketStatus   `json:"status"`
	Priority      TicketPriority `json:"priority"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	AssignedTo    string         `json:"assignedTo,omitempty"`
	AdminNotes    string         `json:"adminNotes,omitempty"`
	MediaFiles    []MediaFile    `json:"mediaFiles,omitempty"`
}

// TicketSubmission is the caller-supplied portion of a new ticket.
type TicketSubmission struct {
	IssueType     IssueType      `json:"issueType"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Priority      TicketPriority `json:"priority"`
	RoomNumber    string         `json:"roomNumber"`
	BlockNumber   string         `json:"blockNumber"`
	ContactNumber string         `json:"contactNumber"`
	MediaFiles    []MediaFile    `json:"mediaFiles,omitempty"`
}

// TicketPatch carries a partial ticket update. Nil fields are left alone.
// Identity fields (id, studentId, createdAt) are never patchable.
type TicketPatch struct {
	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	IssueType   *IssueType      `json:"issueType,omitempty"`
	Status      *TicketStatus   `json:"status,omitempty"`
	Priority    *TicketPriority `json:"priority,omitempty"`
	AssignedTo  *string         `json:"assignedTo,omitempty"`
	AdminNotes  *string         `json:"adminNotes,omitempty"`
}

// NotificationType colors a notification in the UI.
type NotificationType string

const (
	NotifyInfo    NotificationType = "info"
	NotifySuccess NotificationType = "success"
	NotifyWarning NotificationType = "warning"
	NotifyError   NotificationType = "error"
)

// Notification is a one-way read/unread message addressed to a specific
// user, generated by store-side events such as ticket submission.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
}

// TicketStats aggregates the dashboard counters. All values are derived on
// read from the ticket collection.
type TicketStats struct {
	Total      int               `json:"total"`
	Open       int               `json:"open"`
	InProgress int               `json:"inProgress"`
	Resolved   int               `json:"resolved"`
	Closed     int               `json:"closed"`
	Urgent     int               `json:"urgent"`
	ByIssue    map[IssueType]int `json:"byIssueType"`
	Recent     []Ticket          `json:"recent"`
}

// HealthStatus is the health check response body.
type HealthStatus struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Storage string `json:"storage,omitempty"`
}
