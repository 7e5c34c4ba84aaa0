// Package maintenance provides maintenance events for properties: the model,
// time-based status rules, day and window selection, and data access.
package maintenance

import (
	"errors"
	"time"
)

// Status is a maintenance event's lifecycle state.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ValidStatuses is the set of allowed statuses.
var ValidStatuses = []Status{StatusScheduled, StatusCompleted, StatusCancelled}

// IsValid checks if a status is recognized.
func (s Status) IsValid() bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Label returns a human-readable label for the status.
func (s Status) Label() string {
	switch s {
	case StatusScheduled:
		return "Scheduled"
	case StatusCompleted:
		return "Completed"
	case StatusCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}

var (
	// ErrNotFound is returned when an event does not exist.
	ErrNotFound = errors.New("maintenance event not found")
	// ErrConflict is returned when concurrent writers keep changing an
	// event out from under an edit.
	ErrConflict = errors.New("maintenance event was changed concurrently")
)

// Event is a scheduled piece of maintenance work on a property.
type Event struct {
	ID          string    `json:"id"`
	PropertyID  string    `json:"property_id"`
	Description string    `json:"description"`
	Notes       string    `json:"notes,omitempty"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Status      Status    `json:"status"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
