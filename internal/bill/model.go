// Package bill provides the bill domain model, status rules and data access.
package bill

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Status is a bill's lifecycle state.
type Status string

const (
	StatusDue     Status = "due"
	StatusOverdue Status = "overdue"
	StatusPaid    Status = "paid"
)

// IsValid checks if a status is recognized.
func (s Status) IsValid() bool {
	switch s {
	case StatusDue, StatusOverdue, StatusPaid:
		return true
	}
	return false
}

// Label returns a human-readable label for the status.
func (s Status) Label() string {
	switch s {
	case StatusDue:
		return "Due"
	case StatusOverdue:
		return "Overdue"
	case StatusPaid:
		return "Paid"
	default:
		return string(s)
	}
}

var (
	// ErrNotFound is returned when a bill does not exist.
	ErrNotFound = errors.New("bill not found")
	// ErrPaid is returned for any change that would move a bill out of paid.
	ErrPaid = errors.New("bill is already paid")
	// ErrConflict is returned when concurrent writers keep changing a bill
	// out from under an edit.
	ErrConflict = errors.New("bill was changed concurrently")
)

// Bill is an amount owed on a property.
type Bill struct {
	ID          string          `json:"id"`
	PropertyID  string          `json:"property_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     time.Time       `json:"due_date"`
	Status      Status          `json:"status"`
	PDFURL      string          `json:"pdf_url,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Unpaid reports whether the bill still needs paying.
func (b *Bill) Unpaid() bool {
	return b.Status != StatusPaid
}
