package bill

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roomly/roomly/internal/money"
	"github.com/roomly/roomly/internal/validate"
)

// Store is the persistence the service needs. *Repository implements it.
type Store interface {
	Insert(b *Bill) (*Bill, error)
	GetByID(id string) (*Bill, error)
	ListByProperty(propertyID string) ([]*Bill, error)
	Update(b *Bill, from Status) (bool, error)
	UpdateStatus(id string, from, to Status) (bool, error)
	Delete(id string) error
}

// Blobs stores bill attachments.
type Blobs interface {
	Put(key string, data []byte) (string, error)
	Delete(url string) error
}

// staleAttempts bounds how often an edit is retried after losing a race on
// the stored status.
const staleAttempts = 3

// Service applies the bill rules on top of a Store.
type Service struct {
	store Store
	blobs Blobs
	now   func() time.Time
}

// NewService creates a bill service. now supplies the current time.
func NewService(store Store, blobs Blobs, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, blobs: blobs, now: now}
}

// List returns every bill of a property with statuses refreshed. Overdue
// transitions are persisted before returning; a failed write fails the list.
// A bill whose status changed since it was read is re-read rather than
// overwritten.
func (s *Service) List(propertyID string) ([]*Bill, error) {
	stored, err := s.store.ListByProperty(propertyID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	bills, changes := Refresh(stored, now)
	stale := make(map[string]bool)
	for _, c := range changes {
		ok, err := s.store.UpdateStatus(c.ID, c.From, c.To)
		if errors.Is(err, ErrNotFound) {
			stale[c.ID] = true
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("marking bill %s %s: %w", c.ID, c.To, err)
		}
		if !ok {
			stale[c.ID] = true
			continue
		}
		slog.Debug("bill status refreshed", "bill_id", c.ID, "from", c.From, "to", c.To)
	}

	if len(stale) > 0 {
		kept := bills[:0]
		for _, b := range bills {
			if !stale[b.ID] {
				kept = append(kept, b)
				continue
			}
			fresh, err := s.store.GetByID(b.ID)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			slog.Debug("bill changed while refreshing", "bill_id", b.ID, "status", fresh.Status)
			d, _ := Derive(*fresh, now)
			kept = append(kept, &d)
		}
		bills = kept
	}

	Sort(bills)
	return bills, nil
}

// ListFiltered returns the refreshed bills of a property in category f.
func (s *Service) ListFiltered(propertyID string, f Filter) ([]*Bill, error) {
	bills, err := s.List(propertyID)
	if err != nil {
		return nil, err
	}
	return Select(bills, f), nil
}

// Upcoming returns unpaid bills of a property due within the next days.
func (s *Service) Upcoming(propertyID string, days int) ([]*Bill, error) {
	bills, err := s.List(propertyID)
	if err != nil {
		return nil, err
	}
	return Upcoming(bills, s.now(), days), nil
}

// Get returns one bill with its status refreshed.
func (s *Service) Get(id string) (*Bill, error) {
	b, err := s.store.GetByID(id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	d, changed := Derive(*b, now)
	if !changed {
		return &d, nil
	}
	ok, err := s.store.UpdateStatus(d.ID, b.Status, d.Status)
	if err != nil {
		return nil, fmt.Errorf("marking bill %s %s: %w", d.ID, d.Status, err)
	}
	if ok {
		return &d, nil
	}
	fresh, err := s.store.GetByID(id)
	if err != nil {
		return nil, err
	}
	d, _ = Derive(*fresh, now)
	return &d, nil
}

// NewBill is the input for Add.
type NewBill struct {
	PropertyID  string    `json:"property_id" validate:"required"`
	Description string    `json:"description" validate:"max=500"`
	Amount      string    `json:"amount" validate:"required"`
	DueDate     time.Time `json:"due_date" validate:"required"`
}

// Add creates a bill. When pdf is non-empty it is uploaded first and the
// upload is removed again if the bill cannot be saved.
func (s *Service) Add(in NewBill, pdf []byte) (*Bill, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	amount, err := money.Parse("amount", in.Amount)
	if err != nil {
		return nil, err
	}

	b := Bill{
		ID:          uuid.NewString(),
		PropertyID:  in.PropertyID,
		Description: in.Description,
		Amount:      amount,
		DueDate:     in.DueDate,
		Status:      StatusDue,
	}
	b, _ = Derive(b, s.now())

	if len(pdf) > 0 {
		if s.blobs == nil {
			return nil, fmt.Errorf("uploading bill pdf: no object storage configured")
		}
		url, err := s.blobs.Put(pdfKey(b.ID), pdf)
		if err != nil {
			return nil, fmt.Errorf("uploading bill pdf: %w", err)
		}
		b.PDFURL = url
	}

	saved, err := s.store.Insert(&b)
	if err != nil {
		if b.PDFURL != "" {
			if delErr := s.blobs.Delete(b.PDFURL); delErr != nil {
				slog.Error("removing orphaned bill pdf", "url", b.PDFURL, "error", delErr)
			}
		}
		return nil, fmt.Errorf("saving bill: %w", err)
	}
	return saved, nil
}

// Changes holds the fields of a bill to edit. Nil fields are left alone.
type Changes struct {
	Description *string
	Amount      *decimal.Decimal
	DueDate     *time.Time
}

// Update edits a bill. Moving an overdue bill's due date to now or later
// makes it due again; moving a due bill into the past makes it overdue.
// Paid bills keep their status.
func (s *Service) Update(id string, c Changes) (*Bill, error) {
	if c.Amount != nil && c.Amount.IsNegative() {
		return nil, validate.Errorf("amount", "must not be negative")
	}

	for range staleAttempts {
		b, err := s.store.GetByID(id)
		if err != nil {
			return nil, err
		}
		from := b.Status

		if c.Description != nil {
			b.Description = *c.Description
		}
		if c.Amount != nil {
			b.Amount = c.Amount.Round(2)
		}
		now := s.now()
		if c.DueDate != nil {
			b.DueDate = *c.DueDate
			if b.Status == StatusOverdue && !b.DueDate.Before(now) {
				b.Status = StatusDue
			}
		}
		d, _ := Derive(*b, now)

		ok, err := s.store.Update(&d, from)
		if err != nil {
			return nil, err
		}
		if ok {
			return s.store.GetByID(id)
		}
		slog.Debug("bill changed during update, retrying", "bill_id", id)
	}
	return nil, fmt.Errorf("bill %s: %w", id, ErrConflict)
}

// Pay marks a bill paid. Paying an already paid bill returns ErrPaid.
func (s *Service) Pay(id string) (*Bill, error) {
	for range staleAttempts {
		b, err := s.store.GetByID(id)
		if err != nil {
			return nil, err
		}
		if b.Status == StatusPaid {
			return nil, fmt.Errorf("bill %s: %w", id, ErrPaid)
		}
		ok, err := s.store.UpdateStatus(id, b.Status, StatusPaid)
		if err != nil {
			return nil, err
		}
		if ok {
			return s.store.GetByID(id)
		}
	}
	return nil, fmt.Errorf("bill %s: %w", id, ErrConflict)
}

// Delete removes a bill and its PDF. A PDF that cannot be removed is logged
// and the bill is deleted anyway.
func (s *Service) Delete(id string) error {
	b, err := s.store.GetByID(id)
	if err != nil {
		return err
	}
	if b.PDFURL != "" && s.blobs != nil {
		if err := s.blobs.Delete(b.PDFURL); err != nil {
			slog.Warn("deleting bill pdf", "bill_id", id, "url", b.PDFURL, "error", err)
		}
	}
	return s.store.Delete(id)
}

func pdfKey(name string) string {
	return "bills/" + name + ".pdf"
}
