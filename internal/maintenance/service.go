package maintenance

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/roomly/roomly/internal/calendar"
	"github.com/roomly/roomly/internal/validate"
)

// Store is the persistence the service needs. *Repository implements it.
type Store interface {
	Insert(e *Event) (*Event, error)
	GetByID(id string) (*Event, error)
	ListByProperty(propertyID string) ([]*Event, error)
	Update(e *Event, from Status) (bool, error)
	UpdateStatus(id string, from, to Status) (bool, error)
	Delete(id string) error
}

// staleAttempts bounds how often an edit is retried after losing a race on
// the stored status.
const staleAttempts = 3

// Service applies the maintenance rules on top of a Store.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a maintenance service. now supplies the current time.
func NewService(store Store, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, now: now}
}

// List returns a property's events with statuses refreshed and persisted.
// An event whose status changed since it was read is re-read rather than
// overwritten.
func (s *Service) List(propertyID string) ([]*Event, error) {
	stored, err := s.store.ListByProperty(propertyID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	events, changes := Refresh(stored, now)
	stale := make(map[string]bool)
	for _, c := range changes {
		ok, err := s.store.UpdateStatus(c.ID, c.From, c.To)
		if errors.Is(err, ErrNotFound) {
			stale[c.ID] = true
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("marking maintenance event %s %s: %w", c.ID, c.To, err)
		}
		if !ok {
			stale[c.ID] = true
			continue
		}
		slog.Debug("maintenance status refreshed", "event_id", c.ID, "from", c.From, "to", c.To)
	}

	if len(stale) > 0 {
		kept := events[:0]
		for _, e := range events {
			if !stale[e.ID] {
				kept = append(kept, e)
				continue
			}
			fresh, err := s.store.GetByID(e.ID)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			slog.Debug("maintenance event changed while refreshing", "event_id", e.ID, "status", fresh.Status)
			d, _ := Derive(*fresh, now)
			kept = append(kept, &d)
		}
		events = kept
	}

	Sort(events)
	return events, nil
}

// OnDay returns a property's events on day as seen in loc.
func (s *Service) OnDay(propertyID string, day time.Time, loc *time.Location) ([]*Event, error) {
	events, err := s.List(propertyID)
	if err != nil {
		return nil, err
	}
	return OnDay(events, day, loc), nil
}

// Upcoming returns a property's scheduled events within the next days.
func (s *Service) Upcoming(propertyID string, days int) ([]*Event, error) {
	events, err := s.List(propertyID)
	if err != nil {
		return nil, err
	}
	return Upcoming(events, s.now(), days), nil
}

// Calendar builds the month grid for a property's events.
func (s *Service) Calendar(propertyID string, m calendar.Month, opts calendar.Options) (calendar.Grid, error) {
	events, err := s.List(propertyID)
	if err != nil {
		return calendar.Grid{}, err
	}
	if opts.Now.IsZero() {
		opts.Now = s.now()
	}
	return calendar.Build(m, opts, Times(events)), nil
}

// Get returns one event with its status refreshed.
func (s *Service) Get(id string) (*Event, error) {
	e, err := s.store.GetByID(id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	d, changed := Derive(*e, now)
	if !changed {
		return &d, nil
	}
	ok, err := s.store.UpdateStatus(d.ID, e.Status, d.Status)
	if err != nil {
		return nil, fmt.Errorf("marking maintenance event %s %s: %w", d.ID, d.Status, err)
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

// NewEvent is the input for Add.
type NewEvent struct {
	PropertyID  string    `json:"property_id" validate:"required"`
	Description string    `json:"description" validate:"required,max=500"`
	Notes       string    `json:"notes" validate:"max=2000"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	CreatedBy   string    `json:"created_by"`
}

// Add schedules a new event. An event scheduled in the past is recorded as
// completed straight away.
func (s *Service) Add(in NewEvent) (*Event, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	e := Event{
		ID:          uuid.NewString(),
		PropertyID:  in.PropertyID,
		Description: in.Description,
		Notes:       in.Notes,
		ScheduledAt: in.ScheduledAt,
		Status:      StatusScheduled,
		CreatedBy:   in.CreatedBy,
	}
	e, _ = Derive(e, s.now())

	saved, err := s.store.Insert(&e)
	if err != nil {
		return nil, fmt.Errorf("saving maintenance event: %w", err)
	}
	return saved, nil
}

// Changes holds the fields of an event to edit. Nil fields are left alone.
type Changes struct {
	Description *string
	Notes       *string
	ScheduledAt *time.Time
}

// Update edits an event. A completed event moved to now or later is
// scheduled again; a cancelled event stays cancelled.
func (s *Service) Update(id string, c Changes) (*Event, error) {
	if c.Description != nil && *c.Description == "" {
		return nil, validate.Errorf("description", "is required")
	}

	for range staleAttempts {
		e, err := s.store.GetByID(id)
		if err != nil {
			return nil, err
		}
		from := e.Status

		if c.Description != nil {
			e.Description = *c.Description
		}
		if c.Notes != nil {
			e.Notes = *c.Notes
		}
		now := s.now()
		if c.ScheduledAt != nil {
			e.ScheduledAt = *c.ScheduledAt
			if e.Status == StatusCompleted && !e.ScheduledAt.Before(now) {
				e.Status = StatusScheduled
			}
		}
		d, _ := Derive(*e, now)

		ok, err := s.store.Update(&d, from)
		if err != nil {
			return nil, err
		}
		if ok {
			return s.store.GetByID(id)
		}
		slog.Debug("maintenance event changed during update, retrying", "event_id", id)
	}
	return nil, fmt.Errorf("maintenance event %s: %w", id, ErrConflict)
}

// ChangeStatus applies an explicit status change, such as cancelling or
// reopening an event. Time-based completion still applies afterwards.
func (s *Service) ChangeStatus(id string, status Status) (*Event, error) {
	if !status.IsValid() {
		return nil, validate.Errorf("status", "must be one of: scheduled, completed, cancelled")
	}
	for range staleAttempts {
		e, err := s.store.GetByID(id)
		if err != nil {
			return nil, err
		}
		from := e.Status
		e.Status = status
		d, _ := Derive(*e, s.now())
		ok, err := s.store.UpdateStatus(id, from, d.Status)
		if err != nil {
			return nil, err
		}
		if ok {
			return s.store.GetByID(id)
		}
	}
	return nil, fmt.Errorf("maintenance event %s: %w", id, ErrConflict)
}

// Delete removes an event.
func (s *Service) Delete(id string) error {
	return s.store.Delete(id)
}
