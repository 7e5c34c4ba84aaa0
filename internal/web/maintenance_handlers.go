package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/roomly/roomly/internal/calendar"
	"github.com/roomly/roomly/internal/maintenance"
	"github.com/roomly/roomly/internal/property"
	"github.com/roomly/roomly/internal/user"
	"github.com/roomly/roomly/internal/validate"
)

// apiListMaintenance returns a property's events, or only those on ?day=
// in the viewer's time zone.
func (s *Server) apiListMaintenance(w http.ResponseWriter, r *http.Request) {
	p, err := s.properties.Get(currentUser(r), pathID(r))
	if err != nil {
		apiFail(w, r, err)
		return
	}

	loc, err := s.location(r)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	var events []*maintenance.Event
	if raw := r.URL.Query().Get("day"); raw != "" {
		day, err := calendar.ParseDay(raw)
		if err != nil {
			apiFail(w, r, validate.Errorf("day", "must be YYYY-MM-DD"))
			return
		}
		events, err = s.events.OnDay(p.ID, day.Start(loc), loc)
		if err != nil {
			apiFail(w, r, err)
			return
		}
	} else {
		events, err = s.events.List(p.ID)
		if err != nil {
			apiFail(w, r, err)
			return
		}
	}

	if events == nil {
		events = []*maintenance.Event{}
	}
	apiJSON(w, events, http.StatusOK)
}

// apiUpcomingMaintenance returns scheduled events within the next week.
func (s *Server) apiUpcomingMaintenance(w http.ResponseWriter, r *http.Request) {
	p, err := s.properties.Get(currentUser(r), pathID(r))
	if err != nil {
		apiFail(w, r, err)
		return
	}
	days, err := windowDays(r, maintenance.UpcomingDays)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	events, err := s.events.Upcoming(p.ID, days)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	if events == nil {
		events = []*maintenance.Event{}
	}
	apiJSON(w, events, http.StatusOK)
}

// apiCalendar returns the month grid for ?month=, defaulting to the current
// month in the viewer's time zone.
func (s *Server) apiCalendar(w http.ResponseWriter, r *http.Request) {
	p, err := s.properties.Get(currentUser(r), pathID(r))
	if err != nil {
		apiFail(w, r, err)
		return
	}
	loc, err := s.location(r)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	first, err := weekStart(r)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	now := s.now()
	month := calendar.MonthOf(now, loc)
	if raw := r.URL.Query().Get("month"); raw != "" {
		if month, err = calendar.ParseMonth(raw); err != nil {
			apiFail(w, r, validate.Errorf("month", "must be YYYY-MM"))
			return
		}
	}

	grid, err := s.events.Calendar(p.ID, month, calendar.Options{Location: loc, FirstWeekday: first, Now: now})
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, grid, http.StatusOK)
}

// apiAddMaintenance schedules an event. Anyone who can see the property may
// report maintenance.
func (s *Server) apiAddMaintenance(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	p, err := s.properties.Get(u, pathID(r))
	if err != nil {
		apiFail(w, r, err)
		return
	}
	var req struct {
		Description string `json:"description"`
		Notes       string `json:"notes"`
		ScheduledAt string `json:"scheduled_at"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		apiFail(w, r, err)
		return
	}
	loc, err := s.location(r)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	at, err := parseWhen("scheduled_at", req.ScheduledAt, loc, false)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	e, err := s.events.Add(maintenance.NewEvent{
		PropertyID:  p.ID,
		Description: strings.TrimSpace(req.Description),
		Notes:       strings.TrimSpace(req.Notes),
		ScheduledAt: at,
		CreatedBy:   u.ID,
	})
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, e, http.StatusCreated)
}

// eventFor loads an event the caller may change: the property owner or the
// user who created it.
func (s *Server) eventFor(u *user.User, id string) (*maintenance.Event, error) {
	e, err := s.events.Get(id)
	if err != nil {
		return nil, err
	}
	p, err := s.properties.Get(u, e.PropertyID)
	if err != nil {
		return nil, err
	}
	if !property.IsOwner(p, u) && e.CreatedBy != u.ID {
		return nil, fmt.Errorf("maintenance %s: %w", id, property.ErrForbidden)
	}
	return e, nil
}

// apiUpdateMaintenance edits an event.
func (s *Server) apiUpdateMaintenance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description *string `json:"description"`
		Notes       *string `json:"notes"`
		ScheduledAt *string `json:"scheduled_at"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		apiFail(w, r, err)
		return
	}
	if _, err := s.eventFor(currentUser(r), pathID(r)); err != nil {
		apiFail(w, r, err)
		return
	}

	c := maintenance.Changes{Description: req.Description, Notes: req.Notes}
	if req.ScheduledAt != nil {
		loc, err := s.location(r)
		if err != nil {
			apiFail(w, r, err)
			return
		}
		at, err := parseWhen("scheduled_at", *req.ScheduledAt, loc, false)
		if err != nil {
			apiFail(w, r, err)
			return
		}
		c.ScheduledAt = &at
	}

	e, err := s.events.Update(pathID(r), c)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, e, http.StatusOK)
}

// apiMaintenanceStatus sets an event's status explicitly.
func (s *Server) apiMaintenanceStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		apiFail(w, r, err)
		return
	}
	if _, err := s.eventFor(currentUser(r), pathID(r)); err != nil {
		apiFail(w, r, err)
		return
	}

	e, err := s.events.ChangeStatus(pathID(r), maintenance.Status(strings.ToLower(strings.TrimSpace(req.Status))))
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, e, http.StatusOK)
}

// apiDeleteMaintenance removes an event.
func (s *Server) apiDeleteMaintenance(w http.ResponseWriter, r *http.Request) {
	if _, err := s.eventFor(currentUser(r), pathID(r)); err != nil {
		apiFail(w, r, err)
		return
	}
	if err := s.events.Delete(pathID(r)); err != nil {
		apiFail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
