package maintenance

import (
	"cmp"
	"slices"
	"time"

	"github.com/roomly/roomly/internal/calendar"
)

const (
	// HighlightDays is the window in which a scheduled event is flagged upcoming.
	HighlightDays = 2
	// UpcomingDays is the window for the upcoming-events query.
	UpcomingDays = 7
)

// Derive returns the effective state of e at now: a scheduled event whose
// time has passed is completed. Cancelled and completed events are returned
// as stored. The second result reports whether the status changed.
func Derive(e Event, now time.Time) (Event, bool) {
	if e.Status == StatusScheduled && e.ScheduledAt.Before(now) {
		e.Status = StatusCompleted
		return e, true
	}
	return e, false
}

// Transition records a status change made by Refresh.
type Transition struct {
	ID   string
	From Status
	To   Status
}

// Refresh derives every event at now, returning copies and the transitions
// that need persisting.
func Refresh(events []*Event, now time.Time) ([]*Event, []Transition) {
	out := make([]*Event, 0, len(events))
	var changes []Transition
	for _, e := range events {
		d, changed := Derive(*e, now)
		if changed {
			changes = append(changes, Transition{ID: e.ID, From: e.Status, To: d.Status})
		}
		out = append(out, &d)
	}
	return out, changes
}

// Sort orders events by scheduled time, then id.
func Sort(events []*Event) {
	slices.SortStableFunc(events, func(a, b *Event) int {
		if c := a.ScheduledAt.Compare(b.ScheduledAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// OnDay returns the events scheduled on the same calendar day as day, as
// seen in loc. Time of day is ignored.
func OnDay(events []*Event, day time.Time, loc *time.Location) []*Event {
	want := calendar.DayOf(day, loc)
	var out []*Event
	for _, e := range events {
		if calendar.DayOf(e.ScheduledAt, loc) == want {
			out = append(out, e)
		}
	}
	return out
}

// IsUpcoming reports whether a scheduled event falls within the highlight
// window starting at now.
func IsUpcoming(e *Event, now time.Time) bool {
	return e.Status == StatusScheduled && calendar.InWindow(e.ScheduledAt, now, HighlightDays)
}

// Upcoming returns scheduled events within [now, now+days], soonest first.
func Upcoming(events []*Event, now time.Time, days int) []*Event {
	var out []*Event
	for _, e := range events {
		if e.Status == StatusScheduled && calendar.InWindow(e.ScheduledAt, now, days) {
			out = append(out, e)
		}
	}
	Sort(out)
	return out
}

// Times returns the scheduled instants of events that are not cancelled.
func Times(events []*Event) []time.Time {
	times := make([]time.Time, 0, len(events))
	for _, e := range events {
		if e.Status != StatusCancelled {
			times = append(times, e.ScheduledAt)
		}
	}
	return times
}
