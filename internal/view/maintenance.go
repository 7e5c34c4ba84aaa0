package view

import (
	"slices"
	"time"

	"github.com/roomly/roomly/internal/calendar"
	"github.com/roomly/roomly/internal/maintenance"
)

// MaintenanceState is the maintenance calendar screen for one property.
type MaintenanceState struct {
	PropertyID   string
	Events       []*maintenance.Event
	Month        calendar.Month
	SelectedDay  calendar.Day
	Location     *time.Location
	FirstWeekday time.Weekday
	Now          time.Time
	Loading      bool
	Err          string
}

// NewMaintenanceState opens the screen on the month and day of now in loc.
func NewMaintenanceState(propertyID string, now time.Time, loc *time.Location) MaintenanceState {
	return MaintenanceState{
		PropertyID:  propertyID,
		Month:       calendar.MonthOf(now, loc),
		SelectedDay: calendar.DayOf(now, loc),
		Location:    loc,
		Now:         now,
	}
}

func (s MaintenanceState) loc() *time.Location {
	if s.Location == nil {
		return time.Local
	}
	return s.Location
}

// Grid builds the calendar for the displayed month.
func (s MaintenanceState) Grid() calendar.Grid {
	return calendar.Build(s.Month, calendar.Options{
		Location:     s.loc(),
		FirstWeekday: s.FirstWeekday,
		Now:          s.Now,
	}, maintenance.Times(s.Events))
}

// SelectedEvents returns the events on the selected day.
func (s MaintenanceState) SelectedEvents() []*maintenance.Event {
	return maintenance.OnDay(s.Events, s.SelectedDay.Start(s.loc()), s.loc())
}

// Upcoming returns the scheduled events within the highlight window.
func (s MaintenanceState) Upcoming() []*maintenance.Event {
	return maintenance.Upcoming(s.Events, s.Now, maintenance.HighlightDays)
}

// MaintenanceAction is an event on the maintenance screen.
type MaintenanceAction interface {
	maintenanceAction()
}

// EventsLoaded carries the result of a successful fetch.
type EventsLoaded struct{ Events []*maintenance.Event }

// DaySelected selects a day, moving the grid to its month.
type DaySelected struct{ Day calendar.Day }

// MonthShifted moves the grid by N months.
type MonthShifted struct{ N int }

// EventRemoved drops an event from the list.
type EventRemoved struct{ ID string }

func (LoadStarted) maintenanceAction()  {}
func (EventsLoaded) maintenanceAction() {}
func (LoadFailed) maintenanceAction()   {}
func (DaySelected) maintenanceAction()  {}
func (MonthShifted) maintenanceAction() {}
func (EventRemoved) maintenanceAction() {}

// ReduceMaintenance returns the state after applying a.
func ReduceMaintenance(s MaintenanceState, a MaintenanceAction) MaintenanceState {
	switch a := a.(type) {
	case LoadStarted:
		s.Loading = true
		s.Err = ""
	case EventsLoaded:
		s.Events = slices.Clone(a.Events)
		maintenance.Sort(s.Events)
		s.Loading = false
		s.Err = ""
	case LoadFailed:
		s.Loading = false
		if a.Err != nil {
			s.Err = a.Err.Error()
		}
	case DaySelected:
		s.SelectedDay = a.Day
		s.Month = calendar.Month{Year: a.Day.Year, Month: a.Day.Month}
	case MonthShifted:
		s.Month = s.Month.Add(a.N)
	case EventRemoved:
		s.Events = slices.DeleteFunc(slices.Clone(s.Events), func(e *maintenance.Event) bool { return e.ID == a.ID })
	}
	return s
}
