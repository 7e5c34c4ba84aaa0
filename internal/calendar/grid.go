package calendar

import "time"

// Cell is one date square of a month grid.
type Cell struct {
	Date      Day    `json:"-"`
	Label     string `json:"date"`
	InMonth   bool   `json:"in_month"`
	HasEvents bool   `json:"has_events"`
	Today     bool   `json:"today"`
}

// Grid is a month laid out in whole weeks, seven cells per row.
type Grid struct {
	Month        Month        `json:"month"`
	FirstWeekday time.Weekday `json:"first_weekday"`
	Cells        []Cell       `json:"cells"`
}

// Options controls grid generation.
type Options struct {
	Location     *time.Location
	FirstWeekday time.Weekday
	// Now marks the cell for today. The zero value marks nothing.
	Now time.Time
}

// Build lays out month m as full weeks: from the start of the week holding the
// 1st to the end of the week holding the last day. Cells from adjacent months
// are included with InMonth false and never report events. An in-month cell
// has events when any of the given instants falls on that day in the
// location.
func Build(m Month, opts Options, events []time.Time) Grid {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	busy := make(map[Day]bool, len(events))
	for _, t := range events {
		busy[DayOf(t, loc)] = true
	}

	var today Day
	if !opts.Now.IsZero() {
		today = DayOf(opts.Now, loc)
	}

	// Date arithmetic runs in UTC so DST gaps cannot skip or repeat a day.
	first := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(m.Year, m.Month, m.Days(), 0, 0, 0, 0, time.UTC)

	lead := (int(first.Weekday()) - int(opts.FirstWeekday) + 7) % 7
	trail := (int(opts.FirstWeekday) + 6 - int(last.Weekday()) + 7) % 7
	total := lead + m.Days() + trail

	cells := make([]Cell, 0, total)
	start := first.AddDate(0, 0, -lead)
	for i := range total {
		d := DayOf(start.AddDate(0, 0, i), time.UTC)
		in := d.Year == m.Year && d.Month == m.Month
		cells = append(cells, Cell{
			Date:      d,
			Label:     d.String(),
			InMonth:   in,
			HasEvents: in && busy[d],
			Today:     in && d == today,
		})
	}

	return Grid{Month: m, FirstWeekday: opts.FirstWeekday, Cells: cells}
}

// Weeks splits the grid into rows of seven cells.
func (g Grid) Weeks() [][]Cell {
	weeks := make([][]Cell, 0, len(g.Cells)/7)
	for i := 0; i+7 <= len(g.Cells); i += 7 {
		weeks = append(weeks, g.Cells[i:i+7])
	}
	return weeks
}

// Weekdays returns the column headings in grid order.
func (g Grid) Weekdays() []time.Weekday {
	days := make([]time.Weekday, 7)
	for i := range days {
		days[i] = time.Weekday((int(g.FirstWeekday) + i) % 7)
	}
	return days
}
