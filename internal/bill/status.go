package bill

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roomly/roomly/internal/calendar"
	"github.com/roomly/roomly/internal/validate"
)

// UpcomingDays is the window for the upcoming-bills query.
const UpcomingDays = 7

// Derive returns the effective state of b at now. A due bill whose due date
// has passed becomes overdue; everything else is returned as stored. The
// second result reports whether the status changed.
func Derive(b Bill, now time.Time) (Bill, bool) {
	if b.Status == StatusDue && b.DueDate.Before(now) {
		b.Status = StatusOverdue
		return b, true
	}
	return b, false
}

// Transition records a status change made by Refresh.
type Transition struct {
	ID   string
	From Status
	To   Status
}

// Refresh derives every bill at now. It returns fresh copies, leaving the
// input untouched, along with the transitions that need persisting.
func Refresh(bills []*Bill, now time.Time) ([]*Bill, []Transition) {
	out := make([]*Bill, 0, len(bills))
	var changes []Transition
	for _, b := range bills {
		d, changed := Derive(*b, now)
		if changed {
			changes = append(changes, Transition{ID: b.ID, From: b.Status, To: d.Status})
		}
		out = append(out, &d)
	}
	return out, changes
}

// Filter selects bills by category.
type Filter string

const (
	FilterAll  Filter = "all"
	FilterDue  Filter = "due"
	FilterPaid Filter = "paid"
)

// Filters lists the categories in display order.
var Filters = []Filter{FilterAll, FilterDue, FilterPaid}

// ParseFilter reads a filter name or tab label, ignoring case. An empty
// string selects all bills.
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "due":
		return FilterDue, nil
	case "paid":
		return FilterPaid, nil
	}
	return "", validate.Errorf("filter", "must be one of: all, due, paid (got %q)", s)
}

// Label returns the tab label for the filter.
func (f Filter) Label() string {
	switch f {
	case FilterDue:
		return "Due"
	case FilterPaid:
		return "Paid"
	default:
		return "All"
	}
}

// Match reports whether b belongs in the category. Due covers overdue bills
// too, so due and paid partition all.
func (f Filter) Match(b *Bill) bool {
	switch f {
	case FilterDue:
		return b.Status == StatusDue || b.Status == StatusOverdue
	case FilterPaid:
		return b.Status == StatusPaid
	default:
		return true
	}
}

// Select returns the bills matching f, in their original order.
func Select(bills []*Bill, f Filter) []*Bill {
	var out []*Bill
	for _, b := range bills {
		if f.Match(b) {
			out = append(out, b)
		}
	}
	return out
}

// Sort orders bills by due date, then id.
func Sort(bills []*Bill) {
	slices.SortStableFunc(bills, func(a, b *Bill) int {
		if c := a.DueDate.Compare(b.DueDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// Upcoming returns unpaid bills due within [now, now+days], soonest first.
func Upcoming(bills []*Bill, now time.Time, days int) []*Bill {
	var out []*Bill
	for _, b := range bills {
		if b.Unpaid() && calendar.InWindow(b.DueDate, now, days) {
			out = append(out, b)
		}
	}
	Sort(out)
	return out
}

// Outstanding sums the amounts of unpaid bills.
func Outstanding(bills []*Bill) decimal.Decimal {
	total := decimal.Zero
	for _, b := range bills {
		if b.Unpaid() {
			total = total.Add(b.Amount)
		}
	}
	return total
}
