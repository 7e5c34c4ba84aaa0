package view

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/roomly/roomly/internal/bill"
	"github.com/roomly/roomly/internal/maintenance"
	"github.com/roomly/roomly/internal/property"
	"github.com/roomly/roomly/internal/user"
)

// DashboardSnapshot is the home screen for a user.
type DashboardSnapshot struct {
	User            *user.User           `json:"user"`
	Properties      []*property.Property `json:"properties"`
	NextBill        *bill.Bill           `json:"next_bill,omitempty"`
	NextMaintenance *maintenance.Event   `json:"next_maintenance,omitempty"`
	Outstanding     decimal.Decimal      `json:"outstanding"`
	OverdueCount    int                  `json:"overdue_count"`
	UpcomingCount   int                  `json:"upcoming_maintenance_count"`
}

// Dashboard builds the home screen from already-derived data. Bills and
// events from properties the user cannot see are ignored.
func Dashboard(u *user.User, props []*property.Property, bills []*bill.Bill, events []*maintenance.Event, now time.Time) DashboardSnapshot {
	visible := property.VisibleTo(props, u)
	ids := make(map[string]bool, len(visible))
	for _, p := range visible {
		ids[p.ID] = true
	}

	snap := DashboardSnapshot{User: u, Properties: visible, Outstanding: decimal.Zero}

	var unpaid []*bill.Bill
	for _, b := range bills {
		if !ids[b.PropertyID] || !b.Unpaid() {
			continue
		}
		unpaid = append(unpaid, b)
		if b.Status == bill.StatusOverdue {
			snap.OverdueCount++
		}
	}
	bill.Sort(unpaid)
	if len(unpaid) > 0 {
		snap.NextBill = unpaid[0]
	}
	snap.Outstanding = bill.Outstanding(unpaid)

	var mine []*maintenance.Event
	for _, e := range events {
		if ids[e.PropertyID] {
			mine = append(mine, e)
		}
	}
	upcoming := maintenance.Upcoming(mine, now, maintenance.HighlightDays)
	snap.UpcomingCount = len(upcoming)
	if len(upcoming) > 0 {
		snap.NextMaintenance = upcoming[0]
	}

	return snap
}
