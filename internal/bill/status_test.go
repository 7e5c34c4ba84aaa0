package bill

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/roomly/roomly/internal/validate"
)

var now = time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)

func newBill(id string, status Status, due time.Time, amount string) *Bill {
	return &Bill{
		ID:         id,
		PropertyID: "p-1",
		Amount:     decimal.RequireFromString(amount),
		DueDate:    due,
		Status:     status,
	}
}

func TestDerive(t *testing.T) {
	tests := []struct {
		name        string
		status      Status
		due         time.Time
		want        Status
		wantChanged bool
	}{
		{"due in five days stays due", StatusDue, now.AddDate(0, 0, 5), StatusDue, false},
		{"due two days ago becomes overdue", StatusDue, now.AddDate(0, 0, -2), StatusOverdue, true},
		{"due exactly now stays due", StatusDue, now, StatusDue, false},
		{"due one second ago becomes overdue", StatusDue, now.Add(-time.Second), StatusOverdue, true},
		{"overdue stays overdue", StatusOverdue, now.AddDate(0, 0, -9), StatusOverdue, false},
		{"paid in the past stays paid", StatusPaid, now.AddDate(0, -1, 0), StatusPaid, false},
		{"paid in the future stays paid", StatusPaid, now.AddDate(0, 1, 0), StatusPaid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBill("b-1", tt.status, tt.due, "10")
			got, changed := Derive(*b, now)
			require.Equal(t, tt.want, got.Status)
			require.Equal(t, tt.wantChanged, changed)
			require.Equal(t, tt.status, b.Status, "input must not change")
		})
	}
}

func TestRefreshIsIdempotent(t *testing.T) {
	bills := []*Bill{
		newBill("a", StatusDue, now.AddDate(0, 0, -2), "10"),
		newBill("b", StatusDue, now.AddDate(0, 0, 5), "20"),
		newBill("c", StatusPaid, now.AddDate(0, 0, -30), "30"),
		newBill("d", StatusOverdue, now.AddDate(0, 0, -1), "40"),
	}

	once, changes := Refresh(bills, now)
	require.Equal(t, []Transition{{ID: "a", From: StatusDue, To: StatusOverdue}}, changes)
	require.Equal(t, StatusDue, bills[0].Status, "input must not change")

	twice, again := Refresh(once, now)
	require.Empty(t, again)
	require.Equal(t, once, twice)
}

func TestFilterPartition(t *testing.T) {
	bills := []*Bill{
		newBill("a", StatusDue, now, "1"),
		newBill("b", StatusOverdue, now, "2"),
		newBill("c", StatusPaid, now, "3"),
		newBill("d", StatusDue, now, "4"),
		newBill("e", StatusPaid, now, "5"),
	}

	all := Select(bills, FilterAll)
	due := Select(bills, FilterDue)
	paid := Select(bills, FilterPaid)

	require.Len(t, all, len(bills))
	require.Len(t, due, 3)
	require.Len(t, paid, 2)

	seen := map[string]int{}
	for _, b := range append(append([]*Bill{}, due...), paid...) {
		seen[b.ID]++
	}
	for _, b := range all {
		require.Equal(t, 1, seen[b.ID], "bill %s must appear in exactly one partition", b.ID)
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    Filter
		wantErr bool
	}{
		{"", FilterAll, false},
		{"All", FilterAll, false},
		{"DUE", FilterDue, false},
		{" paid ", FilterPaid, false},
		{"overdue", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFilter(tt.in)
			if tt.wantErr {
				require.True(t, validate.IsValidation(err))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestSortByDueDateThenID(t *testing.T) {
	bills := []*Bill{
		newBill("z", StatusDue, now.AddDate(0, 0, 3), "1"),
		newBill("b", StatusDue, now.AddDate(0, 0, 1), "1"),
		newBill("a", StatusDue, now.AddDate(0, 0, 1), "1"),
	}
	Sort(bills)
	require.Equal(t, []string{"a", "b", "z"}, []string{bills[0].ID, bills[1].ID, bills[2].ID})
}

func TestUpcoming(t *testing.T) {
	bills := []*Bill{
		newBill("edge", StatusDue, now.AddDate(0, 0, UpcomingDays), "1"),
		newBill("past-edge", StatusDue, now.AddDate(0, 0, UpcomingDays).Add(time.Second), "1"),
		newBill("now", StatusDue, now, "1"),
		newBill("paid", StatusPaid, now.AddDate(0, 0, 1), "1"),
		newBill("late", StatusOverdue, now.Add(-time.Hour), "1"),
	}

	got := Upcoming(bills, now, UpcomingDays)
	var ids []string
	for _, b := range got {
		ids = append(ids, b.ID)
	}
	require.Equal(t, []string{"now", "edge"}, ids)
}

func TestOutstanding(t *testing.T) {
	bills := []*Bill{
		newBill("a", StatusDue, now, "100.50"),
		newBill("b", StatusOverdue, now, "20.25"),
		newBill("c", StatusPaid, now, "999"),
	}
	require.Equal(t, "120.75", Outstanding(bills).StringFixed(2))
	require.True(t, Outstanding(nil).IsZero())
}
