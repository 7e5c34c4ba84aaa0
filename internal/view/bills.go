// Package view holds screen state as immutable snapshots. Each screen has a
// state value and a reducer that returns the next state for an action; the
// input state is never modified.
package view

import (
	"slices"

	"github.com/roomly/roomly/internal/bill"
)

// BillsState is the bills screen for one property.
type BillsState struct {
	PropertyID string
	Bills      []*bill.Bill
	Filter     bill.Filter
	Loading    bool
	Err        string
}

// NewBillsState returns the initial state for a property's bills screen.
func NewBillsState(propertyID string) BillsState {
	return BillsState{PropertyID: propertyID, Filter: bill.FilterAll}
}

// Visible returns the bills shown under the current filter.
func (s BillsState) Visible() []*bill.Bill {
	return bill.Select(s.Bills, s.Filter)
}

// BillsAction is an event on the bills screen.
type BillsAction interface {
	billsAction()
}

// LoadStarted marks the start of a fetch. It applies to both screens.
type LoadStarted struct{}

// BillsLoaded carries the result of a successful fetch.
type BillsLoaded struct{ Bills []*bill.Bill }

// LoadFailed carries a fetch or mutation failure. It applies to both screens.
type LoadFailed struct{ Err error }

// FilterSelected switches the category tab.
type FilterSelected struct{ Filter bill.Filter }

// BillPaid replaces a bill with its paid version.
type BillPaid struct{ Bill *bill.Bill }

// BillRemoved drops a bill from the list.
type BillRemoved struct{ ID string }

func (LoadStarted) billsAction()    {}
func (BillsLoaded) billsAction()    {}
func (LoadFailed) billsAction()     {}
func (FilterSelected) billsAction() {}
func (BillPaid) billsAction()       {}
func (BillRemoved) billsAction()    {}

// ReduceBills returns the state after applying a.
func ReduceBills(s BillsState, a BillsAction) BillsState {
	switch a := a.(type) {
	case LoadStarted:
		s.Loading = true
		s.Err = ""
	case BillsLoaded:
		s.Bills = slices.Clone(a.Bills)
		bill.Sort(s.Bills)
		s.Loading = false
		s.Err = ""
	case LoadFailed:
		s.Loading = false
		if a.Err != nil {
			s.Err = a.Err.Error()
		}
	case FilterSelected:
		s.Filter = a.Filter
	case BillPaid:
		s.Bills = replaceBill(s.Bills, a.Bill)
	case BillRemoved:
		s.Bills = slices.DeleteFunc(slices.Clone(s.Bills), func(b *bill.Bill) bool { return b.ID == a.ID })
	}
	return s
}

func replaceBill(bills []*bill.Bill, updated *bill.Bill) []*bill.Bill {
	out := slices.Clone(bills)
	for i, b := range out {
		if b.ID == updated.ID {
			out[i] = updated
		}
	}
	return out
}
