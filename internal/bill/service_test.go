package bill

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/roomly/roomly/internal/validate"
)

// memStore is an in-memory Store with switchable failures. interleave, when
// set, runs once before the next conditional write to stand in for another
// writer.
type memStore struct {
	bills        map[string]*Bill
	failInsert   bool
	failStatus   bool
	statusWrites []Transition
	interleave   func(s *memStore)
}

func newMemStore(bills ...*Bill) *memStore {
	s := &memStore{bills: map[string]*Bill{}}
	for _, b := range bills {
		c := *b
		s.bills[b.ID] = &c
	}
	return s
}

func (s *memStore) Insert(b *Bill) (*Bill, error) {
	if s.failInsert {
		return nil, errors.New("store unavailable")
	}
	c := *b
	s.bills[b.ID] = &c
	return s.GetByID(b.ID)
}

func (s *memStore) GetByID(id string) (*Bill, error) {
	b, ok := s.bills[id]
	if !ok {
		return nil, fmt.Errorf("bill %s: %w", id, ErrNotFound)
	}
	c := *b
	return &c, nil
}

func (s *memStore) ListByProperty(propertyID string) ([]*Bill, error) {
	var out []*Bill
	for _, b := range s.bills {
		if b.PropertyID == propertyID {
			c := *b
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *memStore) race() {
	if f := s.interleave; f != nil {
		s.interleave = nil
		f(s)
	}
}

func (s *memStore) Update(b *Bill, from Status) (bool, error) {
	s.race()
	cur, ok := s.bills[b.ID]
	if !ok {
		return false, ErrNotFound
	}
	if cur.Status != from {
		return false, nil
	}
	c := *b
	s.bills[b.ID] = &c
	return true, nil
}

func (s *memStore) UpdateStatus(id string, from, to Status) (bool, error) {
	if s.failStatus {
		return false, errors.New("write rejected")
	}
	s.race()
	b, ok := s.bills[id]
	if !ok {
		return false, ErrNotFound
	}
	if b.Status != from {
		return false, nil
	}
	s.statusWrites = append(s.statusWrites, Transition{ID: id, From: from, To: to})
	b.Status = to
	return true, nil
}

func (s *memStore) Delete(id string) error {
	if _, ok := s.bills[id]; !ok {
		return ErrNotFound
	}
	delete(s.bills, id)
	return nil
}

type memBlobs struct {
	objects   map[string][]byte
	failPut   bool
	failDel   bool
	deletions []string
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: map[string][]byte{}}
}

func (b *memBlobs) Put(key string, data []byte) (string, error) {
	if b.failPut {
		return "", errors.New("upload failed")
	}
	url := "http://files.test/files/" + key
	b.objects[url] = data
	return url, nil
}

func (b *memBlobs) Delete(url string) error {
	b.deletions = append(b.deletions, url)
	if b.failDel {
		return errors.New("delete failed")
	}
	delete(b.objects, url)
	return nil
}

func fixedClock() time.Time { return now }

func TestServiceListPersistsTransitions(t *testing.T) {
	store := newMemStore(
		newBill("late", StatusDue, now.AddDate(0, 0, -2), "10"),
		newBill("soon", StatusDue, now.AddDate(0, 0, 5), "20"),
	)
	svc := NewService(store, nil, fixedClock)

	bills, err := svc.List("p-1")
	require.NoError(t, err)
	require.Len(t, bills, 2)
	require.Equal(t, "late", bills[0].ID)
	require.Equal(t, StatusOverdue, bills[0].Status)
	require.Equal(t, StatusDue, bills[1].Status)
	require.Equal(t, []Transition{{ID: "late", From: StatusDue, To: StatusOverdue}}, store.statusWrites)

	// A second fetch finds nothing to persist.
	_, err = svc.List("p-1")
	require.NoError(t, err)
	require.Len(t, store.statusWrites, 1)
}

func TestServiceListFailsWhenPersistFails(t *testing.T) {
	store := newMemStore(newBill("late", StatusDue, now.AddDate(0, 0, -2), "10"))
	store.failStatus = true
	svc := NewService(store, nil, fixedClock)

	_, err := svc.List("p-1")
	require.ErrorContains(t, err, "write rejected")
}

func TestServiceListKeepsConcurrentPayment(t *testing.T) {
	store := newMemStore(
		newBill("late", StatusDue, now.AddDate(0, 0, -2), "10"),
		newBill("other", StatusDue, now.AddDate(0, 0, -1), "20"),
	)
	store.interleave = func(s *memStore) { s.bills["late"].Status = StatusPaid }
	svc := NewService(store, nil, fixedClock)

	bills, err := svc.List("p-1")
	require.NoError(t, err)
	require.Len(t, bills, 2)

	got := map[string]Status{}
	for _, b := range bills {
		got[b.ID] = b.Status
	}
	require.Equal(t, map[string]Status{"late": StatusPaid, "other": StatusOverdue}, got)
	require.Equal(t, StatusPaid, store.bills["late"].Status)
	require.Equal(t, []Transition{{ID: "other", From: StatusDue, To: StatusOverdue}}, store.statusWrites)
}

func TestServiceListDropsConcurrentlyDeletedBill(t *testing.T) {
	store := newMemStore(
		newBill("late", StatusDue, now.AddDate(0, 0, -2), "10"),
		newBill("soon", StatusDue, now.AddDate(0, 0, 4), "20"),
	)
	store.interleave = func(s *memStore) { delete(s.bills, "late") }
	svc := NewService(store, nil, fixedClock)

	bills, err := svc.List("p-1")
	require.NoError(t, err)
	require.Len(t, bills, 1)
	require.Equal(t, "soon", bills[0].ID)
}

func TestServiceGetKeepsConcurrentPayment(t *testing.T) {
	store := newMemStore(newBill("late", StatusDue, now.AddDate(0, 0, -2), "10"))
	store.interleave = func(s *memStore) { s.bills["late"].Status = StatusPaid }
	svc := NewService(store, nil, fixedClock)

	b, err := svc.Get("late")
	require.NoError(t, err)
	require.Equal(t, StatusPaid, b.Status)
	require.Equal(t, StatusPaid, store.bills["late"].Status)
	require.Empty(t, store.statusWrites)
}

func TestServiceListFiltered(t *testing.T) {
	store := newMemStore(
		newBill("a", StatusDue, now.AddDate(0, 0, -2), "10"),
		newBill("b", StatusPaid, now.AddDate(0, 0, -20), "20"),
		newBill("c", StatusDue, now.AddDate(0, 0, 3), "30"),
	)
	svc := NewService(store, nil, fixedClock)

	due, err := svc.ListFiltered("p-1", FilterDue)
	require.NoError(t, err)
	require.Len(t, due, 2)

	paid, err := svc.ListFiltered("p-1", FilterPaid)
	require.NoError(t, err)
	require.Len(t, paid, 1)
	require.Equal(t, "b", paid[0].ID)
}

func TestServiceAddDerivesStatus(t *testing.T) {
	svc := NewService(newMemStore(), nil, fixedClock)

	b, err := svc.Add(NewBill{PropertyID: "p-1", Amount: "100", DueDate: now.AddDate(0, 0, -1)}, nil)
	require.NoError(t, err)
	require.Equal(t, StatusOverdue, b.Status)

	b, err = svc.Add(NewBill{PropertyID: "p-1", Amount: "100", DueDate: now.AddDate(0, 0, 1)}, nil)
	require.NoError(t, err)
	require.Equal(t, StatusDue, b.Status)
}

func TestServiceAddValidation(t *testing.T) {
	svc := NewService(newMemStore(), nil, fixedClock)

	tests := []struct {
		name string
		in   NewBill
	}{
		{"missing amount", NewBill{PropertyID: "p-1", DueDate: now}},
		{"malformed amount", NewBill{PropertyID: "p-1", Amount: "ten", DueDate: now}},
		{"missing due date", NewBill{PropertyID: "p-1", Amount: "10"}},
		{"missing property", NewBill{Amount: "10", DueDate: now}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Add(tt.in, nil)
			require.True(t, validate.IsValidation(err), "got %v", err)
		})
	}
}

func TestServiceAddUploadsPDF(t *testing.T) {
	store := newMemStore()
	blobs := newMemBlobs()
	svc := NewService(store, blobs, fixedClock)

	b, err := svc.Add(NewBill{PropertyID: "p-1", Amount: "10", DueDate: now.AddDate(0, 0, 3)}, []byte("%PDF-1.4"))
	require.NoError(t, err)
	require.Equal(t, "http://files.test/files/bills/"+b.ID+".pdf", b.PDFURL)
	require.Contains(t, blobs.objects, b.PDFURL)
}

func TestServiceAddRemovesUploadWhenSaveFails(t *testing.T) {
	store := newMemStore()
	store.failInsert = true
	blobs := newMemBlobs()
	svc := NewService(store, blobs, fixedClock)

	_, err := svc.Add(NewBill{PropertyID: "p-1", Amount: "10", DueDate: now}, []byte("%PDF-1.4"))
	require.Error(t, err)
	require.Empty(t, blobs.objects)
	require.Len(t, blobs.deletions, 1)
}

func TestServiceAddUploadFailure(t *testing.T) {
	store := newMemStore()
	blobs := newMemBlobs()
	blobs.failPut = true
	svc := NewService(store, blobs, fixedClock)

	_, err := svc.Add(NewBill{PropertyID: "p-1", Amount: "10", DueDate: now}, []byte("%PDF-1.4"))
	require.ErrorContains(t, err, "upload failed")
	require.Empty(t, store.bills)
}

func TestServicePay(t *testing.T) {
	store := newMemStore(newBill("b", StatusOverdue, now.AddDate(0, 0, -3), "10"))
	svc := NewService(store, nil, fixedClock)

	paid, err := svc.Pay("b")
	require.NoError(t, err)
	require.Equal(t, StatusPaid, paid.Status)

	_, err = svc.Pay("b")
	require.ErrorIs(t, err, ErrPaid)

	_, err = svc.Pay("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestServicePayRacingPayment(t *testing.T) {
	store := newMemStore(newBill("b", StatusOverdue, now.AddDate(0, 0, -3), "10"))
	store.interleave = func(s *memStore) { s.bills["b"].Status = StatusPaid }
	svc := NewService(store, nil, fixedClock)

	_, err := svc.Pay("b")
	require.ErrorIs(t, err, ErrPaid)
	require.Empty(t, store.statusWrites)
}

func TestServiceUpdateDoesNotUnpay(t *testing.T) {
	store := newMemStore(newBill("b", StatusOverdue, now.AddDate(0, 0, -5), "1"))
	store.interleave = func(s *memStore) { s.bills["b"].Status = StatusPaid }
	svc := NewService(store, nil, fixedClock)

	later := now.AddDate(0, 0, 10)
	got, err := svc.Update("b", Changes{DueDate: &later})
	require.NoError(t, err)
	require.Equal(t, StatusPaid, got.Status)
	require.Equal(t, later, got.DueDate)
}

func TestServiceUpdateGivesUpAfterRepeatedConflicts(t *testing.T) {
	store := newMemStore(newBill("b", StatusDue, now.AddDate(0, 0, 5), "1"))
	var flip func(s *memStore)
	flip = func(s *memStore) {
		if s.bills["b"].Status == StatusDue {
			s.bills["b"].Status = StatusOverdue
		} else {
			s.bills["b"].Status = StatusDue
		}
		s.interleave = flip
	}
	store.interleave = flip
	svc := NewService(store, nil, fixedClock)

	desc := "Water"
	_, err := svc.Update("b", Changes{Description: &desc})
	require.ErrorIs(t, err, ErrConflict)
}

func TestServiceUpdate(t *testing.T) {
	later := now.AddDate(0, 0, 10)
	earlier := now.AddDate(0, 0, -1)
	amount := decimal.RequireFromString("55.555")
	desc := "Gas"

	tests := []struct {
		name   string
		start  *Bill
		change Changes
		want   Status
	}{
		{"overdue moved forward becomes due", newBill("b", StatusOverdue, now.AddDate(0, 0, -5), "1"), Changes{DueDate: &later}, StatusDue},
		{"overdue moved to exactly now becomes due", newBill("b", StatusOverdue, now.AddDate(0, 0, -5), "1"), Changes{DueDate: &now}, StatusDue},
		{"due moved back becomes overdue", newBill("b", StatusDue, now.AddDate(0, 0, 5), "1"), Changes{DueDate: &earlier}, StatusOverdue},
		{"paid stays paid", newBill("b", StatusPaid, now.AddDate(0, 0, -5), "1"), Changes{DueDate: &later}, StatusPaid},
		{"amount only keeps status", newBill("b", StatusDue, now.AddDate(0, 0, 5), "1"), Changes{Amount: &amount, Description: &desc}, StatusDue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(newMemStore(tt.start), nil, fixedClock)
			got, err := svc.Update("b", tt.change)
			require.NoError(t, err)
			require.Equal(t, tt.want, got.Status)
			if tt.change.Amount != nil {
				require.Equal(t, "55.56", got.Amount.StringFixed(2))
				require.Equal(t, "Gas", got.Description)
			}
		})
	}
}

func TestServiceDelete(t *testing.T) {
	withPDF := newBill("b", StatusDue, now, "1")
	withPDF.PDFURL = "http://files.test/files/bills/b.pdf"

	t.Run("removes pdf then bill", func(t *testing.T) {
		store := newMemStore(withPDF)
		blobs := newMemBlobs()
		svc := NewService(store, blobs, fixedClock)

		require.NoError(t, svc.Delete("b"))
		require.Equal(t, []string{withPDF.PDFURL}, blobs.deletions)
		require.Empty(t, store.bills)
	})

	t.Run("pdf failure does not block delete", func(t *testing.T) {
		store := newMemStore(withPDF)
		blobs := newMemBlobs()
		blobs.failDel = true
		svc := NewService(store, blobs, fixedClock)

		require.NoError(t, svc.Delete("b"))
		require.Empty(t, store.bills)
	})

	t.Run("missing bill", func(t *testing.T) {
		svc := NewService(newMemStore(), newMemBlobs(), fixedClock)
		require.ErrorIs(t, svc.Delete("b"), ErrNotFound)
	})
}

func TestServiceUpcoming(t *testing.T) {
	store := newMemStore(
		newBill("soon", StatusDue, now.AddDate(0, 0, 2), "1"),
		newBill("far", StatusDue, now.AddDate(0, 0, 30), "1"),
		newBill("paid", StatusPaid, now.AddDate(0, 0, 1), "1"),
	)
	svc := NewService(store, nil, fixedClock)

	got, err := svc.Upcoming("p-1", UpcomingDays)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "soon", got[0].ID)
}
