package bill

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roomly/roomly/internal/db"
)

func TestInsertAndGet(t *testing.T) {
	repo := testRepo(t)

	due := time.Date(2026, time.November, 1, 9, 0, 0, 0, time.UTC)
	b, err := repo.Insert(&Bill{
		PropertyID:  "p-1",
		Description: "Water",
		Amount:      decimal.RequireFromString("42.5"),
		DueDate:     due,
		Status:      StatusDue,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if b.ID == "" {
		t.Error("expected generated ID")
	}
	if b.Amount.StringFixed(2) != "42.50" {
		t.Errorf("amount = %s, want 42.50", b.Amount.StringFixed(2))
	}
	if !b.DueDate.Equal(due) {
		t.Errorf("due_date = %v, want %v", b.DueDate, due)
	}
	if b.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}

	got, err := repo.GetByID(b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Description != "Water" {
		t.Errorf("description = %q, want %q", got.Description, "Water")
	}
}

func TestInsertInvalidStatus(t *testing.T) {
	repo := testRepo(t)

	_, err := repo.Insert(&Bill{PropertyID: "p-1", Amount: decimal.NewFromInt(1), DueDate: time.Now(), Status: "late"})
	if err == nil {
		t.Fatal("expected error for invalid status")
	}
}

func TestInsertUnknownProperty(t *testing.T) {
	repo := testRepo(t)

	_, err := repo.Insert(&Bill{PropertyID: "nope", Amount: decimal.NewFromInt(1), DueDate: time.Now(), Status: StatusDue})
	if err == nil {
		t.Fatal("expected foreign key error")
	}
}

func TestGetByIDNotFound(t *testing.T) {
	repo := testRepo(t)

	_, err := repo.GetByID("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListByPropertyOrdered(t *testing.T) {
	repo := testRepo(t)

	base := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	for _, offset := range []int{10, -3, 4} {
		if _, err := repo.Insert(&Bill{
			PropertyID: "p-1",
			Amount:     decimal.NewFromInt(int64(offset + 100)),
			DueDate:    base.AddDate(0, 0, offset),
			Status:     StatusDue,
		}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	bills, err := repo.ListByProperty("p-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(bills) != 3 {
		t.Fatalf("got %d bills, want 3", len(bills))
	}
	for i := 1; i < len(bills); i++ {
		if bills[i].DueDate.Before(bills[i-1].DueDate) {
			t.Errorf("bills not ordered by due date: %v before %v", bills[i-1].DueDate, bills[i].DueDate)
		}
	}

	other, err := repo.ListByProperty("p-other")
	if err != nil {
		t.Fatalf("list other: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("got %d bills for other property, want 0", len(other))
	}
}

func TestUpdateAndUpdateStatus(t *testing.T) {
	repo := testRepo(t)

	b, err := repo.Insert(&Bill{PropertyID: "p-1", Amount: decimal.NewFromInt(10), DueDate: time.Now(), Status: StatusDue})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	b.Description = "Electric"
	b.Amount = decimal.RequireFromString("75.25")
	if ok, err := repo.Update(b, StatusDue); err != nil || !ok {
		t.Fatalf("update: ok=%v err=%v", ok, err)
	}
	if ok, err := repo.UpdateStatus(b.ID, StatusDue, StatusPaid); err != nil || !ok {
		t.Fatalf("update status: ok=%v err=%v", ok, err)
	}

	got, err := repo.GetByID(b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Description != "Electric" || got.Amount.StringFixed(2) != "75.25" || got.Status != StatusPaid {
		t.Errorf("got %+v", got)
	}

	if _, err := repo.UpdateStatus("missing", StatusDue, StatusPaid); !errors.Is(err, ErrNotFound) {
		t.Errorf("update missing: err = %v, want ErrNotFound", err)
	}
	if _, err := repo.UpdateStatus(b.ID, StatusPaid, "late"); err == nil {
		t.Error("expected error for invalid status")
	}
}

func TestUpdateStatusSkipsChangedRow(t *testing.T) {
	repo := testRepo(t)

	b, err := repo.Insert(&Bill{PropertyID: "p-1", Amount: decimal.NewFromInt(10), DueDate: time.Now().AddDate(0, 0, -1), Status: StatusDue})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	// Another writer pays the bill after the caller read it as due.
	if ok, err := repo.UpdateStatus(b.ID, StatusDue, StatusPaid); err != nil || !ok {
		t.Fatalf("pay: ok=%v err=%v", ok, err)
	}

	ok, err := repo.UpdateStatus(b.ID, StatusDue, StatusOverdue)
	if err != nil {
		t.Fatalf("stale update status: %v", err)
	}
	if ok {
		t.Error("stale update status reported a write")
	}

	b.Description = "Stale edit"
	ok, err = repo.Update(b, StatusDue)
	if err != nil {
		t.Fatalf("stale update: %v", err)
	}
	if ok {
		t.Error("stale update reported a write")
	}

	got, err := repo.GetByID(b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusPaid || got.Description != "" {
		t.Errorf("got %+v, want untouched paid bill", got)
	}
}

func TestDelete(t *testing.T) {
	repo := testRepo(t)

	b, err := repo.Insert(&Bill{PropertyID: "p-1", Amount: decimal.NewFromInt(10), DueDate: time.Now(), Status: StatusDue})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := repo.Delete(b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(b.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete: err = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(b.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

func testRepo(t *testing.T) *Repository {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := database.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})

	for _, id := range []string{"p-1", "p-other"} {
		if _, err := database.Exec(
			"INSERT INTO properties (id, address, landlord_id) VALUES (?, ?, ?)", id, "1 Test St", "l-1",
		); err != nil {
			t.Fatalf("insert property: %v", err)
		}
	}

	return NewRepository(database)
}
