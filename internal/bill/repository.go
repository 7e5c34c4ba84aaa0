package bill

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository provides CRUD operations for bills.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a bill repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `id, property_id, description, amount, due_date, status, pdf_url, created_at, updated_at`

func scanBill(row interface{ Scan(...any) error }) (*Bill, error) {
	var b Bill
	var amount, status string
	if err := row.Scan(&b.ID, &b.PropertyID, &b.Description, &amount, &b.DueDate, &status, &b.PDFURL, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("bill %s has malformed amount %q: %w", b.ID, amount, err)
	}
	b.Amount = d
	b.Status = Status(status)
	return &b, nil
}

// Insert stores a new bill. An empty ID is filled with a fresh UUID.
func (r *Repository) Insert(b *Bill) (*Bill, error) {
	if !b.Status.IsValid() {
		return nil, fmt.Errorf("invalid bill status: %q", b.Status)
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	_, err := r.db.Exec(
		`INSERT INTO bills (id, property_id, description, amount, due_date, status, pdf_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.PropertyID, b.Description, b.Amount.StringFixed(2), b.DueDate.UTC(), string(b.Status), b.PDFURL, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting bill: %w", err)
	}

	return r.GetByID(b.ID)
}

// GetByID returns a bill by its ID.
func (r *Repository) GetByID(id string) (*Bill, error) {
	row := r.db.QueryRow("SELECT "+selectColumns+" FROM bills WHERE id = ?", id)
	b, err := scanBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bill %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying bill %s: %w", id, err)
	}
	return b, nil
}

// ListByProperty returns the bills of a property ordered by due date.
func (r *Repository) ListByProperty(propertyID string) (bills []*Bill, err error) {
	rows, err := r.db.Query(
		"SELECT "+selectColumns+" FROM bills WHERE property_id = ? ORDER BY due_date ASC, id ASC",
		propertyID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing bills: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning bill: %w", err)
		}
		bills = append(bills, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bills: %w", err)
	}

	return bills, nil
}

// Update saves the editable fields and status of a bill if its stored status
// is still from. It reports false when another writer changed the status
// first.
func (r *Repository) Update(b *Bill, from Status) (bool, error) {
	if !b.Status.IsValid() {
		return false, fmt.Errorf("invalid bill status: %q", b.Status)
	}
	result, err := r.db.Exec(
		`UPDATE bills SET description = ?, amount = ?, due_date = ?, status = ?, pdf_url = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		b.Description, b.Amount.StringFixed(2), b.DueDate.UTC(), string(b.Status), b.PDFURL, time.Now().UTC(), b.ID, string(from),
	)
	if err != nil {
		return false, fmt.Errorf("updating bill: %w", err)
	}
	return r.applied(result, b.ID)
}

// UpdateStatus moves a bill from one status to another. It reports false
// without writing when the stored status is no longer from.
func (r *Repository) UpdateStatus(id string, from, to Status) (bool, error) {
	if !to.IsValid() {
		return false, fmt.Errorf("invalid bill status: %q", to)
	}
	result, err := r.db.Exec(
		"UPDATE bills SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
		string(to), time.Now().UTC(), id, string(from),
	)
	if err != nil {
		return false, fmt.Errorf("updating bill status: %w", err)
	}
	return r.applied(result, id)
}

// Delete removes a bill by ID.
func (r *Repository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM bills WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting bill: %w", err)
	}
	return checkAffected(result, id)
}

func checkAffected(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("bill %s: %w", id, ErrNotFound)
	}
	return nil
}

// applied reports whether a conditional write hit its row. A miss on a
// bill that no longer exists is ErrNotFound.
func (r *Repository) applied(result sql.Result, id string) (bool, error) {
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	if rows > 0 {
		return true, nil
	}
	var one int
	err = r.db.QueryRow("SELECT 1 FROM bills WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("bill %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("querying bill %s: %w", id, err)
	}
	return false, nil
}
