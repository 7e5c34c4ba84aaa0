package maintenance

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository provides CRUD operations for maintenance events and keeps the
// owning property's maintenance_count in step.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a maintenance repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `id, property_id, description, notes, scheduled_at, status, created_by, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (*Event, error) {
	var e Event
	var status string
	if err := row.Scan(&e.ID, &e.PropertyID, &e.Description, &e.Notes, &e.ScheduledAt, &status, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.Status = Status(status)
	return &e, nil
}

// Insert stores a new event and increments the property's maintenance count.
func (r *Repository) Insert(e *Event) (*Event, error) {
	if !e.Status.IsValid() {
		return nil, fmt.Errorf("invalid maintenance status: %q", e.Status)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(
		`INSERT INTO maintenance (id, property_id, description, notes, scheduled_at, status, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.PropertyID, e.Description, e.Notes, e.ScheduledAt.UTC(), string(e.Status), e.CreatedBy, now, now,
	); err != nil {
		return nil, fmt.Errorf("inserting maintenance event: %w", err)
	}

	if _, err := tx.Exec(
		"UPDATE properties SET maintenance_count = maintenance_count + 1, updated_at = ? WHERE id = ?",
		now, e.PropertyID,
	); err != nil {
		return nil, fmt.Errorf("incrementing maintenance count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing maintenance event: %w", err)
	}

	return r.GetByID(e.ID)
}

// GetByID returns an event by its ID.
func (r *Repository) GetByID(id string) (*Event, error) {
	row := r.db.QueryRow("SELECT "+selectColumns+" FROM maintenance WHERE id = ?", id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("maintenance event %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying maintenance event %s: %w", id, err)
	}
	return e, nil
}

// ListByProperty returns a property's events ordered by scheduled time.
func (r *Repository) ListByProperty(propertyID string) (events []*Event, err error) {
	rows, err := r.db.Query(
		"SELECT "+selectColumns+" FROM maintenance WHERE property_id = ? ORDER BY scheduled_at ASC, id ASC",
		propertyID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing maintenance events: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning maintenance event: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating maintenance events: %w", err)
	}

	return events, nil
}

// Update saves the editable fields and status of an event if its stored
// status is still from. It reports false when another writer changed the
// status first.
func (r *Repository) Update(e *Event, from Status) (bool, error) {
	if !e.Status.IsValid() {
		return false, fmt.Errorf("invalid maintenance status: %q", e.Status)
	}
	result, err := r.db.Exec(
		`UPDATE maintenance SET description = ?, notes = ?, scheduled_at = ?, status = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		e.Description, e.Notes, e.ScheduledAt.UTC(), string(e.Status), time.Now().UTC(), e.ID, string(from),
	)
	if err != nil {
		return false, fmt.Errorf("updating maintenance event: %w", err)
	}
	return r.applied(result, e.ID)
}

// UpdateStatus moves an event from one status to another. It reports false
// without writing when the stored status is no longer from.
func (r *Repository) UpdateStatus(id string, from, to Status) (bool, error) {
	if !to.IsValid() {
		return false, fmt.Errorf("invalid maintenance status: %q", to)
	}
	result, err := r.db.Exec(
		"UPDATE maintenance SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
		string(to), time.Now().UTC(), id, string(from),
	)
	if err != nil {
		return false, fmt.Errorf("updating maintenance status: %w", err)
	}
	return r.applied(result, id)
}

// applied reports whether a conditional write hit its row. A miss on an
// event that no longer exists is ErrNotFound.
func (r *Repository) applied(result sql.Result, id string) (bool, error) {
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	if rows > 0 {
		return true, nil
	}
	var one int
	err = r.db.QueryRow("SELECT 1 FROM maintenance WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("maintenance event %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("querying maintenance event %s: %w", id, err)
	}
	return false, nil
}

// Delete removes an event and decrements the property's maintenance count,
// never below zero.
func (r *Repository) Delete(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var propertyID string
	err = tx.QueryRow("SELECT property_id FROM maintenance WHERE id = ?", id).Scan(&propertyID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("maintenance event %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("querying maintenance event %s: %w", id, err)
	}

	if _, err := tx.Exec("DELETE FROM maintenance WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting maintenance event: %w", err)
	}

	if _, err := tx.Exec(
		"UPDATE properties SET maintenance_count = MAX(maintenance_count - 1, 0), updated_at = ? WHERE id = ?",
		time.Now().UTC(), propertyID,
	); err != nil {
		return fmt.Errorf("decrementing maintenance count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing maintenance delete: %w", err)
	}
	return nil
}
