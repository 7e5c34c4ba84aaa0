package user

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roomly/roomly/internal/db"
)

// Repository manages users in SQLite.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a user repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `id, name, email, role, property_ids, password_hash, created_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	var role, ids string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &role, &ids, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	set, err := db.DecodeSet(ids)
	if err != nil {
		return nil, fmt.Errorf("user %s property_ids: %w", u.ID, err)
	}
	u.Role = Role(role)
	u.PropertyIDs = set
	return &u, nil
}

// Insert creates a user. The email is stored lowercased.
func (r *Repository) Insert(u *User) (*User, error) {
	if !u.Role.IsValid() {
		return nil, fmt.Errorf("invalid role: %q", u.Role)
	}
	email := strings.ToLower(strings.TrimSpace(u.Email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	ids, err := db.EncodeSet(u.PropertyIDs)
	if err != nil {
		return nil, err
	}

	_, err = r.db.Exec(
		"INSERT INTO users (id, name, email, role, property_ids, password_hash, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		u.ID, strings.TrimSpace(u.Name), email, string(u.Role), ids, u.PasswordHash, time.Now().UTC(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, fmt.Errorf("%s: %w", email, ErrEmailTaken)
		}
		return nil, fmt.Errorf("adding user: %w", err)
	}

	return r.GetByID(u.ID)
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(id string) (*User, error) {
	u, err := scanUser(r.db.QueryRow("SELECT "+selectColumns+" FROM users WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

// GetByEmail returns a user by email, ignoring case.
func (r *Repository) GetByEmail(email string) (*User, error) {
	email = strings.TrimSpace(email)
	u, err := scanUser(r.db.QueryRow("SELECT "+selectColumns+" FROM users WHERE email = ?", email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

// List returns users ordered by email. An empty ids returns every user;
// otherwise only the listed users are returned.
func (r *Repository) List(ids ...string) (users []*User, err error) {
	query := "SELECT " + selectColumns + " FROM users"
	var args []any
	if len(ids) > 0 {
		query += " WHERE id IN (?" + strings.Repeat(", ?", len(ids)-1) + ")"
		for _, id := range ids {
			args = append(args, id)
		}
	}
	query += " ORDER BY email"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// AddProperty adds propertyID to the user's membership set and reports
// whether the set changed. Adding an existing member is a no-op.
func (r *Repository) AddProperty(userID, propertyID string) (bool, error) {
	return r.updateProperties(userID, func(ids []string) []string {
		return db.SetWith(ids, propertyID)
	})
}

// RemoveProperty removes propertyID from the user's membership set and
// reports whether it was there.
func (r *Repository) RemoveProperty(userID, propertyID string) (bool, error) {
	return r.updateProperties(userID, func(ids []string) []string {
		return db.SetWithout(ids, propertyID)
	})
}

func (r *Repository) updateProperties(userID string, change func([]string) []string) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var raw string
	err = tx.QueryRow("SELECT property_ids FROM users WHERE id = ?", userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("reading user properties: %w", err)
	}

	ids, err := db.DecodeSet(raw)
	if err != nil {
		return false, err
	}
	next := change(ids)
	if len(next) == len(ids) {
		return false, nil
	}
	encoded, err := db.EncodeSet(next)
	if err != nil {
		return false, err
	}

	if _, err := tx.Exec("UPDATE users SET property_ids = ? WHERE id = ?", encoded, userID); err != nil {
		return false, fmt.Errorf("updating user properties: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing user properties: %w", err)
	}
	return true, nil
}

// Delete removes a user by ID.
func (r *Repository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}

	return nil
}
