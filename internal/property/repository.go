package property

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roomly/roomly/internal/db"
	"github.com/roomly/roomly/internal/user"
)

// Repository provides CRUD operations for properties.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a property repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `id, address, rent, bedrooms, bathrooms, area_sqft, tenant_ids, landlord_id, maintenance_count, created_at, updated_at`

// scanProperty scans a property from a database row.
func scanProperty(row interface{ Scan(...any) error }) (*Property, error) {
	var p Property
	var rent, tenants string
	err := row.Scan(
		&p.ID, &p.Address, &rent, &p.Bedrooms, &p.Bathrooms, &p.AreaSqft,
		&tenants, &p.LandlordID, &p.MaintenanceCount, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if p.Rent, err = decimal.NewFromString(rent); err != nil {
		return nil, fmt.Errorf("property %s has malformed rent %q: %w", p.ID, rent, err)
	}
	if p.TenantIDs, err = db.DecodeSet(tenants); err != nil {
		return nil, fmt.Errorf("property %s tenant_ids: %w", p.ID, err)
	}
	return &p, nil
}

// Insert adds a new property and returns it as stored.
func (r *Repository) Insert(p *Property) (*Property, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	tenants, err := db.EncodeSet(p.TenantIDs)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	_, err = r.db.Exec(
		`INSERT INTO properties (id, address, rent, bedrooms, bathrooms, area_sqft, tenant_ids, landlord_id, maintenance_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Address, p.Rent.StringFixed(2), p.Bedrooms, p.Bathrooms, p.AreaSqft,
		tenants, p.LandlordID, p.MaintenanceCount, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting property: %w", err)
	}

	return r.GetByID(p.ID)
}

// GetByID returns a property by its ID.
func (r *Repository) GetByID(id string) (*Property, error) {
	p, err := scanProperty(r.db.QueryRow("SELECT "+selectColumns+" FROM properties WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("property %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying property %s: %w", id, err)
	}
	return p, nil
}

// List returns every property ordered by address.
func (r *Repository) List() ([]*Property, error) {
	return r.query("SELECT " + selectColumns + " FROM properties ORDER BY address, id")
}

// ListByLandlord returns the properties owned by landlordID.
func (r *Repository) ListByLandlord(landlordID string) ([]*Property, error) {
	return r.query("SELECT "+selectColumns+" FROM properties WHERE landlord_id = ? ORDER BY address, id", landlordID)
}

// ListByTenant returns the properties whose tenant set contains tenantID.
func (r *Repository) ListByTenant(tenantID string) ([]*Property, error) {
	return r.query(
		`SELECT `+selectColumns+` FROM properties
		 WHERE EXISTS (SELECT 1 FROM json_each(properties.tenant_ids) WHERE json_each.value = ?)
		 ORDER BY address, id`,
		tenantID,
	)
}

// ListForUser returns the properties visible to u: owned ones for a
// landlord, member ones for a tenant.
func (r *Repository) ListForUser(u *user.User) ([]*Property, error) {
	if u.IsLandlord() {
		return r.ListByLandlord(u.ID)
	}
	return r.ListByTenant(u.ID)
}

func (r *Repository) query(query string, args ...any) (properties []*Property, err error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing properties: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning property: %w", err)
		}
		properties = append(properties, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating properties: %w", err)
	}

	return properties, nil
}

// Update saves the descriptive fields of a property. Tenants, landlord and
// the maintenance counter are changed through their own operations.
func (r *Repository) Update(p *Property) error {
	result, err := r.db.Exec(
		`UPDATE properties SET address = ?, rent = ?, bedrooms = ?, bathrooms = ?, area_sqft = ?, updated_at = ?
		 WHERE id = ?`,
		p.Address, p.Rent.StringFixed(2), p.Bedrooms, p.Bathrooms, p.AreaSqft, time.Now().UTC(), p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating property: %w", err)
	}
	return checkAffected(result, p.ID)
}

// AddTenant adds userID to the property's tenant set and reports whether the
// set changed. Adding an existing tenant is a no-op.
func (r *Repository) AddTenant(propertyID, userID string) (bool, error) {
	return r.updateTenants(propertyID, func(ids []string) []string {
		return db.SetWith(ids, userID)
	})
}

// RemoveTenant removes userID from the property's tenant set and reports
// whether it was there.
func (r *Repository) RemoveTenant(propertyID, userID string) (bool, error) {
	return r.updateTenants(propertyID, func(ids []string) []string {
		return db.SetWithout(ids, userID)
	})
}

func (r *Repository) updateTenants(propertyID string, change func([]string) []string) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var raw string
	err = tx.QueryRow("SELECT tenant_ids FROM properties WHERE id = ?", propertyID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("property %s: %w", propertyID, ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("reading tenants: %w", err)
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

	if _, err := tx.Exec(
		"UPDATE properties SET tenant_ids = ?, updated_at = ? WHERE id = ?",
		encoded, time.Now().UTC(), propertyID,
	); err != nil {
		return false, fmt.Errorf("updating tenants: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing tenants: %w", err)
	}
	return true, nil
}

// Delete removes a property. Its bills and maintenance events go with it.
func (r *Repository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM properties WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting property: %w", err)
	}
	return checkAffected(result, id)
}

func checkAffected(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("property %s: %w", id, ErrNotFound)
	}
	return nil
}
