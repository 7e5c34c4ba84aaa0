package tenancy

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roomly/roomly/internal/db"
	"github.com/roomly/roomly/internal/property"
	"github.com/roomly/roomly/internal/user"
)

var (
	errUserWrite = errors.New("user store unavailable")
	errUndo      = errors.New("property store unavailable")
)

// flakyUsers fails user-side membership writes on demand.
type flakyUsers struct {
	*user.Repository
	failAdd    bool
	failRemove bool
}

func (f *flakyUsers) AddProperty(userID, propertyID string) (bool, error) {
	if f.failAdd {
		return false, errUserWrite
	}
	return f.Repository.AddProperty(userID, propertyID)
}

func (f *flakyUsers) RemoveProperty(userID, propertyID string) (bool, error) {
	if f.failRemove {
		return false, errUserWrite
	}
	return f.Repository.RemoveProperty(userID, propertyID)
}

// flakyProps fails property-side membership writes on demand.
type flakyProps struct {
	*property.Repository
	failAdd    bool
	failRemove bool
	failDelete bool
}

func (f *flakyProps) AddTenant(propertyID, userID string) (bool, error) {
	if f.failAdd {
		return false, errUndo
	}
	return f.Repository.AddTenant(propertyID, userID)
}

func (f *flakyProps) RemoveTenant(propertyID, userID string) (bool, error) {
	if f.failRemove {
		return false, errUndo
	}
	return f.Repository.RemoveTenant(propertyID, userID)
}

func (f *flakyProps) Delete(id string) error {
	if f.failDelete {
		return errors.New("delete rejected")
	}
	return f.Repository.Delete(id)
}

type fixture struct {
	db       *sql.DB
	props    *flakyProps
	users    *flakyUsers
	svc      *Service
	property *property.Property
	tenant   *user.User
	landlord *user.User
}

func setup(t *testing.T) *fixture {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, database.Close()) })

	f := &fixture{
		db:    database,
		props: &flakyProps{Repository: property.NewRepository(database)},
		users: &flakyUsers{Repository: user.NewRepository(database)},
	}
	f.svc = NewService(f.props, f.users)

	f.landlord, err = f.users.Insert(&user.User{Name: "Lena", Email: "lena@example.com", Role: user.RoleLandlord})
	require.NoError(t, err)
	f.tenant, err = f.users.Insert(&user.User{Name: "Tom", Email: "tom@example.com", Role: user.RoleTenant})
	require.NoError(t, err)
	f.property, err = f.props.Insert(&property.Property{Address: "9 Quay St", LandlordID: f.landlord.ID})
	require.NoError(t, err)
	return f
}

func (f *fixture) state(t *testing.T) (tenantIDs, propertyIDs []string) {
	t.Helper()
	p, err := f.props.GetByID(f.property.ID)
	require.NoError(t, err)
	u, err := f.users.GetByID(f.tenant.ID)
	require.NoError(t, err)
	return p.TenantIDs, u.PropertyIDs
}

func TestAddTenantUpdatesBothSides(t *testing.T) {
	f := setup(t)

	u, err := f.svc.AddTenant("TOM@example.com", f.property.ID)
	require.NoError(t, err)
	require.Equal(t, []string{f.property.ID}, u.PropertyIDs)

	tenants, props := f.state(t)
	require.Equal(t, []string{f.tenant.ID}, tenants)
	require.Equal(t, []string{f.property.ID}, props)

	// Adding again is a no-op on each side.
	_, err = f.svc.AddTenant("tom@example.com", f.property.ID)
	require.NoError(t, err)
	tenants, props = f.state(t)
	require.Len(t, tenants, 1)
	require.Len(t, props, 1)
}

func TestAddTenantRejects(t *testing.T) {
	f := setup(t)

	_, err := f.svc.AddTenant("lena@example.com", f.property.ID)
	require.ErrorIs(t, err, ErrNotTenant)

	_, err = f.svc.AddTenant("nobody@example.com", f.property.ID)
	require.ErrorIs(t, err, user.ErrNotFound)

	_, err = f.svc.AddTenant("tom@example.com", "missing")
	require.ErrorIs(t, err, property.ErrNotFound)

	tenants, props := f.state(t)
	require.Empty(t, tenants)
	require.Empty(t, props)
}

func TestAddTenantUserWriteFailsIsUndone(t *testing.T) {
	f := setup(t)
	f.users.failAdd = true

	_, err := f.svc.AddTenant("tom@example.com", f.property.ID)
	require.ErrorIs(t, err, errUserWrite)

	var inconsistent *InconsistentError
	require.False(t, errors.As(err, &inconsistent), "undo succeeded, so the error must not claim inconsistency")

	tenants, props := f.state(t)
	require.Empty(t, tenants, "property write must be undone")
	require.Empty(t, props)
}

func TestAddTenantPartialFailureIsSurfaced(t *testing.T) {
	f := setup(t)
	f.users.failAdd = true
	f.props.failRemove = true

	_, err := f.svc.AddTenant("tom@example.com", f.property.ID)
	require.Error(t, err)

	var inconsistent *InconsistentError
	require.ErrorAs(t, err, &inconsistent)
	require.Equal(t, f.property.ID, inconsistent.PropertyID)
	require.Equal(t, f.tenant.ID, inconsistent.UserID)
	require.ErrorIs(t, err, errUserWrite)
	require.ErrorIs(t, err, errUndo)

	// The store really is inconsistent, and the error says so.
	tenants, props := f.state(t)
	require.Equal(t, []string{f.tenant.ID}, tenants)
	require.Empty(t, props)
}

func TestRemoveTenant(t *testing.T) {
	f := setup(t)
	_, err := f.svc.AddTenant("tom@example.com", f.property.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveTenant(f.tenant.ID, f.property.ID))
	tenants, props := f.state(t)
	require.Empty(t, tenants)
	require.Empty(t, props)

	require.ErrorIs(t, f.svc.RemoveTenant("missing", f.property.ID), user.ErrNotFound)
}

func TestRemoveTenantUserWriteFails(t *testing.T) {
	f := setup(t)
	_, err := f.svc.AddTenant("tom@example.com", f.property.ID)
	require.NoError(t, err)

	f.users.failRemove = true
	require.ErrorIs(t, f.svc.RemoveTenant(f.tenant.ID, f.property.ID), errUserWrite)

	tenants, props := f.state(t)
	require.Equal(t, []string{f.tenant.ID}, tenants, "property side restored")
	require.Equal(t, []string{f.property.ID}, props)

	f.props.failAdd = true
	err = f.svc.RemoveTenant(f.tenant.ID, f.property.ID)
	var inconsistent *InconsistentError
	require.ErrorAs(t, err, &inconsistent)
	require.Equal(t, "remove tenant", inconsistent.Op)
}

func TestDeleteProperty(t *testing.T) {
	f := setup(t)
	_, err := f.svc.AddTenant("tom@example.com", f.property.ID)
	require.NoError(t, err)

	now := time.Now().UTC()
	_, err = f.db.Exec(
		`INSERT INTO bills (id, property_id, amount, due_date, status, created_at, updated_at) VALUES ('b-1', ?, '10', ?, 'due', ?, ?)`,
		f.property.ID, now, now, now,
	)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteProperty(f.property.ID))

	_, err = f.props.GetByID(f.property.ID)
	require.ErrorIs(t, err, property.ErrNotFound)

	u, err := f.users.GetByID(f.tenant.ID)
	require.NoError(t, err)
	require.Empty(t, u.PropertyIDs)

	var bills int
	require.NoError(t, f.db.QueryRow("SELECT COUNT(*) FROM bills").Scan(&bills))
	require.Zero(t, bills)
}

func TestDeletePropertyFailureReattaches(t *testing.T) {
	f := setup(t)
	_, err := f.svc.AddTenant("tom@example.com", f.property.ID)
	require.NoError(t, err)

	f.props.failDelete = true
	require.ErrorContains(t, f.svc.DeleteProperty(f.property.ID), "delete rejected")

	tenants, props := f.state(t)
	require.Equal(t, []string{f.tenant.ID}, tenants)
	require.Equal(t, []string{f.property.ID}, props)
}

func TestDeletePropertySkipsMissingTenant(t *testing.T) {
	f := setup(t)
	_, err := f.props.AddTenant(f.property.ID, "ghost")
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteProperty(f.property.ID))
}

func TestAddTenantKeepsExistingMembershipWhenUserWriteFails(t *testing.T) {
	f := setup(t)
	// The property already lists the tenant but the tenant's side is missing.
	_, err := f.props.AddTenant(f.property.ID, f.tenant.ID)
	require.NoError(t, err)

	f.users.failAdd = true
	f.props.failRemove = true
	_, err = f.svc.AddTenant("tom@example.com", f.property.ID)
	require.ErrorIs(t, err, errUserWrite)

	var inconsistent *InconsistentError
	require.False(t, errors.As(err, &inconsistent), "nothing was written, so nothing needed undoing")

	tenants, props := f.state(t)
	require.Equal(t, []string{f.tenant.ID}, tenants, "existing membership kept")
	require.Empty(t, props)
}

func TestRemoveTenantNotListedOnPropertyIsNotReadded(t *testing.T) {
	f := setup(t)
	// Only the tenant's side lists the property.
	_, err := f.users.AddProperty(f.tenant.ID, f.property.ID)
	require.NoError(t, err)

	f.users.failRemove = true
	require.ErrorIs(t, f.svc.RemoveTenant(f.tenant.ID, f.property.ID), errUserWrite)

	tenants, _ := f.state(t)
	require.Empty(t, tenants, "property side must not gain a tenant it never had")
}
