// Package property provides the property domain model, role-based
// visibility and data access. A property is the aggregation root for its
// bills and maintenance events.
package property

import (
	"errors"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roomly/roomly/internal/user"
)

var (
	// ErrNotFound is returned when a property does not exist.
	ErrNotFound = errors.New("property not found")
	// ErrForbidden is returned when a user may not see or change a property.
	ErrForbidden = errors.New("not allowed for this property")
)

// Property is a rental unit owned by one landlord and shared by its tenants.
type Property struct {
	ID               string          `json:"id"`
	Address          string          `json:"address"`
	Rent             decimal.Decimal `json:"rent"`
	Bedrooms         int             `json:"bedrooms"`
	Bathrooms        float64         `json:"bathrooms"`
	AreaSqft         int             `json:"area_sqft"`
	TenantIDs        []string        `json:"tenant_ids"`
	LandlordID       string          `json:"landlord_id"`
	MaintenanceCount int             `json:"maintenance_count"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// HasTenant reports whether userID is in the tenant set.
func (p *Property) HasTenant(userID string) bool {
	return slices.Contains(p.TenantIDs, userID)
}

// IsOwner reports whether u is the property's landlord.
func IsOwner(p *Property, u *user.User) bool {
	return u.IsLandlord() && p.LandlordID == u.ID
}

// CanView reports whether u may see the property: its landlord or one of
// its tenants.
func CanView(p *Property, u *user.User) bool {
	if u.IsLandlord() {
		return p.LandlordID == u.ID
	}
	return p.HasTenant(u.ID)
}

// VisibleTo returns the properties u may see, in their original order.
func VisibleTo(props []*Property, u *user.User) []*Property {
	var out []*Property
	for _, p := range props {
		if CanView(p, u) {
			out = append(out, p)
		}
	}
	return out
}
