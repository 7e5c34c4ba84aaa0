package property

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/roomly/roomly/internal/money"
	"github.com/roomly/roomly/internal/user"
	"github.com/roomly/roomly/internal/validate"
)

// Service provides property business logic and access checks.
type Service struct {
	repo *Repository
}

// NewService creates a property service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// NewProperty is the input for Add.
type NewProperty struct {
	Address   string  `json:"address" validate:"required,max=300"`
	Rent      string  `json:"rent" validate:"required"`
	Bedrooms  int     `json:"bedrooms" validate:"gte=0,lte=100"`
	Bathrooms float64 `json:"bathrooms" validate:"gte=0,lte=100"`
	AreaSqft  int     `json:"area_sqft" validate:"gte=0"`
}

// Add creates a property owned by landlord.
func (s *Service) Add(landlord *user.User, in NewProperty) (*Property, error) {
	if !landlord.IsLandlord() {
		return nil, fmt.Errorf("only landlords can add properties: %w", ErrForbidden)
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	rent, err := money.Parse("rent", in.Rent)
	if err != nil {
		return nil, err
	}

	saved, err := s.repo.Insert(&Property{
		Address:    in.Address,
		Rent:       rent,
		Bedrooms:   in.Bedrooms,
		Bathrooms:  in.Bathrooms,
		AreaSqft:   in.AreaSqft,
		LandlordID: landlord.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("saving property: %w", err)
	}
	return saved, nil
}

// ListForUser returns the properties u may see.
func (s *Service) ListForUser(u *user.User) ([]*Property, error) {
	return s.repo.ListForUser(u)
}

// Get returns a property u may see.
func (s *Service) Get(u *user.User, id string) (*Property, error) {
	p, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !CanView(p, u) {
		return nil, fmt.Errorf("property %s: %w", id, ErrForbidden)
	}
	return p, nil
}

// GetOwned returns a property u owns.
func (s *Service) GetOwned(u *user.User, id string) (*Property, error) {
	p, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !IsOwner(p, u) {
		return nil, fmt.Errorf("property %s: %w", id, ErrForbidden)
	}
	return p, nil
}

// Changes holds the fields of a property to edit. Nil fields are left alone.
type Changes struct {
	Address   *string
	Rent      *decimal.Decimal
	Bedrooms  *int
	Bathrooms *float64
	AreaSqft  *int
}

// Update edits a property owned by u.
func (s *Service) Update(u *user.User, id string, c Changes) (*Property, error) {
	p, err := s.GetOwned(u, id)
	if err != nil {
		return nil, err
	}

	if c.Address != nil {
		if *c.Address == "" {
			return nil, validate.Errorf("address", "is required")
		}
		p.Address = *c.Address
	}
	if c.Rent != nil {
		if c.Rent.IsNegative() {
			return nil, validate.Errorf("rent", "must not be negative")
		}
		p.Rent = c.Rent.Round(2)
	}
	if c.Bedrooms != nil {
		if *c.Bedrooms < 0 {
			return nil, validate.Errorf("bedrooms", "must not be negative")
		}
		p.Bedrooms = *c.Bedrooms
	}
	if c.Bathrooms != nil {
		if *c.Bathrooms < 0 {
			return nil, validate.Errorf("bathrooms", "must not be negative")
		}
		p.Bathrooms = *c.Bathrooms
	}
	if c.AreaSqft != nil {
		if *c.AreaSqft < 0 {
			return nil, validate.Errorf("area_sqft", "must not be negative")
		}
		p.AreaSqft = *c.AreaSqft
	}

	if err := s.repo.Update(p); err != nil {
		return nil, err
	}
	return s.repo.GetByID(id)
}
