package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/roomly/roomly/internal/money"
	"github.com/roomly/roomly/internal/property"
	"github.com/roomly/roomly/internal/user"
	"github.com/roomly/roomly/internal/validate"
)

// propertyDetail is a property with its tenants resolved.
type propertyDetail struct {
	*property.Property
	Tenants []*user.User `json:"tenants"`
}

// apiListProperties returns the properties the caller may see.
func (s *Server) apiListProperties(w http.ResponseWriter, r *http.Request) {
	props, err := s.properties.ListForUser(currentUser(r))
	if err != nil {
		apiFail(w, r, err)
		return
	}
	if props == nil {
		props = []*property.Property{}
	}
	apiJSON(w, props, http.StatusOK)
}

// apiAddProperty creates a property owned by the calling landlord.
func (s *Server) apiAddProperty(w http.ResponseWriter, r *http.Request) {
	var req property.NewProperty
	if err := decodeJSON(w, r, &req); err != nil {
		apiFail(w, r, err)
		return
	}

	p, err := s.properties.Add(currentUser(r), req)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, p, http.StatusCreated)
}

// apiGetProperty returns a property and its tenants.
func (s *Server) apiGetProperty(w http.ResponseWriter, r *http.Request) {
	p, err := s.properties.Get(currentUser(r), pathID(r))
	if err != nil {
		apiFail(w, r, err)
		return
	}

	tenants := []*user.User{}
	if len(p.TenantIDs) > 0 {
		tenants, err = s.users.List(p.TenantIDs...)
		if err != nil {
			apiFail(w, r, err)
			return
		}
	}
	apiJSON(w, propertyDetail{Property: p, Tenants: tenants}, http.StatusOK)
}

// apiUpdateProperty edits a property's descriptive fields.
func (s *Server) apiUpdateProperty(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address   *string  `json:"address"`
		Rent      *string  `json:"rent"`
		Bedrooms  *int     `json:"bedrooms"`
		Bathrooms *float64 `json:"bathrooms"`
		AreaSqft  *int     `json:"area_sqft"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		apiFail(w, r, err)
		return
	}

	c := property.Changes{
		Address:   req.Address,
		Bedrooms:  req.Bedrooms,
		Bathrooms: req.Bathrooms,
		AreaSqft:  req.AreaSqft,
	}
	if req.Rent != nil {
		rent, err := money.Parse("rent", *req.Rent)
		if err != nil {
			apiFail(w, r, err)
			return
		}
		c.Rent = &rent
	}

	p, err := s.properties.Update(currentUser(r), pathID(r), c)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, p, http.StatusOK)
}

// apiDeleteProperty deletes a property with its bills, their PDFs and its
// maintenance events.
func (s *Server) apiDeleteProperty(w http.ResponseWriter, r *http.Request) {
	p, err := s.properties.GetOwned(currentUser(r), pathID(r))
	if err != nil {
		apiFail(w, r, err)
		return
	}

	bills, err := s.bills.List(p.ID)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	if err := s.tenancy.DeleteProperty(p.ID); err != nil {
		apiFail(w, r, err)
		return
	}

	for _, b := range bills {
		if b.PDFURL == "" {
			continue
		}
		if err := s.blobs.Delete(b.PDFURL); err != nil {
			slog.Warn("deleting bill pdf", "bill_id", b.ID, "url", b.PDFURL, "error", err)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// apiAddTenant adds a tenant to a property by email.
func (s *Server) apiAddTenant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		apiFail(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		apiFail(w, r, err)
		return
	}

	p, err := s.properties.GetOwned(currentUser(r), pathID(r))
	if err != nil {
		apiFail(w, r, err)
		return
	}

	u, err := s.tenancy.AddTenant(req.Email, p.ID)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, u, http.StatusOK)
}

// apiRemoveTenant removes a tenant from a property.
func (s *Server) apiRemoveTenant(w http.ResponseWriter, r *http.Request) {
	p, err := s.properties.GetOwned(currentUser(r), pathID(r))
	if err != nil {
		apiFail(w, r, err)
		return
	}

	if err := s.tenancy.RemoveTenant(mux.Vars(r)["userID"], p.ID); err != nil {
		apiFail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
