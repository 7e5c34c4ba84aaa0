package web

import (
	"net/http"

	"github.com/roomly/roomly/internal/bill"
	"github.com/roomly/roomly/internal/email"
	"github.com/roomly/roomly/internal/maintenance"
	"github.com/roomly/roomly/internal/validate"
)

// apiRemind emails the tenants of a property a digest of unpaid bills and
// upcoming maintenance.
func (s *Server) apiRemind(w http.ResponseWriter, r *http.Request) {
	p, err := s.properties.GetOwned(currentUser(r), pathID(r))
	if err != nil {
		apiFail(w, r, err)
		return
	}
	if len(p.TenantIDs) == 0 {
		apiFail(w, r, validate.Errorf("tenants", "property has no tenants to remind"))
		return
	}
	loc, err := s.location(r)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	bills, err := s.bills.ListFiltered(p.ID, bill.FilterDue)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	events, err := s.events.Upcoming(p.ID, maintenance.UpcomingDays)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	tenants, err := s.users.List(p.TenantIDs...)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	to := make([]string, 0, len(tenants))
	for _, t := range tenants {
		to = append(to, t.Email)
	}

	d := email.Digest{Property: p, Bills: bills, Maintenance: events}
	if err := s.mailer.Send(to, d.Subject(), email.FormatDigest(d, loc)); err != nil {
		apiFail(w, r, err)
		return
	}

	apiJSON(w, map[string]any{
		"sent_to":     to,
		"bills":       len(bills),
		"maintenance": len(events),
	}, http.StatusOK)
}
