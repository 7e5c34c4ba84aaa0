package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/roomly/roomly/internal/auth"
	"github.com/roomly/roomly/internal/bill"
	"github.com/roomly/roomly/internal/blob"
	"github.com/roomly/roomly/internal/calendar"
	"github.com/roomly/roomly/internal/logging"
	"github.com/roomly/roomly/internal/maintenance"
	"github.com/roomly/roomly/internal/property"
	"github.com/roomly/roomly/internal/tenancy"
	"github.com/roomly/roomly/internal/user"
	"github.com/roomly/roomly/internal/validate"
	"github.com/roomly/roomly/internal/view"
)

// TimezoneHeader names the viewer's IANA time zone when ?tz= is absent.
const TimezoneHeader = "X-Timezone"

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	apiJSON(w, map[string]string{"error": msg}, code)
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

// apiFail maps err to a status code and writes it.
func apiFail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		slog.Error("request failed", "request_id", logging.RequestID(r.Context()), "path", r.URL.Path, "error", err)
	}
	apiError(w, err.Error(), code)
}

func statusFor(err error) int {
	switch {
	case validate.IsValidation(err), errors.Is(err, tenancy.ErrNotTenant):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, property.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, property.ErrNotFound),
		errors.Is(err, user.ErrNotFound),
		errors.Is(err, bill.ErrNotFound),
		errors.Is(err, maintenance.ErrNotFound),
		errors.Is(err, blob.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, user.ErrEmailTaken),
		errors.Is(err, bill.ErrPaid),
		errors.Is(err, bill.ErrConflict),
		errors.Is(err, maintenance.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// maxJSONBody caps a JSON request body.
const maxJSONBody = 1 << 20

var errBodyTooLarge = fmt.Errorf("request body exceeds %d bytes", maxJSONBody)

// decodeJSON reads a JSON request body of at most maxJSONBody bytes into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errBodyTooLarge
		}
		return validate.Errorf("body", "invalid JSON: %v", err)
	}
	return nil
}

// currentUser returns the user RequireToken attached to the request.
func currentUser(r *http.Request) *user.User {
	u, _ := auth.UserFrom(r.Context())
	return u
}

func pathID(r *http.Request) string {
	return mux.Vars(r)["id"]
}

// location returns the viewer's time zone from ?tz= or X-Timezone, falling
// back to the server's.
func (s *Server) location(r *http.Request) (*time.Location, error) {
	name := r.URL.Query().Get("tz")
	if name == "" {
		name = r.Header.Get(TimezoneHeader)
	}
	if name == "" {
		return s.loc, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, validate.Errorf("tz", "unknown time zone %q", name)
	}
	return loc, nil
}

// weekStart reads ?week_start=sunday|monday. Sunday is the default.
func weekStart(r *http.Request) (time.Weekday, error) {
	first, err := calendar.ParseWeekStart(r.URL.Query().Get("week_start"))
	if err != nil {
		return 0, validate.Errorf("week_start", "must be sunday or monday")
	}
	return first, nil
}

// parseWhen reads an RFC 3339 timestamp or a YYYY-MM-DD date in loc. A bare
// date means the start of that day, or its last instant when endOfDay is set.
func parseWhen(field, s string, loc *time.Location, endOfDay bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, validate.Errorf(field, "is required")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	d, err := calendar.ParseDay(s)
	if err != nil {
		return time.Time{}, validate.Errorf(field, "must be YYYY-MM-DD or an RFC 3339 timestamp")
	}
	start := d.Start(loc)
	if endOfDay {
		return start.AddDate(0, 0, 1).Add(-time.Second), nil
	}
	return start, nil
}

// apiMe returns the signed-in user.
func (s *Server) apiMe(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, currentUser(r), http.StatusOK)
}

// apiDashboard returns the home screen for the signed-in user.
func (s *Server) apiDashboard(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	props, err := s.properties.ListForUser(u)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	var bills []*bill.Bill
	var events []*maintenance.Event
	for _, p := range props {
		bs, err := s.bills.List(p.ID)
		if err != nil {
			apiFail(w, r, err)
			return
		}
		es, err := s.events.List(p.ID)
		if err != nil {
			apiFail(w, r, err)
			return
		}
		bills = append(bills, bs...)
		events = append(events, es...)
	}

	apiJSON(w, view.Dashboard(u, props, bills, events, s.now()), http.StatusOK)
}
