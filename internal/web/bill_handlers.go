package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roomly/roomly/internal/bill"
	"github.com/roomly/roomly/internal/money"
	"github.com/roomly/roomly/internal/user"
	"github.com/roomly/roomly/internal/validate"
)

// maxPDFSize caps bill attachments.
const maxPDFSize = 10 << 20

// billRequest is the body for adding a bill. Amount is a decimal string.
type billRequest struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	DueDate     string `json:"due_date"`
}

// apiListBills returns a property's bills, optionally filtered by ?filter=.
func (s *Server) apiListBills(w http.ResponseWriter, r *http.Request) {
	p, err := s.properties.Get(currentUser(r), pathID(r))
	if err != nil {
		apiFail(w, r, err)
		return
	}
	f, err := bill.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		apiFail(w, r, err)
		return
	}

	bills, err := s.bills.ListFiltered(p.ID, f)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	if bills == nil {
		bills = []*bill.Bill{}
	}
	apiJSON(w, bills, http.StatusOK)
}

// apiUpcomingBills returns unpaid bills due within the next week, or
// ?days= days.
func (s *Server) apiUpcomingBills(w http.ResponseWriter, r *http.Request) {
	p, err := s.properties.Get(currentUser(r), pathID(r))
	if err != nil {
		apiFail(w, r, err)
		return
	}
	days, err := windowDays(r, bill.UpcomingDays)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	bills, err := s.bills.Upcoming(p.ID, days)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	if bills == nil {
		bills = []*bill.Bill{}
	}
	apiJSON(w, bills, http.StatusOK)
}

// apiAddBill adds a bill to a property the caller owns. The body is JSON, or
// multipart form fields with an optional "pdf" file.
func (s *Server) apiAddBill(w http.ResponseWriter, r *http.Request) {
	p, err := s.properties.GetOwned(currentUser(r), pathID(r))
	if err != nil {
		apiFail(w, r, err)
		return
	}
	loc, err := s.location(r)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	req, pdf, err := readBillRequest(w, r)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	var due time.Time
	if strings.TrimSpace(req.DueDate) != "" {
		due, err = parseWhen("due_date", req.DueDate, loc, true)
		if err != nil {
			apiFail(w, r, err)
			return
		}
	}

	b, err := s.bills.Add(bill.NewBill{
		PropertyID:  p.ID,
		Description: strings.TrimSpace(req.Description),
		Amount:      req.Amount,
		DueDate:     due,
	}, pdf)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, b, http.StatusCreated)
}

func readBillRequest(w http.ResponseWriter, r *http.Request) (billRequest, []byte, error) {
	var req billRequest
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err := decodeJSON(w, r, &req)
		return req, nil, err
	}

	if err := r.ParseMultipartForm(maxPDFSize); err != nil {
		return req, nil, validate.Errorf("body", "invalid multipart form: %v", err)
	}
	req.Description = r.FormValue("description")
	req.Amount = r.FormValue("amount")
	req.DueDate = r.FormValue("due_date")

	file, _, err := r.FormFile("pdf")
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil, nil
	}
	if err != nil {
		return req, nil, validate.Errorf("pdf", "unreadable upload: %v", err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, maxPDFSize+1))
	if err != nil {
		return req, nil, fmt.Errorf("reading pdf upload: %w", err)
	}
	if len(data) > maxPDFSize {
		return req, nil, validate.Errorf("pdf", "must be at most %d MB", maxPDFSize>>20)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return req, nil, validate.Errorf("pdf", "must be a PDF document")
	}
	return req, data, nil
}

// billFor loads a bill and checks the caller may see its property, or own
// it when owner is set.
func (s *Server) billFor(u *user.User, id string, owner bool) (*bill.Bill, error) {
	b, err := s.bills.Get(id)
	if err != nil {
		return nil, err
	}
	if owner {
		_, err = s.properties.GetOwned(u, b.PropertyID)
	} else {
		_, err = s.properties.Get(u, b.PropertyID)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// apiUpdateBill edits a bill.
func (s *Server) apiUpdateBill(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	var req struct {
		Description *string `json:"description"`
		Amount      *string `json:"amount"`
		DueDate     *string `json:"due_date"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		apiFail(w, r, err)
		return
	}
	if _, err := s.billFor(u, pathID(r), true); err != nil {
		apiFail(w, r, err)
		return
	}
	loc, err := s.location(r)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	c := bill.Changes{Description: req.Description}
	if req.Amount != nil {
		var amount decimal.Decimal
		if amount, err = money.Parse("amount", *req.Amount); err != nil {
			apiFail(w, r, err)
			return
		}
		c.Amount = &amount
	}
	if req.DueDate != nil {
		due, err := parseWhen("due_date", *req.DueDate, loc, true)
		if err != nil {
			apiFail(w, r, err)
			return
		}
		c.DueDate = &due
	}

	b, err := s.bills.Update(pathID(r), c)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, b, http.StatusOK)
}

// apiPayBill marks a bill paid. Tenants and the owner may pay.
func (s *Server) apiPayBill(w http.ResponseWriter, r *http.Request) {
	if _, err := s.billFor(currentUser(r), pathID(r), false); err != nil {
		apiFail(w, r, err)
		return
	}
	b, err := s.bills.Pay(pathID(r))
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, b, http.StatusOK)
}

// apiDeleteBill removes a bill and its PDF.
func (s *Server) apiDeleteBill(w http.ResponseWriter, r *http.Request) {
	if _, err := s.billFor(currentUser(r), pathID(r), true); err != nil {
		apiFail(w, r, err)
		return
	}
	if err := s.bills.Delete(pathID(r)); err != nil {
		apiFail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// windowDays reads ?days= for upcoming queries.
func windowDays(r *http.Request, fallback int) (int, error) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return fallback, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 0 || days > 366 {
		return 0, validate.Errorf("days", "must be a whole number from 0 to 366")
	}
	return days, nil
}

