// Package client provides an HTTP client for the roomly REST API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/roomly/roomly/internal/auth"
	"github.com/roomly/roomly/internal/bill"
	"github.com/roomly/roomly/internal/calendar"
	"github.com/roomly/roomly/internal/maintenance"
	"github.com/roomly/roomly/internal/property"
	"github.com/roomly/roomly/internal/user"
	"github.com/roomly/roomly/internal/view"
)

// Client is an HTTP client for the roomly API.
type Client struct {
	baseURL    string
	token      string
	timezone   string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// WithTimezone returns a copy of c that sends the viewer's IANA time zone.
func (c *Client) WithTimezone(name string) *Client {
	cp := *c
	cp.timezone = name
	return &cp
}

// Error is a non-2xx API response.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

// PropertyDetail is the response from GET /api/properties/{id}.
type PropertyDetail struct {
	property.Property
	Tenants []*user.User `json:"tenants"`
}

// SignUp creates an account and returns its session.
func (c *Client) SignUp(req auth.SignUpRequest) (*auth.Session, error) {
	var sess auth.Session
	if err := c.send("POST", "/api/auth/signup", req, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// SignIn exchanges credentials for a session.
func (c *Client) SignIn(email, password string) (*auth.Session, error) {
	var sess auth.Session
	req := auth.SignInRequest{Email: email, Password: password}
	if err := c.send("POST", "/api/auth/signin", req, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Me returns the signed-in user.
func (c *Client) Me() (*user.User, error) {
	var u user.User
	if err := c.send("GET", "/api/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Dashboard returns the home screen snapshot.
func (c *Client) Dashboard() (*view.DashboardSnapshot, error) {
	var d view.DashboardSnapshot
	if err := c.send("GET", "/api/dashboard", nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListProperties returns the properties the caller may see.
func (c *Client) ListProperties() ([]*property.Property, error) {
	var props []*property.Property
	if err := c.send("GET", "/api/properties", nil, &props); err != nil {
		return nil, err
	}
	return props, nil
}

// GetProperty returns a property with its tenants.
func (c *Client) GetProperty(id string) (*PropertyDetail, error) {
	var p PropertyDetail
	if err := c.send("GET", "/api/properties/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// AddProperty creates a property.
func (c *Client) AddProperty(in property.NewProperty) (*property.Property, error) {
	var p property.Property
	if err := c.send("POST", "/api/properties", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// PropertyChanges lists the property fields to edit. Nil fields are left
// alone.
type PropertyChanges struct {
	Address   *string  `json:"address,omitempty"`
	Rent      *string  `json:"rent,omitempty"`
	Bedrooms  *int     `json:"bedrooms,omitempty"`
	Bathrooms *float64 `json:"bathrooms,omitempty"`
	AreaSqft  *int     `json:"area_sqft,omitempty"`
}

// UpdateProperty edits a property.
func (c *Client) UpdateProperty(id string, ch PropertyChanges) (*property.Property, error) {
	var p property.Property
	if err := c.send("PUT", "/api/properties/"+url.PathEscape(id), ch, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProperty removes a property.
func (c *Client) DeleteProperty(id string) error {
	return c.send("DELETE", "/api/properties/"+url.PathEscape(id), nil, nil)
}

// AddTenant links the tenant with email to a property.
func (c *Client) AddTenant(propertyID, email string) (*user.User, error) {
	var u user.User
	body := map[string]string{"email": email}
	if err := c.send("POST", "/api/properties/"+url.PathEscape(propertyID)+"/tenants", body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// RemoveTenant unlinks a tenant from a property.
func (c *Client) RemoveTenant(propertyID, userID string) error {
	return c.send("DELETE", "/api/properties/"+url.PathEscape(propertyID)+"/tenants/"+url.PathEscape(userID), nil, nil)
}

// ListBills returns a property's bills. filter is all, due or paid.
func (c *Client) ListBills(propertyID, filter string) ([]*bill.Bill, error) {
	path := "/api/properties/" + url.PathEscape(propertyID) + "/bills"
	if filter != "" {
		path += "?filter=" + url.QueryEscape(filter)
	}
	var bills []*bill.Bill
	if err := c.send("GET", path, nil, &bills); err != nil {
		return nil, err
	}
	return bills, nil
}

// UpcomingBills returns unpaid bills due within the next week.
func (c *Client) UpcomingBills(propertyID string) ([]*bill.Bill, error) {
	var bills []*bill.Bill
	if err := c.send("GET", "/api/properties/"+url.PathEscape(propertyID)+"/bills/upcoming", nil, &bills); err != nil {
		return nil, err
	}
	return bills, nil
}

// BillInput is a new bill. DueDate is YYYY-MM-DD or RFC 3339.
type BillInput struct {
	Description string
	Amount      string
	DueDate     string
	PDF         []byte
}

// AddBill creates a bill, uploading PDF when present.
func (c *Client) AddBill(propertyID string, in BillInput) (*bill.Bill, error) {
	path := "/api/properties/" + url.PathEscape(propertyID) + "/bills"
	var b bill.Bill

	if len(in.PDF) == 0 {
		body := map[string]string{"description": in.Description, "amount": in.Amount, "due_date": in.DueDate}
		if err := c.send("POST", path, body, &b); err != nil {
			return nil, err
		}
		return &b, nil
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range map[string]string{"description": in.Description, "amount": in.Amount, "due_date": in.DueDate} {
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("writing form: %w", err)
		}
	}
	fw, err := mw.CreateFormFile("pdf", "bill.pdf")
	if err != nil {
		return nil, fmt.Errorf("writing form: %w", err)
	}
	if _, err := fw.Write(in.PDF); err != nil {
		return nil, fmt.Errorf("writing form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("writing form: %w", err)
	}

	req, err := http.NewRequest("POST", c.baseURL+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if err := c.do(req, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// BillChanges lists the bill fields to edit.
type BillChanges struct {
	Description *string `json:"description,omitempty"`
	Amount      *string `json:"amount,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
}

// UpdateBill edits a bill.
func (c *Client) UpdateBill(id string, ch BillChanges) (*bill.Bill, error) {
	var b bill.Bill
	if err := c.send("PUT", "/api/bills/"+url.PathEscape(id), ch, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// PayBill marks a bill paid.
func (c *Client) PayBill(id string) (*bill.Bill, error) {
	var b bill.Bill
	if err := c.send("POST", "/api/bills/"+url.PathEscape(id)+"/pay", nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// DeleteBill removes a bill.
func (c *Client) DeleteBill(id string) error {
	return c.send("DELETE", "/api/bills/"+url.PathEscape(id), nil, nil)
}

// ListMaintenance returns a property's events, or those on day (YYYY-MM-DD)
// when day is set.
func (c *Client) ListMaintenance(propertyID, day string) ([]*maintenance.Event, error) {
	path := "/api/properties/" + url.PathEscape(propertyID) + "/maintenance"
	if day != "" {
		path += "?day=" + url.QueryEscape(day)
	}
	var events []*maintenance.Event
	if err := c.send("GET", path, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// UpcomingMaintenance returns scheduled events within the next week.
func (c *Client) UpcomingMaintenance(propertyID string) ([]*maintenance.Event, error) {
	var events []*maintenance.Event
	if err := c.send("GET", "/api/properties/"+url.PathEscape(propertyID)+"/maintenance/upcoming", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// MaintenanceInput is a new event. ScheduledAt is YYYY-MM-DD or RFC 3339.
type MaintenanceInput struct {
	Description string `json:"description"`
	Notes       string `json:"notes,omitempty"`
	ScheduledAt string `json:"scheduled_at"`
}

// AddMaintenance schedules an event.
func (c *Client) AddMaintenance(propertyID string, in MaintenanceInput) (*maintenance.Event, error) {
	var e maintenance.Event
	if err := c.send("POST", "/api/properties/"+url.PathEscape(propertyID)+"/maintenance", in, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// SetMaintenanceStatus changes an event's status.
func (c *Client) SetMaintenanceStatus(id, status string) (*maintenance.Event, error) {
	var e maintenance.Event
	body := map[string]string{"status": status}
	if err := c.send("POST", "/api/maintenance/"+url.PathEscape(id)+"/status", body, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// DeleteMaintenance removes an event.
func (c *Client) DeleteMaintenance(id string) error {
	return c.send("DELETE", "/api/maintenance/"+url.PathEscape(id), nil, nil)
}

// Calendar returns the month grid (YYYY-MM; empty for the current month).
// weekStart is sunday or monday.
func (c *Client) Calendar(propertyID, month, weekStart string) (*calendar.Grid, error) {
	q := url.Values{}
	if month != "" {
		q.Set("month", month)
	}
	if weekStart != "" {
		q.Set("week_start", weekStart)
	}
	path := "/api/properties/" + url.PathEscape(propertyID) + "/calendar"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var g calendar.Grid
	if err := c.send("GET", path, nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// RemindResponse is the response from POST /api/properties/{id}/remind.
type RemindResponse struct {
	SentTo      []string `json:"sent_to"`
	Bills       int      `json:"bills"`
	Maintenance int      `json:"maintenance"`
}

// Remind emails a property's tenants their reminder digest.
func (c *Client) Remind(propertyID string) (*RemindResponse, error) {
	var resp RemindResponse
	if err := c.send("POST", "/api/properties/"+url.PathEscape(propertyID)+"/remind", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// send performs a request with an optional JSON body and decodes the
// response.
func (c *Client) send(method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, result)
}

// do executes an HTTP request with auth header and handles errors.
func (c *Client) do(req *http.Request, result any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.timezone != "" {
		req.Header.Set("X-Timezone", c.timezone)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("closing response body", "error", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		msg := "server error: " + http.StatusText(resp.StatusCode)
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		return &Error{StatusCode: resp.StatusCode, Message: msg}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
