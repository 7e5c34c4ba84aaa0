package cli

import (
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/roomly/roomly/internal/auth"
	"github.com/roomly/roomly/internal/bill"
	"github.com/roomly/roomly/internal/client"
	"github.com/roomly/roomly/internal/db"
	"github.com/roomly/roomly/internal/property"
	"github.com/roomly/roomly/internal/user"
	"github.com/roomly/roomly/internal/web"
)

func TestSeed(t *testing.T) {
	d, err := db.Open(filepath.Join(t.TempDir(), "seed.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	now := time.Now()
	if err := seed(d, now); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := seed(d, now); err == nil || !strings.Contains(err.Error(), "already seeded") {
		t.Errorf("second seed err = %v, want already seeded", err)
	}

	tenant, err := user.NewRepository(d).GetByEmail("tenant@example.com")
	if err != nil {
		t.Fatalf("get tenant: %v", err)
	}
	if len(tenant.PropertyIDs) != 1 {
		t.Fatalf("tenant properties = %v, want one", tenant.PropertyIDs)
	}

	props, err := property.NewRepository(d).List()
	if err != nil {
		t.Fatalf("list properties: %v", err)
	}
	if len(props) != 2 {
		t.Errorf("got %d properties, want 2", len(props))
	}

	bills, err := bill.NewService(bill.NewRepository(d), nil, time.Now).List(tenant.PropertyIDs[0])
	if err != nil {
		t.Fatalf("list bills: %v", err)
	}
	counts := map[bill.Status]int{}
	for _, b := range bills {
		counts[b.Status]++
	}
	want := map[bill.Status]int{bill.StatusPaid: 1, bill.StatusOverdue: 1, bill.StatusDue: 2}
	for s, n := range want {
		if counts[s] != n {
			t.Errorf("%s bills = %d, want %d", s, counts[s], n)
		}
	}
}

func TestCommandsAgainstSeededServer(t *testing.T) {
	tmp := t.TempDir()
	d, err := db.Open(filepath.Join(tmp, "seed.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	if err := seed(d, time.Now()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	api, err := web.NewServer(d, auth.Config{
		JWTSecret: "test-secret",
		DevMode:   true,
		BaseURL:   "http://example.test",
		FilesDir:  filepath.Join(tmp, "files"),
		TimeZone:  "UTC",
	}, web.Options{MailOut: io.Discard})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(func() { _ = api.Close() })
	srv := httptest.NewServer(api)
	defer srv.Close()

	sess, err := client.New(srv.URL, "").SignIn("landlord@example.com", seedPassword)
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	t.Setenv("HOME", tmp)
	t.Setenv("ROOMLY_SERVER_URL", srv.URL)
	t.Setenv("ROOMLY_TOKEN", sess.Token)
	t.Setenv("ROOMLY_TZ", "UTC")

	props, err := client.New(srv.URL, sess.Token).ListProperties()
	if err != nil || len(props) != 2 {
		t.Fatalf("list properties: %d, %v", len(props), err)
	}
	var rented, empty string
	for _, p := range props {
		if len(p.TenantIDs) > 0 {
			rented = p.ID
		} else {
			empty = p.ID
		}
	}

	commands := [][]string{
		{"dashboard"},
		{"properties"},
		{"properties", "show", rented},
		{"bills", "list", rented, "--filter", "due"},
		{"bills", "upcoming", rented, "--format", "json"},
		{"maintenance", "list", rented},
		{"maintenance", "upcoming", rented},
		{"calendar", rented, "--week-start", "monday"},
		{"calendar", rented, "--shift=-1", "--format", "json"},
		{"remind", rented},
		{"status"},
	}
	for _, args := range commands {
		if _, err := executeCommand(args...); err != nil {
			t.Errorf("%s: %v", strings.Join(args, " "), err)
		}
	}

	if _, err := executeCommand("remind", empty); err == nil {
		t.Error("remind on a property without tenants: expected error")
	}
	if _, err := executeCommand("properties", "show", "missing"); err == nil {
		t.Error("show missing property: expected error")
	}
}
