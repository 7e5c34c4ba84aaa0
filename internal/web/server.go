// Package web provides the roomly HTTP API.
package web

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"

	"github.com/roomly/roomly/internal/auth"
	"github.com/roomly/roomly/internal/bill"
	"github.com/roomly/roomly/internal/blob"
	"github.com/roomly/roomly/internal/email"
	"github.com/roomly/roomly/internal/logging"
	"github.com/roomly/roomly/internal/maintenance"
	"github.com/roomly/roomly/internal/property"
	"github.com/roomly/roomly/internal/tenancy"
	"github.com/roomly/roomly/internal/user"
)

// Server is the API HTTP server.
type Server struct {
	users      *user.Repository
	accounts   *auth.Accounts
	properties *property.Service
	tenancy    *tenancy.Service
	bills      *bill.Service
	events     *maintenance.Service
	blobs      *blob.Store
	mailer     *email.Sender
	loc        *time.Location
	now        func() time.Time
	handler    http.Handler
}

// Options tunes a Server beyond its configuration.
type Options struct {
	// Now replaces the clock, for tests.
	Now func() time.Time
	// MailOut receives dev-mode emails. Defaults to stdout.
	MailOut io.Writer
}

// NewServer creates an API server on db.
func NewServer(db *sql.DB, cfg auth.Config, opts Options) (*Server, error) {
	secret, err := cfg.Secret()
	if err != nil {
		return nil, err
	}

	loc := time.Local
	if cfg.TimeZone != "" {
		loc, err = time.LoadLocation(cfg.TimeZone)
		if err != nil {
			return nil, fmt.Errorf("loading time zone: %w", err)
		}
	}

	filesDir := cfg.FilesDir
	if filesDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("finding home directory: %w", err)
		}
		filesDir = filepath.Join(home, ".roomly", "files")
	}
	blobs, err := blob.New(filesDir, cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	mailOut := opts.MailOut
	if mailOut == nil {
		mailOut = os.Stdout
	}

	users := user.NewRepository(db)
	propRepo := property.NewRepository(db)
	s := &Server{
		users:      users,
		accounts:   auth.NewAccounts(users, auth.NewTokens(secret)),
		properties: property.NewService(propRepo),
		tenancy:    tenancy.NewService(propRepo, users),
		bills:      bill.NewService(bill.NewRepository(db), blobs, now),
		events:     maintenance.NewService(maintenance.NewRepository(db), now),
		blobs:      blobs,
		mailer: email.NewSender(email.SMTPConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.SMTPFrom,
		}, cfg.DevMode, mailOut),
		loc: loc,
		now: now,
	}

	r := mux.NewRouter()
	s.routes(r)
	s.handler = logging.RequestLogger(auth.RequireToken(s.accounts, r))

	return s, nil
}

func (s *Server) routes(r *mux.Router) {
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.PathPrefix(blob.PathPrefix).HandlerFunc(s.handleFile).Methods(http.MethodGet, http.MethodHead)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/signup", s.apiSignUp).Methods(http.MethodPost)
	api.HandleFunc("/auth/signin", s.apiSignIn).Methods(http.MethodPost)
	api.HandleFunc("/me", s.apiMe).Methods(http.MethodGet)
	api.HandleFunc("/dashboard", s.apiDashboard).Methods(http.MethodGet)

	api.HandleFunc("/properties", s.apiListProperties).Methods(http.MethodGet)
	api.HandleFunc("/properties", s.apiAddProperty).Methods(http.MethodPost)
	api.HandleFunc("/properties/{id}", s.apiGetProperty).Methods(http.MethodGet)
	api.HandleFunc("/properties/{id}", s.apiUpdateProperty).Methods(http.MethodPut)
	api.HandleFunc("/properties/{id}", s.apiDeleteProperty).Methods(http.MethodDelete)
	api.HandleFunc("/properties/{id}/tenants", s.apiAddTenant).Methods(http.MethodPost)
	api.HandleFunc("/properties/{id}/tenants/{userID}", s.apiRemoveTenant).Methods(http.MethodDelete)
	api.HandleFunc("/properties/{id}/remind", s.apiRemind).Methods(http.MethodPost)

	api.HandleFunc("/properties/{id}/bills", s.apiListBills).Methods(http.MethodGet)
	api.HandleFunc("/properties/{id}/bills", s.apiAddBill).Methods(http.MethodPost)
	api.HandleFunc("/properties/{id}/bills/upcoming", s.apiUpcomingBills).Methods(http.MethodGet)
	api.HandleFunc("/bills/{id}", s.apiUpdateBill).Methods(http.MethodPut)
	api.HandleFunc("/bills/{id}", s.apiDeleteBill).Methods(http.MethodDelete)
	api.HandleFunc("/bills/{id}/pay", s.apiPayBill).Methods(http.MethodPost)

	api.HandleFunc("/properties/{id}/maintenance", s.apiListMaintenance).Methods(http.MethodGet)
	api.HandleFunc("/properties/{id}/maintenance", s.apiAddMaintenance).Methods(http.MethodPost)
	api.HandleFunc("/properties/{id}/maintenance/upcoming", s.apiUpcomingMaintenance).Methods(http.MethodGet)
	api.HandleFunc("/properties/{id}/calendar", s.apiCalendar).Methods(http.MethodGet)
	api.HandleFunc("/maintenance/{id}", s.apiUpdateMaintenance).Methods(http.MethodPut)
	api.HandleFunc("/maintenance/{id}", s.apiDeleteMaintenance).Methods(http.MethodDelete)
	api.HandleFunc("/maintenance/{id}/status", s.apiMaintenanceStatus).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiError(w, "not found", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Close releases the object store.
func (s *Server) Close() error {
	return s.blobs.Close()
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(port int) error {
	addr := fmt.Sprintf(":%d", port)
	slog.Info("starting roomly API", "addr", "http://localhost"+addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}
