package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSetupDevMode(t *testing.T) {
	old := slog.Default()
	defer slog.SetDefault(old)

	var buf bytes.Buffer
	Setup(&buf, true)

	slog.Debug("test debug")
	slog.Info("test info")

	output := buf.String()
	if !strings.Contains(output, "test debug") {
		t.Error("expected debug message visible in dev mode")
	}
	if !strings.Contains(output, "test info") {
		t.Error("expected info message visible in dev mode")
	}
}

func TestSetupProdMode(t *testing.T) {
	old := slog.Default()
	defer slog.SetDefault(old)

	var buf bytes.Buffer
	Setup(&buf, false)

	slog.Debug("hidden")
	slog.Info("prod test", "bill_id", "b-1")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("debug should be filtered in prod mode")
	}
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if entry["bill_id"] != "b-1" {
		t.Errorf("bill_id = %v", entry["bill_id"])
	}
}

func TestRequestLogger(t *testing.T) {
	buf := captureLogs(t)

	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/api/properties", nil)
	rec := httptest.NewRecorder()
	RequestLogger(inner).ServeHTTP(rec, req)

	if seen == "" {
		t.Fatal("expected request id in context")
	}
	if rec.Header().Get(RequestIDHeader) != seen {
		t.Errorf("response header = %q, want %q", rec.Header().Get(RequestIDHeader), seen)
	}
	for _, want := range []string{"GET", "/api/properties", seen} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected %q in log: %s", want, buf.String())
		}
	}
}

func TestRequestLoggerKeepsIncomingID(t *testing.T) {
	captureLogs(t)

	req := httptest.NewRequest("GET", "/api/bills", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	RequestLogger(http.NotFoundHandler()).ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, want abc-123", got)
	}
}

func TestRequestLoggerSkipsNoisyPaths(t *testing.T) {
	for _, path := range []string{"/health", "/files/bills/b-1.pdf"} {
		t.Run(path, func(t *testing.T) {
			buf := captureLogs(t)

			req := httptest.NewRequest("GET", path, nil)
			rec := httptest.NewRecorder()
			RequestLogger(http.NotFoundHandler()).ServeHTTP(rec, req)

			if buf.Len() > 0 {
				t.Errorf("expected no log for %s, got %s", path, buf.String())
			}
		})
	}
}

func TestResponseWriterCapturesStatus(t *testing.T) {
	buf := captureLogs(t)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest("GET", "/missing", nil)
	rec := httptest.NewRecorder()
	RequestLogger(inner).ServeHTTP(rec, req)

	if !strings.Contains(buf.String(), "404") {
		t.Error("expected 404 status in log")
	}
	if !strings.Contains(buf.String(), "WARN") {
		t.Error("expected 4xx to log at warn")
	}
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })
	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return &buf
}
