package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"go.uber.org/zap"

	"tankwatch/backend/services/ingest-service/internal/fuel"
)

type flakyTransport struct {
	mu       sync.Mutex
	failures int
	calls    int
	last     Message
}

func (f *flakyTransport) Send(_ context.Context, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = msg
	if f.calls <= f.failures {
		return errors.New("smtp: connection refused")
	}
	return nil
}

func TestMailerRetriesUntilSuccess(t *testing.T) {
	transport := &flakyTransport{failures: 2}
	mailer := NewMailer(transport, 0, zap.NewNop())

	if err := mailer.SendEmail(context.Background(), "Fuel Leak Detected", "body", 3, "ops@example.com"); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if transport.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", transport.calls)
	}
	if transport.last.To != "ops@example.com" || transport.last.Subject != "Fuel Leak Detected" {
		t.Fatalf("unexpected message %+v", transport.last)
	}
}

func TestMailerGivesUpAfterRetries(t *testing.T) {
	transport := &flakyTransport{failures: 100}
	mailer := NewMailer(transport, 0, zap.NewNop())

	if err := mailer.SendEmail(context.Background(), "s", "b", 3, "ops@example.com"); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if transport.calls != 4 {
		t.Fatalf("expected initial attempt plus 3 retries, got %d", transport.calls)
	}
}

func TestMailerStopsOnCancelledContext(t *testing.T) {
	transport := &flakyTransport{failures: 100}
	mailer := NewMailer(transport, DefaultRetryDelay, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := mailer.SendEmail(ctx, "s", "b", 3, "ops@example.com"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if transport.calls != 1 {
		t.Fatalf("expected a single attempt, got %d", transport.calls)
	}
}

func TestNewSMTPTransportRequiresHost(t *testing.T) {
	if _, err := NewSMTPTransport(SMTPConfig{}); err == nil {
		t.Fatal("expected error for missing host")
	}
}

func TestGeocoderResolvesDisplayName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reverse" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("lat") != "30.886188" || r.URL.Query().Get("lon") != "75.929028" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if r.Header.Get("User-Agent") != "tankwatch-test" {
			t.Errorf("missing user agent")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"display_name":"Ludhiana, Punjab, India"}`))
	}))
	defer srv.Close()

	g := NewGeocoder(srv.URL+"/", "tankwatch-test", zap.NewNop())
	name, err := g.ResolveLocationName(context.Background(), fuel.DefaultZone().Center)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if name != "Ludhiana, Punjab, India" {
		t.Fatalf("unexpected name %q", name)
	}
}

func TestGeocoderFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("lat") == "0" {
			_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	g := NewGeocoder(srv.URL, "", zap.NewNop())
	if _, err := g.ResolveLocationName(context.Background(), fuel.Coordinate{}); !errors.Is(err, ErrNoLocation) {
		t.Fatalf("expected ErrNoLocation, got %v", err)
	}
	if _, err := g.ResolveLocationName(context.Background(), fuel.Coordinate{Latitude: 1, Longitude: 1}); err == nil {
		t.Fatal("expected error for bad gateway")
	}

	disabled := NewGeocoder("", "", zap.NewNop())
	if _, err := disabled.ResolveLocationName(context.Background(), fuel.Coordinate{}); !errors.Is(err, ErrNoLocation) {
		t.Fatalf("expected disabled geocoder to report no location, got %v", err)
	}
}
