package fuel

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
)

type fakeStatusWriter struct {
	mu      sync.Mutex
	updates []Status
	err     error
}

func (f *fakeStatusWriter) UpdateStatus(_ context.Context, _ string, status Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, status)
	return f.err
}

func (f *fakeStatusWriter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

type sentEmail struct {
	subject   string
	body      string
	retries   int
	recipient string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (f *fakeMailer) SendEmail(_ context.Context, subject, body string, retries int, recipient string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentEmail{subject: subject, body: body, retries: retries, recipient: recipient})
	return f.err
}

func (f *fakeMailer) emails() []sentEmail {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentEmail, len(f.sent))
	copy(out, f.sent)
	return out
}

type fakeGeocoder struct {
	name string
	err  error
}

func (f fakeGeocoder) ResolveLocationName(context.Context, Coordinate) (string, error) {
	return f.name, f.err
}

type fakeChannel struct {
	mu     sync.Mutex
	events []string
	last   interface{}
}

func (f *fakeChannel) Emit(event string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	f.last = payload
	return nil
}

func (f *fakeChannel) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

var (
	outsideZone = Coordinate{Latitude: 12.9716, Longitude: 77.5946}
	insideZone  = DefaultZone().Center
	rising      = []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	falling     = []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}
	flat        = []float64{5, 5, 5, 5, 5, 5, 5, 5, 5, 5}
)

type engineFixture struct {
	engine   *Engine
	statuses *fakeStatusWriter
	mailer   *fakeMailer
	channel  *fakeChannel
}

func newFixture(geocoder Geocoder) *engineFixture {
	f := &engineFixture{
		statuses: &fakeStatusWriter{},
		mailer:   &fakeMailer{},
		channel:  &fakeChannel{},
	}
	f.engine = NewEngine(EngineConfig{EmailRecipient: "ops@example.com", EmailRetries: DefaultEmailRetries}, f.statuses, f.mailer, geocoder, zap.NewNop())
	return f
}

func stateWith(status Status, readings []float64) *DeviceState {
	s := NewDeviceState(1, "TN01AB1234")
	s.Status = status
	s.Readings = append([]float64(nil), readings...)
	return s
}

func TestAnalyzeStableToRiseFiresOnce(t *testing.T) {
	f := newFixture(fakeGeocoder{name: "Ludhiana"})
	state := stateWith(StatusStable, rising)

	tr, fired := f.engine.Analyze(context.Background(), "TN01AB1234", outsideZone, state, f.channel)
	f.engine.Wait()

	if !fired || tr.To != StatusRise || tr.From != StatusStable {
		t.Fatalf("expected stable -> rise, got %+v fired=%v", tr, fired)
	}
	if state.Status != StatusRise {
		t.Fatalf("expected in-memory status rise, got %s", state.Status)
	}
	if f.channel.count() != 1 {
		t.Fatalf("expected one push, got %d", f.channel.count())
	}
	if payload, ok := f.channel.last.(AlertPayload); !ok || payload.Status != StatusRise {
		t.Fatalf("unexpected payload %#v", f.channel.last)
	}
	emails := f.mailer.emails()
	if len(emails) != 1 {
		t.Fatalf("expected one email dispatch, got %d", len(emails))
	}
	if emails[0].subject != "Fuel Increase Detected" || emails[0].retries != 3 || emails[0].recipient != "ops@example.com" {
		t.Fatalf("unexpected email %+v", emails[0])
	}
	wantPrefix := "Device TN01AB1234: Fuel level at "
	if !strings.HasPrefix(emails[0].body, wantPrefix) || !strings.Contains(emails[0].body, "is riseing at Ludhiana with coordinates (12.9716, 77.5946)") {
		t.Fatalf("unexpected body %q", emails[0].body)
	}
	if f.statuses.count() != 1 || f.statuses.updates[0] != StatusRise {
		t.Fatalf("expected one status update to rise, got %v", f.statuses.updates)
	}
}

func TestAnalyzeLeakIsIdempotent(t *testing.T) {
	f := newFixture(fakeGeocoder{name: "Highway"})
	state := stateWith(StatusLeak, falling)

	for i := 0; i < 3; i++ {
		if _, fired := f.engine.Analyze(context.Background(), "k", outsideZone, state, f.channel); fired {
			t.Fatalf("call %d: expected no transition while leak persists", i)
		}
	}
	f.engine.Wait()

	if f.channel.count() != 0 || len(f.mailer.emails()) != 0 || f.statuses.count() != 0 {
		t.Fatal("expected no side effects while condition persists")
	}
	if state.StableCount != 0 {
		t.Fatalf("expected stable count reset on falling trend, got %d", state.StableCount)
	}
}

func TestAnalyzeFallingUsesGeofence(t *testing.T) {
	f := newFixture(nil)

	leak := stateWith(StatusStable, falling)
	tr, fired := f.engine.Analyze(context.Background(), "k", outsideZone, leak, f.channel)
	if !fired || tr.To != StatusLeak || tr.Subject != "Fuel Leak Detected" {
		t.Fatalf("expected leak outside zone, got %+v", tr)
	}

	drain := stateWith(StatusStable, falling)
	tr, fired = f.engine.Analyze(context.Background(), "k", insideZone, drain, f.channel)
	if !fired || tr.To != StatusDrain || tr.Subject != "Fuel Drain Detected" {
		t.Fatalf("expected drain inside zone, got %+v", tr)
	}

	// a leaking tanker that reaches the depot switches to drain
	tr, fired = f.engine.Analyze(context.Background(), "k", insideZone, leak, f.channel)
	if !fired || tr.From != StatusLeak || tr.To != StatusDrain {
		t.Fatalf("expected leak -> drain, got %+v", tr)
	}
	f.engine.Wait()

	emails := f.mailer.emails()
	if len(emails) != 3 {
		t.Fatalf("expected three emails, got %d", len(emails))
	}
	for _, e := range emails {
		if !strings.Contains(e.body, LocationNotFound) {
			t.Fatalf("expected fallback location without geocoder, got %q", e.body)
		}
	}
}

func TestStableDebounce(t *testing.T) {
	f := newFixture(nil)
	state := stateWith(StatusLeak, flat)
	state.StableCount = 38

	if _, fired := f.engine.Analyze(context.Background(), "k", outsideZone, state, f.channel); fired {
		t.Fatal("expected no transition at 39 flat windows")
	}
	if state.StableCount != 39 {
		t.Fatalf("expected stable count 39, got %d", state.StableCount)
	}

	tr, fired := f.engine.Analyze(context.Background(), "k", outsideZone, state, f.channel)
	f.engine.Wait()
	if !fired || tr.To != StatusStable || tr.Subject != "Fuel is Stable" {
		t.Fatalf("expected transition to stable at 40, got %+v fired=%v", tr, fired)
	}
	if state.StableCount != 0 {
		t.Fatalf("expected stable count reset after transition, got %d", state.StableCount)
	}
}

func TestStableCountKeepsGrowingWhenAlreadyStable(t *testing.T) {
	f := newFixture(nil)
	state := stateWith(StatusStable, flat)
	state.StableCount = 39

	if _, fired := f.engine.Analyze(context.Background(), "k", outsideZone, state, f.channel); fired {
		t.Fatal("expected no transition when already stable")
	}
	if state.StableCount != 40 {
		t.Fatalf("expected stable count 40 without reset, got %d", state.StableCount)
	}
	f.engine.Wait()
	if f.statuses.count() != 0 || f.channel.count() != 0 {
		t.Fatal("expected no side effects")
	}
}

func TestNonFlatTrendResetsStableCount(t *testing.T) {
	f := newFixture(nil)
	state := stateWith(StatusRise, rising)
	state.StableCount = 25

	if _, fired := f.engine.Analyze(context.Background(), "k", outsideZone, state, f.channel); fired {
		t.Fatal("expected no transition while already rising")
	}
	if state.StableCount != 0 {
		t.Fatalf("expected reset to 0, got %d", state.StableCount)
	}
}

func TestEmailFailureDoesNotBlockStatusUpdate(t *testing.T) {
	f := newFixture(fakeGeocoder{err: errors.New("geocoder down")})
	f.mailer.err = errors.New("smtp unavailable")
	state := stateWith(StatusStable, falling)

	tr, fired := f.engine.Analyze(context.Background(), "k", outsideZone, state, f.channel)
	f.engine.Wait()

	if !fired || tr.To != StatusLeak {
		t.Fatalf("expected leak, got %+v", tr)
	}
	if f.statuses.count() != 1 {
		t.Fatalf("expected status update despite email failure, got %d", f.statuses.count())
	}
	if len(f.mailer.emails()) != 1 {
		t.Fatal("expected email attempt")
	}
	if !strings.Contains(f.mailer.emails()[0].body, LocationNotFound) {
		t.Fatal("expected fallback location after geocoder failure")
	}
}

func TestStatusFailureDoesNotBlockEmail(t *testing.T) {
	f := newFixture(nil)
	f.statuses.err = errors.New("db down")
	state := stateWith(StatusStable, rising)

	if _, fired := f.engine.Analyze(context.Background(), "k", outsideZone, state, nil); !fired {
		t.Fatal("expected transition")
	}
	f.engine.Wait()

	if len(f.mailer.emails()) != 1 {
		t.Fatal("expected email despite status persistence failure")
	}
	if state.Status != StatusRise {
		t.Fatalf("expected in-memory status rise, got %s", state.Status)
	}
}

func TestEvaluateShortWindowIsFlat(t *testing.T) {
	f := newFixture(nil)
	state := stateWith(StatusStable, []float64{1, 2, 3})
	if _, fired := f.engine.Analyze(context.Background(), "k", outsideZone, state, f.channel); fired {
		t.Fatal("expected no transition for a short window")
	}
	if state.StableCount != 1 {
		t.Fatalf("expected flat classification to count, got %d", state.StableCount)
	}
}

func TestAlertEmailUsesPlainDecimals(t *testing.T) {
	f := newFixture(fakeGeocoder{name: "Depot"})
	state := stateWith(StatusStable, rising)
	state.Calibration = map[int]float64{0: 1234567.5}

	if _, fired := f.engine.Analyze(context.Background(), "TN01AB1234", Coordinate{Latitude: 0.000001, Longitude: 75.929028}, state, f.channel); !fired {
		t.Fatal("expected a transition")
	}
	f.engine.Wait()

	emails := f.mailer.emails()
	if len(emails) != 1 {
		t.Fatalf("expected one email, got %d", len(emails))
	}
	want := "Device TN01AB1234: Fuel level at 1234567.5 is riseing at Depot with coordinates (0.000001, 75.929028)"
	if emails[0].body != want {
		t.Fatalf("expected %q, got %q", want, emails[0].body)
	}
}

func TestFormatNumber(t *testing.T) {
	cases := map[float64]string{
		7:         "7",
		1234567.5: "1234567.5",
		-162.5:    "-162.5",
		30.886188: "30.886188",
		1e21:      "1000000000000000000000",
	}
	for in, want := range cases {
		if got := formatNumber(in); got != want {
			t.Fatalf("%v: expected %s, got %s", in, want, got)
		}
	}
}
