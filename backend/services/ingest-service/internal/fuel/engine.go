package fuel

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

const (
	// DefaultStableThreshold is how many consecutive flat windows re-declare stable.
	DefaultStableThreshold = 40
	// DefaultEmailRetries is the number of resend attempts after a failed email.
	DefaultEmailRetries = 3
	// AlertEvent is the live event name carrying a status change.
	AlertEvent = "Popup-Alert"
	// LocationNotFound is used in messages when reverse geocoding gives nothing.
	LocationNotFound = "Location not found"
)

// StatusWriter persists a tanker's status.
type StatusWriter interface {
	UpdateStatus(ctx context.Context, deviceKey string, status Status) error
}

// EmailSender delivers an alert email, resending up to retries times on failure.
type EmailSender interface {
	SendEmail(ctx context.Context, subject, body string, retries int, recipient string) error
}

// Geocoder turns a coordinate into a readable place name.
type Geocoder interface {
	ResolveLocationName(ctx context.Context, point Coordinate) (string, error)
}

// Channel is a live push target for one device.
type Channel interface {
	Emit(event string, payload interface{}) error
}

// AlertPayload is pushed to live channels on every transition.
type AlertPayload struct {
	Status Status `json:"status"`
}

// EngineConfig holds the process-wide alerting policy.
type EngineConfig struct {
	Zone            Zone
	StableThreshold int
	EmailRecipient  string
	EmailRetries    int
}

// Transition describes a status change decided by the engine.
type Transition struct {
	From    Status
	To      Status
	Subject string
}

// Engine runs the fuel alert state machine and fires its side effects.
type Engine struct {
	cfg      EngineConfig
	statuses StatusWriter
	mailer   EmailSender
	geocoder Geocoder
	logger   *zap.Logger

	pending sync.WaitGroup
}

// NewEngine builds an engine. An unset zone or threshold falls back to the defaults,
// a negative retry count to DefaultEmailRetries.
func NewEngine(cfg EngineConfig, statuses StatusWriter, mailer EmailSender, geocoder Geocoder, logger *zap.Logger) *Engine {
	if cfg.Zone.RadiusMeters <= 0 {
		cfg.Zone = DefaultZone()
	}
	if cfg.StableThreshold <= 0 {
		cfg.StableThreshold = DefaultStableThreshold
	}
	if cfg.EmailRetries < 0 {
		cfg.EmailRetries = DefaultEmailRetries
	}
	return &Engine{
		cfg:      cfg,
		statuses: statuses,
		mailer:   mailer,
		geocoder: geocoder,
		logger:   logger,
	}
}

// Evaluate applies one classification to state and returns the transition, if any.
// It updates StableCount and Status but has no side effects.
func (e *Engine) Evaluate(trend Trend, inZone bool, state *DeviceState) (Transition, bool) {
	if trend == Flat {
		state.StableCount++
	} else {
		state.StableCount = 0
	}

	current := state.Status
	var next Status
	var subject string
	switch {
	case trend == Rising && current != StatusRise:
		next, subject = StatusRise, "Fuel Increase Detected"
	case trend == Falling && !inZone && current != StatusLeak:
		next, subject = StatusLeak, "Fuel Leak Detected"
	case trend == Falling && inZone && current != StatusDrain:
		next, subject = StatusDrain, "Fuel Drain Detected"
	case trend == Flat && state.StableCount >= e.cfg.StableThreshold && current != StatusStable:
		next, subject = StatusStable, "Fuel is Stable"
	default:
		return Transition{}, false
	}

	state.Status = next
	if next == StatusStable {
		state.StableCount = 0
	}
	return Transition{From: current, To: next, Subject: subject}, true
}

// Analyze classifies the device window, decides the transition and fires the side effects.
// The new reading must already be appended to state. ch may be nil when nobody listens.
// Email and geocoding run in the background; use Wait to drain them.
func (e *Engine) Analyze(ctx context.Context, deviceKey string, point Coordinate, state *DeviceState, ch Channel) (Transition, bool) {
	trend := ClassifyTrend(state.Readings)
	inZone := e.cfg.Zone.Contains(point)

	tr, fired := e.Evaluate(trend, inZone, state)
	if !fired {
		e.logger.Debug("fuel status unchanged",
			zap.String("device", deviceKey),
			zap.Stringer("trend", trend),
			zap.String("status", string(state.Status)),
			zap.Int("stable_count", state.StableCount),
		)
		return tr, false
	}

	e.logger.Info("fuel status changed",
		zap.String("device", deviceKey),
		zap.String("from", string(tr.From)),
		zap.String("to", string(tr.To)),
		zap.Stringer("trend", trend),
		zap.Bool("in_zone", inZone),
	)

	e.push(deviceKey, tr.To, ch)

	if err := e.statuses.UpdateStatus(ctx, deviceKey, tr.To); err != nil {
		e.logger.Error("failed to persist fuel status", zap.String("device", deviceKey), zap.String("status", string(tr.To)), zap.Error(err))
	}

	level, _ := state.Latest()
	volume := ComputeVolume(state.Calibration, level)
	bgCtx := context.WithoutCancel(ctx)

	e.pending.Add(1)
	go func() {
		defer e.pending.Done()
		e.notify(bgCtx, deviceKey, tr, volume, point)
	}()

	return tr, true
}

// Wait blocks until background notifications started by Analyze have finished.
func (e *Engine) Wait() {
	e.pending.Wait()
}

func (e *Engine) push(deviceKey string, status Status, ch Channel) {
	if ch == nil {
		e.logger.Warn("no live channel for tanker", zap.String("device", deviceKey))
		return
	}
	if err := ch.Emit(AlertEvent, AlertPayload{Status: status}); err != nil {
		e.logger.Warn("failed to push fuel alert", zap.String("device", deviceKey), zap.Error(err))
	}
}

func (e *Engine) notify(ctx context.Context, deviceKey string, tr Transition, volume float64, point Coordinate) {
	location := e.locationName(ctx, deviceKey, point)
	body := fmt.Sprintf("Device %s: Fuel level at %s is %sing at %s with coordinates (%s, %s)",
		deviceKey, formatNumber(volume), tr.To, location, formatNumber(point.Latitude), formatNumber(point.Longitude))

	if err := e.mailer.SendEmail(ctx, tr.Subject, body, e.cfg.EmailRetries, e.cfg.EmailRecipient); err != nil {
		e.logger.Error("failed to send fuel alert email", zap.String("device", deviceKey), zap.String("subject", tr.Subject), zap.Error(err))
	}
}

// formatNumber prints v in plain decimal notation with the shortest exact digits.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (e *Engine) locationName(ctx context.Context, deviceKey string, point Coordinate) string {
	if e.geocoder == nil {
		return LocationNotFound
	}
	name, err := e.geocoder.ResolveLocationName(ctx, point)
	if err != nil {
		e.logger.Warn("failed to resolve location",
			zap.String("device", deviceKey),
			zap.Float64("latitude", point.Latitude),
			zap.Float64("longitude", point.Longitude),
			zap.Error(err),
		)
		return LocationNotFound
	}
	if name == "" {
		return LocationNotFound
	}
	return name
}
