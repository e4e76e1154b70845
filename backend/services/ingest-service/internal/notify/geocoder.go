package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"tankwatch/backend/services/ingest-service/internal/fuel"
)

// ErrNoLocation is returned when the lookup service knows no place for a point.
var ErrNoLocation = errors.New("notify: location not found")

// Geocoder resolves coordinates through a Nominatim compatible reverse endpoint.
type Geocoder struct {
	baseURL   string
	userAgent string
	client    *http.Client
	logger    *zap.Logger
}

// NewGeocoder returns a reverse geocoding client. An empty baseURL disables lookups.
func NewGeocoder(baseURL, userAgent string, logger *zap.Logger) *Geocoder {
	if userAgent == "" {
		userAgent = "tankwatch"
	}
	return &Geocoder{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		logger: logger,
	}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// ResolveLocationName makes a single lookup attempt.
func (g *Geocoder) ResolveLocationName(ctx context.Context, point fuel.Coordinate) (string, error) {
	if g.baseURL == "" {
		g.logger.Debug("geocoder disabled, skipping lookup")
		return "", ErrNoLocation
	}

	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(point.Latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(point.Longitude, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/reverse?%s", g.baseURL, q.Encode()), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("notify: geocoder returned status %d", resp.StatusCode)
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("notify: decode geocoder response: %w", err)
	}
	if body.Error != "" || body.DisplayName == "" {
		return "", ErrNoLocation
	}
	return body.DisplayName, nil
}
