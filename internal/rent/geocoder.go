package rent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const (
	DefaultGeocoderURL       = "https://nominatim.openstreetmap.org"
	DefaultGeocoderUserAgent = "fair_market_rent_app"
	DefaultGeocoderTimeout   = 5 * time.Second
)

// Geocoder resolves a free-text address to its postcode as reported by the
// geocoding service. It returns ErrNoPostcode when the service has no match
// or the match carries no postcode.
type Geocoder interface {
	Postcode(ctx context.Context, address string) (string, error)
}

// NominatimConfig configures a NominatimGeocoder. Zero values fall back to
// the public endpoint, a 5s timeout and one request per second.
type NominatimConfig struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// NominatimGeocoder queries a Nominatim search endpoint restricted to US
// results.
type NominatimGeocoder struct {
	client    *http.Client
	baseURL   string
	userAgent string
	timeout   time.Duration
	limiter   *rate.Limiter
}

func NewNominatimGeocoder(cfg NominatimConfig) *NominatimGeocoder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGeocoderURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultGeocoderUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultGeocoderTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}

	return &NominatimGeocoder{
		client:    &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		timeout:   cfg.Timeout,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

type nominatimPlace struct {
	Address struct {
		Postcode string `json:"postcode"`
	} `json:"address"`
}

func (g *NominatimGeocoder) Postcode(ctx context.Context, address string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	// Wait fails early when the next slot lies beyond the deadline.
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeocodeTimeout, err)
	}

	params := url.Values{
		"q":              {address},
		"format":         {"jsonv2"},
		"addressdetails": {"1"},
		"countrycodes":   {"us"},
		"limit":          {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeocodeService, err)
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", fmt.Errorf("%w: %v", ErrGeocodeTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrGeocodeService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("%w: unexpected status %d", ErrGeocodeService, resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		if isTimeout(err) {
			return "", fmt.Errorf("%w: %v", ErrGeocodeTimeout, err)
		}
		return "", fmt.Errorf("%w: decoding response: %v", ErrGeocodeService, err)
	}

	if len(places) == 0 || places[0].Address.Postcode == "" {
		return "", ErrNoPostcode
	}
	return places[0].Address.Postcode, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
