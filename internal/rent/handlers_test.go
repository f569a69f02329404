package rent

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"brrrr-analyzer/internal/testutil"
)

func newTestRouter(r *Resolver) http.Handler {
	router := chi.NewRouter()
	RegisterRoutes(router, NewHandler(r))
	return router
}

func TestEstimateForm(t *testing.T) {
	router := newTestRouter(NewResolver(fixtureIndex(t), nil))

	req := testutil.NewFormRequest(http.MethodPost, "/rent/estimate", url.Values{
		"address_or_zip": {"76104"},
		"bedrooms":       {"2"},
	})
	w := testutil.ExecuteRequest(req, router)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var body map[string]any
	testutil.DecodeJSONBody(t, w.Body, &body)
	assert.Equal(t, "76104", body["zip"])
	assert.Equal(t, "1340.5", body["rent"])
	assert.Equal(t, "Two-Bedroom", body["column"])
}

func TestEstimateJSON(t *testing.T) {
	stub := &stubGeocoder{postcode: "76102"}
	router := newTestRouter(NewResolver(fixtureIndex(t), stub))

	req := httptest.NewRequest(http.MethodPost, "/rent/estimate",
		bytes.NewReader([]byte(`{"address_or_zip":"200 Texas St, Fort Worth","bedrooms":1}`)))
	req.Header.Set("Content-Type", "application/json")

	w := testutil.ExecuteRequest(req, router)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var body Estimate
	testutil.DecodeJSONBody(t, w.Body, &body)
	assert.Equal(t, "76102", body.ZIP)
	assert.True(t, body.Geocoded)
	assert.Equal(t, "1290", body.Rent.String())
}

func TestEstimateErrors(t *testing.T) {
	tests := []struct {
		name       string
		resolver   func(t *testing.T) *Resolver
		form       url.Values
		wantStatus int
		wantError  string
	}{
		{
			name:       "bedrooms not a number",
			form:       url.Values{"address_or_zip": {"76102"}, "bedrooms": {"studio"}},
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid bedroom selection. Please try again.",
		},
		{
			name:       "bedrooms missing",
			form:       url.Values{"address_or_zip": {"76102"}},
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid bedroom selection. Please try again.",
		},
		{
			name:       "blank location",
			form:       url.Values{"address_or_zip": {""}, "bedrooms": {"1"}},
			wantStatus: http.StatusBadRequest,
			wantError:  "Please enter a valid 5-digit ZIP code or a complete address.",
		},
		{
			name:       "unknown ZIP",
			form:       url.Values{"address_or_zip": {"10001"}, "bedrooms": {"1"}},
			wantStatus: http.StatusNotFound,
			wantError:  "No data found for ZIP code 10001. Please try a different ZIP or address.",
		},
		{
			name: "no postcode",
			resolver: func(t *testing.T) *Resolver {
				return NewResolver(fixtureIndex(t), &stubGeocoder{err: ErrNoPostcode})
			},
			form:       url.Values{"address_or_zip": {"nowhere"}, "bedrooms": {"1"}},
			wantStatus: http.StatusBadRequest,
			wantError:  "Could not find a ZIP code for the provided address.",
		},
		{
			name:       "data unavailable",
			resolver:   func(*testing.T) *Resolver { return NewResolver(nil, nil) },
			form:       url.Values{"address_or_zip": {"76102"}, "bedrooms": {"1"}},
			wantStatus: http.StatusServiceUnavailable,
			wantError:  "Rent data not loaded. Please try again later.",
		},
		{
			name: "geocoder timeout",
			resolver: func(t *testing.T) *Resolver {
				return NewResolver(fixtureIndex(t), &stubGeocoder{err: ErrGeocodeTimeout})
			},
			form:       url.Values{"address_or_zip": {"slow street"}, "bedrooms": {"1"}},
			wantStatus: http.StatusGatewayTimeout,
			wantError:  "Geocoding service error: geocoding timed out. Please try again or enter a ZIP code directly.",
		},
		{
			name: "geocoder failure",
			resolver: func(t *testing.T) *Resolver {
				return NewResolver(fixtureIndex(t), &stubGeocoder{err: ErrGeocodeService})
			},
			form:       url.Values{"address_or_zip": {"broken street"}, "bedrooms": {"1"}},
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := NewResolver(fixtureIndex(t), nil)
			if tt.resolver != nil {
				resolver = tt.resolver(t)
			}

			req := testutil.NewFormRequest(http.MethodPost, "/rent/estimate", tt.form)
			w := testutil.ExecuteRequest(req, newTestRouter(resolver))
			testutil.CheckResponseCode(t, tt.wantStatus, w.Code)

			var body map[string]string
			testutil.DecodeJSONBody(t, w.Body, &body)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
			} else {
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestOptions(t *testing.T) {
	w := testutil.ExecuteRequest(httptest.NewRequest(http.MethodGet, "/rent/estimate", nil), newTestRouter(NewResolver(nil, nil)))
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var body OptionsResponse
	testutil.DecodeJSONBody(t, w.Body, &body)
	assert.False(t, body.DataLoaded)
	assert.Len(t, body.Bedrooms, 5)
	assert.Equal(t, BedroomOption{Value: 0, Label: "Efficiency"}, body.Bedrooms[0])
}
