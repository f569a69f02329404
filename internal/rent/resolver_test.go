package rent

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDirectZIP(t *testing.T) {
	stub := &stubGeocoder{}
	r := NewResolver(fixtureIndex(t), stub)

	est, err := r.Resolve(context.Background(), " 76102 ", 3)
	require.NoError(t, err)

	assert.Equal(t, "76102", est.ZIP)
	assert.Equal(t, 3, est.Bedrooms)
	assert.Equal(t, "Three-Bedroom", est.Column)
	assert.True(t, decimal.NewFromInt(2090).Equal(est.Rent))
	assert.False(t, est.Geocoded)
	assert.Zero(t, stub.callCount(), "5-digit input never reaches the geocoder")
}

func TestResolveGeocodedAddress(t *testing.T) {
	stub := &stubGeocoder{postcode: "76104-1234"}
	r := NewResolver(fixtureIndex(t), stub)

	est, err := r.Resolve(context.Background(), "1 Magnolia Ave, Fort Worth", 0)
	require.NoError(t, err)

	assert.Equal(t, "76104", est.ZIP)
	assert.True(t, est.Geocoded)
	assert.True(t, decimal.NewFromInt(980).Equal(est.Rent))
	assert.Equal(t, []string{"1 Magnolia Ave, Fort Worth"}, stub.calls)
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name     string
		index    func(t *testing.T) *Index
		geocoder Geocoder
		input    string
		bedrooms int
		wantErr  error
	}{
		{
			name:     "data unavailable",
			index:    func(*testing.T) *Index { return nil },
			input:    "76102",
			bedrooms: 1,
			wantErr:  ErrDataUnavailable,
		},
		{
			name:     "bedrooms too high",
			input:    "76102",
			bedrooms: 5,
			wantErr:  ErrInvalidBedrooms,
		},
		{
			name:     "negative bedrooms",
			input:    "76102",
			bedrooms: -1,
			wantErr:  ErrInvalidBedrooms,
		},
		{
			name:     "blank input",
			input:    "   ",
			wantErr:  ErrInvalidLocation,
		},
		{
			name:    "ZIP not in table",
			input:   "10001",
			wantErr: ErrZIPNotFound,
		},
		{
			name:     "geocoded ZIP not in table",
			geocoder: &stubGeocoder{postcode: "10001"},
			input:    "350 5th Ave, New York",
			wantErr:  ErrZIPNotFound,
		},
		{
			name:     "no postcode",
			geocoder: &stubGeocoder{err: ErrNoPostcode},
			input:    "nowhere in particular",
			wantErr:  ErrNoPostcode,
		},
		{
			name:     "malformed postcode",
			geocoder: &stubGeocoder{postcode: "761"},
			input:    "short postcode rd",
			wantErr:  ErrInvalidLocation,
		},
		{
			name:     "geocoder timeout",
			geocoder: &stubGeocoder{err: ErrGeocodeTimeout},
			input:    "slow street",
			wantErr:  ErrGeocodeTimeout,
		},
		{
			name:    "no geocoder",
			input:   "200 Texas St",
			wantErr: ErrGeocodeService,
		},
		{
			name: "blank figure",
			index: func(*testing.T) *Index {
				return NewIndex(map[int]Rents{76102: {decimal.NewNullDecimal(decimal.NewFromInt(900))}})
			},
			input:    "76102",
			bedrooms: 2,
			wantErr:  ErrZIPNotFound,
		},
		{
			name:    "six digits is an address",
			input:   "761020",
			wantErr: ErrGeocodeService,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index := fixtureIndex
			if tt.index != nil {
				index = tt.index
			}
			r := NewResolver(index(t), tt.geocoder)

			_, err := r.Resolve(context.Background(), tt.input, tt.bedrooms)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestResolveZIPNotFoundNamesZIP(t *testing.T) {
	r := NewResolver(fixtureIndex(t), nil)

	_, err := r.Resolve(context.Background(), "10001", 1)

	var nf *ZIPNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "10001", nf.ZIP)
}
