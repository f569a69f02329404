package rent

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadIndex(t *testing.T) {
	ix := fixtureIndex(t)
	assert.Equal(t, 2, ix.Len())

	rents, ok := ix.Lookup(76102)
	require.True(t, ok)
	assert.True(t, rents[2].Valid)
	assert.True(t, decimal.NewFromInt(1560).Equal(rents[2].Decimal))

	rents, ok = ix.Lookup(76104)
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString("1340.50").Equal(rents[2].Decimal))
	assert.True(t, decimal.NewFromInt(2210).Equal(rents[4].Decimal))

	_, ok = ix.Lookup(10001)
	assert.False(t, ok)
}

func TestLoadIndexDefaultsToFirstSheet(t *testing.T) {
	path := writeWorkbook(t, "can you organize this in a tabl", header,
		[]any{76102, "Tarrant", 1150, 1290, 1560, 2090, 2560},
	)

	ix, err := LoadIndex(path, "")
	require.NoError(t, err)
	assert.Equal(t, 1, ix.Len())
}

func TestLoadIndexRowHandling(t *testing.T) {
	path := writeWorkbook(t, "Rents", header,
		[]any{76102, "Tarrant", 1150, 1290, 1560, 2090, 2560},
		[]any{76102, "Duplicate", 1, 1, 1, 1, 1},
		[]any{"76105.0", "Tarrant", 900, 1000, "", 1500},
		[]any{"", "Blank ZIP"},
	)

	ix, err := LoadIndex(path, "Rents")
	require.NoError(t, err)
	assert.Equal(t, 2, ix.Len())

	first, _ := ix.Lookup(76102)
	assert.True(t, decimal.NewFromInt(1150).Equal(first[0].Decimal), "first row for a ZIP wins")

	partial, ok := ix.Lookup(76105)
	require.True(t, ok)
	assert.True(t, partial[1].Valid)
	assert.False(t, partial[2].Valid)
	assert.False(t, partial[4].Valid)
}

func TestLoadIndexErrors(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		sheet   string
		wantErr string
	}{
		{
			name:    "missing file",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.xlsx") },
			wantErr: "opening rent workbook",
		},
		{
			name: "unknown sheet",
			path: func(t *testing.T) string {
				return writeWorkbook(t, "Rents", header, []any{76102, "Tarrant", 1, 2, 3, 4, 5})
			},
			sheet:   "Other",
			wantErr: `reading sheet "Other"`,
		},
		{
			name: "missing bedroom column",
			path: func(t *testing.T) string {
				return writeWorkbook(t, "Rents", []any{"ZIP", "Efficiency", "One-Bedroom"}, []any{76102, 1, 2})
			},
			wantErr: `missing "Two-Bedroom" column`,
		},
		{
			name: "bad ZIP",
			path: func(t *testing.T) string {
				return writeWorkbook(t, "Rents", header, []any{"Fort Worth", "Tarrant", 1, 2, 3, 4, 5})
			},
			wantErr: "row 2: invalid ZIP",
		},
		{
			name: "bad rent",
			path: func(t *testing.T) string {
				return writeWorkbook(t, "Rents", header, []any{76102, "Tarrant", 1, "call us", 3, 4, 5})
			},
			wantErr: `column "One-Bedroom": invalid rent`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadIndex(tt.path(t), tt.sheet)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewIndexCopiesRows(t *testing.T) {
	rows := map[int]Rents{76102: {decimal.NewNullDecimal(decimal.NewFromInt(1))}}
	ix := NewIndex(rows)
	delete(rows, 76102)

	_, ok := ix.Lookup(76102)
	assert.True(t, ok)
}
