// Package rent estimates fair market rent for a ZIP code or street address
// from a static rent table.
package rent

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// MaxBedrooms is the largest bedroom count the table has a column for.
const MaxBedrooms = 4

const zipColumn = "ZIP"

// BedroomColumns holds the table header for each bedroom count.
var BedroomColumns = [MaxBedrooms + 1]string{
	"Efficiency",
	"One-Bedroom",
	"Two-Bedroom",
	"Three-Bedroom",
	"Four-Bedroom",
}

// Rents holds one row of the table. A figure is invalid when its cell was
// blank.
type Rents [MaxBedrooms + 1]decimal.NullDecimal

// Index is an immutable snapshot of the rent table keyed by integer ZIP.
type Index struct {
	rows map[int]Rents
}

// NewIndex builds an index from already parsed rows. The map is copied.
func NewIndex(rows map[int]Rents) *Index {
	ix := &Index{rows: make(map[int]Rents, len(rows))}
	for zip, rents := range rows {
		ix.rows[zip] = rents
	}
	return ix
}

// Lookup returns the row for zip.
func (ix *Index) Lookup(zip int) (Rents, bool) {
	rents, ok := ix.rows[zip]
	return rents, ok
}

// Len reports the number of ZIP codes in the index.
func (ix *Index) Len() int {
	return len(ix.rows)
}

// LoadIndex reads the rent table from an xlsx workbook. An empty sheet name
// selects the first sheet. When a ZIP appears more than once the first row
// wins.
func LoadIndex(path, sheet string) (*Index, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening rent workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("rent workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}

	zipCol, bedroomCols, err := headerPositions(rows[0])
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheet, err)
	}

	index := make(map[int]Rents, len(rows)-1)
	for i, row := range rows[1:] {
		line := i + 2

		rawZIP := cell(row, zipCol)
		if rawZIP == "" {
			continue
		}
		zip, err := parseZIP(rawZIP)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		if _, seen := index[zip]; seen {
			continue
		}

		var rents Rents
		for b, col := range bedroomCols {
			rents[b], err = parseRent(cell(row, col))
			if err != nil {
				return nil, fmt.Errorf("row %d, column %q: %w", line, BedroomColumns[b], err)
			}
		}
		index[zip] = rents
	}

	return &Index{rows: index}, nil
}

func headerPositions(header []string) (int, [MaxBedrooms + 1]int, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		positions[strings.TrimSpace(name)] = i
	}

	var bedroomCols [MaxBedrooms + 1]int
	zipCol, ok := positions[zipColumn]
	if !ok {
		return 0, bedroomCols, fmt.Errorf("missing %q column", zipColumn)
	}
	for b, name := range BedroomColumns {
		col, ok := positions[name]
		if !ok {
			return 0, bedroomCols, fmt.Errorf("missing %q column", name)
		}
		bedroomCols[b] = col
	}
	return zipCol, bedroomCols, nil
}

func cell(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// parseZIP accepts integer cells as well as numeric cells stored as floats.
func parseZIP(raw string) (int, error) {
	if zip, err := strconv.Atoi(raw); err == nil {
		return zip, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("invalid ZIP %q", raw)
	}
	return int(f), nil
}

// parseRent accepts plain numbers and currency text such as "$1,234.00".
func parseRent(raw string) (decimal.NullDecimal, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(raw)
	if cleaned == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid rent %q", raw)
	}
	return decimal.NewNullDecimal(d), nil
}
