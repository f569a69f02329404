// Package property persists named BRRRR input sets keyed by their address.
package property

import (
	"errors"
	"strings"
	"time"

	"brrrr-analyzer/internal/brrrr"
)

var (
	// ErrNotFound is returned when no record matches an id or address.
	ErrNotFound = errors.New("property not found")
	// ErrMissingAddress is returned when saving a record without an address.
	ErrMissingAddress = errors.New("missing address")
	// ErrStoreUnavailable is returned when no database connection can be obtained.
	ErrStoreUnavailable = errors.New("property store unavailable")
)

// Record is one saved property.
type Record struct {
	ID      int64        `json:"id"`
	Inputs  brrrr.Inputs `json:"inputs"`
	SavedAt time.Time    `json:"saved_at"`
}

// Summary is the listing view of a record.
type Summary struct {
	ID      int64     `json:"id"`
	Address string    `json:"property_address"`
	SavedAt time.Time `json:"saved_at"`
}

// SaveResult describes the outcome of an upsert.
type SaveResult struct {
	ID      int64     `json:"id"`
	Address string    `json:"property_address"`
	SavedAt time.Time `json:"saved_at"`
	Created bool      `json:"created"`
}

// DeleteResult describes the outcome of a delete. Deleted is false when the
// id did not exist.
type DeleteResult struct {
	ID      int64  `json:"id"`
	Address string `json:"property_address,omitempty"`
	Deleted bool   `json:"deleted"`
}

// numericColumns follow brrrr.Fields after the address.
var numericColumns = brrrr.Fields[1:]

var (
	recordColumns = "id, property_address, " + strings.Join(numericColumns, ", ") + ", saved_at"
	insertColumns = "property_address, " + strings.Join(numericColumns, ", ")
)

// recordArgs returns the address followed by the numeric fields, in column order.
func recordArgs(in brrrr.Inputs) []any {
	return []any{
		in.Address,
		in.PurchasePrice,
		in.RehabCost,
		in.ClosingCosts1,
		in.ARV,
		in.DownPayment1Pct,
		in.InterestRate1,
		in.RehabPeriodMonths,
		in.RefinancePct,
		in.InterestRate2,
		in.LoanTermYears,
		in.ClosingCosts2,
		in.RentEstimate,
		in.PropertyTax,
		in.Insurance,
		in.PropertyManagementPct,
		in.MaintenancePct,
		in.VacancyPct,
	}
}

// scanTargets mirrors recordColumns.
func (r *Record) scanTargets() []any {
	in := &r.Inputs
	return []any{
		&r.ID,
		&in.Address,
		&in.PurchasePrice,
		&in.RehabCost,
		&in.ClosingCosts1,
		&in.ARV,
		&in.DownPayment1Pct,
		&in.InterestRate1,
		&in.RehabPeriodMonths,
		&in.RefinancePct,
		&in.InterestRate2,
		&in.LoanTermYears,
		&in.ClosingCosts2,
		&in.RentEstimate,
		&in.PropertyTax,
		&in.Insurance,
		&in.PropertyManagementPct,
		&in.MaintenancePct,
		&in.VacancyPct,
		&r.SavedAt,
	}
}
