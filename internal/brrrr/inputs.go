package brrrr

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Form field names. They double as the JSON keys and the property table columns.
const (
	FieldAddress               = "property_address"
	FieldPurchasePrice         = "purchase_price"
	FieldRehabCost             = "rehab_cost"
	FieldClosingCosts1         = "closing_costs_1"
	FieldARV                   = "arv"
	FieldDownPayment1Pct       = "down_payment_1_pct"
	FieldInterestRate1         = "interest_rate_1"
	FieldRehabPeriodMonths     = "rehab_period_months"
	FieldRefinancePct          = "refinance_pct"
	FieldInterestRate2         = "interest_rate_2"
	FieldLoanTermYears         = "loan_term_years"
	FieldClosingCosts2         = "closing_costs_2"
	FieldRentEstimate          = "rent_estimate"
	FieldPropertyTax           = "property_tax"
	FieldInsurance             = "insurance"
	FieldPropertyManagementPct = "property_management_pct"
	FieldMaintenancePct        = "maintenance_pct"
	FieldVacancyPct            = "vacancy_pct"
)

// Fields lists every input field in form order.
var Fields = []string{
	FieldAddress,
	FieldPurchasePrice,
	FieldRehabCost,
	FieldClosingCosts1,
	FieldARV,
	FieldDownPayment1Pct,
	FieldInterestRate1,
	FieldRehabPeriodMonths,
	FieldRefinancePct,
	FieldInterestRate2,
	FieldLoanTermYears,
	FieldClosingCosts2,
	FieldRentEstimate,
	FieldPropertyTax,
	FieldInsurance,
	FieldPropertyManagementPct,
	FieldMaintenancePct,
	FieldVacancyPct,
}

var (
	// ErrMissingField is returned when a required field is absent or blank.
	ErrMissingField = errors.New("missing required field")
	// ErrInvalidNumber is returned when a field does not parse as the expected number type.
	ErrInvalidNumber = errors.New("invalid numeric input")
)

// FieldError ties a validation failure to the form field that caused it.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	if errors.Is(e.Err, ErrMissingField) {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %v %q", e.Field, e.Err, e.Value)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Inputs is the validated parameter set of a BRRRR deal. Percentages are kept
// as entered (20 means 20%).
type Inputs struct {
	Address string `json:"property_address"`

	PurchasePrice float64 `json:"purchase_price"`
	RehabCost     float64 `json:"rehab_cost"`
	ClosingCosts1 float64 `json:"closing_costs_1"`
	ARV           float64 `json:"arv"`

	DownPayment1Pct   float64 `json:"down_payment_1_pct"`
	InterestRate1     float64 `json:"interest_rate_1"`
	RehabPeriodMonths int     `json:"rehab_period_months"`

	RefinancePct  float64 `json:"refinance_pct"`
	InterestRate2 float64 `json:"interest_rate_2"`
	LoanTermYears int     `json:"loan_term_years"`
	ClosingCosts2 float64 `json:"closing_costs_2"`

	RentEstimate          float64 `json:"rent_estimate"`
	PropertyTax           float64 `json:"property_tax"`
	Insurance             float64 `json:"insurance"`
	PropertyManagementPct float64 `json:"property_management_pct"`
	MaintenancePct        float64 `json:"maintenance_pct"`
	VacancyPct            float64 `json:"vacancy_pct"`
}

// Form is a flat submission where every value arrives as text.
type Form map[string]string

// FormFromValues flattens url.Values, keeping the first value of each key.
func FormFromValues(values url.Values) Form {
	form := make(Form, len(values))
	for key, vals := range values {
		if len(vals) > 0 {
			form[key] = vals[0]
		}
	}
	return form
}

// ParseForm validates and coerces a submission. Absent numeric keys default
// to zero; keys that are present must parse, blank included.
func ParseForm(form Form) (Inputs, error) {
	address := strings.TrimSpace(form[FieldAddress])
	if address == "" {
		return Inputs{}, &FieldError{Field: FieldAddress, Err: ErrMissingField}
	}

	p := &formParser{form: form}
	in := Inputs{
		Address:               address,
		PurchasePrice:         p.float(FieldPurchasePrice),
		RehabCost:             p.float(FieldRehabCost),
		ClosingCosts1:         p.float(FieldClosingCosts1),
		ARV:                   p.float(FieldARV),
		DownPayment1Pct:       p.float(FieldDownPayment1Pct),
		InterestRate1:         p.float(FieldInterestRate1),
		RehabPeriodMonths:     p.int(FieldRehabPeriodMonths),
		RefinancePct:          p.float(FieldRefinancePct),
		InterestRate2:         p.float(FieldInterestRate2),
		LoanTermYears:         p.int(FieldLoanTermYears),
		ClosingCosts2:         p.float(FieldClosingCosts2),
		RentEstimate:          p.float(FieldRentEstimate),
		PropertyTax:           p.float(FieldPropertyTax),
		Insurance:             p.float(FieldInsurance),
		PropertyManagementPct: p.float(FieldPropertyManagementPct),
		MaintenancePct:        p.float(FieldMaintenancePct),
		VacancyPct:            p.float(FieldVacancyPct),
	}
	if p.err != nil {
		return Inputs{}, p.err
	}

	return in, nil
}

// Form renders the inputs back into form text, e.g. to pre-fill a page.
func (in Inputs) Form() Form {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

	return Form{
		FieldAddress:               in.Address,
		FieldPurchasePrice:         f(in.PurchasePrice),
		FieldRehabCost:             f(in.RehabCost),
		FieldClosingCosts1:         f(in.ClosingCosts1),
		FieldARV:                   f(in.ARV),
		FieldDownPayment1Pct:       f(in.DownPayment1Pct),
		FieldInterestRate1:         f(in.InterestRate1),
		FieldRehabPeriodMonths:     strconv.Itoa(in.RehabPeriodMonths),
		FieldRefinancePct:          f(in.RefinancePct),
		FieldInterestRate2:         f(in.InterestRate2),
		FieldLoanTermYears:         strconv.Itoa(in.LoanTermYears),
		FieldClosingCosts2:         f(in.ClosingCosts2),
		FieldRentEstimate:          f(in.RentEstimate),
		FieldPropertyTax:           f(in.PropertyTax),
		FieldInsurance:             f(in.Insurance),
		FieldPropertyManagementPct: f(in.PropertyManagementPct),
		FieldMaintenancePct:        f(in.MaintenancePct),
		FieldVacancyPct:            f(in.VacancyPct),
	}
}

// EmptyForm returns a form with every field present and blank.
func EmptyForm() Form {
	form := make(Form, len(Fields))
	for _, name := range Fields {
		form[name] = ""
	}
	return form
}

// formParser keeps the first failure so ParseForm reads as a flat list.
type formParser struct {
	form Form
	err  error
}

func (p *formParser) raw(field string) (string, bool) {
	if p.err != nil {
		return "", false
	}
	v, ok := p.form[field]
	return strings.TrimSpace(v), ok
}

func (p *formParser) float(field string) float64 {
	v, ok := p.raw(field)
	if !ok {
		return 0
	}

	n, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		p.err = &FieldError{Field: field, Value: v, Err: ErrInvalidNumber}
		return 0
	}
	return n
}

func (p *formParser) int(field string) int {
	v, ok := p.raw(field)
	if !ok {
		return 0
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		p.err = &FieldError{Field: field, Value: v, Err: fmt.Errorf("%w: expected a whole number", ErrInvalidNumber)}
		return 0
	}
	return n
}
