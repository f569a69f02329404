// Package brrrr models the cash flow of a Buy, Rehab, Rent, Refinance, Repeat
// deal. Everything here is a pure function of its inputs.
package brrrr

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrArithmetic is returned when the inputs drive a figure out of the
// float64 range (overflow, or a zero denominator).
var ErrArithmetic = errors.New("arithmetic overflow")

// cashLeftTolerance is how close to zero cash_left_in_deal must be for the
// deal to count as having no money left in it.
const cashLeftTolerance = 0.01

// Outputs holds the derived figures of a calculation. The zero value is the
// result of a failed calculation.
type Outputs struct {
	TotalInitialInvestment   float64 `json:"total_initial_investment"`
	HardMoneyLoanAmount      float64 `json:"hard_money_loan_amount"`
	MonthlyInterestOnlyHM    float64 `json:"monthly_interest_only_hm"`
	HoldingCostsRehab        float64 `json:"holding_costs_rehab"`
	TotalOutOfPocket         float64 `json:"total_out_of_pocket"`
	RefinanceLoanAmount      float64 `json:"refinance_loan_amount"`
	MoneyFromRefiAfterPayoff float64 `json:"money_from_refi_after_payoff"`
	CashLeftInDeal           float64 `json:"cash_left_in_deal"`
	EquityCreated            float64 `json:"equity_created"`
	MonthlyMortgageRefi      float64 `json:"monthly_mortgage_refi"`
	MonthlyOperatingExpenses float64 `json:"monthly_operating_expenses"`
	MonthlyCashFlow          float64 `json:"monthly_cash_flow"`
	AnnualCashFlow           float64 `json:"annual_cash_flow"`

	// CashOnCashReturn is a percentage, or +Inf when the deal returns cash
	// flow with nothing left invested.
	CashOnCashReturn float64 `json:"cash_on_cash_return"`

	Calculated bool `json:"results_calculated"`
}

// UncappedReturn reports whether the cash-on-cash return is the +Inf sentinel.
func (o Outputs) UncappedReturn() bool {
	return math.IsInf(o.CashOnCashReturn, 1)
}

// MarshalJSON encodes non-finite cash-on-cash returns as strings ("+Inf"),
// since JSON numbers cannot carry them.
func (o Outputs) MarshalJSON() ([]byte, error) {
	type plain Outputs

	var coc any = o.CashOnCashReturn
	if math.IsInf(o.CashOnCashReturn, 0) || math.IsNaN(o.CashOnCashReturn) {
		coc = strconv.FormatFloat(o.CashOnCashReturn, 'f', -1, 64)
	}

	return json.Marshal(struct {
		plain
		CashOnCashReturn any `json:"cash_on_cash_return"`
	}{plain(o), coc})
}

// Calculate parses a raw form and runs the formula chain. Any validation or
// arithmetic failure yields zeroed outputs with Calculated false; the parsed
// inputs are returned alongside so callers can persist them.
func Calculate(form Form) (Inputs, Outputs, error) {
	in, err := ParseForm(form)
	if err != nil {
		return Inputs{}, Outputs{}, err
	}
	out, err := Compute(in)
	if err != nil {
		return in, Outputs{}, err
	}
	return in, out, nil
}

// Compute runs the formula chain over validated inputs. It fails with
// ErrArithmetic when any figure is not finite, other than the +Inf
// cash-on-cash sentinel.
func Compute(in Inputs) (Outputs, error) {
	downPayment := in.DownPayment1Pct / 100
	refinance := in.RefinancePct / 100
	management := in.PropertyManagementPct / 100
	maintenance := in.MaintenancePct / 100
	vacancy := in.VacancyPct / 100

	hardMoneyLoan := in.PurchasePrice*(1-downPayment) + in.RehabCost
	monthlyInterestOnly := hardMoneyLoan * (in.InterestRate1 / 100) / 12
	monthlyTax := in.PropertyTax / 12
	monthlyInsurance := in.Insurance / 12
	holdingCosts := (monthlyInterestOnly + monthlyTax + monthlyInsurance) * float64(in.RehabPeriodMonths)

	refinanceLoan := in.ARV * refinance

	initialInvestment := in.PurchasePrice*downPayment + in.ClosingCosts1
	outOfPocket := initialInvestment + holdingCosts
	fromRefi := refinanceLoan - hardMoneyLoan - in.ClosingCosts2
	cashLeft := outOfPocket - fromRefi
	equity := in.ARV - refinanceLoan

	mortgage := MonthlyPayment(refinanceLoan, in.InterestRate2, in.LoanTermYears)
	operating := in.RentEstimate*(management+maintenance+vacancy) + monthlyTax + monthlyInsurance
	monthlyCashFlow := in.RentEstimate - operating - mortgage
	annualCashFlow := monthlyCashFlow * 12

	out := Outputs{
		TotalInitialInvestment:   initialInvestment,
		HardMoneyLoanAmount:      hardMoneyLoan,
		MonthlyInterestOnlyHM:    monthlyInterestOnly,
		HoldingCostsRehab:        holdingCosts,
		TotalOutOfPocket:         outOfPocket,
		RefinanceLoanAmount:      refinanceLoan,
		MoneyFromRefiAfterPayoff: fromRefi,
		CashLeftInDeal:           cashLeft,
		EquityCreated:            equity,
		MonthlyMortgageRefi:      mortgage,
		MonthlyOperatingExpenses: operating,
		MonthlyCashFlow:          monthlyCashFlow,
		AnnualCashFlow:           annualCashFlow,
		CashOnCashReturn:         CashOnCashReturn(annualCashFlow, cashLeft),
		Calculated:               true,
	}
	if err := out.checkFinite(); err != nil {
		return Outputs{}, err
	}
	return out, nil
}

// checkFinite rejects NaN and infinite figures. An infinite cash-on-cash
// return passes only when it is the sentinel for cash flow with no cash left.
func (o Outputs) checkFinite() error {
	figures := []struct {
		name  string
		value float64
	}{
		{"total_initial_investment", o.TotalInitialInvestment},
		{"hard_money_loan_amount", o.HardMoneyLoanAmount},
		{"monthly_interest_only_hm", o.MonthlyInterestOnlyHM},
		{"holding_costs_rehab", o.HoldingCostsRehab},
		{"total_out_of_pocket", o.TotalOutOfPocket},
		{"refinance_loan_amount", o.RefinanceLoanAmount},
		{"money_from_refi_after_payoff", o.MoneyFromRefiAfterPayoff},
		{"cash_left_in_deal", o.CashLeftInDeal},
		{"equity_created", o.EquityCreated},
		{"monthly_mortgage_refi", o.MonthlyMortgageRefi},
		{"monthly_operating_expenses", o.MonthlyOperatingExpenses},
		{"monthly_cash_flow", o.MonthlyCashFlow},
		{"annual_cash_flow", o.AnnualCashFlow},
	}
	for _, f := range figures {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s is not a finite number", ErrArithmetic, f.name)
		}
	}

	coc := o.CashOnCashReturn
	sentinel := o.AnnualCashFlow > 0 && math.Abs(o.CashLeftInDeal) < cashLeftTolerance
	if math.IsNaN(coc) || math.IsInf(coc, -1) || (math.IsInf(coc, 1) && !sentinel) {
		return fmt.Errorf("%w: cash_on_cash_return is not a finite number", ErrArithmetic)
	}
	return nil
}

// CashOnCashReturn returns annual cash flow over cash left in the deal as a
// percentage. A profitable deal with (near) zero cash left returns +Inf.
func CashOnCashReturn(annualCashFlow, cashLeft float64) float64 {
	switch {
	case annualCashFlow > 0 && math.Abs(cashLeft) < cashLeftTolerance:
		return math.Inf(1)
	case cashLeft != 0:
		return annualCashFlow / cashLeft * 100
	default:
		return 0
	}
}

// MonthlyPayment is the fixed-rate amortized payment on principal at an
// annual percentage rate over termYears.
func MonthlyPayment(principal, annualRatePct float64, termYears int) float64 {
	if principal <= 0 || termYears <= 0 {
		return 0
	}

	r := annualRatePct / 100 / 12
	n := float64(termYears * 12)

	if r == 0 {
		return principal / n
	}

	growth := math.Pow(1+r, n)
	return principal * (r * growth) / (growth - 1)
}
