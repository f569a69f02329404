package brrrr

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormTrimsAndCoerces(t *testing.T) {
	form := exampleForm()
	form[FieldAddress] = "  123 Main St  "
	form[FieldPurchasePrice] = " 100000.50 "
	form[FieldRehabPeriodMonths] = " 6 "

	in, err := ParseForm(form)
	require.NoError(t, err)

	assert.Equal(t, "123 Main St", in.Address)
	assert.Equal(t, 100000.50, in.PurchasePrice)
	assert.Equal(t, 6, in.RehabPeriodMonths)
	assert.Equal(t, 30, in.LoanTermYears)
	assert.Equal(t, 5.0, in.VacancyPct)
}

func TestParseFormReportsFirstInvalidField(t *testing.T) {
	form := exampleForm()
	form[FieldRehabCost] = "x"
	form[FieldVacancyPct] = "y"

	_, err := ParseForm(form)
	require.Error(t, err)
	assert.Equal(t, `rehab_cost: invalid numeric input "x"`, err.Error())
}

func TestInputsFormRoundTrip(t *testing.T) {
	in, err := ParseForm(exampleForm())
	require.NoError(t, err)

	assert.Equal(t, exampleForm(), in.Form())

	again, err := ParseForm(in.Form())
	require.NoError(t, err)
	assert.Equal(t, in, again)
}

func TestFormFromValuesKeepsFirstValue(t *testing.T) {
	values := url.Values{
		FieldAddress:       {"1 Elm", "2 Elm"},
		FieldPurchasePrice: {"10"},
		"action":           {},
	}

	form := FormFromValues(values)
	assert.Equal(t, Form{FieldAddress: "1 Elm", FieldPurchasePrice: "10"}, form)
}

func TestEmptyFormHasEveryField(t *testing.T) {
	form := EmptyForm()
	require.Len(t, form, len(Fields))
	for _, name := range Fields {
		v, ok := form[name]
		assert.True(t, ok, name)
		assert.Empty(t, v)
	}
}
