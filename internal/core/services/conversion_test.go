package services

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/calcmesh/internal/core/domain"
)

// countingBackend wraps the local backend and counts calls.
type countingBackend struct {
	local     *LocalArithmeticBackend
	multiply  int
	divide    int
	divideErr error
}

func (b *countingBackend) Multiply(ctx context.Context, x, y float64) (float64, error) {
	b.multiply++
	return b.local.Multiply(ctx, x, y)
}

func (b *countingBackend) Divide(ctx context.Context, x, y float64) (float64, error) {
	b.divide++
	if b.divideErr != nil {
		return 0, b.divideErr
	}
	return b.local.Divide(ctx, x, y)
}

func TestConversionService_Convert(t *testing.T) {
	svc := NewConversionService(nil, true)
	ctx := context.Background()

	tests := []struct {
		value    float64
		from, to string
		want     float64
	}{
		{100, "celsius", "fahrenheit", 212},
		{0, "celsius", "kelvin", 273.15},
		{32, "fahrenheit", "celsius", 0},
		{300, "kelvin", "fahrenheit", 80.33},
		{1, "kilometer", "meter", 1000},
		{1, "mile", "kilometer", 1.60934},
		{12, "inch", "feet", 1},
		{1, "kilogram", "pound", 2.20462},
		{1, "gallon", "liter", 3.78541},
		{1, "meter", "meter", 1},
		{5, "Meter", " FEET ", 16.4042},
	}

	for _, tt := range tests {
		t.Run(tt.from+"_to_"+tt.to, func(t *testing.T) {
			got, err := svc.Convert(ctx, tt.value, tt.from, tt.to)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-3)
		})
	}
}

func TestConversionService_Convert_Errors(t *testing.T) {
	svc := NewConversionService(nil, true)
	ctx := context.Background()

	_, err := svc.Convert(ctx, 1, "furlong", "meter")
	assert.ErrorIs(t, err, domain.ErrUnknownUnit)

	_, err = svc.Convert(ctx, 1, "meter", "parsec")
	assert.ErrorIs(t, err, domain.ErrUnknownUnit)

	_, err = svc.Convert(ctx, 1, "meter", "kilogram")
	assert.ErrorIs(t, err, domain.ErrCategoryMismatch)

	// Unknown units are reported before category checks
	_, err = svc.Convert(ctx, 1, "celsius", "furlong")
	assert.ErrorIs(t, err, domain.ErrUnknownUnit)
}

func TestConversionService_UsesBackendForLinearUnits(t *testing.T) {
	backend := &countingBackend{local: NewLocalArithmeticBackend(nil)}
	svc := NewConversionService(backend, true)
	ctx := context.Background()

	_, err := svc.Convert(ctx, 3, "feet", "meter")
	require.NoError(t, err)
	assert.Equal(t, 1, backend.multiply)
	assert.Equal(t, 1, backend.divide)

	// Temperature never goes through the backend
	_, err = svc.Convert(ctx, 20, "celsius", "kelvin")
	require.NoError(t, err)
	assert.Equal(t, 1, backend.multiply)

	backend.divideErr = errors.New("boom")
	_, err = svc.Convert(ctx, 3, "feet", "meter")
	assert.ErrorContains(t, err, "from base unit")
}

func TestConversionService_Evaluate(t *testing.T) {
	svc := NewConversionService(nil, true)
	ctx := context.Background()

	res := svc.Evaluate(ctx, "convert", domain.Data{"value": 100.0, "from_unit": "celsius", "to_unit": "fahrenheit"})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "temperature_conversion", res.Operation)
	assert.InDelta(t, 212.0, res.Result, 1e-9)
	assert.Equal(t, 100.0, res.Extras["from_value"])
	assert.Equal(t, "celsius", res.Extras["from_unit"])

	linear := svc.Evaluate(ctx, "convert", domain.Data{"value": 2.0, "from": "kilometer", "to": "meter"})
	require.True(t, linear.Success, linear.Error)
	assert.Equal(t, "kilometer_to_meter", linear.Operation)
	assert.InDelta(t, 2000.0, linear.Result, 1e-9)
}

func TestConversionService_Evaluate_Failures(t *testing.T) {
	ctx := context.Background()

	strict := NewConversionService(nil, false)
	res := strict.Evaluate(ctx, "convert", domain.Data{"value": 1.0, "from": "meter", "to": "feet"})
	assert.False(t, res.Success)
	assert.Equal(t, domain.CodeInvalidInput, res.ErrorCode)

	svc := NewConversionService(nil, true)
	tests := []struct {
		name      string
		operation string
		data      domain.Data
		wantCode  string
	}{
		{"missing value", "convert", domain.Data{"from_unit": "meter", "to_unit": "feet"}, domain.CodeInvalidInput},
		{"unknown unit", "convert", domain.Data{"value": 1.0, "from_unit": "meter", "to_unit": "cubit"}, domain.CodeUnknownUnit},
		{"mismatch", "convert", domain.Data{"value": 1.0, "from_unit": "liter", "to_unit": "meter"}, domain.CodeCategoryMismatch},
		{"unknown operation", "add", domain.Data{}, domain.CodeUnknownOperation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := svc.Evaluate(ctx, tt.operation, tt.data)
			assert.False(t, res.Success)
			assert.Equal(t, tt.wantCode, res.ErrorCode)
		})
	}
}

func TestConversionService_AvailableUnits(t *testing.T) {
	svc := NewConversionService(nil, true)
	units := svc.AvailableUnits()

	assert.Len(t, units, 4)
	assert.Equal(t, []string{"celsius", "fahrenheit", "kelvin"}, units["temperature"])
	assert.Contains(t, units["length"], "mile")

	category, ok := svc.Category("POUND")
	assert.True(t, ok)
	assert.Equal(t, "weight", category)
	assert.Equal(t, domain.AgentUnitConverter, svc.Kind())
	assert.Equal(t, []string{"convert"}, svc.Operations())
}

func TestConversionService_RoundTripProperty(t *testing.T) {
	svc := NewConversionService(nil, true)
	ctx := context.Background()

	type pair struct{ from, to string }
	var pairs []pair
	for _, units := range svc.AvailableUnits() {
		for _, from := range units {
			for _, to := range units {
				pairs = append(pairs, pair{from, to})
			}
		}
	}

	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 300
	properties := gopter.NewProperties(params)

	properties.Property("converting there and back restores the value", prop.ForAll(
		func(i int, v float64) bool {
			p := pairs[i]
			there, err := svc.Convert(ctx, v, p.from, p.to)
			if err != nil {
				return false
			}
			back, err := svc.Convert(ctx, there, p.to, p.from)
			if err != nil {
				return false
			}
			return math.Abs(back-v) <= 1e-9*math.Max(1, math.Abs(v))
		},
		gen.IntRange(0, len(pairs)-1),
		gen.Float64Range(-1e6, 1e6),
	))

	properties.TestingRun(t)
}
