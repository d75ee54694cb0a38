package services

import (
	"context"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/calcmesh/internal/core/domain"
)

func TestArithmeticService_Evaluate(t *testing.T) {
	svc := NewArithmeticService()

	tests := []struct {
		name      string
		operation string
		data      domain.Data
		wantLabel string
		want      float64
	}{
		{"add", "add", domain.Data{"numbers": []any{1.0, 2.0, 3.5}}, "addition", 6.5},
		{"add empty", "add", domain.Data{"numbers": []any{}}, "addition", 0},
		{"subtract", "subtract", domain.Data{"numbers": []any{10.0, 3.0, 2.0}}, "subtraction", 5},
		{"multiply", "multiply", domain.Data{"numbers": []any{2.0, 3.0, 4.0}}, "multiplication", 24},
		{"multiply empty", "multiply", domain.Data{"numbers": []any{}}, "multiplication", 1},
		{"divide", "divide", domain.Data{"numbers": []any{100.0, 5.0, 2.0}}, "division", 10},
		{"power", "power", domain.Data{"base": 2.0, "exponent": 10.0}, "power (2^10)", 1024},
		{"square root", "square_root", domain.Data{"number": 16.0}, "square_root of 16", 4},
		{"percentage", "percentage", domain.Data{"value": 200.0, "percentage": 15.0}, "15% of 200", 30},
		{"integers", "add", domain.Data{"numbers": []int{1, 2}}, "addition", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := svc.Evaluate(context.Background(), tt.operation, tt.data)

			require.True(t, res.Success, res.Error)
			assert.Equal(t, tt.wantLabel, res.Operation)
			got, ok := res.Numeric()
			require.True(t, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestArithmeticService_Evaluate_Failures(t *testing.T) {
	svc := NewArithmeticService()

	tests := []struct {
		name      string
		operation string
		data      domain.Data
		wantCode  string
	}{
		{"divide by zero", "divide", domain.Data{"numbers": []any{10.0, 0.0}}, domain.CodeDivisionByZero},
		{"zero later in list", "divide", domain.Data{"numbers": []any{10.0, 2.0, 0.0}}, domain.CodeDivisionByZero},
		{"negative root", "square_root", domain.Data{"number": -4.0}, domain.CodeInvalidDomain},
		{"overflow", "power", domain.Data{"base": 10.0, "exponent": 400.0}, domain.CodeInvalidDomain},
		{"subtract empty", "subtract", domain.Data{"numbers": []any{}}, domain.CodeInvalidInput},
		{"divide empty", "divide", domain.Data{"numbers": []any{}}, domain.CodeInvalidInput},
		{"missing numbers", "add", domain.Data{}, domain.CodeInvalidInput},
		{"non numeric", "add", domain.Data{"numbers": []any{1.0, "two"}}, domain.CodeInvalidInput},
		{"missing exponent", "power", domain.Data{"base": 2.0}, domain.CodeInvalidInput},
		{"unknown", "modulo", domain.Data{}, domain.CodeUnknownOperation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := svc.Evaluate(context.Background(), tt.operation, tt.data)

			assert.False(t, res.Success)
			assert.Equal(t, tt.wantCode, res.ErrorCode)
			assert.NotEmpty(t, res.Error)
			assert.Nil(t, res.Result)
		})
	}
}

func TestArithmeticService_Divide_ChecksDivisorsFirst(t *testing.T) {
	svc := NewArithmeticService()

	_, err := svc.Divide([]float64{0, 5})
	assert.NoError(t, err, "a zero dividend is allowed")

	_, err = svc.Divide([]float64{5, 1, 0})
	assert.ErrorIs(t, err, domain.ErrDivisionByZero)
}

func TestArithmeticService_KindAndOperations(t *testing.T) {
	svc := NewArithmeticService()

	assert.Equal(t, domain.AgentCalculator, svc.Kind())
	assert.Contains(t, svc.Operations(), "square_root")
	assert.Len(t, svc.Operations(), 7)
}

func TestArithmeticService_Properties(t *testing.T) {
	svc := NewArithmeticService()
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)

	small := gen.Float64Range(-1e6, 1e6)

	properties.Property("add is order independent", prop.ForAll(
		func(a, b, c float64) bool {
			return math.Abs(svc.Add([]float64{a, b, c})-svc.Add([]float64{c, a, b})) < 1e-6
		},
		small, small, small,
	))

	properties.Property("subtracting a number from itself is zero", prop.ForAll(
		func(a float64) bool {
			r, err := svc.Subtract([]float64{a, a})
			return err == nil && r == 0
		},
		small,
	))

	properties.Property("multiply then divide restores the value", prop.ForAll(
		func(a, b float64) bool {
			if b == 0 {
				return true
			}
			r, err := svc.Divide([]float64{svc.Multiply([]float64{a, b}), b})
			return err == nil && math.Abs(r-a) <= 1e-9*math.Max(1, math.Abs(a))
		},
		small, small,
	))

	properties.Property("square root of a square is the absolute value", prop.ForAll(
		func(a float64) bool {
			r, err := svc.SquareRoot(svc.Power(a, 2))
			return err == nil && math.Abs(r-math.Abs(a)) <= 1e-9*math.Max(1, math.Abs(a))
		},
		small,
	))

	properties.TestingRun(t)
}
