package services

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/custodia-labs/calcmesh/internal/core/domain"
	"github.com/custodia-labs/calcmesh/internal/core/ports/driving"
)

// Ensure ArithmeticService implements the interface.
var _ driving.Evaluator = (*ArithmeticService)(nil)

// ArithmeticService is the calculator's domain core.
type ArithmeticService struct{}

// NewArithmeticService creates a new arithmetic service.
func NewArithmeticService() *ArithmeticService {
	return &ArithmeticService{}
}

// Add returns the sum of numbers. An empty list sums to 0.
func (s *ArithmeticService) Add(numbers []float64) float64 {
	sum := 0.0
	for _, n := range numbers {
		sum += n
	}
	return sum
}

// Subtract folds subtraction left to right.
func (s *ArithmeticService) Subtract(numbers []float64) (float64, error) {
	if len(numbers) == 0 {
		return 0, fmt.Errorf("%w: subtract needs at least one number", domain.ErrInvalidInput)
	}
	result := numbers[0]
	for _, n := range numbers[1:] {
		result -= n
	}
	return result, nil
}

// Multiply returns the product of numbers. An empty list multiplies to 1.
func (s *ArithmeticService) Multiply(numbers []float64) float64 {
	product := 1.0
	for _, n := range numbers {
		product *= n
	}
	return product
}

// Divide folds division left to right. Every divisor after the first
// element is checked before anything is computed.
func (s *ArithmeticService) Divide(numbers []float64) (float64, error) {
	if len(numbers) == 0 {
		return 0, fmt.Errorf("%w: divide needs at least one number", domain.ErrInvalidInput)
	}
	for _, n := range numbers[1:] {
		if n == 0 {
			return 0, domain.ErrDivisionByZero
		}
	}
	result := numbers[0]
	for _, n := range numbers[1:] {
		result /= n
	}
	return result, nil
}

// Power returns base raised to exponent.
func (s *ArithmeticService) Power(base, exponent float64) float64 {
	return math.Pow(base, exponent)
}

// SquareRoot returns the square root of n.
func (s *ArithmeticService) SquareRoot(n float64) (float64, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: cannot calculate square root of negative number", domain.ErrInvalidDomain)
	}
	return math.Sqrt(n), nil
}

// Percentage returns pct percent of value.
func (s *ArithmeticService) Percentage(value, pct float64) float64 {
	return value * pct / 100
}

// Kind returns the calculator agent kind.
func (s *ArithmeticService) Kind() domain.AgentKind {
	return domain.AgentCalculator
}

// Operations lists the arithmetic operations.
func (s *ArithmeticService) Operations() []string {
	return []string{"add", "subtract", "multiply", "divide", "power", "square_root", "percentage"}
}

// Evaluate dispatches operation over data.
func (s *ArithmeticService) Evaluate(_ context.Context, operation string, data domain.Data) domain.OperationResult {
	label, result, err := s.evaluate(operation, data)
	if err == nil {
		err = checkFinite(result)
	}
	if err != nil {
		return domain.Failed(label, err)
	}
	return domain.Succeeded(label, result, nil)
}

func (s *ArithmeticService) evaluate(operation string, data domain.Data) (string, float64, error) {
	switch operation {
	case "add", "subtract", "multiply", "divide":
		numbers, err := data.Numbers("numbers")
		if err != nil {
			return "", 0, err
		}
		switch operation {
		case "add":
			return "addition", s.Add(numbers), nil
		case "subtract":
			r, err := s.Subtract(numbers)
			return "subtraction", r, err
		case "multiply":
			return "multiplication", s.Multiply(numbers), nil
		default:
			r, err := s.Divide(numbers)
			return "division", r, err
		}
	case "power":
		base, err := data.Number("base")
		if err != nil {
			return "", 0, err
		}
		exponent, err := data.Number("exponent")
		if err != nil {
			return "", 0, err
		}
		return fmt.Sprintf("power (%s^%s)", formatNumber(base), formatNumber(exponent)), s.Power(base, exponent), nil
	case "square_root":
		n, err := data.Number("number")
		if err != nil {
			return "", 0, err
		}
		r, err := s.SquareRoot(n)
		return "square_root of " + formatNumber(n), r, err
	case "percentage":
		value, err := data.Number("value")
		if err != nil {
			return "", 0, err
		}
		pct, err := data.Number("percentage")
		if err != nil {
			return "", 0, err
		}
		return fmt.Sprintf("%s%% of %s", formatNumber(pct), formatNumber(value)), s.Percentage(value, pct), nil
	default:
		return "", 0, fmt.Errorf("%w: %q", domain.ErrUnknownOperation, operation)
	}
}

// checkFinite rejects results that cannot be carried as JSON numbers.
func checkFinite(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: result is not a finite number", domain.ErrInvalidDomain)
	}
	return nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
