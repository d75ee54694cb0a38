package services

import (
	"context"
	"fmt"
	"slices"

	"github.com/custodia-labs/calcmesh/internal/core/domain"
	"github.com/custodia-labs/calcmesh/internal/core/ports/driving"
)

// Ensure StatisticsService implements the interface.
var _ driving.Evaluator = (*StatisticsService)(nil)

// StatisticsService is the statistics agent's domain core.
// Every formula is composed from ArithmeticService calls.
type StatisticsService struct {
	arith *ArithmeticService
}

// NewStatisticsService creates a new statistics service.
func NewStatisticsService(arith *ArithmeticService) *StatisticsService {
	if arith == nil {
		arith = NewArithmeticService()
	}
	return &StatisticsService{arith: arith}
}

// ModeResult holds the most frequent values of a list.
type ModeResult struct {
	// Modes are the tied values in first-appearance order.
	Modes     []float64
	Frequency int
	Table     map[float64]int
}

// Value returns the single mode, or every tied mode when there is more than one.
func (m ModeResult) Value() any {
	if len(m.Modes) == 1 {
		return m.Modes[0]
	}
	return m.Modes
}

// Deviation holds the population standard deviation and its inputs.
type Deviation struct {
	Value    float64
	Variance float64
	Mean     float64
}

// Summary bundles every statistic of a list.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Mode   any     `json:"mode"`
	// StandardDeviation is nil when fewer than two values were given.
	StandardDeviation *float64 `json:"standard_deviation"`
	Range             float64  `json:"range"`
	Minimum           float64  `json:"minimum"`
	Maximum           float64  `json:"maximum"`
}

func requireValues(xs []float64, min int) error {
	if len(xs) < min {
		if min == 1 {
			return fmt.Errorf("%w: no numbers provided", domain.ErrInvalidInput)
		}
		return fmt.Errorf("%w: need at least %d numbers", domain.ErrInvalidInput, min)
	}
	return nil
}

// Mean returns sum/count.
func (s *StatisticsService) Mean(xs []float64) (float64, error) {
	if err := requireValues(xs, 1); err != nil {
		return 0, err
	}
	sum := s.arith.Add(xs)
	if checkFinite(sum) != nil {
		return 0, fmt.Errorf("%w: sum of values overflows", domain.ErrInvalidDomain)
	}
	return s.arith.Divide([]float64{sum, float64(len(xs))})
}

// Median returns the middle of the sorted values, averaging the two
// middle values for an even count.
func (s *StatisticsService) Median(xs []float64) (float64, error) {
	if err := requireValues(xs, 1); err != nil {
		return 0, err
	}
	sorted := slices.Clone(xs)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid], nil
	}
	return s.Mean(sorted[mid-1 : mid+1])
}

// Mode counts values by exact equality.
func (s *StatisticsService) Mode(xs []float64) (ModeResult, error) {
	if err := requireValues(xs, 1); err != nil {
		return ModeResult{}, err
	}
	table := make(map[float64]int, len(xs))
	var order []float64
	for _, x := range xs {
		if _, seen := table[x]; !seen {
			order = append(order, x)
		}
		table[x]++
	}
	best := 0
	for _, n := range table {
		best = max(best, n)
	}
	res := ModeResult{Frequency: best, Table: table}
	for _, x := range order {
		if table[x] == best {
			res.Modes = append(res.Modes, x)
		}
	}
	return res, nil
}

// StandardDeviation returns the population standard deviation.
func (s *StatisticsService) StandardDeviation(xs []float64) (Deviation, error) {
	if err := requireValues(xs, 2); err != nil {
		return Deviation{}, err
	}
	mean, err := s.Mean(xs)
	if err != nil {
		return Deviation{}, err
	}
	squares := make([]float64, len(xs))
	for i, x := range xs {
		squares[i] = s.arith.Power(x-mean, 2)
	}
	variance, err := s.Mean(squares)
	if err != nil {
		return Deviation{}, err
	}
	sd, err := s.arith.SquareRoot(variance)
	if err != nil {
		return Deviation{}, err
	}
	return Deviation{Value: sd, Variance: variance, Mean: mean}, nil
}

// Range returns max-min along with both bounds.
func (s *StatisticsService) Range(xs []float64) (spread, lo, hi float64, err error) {
	if err = requireValues(xs, 1); err != nil {
		return 0, 0, 0, err
	}
	lo, hi = slices.Min(xs), slices.Max(xs)
	spread, err = s.arith.Subtract([]float64{hi, lo})
	if err == nil && checkFinite(spread) != nil {
		err = fmt.Errorf("%w: range of values overflows", domain.ErrInvalidDomain)
	}
	return spread, lo, hi, err
}

// Summary computes every statistic of xs.
func (s *StatisticsService) Summary(xs []float64) (Summary, error) {
	if err := requireValues(xs, 1); err != nil {
		return Summary{}, err
	}
	mean, err := s.Mean(xs)
	if err != nil {
		return Summary{}, err
	}
	median, err := s.Median(xs)
	if err != nil {
		return Summary{}, err
	}
	mode, err := s.Mode(xs)
	if err != nil {
		return Summary{}, err
	}
	spread, lo, hi, err := s.Range(xs)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{
		Count:   len(xs),
		Mean:    mean,
		Median:  median,
		Mode:    mode.Value(),
		Range:   spread,
		Minimum: lo,
		Maximum: hi,
	}
	if len(xs) >= 2 {
		dev, err := s.StandardDeviation(xs)
		if err != nil {
			return Summary{}, err
		}
		sum.StandardDeviation = &dev.Value
	}
	return sum, nil
}

// Kind returns the statistics agent kind.
func (s *StatisticsService) Kind() domain.AgentKind {
	return domain.AgentStatistics
}

// Operations lists the statistics operations.
func (s *StatisticsService) Operations() []string {
	return []string{"mean", "median", "mode", "standard_deviation", "range", "summary"}
}

// Evaluate dispatches operation over data["numbers"].
func (s *StatisticsService) Evaluate(_ context.Context, operation string, data domain.Data) domain.OperationResult {
	if !domain.IsListStatistic(operation) {
		return domain.Failed("", fmt.Errorf("%w: %q", domain.ErrUnknownOperation, operation))
	}
	xs, err := data.Numbers("numbers")
	if err != nil {
		return domain.Failed(operation, err)
	}
	return s.Compute(operation, xs)
}

// Compute runs a list statistic over xs.
func (s *StatisticsService) Compute(operation string, xs []float64) domain.OperationResult {
	switch operation {
	case "mean":
		mean, err := s.Mean(xs)
		if err != nil {
			return domain.Failed(operation, err)
		}
		return domain.Succeeded(operation, mean, map[string]any{"count": len(xs), "sum": s.arith.Add(xs)})
	case "median":
		median, err := s.Median(xs)
		if err != nil {
			return domain.Failed(operation, err)
		}
		sorted := slices.Clone(xs)
		slices.Sort(sorted)
		return domain.Succeeded(operation, median, map[string]any{"count": len(xs), "sorted_values": sorted})
	case "mode":
		mode, err := s.Mode(xs)
		if err != nil {
			return domain.Failed(operation, err)
		}
		table := make(map[string]int, len(mode.Table))
		for v, n := range mode.Table {
			table[formatNumber(v)] = n
		}
		return domain.Succeeded(operation, mode.Value(), map[string]any{
			"frequency":       mode.Frequency,
			"all_modes":       mode.Modes,
			"frequency_table": table,
		})
	case "standard_deviation":
		dev, err := s.StandardDeviation(xs)
		if err != nil {
			return domain.Failed(operation, err)
		}
		return domain.Succeeded(operation, dev.Value, map[string]any{
			"variance": dev.Variance,
			"mean":     dev.Mean,
			"count":    len(xs),
		})
	case "range":
		spread, lo, hi, err := s.Range(xs)
		if err != nil {
			return domain.Failed(operation, err)
		}
		return domain.Succeeded(operation, spread, map[string]any{"maximum": hi, "minimum": lo})
	case "summary":
		sum, err := s.Summary(xs)
		if err != nil {
			return domain.Failed("summary_statistics", err)
		}
		return domain.Succeeded("summary_statistics", sum, map[string]any{"input_data": xs})
	default:
		return domain.Failed("", fmt.Errorf("%w: %q", domain.ErrUnknownOperation, operation))
	}
}

// SampleData returns the built-in sample lists served at /api/sample-data.
func SampleData() map[string][]float64 {
	return map[string][]float64{
		"sample1": {10, 15, 20, 25, 30, 25, 15},
		"sample2": {1, 2, 3, 4, 5},
		"sample3": {100, 200, 300, 400, 500},
		"sample4": {5, 5, 5, 5, 5},
		"sample5": {1, 2, 2, 3, 3, 3, 4, 4, 5},
	}
}
