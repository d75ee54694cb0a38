package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/calcmesh/internal/core/domain"
	"github.com/custodia-labs/calcmesh/internal/core/ports/driven"
	"github.com/custodia-labs/calcmesh/internal/core/ports/driving"
)

// Ensure ConversionService implements the interface.
var _ driving.Evaluator = (*ConversionService)(nil)

const categoryTemperature = "temperature"

type unitFactor struct {
	name   string
	factor float64
}

// unitTable maps categories to units and their factor to the category base.
// Temperature units carry no factor.
var unitTable = []struct {
	category string
	units    []unitFactor
}{
	{"length", []unitFactor{
		{"meter", 1}, {"feet", 0.3048}, {"inch", 0.0254}, {"centimeter", 0.01},
		{"kilometer", 1000}, {"yard", 0.9144}, {"mile", 1609.34},
	}},
	{"weight", []unitFactor{
		{"kilogram", 1}, {"pound", 0.453592}, {"gram", 0.001}, {"ounce", 0.0283495}, {"ton", 1000},
	}},
	{"volume", []unitFactor{
		{"liter", 1}, {"gallon", 3.78541}, {"milliliter", 0.001}, {"cup", 0.236588}, {"pint", 0.473176},
	}},
	{categoryTemperature, []unitFactor{
		{"celsius", 0}, {"fahrenheit", 0}, {"kelvin", 0},
	}},
}

// ConversionService is the unit converter's domain core.
type ConversionService struct {
	backend       driven.ArithmeticBackend
	legacyAliases bool
}

// NewConversionService creates a new conversion service. A nil backend
// computes the linear math locally.
func NewConversionService(backend driven.ArithmeticBackend, legacyAliases bool) *ConversionService {
	if backend == nil {
		backend = NewLocalArithmeticBackend(nil)
	}
	return &ConversionService{backend: backend, legacyAliases: legacyAliases}
}

// LegacyAliases reports whether the older unit field spellings are accepted.
func (s *ConversionService) LegacyAliases() bool {
	return s.legacyAliases
}

func lookupUnit(unit string) (category string, factor float64, ok bool) {
	name := strings.ToLower(strings.TrimSpace(unit))
	for _, c := range unitTable {
		for _, u := range c.units {
			if u.name == name {
				return c.category, u.factor, true
			}
		}
	}
	return "", 0, false
}

// Category returns the category of unit.
func (s *ConversionService) Category(unit string) (string, bool) {
	category, _, ok := lookupUnit(unit)
	return category, ok
}

// AvailableUnits lists the units of every category in table order.
func (s *ConversionService) AvailableUnits() map[string][]string {
	out := make(map[string][]string, len(unitTable))
	for _, c := range unitTable {
		names := make([]string, len(c.units))
		for i, u := range c.units {
			names[i] = u.name
		}
		out[c.category] = names
	}
	return out
}

// Convert converts value from one unit to another.
func (s *ConversionService) Convert(ctx context.Context, value float64, from, to string) (float64, error) {
	fromCategory, fromFactor, ok := lookupUnit(from)
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrUnknownUnit, from)
	}
	toCategory, toFactor, ok := lookupUnit(to)
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrUnknownUnit, to)
	}
	if fromCategory != toCategory {
		return 0, fmt.Errorf("%w: cannot convert between %s and %s", domain.ErrCategoryMismatch, fromCategory, toCategory)
	}
	if fromCategory == categoryTemperature {
		return convertTemperature(value, strings.ToLower(from), strings.ToLower(to)), nil
	}
	base, err := s.backend.Multiply(ctx, value, fromFactor)
	if err != nil {
		return 0, fmt.Errorf("to base unit: %w", err)
	}
	result, err := s.backend.Divide(ctx, base, toFactor)
	if err != nil {
		return 0, fmt.Errorf("from base unit: %w", err)
	}
	return result, nil
}

func convertTemperature(value float64, from, to string) float64 {
	celsius := value
	switch strings.TrimSpace(from) {
	case "fahrenheit":
		celsius = (value - 32) * 5 / 9
	case "kelvin":
		celsius = value - 273.15
	}
	switch strings.TrimSpace(to) {
	case "fahrenheit":
		return celsius*9/5 + 32
	case "kelvin":
		return celsius + 273.15
	default:
		return celsius
	}
}

// Kind returns the unit converter agent kind.
func (s *ConversionService) Kind() domain.AgentKind {
	return domain.AgentUnitConverter
}

// Operations lists the conversion operations.
func (s *ConversionService) Operations() []string {
	return []string{"convert"}
}

// Evaluate runs a conversion described by data.
func (s *ConversionService) Evaluate(ctx context.Context, operation string, data domain.Data) domain.OperationResult {
	if operation != "convert" {
		return domain.Failed("", fmt.Errorf("%w: %q", domain.ErrUnknownOperation, operation))
	}
	req, err := domain.ParseConversion(data, s.legacyAliases)
	if err != nil {
		return domain.Failed(operation, err)
	}
	return s.ConvertRequest(ctx, req)
}

// ConvertRequest runs req and reports it as an operation result.
func (s *ConversionService) ConvertRequest(ctx context.Context, req domain.ConversionRequest) domain.OperationResult {
	label := req.FromUnit + "_to_" + req.ToUnit
	if category, ok := s.Category(req.FromUnit); ok && category == categoryTemperature {
		label = "temperature_conversion"
	}
	result, err := s.Convert(ctx, req.Value, req.FromUnit, req.ToUnit)
	if err == nil {
		err = checkFinite(result)
	}
	if err != nil {
		return domain.Failed(label, err)
	}
	return domain.Succeeded(label, result, map[string]any{
		"from_value": req.Value,
		"from_unit":  req.FromUnit,
		"to_unit":    req.ToUnit,
	})
}
