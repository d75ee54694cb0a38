package domain

import (
	"fmt"
	"strings"
)

// ConversionRequest is the fixed payload of a direct conversion.
type ConversionRequest struct {
	Value    float64 `json:"value"`
	FromUnit string  `json:"from_unit"`
	ToUnit   string  `json:"to_unit"`
}

// Data returns the request as an operation payload.
func (r ConversionRequest) Data() Data {
	return Data{"value": r.Value, "from_unit": r.FromUnit, "to_unit": r.ToUnit}
}

// Unit field spellings. The first entry of each list is canonical.
var (
	fromUnitKeys = []string{"from_unit", "from", "fromUnit"}
	toUnitKeys   = []string{"to_unit", "to", "toUnit"}
)

// UnitPair reads the source and target unit names from d.
//
// With legacy set, the older spellings from/to and fromUnit/toUnit are
// accepted as well, but every spelling present must agree.
func UnitPair(d Data, legacy bool) (from, to string, err error) {
	if from, err = unitField(d, fromUnitKeys, legacy); err != nil {
		return "", "", err
	}
	if to, err = unitField(d, toUnitKeys, legacy); err != nil {
		return "", "", err
	}
	return from, to, nil
}

func unitField(d Data, keys []string, legacy bool) (string, error) {
	if !legacy {
		keys = keys[:1]
	}
	var found, foundKey string
	for _, k := range keys {
		v, ok := d[k]
		if !ok || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return "", fmt.Errorf("%w: field %q must be a unit name", ErrInvalidInput, k)
		}
		if found != "" && !strings.EqualFold(found, s) {
			return "", fmt.Errorf("%w: %q=%q conflicts with %q=%q", ErrInvalidInput, foundKey, found, k, s)
		}
		if found == "" {
			found, foundKey = s, k
		}
	}
	if found == "" {
		return "", fmt.Errorf("%w: missing field %q", ErrInvalidInput, keys[0])
	}
	return found, nil
}

// ParseConversion reads a full conversion request from d.
func ParseConversion(d Data, legacy bool) (ConversionRequest, error) {
	value, err := d.Number("value")
	if err != nil {
		return ConversionRequest{}, err
	}
	from, to, err := UnitPair(d, legacy)
	if err != nil {
		return ConversionRequest{}, err
	}
	return ConversionRequest{Value: value, FromUnit: from, ToUnit: to}, nil
}
