package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// Data is the free-form operation payload carried in a message.
type Data map[string]any

// Has reports whether key is present.
func (d Data) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// Number returns the numeric value stored under key.
func (d Data) Number(key string) (float64, error) {
	v, ok := d[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("%w: missing field %q", ErrInvalidInput, key)
	}
	n, ok := AsNumber(v)
	if !ok {
		return 0, fmt.Errorf("%w: field %q is not a number", ErrInvalidInput, key)
	}
	return n, nil
}

// Numbers returns the numeric list stored under key.
func (d Data) Numbers(key string) ([]float64, error) {
	v, ok := d[key]
	if !ok || v == nil {
		return nil, fmt.Errorf("%w: missing field %q", ErrInvalidInput, key)
	}
	out, ok := AsNumbers(v)
	if !ok {
		return nil, fmt.Errorf("%w: field %q is not a list of numbers", ErrInvalidInput, key)
	}
	return out, nil
}

// String returns the string stored under key, if any.
func (d Data) String(key string) (string, bool) {
	s, ok := d[key].(string)
	return s, ok
}

// Clone returns a shallow copy. A nil Data clones to an empty one.
func (d Data) Clone() Data {
	out := make(Data, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// AsNumber converts a decoded JSON value (or a Go numeric) to float64.
func AsNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// AsNumbers converts a decoded JSON list to []float64.
func AsNumbers(v any) ([]float64, bool) {
	switch list := v.(type) {
	case []float64:
		return append([]float64(nil), list...), true
	case []int:
		out := make([]float64, len(list))
		for i, n := range list {
			out[i] = float64(n)
		}
		return out, true
	case []any:
		out := make([]float64, 0, len(list))
		for _, item := range list {
			n, ok := AsNumber(item)
			if !ok {
				return nil, false
			}
			out = append(out, n)
		}
		return out, true
	default:
		return nil, false
	}
}

// OperationResult is the outcome of one domain operation.
//
// Success=true implies Result is set and Error is empty; Success=false
// implies Error is set. Extras carries domain-specific fields that are
// flattened next to the core fields on the wire.
type OperationResult struct {
	Success   bool
	Result    any
	Operation string
	Error     string
	ErrorCode string
	Extras    map[string]any
}

// Succeeded builds a successful result.
func Succeeded(operation string, result any, extras map[string]any) OperationResult {
	return OperationResult{
		Success:   true,
		Result:    result,
		Operation: operation,
		Extras:    extras,
	}
}

// Failed builds a failed result from err.
func Failed(operation string, err error) OperationResult {
	return OperationResult{
		Success:   false,
		Operation: operation,
		Error:     err.Error(),
		ErrorCode: ErrorCode(err),
	}
}

// Numeric returns the result as a finite float64, if it is one.
func (r OperationResult) Numeric() (float64, bool) {
	if !r.Success {
		return 0, false
	}
	n, ok := AsNumber(r.Result)
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

var coreResultKeys = map[string]bool{
	"success":    true,
	"result":     true,
	"operation":  true,
	"error":      true,
	"error_code": true,
}

// MarshalJSON flattens Extras alongside the core fields.
func (r OperationResult) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Extras)+4)
	for k, v := range r.Extras {
		if !coreResultKeys[k] {
			out[k] = v
		}
	}
	out["success"] = r.Success
	if r.Operation != "" {
		out["operation"] = r.Operation
	}
	if r.Success {
		out["result"] = r.Result
	} else {
		out["error"] = r.Error
		if r.ErrorCode != "" {
			out["error_code"] = r.ErrorCode
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON collects unknown keys into Extras.
func (r *OperationResult) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = OperationResult{}
	if b, ok := raw["success"].(bool); ok {
		r.Success = b
	}
	r.Result = raw["result"]
	r.Operation, _ = raw["operation"].(string)
	r.Error, _ = raw["error"].(string)
	r.ErrorCode, _ = raw["error_code"].(string)
	for k, v := range raw {
		if coreResultKeys[k] {
			continue
		}
		if r.Extras == nil {
			r.Extras = make(map[string]any)
		}
		r.Extras[k] = v
	}
	return nil
}
