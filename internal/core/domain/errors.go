package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent computation and chaining failures.
// Each one maps to a stable code via ErrorCode.
var (
	// ErrInvalidInput indicates empty, missing or malformed input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDivisionByZero indicates a zero divisor after the first operand.
	ErrDivisionByZero = errors.New("division by zero not allowed")

	// ErrInvalidDomain indicates an argument outside the function's domain,
	// such as the square root of a negative number.
	ErrInvalidDomain = errors.New("argument outside function domain")

	// ErrUnknownOperation indicates an operation name the service does not serve.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrUnknownUnit indicates a unit missing from the conversion table.
	ErrUnknownUnit = errors.New("unknown unit")

	// ErrCategoryMismatch indicates a conversion between unit categories.
	ErrCategoryMismatch = errors.New("unit category mismatch")

	// Chaining Errors.

	// ErrDownstreamUnavailable indicates a network failure, timeout or
	// non-2xx status from a peer.
	ErrDownstreamUnavailable = errors.New("downstream unavailable")

	// ErrMalformedDownstreamResponse indicates a peer replied without an
	// extractable numeric result.
	ErrMalformedDownstreamResponse = errors.New("malformed downstream response")

	// ErrDownstreamFailed indicates a peer replied with success=false.
	ErrDownstreamFailed = errors.New("downstream operation failed")

	// ErrInvalidTarget indicates a proxy target outside the peer registry.
	ErrInvalidTarget = errors.New("invalid target")
)

// Error codes carried on the wire in the error_code field.
const (
	CodeInvalidInput                = "InvalidInput"
	CodeDivisionByZero              = "DivisionByZero"
	CodeInvalidDomain               = "InvalidDomain"
	CodeUnknownOperation            = "UnknownOperation"
	CodeUnknownUnit                 = "UnknownUnit"
	CodeCategoryMismatch            = "CategoryMismatch"
	CodeDownstreamUnavailable       = "DownstreamUnavailable"
	CodeMalformedDownstreamResponse = "MalformedDownstreamResponse"
	CodeDownstreamFailed            = "DownstreamFailed"
	CodeInvalidTarget               = "InvalidTarget"
	CodeInternal                    = "Internal"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrInvalidInput, CodeInvalidInput},
	{ErrDivisionByZero, CodeDivisionByZero},
	{ErrInvalidDomain, CodeInvalidDomain},
	{ErrUnknownOperation, CodeUnknownOperation},
	{ErrUnknownUnit, CodeUnknownUnit},
	{ErrCategoryMismatch, CodeCategoryMismatch},
	{ErrDownstreamUnavailable, CodeDownstreamUnavailable},
	{ErrMalformedDownstreamResponse, CodeMalformedDownstreamResponse},
	{ErrDownstreamFailed, CodeDownstreamFailed},
	{ErrInvalidTarget, CodeInvalidTarget},
}

// ErrorCode returns the stable code for err, or CodeInternal when err
// does not wrap a domain error. A nil error has no code.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeInternal
}

// IsDownstream reports whether err came from forwarding to a peer.
func IsDownstream(err error) bool {
	return errors.Is(err, ErrDownstreamUnavailable) ||
		errors.Is(err, ErrMalformedDownstreamResponse) ||
		errors.Is(err, ErrDownstreamFailed)
}

// HopError tags a chaining failure with the hop that caused it.
// Index counts forwarded hops starting at 1; the local computation is hop 0.
type HopError struct {
	Index int
	URL   string
	Agent string
	Err   error
}

func (e *HopError) Error() string {
	if e.Agent != "" {
		return fmt.Sprintf("hop %d (%s at %s): %v", e.Index, e.Agent, e.URL, e.Err)
	}
	return fmt.Sprintf("hop %d (%s): %v", e.Index, e.URL, e.Err)
}

func (e *HopError) Unwrap() error {
	return e.Err
}
