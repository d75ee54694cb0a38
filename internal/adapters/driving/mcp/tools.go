package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/calcmesh/internal/core/domain"
	"github.com/custodia-labs/calcmesh/internal/core/ports/driving"
)

// CalculateInput is the input schema for the calculate tool.
type CalculateInput struct {
	Operation  string    `json:"operation" jsonschema:"add, subtract, multiply, divide, power, square_root or percentage"`
	Numbers    []float64 `json:"numbers,omitempty" jsonschema:"operands of add, subtract, multiply and divide"`
	Base       *float64  `json:"base,omitempty" jsonschema:"base of power"`
	Exponent   *float64  `json:"exponent,omitempty" jsonschema:"exponent of power"`
	Number     *float64  `json:"number,omitempty" jsonschema:"argument of square_root"`
	Value      *float64  `json:"value,omitempty" jsonschema:"value of percentage"`
	Percentage *float64  `json:"percentage,omitempty" jsonschema:"percentage to take of value"`
}

// ConvertInput is the input schema for the convert_units tool.
type ConvertInput struct {
	Value    float64 `json:"value" jsonschema:"the quantity to convert"`
	FromUnit string  `json:"from_unit" jsonschema:"unit of value, see list_units"`
	ToUnit   string  `json:"to_unit" jsonschema:"unit to convert to, same category as from_unit"`
}

// StatisticsInput is the input schema for the statistics tool.
type StatisticsInput struct {
	Operation string    `json:"operation" jsonschema:"mean, median, mode, standard_deviation, range or summary"`
	Numbers   []float64 `json:"numbers" jsonschema:"the data set"`
}

// ResultOutput is the output schema of every computing tool.
type ResultOutput struct {
	Success   bool           `json:"success"`
	Operation string         `json:"operation,omitempty"`
	Result    any            `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
	ErrorCode string         `json:"error_code,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// ListUnitsInput is the (empty) input schema for the list_units tool.
type ListUnitsInput struct{}

// ListUnitsOutput is the output schema for the list_units tool.
type ListUnitsOutput struct {
	Categories map[string][]string `json:"categories"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "calculate",
		Description: "Run an arithmetic operation",
	}, s.handleCalculate)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "convert_units",
		Description: "Convert a value between units of length, weight, volume or temperature",
	}, s.handleConvert)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "statistics",
		Description: "Compute a descriptive statistic over a list of numbers",
	}, s.handleStatistics)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_units",
		Description: "List the convertible units by category",
	}, s.handleListUnits)
}

func (s *Server) handleCalculate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CalculateInput,
) (*mcp.CallToolResult, ResultOutput, error) {
	data := domain.Data{}
	if input.Numbers != nil {
		data["numbers"] = input.Numbers
	}
	setOptional(data, "base", input.Base)
	setOptional(data, "exponent", input.Exponent)
	setOptional(data, "number", input.Number)
	setOptional(data, "value", input.Value)
	setOptional(data, "percentage", input.Percentage)

	return evaluate(ctx, s.ports.Calculator, input.Operation, data)
}

func (s *Server) handleConvert(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ConvertInput,
) (*mcp.CallToolResult, ResultOutput, error) {
	req := domain.ConversionRequest{Value: input.Value, FromUnit: input.FromUnit, ToUnit: input.ToUnit}
	return evaluate(ctx, s.ports.Converter, "convert", req.Data())
}

func (s *Server) handleStatistics(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input StatisticsInput,
) (*mcp.CallToolResult, ResultOutput, error) {
	return evaluate(ctx, s.ports.Statistics, input.Operation, domain.Data{"numbers": input.Numbers})
}

func (s *Server) handleListUnits(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListUnitsInput,
) (*mcp.CallToolResult, ListUnitsOutput, error) {
	return nil, ListUnitsOutput{Categories: s.ports.Units.AvailableUnits()}, nil
}

// evaluate runs one operation. A failed result is returned as a tool error
// so the client sees it flagged.
func evaluate(
	ctx context.Context,
	ev driving.Evaluator,
	operation string,
	data domain.Data,
) (*mcp.CallToolResult, ResultOutput, error) {
	res := ev.Evaluate(ctx, operation, data)
	out := ResultOutput{
		Success:   res.Success,
		Operation: res.Operation,
		Result:    res.Result,
		Error:     res.Error,
		ErrorCode: res.ErrorCode,
		Details:   res.Extras,
	}
	if !res.Success {
		return nil, out, fmt.Errorf("%s: %s", res.ErrorCode, res.Error)
	}
	return nil, out, nil
}

func setOptional(data domain.Data, key string, v *float64) {
	if v != nil {
		data[key] = *v
	}
}
