package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/calcmesh/internal/core/domain"
	"github.com/custodia-labs/calcmesh/internal/core/ports/driven"
)

var (
	calcOperation  string
	calcNumbers    []float64
	calcNumber     float64
	calcBase       float64
	calcExponent   float64
	calcValue      float64
	calcPercentage float64
	calcBaseURL    string
	calcJSON       bool
)

// isTerminal reports whether stdin is interactive.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Send a calculation to the calculator service",
	Long: `Send one operation to the calculator's /message endpoint and print
the result.

Operations:
  add, subtract, multiply, divide   --numbers 1,2,3
  power                             --base 2 --exponent 8
  square_root                       --number 16
  percentage                        --value 200 --percentage 15

Without --operation on a terminal, calc starts an interactive prompt that
reads lines such as "add 1 2 3" or "power 2 8".`,
	RunE: runCalc,
}

func init() {
	f := calcCmd.Flags()
	f.StringVarP(&calcOperation, "operation", "o", "", "operation to run")
	f.Float64SliceVar(&calcNumbers, "numbers", nil, "operands, comma separated")
	f.Float64Var(&calcNumber, "number", 0, "argument of square_root")
	f.Float64Var(&calcBase, "base", 0, "base of power")
	f.Float64Var(&calcExponent, "exponent", 0, "exponent of power")
	f.Float64Var(&calcValue, "value", 0, "value of percentage")
	f.Float64Var(&calcPercentage, "percentage", 0, "percentage to take")
	f.StringVar(&calcBaseURL, "base-url", "", "calculator URL (default peers.calculator_url)")
	f.BoolVar(&calcJSON, "json", false, "print the raw response")
	rootCmd.AddCommand(calcCmd)
}

func runCalc(cmd *cobra.Command, _ []string) error {
	base, err := calculatorURL()
	if err != nil {
		return err
	}
	client := newPeerClient()

	if calcOperation == "" {
		if !isTerminal() {
			return errors.New("--operation is required when stdin is not a terminal")
		}
		return calcPrompt(cmd, client, base, cmd.InOrStdin())
	}

	data, err := calcData(cmd, calcOperation)
	if err != nil {
		return err
	}
	resp, err := sendEnvelope(cmd.Context(), client, base, newEnvelope(calcOperation, data, nil))
	if err != nil {
		return err
	}
	if calcJSON {
		return printJSON(cmd.OutOrStdout(), resp)
	}
	return printResult(cmd, resp.Response)
}

func calculatorURL() (string, error) {
	if calcBaseURL != "" {
		return strings.TrimRight(calcBaseURL, "/"), nil
	}
	if settingsService == nil {
		return "", errors.New("settings service not configured")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return "", fmt.Errorf("failed to get settings: %w", err)
	}
	return settings.Peers.CalculatorURL, nil
}

// calcData builds the data of operation from the flags that were set.
func calcData(cmd *cobra.Command, operation string) (domain.Data, error) {
	flags := cmd.Flags()
	data := domain.Data{}
	switch operation {
	case "add", "subtract", "multiply", "divide":
		if len(calcNumbers) == 0 {
			return nil, fmt.Errorf("%s needs --numbers", operation)
		}
		data["numbers"] = calcNumbers
	case "power":
		if !flags.Changed("base") || !flags.Changed("exponent") {
			return nil, errors.New("power needs --base and --exponent")
		}
		data["base"], data["exponent"] = calcBase, calcExponent
	case "square_root":
		if !flags.Changed("number") {
			return nil, errors.New("square_root needs --number")
		}
		data["number"] = calcNumber
	case "percentage":
		if !flags.Changed("value") || !flags.Changed("percentage") {
			return nil, errors.New("percentage needs --value and --percentage")
		}
		data["value"], data["percentage"] = calcValue, calcPercentage
	default:
		return nil, fmt.Errorf("unknown operation %q", operation)
	}
	return data, nil
}

// parsePromptLine reads "op n1 n2 ..." into an operation and its data.
func parsePromptLine(line string) (string, domain.Data, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil, errors.New("empty input")
	}
	op := strings.ToLower(fields[0])
	args := make([]float64, 0, len(fields)-1)
	for _, f := range fields[1:] {
		n, err := strconv.ParseFloat(strings.TrimSuffix(f, ","), 64)
		if err != nil {
			return "", nil, fmt.Errorf("%q is not a number", f)
		}
		args = append(args, n)
	}

	need := func(n int) error {
		if len(args) != n {
			return fmt.Errorf("%s takes %d arguments", op, n)
		}
		return nil
	}
	switch op {
	case "add", "subtract", "multiply", "divide":
		if len(args) == 0 {
			return "", nil, fmt.Errorf("%s needs at least one number", op)
		}
		return op, domain.Data{"numbers": args}, nil
	case "power":
		if err := need(2); err != nil {
			return "", nil, err
		}
		return op, domain.Data{"base": args[0], "exponent": args[1]}, nil
	case "square_root", "sqrt":
		if err := need(1); err != nil {
			return "", nil, err
		}
		return "square_root", domain.Data{"number": args[0]}, nil
	case "percentage":
		if err := need(2); err != nil {
			return "", nil, err
		}
		return op, domain.Data{"value": args[0], "percentage": args[1]}, nil
	default:
		return "", nil, fmt.Errorf("unknown operation %q", op)
	}
}

func calcPrompt(cmd *cobra.Command, client driven.PeerClient, base string, in io.Reader) error {
	cmd.Printf("calcmesh calculator at %s\n", base)
	cmd.Println(`Enter "add 1 2 3", "power 2 8", "square_root 16", "percentage 200 15" or "quit".`)

	reader := bufio.NewReader(in)
	for {
		cmd.Print("> ")
		line, err := reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line == "quit" || line == "exit" || (line == "" && err != nil) {
			return nil
		}
		if line != "" {
			op, data, perr := parsePromptLine(line)
			if perr != nil {
				cmd.Printf("error: %v\n", perr)
			} else if resp, serr := sendEnvelope(cmd.Context(), client, base, newEnvelope(op, data, nil)); serr != nil {
				cmd.Printf("error: %v\n", serr)
			} else {
				_ = printResult(cmd, resp.Response)
			}
		}
		if err != nil {
			return nil
		}
	}
}

func newEnvelope(operation string, data domain.Data, next *domain.NextHop) domain.Envelope {
	return domain.Envelope{
		Sender:        "calcmesh-cli",
		CorrelationID: uuid.NewString(),
		Trace:         []string{},
		Message:       domain.Message{Operation: operation, Data: data},
		Next:          next,
	}
}

// sendEnvelope posts env to base's /message and decodes the chain response.
// Error statuses still carry a chain response, which is returned with the error.
func sendEnvelope(ctx context.Context, client driven.PeerClient, base string, env domain.Envelope) (domain.ChainResponse, error) {
	payload, err := json.Marshal(env)
	if err != nil {
		return domain.ChainResponse{}, err
	}
	reply, err := client.Relay(ctx, base+"/message", payload)
	if err != nil {
		return domain.ChainResponse{}, err
	}
	var resp domain.ChainResponse
	decodeErr := json.Unmarshal(reply.Body, &resp)
	if reply.StatusCode >= 400 {
		msg := resp.Response.Error
		if msg == "" {
			var e struct {
				Error string `json:"error"`
			}
			_ = json.Unmarshal(reply.Body, &e)
			msg = e.Error
		}
		return resp, fmt.Errorf("%s answered %d: %s", base, reply.StatusCode, msg)
	}
	if decodeErr != nil {
		return domain.ChainResponse{}, fmt.Errorf("%w: %v", domain.ErrMalformedDownstreamResponse, decodeErr)
	}
	return resp, nil
}

func printResult(cmd *cobra.Command, res domain.OperationResult) error {
	if !res.Success {
		cmd.Printf("failed: %s (%s)\n", res.Error, res.ErrorCode)
		return nil
	}
	cmd.Printf("%s = %v\n", res.Operation, res.Result)
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
