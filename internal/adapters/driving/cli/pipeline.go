package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/calcmesh/internal/core/domain"
)

var (
	pipelineNumbers   []float64
	pipelineOperation string
	pipelineFromUnit  string
	pipelineToUnit    string
	pipelineStatsOp   string
	pipelineStatsList []float64
	pipelineBaseURL   string
	pipelineJSON      bool
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run calculator, unit converter and statistics as one chain",
	Long: `Send one envelope to the calculator that computes locally, converts
the result with the unit converter and feeds it to the statistics service.

Example:
  calcmesh pipeline --numbers 1,2,3 --from-unit meter --to-unit feet \
    --stats-op mean --stats-list 10,20`,
	RunE: runPipeline,
}

func init() {
	f := pipelineCmd.Flags()
	f.Float64SliceVar(&pipelineNumbers, "numbers", []float64{10, 20, 30}, "calculator operands")
	f.StringVar(&pipelineOperation, "operation", "add", "calculator operation over --numbers")
	f.StringVar(&pipelineFromUnit, "from-unit", "meter", "unit of the calculator result")
	f.StringVar(&pipelineToUnit, "to-unit", "feet", "unit to convert to")
	f.StringVar(&pipelineStatsOp, "stats-op", "mean", "statistic over the converted value and --stats-list")
	f.Float64SliceVar(&pipelineStatsList, "stats-list", nil, "extra values for the statistic")
	f.StringVar(&pipelineBaseURL, "base-url", "", "calculator URL (default peers.calculator_url)")
	f.BoolVar(&pipelineJSON, "json", false, "print the raw chain response")
	rootCmd.AddCommand(pipelineCmd)
}

// pipelineEnvelope builds calculator -> unit converter -> statistics.
// The converted value is prepended to the statistics numbers by the chain.
func pipelineEnvelope() domain.Envelope {
	statsData := domain.Data{"numbers": append([]float64{}, pipelineStatsList...)}
	next := &domain.NextHop{
		Target: string(domain.AgentUnitConverter),
		Handoff: domain.Data{
			"from_unit": pipelineFromUnit,
			"to_unit":   pipelineToUnit,
		},
		Next: &domain.NextHop{
			Target: string(domain.AgentStatistics),
			Handoff: domain.Data{
				"operation": pipelineStatsOp,
				"data":      statsData,
			},
		},
	}
	return newEnvelope(pipelineOperation, domain.Data{"numbers": pipelineNumbers}, next)
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	base := pipelineBaseURL
	if base == "" {
		var err error
		if base, err = calculatorURL(); err != nil {
			return err
		}
	}

	env := pipelineEnvelope()
	resp, err := sendEnvelope(cmd.Context(), newPeerClient(), base, env)
	if pipelineJSON && (err == nil || resp.Agent != "") {
		if perr := printJSON(cmd.OutOrStdout(), resp); perr != nil {
			return perr
		}
		return err
	}
	if err != nil && resp.Agent == "" {
		return err
	}

	cmd.Printf("Pipeline %s\n\n", env.CorrelationID)
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tAGENT\tOPERATION\tRESULT")
	for i, step := range resp.Steps {
		fmt.Fprintf(w, "%d\t%s\t%s\t%v\n", i+1, step.Agent, step.Operation, step.Result)
	}
	_ = w.Flush()
	cmd.Println()

	if resp.FailedHop != nil {
		cmd.Printf("Failed at hop %d (%s): %s\n", resp.FailedHop.Index, resp.FailedHop.URL, resp.Response.Error)
		return err
	}
	if !resp.Response.Success {
		cmd.Printf("Failed: %s\n", resp.Response.Error)
		return nil
	}
	cmd.Printf("Final: %v\n", resp.Final)
	cmd.Printf("Trace: %v\n", resp.Trace)
	return nil
}
