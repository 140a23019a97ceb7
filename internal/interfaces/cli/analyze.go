package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		force bool
		async bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <supplier-id> [supplier-id...]",
		Short: "Run supplier evaluations",
		Long:  "Evaluate one or more suppliers against the external registries and the\nsix-criterion scoring model.  With more than one supplier the analyses are\nqueued as a batch.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := cliCtx.commandContext(cmd)
			defer cancel()

			if len(args) > 1 {
				statuses, err := cliCtx.client.AnalyzeBatch(ctx, args)
				if err != nil {
					return err
				}
				return printResult(cmd, cliCtx, statuses, func() ([]string, [][]string) {
					rows := make([][]string, len(statuses))
					for i, s := range statuses {
						rows[i] = []string{s.SupplierID, s.Status, s.Error}
					}
					return []string{"SUPPLIER", "STATUS", "ERROR"}, rows
				})
			}

			result, err := cliCtx.client.Analyze(ctx, args[0], force, async)
			if err != nil {
				return err
			}
			return printResult(cmd, cliCtx, result, func() ([]string, [][]string) {
				return []string{"SUPPLIER", "STATUS", "COMPOSITE", "RECOMMENDATION", "CONFIDENCE"},
					[][]string{{
						result.SupplierID,
						result.Status,
						formatScore(result.CompositeScore),
						result.Recommendation,
						fmt.Sprintf("%.2f", result.Confidence),
					}}
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "re-analyze even if an evaluation already exists")
	cmd.Flags().BoolVar(&async, "async", false, "queue the analysis instead of waiting for it")

	return cmd
}
