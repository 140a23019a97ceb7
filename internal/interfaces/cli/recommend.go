package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

func newRecommendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Manage prequalification recommendations",
	}

	cmd.AddCommand(
		newRecommendCreateCmd(),
		newRecommendReviewCmd(),
		newRecommendPendingCmd(),
	)

	return cmd
}

func newRecommendCreateCmd() *cobra.Command {
	var (
		actor         string
		recType       string
		justification string
	)

	cmd := &cobra.Command{
		Use:   "create <supplier-id>",
		Short: "Open a recommendation for a supplier's evaluation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := cliCtx.commandContext(cmd)
			defer cancel()

			rec, err := cliCtx.client.CreateRecommendation(ctx, args[0], actor, recType, justification)
			if err != nil {
				return err
			}
			return printResult(cmd, cliCtx, rec, func() ([]string, [][]string) {
				return []string{"ID", "SUPPLIER", "TYPE", "PRIORITY", "STATUS"},
					[][]string{{rec.ID, rec.SupplierID, rec.Type, rec.Priority, rec.Status}}
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&actor, "actor", "", "who is opening the recommendation (required)")
	f.StringVar(&recType, "type", "", "recommendation type: prequalification, audit, rejection (required)")
	f.StringVar(&justification, "justification", "", "free-text justification")
	_ = cmd.MarkFlagRequired("actor")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func newRecommendReviewCmd() *cobra.Command {
	var (
		decision string
		reviewer string
		notes    string
	)

	cmd := &cobra.Command{
		Use:   "review <recommendation-id>",
		Short: "Apply a decision to a pending recommendation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := cliCtx.commandContext(cmd)
			defer cancel()

			rec, err := cliCtx.client.ReviewRecommendation(ctx, args[0], decision, reviewer, notes)
			if err != nil {
				return err
			}
			return printResult(cmd, cliCtx, rec, func() ([]string, [][]string) {
				return []string{"ID", "SUPPLIER", "STATUS", "REVIEWED_BY"},
					[][]string{{rec.ID, rec.SupplierID, rec.Status, rec.ReviewedBy}}
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&decision, "decision", "", "decision: approve, reject, under_review (required)")
	f.StringVar(&reviewer, "reviewer", "", "who is reviewing (required)")
	f.StringVar(&notes, "notes", "", "review notes")
	_ = cmd.MarkFlagRequired("decision")
	_ = cmd.MarkFlagRequired("reviewer")

	return cmd
}

func newRecommendPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List the recommendation review queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := cliCtx.commandContext(cmd)
			defer cancel()

			pending, err := cliCtx.client.PendingRecommendations(ctx)
			if err != nil {
				return err
			}
			return printResult(cmd, cliCtx, pending, func() ([]string, [][]string) {
				rows := make([][]string, len(pending))
				for i, rec := range pending {
					rows[i] = []string{rec.ID, rec.SupplierID, rec.Type, rec.Priority, rec.RecommendedBy}
				}
				return []string{"ID", "SUPPLIER", "TYPE", "PRIORITY", "RECOMMENDED_BY"}, rows
			})
		},
	}
}
