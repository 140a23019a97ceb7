package cli

import (
	"github.com/spf13/cobra"

	"github.com/turtacn/VendorIQ-Intelligence/pkg/client"
)

func newSearchCmd() *cobra.Command {
	var (
		relationType   string
		recommendation string
		state          string
		country        string
		minComposite   float64
		limit          int
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search evaluated suppliers",
		Long:  "Search evaluations by company name and filters.  Results are grouped into\nexisting partners, newly prequalified candidates, and suppliers that need\nreview.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := cliCtx.commandContext(cmd)
			defer cancel()

			params := client.SearchParams{
				RelationType:   relationType,
				Recommendation: recommendation,
				State:          state,
				Country:        country,
				MinComposite:   minComposite,
				Limit:          limit,
			}
			if len(args) == 1 {
				params.Query = args[0]
			}

			result, err := cliCtx.client.Search(ctx, params)
			if err != nil {
				return err
			}

			return printResult(cmd, cliCtx, result, func() ([]string, [][]string) {
				headers := []string{"BUCKET", "SUPPLIER", "COMPANY", "COUNTRY", "COMPOSITE", "RECOMMENDATION", "STATE"}
				var rows [][]string
				appendBucket := func(bucket string, items []client.SearchItem) {
					for _, item := range items {
						rows = append(rows, []string{
							bucket,
							item.SupplierID,
							item.CompanyName,
							item.Country,
							formatScore(item.CompositeScore),
							item.Recommendation,
							item.State,
						})
					}
				}
				appendBucket("existing_partner", result.ExistingPartners)
				appendBucket("new_prequalified", result.NewPrequalified)
				appendBucket("needs_review", result.NeedsReview)
				return headers, rows
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&relationType, "relation", "", "filter by relation type (existing_partner, new, unknown)")
	f.StringVar(&recommendation, "recommendation", "", "filter by recommendation (prequalified, to_audit, high_risk)")
	f.StringVar(&state, "state", "", "filter by prequalification state")
	f.StringVar(&country, "country", "", "filter by country")
	f.Float64Var(&minComposite, "min-composite", 0, "minimum composite score")
	f.IntVar(&limit, "limit", 50, "maximum number of results")

	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := cliCtx.commandContext(cmd)
			defer cancel()

			stats, err := cliCtx.client.DashboardStats(ctx)
			if err != nil {
				return err
			}

			return printResult(cmd, cliCtx, stats, func() ([]string, [][]string) {
				rows := [][]string{
					{"total_suppliers", formatInt(stats.TotalSuppliers)},
					{"total_analyzed", formatInt(stats.TotalAnalyzed)},
					{"coverage_percent", formatScore(stats.CoveragePercent)},
					{"pending_recommendations", formatInt(stats.PendingRecommendations)},
				}
				for rec, count := range stats.ByRecommendation {
					rows = append(rows, []string{"recommendation:" + rec, formatInt(count)})
				}
				return []string{"METRIC", "VALUE"}, rows
			})
		},
	}
}
