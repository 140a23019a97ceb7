// Package cli implements the vendoriq command line interface.  Commands talk
// to a running API server through the pkg/client SDK.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/VendorIQ-Intelligence/pkg/client"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// cliContextKey is the context key for cliContext.
type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ServerAddr   string
	APIKey       string
	OutputFormat string
	Timeout      time.Duration
}

// cliContext carries initialized dependencies through the command tree.
type cliContext struct {
	client       *client.Client
	outputFormat string
	timeout      time.Duration
}

// NewRootCommand creates the root cobra command with global flags and all
// subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "vendoriq",
		Short:   "VendorIQ-Intelligence CLI — supplier prequalification and evaluation",
		Long:    "VendorIQ-Intelligence evaluates pharmaceutical suppliers against external\nregistries, scores them across six weighted criteria, and manages the\nprequalification recommendation workflow.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.ServerAddr, "server", "http://localhost:8080", "API server address")
	pf.StringVar(&opts.APIKey, "api-key", "", "bearer token for the API server")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "table", "output format (table, json)")
	pf.DurationVar(&opts.Timeout, "timeout", 60*time.Second, "operation timeout")

	cmd.AddCommand(
		newAnalyzeCmd(),
		newSearchCmd(),
		newStatsCmd(),
		newRecommendCmd(),
	)

	return cmd
}

func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	clientOpts := []client.Option{client.WithTimeout(opts.Timeout)}
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, client.WithAPIKey(opts.APIKey))
	}
	apiClient, err := client.NewClient(opts.ServerAddr, clientOpts...)
	if err != nil {
		return fmt.Errorf("client initialization failed: %w", err)
	}

	cliCtx := &cliContext{
		client:       apiClient,
		outputFormat: strings.ToLower(opts.OutputFormat),
		timeout:      opts.Timeout,
	}
	cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cliCtx))
	return nil
}

func getCLIContext(cmd *cobra.Command) (*cliContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, fmt.Errorf("command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*cliContext)
	if !ok || cliCtx == nil {
		return nil, fmt.Errorf("CLI context not initialized")
	}
	return cliCtx, nil
}

// commandContext derives the request context with the configured timeout.
func (c *cliContext) commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), c.timeout)
}

// Execute is the main entry point for the CLI application.
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %s\n", err.Error())
		return err
	}
	return nil
}

// printResult outputs data as JSON or delegates to the table renderer.
func printResult(cmd *cobra.Command, cliCtx *cliContext, data interface{}, table func() ([]string, [][]string)) error {
	if cliCtx.outputFormat == "json" || table == nil {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	headers, rows := table()
	fmt.Fprint(cmd.OutOrStdout(), formatTable(headers, rows))
	return nil
}

// formatTable renders headers and rows as an aligned ASCII table.
func formatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	colWidths := make([]int, len(headers))
	for i, h := range headers {
		colWidths[i] = len(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(colWidths); i++ {
			if len(row[i]) > colWidths[i] {
				colWidths[i] = len(row[i])
			}
		}
	}

	var sb strings.Builder
	for i, h := range headers {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(padRight(h, colWidths[i]))
	}
	sb.WriteString("\n")
	for i, w := range colWidths {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(strings.Repeat("-", w))
	}
	sb.WriteString("\n")
	for _, row := range rows {
		for i := 0; i < len(headers); i++ {
			if i > 0 {
				sb.WriteString("  ")
			}
			val := ""
			if i < len(row) {
				val = row[i]
			}
			sb.WriteString(padRight(val, colWidths[i]))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func formatScore(v float64) string {
	return fmt.Sprintf("%.1f", v)
}
