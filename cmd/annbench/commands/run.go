package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"annbench/client-sdk/Go/client"
	"annbench/internal/bench"

	"github.com/spf13/cobra"
)

var (
	remoteURL  string
	outputJSON bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the configured benchmark sweep",
	Long: `Generate the configured dataset, then for every run build the index once
and measure recall, throughput and memory at each query argument.

With --remote the indexes are built on a server started with 'annbench serve'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := globalConfig

		factory := bench.Factory(bench.Local)
		if remoteURL != "" {
			factory = client.Remote(remoteURL)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		results, err := bench.RunAll(ctx, cfg, factory)
		if len(results) > 0 {
			if werr := printResults(cmd.OutOrStdout(), results); werr != nil {
				return werr
			}
		}
		return err
	},
}

func init() {
	runCmd.Flags().StringVar(&remoteURL, "remote", "", "base URL of an annbench server to benchmark")
	runCmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON (for piping)")
}

func printResults(w io.Writer, results []bench.Result) error {
	if outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tEF\tBUILD\tQPS\tRECALL\tBATCH RECALL\tMEMORY (KiB)")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%.1f\t%.4f\t%.4f\t%.1f\n",
			r.Name, r.Ef, r.BuildTime.Round(time.Millisecond), r.QPS, r.Recall, r.BatchRecall, r.MemoryKiB)
	}
	return tw.Flush()
}
