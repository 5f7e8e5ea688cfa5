package cli

import (
	"github.com/spf13/cobra"

	"github.com/WagnerMushayija/momo-summative/internal/app"
)

var (
	summaryWorkers int
	summaryPNGPath string
	summaryCSVPath string
	summaryMonthly bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary <backup.xml|gs://bucket/object>",
	Short: "Print per-category statistics, optionally as CSV and/or PNG chart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.SummaryOptions{
			Source:  args[0],
			Workers: summaryWorkers,
			PNGPath: summaryPNGPath,
			CSVPath: summaryCSVPath,
			Monthly: summaryMonthly,
		}
		return getApp().Summary(cmd.Context(), opts)
	},
}

func init() {
	summaryCmd.Flags().IntVar(&summaryWorkers, "workers", 0, "Worker count (defaults to config)")
	summaryCmd.Flags().StringVar(&summaryPNGPath, "png", "", "Path to write a PNG bar chart of category totals")
	summaryCmd.Flags().StringVar(&summaryCSVPath, "csv", "", "Path to write CSV statistics")
	summaryCmd.Flags().BoolVar(&summaryMonthly, "monthly", false, "Also print monthly totals")
}
