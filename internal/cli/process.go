package cli

import (
	"github.com/spf13/cobra"

	"github.com/WagnerMushayija/momo-summative/internal/app"
)

var (
	processWorkers int
	processNoStore bool
)

var processCmd = &cobra.Command{
	Use:   "process <backup.xml|gs://bucket/object>",
	Short: "Classify a backup and write one JSON document per category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ProcessOptions{
			Source:  args[0],
			Workers: processWorkers,
			NoStore: processNoStore,
		}
		return getApp().Process(cmd.Context(), opts)
	},
}

func init() {
	processCmd.Flags().IntVar(&processWorkers, "workers", 0, "Worker count (defaults to config)")
	processCmd.Flags().BoolVar(&processNoStore, "no-store", false, "Skip the transaction store even when configured")
}
