package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <message>",
	Short: "Show the category and fields extracted from a single message",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Classify(strings.Join(args, " "))
	},
}
