package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/WagnerMushayija/momo-summative/internal/classify"
	"github.com/WagnerMushayija/momo-summative/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), version.Describe(classify.RulesVersion))
	},
}
