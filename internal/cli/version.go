package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the doc2dev version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("doc2dev %s\n", Version)
	},
}
