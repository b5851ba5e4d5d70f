package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an ingested repository and its chunk table",
	Long: `Delete a repository record by its registry id.

The associated chunk table is dropped as well, freeing the repository's
path for re-ingestion. Find ids with 'doc2dev list --verbose'.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	id := args[0]
	if err := api.DeleteRepository(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Printf("Deleted repository %s\n", id)
	return nil
}
