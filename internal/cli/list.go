package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested repositories",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	repos, err := api.ListRepositories(cmd.Context())
	if err != nil {
		return err
	}

	if len(repos) == 0 {
		fmt.Println("No repositories ingested yet. Add one with 'doc2dev add <repo-url>'.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if verbose {
		fmt.Fprintln(w, "ID\tNAME\tPATH\tSTATUS\tSNIPPETS\tTOKENS")
		for _, r := range repos {
			fmt.Fprintf(w, "%v\t%s\t%s\t%s\t%d\t%d\n", r.ID, r.Name, r.Path, r.Status, r.Snippets, r.Tokens)
		}
	} else {
		fmt.Fprintln(w, "NAME\tPATH\tSTATUS\tSNIPPETS\tTOKENS")
		for _, r := range repos {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n", r.Name, r.Path, r.Status, r.Snippets, r.Tokens)
		}
	}
	return w.Flush()
}
