package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doc2dev/doc2dev/internal/gitref"
)

var (
	searchTable     string
	searchRepo      string
	searchK         int
	searchSummarize bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search an ingested repository's documentation",
	Long: `Run a semantic search over a repository's embedded documentation.

Target the repository either by chunk table name (--table) or by its
owner/name path (--repo). With --summarize the server condenses the hits
into a query-focused answer using the configured LLM.

Examples:
  doc2dev search "how do I configure auth" --repo acme/widgets
  doc2dev search "vector index syntax" --table surrealdb_docs -k 10 --summarize`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchTable, "table", "t", "", "chunk table to search")
	searchCmd.Flags().StringVarP(&searchRepo, "repo", "r", "", "repository owner/name path to search")
	searchCmd.Flags().IntVarP(&searchK, "limit", "k", 5, "number of results")
	searchCmd.Flags().BoolVarP(&searchSummarize, "summarize", "s", false, "summarize results with the LLM")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	table := searchTable
	if table == "" && searchRepo != "" {
		table = gitref.TableNameFromPath(searchRepo)
	}
	if table == "" {
		return fmt.Errorf("either --table or --repo is required")
	}

	result, err := api.Query(cmd.Context(), table, query, searchK, searchSummarize)
	if err != nil {
		return err
	}

	if len(result.Results) == 0 {
		fmt.Println("No results.")
		return nil
	}

	if result.Summary != "" {
		fmt.Println(result.Summary)
		fmt.Println()
		fmt.Println(strings.Repeat("-", 60))
	}

	for i, match := range result.Results {
		fmt.Printf("%d. %s", i+1, match.Source)
		if match.HeadingPath != "" {
			fmt.Printf("  (%s)", match.HeadingPath)
		}
		fmt.Printf("  score %.3f\n", match.Score)
		if verbose {
			fmt.Println(indent(match.Content, "   "))
		} else {
			fmt.Println(indent(snippet(match.Content, 200), "   "))
		}
		fmt.Println()
	}
	return nil
}

// snippet truncates content to maxLen runes on a word boundary.
func snippet(content string, maxLen int) string {
	content = strings.Join(strings.Fields(content), " ")
	if len(content) <= maxLen {
		return content
	}
	cut := content[:maxLen]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
