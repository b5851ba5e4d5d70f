// Package cli provides the command-line interface for doc2dev.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/doc2dev/doc2dev/internal/client"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose   bool
	serverURL string

	api *client.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "doc2dev",
	Short: "Turn GitHub documentation into a searchable vector index",
	Long: `doc2dev ingests a GitHub repository's markdown documentation, embeds it,
and makes it searchable.

Point it at a repository to download and index the docs, then query them
with semantic search and optional LLM summaries.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		api = client.New(serverURL)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "doc2dev server URL (default $DOC2DEV_SERVER_URL or http://localhost:8080)")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(versionCmd)
}
