package cli

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/doc2dev/doc2dev/internal/client"
)

var (
	addLibraryName string
	addWatch       bool
)

var addCmd = &cobra.Command{
	Use:   "add <repo-url>",
	Short: "Ingest a GitHub repository's markdown documentation",
	Long: `Submit a GitHub repository for ingestion.

The server downloads the repository's markdown files, splits and embeds
them, and registers the result for querying. Ingestion runs in the
background; use --watch to follow its progress live.

Examples:
  doc2dev add https://github.com/surrealdb/docs.surrealdb.com
  doc2dev add acme/widgets --watch
  doc2dev add git@github.com:acme/widgets.git --name widgets-docs`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVarP(&addLibraryName, "name", "n", "", "override the derived table name")
	addCmd.Flags().BoolVarP(&addWatch, "watch", "w", false, "stream ingestion progress")
}

func runAdd(cmd *cobra.Command, args []string) error {
	repoURL := args[0]
	ctx := cmd.Context()

	if !addWatch {
		result, err := api.Download(ctx, repoURL, addLibraryName, "")
		if err != nil {
			return err
		}
		printOutcome(result)
		return nil
	}

	// Connect the progress socket before submitting so no events are lost.
	clientID := client.NewClientID()
	events := make(chan tea.Msg, 16)

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	go func() {
		err := api.WatchProgress(watchCtx, clientID, func(ev client.ProgressEvent) error {
			events <- eventMsg(ev)
			return nil
		})
		events <- streamDoneMsg{err: err}
	}()

	result, err := api.Download(ctx, repoURL, addLibraryName, clientID)
	if err != nil {
		return err
	}
	if result.Status == "exists" {
		printOutcome(result)
		return nil
	}

	model := newWatchModel(result, events)
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return fmt.Errorf("progress display: %w", err)
	}

	if m, ok := final.(watchModel); ok && m.failed {
		return fmt.Errorf("ingestion of %s failed: %s", result.RepoPath, m.failMessage)
	}
	return nil
}

func printOutcome(result *client.DownloadResult) {
	fmt.Println(result.Message)
	fmt.Printf("  Table:     %s\n", result.TableName)
	fmt.Printf("  Query URL: %s\n", result.QueryURL)
}
