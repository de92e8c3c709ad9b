package main

import (
	"fmt"

	"github.com/matsen/papyrus/internal/storage"
	"github.com/spf13/cobra"
)

var (
	listTag   string
	listLimit int
)

func init() {
	listCmd.Flags().StringVar(&listTag, "tag", "", "Only papers with this tag")
	listCmd.Flags().IntVar(&listLimit, "limit", DefaultListLimit, "Maximum number of papers (0 for all)")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List papers in the repository",
	Long: `List papers in the repository in citekey order.

Examples:
  pap list
  pap list --tag reading --human
  pap list --limit 0`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) (err error) {
	repo := mustOpenRepository()
	defer closeRepository(repo, &err)

	var papers []storage.IndexedPaper
	if listTag != "" {
		papers, err = repo.Index().ListByTag(listTag, listLimit)
	} else {
		papers, err = repo.Index().ListAll(listLimit)
	}
	if err != nil {
		return fmt.Errorf("listing papers: %w", err)
	}
	return outputPapers(papers)
}

// outputPapers prints index rows as JSON or, with --human, as a table.
func outputPapers(papers []storage.IndexedPaper) error {
	if !humanOutput {
		if papers == nil {
			papers = []storage.IndexedPaper{}
		}
		return outputJSON(papers)
	}

	if len(papers) == 0 {
		outputHuman("No papers found.\n")
		return nil
	}
	rows := make([][]string, len(papers))
	for i, p := range papers {
		rows[i] = []string{
			p.Citekey,
			p.Year,
			truncate(p.Authors, ListAuthorMaxLen),
			truncate(p.Title, ListTitleMaxLen),
			joinTags(p.Tags),
		}
	}
	outputHuman("%s\n", renderTable([]string{"Citekey", "Year", "Authors", "Title", "Tags"}, rows, 1))
	return nil
}
