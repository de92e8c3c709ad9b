package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchLimit int

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", DefaultListLimit, "Maximum number of results")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over titles, authors, journals and tags",
	Long: `Full-text search over the index.

Examples:
  pap search phylogenetics
  pap search "bayesian inference" --human`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) (err error) {
	repo := mustOpenRepository()
	defer closeRepository(repo, &err)

	papers, err := repo.Index().Search(strings.Join(args, " "), searchLimit)
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}
	return outputPapers(papers)
}
