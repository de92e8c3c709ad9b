package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the search index from the repository files",
	Long: `Rebuild the SQLite index from the entry and metadata files.

Run this after editing files by hand or pulling changes with git.`,
	Args: cobra.NoArgs,
	RunE: runRebuild,
}

func runRebuild(cmd *cobra.Command, args []string) (err error) {
	repo := mustOpenRepository()
	defer closeRepository(repo, &err)

	count, err := repo.Rebuild()
	if err != nil {
		return err
	}

	if humanOutput {
		outputHuman("Indexed %d papers\n", count)
		return nil
	}
	return outputJSON(StatusResponse{Status: "rebuilt", Path: repo.Root, Count: &count})
}
