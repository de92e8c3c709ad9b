package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	noteCmd.Flags().SetInterspersed(false)
	rootCmd.AddCommand(noteCmd)
}

var noteCmd = &cobra.Command{
	Use:   "note <citekey> <text...>",
	Short: "Add a note to a paper",
	Long: `Add a note to a paper. The remaining arguments are joined with spaces.

Examples:
  pap note Doe2021 see section 4 for the proof`,
	Args: cobra.MinimumNArgs(2),
	RunE: runNote,
}

func runNote(cmd *cobra.Command, args []string) (err error) {
	text := strings.TrimSpace(strings.Join(args[1:], " "))
	if text == "" {
		return fmt.Errorf("empty note")
	}

	repo := mustOpenRepository()
	defer closeRepository(repo, &err)

	p, err := repo.Paper(args[0])
	if err != nil {
		return err
	}
	p.AddNote(text)
	if err := repo.UpdatePaper(p); err != nil {
		return fmt.Errorf("saving %s: %w", p.Citekey, err)
	}

	if humanOutput {
		outputHuman("%s: %d notes\n", p.Citekey, len(p.Metadata.Notes))
		return nil
	}
	return outputJSON(newPaperResponse(p))
}
