package main

import (
	"fmt"

	"github.com/matsen/papyrus/internal/bibtex"
	"github.com/matsen/papyrus/internal/export"
	"github.com/matsen/papyrus/internal/paper"
	"github.com/spf13/cobra"
)

var exportAppend string

func init() {
	exportCmd.Flags().StringVar(&exportAppend, "append", "", "Append to this .bib file, skipping entries it already has (by DOI or citekey)")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export [citekey...]",
	Short: "Export papers as BibTeX",
	Long: `Export papers as BibTeX, all of them unless citekeys are given.

Without --append the BibTeX is written to stdout as text.

Examples:
  pap export > refs.bib
  pap export Doe2021 Roe1999
  pap export --append thesis/refs.bib`,
	RunE: runExport,
}

// AppendResult is the response for export --append.
type AppendResult struct {
	Path     string   `json:"path"`
	Appended []string `json:"appended"`
	Skipped  []string `json:"skipped"`
}

func runExport(cmd *cobra.Command, args []string) (err error) {
	repo := mustOpenRepository()
	defer closeRepository(repo, &err)

	var papers []*paper.Paper
	if len(args) > 0 {
		for _, key := range args {
			p, err := repo.Paper(key)
			if err != nil {
				return err
			}
			papers = append(papers, p)
		}
	} else {
		if papers, err = repo.Papers(); err != nil {
			return fmt.Errorf("loading papers: %w", err)
		}
	}

	if exportAppend == "" {
		// BibTeX is always text output, never JSON
		fmt.Print(export.ToBibTeX(papers))
		return nil
	}

	idx, err := export.ParseBibTeXFile(exportAppend)
	if err != nil {
		return fmt.Errorf("reading %s: %w", exportAppend, err)
	}
	fresh, skipped := export.Fresh(idx, export.Bibliography(papers))
	if len(fresh) > 0 {
		if err := export.AppendToBibFile(exportAppend, bibtex.EncodeAll(fresh)); err != nil {
			return fmt.Errorf("appending to %s: %w", exportAppend, err)
		}
	}

	result := AppendResult{Path: exportAppend, Appended: []string{}, Skipped: skipped}
	for _, k := range fresh {
		result.Appended = append(result.Appended, k.Key)
	}
	if result.Skipped == nil {
		result.Skipped = []string{}
	}
	if humanOutput {
		outputHuman("Appended %d entries to %s (%d already present)\n", len(result.Appended), exportAppend, len(result.Skipped))
		return nil
	}
	return outputJSON(result)
}
