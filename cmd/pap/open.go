package main

import (
	"fmt"

	"github.com/matsen/papyrus/internal/pdf"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(openCmd)
}

var openCmd = &cobra.Command{
	Use:   "open <citekey>...",
	Short: "Open papers' documents in the configured viewer",
	Long: `Open papers' documents in the configured viewer (pdf_reader).

Examples:
  pap open Doe2021
  pap open Doe2021 Roe1999`,
	Args: cobra.MinimumNArgs(1),
	RunE: runOpen,
}

func runOpen(cmd *cobra.Command, args []string) (err error) {
	repo := mustOpenRepository()
	defer closeRepository(repo, &err)

	opener := pdf.NewOpener(repo.Config.PDFReader)
	var opened []string
	for _, key := range args {
		p, err := repo.Paper(key)
		if err != nil {
			return err
		}
		path, err := p.DocumentPath()
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if err := opener.Open(path); err != nil {
			return fmt.Errorf("opening %s: %w", key, err)
		}
		opened = append(opened, path)
	}

	if humanOutput {
		for _, path := range opened {
			outputHuman("Opened %s\n", path)
		}
		return nil
	}
	return outputJSON(struct {
		Opened []string `json:"opened"`
	}{opened})
}
