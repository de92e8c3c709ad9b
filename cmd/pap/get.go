package main

import (
	"strings"
	"time"

	"github.com/matsen/papyrus/internal/bibtex"
	"github.com/matsen/papyrus/internal/paper"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(getCmd)
}

var getCmd = &cobra.Command{
	Use:   "get <citekey>",
	Short: "Show a paper's entry and metadata",
	Long: `Show a paper's BibTeX entry and metadata.

Examples:
  pap get Doe2021
  pap get Doe2021 --human`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

// PaperResponse is the JSON shape of a stored paper.
type PaperResponse struct {
	Citekey  string    `json:"citekey"`
	BibTeX   string    `json:"bibtex"`
	Document string    `json:"document,omitempty"`
	Tags     []string  `json:"tags"`
	Notes    []string  `json:"notes"`
	Added    time.Time `json:"added,omitzero"`
}

func newPaperResponse(p *paper.Paper) PaperResponse {
	resp := PaperResponse{
		Citekey: p.Citekey,
		BibTeX:  bibtex.Encode(p.Citekey, p.Entry),
		Tags:    p.Metadata.Tags.Sorted(),
		Notes:   p.Metadata.Notes,
		Added:   p.Metadata.Added,
	}
	if doc, err := p.DocumentPath(); err == nil {
		resp.Document = doc
	}
	if resp.Notes == nil {
		resp.Notes = []string{}
	}
	return resp
}

func runGet(cmd *cobra.Command, args []string) (err error) {
	repo := mustOpenRepository()
	defer closeRepository(repo, &err)

	p, err := repo.Paper(args[0])
	if err != nil {
		return err
	}
	resp := newPaperResponse(p)

	if !humanOutput {
		return outputJSON(resp)
	}
	outputHuman("%s\n", strings.TrimSpace(resp.BibTeX))
	if resp.Document != "" {
		status := ""
		if !p.CheckDocument() {
			status = " (missing)"
		}
		outputHuman("Document: %s%s\n", resp.Document, status)
	}
	if len(resp.Tags) > 0 {
		outputHuman("Tags:     %s\n", joinTags(resp.Tags))
	}
	if !resp.Added.IsZero() {
		outputHuman("Added:    %s\n", resp.Added.Local().Format("2006-01-02 15:04"))
	}
	for _, n := range resp.Notes {
		outputHuman("Note:     %s\n", n)
	}
	return nil
}
