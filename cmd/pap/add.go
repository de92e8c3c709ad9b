package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/matsen/papyrus/internal/add"
	"github.com/matsen/papyrus/internal/config"
	"github.com/matsen/papyrus/internal/lookup"
	"github.com/matsen/papyrus/internal/pdf"
	"github.com/matsen/papyrus/internal/ui"
	"github.com/spf13/cobra"
)

var (
	addDOI        string
	addISBN       string
	addDocFile    string
	addTags       string
	addCitekey    string
	addDocAdd     string
	addDOIFromDoc bool
)

func init() {
	addCmd.Flags().StringVarP(&addDOI, "doi", "D", "", "DOI to fetch the entry for")
	addCmd.Flags().StringVarP(&addISBN, "isbn", "I", "", "ISBN to fetch the entry for")
	addCmd.Flags().StringVarP(&addDocFile, "docfile", "d", "", "Document to attach (path or URL)")
	addCmd.Flags().StringVarP(&addTags, "tags", "t", "", "Comma-separated tags")
	addCmd.Flags().StringVarP(&addCitekey, "citekey", "k", "", "Citekey to use instead of the generated one")
	addCmd.Flags().StringVarP(&addDocAdd, "doc-add", "M", "", "Document placement: copy, move or link (default from config)")
	addCmd.Flags().BoolVar(&addDOIFromDoc, "doi-from-doc", false, "Read the DOI from the document when --doi is not given")
	rootCmd.AddCommand(addCmd)
}

var addCmd = &cobra.Command{
	Use:   "add [bibfile]",
	Short: "Add a paper",
	Long: `Add a paper from a BibTeX file, a DOI, an ISBN, or an entry typed in
your editor when none of those is given.

The citekey is generated from the first author's last name and the year
unless --citekey is given. Generated keys are made unique with -2, -3, ...

Examples:
  pap add paper.bib -d paper.pdf
  pap add -D 10.1038/nature12373 -t ml,reading -M copy
  pap add -d paper.pdf --doi-from-doc
  pap add -I 978-0-201-89683-1`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAdd,
}

func runAdd(cmd *cobra.Command, args []string) (err error) {
	req := add.Request{
		DocFile:         addDocFile,
		DOIFromDocument: addDOIFromDoc,
		Tags:            addTags,
		Citekey:         addCitekey,
		DocAdd:          add.DocMode(addDocAdd),
	}
	if len(args) == 1 {
		req.BibFile = args[0]
	}
	if addDocAdd != "" {
		if err := config.ValidateDocAdd(addDocAdd); err != nil {
			return err
		}
	}
	if addDOI != "" {
		if req.DOI, err = lookup.StandardizeDOI(addDOI); err != nil {
			return err
		}
	}
	if addISBN != "" {
		if req.ISBN, err = lookup.NormalizeISBN(addISBN); err != nil {
			return err
		}
	}

	repo := mustOpenRepository()
	defer closeRepository(repo, &err)

	term := ui.NewTerminal(config.Editor(repo.Config))
	if !humanOutput {
		// keep stdout for the JSON result
		term.Out = os.Stderr
	}
	if req.BibFile == "" && req.DOI == "" && req.ISBN == "" && !req.DOIFromDocument && !term.Interactive {
		return fmt.Errorf("no bibfile, DOI or ISBN given and stdin is not a terminal")
	}

	client := lookup.NewClient(lookup.WithContactEmail(config.ContactEmail(repo.Config)))
	pipeline := add.NewPipeline(repo, client, term, add.Config{
		DefaultDocAdd:    add.DocMode(repo.Config.DocAdd),
		RawEmbeddedPaths: repo.Config.RawEmbeddedPaths,
	})
	pipeline.ExtractDOI = pdf.ExtractDOI

	res, err := pipeline.Run(cmd.Context(), req)
	if errors.Is(err, add.ErrNotEdited) {
		if humanOutput {
			return nil
		}
		return outputJSON(StatusResponse{Status: "not edited"})
	}
	if err != nil {
		return err
	}

	if humanOutput {
		return nil
	}
	return outputJSON(res)
}
