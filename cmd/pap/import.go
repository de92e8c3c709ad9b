package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matsen/papyrus/internal/config"
	"github.com/matsen/papyrus/internal/content"
	"github.com/matsen/papyrus/internal/importer"
	"github.com/matsen/papyrus/internal/paper"
	"github.com/matsen/papyrus/internal/repository"
	"github.com/matsen/papyrus/internal/storage"
	"github.com/spf13/cobra"
)

var (
	importStrict    bool
	importFormat    string
	importOverwrite bool
	importDocAdd    string
	importDocRoot   string
)

func init() {
	importCmd.Flags().BoolVar(&importStrict, "strict", false, "Abort on the first invalid entry instead of skipping it")
	importCmd.Flags().StringVar(&importFormat, "format", "bibtex", "Input format: bibtex or paperpile")
	importCmd.Flags().BoolVar(&importOverwrite, "overwrite", false, "Replace papers whose citekey already exists")
	importCmd.Flags().StringVarP(&importDocAdd, "doc-add", "M", "", "Document placement: copy, move or link (default from config)")
	importCmd.Flags().StringVar(&importDocRoot, "doc-root", "", "Directory Paperpile attachment paths are relative to (default: the export's directory)")
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Import papers from a bibliography",
	Long: `Import papers from a BibTeX file, a directory of BibTeX files, or a
Paperpile JSON export.

Papers keep the citekeys they have in the source. Entries with invalid
citekeys are skipped with a warning unless --strict is given. Entries
whose DOI is already stored under another citekey are skipped. Documents
named in file fields or Paperpile attachments are attached using the
placement mode.

Examples:
  pap import library.bib
  pap import ~/old-bibs/ --strict
  pap import paperpile.json --format paperpile -M copy`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

// ImportResult is the response for the import command.
type ImportResult struct {
	Imported    []string `json:"imported"`
	Updated     []string `json:"updated"`
	Skipped     []string `json:"skipped"`
	Warnings    []string `json:"warnings,omitempty"`
	Attachments int      `json:"attachments"`
}

// importItem is a paper to import and its document, if any.
type importItem struct {
	paper    *paper.Paper
	document string
}

func runImport(cmd *cobra.Command, args []string) (err error) {
	if importDocAdd != "" {
		if err := config.ValidateDocAdd(importDocAdd); err != nil {
			return err
		}
	}

	repo := mustOpenRepository()
	defer closeRepository(repo, &err)

	result := ImportResult{Imported: []string{}, Updated: []string{}, Skipped: []string{}}
	warn := func(err error) {
		result.Warnings = append(result.Warnings, err.Error())
		if humanOutput {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}

	var items []importItem
	switch importFormat {
	case "bibtex":
		items, err = bibtexItems(args[0], repo.Config.RawEmbeddedPaths, warn)
	case "paperpile":
		items, err = paperpileItems(args[0], warn)
	default:
		return fmt.Errorf("unknown format %q (valid: bibtex, paperpile)", importFormat)
	}
	if err != nil {
		return err
	}

	mode := importDocAdd
	if mode == "" {
		mode = repo.Config.DocAdd
	}
	for _, item := range items {
		key := item.paper.Citekey
		other, err := duplicateDOI(repo, item.paper)
		if err != nil {
			return err
		}
		if other != "" {
			doi, _ := item.paper.Entry.Field("doi")
			warn(fmt.Errorf("skipping %s: DOI %s is already stored as %s", key, doi, other))
			result.Skipped = append(result.Skipped, key)
			continue
		}
		exists := repo.Contains(key)
		switch {
		case exists && !importOverwrite:
			warn(fmt.Errorf("%w: %s", repository.ErrCitekeyExists, key))
			result.Skipped = append(result.Skipped, key)
			continue
		case exists:
			err = repo.UpdatePaper(item.paper)
		default:
			err = repo.PushPaper(item.paper)
		}
		if err != nil {
			return fmt.Errorf("importing %s: %w", key, err)
		}
		if exists {
			result.Updated = append(result.Updated, key)
		} else {
			result.Imported = append(result.Imported, key)
		}

		if item.document == "" {
			continue
		}
		if _, err := placeDocument(cmd.Context(), repo, key, item.document, mode); err != nil {
			warn(fmt.Errorf("attaching document to %s: %w", key, err))
			continue
		}
		result.Attachments++
	}

	if humanOutput {
		outputHuman("Imported %d papers (%d updated, %d skipped, %d documents)\n",
			len(result.Imported)+len(result.Updated), len(result.Updated), len(result.Skipped), result.Attachments)
		return nil
	}
	return outputJSON(result)
}

// duplicateDOI returns the citekey of a different stored paper sharing
// p's DOI, or "".
func duplicateDOI(repo *repository.Repository, p *paper.Paper) (string, error) {
	doi, _ := p.Entry.Field("doi")
	if doi == "" {
		return "", nil
	}
	other, err := repo.FindByDOI(doi)
	if err != nil || other == p.Citekey {
		return "", err
	}
	return other, nil
}

// bibtexItems loads papers from a .bib file or directory, taking each
// entry's embedded document out of its file field.
func bibtexItems(path string, rawPaths bool, warn func(error)) ([]importItem, error) {
	papers, err := paper.ManyFromPath(storage.Files{}, path, importStrict, warn)
	if err != nil {
		return nil, err
	}

	items := make([]importItem, 0, len(papers))
	for _, p := range papers {
		doc, err := p.ExtractEmbeddedDocument(true, paper.WithSeparatorFix(!rawPaths))
		if err != nil && !errors.Is(err, paper.ErrNoDocumentFile) {
			return nil, err
		}
		items = append(items, importItem{paper: p, document: doc})
	}
	return items, nil
}

// paperpileItems loads papers from a Paperpile JSON export.
func paperpileItems(path string, warn func(error)) ([]importItem, error) {
	data, err := os.ReadFile(config.ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	records, errs := importer.ParsePaperpile(data)
	for _, e := range errs {
		if importStrict {
			return nil, e
		}
		warn(e)
	}

	docRoot := importDocRoot
	if docRoot == "" {
		docRoot = filepath.Dir(path)
	}

	var items []importItem
	for _, rec := range records {
		p, err := rec.Paper()
		if err != nil {
			if importStrict {
				return nil, fmt.Errorf("entry %s: %w", rec.Key, err)
			}
			warn(fmt.Errorf("skipping entry %s: %w", rec.Key, err))
			continue
		}
		item := importItem{paper: p}
		switch {
		case rec.Document == "":
		case filepath.IsAbs(rec.Document):
			item.document = rec.Document
		default:
			item.document = filepath.Join(config.ExpandPath(docRoot), rec.Document)
		}
		items = append(items, item)
	}
	return items, nil
}

// placeDocument attaches src to the stored paper key following mode and
// removes a moved local original. It returns the attached path.
func placeDocument(ctx context.Context, repo *repository.Repository, key, src, mode string) (string, error) {
	copyDoc := mode == config.DocAddCopy || mode == config.DocAddMove
	placed, err := repo.PushDocument(ctx, key, src, copyDoc)
	if err != nil {
		return "", err
	}
	if mode == config.DocAddMove && !content.IsURL(src) {
		if err := content.Remove(src); err != nil {
			return placed, fmt.Errorf("removing moved document: %w", err)
		}
	}
	return placed, nil
}
