// Package export writes papers out as BibTeX for use outside the repository.
package export

import (
	"github.com/matsen/papyrus/internal/bibtex"
	"github.com/matsen/papyrus/internal/paper"
)

// Bibliography returns the entries of papers keyed by citekey. The file
// field only makes sense inside the repository and is dropped.
func Bibliography(papers []*paper.Paper) bibtex.Bibliography {
	bib := make(bibtex.Bibliography, 0, len(papers))
	for _, p := range papers {
		e := p.Entry.Clone()
		e.File = ""
		bib = append(bib, bibtex.Keyed{Key: p.Citekey, Entry: e})
	}
	return bib
}

// ToBibTeX formats papers as a BibTeX document.
func ToBibTeX(papers []*paper.Paper) string {
	return bibtex.EncodeAll(Bibliography(papers))
}

// Fresh returns the entries of bib not already present in idx, and the
// keys of those skipped.
func Fresh(idx *BibTeXIndex, bib bibtex.Bibliography) (bibtex.Bibliography, []string) {
	var fresh bibtex.Bibliography
	var skipped []string
	for _, k := range bib {
		doi, _ := k.Entry.Field("doi")
		if idx.HasEntry(k.Key, doi) {
			skipped = append(skipped, k.Key)
			continue
		}
		idx.Add(k.Key, doi)
		fresh = append(fresh, k)
	}
	return fresh, skipped
}
