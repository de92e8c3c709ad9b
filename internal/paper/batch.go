package paper

import (
	"fmt"
	"os"

	"github.com/matsen/papyrus/internal/bibtex"
	"github.com/matsen/papyrus/internal/citekey"
	"github.com/matsen/papyrus/internal/content"
)

// BibSource lists and decodes bibliographic files.
type BibSource interface {
	ListBibFilesIn(dir string) ([]string, error)
	LoadAll(path string) (bibtex.Bibliography, error)
}

// ManyFromPath builds one paper per entry found in path, which is either a
// single bibliographic file or a directory of them. Papers keep the keys
// they have in the source files.
//
// In fatal mode the first invalid citekey aborts the batch. Otherwise the
// offending entry is skipped and reported through warn. Errors decoding a
// file always abort.
func ManyFromPath(src BibSource, path string, fatal bool, warn func(error)) ([]*Paper, error) {
	path, err := content.ExpandPath(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	files := []string{path}
	if info.IsDir() {
		files, err = src.ListBibFilesIn(path)
		if err != nil {
			return nil, err
		}
	}

	var papers []*Paper
	for _, f := range files {
		bib, err := src.LoadAll(f)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
		for _, k := range bib {
			p, err := fromKeyed(k)
			if err != nil {
				if fatal {
					return nil, fmt.Errorf("%s: %w", f, err)
				}
				if warn != nil {
					warn(fmt.Errorf("skipping paper from %s: %w", f, err))
				}
				continue
			}
			papers = append(papers, p)
		}
	}
	return papers, nil
}

func fromKeyed(k bibtex.Keyed) (*Paper, error) {
	if k.Key == "" {
		return nil, fmt.Errorf("%w: entry has no key", citekey.ErrInvalid)
	}
	entry := k.Entry
	return New(&entry, nil, k.Key)
}
