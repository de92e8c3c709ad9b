package export

import (
	"bufio"
	"os"
	"regexp"
	"strings"
)

// BibTeXIndex records the keys and DOIs of an existing .bib file.
type BibTeXIndex struct {
	Keys map[string]bool
	// DOIs maps normalized DOIs to citation keys.
	DOIs map[string]string
}

// NewBibTeXIndex creates an empty index.
func NewBibTeXIndex() *BibTeXIndex {
	return &BibTeXIndex{
		Keys: make(map[string]bool),
		DOIs: make(map[string]string),
	}
}

// HasEntry reports whether an entry is already present. A DOI match wins;
// the key is checked otherwise.
func (idx *BibTeXIndex) HasEntry(key, doi string) bool {
	if doi != "" {
		if _, ok := idx.DOIs[normalizeDOI(doi)]; ok {
			return true
		}
	}
	return idx.Keys[key]
}

// Add records an entry.
func (idx *BibTeXIndex) Add(key, doi string) {
	idx.Keys[key] = true
	if doi = normalizeDOI(doi); doi != "" {
		idx.DOIs[doi] = key
	}
}

var (
	entryStartRegex = regexp.MustCompile(`@\w+\s*[{(]\s*([^,\s]+)\s*,`)
	doiFieldRegex   = regexp.MustCompile(`(?i)^\s*doi\s*=\s*[{"]([^}"]+)[}"]`)
)

// ParseBibTeXFile indexes an existing .bib file line by line, so files the
// decoder would reject still dedupe. A missing file gives an empty index.
func ParseBibTeXFile(path string) (*BibTeXIndex, error) {
	idx := NewBibTeXIndex()

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var currentKey string
	for scanner.Scan() {
		line := scanner.Text()
		if m := entryStartRegex.FindStringSubmatch(line); m != nil {
			currentKey = m[1]
			idx.Keys[currentKey] = true
		}
		if m := doiFieldRegex.FindStringSubmatch(line); m != nil && currentKey != "" {
			if doi := normalizeDOI(m[1]); doi != "" {
				idx.DOIs[doi] = currentKey
			}
		}
	}
	return idx, scanner.Err()
}

// normalizeDOI strips resolver prefixes and lowercases.
func normalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "doi.org/", "DOI:", "doi:"} {
		doi = strings.TrimPrefix(doi, prefix)
	}
	return strings.ToLower(doi)
}

// AppendToBibFile appends BibTeX text to path, creating it if needed.
func AppendToBibFile(path, text string) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	if _, err := file.WriteString("\n" + text); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
