// Package storage persists paper records as one BibTeX file and one YAML
// metadata file per citekey, and keeps an ephemeral SQLite index over them.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matsen/papyrus/internal/bibtex"
	"github.com/matsen/papyrus/internal/paper"
)

// BibExtensions lists the file extensions treated as bibliographic files.
var BibExtensions = []string{".bib", ".bibtex"}

// Files reads and writes paper artifacts on the local filesystem.
type Files struct{}

// Load decodes a file that must hold exactly one entry.
func (Files) Load(path string) (string, bibtex.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", bibtex.Entry{}, fmt.Errorf("reading %s: %w", path, err)
	}
	k, err := bibtex.DecodeEntry(string(data))
	if err != nil {
		return "", bibtex.Entry{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	return k.Key, k.Entry, nil
}

// LoadAll decodes every entry in a file.
func (Files) LoadAll(path string) (bibtex.Bibliography, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	bib, err := bibtex.Decode(string(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return bib, nil
}

// WriteEntry encodes entry under key and writes it atomically to path.
func (Files) WriteEntry(path, key string, entry bibtex.Entry) error {
	return writeFileAtomic(path, []byte(bibtex.Encode(key, entry)))
}

// ReadMetadata reads a metadata file.
func (Files) ReadMetadata(path string) (paper.Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return paper.Metadata{}, fmt.Errorf("reading metadata: %w", err)
	}
	meta, err := decodeMetadata(data)
	if err != nil {
		return paper.Metadata{}, fmt.Errorf("parsing metadata %s: %w", path, err)
	}
	return meta, nil
}

// WriteMetadata writes meta atomically to path.
func (Files) WriteMetadata(path string, meta paper.Metadata) error {
	data, err := encodeMetadata(meta)
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	return writeFileAtomic(path, data)
}

// ListBibFilesIn returns the bibliographic files directly inside dir, sorted.
func (Files) ListBibFilesIn(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsBibFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// IsBibFile reports whether name has a bibliographic extension.
func IsBibFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range BibExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}
