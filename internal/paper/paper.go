// Package paper implements the paper record: a bibliographic entry, its local
// metadata and the citekey identifying both.
//
// A Paper is responsible for the integrity of its own data. Reading and
// writing the two on-disk artifacts is delegated to the reader and writer
// interfaces declared here, which the storage package implements.
package paper

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/matsen/papyrus/internal/bibtex"
	"github.com/matsen/papyrus/internal/citekey"
	"github.com/matsen/papyrus/internal/content"
)

// Errors returned by paper operations.
var (
	// ErrMissingAuthor indicates neither an author nor an editor is available
	// to generate a citekey from.
	ErrMissingAuthor = errors.New("no author or editor defined: cannot generate a citekey")

	// ErrMissingCitekey indicates an attempt to persist a paper without a citekey.
	ErrMissingCitekey = errors.New("no citekey set: cannot save paper")

	// ErrNoDocumentFile indicates the paper has no attached or embedded document.
	ErrNoDocumentFile = errors.New("no document file")

	// ErrInconsistentMetadata indicates a metadata file where only some of
	// the document fields are set.
	ErrInconsistentMetadata = errors.New("inconsistent document metadata")
)

// Paper pairs a bibliographic entry with local metadata under a citekey.
type Paper struct {
	Citekey  string
	Entry    bibtex.Entry
	Metadata Metadata
}

// EntryMetadataWriter writes the two artifacts of a paper.
type EntryMetadataWriter interface {
	WriteEntry(path, key string, entry bibtex.Entry) error
	WriteMetadata(path string, meta Metadata) error
}

// EntryMetadataReader reads the two artifacts of a paper.
type EntryMetadataReader interface {
	Load(path string) (string, bibtex.Entry, error)
	ReadMetadata(path string) (Metadata, error)
}

// New builds a paper. A nil entry becomes an empty entry of the default type
// and nil meta becomes BaseMeta(). The citekey must already be in sanitized
// form; an empty key is accepted but cannot be persisted.
func New(entry *bibtex.Entry, meta *Metadata, key string) (*Paper, error) {
	if err := citekey.Check(key); err != nil {
		return nil, err
	}

	e := bibtex.NewEntry(bibtex.DefaultType)
	if entry != nil {
		e = entry.Clone()
	}
	m := BaseMeta()
	if meta != nil {
		m = meta.Clone()
	}
	return &Paper{Citekey: key, Entry: e, Metadata: m}, nil
}

// Load reads a paper from its entry file and, when metaPath is not empty,
// its metadata file.
func Load(r EntryMetadataReader, bibPath, metaPath string) (*Paper, error) {
	key, entry, err := r.Load(bibPath)
	if err != nil {
		return nil, err
	}
	meta := BaseMeta()
	if metaPath != "" {
		meta, err = r.ReadMetadata(metaPath)
		if err != nil {
			return nil, err
		}
	}
	return New(&entry, &meta, key)
}

// Equal reports structural equality of two papers.
func (p *Paper) Equal(o *Paper) bool {
	if p == nil || o == nil {
		return p == o
	}
	return p.Citekey == o.Citekey && p.Entry.Equal(o.Entry) && p.Metadata.Equal(o.Metadata)
}

func (p *Paper) String() string {
	return fmt.Sprintf("Paper(%s, %+v, %+v)", p.Citekey, p.Entry, p.Metadata)
}

// HasDocument reports whether a document is attached.
func (p *Paper) HasDocument() bool {
	return p.Metadata.Document != nil
}

// DocumentPath returns the attached document's path.
func (p *Paper) DocumentPath() (string, error) {
	if !p.HasDocument() {
		return "", ErrNoDocumentFile
	}
	return p.Metadata.Document.Path, nil
}

// CheckDocument reports whether the attached document exists as a regular
// file. A stale path is simply false.
func (p *Paper) CheckDocument() bool {
	path, err := p.DocumentPath()
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// GenerateCitekey derives a citekey from the paper's entry.
func (p *Paper) GenerateCitekey() (string, error) {
	return GenerateCitekey(p.Entry)
}

// GenerateCitekey derives a citekey from the first author's (or, with no
// author role, the first editor's) last names followed by the year.
// Disambiguating against existing keys is the caller's job.
func GenerateCitekey(e bibtex.Entry) (string, error) {
	persons, ok := e.Persons(bibtex.FieldAuthor)
	if !ok {
		persons, ok = e.Persons(bibtex.FieldEditor)
	}
	if !ok || len(persons) == 0 {
		return "", ErrMissingAuthor
	}

	raw := strings.Join(persons[0].LastNames(), "") + e.Year
	key := citekey.Sanitize(raw)
	if key == "" {
		return "", fmt.Errorf("%w: nothing left of %q", citekey.ErrInvalid, raw)
	}
	return key, nil
}

// AttachDocument binds a local document to the paper. The path is resolved
// to an absolute path and must name an existing regular file.
func (p *Paper) AttachDocument(source string) error {
	path, err := content.ExpandPath(source)
	if err != nil {
		return fmt.Errorf("resolving document path: %w", err)
	}
	if err := content.CheckFile(path); err != nil {
		return err
	}
	name, ext := content.NameFromPath(path)
	p.Metadata.Document = &Document{Filename: name, Extension: ext, Path: path}
	return nil
}

// AttachRemoteDocument records a URL as the paper's document without
// fetching it.
func (p *Paper) AttachRemoteDocument(url string) {
	name, ext := content.NameFromPath(url)
	p.Metadata.Document = &Document{Filename: name, Extension: ext, Path: url}
}

// DetachDocument removes the document reference.
func (p *Paper) DetachDocument() {
	p.Metadata.Document = nil
}

// AddTags adds tags to the paper.
func (p *Paper) AddTags(tags ...string) {
	if p.Metadata.Tags == nil {
		p.Metadata.Tags = NewTagSet()
	}
	p.Metadata.Tags.Add(tags...)
}

// RemoveTags removes tags from the paper.
func (p *Paper) RemoveTags(tags ...string) {
	p.Metadata.Tags.Remove(tags...)
}

// AddNote appends a note.
func (p *Paper) AddNote(note string) {
	p.Metadata.Notes = append(p.Metadata.Notes, note)
}

// Persist writes the entry file and then the metadata file. Nothing is
// written when the citekey is unset. Callers treat the two writes as one
// unit; each is individually atomic in the storage implementation.
func (p *Paper) Persist(w EntryMetadataWriter, entryTarget, metaTarget string) error {
	if p.Citekey == "" {
		return ErrMissingCitekey
	}
	if err := w.WriteEntry(entryTarget, p.Citekey, p.Entry); err != nil {
		return fmt.Errorf("writing entry for %s: %w", p.Citekey, err)
	}
	if err := w.WriteMetadata(metaTarget, p.Metadata); err != nil {
		return fmt.Errorf("writing metadata for %s: %w", p.Citekey, err)
	}
	return nil
}

// Oneliner formats the paper for a single line of human output.
func (p *Paper) Oneliner() string {
	var b strings.Builder
	b.WriteString("[" + p.Citekey + "]")

	persons, ok := p.Entry.Persons(bibtex.FieldAuthor)
	if !ok {
		persons, _ = p.Entry.Persons(bibtex.FieldEditor)
	}
	switch len(persons) {
	case 0:
	case 1:
		b.WriteString(" " + persons[0].Last)
	default:
		b.WriteString(" " + persons[0].Last + " et al.")
	}
	if p.Entry.Title != "" {
		b.WriteString(fmt.Sprintf(" %q", p.Entry.Title))
	}
	if journal := p.Entry.Fields["journal"]; journal != "" {
		b.WriteString(" " + journal)
	}
	if p.Entry.Year != "" {
		b.WriteString(" (" + p.Entry.Year + ")")
	}
	if len(p.Metadata.Tags) > 0 {
		b.WriteString(" | " + strings.Join(p.Metadata.Tags.Sorted(), ","))
	}
	return b.String()
}
