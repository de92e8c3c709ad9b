// Package bibtex decodes and encodes single BibTeX entries as tagged records.
//
// Only the subset of BibTeX needed to round-trip a paper record is handled:
// braced, quoted and bare values, '#' concatenation and person lists.
// @string macros are not expanded and @comment, @preamble and @string blocks
// are skipped.
package bibtex

import (
	"sort"
	"strings"
)

// DefaultType is the entry type used when none is given.
const DefaultType = "article"

// Well-known field names that are stored outside Entry.Fields.
const (
	FieldAuthor = "author"
	FieldEditor = "editor"
	FieldTitle  = "title"
	FieldYear   = "year"
	FieldFile   = "file"
)

// Entry is a single bibliographic record.
// A nil Author or Editor slice means the role is absent; an empty non-nil
// slice means it is present with no names.
type Entry struct {
	Type   string
	Author []Person
	Editor []Person
	Title  string
	Year   string
	File   string
	Fields map[string]string // all other fields, lowercase names
}

// Keyed pairs an entry with the citation key it was stored under.
type Keyed struct {
	Key   string
	Entry Entry
}

// Bibliography is an ordered list of decoded entries.
type Bibliography []Keyed

// NewEntry returns an empty entry of the given type.
func NewEntry(entryType string) Entry {
	if entryType == "" {
		entryType = DefaultType
	}
	return Entry{Type: strings.ToLower(entryType), Fields: make(map[string]string)}
}

// Persons returns the person list for role ("author" or "editor") and
// whether the role is present.
func (e Entry) Persons(role string) ([]Person, bool) {
	switch strings.ToLower(role) {
	case FieldAuthor:
		return e.Author, e.Author != nil
	case FieldEditor:
		return e.Editor, e.Editor != nil
	}
	return nil, false
}

// Field returns a field value by name, including the well-known fields.
func (e Entry) Field(name string) (string, bool) {
	switch name = strings.ToLower(name); name {
	case FieldTitle:
		return e.Title, e.Title != ""
	case FieldYear:
		return e.Year, e.Year != ""
	case FieldFile:
		return e.File, e.File != ""
	case FieldAuthor:
		return formatPersons(e.Author), e.Author != nil
	case FieldEditor:
		return formatPersons(e.Editor), e.Editor != nil
	}
	v, ok := e.Fields[name]
	return v, ok
}

// SetField stores value under name, routing well-known names to their
// dedicated slots.
func (e *Entry) SetField(name, value string) {
	switch name = strings.ToLower(name); name {
	case FieldAuthor:
		e.Author = ParsePersons(value)
	case FieldEditor:
		e.Editor = ParsePersons(value)
	case FieldTitle:
		e.Title = value
	case FieldYear:
		e.Year = value
	case FieldFile:
		e.File = value
	default:
		if e.Fields == nil {
			e.Fields = make(map[string]string)
		}
		e.Fields[name] = value
	}
}

// DeleteField removes a field. Removing "author" or "editor" makes the role absent.
func (e *Entry) DeleteField(name string) {
	switch name = strings.ToLower(name); name {
	case FieldAuthor:
		e.Author = nil
	case FieldEditor:
		e.Editor = nil
	case FieldTitle:
		e.Title = ""
	case FieldYear:
		e.Year = ""
	case FieldFile:
		e.File = ""
	default:
		delete(e.Fields, name)
	}
}

// IsEmpty reports whether the entry carries no data besides its type.
func (e Entry) IsEmpty() bool {
	return e.Author == nil && e.Editor == nil && e.Title == "" &&
		e.Year == "" && e.File == "" && len(e.Fields) == 0
}

// Clone returns a deep copy of e.
func (e Entry) Clone() Entry {
	c := e
	if e.Author != nil {
		c.Author = append([]Person{}, e.Author...)
	}
	if e.Editor != nil {
		c.Editor = append([]Person{}, e.Editor...)
	}
	c.Fields = make(map[string]string, len(e.Fields))
	for k, v := range e.Fields {
		c.Fields[k] = v
	}
	return c
}

// Equal reports structural equality. A nil Fields map equals an empty one.
func (e Entry) Equal(o Entry) bool {
	if e.Type != o.Type || e.Title != o.Title || e.Year != o.Year || e.File != o.File {
		return false
	}
	if !personsEqual(e.Author, o.Author) || !personsEqual(e.Editor, o.Editor) {
		return false
	}
	if len(e.Fields) != len(o.Fields) {
		return false
	}
	for k, v := range e.Fields {
		if ov, ok := o.Fields[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// fieldNames returns the residual field names in sorted order.
func (e Entry) fieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func personsEqual(a, b []Person) bool {
	if (a == nil) != (b == nil) || len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
