package paper

import (
	"sort"
	"time"
)

// Document describes an attached document. Its three parts are always set
// together; a Paper without a document has a nil *Document.
type Document struct {
	Filename  string
	Extension string
	Path      string // absolute path or URL
}

// TagSet is an unordered set of tags.
type TagSet map[string]struct{}

// NewTagSet returns a set holding tags.
func NewTagSet(tags ...string) TagSet {
	s := make(TagSet, len(tags))
	s.Add(tags...)
	return s
}

// Add inserts tags, ignoring empty strings.
func (s TagSet) Add(tags ...string) {
	for _, t := range tags {
		if t != "" {
			s[t] = struct{}{}
		}
	}
}

// Remove deletes tags from the set.
func (s TagSet) Remove(tags ...string) {
	for _, t := range tags {
		delete(s, t)
	}
}

// Has reports whether tag is in the set.
func (s TagSet) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

// Sorted returns the tags in lexical order.
func (s TagSet) Sorted() []string {
	tags := make([]string, 0, len(s))
	for t := range s {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// Metadata is the local-only part of a paper record.
type Metadata struct {
	Document *Document
	Notes    []string
	Tags     TagSet
	Added    time.Time
}

// BaseMeta returns fresh default metadata: no document, no notes, no tags.
func BaseMeta() Metadata {
	return Metadata{
		Notes: []string{},
		Tags:  NewTagSet(),
	}
}

// Clone returns a deep copy of m.
func (m Metadata) Clone() Metadata {
	c := Metadata{
		Notes: append([]string{}, m.Notes...),
		Tags:  NewTagSet(m.Tags.Sorted()...),
		Added: m.Added,
	}
	if m.Document != nil {
		doc := *m.Document
		c.Document = &doc
	}
	return c
}

// Equal reports structural equality. Nil and empty notes or tags are equal.
func (m Metadata) Equal(o Metadata) bool {
	if (m.Document == nil) != (o.Document == nil) {
		return false
	}
	if m.Document != nil && *m.Document != *o.Document {
		return false
	}
	if !m.Added.Equal(o.Added) || len(m.Notes) != len(o.Notes) || len(m.Tags) != len(o.Tags) {
		return false
	}
	for i := range m.Notes {
		if m.Notes[i] != o.Notes[i] {
			return false
		}
	}
	for t := range m.Tags {
		if !o.Tags.Has(t) {
			return false
		}
	}
	return true
}
