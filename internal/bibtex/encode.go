package bibtex

import (
	"fmt"
	"strings"
)

// Encode formats entry as a single BibTeX entry stored under key.
func Encode(key string, e Entry) string {
	entryType := e.Type
	if entryType == "" {
		entryType = DefaultType
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("@%s{%s,\n", entryType, key))

	if e.Author != nil {
		writeField(&b, FieldAuthor, formatPersons(e.Author))
	}
	if e.Editor != nil {
		writeField(&b, FieldEditor, formatPersons(e.Editor))
	}
	if e.Title != "" {
		writeField(&b, FieldTitle, e.Title)
	}
	if e.Year != "" {
		writeField(&b, FieldYear, e.Year)
	}
	for _, name := range e.fieldNames() {
		writeField(&b, name, e.Fields[name])
	}
	if e.File != "" {
		writeField(&b, FieldFile, e.File)
	}

	b.WriteString("}\n")
	return b.String()
}

// EncodeAll formats a bibliography, entries separated by blank lines.
func EncodeAll(bib Bibliography) string {
	entries := make([]string, len(bib))
	for i, k := range bib {
		entries[i] = Encode(k.Key, k.Entry)
	}
	return strings.Join(entries, "\n")
}

func writeField(b *strings.Builder, name, value string) {
	b.WriteString(fmt.Sprintf("  %s = {%s},\n", name, value))
}
