package importer

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestFlexibleString_String(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"string year", `"2026"`, "2026"},
		{"number year", `2026`, "2026"},
		{"null value", `null`, ""},
		{"float number", `2026.0`, "2026.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f FlexibleString
			if err := json.Unmarshal([]byte(tt.input), &f); err != nil {
				t.Fatalf("UnmarshalJSON() error = %v", err)
			}
			if got := f.String(); got != tt.want {
				t.Errorf("String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFlexibleString_InvalidInput(t *testing.T) {
	for _, input := range []string{`[1,2,3]`, `{"key": "value"}`} {
		var f FlexibleString
		if err := json.Unmarshal([]byte(input), &f); err == nil {
			t.Errorf("UnmarshalJSON(%s) expected error", input)
		}
	}
}

func TestParsePaperpile_ValidEntry(t *testing.T) {
	data := []byte(`[{
		"_id": "abc123",
		"citekey": "Smith2026-ab",
		"pubtype": "JOUR",
		"doi": "10.1234/test",
		"title": "Test Paper",
		"abstract": "This is a test abstract",
		"journal": "Test Journal",
		"published": {"year": "2026", "month": "3"},
		"author": [
			{"first": "John", "last": "Smith"},
			{"first": "Jane", "last": "Doe"}
		],
		"labelsNamed": ["phylo"],
		"attachments": [
			{"article_pdf": 1, "filename": "Papers/main.pdf"},
			{"article_pdf": 0, "filename": "Papers/supplement.pdf"}
		]
	}]`)

	recs, errs := ParsePaperpile(data)
	if len(errs) > 0 {
		t.Fatalf("ParsePaperpile() returned errors: %v", errs)
	}
	if len(recs) != 1 {
		t.Fatalf("ParsePaperpile() returned %d records, want 1", len(recs))
	}

	rec := recs[0]
	if rec.Key != "Smith2026-ab" {
		t.Errorf("Key = %v, want Smith2026-ab", rec.Key)
	}
	e := rec.Entry
	if e.Type != "article" || e.Title != "Test Paper" || e.Year != "2026" {
		t.Errorf("Entry = %+v", e)
	}
	for name, want := range map[string]string{
		"doi":      "10.1234/test",
		"journal":  "Test Journal",
		"abstract": "This is a test abstract",
		"month":    "3",
	} {
		if got, _ := e.Field(name); got != want {
			t.Errorf("Field(%q) = %q, want %q", name, got, want)
		}
	}
	if len(e.Author) != 2 || e.Author[0].First != "John" || e.Author[0].Last != "Smith" {
		t.Errorf("Author = %+v", e.Author)
	}
	if rec.Document != "Papers/main.pdf" {
		t.Errorf("Document = %v, want Papers/main.pdf", rec.Document)
	}
	if !reflect.DeepEqual(rec.Supplements, []string{"Papers/supplement.pdf"}) {
		t.Errorf("Supplements = %v", rec.Supplements)
	}

	p, err := rec.Paper()
	if err != nil {
		t.Fatalf("Paper() error = %v", err)
	}
	if !p.Metadata.Tags.Has("phylo") {
		t.Errorf("tags = %v", p.Metadata.Tags.Sorted())
	}
	if !reflect.DeepEqual(p.Metadata.Notes, []string{"supplement: Papers/supplement.pdf"}) {
		t.Errorf("notes = %v", p.Metadata.Notes)
	}
}

func TestParsePaperpile_Keys(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantKey string
		paper   string
	}{
		{
			name:    "no citekey uses id",
			data:    `[{"_id": "abc123", "title": "T", "published": {"year": "2026"}, "author": [{"first": "John", "last": "Smith"}]}]`,
			wantKey: "abc123",
			paper:   "abc123",
		},
		{
			name:    "citekey sanitized",
			data:    `[{"_id": "x", "citekey": "Smith{2026}", "title": "T", "published": {"year": "2026"}, "author": [{"last": "Smith"}]}]`,
			wantKey: "Smith2026",
			paper:   "Smith2026",
		},
		{
			name:    "surrounding whitespace trimmed",
			data:    `[{"_id": "x", "citekey": " Smith2026 ", "title": "T", "published": {"year": "2026"}, "author": [{"last": "Smith"}]}]`,
			wantKey: "Smith2026",
			paper:   "Smith2026",
		},
		{
			name:    "nothing usable generates key",
			data:    `[{"_id": "@@", "title": "T", "published": {"year": 2020}, "author": [{"last": "Müller"}]}]`,
			wantKey: "",
			paper:   "Muller2020",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, errs := ParsePaperpile([]byte(tt.data))
			if len(errs) > 0 {
				t.Fatalf("ParsePaperpile() errors: %v", errs)
			}
			if recs[0].Key != tt.wantKey {
				t.Errorf("Key = %q, want %q", recs[0].Key, tt.wantKey)
			}
			p, err := recs[0].Paper()
			if err != nil {
				t.Fatal(err)
			}
			if p.Citekey != tt.paper {
				t.Errorf("Citekey = %q, want %q", p.Citekey, tt.paper)
			}
		})
	}
}

func TestParsePaperpile_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing title", `[{"_id": "abc", "published": {"year": "2026"}, "author": [{"first": "John", "last": "Smith"}]}]`},
		{"missing author", `[{"_id": "abc", "title": "Test", "published": {"year": "2026"}, "author": []}]`},
		{"missing year", `[{"_id": "abc", "title": "Test", "author": [{"first": "John", "last": "Smith"}]}]`},
		{"invalid year", `[{"_id": "abc", "title": "Test", "published": {"year": "invalid"}, "author": [{"last": "Smith"}]}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, errs := ParsePaperpile([]byte(tt.data))
			if len(errs) == 0 {
				t.Errorf("ParsePaperpile() expected error, got records: %+v", recs)
			}
		})
	}
}

func TestParsePaperpile_InvalidJSON(t *testing.T) {
	recs, errs := ParsePaperpile([]byte(`not valid json`))
	if len(errs) == 0 {
		t.Errorf("ParsePaperpile() expected error for invalid JSON, got records: %+v", recs)
	}
}

func TestParsePaperpile_PartialErrors(t *testing.T) {
	data := []byte(`[
		{"_id": "1", "citekey": "Valid2026", "title": "Valid", "published": {"year": "2026"}, "author": [{"last": "Valid"}]},
		{"_id": "2", "citekey": "Invalid", "title": "", "published": {"year": "2026"}, "author": [{"last": "Invalid"}]},
		{"_id": "3", "citekey": "AlsoValid2026", "title": "Also Valid", "published": {"year": 2025}, "author": [{"last": "Also"}]}
	]`)

	recs, errs := ParsePaperpile(data)
	if len(recs) != 2 {
		t.Errorf("ParsePaperpile() returned %d records, want 2", len(recs))
	}
	if len(errs) != 1 {
		t.Errorf("ParsePaperpile() returned %d errors, want 1", len(errs))
	}
	if recs[1].Entry.Year != "2025" {
		t.Errorf("numeric year = %q, want 2025", recs[1].Entry.Year)
	}
}

func TestEntryType(t *testing.T) {
	tests := []struct {
		pubType, venue, want string
	}{
		{"JOUR", "", "article"},
		{"BOOK", "", "book"},
		{"CHAP", "", "incollection"},
		{"", "Proceedings of ICML", "inproceedings"},
		{"", "bioRxiv", "article"},
		{"", "", "article"},
	}
	for _, tt := range tests {
		if got := entryType(tt.pubType, tt.venue); got != tt.want {
			t.Errorf("entryType(%q, %q) = %q, want %q", tt.pubType, tt.venue, got, tt.want)
		}
	}

	recs, _ := ParsePaperpile([]byte(`[{"_id": "1", "title": "T", "journal": "Workshop on X", "published": {"year": "2020"}, "author": [{"last": "A"}]}]`))
	if v, _ := recs[0].Entry.Field("booktitle"); v != "Workshop on X" {
		t.Errorf("booktitle = %q", v)
	}
}

func TestParsePaperpile_AuthorParticles(t *testing.T) {
	data := `[{"_id": "1", "citekey": "WHO2020", "title": "Report", "published": {"year": "2020"},
		"author": [{"first": "", "last": "World Health Organization"}, {"first": "Jean", "last": "de la Fontaine"}]}]`
	recs, errs := ParsePaperpile([]byte(data))
	if len(errs) != 0 || len(recs) != 1 {
		t.Fatalf("ParsePaperpile() = %v, %v", recs, errs)
	}

	authors := recs[0].Entry.Author
	if len(authors) != 2 {
		t.Fatalf("Author = %+v", authors)
	}
	if authors[0].Last != "World Health Organization" || authors[0].First != "" {
		t.Errorf("Author[0] = %+v", authors[0])
	}
	if authors[1].First != "Jean" || authors[1].Von != "de la" || authors[1].Last != "Fontaine" {
		t.Errorf("Author[1] = %+v", authors[1])
	}
}
