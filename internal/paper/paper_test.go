package paper

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matsen/papyrus/internal/bibtex"
	"github.com/matsen/papyrus/internal/citekey"
	"github.com/matsen/papyrus/internal/content"
)

type recordingWriter struct {
	writes []string
}

func (w *recordingWriter) WriteEntry(path, key string, entry bibtex.Entry) error {
	w.writes = append(w.writes, "entry:"+path+":"+key)
	return nil
}

func (w *recordingWriter) WriteMetadata(path string, meta Metadata) error {
	w.writes = append(w.writes, "meta:"+path)
	return nil
}

func entryWith(fields map[string]string) *bibtex.Entry {
	e := bibtex.NewEntry("article")
	for k, v := range fields {
		e.SetField(k, v)
	}
	return &e
}

func TestNew(t *testing.T) {
	t.Run("rejects unsanitized key", func(t *testing.T) {
		_, err := New(nil, nil, "a@b")
		if !errors.Is(err, citekey.ErrInvalid) {
			t.Fatalf("New(a@b) error = %v, want ErrInvalid", err)
		}
	})

	t.Run("accepts sanitized key", func(t *testing.T) {
		p, err := New(nil, nil, "ab2020")
		if err != nil {
			t.Fatalf("New(ab2020) error = %v", err)
		}
		if p.Citekey != "ab2020" {
			t.Errorf("Citekey = %q", p.Citekey)
		}
		if p.Entry.Type != bibtex.DefaultType {
			t.Errorf("Entry.Type = %q, want %q", p.Entry.Type, bibtex.DefaultType)
		}
		if p.HasDocument() {
			t.Error("new paper should not have a document")
		}
		if p.Metadata.Notes == nil || p.Metadata.Tags == nil {
			t.Error("BaseMeta should give non-nil notes and tags")
		}
	})

	t.Run("empty key allowed", func(t *testing.T) {
		if _, err := New(nil, nil, ""); err != nil {
			t.Fatalf("New with empty key: %v", err)
		}
	})

	t.Run("entry is copied", func(t *testing.T) {
		e := entryWith(map[string]string{"title": "Original"})
		p, err := New(e, nil, "k")
		if err != nil {
			t.Fatal(err)
		}
		e.Title = "Changed"
		if p.Entry.Title != "Original" {
			t.Errorf("paper entry shares state with caller")
		}
	})
}

func TestBaseMeta_Fresh(t *testing.T) {
	a := BaseMeta()
	a.Tags.Add("x")
	a.Notes = append(a.Notes, "n")

	b := BaseMeta()
	if len(b.Tags) != 0 || len(b.Notes) != 0 {
		t.Errorf("BaseMeta shares state between calls: %+v", b)
	}
}

func TestGenerateCitekey(t *testing.T) {
	tests := []struct {
		name    string
		fields  map[string]string
		want    string
		wantErr error
	}{
		{"author and year", map[string]string{"author": "Smith, John", "year": "2020"}, "Smith2020", nil},
		{"first author only", map[string]string{"author": "Doe, Jane and Roe, Rick", "year": "2021"}, "Doe2021", nil},
		{"von part excluded", map[string]string{"author": "Ludwig van Beethoven", "year": "1800"}, "Beethoven1800", nil},
		{"multi word last name", map[string]string{"author": "{Garcia Marquez}, Gabriel", "year": "1967"}, "{Garcia Marquez}1967", nil},
		{"accents sanitized", map[string]string{"author": "Müller, Hans", "year": "2019"}, "Muller2019", nil},
		{"editor fallback", map[string]string{"editor": "Knuth, Donald", "year": "1973"}, "Knuth1973", nil},
		{"no year", map[string]string{"author": "Smith, John"}, "Smith", nil},
		{"missing author", map[string]string{"title": "Untitled", "year": "2020"}, "", ErrMissingAuthor},
		{"empty author list", map[string]string{"author": "", "year": "2020"}, "", ErrMissingAuthor},
		{"nothing left", map[string]string{"author": "李, 小"}, "", citekey.ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GenerateCitekey(*entryWith(tt.fields))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != citekey.Sanitize(tt.want) {
				t.Errorf("GenerateCitekey() = %q, want %q", got, citekey.Sanitize(tt.want))
			}
		})
	}
}

func TestAttachDocument(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "x.pdf")
	if err := os.WriteFile(doc, []byte("%PDF"), 0644); err != nil {
		t.Fatal(err)
	}

	p, _ := New(nil, nil, "k")
	if err := p.AttachDocument(doc); err != nil {
		t.Fatalf("AttachDocument: %v", err)
	}
	path, err := p.DocumentPath()
	if err != nil {
		t.Fatalf("DocumentPath: %v", err)
	}
	if path != doc {
		t.Errorf("DocumentPath = %q, want %q", path, doc)
	}
	if p.Metadata.Document.Filename != "x" || p.Metadata.Document.Extension != ".pdf" {
		t.Errorf("Document = %+v", p.Metadata.Document)
	}
	if !p.CheckDocument() {
		t.Error("CheckDocument should be true for an existing file")
	}

	os.Remove(doc)
	if p.CheckDocument() {
		t.Error("CheckDocument should be false after the file is removed")
	}

	p.DetachDocument()
	if _, err := p.DocumentPath(); !errors.Is(err, ErrNoDocumentFile) {
		t.Errorf("DocumentPath after detach error = %v", err)
	}
}

func TestAttachDocument_Missing(t *testing.T) {
	p, _ := New(nil, nil, "k")
	err := p.AttachDocument(filepath.Join(t.TempDir(), "missing.pdf"))
	if !errors.Is(err, content.ErrFileNotFound) {
		t.Fatalf("error = %v, want ErrFileNotFound", err)
	}
	if p.HasDocument() {
		t.Error("failed attach should leave no document")
	}
}

func TestAttachRemoteDocument(t *testing.T) {
	p, _ := New(nil, nil, "k")
	p.AttachRemoteDocument("https://example.org/papers/x.pdf")
	if !p.HasDocument() {
		t.Fatal("expected a document")
	}
	if p.Metadata.Document.Path != "https://example.org/papers/x.pdf" {
		t.Errorf("Path = %q", p.Metadata.Document.Path)
	}
	if p.CheckDocument() {
		t.Error("a URL is not a local regular file")
	}
}

func TestExtractEmbeddedDocument(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		opts    []ExtractOption
		want    string
		wantErr bool
	}{
		{"mendeley style", ":files/a.pdf:pdf", nil, "/files/a.pdf", false},
		{"already absolute", "/home/u/a.pdf", nil, "/home/u/a.pdf", false},
		{"raw paths", ":files/a.pdf:pdf", []ExtractOption{WithoutSeparatorFix()}, "files/a.pdf", false},
		{"absent", "", nil, "", true},
		{"only separators", ":::", nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := New(entryWith(map[string]string{"file": tt.file, "title": "T"}), nil, "k")
			got, err := p.ExtractEmbeddedDocument(false, tt.opts...)
			if tt.wantErr {
				if !errors.Is(err, ErrNoDocumentFile) {
					t.Fatalf("error = %v, want ErrNoDocumentFile", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ExtractEmbeddedDocument() = %q, want %q", got, tt.want)
			}
			if p.Entry.File != tt.file {
				t.Error("field removed without remove set")
			}
		})
	}
}

func TestExtractEmbeddedDocument_Remove(t *testing.T) {
	p, _ := New(entryWith(map[string]string{"file": ":files/a.pdf:pdf"}), nil, "k")
	if _, err := p.ExtractEmbeddedDocument(true); err != nil {
		t.Fatal(err)
	}
	if p.Entry.File != "" {
		t.Errorf("file field = %q, want removed", p.Entry.File)
	}

	p, _ = New(entryWith(map[string]string{"file": "::"}), nil, "k")
	if _, err := p.ExtractEmbeddedDocument(true); !errors.Is(err, ErrNoDocumentFile) {
		t.Fatalf("error = %v", err)
	}
	if p.Entry.File != "" {
		t.Error("unusable field should still be removed")
	}
}

func TestPersist(t *testing.T) {
	t.Run("missing citekey writes nothing", func(t *testing.T) {
		w := &recordingWriter{}
		p, _ := New(nil, nil, "")
		err := p.Persist(w, "e.bib", "m.yaml")
		if !errors.Is(err, ErrMissingCitekey) {
			t.Fatalf("error = %v, want ErrMissingCitekey", err)
		}
		if len(w.writes) != 0 {
			t.Errorf("writes = %v, want none", w.writes)
		}
	})

	t.Run("entry then metadata", func(t *testing.T) {
		w := &recordingWriter{}
		p, _ := New(nil, nil, "Smith2020")
		if err := p.Persist(w, "e.bib", "m.yaml"); err != nil {
			t.Fatal(err)
		}
		want := []string{"entry:e.bib:Smith2020", "meta:m.yaml"}
		if strings.Join(w.writes, "|") != strings.Join(want, "|") {
			t.Errorf("writes = %v, want %v", w.writes, want)
		}
	})
}

func TestTagsAndNotes(t *testing.T) {
	p, _ := New(nil, nil, "k")
	p.AddTags("ml", "", "bio", "ml")
	if got := p.Metadata.Tags.Sorted(); strings.Join(got, ",") != "bio,ml" {
		t.Errorf("tags = %v", got)
	}
	p.RemoveTags("ml")
	if p.Metadata.Tags.Has("ml") {
		t.Error("ml should be removed")
	}
	p.AddNote("first")
	p.AddNote("second")
	if len(p.Metadata.Notes) != 2 || p.Metadata.Notes[1] != "second" {
		t.Errorf("notes = %v", p.Metadata.Notes)
	}
}

func TestEqual(t *testing.T) {
	a, _ := New(entryWith(map[string]string{"title": "T"}), nil, "k")
	b, _ := New(entryWith(map[string]string{"title": "T"}), nil, "k")
	if !a.Equal(b) {
		t.Error("identical papers should be equal")
	}
	b.AddTags("x")
	if a.Equal(b) {
		t.Error("papers with different tags should differ")
	}
}

func TestOneliner(t *testing.T) {
	p, _ := New(entryWith(map[string]string{
		"author":  "Doe, Jane and Roe, Rick",
		"title":   "On Things",
		"journal": "J. Stuff",
		"year":    "2021",
	}), nil, "Doe2021")
	p.AddTags("ml")

	want := `[Doe2021] Doe et al. "On Things" J. Stuff (2021) | ml`
	if got := p.Oneliner(); got != want {
		t.Errorf("Oneliner() = %q, want %q", got, want)
	}
}
