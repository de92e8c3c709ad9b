package export

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matsen/papyrus/internal/bibtex"
	"github.com/matsen/papyrus/internal/paper"
)

func mustPaper(t *testing.T, key, text string) *paper.Paper {
	t.Helper()
	k, err := bibtex.DecodeEntry(text)
	if err != nil {
		t.Fatalf("DecodeEntry() error = %v", err)
	}
	p, err := paper.New(&k.Entry, nil, key)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

func TestToBibTeX(t *testing.T) {
	p := mustPaper(t, "Smith2026", `@article{x,
  author = {Smith, John and Doe, Jane},
  title = {Test Paper},
  year = {2026},
  doi = {10.1234/test},
  file = {:/tmp/a.pdf:pdf},
}`)
	q := mustPaper(t, "Brown2025", `@book{y, editor = {Brown, Alice}, year = {2025}}`)

	got := ToBibTeX([]*paper.Paper{p, q})

	if !strings.HasPrefix(got, "@article{Smith2026,") {
		t.Errorf("ToBibTeX() should start with the first citekey, got:\n%s", got)
	}
	for _, want := range []string{
		"author = {Smith, John and Doe, Jane}",
		"doi = {10.1234/test}",
		"@book{Brown2025,",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("ToBibTeX() missing %q, got:\n%s", want, got)
		}
	}
	if strings.Contains(got, "file =") {
		t.Errorf("ToBibTeX() should drop the file field, got:\n%s", got)
	}
	if p.Entry.File == "" {
		t.Error("ToBibTeX() modified the paper")
	}

	bib, err := bibtex.Decode(got)
	if err != nil {
		t.Fatalf("exported text does not decode: %v", err)
	}
	if len(bib) != 2 || bib[1].Key != "Brown2025" {
		t.Errorf("decoded %+v", bib)
	}
}

func TestToBibTeX_Empty(t *testing.T) {
	if got := ToBibTeX(nil); got != "" {
		t.Errorf("ToBibTeX(nil) = %q, want empty", got)
	}
}

func TestParseBibTeXFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.bib")
	content := `@article{Smith2026,
  title = {A},
  doi = {https://doi.org/10.1234/ABC},
}

@misc( Jones2020 ,
  DOI = "10.5555/x"
)
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	idx, err := ParseBibTeXFile(path)
	if err != nil {
		t.Fatalf("ParseBibTeXFile() error = %v", err)
	}
	if !idx.Keys["Smith2026"] || !idx.Keys["Jones2020"] {
		t.Errorf("Keys = %v", idx.Keys)
	}
	want := map[string]string{"10.1234/abc": "Smith2026", "10.5555/x": "Jones2020"}
	if !reflect.DeepEqual(idx.DOIs, want) {
		t.Errorf("DOIs = %v, want %v", idx.DOIs, want)
	}
}

func TestParseBibTeXFile_Missing(t *testing.T) {
	idx, err := ParseBibTeXFile(filepath.Join(t.TempDir(), "nope.bib"))
	if err != nil {
		t.Fatalf("ParseBibTeXFile() error = %v", err)
	}
	if len(idx.Keys) != 0 {
		t.Errorf("Keys = %v, want empty", idx.Keys)
	}
}

func TestHasEntry(t *testing.T) {
	idx := NewBibTeXIndex()
	idx.Add("Smith2026", "10.1234/abc")

	tests := []struct {
		name, key, doi string
		want           bool
	}{
		{"same key", "Smith2026", "", true},
		{"doi match under other key", "Other", "doi:10.1234/ABC", true},
		{"new key and doi", "Other", "10.9/z", false},
		{"new key no doi", "Other", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := idx.HasEntry(tt.key, tt.doi); got != tt.want {
				t.Errorf("HasEntry(%q, %q) = %v, want %v", tt.key, tt.doi, got, tt.want)
			}
		})
	}
}

func TestFresh(t *testing.T) {
	idx := NewBibTeXIndex()
	idx.Add("Smith2026", "")
	idx.Add("Old", "10.1/a")

	bib := Bibliography([]*paper.Paper{
		mustPaper(t, "Smith2026", `@misc{a, year = {1}}`),
		mustPaper(t, "Renamed", `@misc{b, doi = {10.1/A}}`),
		mustPaper(t, "New", `@misc{c, year = {2}}`),
		mustPaper(t, "New", `@misc{d, year = {3}}`),
	})

	fresh, skipped := Fresh(idx, bib)
	if len(fresh) != 1 || fresh[0].Key != "New" {
		t.Errorf("fresh = %+v", fresh)
	}
	if !reflect.DeepEqual(skipped, []string{"Smith2026", "Renamed", "New"}) {
		t.Errorf("skipped = %v", skipped)
	}
}

func TestAppendToBibFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bib")
	if err := AppendToBibFile(path, "@misc{a, year = {1}}\n"); err != nil {
		t.Fatal(err)
	}
	if err := AppendToBibFile(path, "@misc{b, year = {2}}\n"); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	bib, err := bibtex.Decode(string(data))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(bib) != 2 {
		t.Errorf("got %d entries, want 2", len(bib))
	}
}
