package pdf

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matsen/papyrus/internal/content"
)

func TestFindDOI(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"plain", "Published version: 10.1038/nature12373 online", "10.1038/nature12373"},
		{"trailing punctuation", "see doi:10.1101/2020.01.01.123456.", "10.1101/2020.01.01.123456"},
		{"in parentheses", "(https://doi.org/10.7554/eLife.01234)", "10.7554/eLife.01234"},
		{"first wins", "10.1000/first and 10.1000/second", "10.1000/first"},
		{"none", "no identifier here", ""},
		{"too short registrant", "10.12/abc", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := findDOI(tt.text); got != tt.want {
				t.Errorf("findDOI() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractDOI_NotPDF(t *testing.T) {
	if _, err := ExtractDOI(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Error("ExtractDOI() should fail for a missing file")
	}
}

func TestOpenerCommand(t *testing.T) {
	tests := []struct {
		goos, reader, path string
		want               string
	}{
		{"linux", "system", "/a/x.pdf", "xdg-open /a/x.pdf"},
		{"linux", "zathura", "/a/x.pdf", "zathura /a/x.pdf"},
		{"linux", "zathura", "https://e.org/x.pdf", "xdg-open https://e.org/x.pdf"},
		{"darwin", "skim", "/a/x.pdf", "open -a Skim /a/x.pdf"},
		{"darwin", "", "/a/x.pdf", "open /a/x.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.reader, func(t *testing.T) {
			o := NewOpener(tt.reader)
			o.goos = tt.goos
			cmd, err := o.Command(tt.path)
			if err != nil {
				t.Fatal(err)
			}
			if got := strings.Join(cmd.Args, " "); got != tt.want {
				t.Errorf("Command() = %q, want %q", got, tt.want)
			}
		})
	}

	o := NewOpener("system")
	o.goos = "plan9"
	if _, err := o.Command("/a/x.pdf"); err == nil {
		t.Error("Command() should fail on an unsupported platform")
	}
}

func TestOpen_Missing(t *testing.T) {
	err := NewOpener("system").Open(filepath.Join(t.TempDir(), "missing.pdf"))
	if !errors.Is(err, content.ErrFileNotFound) {
		t.Errorf("Open() error = %v, want ErrFileNotFound", err)
	}
}
