package content

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestIsURL(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"https://example.org/paper.pdf", true},
		{"http://example.org", true},
		{"ftp://files.example.org/a.ps", true},
		{"/home/user/paper.pdf", false},
		{"paper.pdf", false},
		{"file:///tmp/a.pdf", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IsURL(tt.input); got != tt.want {
				t.Errorf("IsURL(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNameFromPath(t *testing.T) {
	tests := []struct {
		input    string
		wantName string
		wantExt  string
	}{
		{"/tmp/paper.pdf", "paper", ".pdf"},
		{"relative/dir/notes.tar.gz", "notes.tar", ".gz"},
		{"noext", "noext", ""},
		{"https://example.org/files/doc.ps?download=1", "doc", ".ps"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			name, ext := NameFromPath(tt.input)
			if name != tt.wantName || ext != tt.wantExt {
				t.Errorf("NameFromPath(%q) = (%q, %q), want (%q, %q)", tt.input, name, ext, tt.wantName, tt.wantExt)
			}
		})
	}
}

func TestCheckFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.pdf")
	if err := os.WriteFile(file, []byte("pdf"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CheckFile(file); err != nil {
		t.Errorf("CheckFile(existing) = %v", err)
	}
	if err := CheckFile(filepath.Join(dir, "missing.pdf")); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("CheckFile(missing) = %v, want ErrFileNotFound", err)
	}
	if err := CheckFile(dir); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("CheckFile(dir) = %v, want ErrFileNotFound", err)
	}
}

func TestCopy_LocalFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.pdf")
	dst := filepath.Join(dir, "store", "doc", "Key2020.pdf")
	if err := os.WriteFile(src, []byte("%PDF-1.4 content"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Copy(context.Background(), src, dst); err != nil {
		t.Fatalf("Copy() error = %v", err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("reading copy: %v", err)
	}
	if string(got) != "%PDF-1.4 content" {
		t.Errorf("copied content = %q", got)
	}
	if _, err := os.Stat(src); err != nil {
		t.Errorf("Copy() removed source: %v", err)
	}

	entries, _ := os.ReadDir(filepath.Dir(dst))
	if len(entries) != 1 {
		t.Errorf("document dir has %d entries, want only the copy", len(entries))
	}
}

func TestCopy_MissingSource(t *testing.T) {
	dir := t.TempDir()
	err := Copy(context.Background(), filepath.Join(dir, "nope.pdf"), filepath.Join(dir, "out.pdf"))
	if !errors.Is(err, ErrFileNotFound) {
		t.Errorf("Copy(missing) = %v, want ErrFileNotFound", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "out.pdf")); !os.IsNotExist(err) {
		t.Error("Copy(missing) created destination")
	}
}

func TestCopyAndGet_URL(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.pdf" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("remote body"))
	}))
	defer ts.Close()

	text, err := Get(context.Background(), ts.URL+"/paper.pdf")
	if err != nil {
		t.Fatalf("Get(url) error = %v", err)
	}
	if text != "remote body" {
		t.Errorf("Get(url) = %q", text)
	}

	dst := filepath.Join(t.TempDir(), "paper.pdf")
	if err := Copy(context.Background(), ts.URL+"/paper.pdf", dst); err != nil {
		t.Fatalf("Copy(url) error = %v", err)
	}
	if _, err := Get(context.Background(), ts.URL+"/missing.pdf"); err == nil {
		t.Error("Get(404) error = nil, want error")
	}
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.pdf")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Remove(file); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := os.Stat(file); !os.IsNotExist(err) {
		t.Error("Remove() left the file")
	}
	if err := Remove(file); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("Remove(missing) = %v, want ErrFileNotFound", err)
	}
	if err := Remove("https://example.org/a.pdf"); err != nil {
		t.Errorf("Remove(url) = %v, want nil", err)
	}
}

func TestGet_LocalFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "entry.bib")
	if err := os.WriteFile(file, []byte("@article{k, year = 1}"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Get(context.Background(), file)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "@article{k, year = 1}" {
		t.Errorf("Get() = %q", got)
	}
}
