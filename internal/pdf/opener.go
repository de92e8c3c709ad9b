// Package pdf reads DOIs from PDF documents and opens documents in a viewer.
package pdf

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/matsen/papyrus/internal/content"
)

// Opener opens documents with the configured reader.
type Opener struct {
	reader string
	goos   string
}

// NewOpener creates an opener for a pdf_reader value.
func NewOpener(reader string) *Opener {
	if reader == "" {
		reader = "system"
	}
	return &Opener{reader: reader, goos: runtime.GOOS}
}

// Open starts a viewer on a local document or URL and does not wait for it.
func (o *Opener) Open(path string) error {
	if !content.IsURL(path) {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("%w: %s", content.ErrFileNotFound, path)
			}
			return fmt.Errorf("checking document: %w", err)
		}
	}

	cmd, err := o.Command(path)
	if err != nil {
		return err
	}
	return cmd.Start()
}

// Command returns the viewer command for path. URLs always go to the
// system handler.
func (o *Opener) Command(path string) (*exec.Cmd, error) {
	reader := o.reader
	if content.IsURL(path) {
		reader = "system"
	}

	switch o.goos {
	case "darwin":
		return darwinCommand(reader, path), nil
	case "linux":
		return linuxCommand(reader, path), nil
	}
	return nil, fmt.Errorf("unsupported platform: %s", o.goos)
}

func darwinCommand(reader, path string) *exec.Cmd {
	switch reader {
	case "skim":
		return exec.Command("open", "-a", "Skim", path)
	case "preview":
		return exec.Command("open", "-a", "Preview", path)
	default: // "system"
		return exec.Command("open", path)
	}
}

func linuxCommand(reader, path string) *exec.Cmd {
	switch reader {
	case "zathura", "evince", "okular":
		return exec.Command(reader, path)
	default: // "system"
		return exec.Command("xdg-open", path)
	}
}
