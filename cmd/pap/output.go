package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/matsen/papyrus/internal/add"
	"github.com/matsen/papyrus/internal/bibtex"
	"github.com/matsen/papyrus/internal/citekey"
	"github.com/matsen/papyrus/internal/config"
	"github.com/matsen/papyrus/internal/content"
	"github.com/matsen/papyrus/internal/lookup"
	"github.com/matsen/papyrus/internal/paper"
	"github.com/matsen/papyrus/internal/repository"
)

const (
	DefaultListLimit = 50 // Default limit for list/search commands
	ListTitleMaxLen  = 60 // Title truncation in tables
	ListAuthorMaxLen = 30 // Author truncation in tables
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// exitCodeFor maps an error to its exit code.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, repository.ErrLocked):
		return ExitLocked
	case errors.Is(err, add.ErrCitekeyCollision), errors.Is(err, repository.ErrCitekeyExists):
		return ExitCollision
	case errors.Is(err, add.ErrLookupFailure),
		errors.Is(err, lookup.ErrNotFound),
		errors.Is(err, lookup.ErrRateLimited),
		errors.Is(err, lookup.ErrAPIError),
		errors.Is(err, lookup.ErrNetworkError),
		errors.Is(err, repository.ErrPaperNotFound):
		return ExitLookupError
	case errors.Is(err, bibtex.ErrDecoding),
		errors.Is(err, citekey.ErrInvalid),
		errors.Is(err, lookup.ErrInvalidID),
		errors.Is(err, paper.ErrMissingAuthor),
		errors.Is(err, paper.ErrMissingCitekey),
		errors.Is(err, paper.ErrNoDocumentFile),
		errors.Is(err, paper.ErrInconsistentMetadata),
		errors.Is(err, content.ErrFileNotFound):
		return ExitDataError
	case errors.Is(err, config.ErrNotRepository),
		errors.Is(err, config.ErrUnknownKey),
		errors.Is(err, repository.ErrAlreadyInitialized):
		return ExitConfigError
	}
	return ExitError
}

// ErrorResponse is the JSON shape of a failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status  string `json:"status"`
	Path    string `json:"path,omitempty"`
	Citekey string `json:"citekey,omitempty"`
	Count   *int   `json:"count,omitempty"`
}

// truncate shortens s to max runes, marking the cut with "...".
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// renderTable formats rows under headers with go-pretty. Columns listed in
// rightAligned are right-aligned.
func renderTable(headers []string, rows [][]string, rightAligned ...int) string {
	if len(headers) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, len(headers))
	for i := range headers {
		configs[i] = table.ColumnConfig{Number: i + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft}
	}
	for _, col := range rightAligned {
		if col >= 0 && col < len(configs) {
			configs[col].Align = text.AlignRight
		}
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// joinTags formats tags for a table cell.
func joinTags(tags []string) string {
	return strings.Join(tags, ", ")
}
