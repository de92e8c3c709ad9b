// Package citekey converts arbitrary text into identifiers that are safe both
// as filenames and unescaped inside BibTeX.
package citekey

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrInvalid is returned when a citekey is not equal to its sanitized form.
var ErrInvalid = errors.New("invalid citekey")

// Forbidden lists the printable characters removed from citekeys.
// '/' is legal BibTeX but citekeys double as filenames.
const Forbidden = `@'\,#}{~%/`

// Sanitize returns the citekey-safe form of s: NFKD normalization, then
// only printable ASCII outside Forbidden is kept.
func Sanitize(s string) string {
	decomposed := norm.NFKD.String(s)

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if isControl(r) || r > 0x7e {
			continue
		}
		if strings.ContainsRune(Forbidden, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Valid reports whether key is already in sanitized form.
func Valid(key string) bool {
	return key == Sanitize(key)
}

// Check returns an error wrapping ErrInvalid if key is not valid.
func Check(key string) error {
	if !Valid(key) {
		return fmt.Errorf("%w: %q", ErrInvalid, key)
	}
	return nil
}

// CheckStored is Check for keys that name stored papers. BibTeX readers
// drop whitespace around a key, so such keys would not survive a reload.
func CheckStored(key string) error {
	if err := Check(key); err != nil {
		return err
	}
	if key != strings.TrimSpace(key) {
		return fmt.Errorf("%w: surrounding whitespace in %q", ErrInvalid, key)
	}
	return nil
}

// isControl matches code points 0-31 and 127-159.
func isControl(r rune) bool {
	return r < 0x20 || (r >= 0x7f && r <= 0x9f)
}
