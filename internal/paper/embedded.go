package paper

import (
	"fmt"
	"os"
	"strings"
)

type extractOptions struct {
	fixSeparator bool
}

// ExtractOption configures ExtractEmbeddedDocument.
type ExtractOption func(*extractOptions)

// WithSeparatorFix toggles prefixing a path separator to relative
// candidates. Mendeley exports store absolute paths without the leading
// separator. Enabled by default.
func WithSeparatorFix(enabled bool) ExtractOption {
	return func(o *extractOptions) {
		o.fixSeparator = enabled
	}
}

// WithoutSeparatorFix returns candidates exactly as written in the entry.
func WithoutSeparatorFix() ExtractOption {
	return WithSeparatorFix(false)
}

// ExtractEmbeddedDocument returns the document path stored in the entry's
// file field. The field may hold a colon-separated list; the first non-empty
// candidate is used. With remove set, the field is deleted from the entry
// whenever it is present.
func (p *Paper) ExtractEmbeddedDocument(remove bool, opts ...ExtractOption) (string, error) {
	o := extractOptions{fixSeparator: true}
	for _, opt := range opts {
		opt(&o)
	}

	field := p.Entry.File
	if field == "" {
		return "", fmt.Errorf("%w: no file field in entry", ErrNoDocumentFile)
	}

	var candidate string
	for _, c := range strings.Split(field, ":") {
		if c != "" {
			candidate = c
			break
		}
	}
	if remove {
		p.Entry.File = ""
	}
	if candidate == "" {
		return "", fmt.Errorf("%w: no path in file field %q", ErrNoDocumentFile, field)
	}

	sep := string(os.PathSeparator)
	if o.fixSeparator && !strings.HasPrefix(candidate, sep) {
		candidate = sep + candidate
	}
	return candidate, nil
}
