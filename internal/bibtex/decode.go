package bibtex

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// ErrDecoding is the sentinel wrapped by every decoding failure.
var ErrDecoding = errors.New("bibtex decoding error")

// DecodeError describes malformed input.
type DecodeError struct {
	Line int
	Msg  string
}

func (e *DecodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("bibtex decoding error: line %d: %s", e.Line, e.Msg)
	}
	return "bibtex decoding error: " + e.Msg
}

func (e *DecodeError) Unwrap() error { return ErrDecoding }

// typePattern matches valid entry type tokens.
var typePattern = regexp.MustCompile(`^[a-z]+$`)

// Decode parses every entry in text. Text outside entries is ignored, as
// BibTeX does.
func Decode(text string) (Bibliography, error) {
	p := &parser{src: []rune(text), line: 1}
	var bib Bibliography
	seen := make(map[string]bool)

	for {
		if !p.skipTo('@') {
			return bib, nil
		}
		p.next() // '@'
		p.skipSpace()
		entryType := strings.ToLower(p.readIdent())
		if entryType == "" {
			return nil, p.errorf("missing entry type after '@'")
		}

		p.skipSpace()
		open := p.next()
		var closing rune
		switch open {
		case '{':
			closing = '}'
		case '(':
			closing = ')'
		default:
			return nil, p.errorf("expected '{' or '(' after @%s", entryType)
		}

		switch entryType {
		case "comment", "preamble", "string":
			if err := p.skipBlock(open, closing); err != nil {
				return nil, err
			}
			continue
		}

		keyed, err := p.readEntry(entryType, closing)
		if err != nil {
			return nil, err
		}
		if seen[keyed.Key] {
			return nil, p.errorf("duplicate key %q", keyed.Key)
		}
		seen[keyed.Key] = true
		bib = append(bib, keyed)
	}
}

// DecodeEntry decodes text that must hold exactly one valid entry.
func DecodeEntry(text string) (Keyed, error) {
	bib, err := Decode(text)
	if err != nil {
		return Keyed{}, err
	}
	return Verify(bib)
}

// Verify checks the structural rules for a single-entry bibliography and
// returns its entry.
func Verify(bib Bibliography) (Keyed, error) {
	if len(bib) != 1 {
		return Keyed{}, &DecodeError{Msg: fmt.Sprintf("expected exactly one entry, found %d", len(bib))}
	}
	k := bib[0]
	if !typePattern.MatchString(k.Entry.Type) {
		return Keyed{}, &DecodeError{Msg: fmt.Sprintf("invalid entry type %q", k.Entry.Type)}
	}
	if k.Entry.IsEmpty() {
		return Keyed{}, &DecodeError{Msg: fmt.Sprintf("entry %q has no fields", k.Key)}
	}
	return k, nil
}

type parser struct {
	src  []rune
	pos  int
	line int
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return &DecodeError{Line: p.line, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() rune {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) next() rune {
	if p.eof() {
		return 0
	}
	r := p.src[p.pos]
	p.pos++
	if r == '\n' {
		p.line++
	}
	return r
}

func (p *parser) skipSpace() {
	for !p.eof() && unicode.IsSpace(p.peek()) {
		p.next()
	}
}

// skipTo advances to the next occurrence of r and reports whether one was found.
func (p *parser) skipTo(r rune) bool {
	for !p.eof() {
		if p.peek() == r {
			return true
		}
		p.next()
	}
	return false
}

func (p *parser) readIdent() string {
	var b strings.Builder
	for !p.eof() {
		r := p.peek()
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("_-:.+/", r) {
			b.WriteRune(p.next())
			continue
		}
		break
	}
	return b.String()
}

// skipBlock skips to the delimiter matching an already consumed opener.
func (p *parser) skipBlock(open, closing rune) error {
	depth := 1
	for !p.eof() {
		switch p.next() {
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return nil
			}
		}
	}
	return p.errorf("unterminated @%c block", open)
}

func (p *parser) readEntry(entryType string, closing rune) (Keyed, error) {
	p.skipSpace()
	var kb strings.Builder
	for !p.eof() && p.peek() != ',' && p.peek() != closing {
		kb.WriteRune(p.next())
	}
	key := strings.TrimSpace(kb.String())

	entry := NewEntry(entryType)
	for {
		p.skipSpace()
		switch p.peek() {
		case 0:
			return Keyed{}, p.errorf("unterminated entry %q", key)
		case closing:
			p.next()
			return Keyed{Key: key, Entry: entry}, nil
		case ',':
			p.next()
			continue
		}

		name := strings.ToLower(p.readIdent())
		if name == "" {
			return Keyed{}, p.errorf("expected field name in entry %q, found %q", key, p.peek())
		}
		p.skipSpace()
		if p.next() != '=' {
			return Keyed{}, p.errorf("expected '=' after field %q", name)
		}
		value, err := p.readValue(closing)
		if err != nil {
			return Keyed{}, err
		}
		entry.SetField(name, normalizeSpace(value))
	}
}

// readValue reads a possibly '#'-concatenated field value.
func (p *parser) readValue(closing rune) (string, error) {
	var b strings.Builder
	for {
		p.skipSpace()
		part, err := p.readPart(closing)
		if err != nil {
			return "", err
		}
		b.WriteString(part)
		p.skipSpace()
		if p.peek() != '#' {
			return b.String(), nil
		}
		p.next()
	}
}

func (p *parser) readPart(closing rune) (string, error) {
	switch p.peek() {
	case '{':
		p.next()
		return p.readBraced()
	case '"':
		p.next()
		return p.readQuoted()
	}
	var b strings.Builder
	for !p.eof() {
		r := p.peek()
		if r == ',' || r == closing || r == '#' || unicode.IsSpace(r) {
			break
		}
		b.WriteRune(p.next())
	}
	if b.Len() == 0 {
		return "", p.errorf("empty field value")
	}
	return b.String(), nil
}

// readBraced reads up to the brace matching an already consumed '{'.
func (p *parser) readBraced() (string, error) {
	var b strings.Builder
	depth := 1
	for !p.eof() {
		r := p.next()
		switch r {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b.String(), nil
			}
		}
		b.WriteRune(r)
	}
	return "", p.errorf("unbalanced braces in field value")
}

// readQuoted reads up to the closing '"' outside braces.
func (p *parser) readQuoted() (string, error) {
	var b strings.Builder
	depth := 0
	for !p.eof() {
		r := p.next()
		switch {
		case r == '{':
			depth++
		case r == '}':
			depth--
		case r == '"' && depth == 0:
			return b.String(), nil
		}
		b.WriteRune(r)
	}
	return "", p.errorf("unterminated quoted field value")
}

// normalizeSpace collapses whitespace runs to single spaces.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
