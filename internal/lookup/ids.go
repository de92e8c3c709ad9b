package lookup

import (
	"fmt"
	"regexp"
	"strings"
)

var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/\S+$`)

// doiPrefixes are stripped by StandardizeDOI, longest first.
var doiPrefixes = []string{
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"https://doi.org/",
	"http://doi.org/",
	"dx.doi.org/",
	"doi.org/",
	"doi:",
}

// StandardizeDOI strips URL and "doi:" prefixes and checks the result has
// the 10.<registrant>/<suffix> shape.
func StandardizeDOI(doi string) (string, error) {
	d := strings.TrimSpace(doi)
	lower := strings.ToLower(d)
	for _, prefix := range doiPrefixes {
		if strings.HasPrefix(lower, prefix) {
			d = strings.TrimSpace(d[len(prefix):])
			break
		}
	}
	if !doiPattern.MatchString(d) {
		return "", fmt.Errorf("%w: DOI %q", ErrInvalidID, doi)
	}
	return d, nil
}

// NormalizeISBN removes hyphens and spaces and checks the ISBN-10 or
// ISBN-13 checksum.
func NormalizeISBN(isbn string) (string, error) {
	var b strings.Builder
	for _, r := range strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(isbn)), "ISBN") {
		switch {
		case r >= '0' && r <= '9', r == 'X':
			b.WriteRune(r)
		case r == '-' || r == ' ' || r == ':':
		default:
			return "", fmt.Errorf("%w: ISBN %q", ErrInvalidID, isbn)
		}
	}
	s := b.String()

	var ok bool
	switch len(s) {
	case 10:
		ok = validISBN10(s)
	case 13:
		ok = validISBN13(s)
	}
	if !ok {
		return "", fmt.Errorf("%w: ISBN %q", ErrInvalidID, isbn)
	}
	return s, nil
}

func validISBN10(s string) bool {
	sum := 0
	for i, r := range s {
		var d int
		switch {
		case r == 'X' && i == 9:
			d = 10
		case r >= '0' && r <= '9':
			d = int(r - '0')
		default:
			return false
		}
		sum += (10 - i) * d
	}
	return sum%11 == 0
}

func validISBN13(s string) bool {
	sum := 0
	for i, r := range s {
		if r < '0' || r > '9' {
			return false
		}
		d := int(r - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return sum%10 == 0
}
