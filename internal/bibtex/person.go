package bibtex

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Person is a name split into the four BibTeX name parts.
type Person struct {
	First string `json:"first,omitempty" yaml:"first,omitempty"`
	Von   string `json:"von,omitempty" yaml:"von,omitempty"`
	Last  string `json:"last" yaml:"last"`
	Jr    string `json:"jr,omitempty" yaml:"jr,omitempty"`
}

// LastNames returns the words of the last name.
func (p Person) LastNames() []string {
	return splitWords(p.Last)
}

// String formats the person in BibTeX "von Last, Jr, First" order.
// The last name is braced when the plain form would parse back into
// different name parts.
func (p Person) String() string {
	plain := p.format(p.Last)
	if p.Last == "" || p.parsesAs(plain) {
		return plain
	}
	return p.format("{" + p.Last + "}")
}

func (p Person) format(last string) string {
	head := strings.TrimSpace(p.Von + " " + last)
	switch {
	case p.Jr != "":
		return head + ", " + p.Jr + ", " + p.First
	case p.First != "":
		return head + ", " + p.First
	default:
		return head
	}
}

func (p Person) parsesAs(s string) bool {
	persons := ParsePersons(s)
	return len(persons) == 1 && persons[0] == p
}

// ParsePersons splits a BibTeX name list on top-level "and".
// An empty value yields an empty, non-nil list.
func ParsePersons(value string) []Person {
	persons := []Person{}
	var current []string
	flush := func() {
		if len(current) > 0 {
			persons = append(persons, ParsePerson(strings.Join(current, " ")))
			current = nil
		}
	}
	for _, w := range splitWords(value) {
		if strings.EqualFold(w, "and") {
			flush()
			continue
		}
		current = append(current, w)
	}
	flush()
	return persons
}

// ParsePerson parses a single name in any of the three BibTeX forms:
// "First von Last", "von Last, First" and "von Last, Jr, First".
func ParsePerson(name string) Person {
	parts := splitTopLevel(name, ',')
	for i := range parts {
		parts[i] = strings.Join(splitWords(parts[i]), " ")
	}

	var p Person
	switch len(parts) {
	case 0:
		return Person{}
	case 1:
		p = parseFirstVonLast(splitWords(parts[0]))
	case 2:
		von, last := splitVonLast(splitWords(parts[0]))
		p = Person{First: parts[1], Von: von, Last: last}
	default:
		von, last := splitVonLast(splitWords(parts[0]))
		p = Person{First: strings.Join(parts[2:], ", "), Von: von, Last: last, Jr: parts[1]}
	}
	p.Last = unbrace(p.Last)
	return p
}

// unbrace strips one brace pair enclosing the whole of s.
func unbrace(s string) string {
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return s
	}
	depth := 0
	for i, r := range s {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 && i != len(s)-1 {
				return s
			}
		}
	}
	return s[1 : len(s)-1]
}

// parseFirstVonLast handles the comma-free form.
func parseFirstVonLast(words []string) Person {
	if len(words) == 0 {
		return Person{}
	}
	if len(words) == 1 {
		return Person{Last: words[0]}
	}

	// The von part starts at the first lowercase word before the final word.
	vonStart := -1
	for i := 0; i < len(words)-1; i++ {
		if isLowerWord(words[i]) {
			vonStart = i
			break
		}
	}
	if vonStart < 0 {
		return Person{
			First: strings.Join(words[:len(words)-1], " "),
			Last:  words[len(words)-1],
		}
	}

	vonEnd := vonStart
	for i := vonStart; i < len(words)-1; i++ {
		if isLowerWord(words[i]) {
			vonEnd = i
		}
	}
	return Person{
		First: strings.Join(words[:vonStart], " "),
		Von:   strings.Join(words[vonStart:vonEnd+1], " "),
		Last:  strings.Join(words[vonEnd+1:], " "),
	}
}

// splitVonLast separates leading lowercase words from the last name.
// The final word always belongs to the last name.
func splitVonLast(words []string) (string, string) {
	i := 0
	for i < len(words)-1 && isLowerWord(words[i]) {
		i++
	}
	return strings.Join(words[:i], " "), strings.Join(words[i:], " ")
}

func isLowerWord(w string) bool {
	r, _ := utf8.DecodeRuneInString(w)
	return unicode.IsLower(r)
}

func formatPersons(persons []Person) string {
	names := make([]string, len(persons))
	for i, p := range persons {
		names[i] = p.String()
	}
	return strings.Join(names, " and ")
}

// splitWords splits on whitespace outside braces.
func splitWords(s string) []string {
	var words []string
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '{':
			depth++
		case r == '}' && depth > 0:
			depth--
		case unicode.IsSpace(r) && depth == 0:
			if b.Len() > 0 {
				words = append(words, b.String())
				b.Reset()
			}
			continue
		}
		b.WriteRune(r)
	}
	if b.Len() > 0 {
		words = append(words, b.String())
	}
	return words
}

// splitTopLevel splits s on sep outside braces and trims each part.
func splitTopLevel(s string, sep rune) []string {
	var parts []string
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '{':
			depth++
		case r == '}' && depth > 0:
			depth--
		case r == sep && depth == 0:
			parts = append(parts, strings.TrimSpace(b.String()))
			b.Reset()
			continue
		}
		b.WriteRune(r)
	}
	if last := strings.TrimSpace(b.String()); last != "" || len(parts) > 0 {
		parts = append(parts, last)
	}
	return parts
}
