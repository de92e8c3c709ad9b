// Package importer reads bibliographies exported by other reference
// managers.
package importer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/matsen/papyrus/internal/bibtex"
	"github.com/matsen/papyrus/internal/citekey"
	"github.com/matsen/papyrus/internal/paper"
)

// FlexibleString accepts either a JSON string or a JSON number.
type FlexibleString string

func (f *FlexibleString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexibleString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexibleString(n.String())
		return nil
	}

	return fmt.Errorf("cannot unmarshal %s into FlexibleString", string(data))
}

func (f FlexibleString) String() string {
	return string(f)
}

// PaperpileEntry is one item of a Paperpile JSON export.
type PaperpileEntry struct {
	ID        string `json:"_id"`
	Citekey   string `json:"citekey"`
	PubType   string `json:"pubtype"`
	DOI       string `json:"doi"`
	Title     string `json:"title"`
	Abstract  string `json:"abstract"`
	Journal   string `json:"journal"`
	Volume    string `json:"volume"`
	Pages     string `json:"pages"`
	Published struct {
		Year  FlexibleString `json:"year"`
		Month FlexibleString `json:"month"`
	} `json:"published"`
	Author []struct {
		First string `json:"first"`
		Last  string `json:"last"`
	} `json:"author"`
	Labels      []string `json:"labelsNamed"`
	Attachments []struct {
		ArticlePDF int    `json:"article_pdf"` // 1 = main PDF, 0 = supplement
		Filename   string `json:"filename"`
	} `json:"attachments"`
}

// Record is an imported entry together with its attachments. Attachment
// paths are relative to the export's attachment folder.
type Record struct {
	Key         string
	Entry       bibtex.Entry
	Tags        []string
	Document    string
	Supplements []string
}

// Paper builds the paper record for r. Supplements are kept as notes. A
// record without a key gets the generated citekey.
func (r Record) Paper() (*paper.Paper, error) {
	key := r.Key
	if key == "" {
		var err error
		if key, err = paper.GenerateCitekey(r.Entry); err != nil {
			return nil, err
		}
	}
	meta := paper.BaseMeta()
	for _, s := range r.Supplements {
		meta.Notes = append(meta.Notes, "supplement: "+s)
	}
	p, err := paper.New(&r.Entry, &meta, key)
	if err != nil {
		return nil, err
	}
	p.AddTags(r.Tags...)
	return p, nil
}

// ParsePaperpile decodes a Paperpile JSON export. Entries that cannot be
// converted are reported in the error list and skipped.
func ParsePaperpile(data []byte) ([]Record, []error) {
	var entries []PaperpileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, []error{fmt.Errorf("parsing Paperpile JSON: %w", err)}
	}

	var records []Record
	var errs []error
	for i, entry := range entries {
		rec, err := entry.record()
		if err != nil {
			errs = append(errs, fmt.Errorf("entry %d (%s): %w", i+1, entry.Citekey, err))
			continue
		}
		records = append(records, rec)
	}
	return records, errs
}

func (e PaperpileEntry) record() (Record, error) {
	if e.Title == "" {
		return Record{}, fmt.Errorf("missing required field 'title'")
	}
	if len(e.Author) == 0 {
		return Record{}, fmt.Errorf("missing required field 'author'")
	}
	year := e.Published.Year.String()
	if year == "" {
		return Record{}, fmt.Errorf("missing required field 'published.year'")
	}
	if _, err := strconv.Atoi(year); err != nil {
		return Record{}, fmt.Errorf("invalid year: %s", year)
	}

	entry := bibtex.NewEntry(entryType(e.PubType, e.Journal))
	entry.Author = make([]bibtex.Person, len(e.Author))
	for i, a := range e.Author {
		// Paperpile keeps particles in the last name.
		entry.Author[i] = bibtex.ParsePerson(a.Last + ", " + a.First)
	}
	entry.Title = e.Title
	entry.Year = year

	if month, err := strconv.Atoi(e.Published.Month.String()); err == nil && month >= 1 && month <= 12 {
		entry.SetField("month", strconv.Itoa(month))
	}
	venue := "journal"
	if entry.Type == "inproceedings" {
		venue = "booktitle"
	}
	for name, value := range map[string]string{
		venue:      e.Journal,
		"doi":      e.DOI,
		"abstract": e.Abstract,
		"volume":   e.Volume,
		"pages":    e.Pages,
	} {
		if value != "" {
			entry.SetField(name, value)
		}
	}

	// Paperpile keys are free text; fall back to the item id.
	key := strings.TrimSpace(citekey.Sanitize(e.Citekey))
	if key == "" {
		key = strings.TrimSpace(citekey.Sanitize(e.ID))
	}

	rec := Record{Key: key, Entry: entry, Tags: e.Labels}
	for _, att := range e.Attachments {
		if att.ArticlePDF == 1 && rec.Document == "" {
			rec.Document = att.Filename
		} else {
			rec.Supplements = append(rec.Supplements, att.Filename)
		}
	}
	return rec, nil
}

// entryType maps a Paperpile publication type to a BibTeX entry type,
// guessing from the venue when the type is unknown.
func entryType(pubType, venue string) string {
	switch pubType {
	case "JOUR", "journal":
		return "article"
	case "BOOK", "book":
		return "book"
	case "CHAP", "chapter":
		return "incollection"
	case "CONF", "conference":
		return "inproceedings"
	case "THES", "thesis":
		return "phdthesis"
	}

	v := strings.ToLower(venue)
	for _, word := range []string{"proceedings", "conference", "workshop", "symposium"} {
		if strings.Contains(v, word) {
			return "inproceedings"
		}
	}
	return "article"
}
