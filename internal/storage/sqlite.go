package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/matsen/papyrus/internal/bibtex"
	"github.com/matsen/papyrus/internal/paper"
	_ "modernc.org/sqlite"
)

// DB is the SQLite index over a repository's papers. It is derived data:
// RebuildFromPapers recreates it from the files at any time.
type DB struct {
	db *sql.DB
}

// IndexedPaper is the summary of a paper held in the index.
type IndexedPaper struct {
	Citekey  string   `json:"citekey"`
	Type     string   `json:"type"`
	Title    string   `json:"title,omitempty"`
	Year     string   `json:"year,omitempty"`
	Authors  string   `json:"authors,omitempty"`
	Journal  string   `json:"journal,omitempty"`
	DOI      string   `json:"doi,omitempty"`
	Document string   `json:"document,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// tagSeparator joins tags in the text columns; tags may contain spaces.
const tagSeparator = "\n"

const selectPaperFields = `id, entry_type, title, year, authors_text, journal, doi, doc_path, tags_text`

// OpenDB opens or creates a SQLite index at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS papers (
			id TEXT PRIMARY KEY,
			entry_type TEXT NOT NULL,
			title TEXT,
			year TEXT,
			authors_text TEXT,
			journal TEXT,
			doi TEXT,
			doc_path TEXT,
			tags_text TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_papers_doi ON papers(doi) WHERE doi IS NOT NULL AND doi != '';

		CREATE TABLE IF NOT EXISTS paper_tags (
			paper_id TEXT NOT NULL,
			tag TEXT NOT NULL,
			PRIMARY KEY (paper_id, tag)
		);

		-- Standalone full-text table, kept in step with papers by Upsert
		CREATE VIRTUAL TABLE IF NOT EXISTS papers_fts USING fts5(
			id,
			title,
			authors_text,
			journal,
			year,
			tags_text
		);
	`

	_, err := db.Exec(schema)
	return err
}

// RebuildFromPapers clears the index and fills it from papers.
func (d *DB) RebuildFromPapers(papers []*paper.Paper) (int, error) {
	for _, table := range []string{"papers", "paper_tags", "papers_fts"} {
		if _, err := d.db.Exec("DELETE FROM " + table); err != nil {
			return 0, fmt.Errorf("clearing %s table: %w", table, err)
		}
	}

	for _, p := range papers {
		if err := d.Upsert(p); err != nil {
			return 0, err
		}
	}
	return len(papers), nil
}

// Upsert inserts or replaces the index rows for p.
func (d *DB) Upsert(p *paper.Paper) error {
	row := summarize(p)

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT OR REPLACE INTO papers (`+selectPaperFields+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.Citekey, row.Type, row.Title, row.Year, row.Authors,
		nullableStringValue(row.Journal), nullableStringValue(row.DOI),
		nullableStringValue(row.Document), strings.Join(row.Tags, tagSeparator),
	); err != nil {
		return fmt.Errorf("inserting paper %s: %w", row.Citekey, err)
	}

	if _, err := tx.Exec("DELETE FROM paper_tags WHERE paper_id = ?", row.Citekey); err != nil {
		return fmt.Errorf("clearing tags for %s: %w", row.Citekey, err)
	}
	for _, tag := range row.Tags {
		if _, err := tx.Exec("INSERT INTO paper_tags (paper_id, tag) VALUES (?, ?)", row.Citekey, tag); err != nil {
			return fmt.Errorf("inserting tag %q for %s: %w", tag, row.Citekey, err)
		}
	}

	if _, err := tx.Exec("DELETE FROM papers_fts WHERE id = ?", row.Citekey); err != nil {
		return fmt.Errorf("clearing fts for %s: %w", row.Citekey, err)
	}
	if _, err := tx.Exec(`
		INSERT INTO papers_fts (id, title, authors_text, journal, year, tags_text)
		VALUES (?, ?, ?, ?, ?, ?)`,
		row.Citekey, row.Title, row.Authors, row.Journal, row.Year, strings.Join(row.Tags, tagSeparator),
	); err != nil {
		return fmt.Errorf("inserting fts for %s: %w", row.Citekey, err)
	}

	return tx.Commit()
}

// summarize builds the index row for a paper.
func summarize(p *paper.Paper) IndexedPaper {
	persons, ok := p.Entry.Persons(bibtex.FieldAuthor)
	if !ok {
		persons, _ = p.Entry.Persons(bibtex.FieldEditor)
	}
	row := IndexedPaper{
		Citekey: p.Citekey,
		Type:    p.Entry.Type,
		Title:   p.Entry.Title,
		Year:    p.Entry.Year,
		Authors: formatAuthorsText(persons),
		Journal: p.Entry.Fields["journal"],
		DOI:     p.Entry.Fields["doi"],
		Tags:    p.Metadata.Tags.Sorted(),
	}
	if p.HasDocument() {
		row.Document = p.Metadata.Document.Path
	}
	return row
}

// formatAuthorsText creates a searchable text representation of authors.
func formatAuthorsText(persons []bibtex.Person) string {
	var names []string
	for _, a := range persons {
		last := strings.TrimSpace(a.Von + " " + a.Last)
		if a.First != "" {
			names = append(names, a.First+" "+last)
		} else {
			names = append(names, last)
		}
	}
	return strings.Join(names, ", ")
}

// FindByDOI returns the citekey of a paper with the given DOI, or "".
func (d *DB) FindByDOI(doi string) (string, error) {
	if doi == "" {
		return "", nil
	}
	var id string
	err := d.db.QueryRow("SELECT id FROM papers WHERE lower(doi) = lower(?) LIMIT 1", doi).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("finding doi %s: %w", doi, err)
	}
	return id, nil
}

// Search performs a full-text search and returns matching papers.
func (d *DB) Search(query string, limit int) ([]IndexedPaper, error) {
	ftsQuery := prepareFTSQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}

	q := `SELECT ` + selectPaperFields + `
		FROM papers
		WHERE id IN (SELECT id FROM papers_fts WHERE papers_fts MATCH ?)
		ORDER BY id`
	args := []interface{}{ftsQuery}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	return scanPapers(rows)
}

// ListAll returns all papers ordered by citekey, optionally limited.
func (d *DB) ListAll(limit int) ([]IndexedPaper, error) {
	query := `SELECT ` + selectPaperFields + ` FROM papers ORDER BY id`
	var args []interface{}

	if limit > 0 {
		query += " LIMIT ?"
		args = []interface{}{limit}
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing papers: %w", err)
	}
	defer rows.Close()

	return scanPapers(rows)
}

// ListByTag returns the papers carrying tag.
func (d *DB) ListByTag(tag string, limit int) ([]IndexedPaper, error) {
	query := `SELECT ` + selectPaperFields + ` FROM papers
		WHERE id IN (SELECT paper_id FROM paper_tags WHERE tag = ?)
		ORDER BY id`
	args := []interface{}{tag}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tag %s: %w", tag, err)
	}
	defer rows.Close()

	return scanPapers(rows)
}

// Count returns the number of indexed papers.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM papers").Scan(&count)
	return count, err
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPaper(s scanner) (*IndexedPaper, error) {
	var p IndexedPaper
	var title, year, authors, journal, doi, docPath, tags sql.NullString

	err := s.Scan(&p.Citekey, &p.Type, &title, &year, &authors, &journal, &doi, &docPath, &tags)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	p.Title = title.String
	p.Year = year.String
	p.Authors = authors.String
	p.Journal = journal.String
	p.DOI = doi.String
	p.Document = docPath.String
	if tags.String != "" {
		p.Tags = strings.Split(tags.String, tagSeparator)
	}
	return &p, nil
}

func scanPapers(rows *sql.Rows) ([]IndexedPaper, error) {
	var papers []IndexedPaper
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, err
		}
		if p != nil {
			papers = append(papers, *p)
		}
	}
	return papers, rows.Err()
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// prepareFTSQuery escapes special characters for FTS5 queries.
func prepareFTSQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	// FTS5 uses double quotes for phrase matching
	if strings.ContainsAny(query, "\"*+-:(){}[]^~@.,/") {
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}

	return query
}
