// Package add implements the add-paper pipeline: acquire a bibliographic
// entry, validate it, settle its citekey, tags and document, and commit it
// to the repository.
package add

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/matsen/papyrus/internal/bibtex"
	"github.com/matsen/papyrus/internal/citekey"
	"github.com/matsen/papyrus/internal/content"
	"github.com/matsen/papyrus/internal/paper"
)

// Errors returned by Pipeline.Run.
var (
	// ErrLookupFailure indicates no usable entry could be retrieved for a
	// DOI or ISBN.
	ErrLookupFailure = errors.New("unable to retrieve a bibliographic entry")

	// ErrCitekeyCollision indicates an explicit citekey is already taken.
	ErrCitekeyCollision = errors.New("citekey already exists")

	// ErrAborted indicates the user gave up on editing the entry.
	ErrAborted = errors.New("add aborted")

	// ErrNotEdited indicates the user left the entry template unchanged and
	// chose not to edit again. It is a clean exit, not a failure.
	ErrNotEdited = fmt.Errorf("%w: entry not edited", ErrAborted)
)

// DocMode says how a document is placed in the repository.
type DocMode string

const (
	DocCopy DocMode = "copy"
	DocMove DocMode = "move"
	DocLink DocMode = "link"
)

// copies reports whether the mode copies the document into storage.
func (m DocMode) copies() bool {
	return m == DocCopy || m == DocMove
}

// State is a step of the pipeline.
type State int

const (
	AcquireEntry State = iota
	ValidateEntry
	ResolveCitekey
	AttachTags
	ResolveDocument
	Commit
	AttachDocument
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case AcquireEntry:
		return "acquire-entry"
	case ValidateEntry:
		return "validate-entry"
	case ResolveCitekey:
		return "resolve-citekey"
	case AttachTags:
		return "attach-tags"
	case ResolveDocument:
		return "resolve-document"
	case Commit:
		return "commit"
	case AttachDocument:
		return "attach-document"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Request holds the user's inputs for one add. Entry sources take
// precedence in the order BibFile, DOI, ISBN, editor.
type Request struct {
	BibFile         string
	DOI             string
	ISBN            string
	DocFile         string
	DOIFromDocument bool // read the DOI from DocFile when DOI is empty
	Tags            string
	Citekey         string
	DocAdd          DocMode // empty means Config.DefaultDocAdd
}

// Config holds repository settings the pipeline depends on.
type Config struct {
	DefaultDocAdd    DocMode
	RawEmbeddedPaths bool
}

// Result describes a completed add.
type Result struct {
	Paper    *paper.Paper `json:"-"`
	Citekey  string       `json:"citekey"`
	Document string       `json:"document,omitempty"`
	Mode     DocMode      `json:"doc_mode,omitempty"`
	Trace    []State      `json:"-"`
}

// Repository is the storage the pipeline commits to.
type Repository interface {
	Contains(citekey string) bool
	FindByDOI(doi string) (string, error)
	UniqueCitekey(base string) string
	PushPaper(p *paper.Paper) error
	PushDocument(ctx context.Context, citekey, src string, copyDoc bool) (string, error)
	Close() error
}

// Lookup retrieves raw BibTeX for identifiers.
type Lookup interface {
	DOIToBibTeX(ctx context.Context, doi string) (string, error)
	ISBNToBibTeX(ctx context.Context, isbn string) (string, error)
}

// UI is how the pipeline talks to the user.
type UI interface {
	PromptYesNo(question string, def bool) bool
	EditText(initial, suffix string) (string, error)
	Error(format string, args ...interface{})
	Warning(format string, args ...interface{})
	Message(format string, args ...interface{})
}

// Pipeline adds papers to a repository.
type Pipeline struct {
	Repo   Repository
	Lookup Lookup
	UI     UI
	Config Config

	// Fetch reads a bibliography from a file or URL.
	Fetch func(ctx context.Context, source string) (string, error)
	// ExtractDOI reads a DOI from a local document. Nil disables
	// Request.DOIFromDocument.
	ExtractDOI func(path string) (string, error)
	// Remove deletes the original of a moved document.
	Remove func(path string) error
}

// NewPipeline returns a pipeline reading files and removing moved
// documents through the content package.
func NewPipeline(repo Repository, lookup Lookup, ui UI, cfg Config) *Pipeline {
	return &Pipeline{
		Repo:   repo,
		Lookup: lookup,
		UI:     ui,
		Config: cfg,
		Fetch:  content.Get,
		Remove: content.Remove,
	}
}

// run carries the data of one pipeline run between states.
type run struct {
	req      Request
	bib      bibtex.Bibliography
	entry    bibtex.Keyed
	paper    *paper.Paper
	document string
	mode     DocMode
	placed   string
}

// Run drives one add through its states. On failure the returned Result
// still holds the trace up to and including Failed.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	r := &run{req: req}
	res := &Result{}

	state := AcquireEntry
	for {
		res.Trace = append(res.Trace, state)

		var next State
		var err error
		switch state {
		case AcquireEntry:
			next, err = p.acquireEntry(ctx, r)
		case ValidateEntry:
			next, err = p.validateEntry(r)
		case ResolveCitekey:
			next, err = p.resolveCitekey(r)
		case AttachTags:
			next, err = p.attachTags(r)
		case ResolveDocument:
			next, err = p.resolveDocument(r)
		case Commit:
			next, err = p.commit(r)
		case AttachDocument:
			next, err = p.attachDocument(ctx, r)
		case Done:
			res.Paper = r.paper
			res.Citekey = r.paper.Citekey
			res.Document = r.placed
			if r.placed != "" {
				res.Mode = r.mode
			}
			return res, p.done(r)
		default:
			err = fmt.Errorf("unexpected pipeline state %s", state)
		}

		if err != nil {
			res.Trace = append(res.Trace, Failed)
			if r.paper != nil {
				res.Paper = r.paper
				res.Citekey = r.paper.Citekey
			}
			return res, err
		}
		state = next
	}
}

func (p *Pipeline) acquireEntry(ctx context.Context, r *run) (State, error) {
	req := r.req

	if req.BibFile != "" {
		text, err := p.Fetch(ctx, req.BibFile)
		if err != nil {
			return Failed, fmt.Errorf("reading %s: %w", req.BibFile, err)
		}
		bib, err := bibtex.Decode(text)
		if err != nil {
			p.UI.Error("invalid bibfile %s.", req.BibFile)
			return Failed, err
		}
		r.bib = bib
		return ValidateEntry, nil
	}

	doi := req.DOI
	if doi == "" && req.DOIFromDocument {
		doi = p.doiFromDocument(req.DocFile)
		if doi == "" && req.ISBN == "" {
			return Failed, fmt.Errorf("%w: no DOI found in %s", ErrLookupFailure, req.DocFile)
		}
	}

	if doi != "" {
		bib, err := p.lookup(ctx, p.Lookup.DOIToBibTeX, doi)
		if err == nil {
			r.bib = bib
			return ValidateEntry, nil
		}
		p.UI.Error("invalid doi %s or unable to retrieve bibfile from it.", doi)
		if req.ISBN == "" {
			return Failed, fmt.Errorf("%w: doi %s: %v", ErrLookupFailure, doi, err)
		}
	}

	if req.ISBN != "" {
		bib, err := p.lookup(ctx, p.Lookup.ISBNToBibTeX, req.ISBN)
		if err != nil {
			p.UI.Error("invalid isbn %s or unable to retrieve bibfile from it.", req.ISBN)
			return Failed, fmt.Errorf("%w: isbn %s: %v", ErrLookupFailure, req.ISBN, err)
		}
		r.bib = bib
		return ValidateEntry, nil
	}

	bib, err := p.editEntry()
	if err != nil {
		return Failed, err
	}
	r.bib = bib
	return ValidateEntry, nil
}

// doiFromDocument reads a DOI from a local document, reporting failures
// through the UI.
func (p *Pipeline) doiFromDocument(doc string) string {
	if p.ExtractDOI == nil || doc == "" || content.IsURL(doc) {
		p.UI.Error("cannot read a DOI from document %q.", doc)
		return ""
	}
	doi, err := p.ExtractDOI(doc)
	if err != nil {
		p.UI.Error("reading DOI from %s: %v", doc, err)
		return ""
	}
	if doi == "" {
		p.UI.Error("no DOI found in %s.", doc)
	}
	return doi
}

// lookup fetches and decodes an entry, requiring it to verify.
func (p *Pipeline) lookup(ctx context.Context, fetch func(context.Context, string) (string, error), id string) (bibtex.Bibliography, error) {
	text, err := fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	bib, err := bibtex.Decode(text)
	if err != nil {
		return nil, err
	}
	if _, err := bibtex.Verify(bib); err != nil {
		return nil, err
	}
	return bib, nil
}

// editEntry loops on the editor until the user submits a valid entry or
// gives up.
func (p *Pipeline) editEntry() (bibtex.Bibliography, error) {
	session := NewEditorSession(EntryTemplate)
	for {
		text, err := p.UI.EditText(session.Text(), ".bib")
		if err != nil {
			return nil, err
		}

		sub := session.Submit(text)
		switch sub.Decision {
		case DecisionAccepted:
			return bibtex.Bibliography{sub.Entry}, nil
		case DecisionUnmodified:
			if !p.UI.PromptYesNo("Bibfile not edited. Edit again?", true) {
				return nil, ErrNotEdited
			}
		case DecisionInvalid:
			p.UI.Error("%v", sub.Err)
			if !p.UI.PromptYesNo("Invalid bibfile. Edit again?", true) {
				return nil, fmt.Errorf("%w: %v", ErrAborted, sub.Err)
			}
		}
	}
}

func (p *Pipeline) validateEntry(r *run) (State, error) {
	k, err := bibtex.Verify(r.bib)
	if err != nil {
		if r.req.BibFile != "" {
			p.UI.Error("invalid bibfile %s.", r.req.BibFile)
		}
		return Failed, err
	}
	r.entry = k
	return ResolveCitekey, nil
}

func (p *Pipeline) resolveCitekey(r *run) (State, error) {
	if doi, _ := r.entry.Entry.Field("doi"); doi != "" {
		existing, err := p.Repo.FindByDOI(doi)
		if err != nil {
			return Failed, err
		}
		if existing != "" {
			p.UI.Warning("a paper with DOI %s is already stored as %s.", doi, existing)
		}
	}

	key := r.req.Citekey
	if key != "" {
		if err := citekey.CheckStored(key); err != nil {
			return Failed, err
		}
		if p.Repo.Contains(key) {
			p.UI.Error("citekey already exists %s.", key)
			return Failed, fmt.Errorf("%w: %s", ErrCitekeyCollision, key)
		}
	} else {
		base, err := paper.GenerateCitekey(r.entry.Entry)
		if err != nil {
			return Failed, err
		}
		key = p.Repo.UniqueCitekey(base)
	}

	pp, err := paper.New(&r.entry.Entry, nil, key)
	if err != nil {
		return Failed, err
	}
	r.paper = pp
	return AttachTags, nil
}

func (p *Pipeline) attachTags(r *run) (State, error) {
	r.paper.AddTags(ParseTags(r.req.Tags)...)
	return ResolveDocument, nil
}

// ParseTags splits a comma-separated tag list, trimming each tag and
// dropping empty ones.
func ParseTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func (p *Pipeline) resolveDocument(r *run) (State, error) {
	embedded, err := r.paper.ExtractEmbeddedDocument(false, paper.WithSeparatorFix(!p.Config.RawEmbeddedPaths))
	hasEmbedded := err == nil

	switch {
	case r.req.DocFile != "":
		r.document = r.req.DocFile
		if hasEmbedded {
			p.UI.Warning("Skipping document file from bib file %s, using %s instead.", embedded, r.req.DocFile)
		}
	case hasEmbedded:
		r.document = embedded
	}
	return Commit, nil
}

func (p *Pipeline) commit(r *run) (State, error) {
	if err := p.Repo.PushPaper(r.paper); err != nil {
		return Failed, err
	}
	if r.document == "" {
		return Done, nil
	}
	return AttachDocument, nil
}

func (p *Pipeline) attachDocument(ctx context.Context, r *run) (State, error) {
	mode := r.req.DocAdd
	if mode == "" {
		mode = p.Config.DefaultDocAdd
	}
	if mode == "" {
		mode = DocLink
	}
	r.mode = mode

	placed, err := p.Repo.PushDocument(ctx, r.paper.Citekey, r.document, mode.copies())
	if err != nil {
		return Failed, fmt.Errorf("attaching document %s: %w", r.document, err)
	}
	r.placed = placed
	name, ext := content.NameFromPath(placed)
	r.paper.Metadata.Document = &paper.Document{Filename: name, Extension: ext, Path: placed}

	if mode == DocMove && !content.IsURL(r.document) {
		if err := p.Remove(r.document); err != nil {
			return Failed, fmt.Errorf("removing moved document %s: %w", r.document, err)
		}
	}
	return Done, nil
}

func (p *Pipeline) done(r *run) error {
	p.UI.Message("added to papyrus:\n%s", r.paper.Oneliner())
	switch {
	case r.placed == "":
	case r.mode == DocMove:
		p.UI.Message("%s was moved to the papyrus repository.", r.document)
	case r.mode == DocCopy:
		p.UI.Message("%s was copied to the papyrus repository.", r.document)
	}
	return p.Repo.Close()
}
