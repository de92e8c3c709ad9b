package add

import (
	"github.com/matsen/papyrus/internal/bibtex"
)

// EntryTemplate is the text first shown in the editor when no other entry
// source is given.
const EntryTemplate = `@article{YourCitekey,
  author = {LastName1, FirstName1 and LastName2, FirstName2},
  title = {},
  journal = {},
  year = {},
}
`

// Decision classifies one editor submission.
type Decision int

const (
	// DecisionAccepted means the text decoded to a single valid entry.
	DecisionAccepted Decision = iota
	// DecisionUnmodified means the template came back unchanged.
	DecisionUnmodified
	// DecisionInvalid means the text did not decode to a valid entry.
	DecisionInvalid
)

func (d Decision) String() string {
	switch d {
	case DecisionAccepted:
		return "accepted"
	case DecisionUnmodified:
		return "unmodified"
	case DecisionInvalid:
		return "invalid"
	}
	return "unknown"
}

// Submission is the outcome of EditorSession.Submit.
type Submission struct {
	Decision Decision
	Entry    bibtex.Keyed // set when Accepted
	Err      error        // set when Invalid
}

// EditorSession tracks the text of an interactive entry edit. It decides
// what a submission means but never asks the user anything; the caller
// owns the prompt and the loop.
type EditorSession struct {
	template string
	text     string
}

// NewEditorSession starts a session showing template.
func NewEditorSession(template string) *EditorSession {
	return &EditorSession{template: template, text: template}
}

// Text returns the text to show in the next edit. After an invalid
// submission that is the submitted text, so edits are not lost.
func (s *EditorSession) Text() string {
	return s.text
}

// Submit classifies the text returned by the editor.
func (s *EditorSession) Submit(text string) Submission {
	s.text = text
	if text == s.template {
		return Submission{Decision: DecisionUnmodified}
	}

	bib, err := bibtex.Decode(text)
	if err == nil {
		var k bibtex.Keyed
		k, err = bibtex.Verify(bib)
		if err == nil {
			return Submission{Decision: DecisionAccepted, Entry: k}
		}
	}
	return Submission{Decision: DecisionInvalid, Err: err}
}
