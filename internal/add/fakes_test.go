package add

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/matsen/papyrus/internal/paper"
)

type pushedDoc struct {
	citekey, src string
	copyDoc      bool
}

// fakeRepo stores papers in memory.
type fakeRepo struct {
	papers map[string]*paper.Paper
	docs   []pushedDoc
	closed int
}

func newFakeRepo(keys ...string) *fakeRepo {
	r := &fakeRepo{papers: make(map[string]*paper.Paper)}
	for _, k := range keys {
		r.papers[k] = &paper.Paper{Citekey: k}
	}
	return r
}

func (r *fakeRepo) Contains(citekey string) bool {
	_, ok := r.papers[citekey]
	return ok
}

func (r *fakeRepo) FindByDOI(doi string) (string, error) {
	for k, p := range r.papers {
		if got, _ := p.Entry.Field("doi"); got != "" && strings.EqualFold(got, doi) {
			return k, nil
		}
	}
	return "", nil
}

func (r *fakeRepo) UniqueCitekey(base string) string {
	if !r.Contains(base) {
		return base
	}
	for i := 2; ; i++ {
		if k := fmt.Sprintf("%s-%d", base, i); !r.Contains(k) {
			return k
		}
	}
}

func (r *fakeRepo) PushPaper(p *paper.Paper) error {
	if r.Contains(p.Citekey) {
		return errors.New("exists")
	}
	r.papers[p.Citekey] = p
	return nil
}

func (r *fakeRepo) PushDocument(ctx context.Context, citekey, src string, copyDoc bool) (string, error) {
	r.docs = append(r.docs, pushedDoc{citekey, src, copyDoc})
	if !copyDoc {
		return src, nil
	}
	ext := filepath.Ext(src)
	return "/repo/doc/" + citekey + ext, nil
}

func (r *fakeRepo) Close() error {
	r.closed++
	return nil
}

// fakeLookup answers from fixed maps.
type fakeLookup struct {
	dois   map[string]string
	isbns  map[string]string
	called []string
}

func (l *fakeLookup) DOIToBibTeX(ctx context.Context, doi string) (string, error) {
	l.called = append(l.called, "doi:"+doi)
	if text, ok := l.dois[doi]; ok {
		return text, nil
	}
	return "", errors.New("not found")
}

func (l *fakeLookup) ISBNToBibTeX(ctx context.Context, isbn string) (string, error) {
	l.called = append(l.called, "isbn:"+isbn)
	if text, ok := l.isbns[isbn]; ok {
		return text, nil
	}
	return "", errors.New("not found")
}

// fakeUI replays scripted edits and answers and records output.
type fakeUI struct {
	edits    []string
	answers  []bool
	shown    []string
	prompts  []string
	errors   []string
	warnings []string
	messages []string
}

func (u *fakeUI) PromptYesNo(question string, def bool) bool {
	u.prompts = append(u.prompts, question)
	if len(u.answers) == 0 {
		return false
	}
	a := u.answers[0]
	u.answers = u.answers[1:]
	return a
}

func (u *fakeUI) EditText(initial, suffix string) (string, error) {
	u.shown = append(u.shown, initial)
	if len(u.edits) == 0 {
		return "", errors.New("no more edits scripted")
	}
	e := u.edits[0]
	u.edits = u.edits[1:]
	return e, nil
}

func (u *fakeUI) Error(format string, args ...interface{}) {
	u.errors = append(u.errors, fmt.Sprintf(format, args...))
}

func (u *fakeUI) Warning(format string, args ...interface{}) {
	u.warnings = append(u.warnings, fmt.Sprintf(format, args...))
}

func (u *fakeUI) Message(format string, args ...interface{}) {
	u.messages = append(u.messages, fmt.Sprintf(format, args...))
}
