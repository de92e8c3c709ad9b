// Package repository manages a papyrus repository on disk: one entry file
// and one metadata file per paper, copied documents, the search index and
// the single-writer lock.
package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/matsen/papyrus/internal/citekey"
	"github.com/matsen/papyrus/internal/config"
	"github.com/matsen/papyrus/internal/content"
	"github.com/matsen/papyrus/internal/git"
	"github.com/matsen/papyrus/internal/paper"
	"github.com/matsen/papyrus/internal/storage"
)

// Errors returned by repository operations.
var (
	// ErrLocked indicates another process holds the repository lock.
	ErrLocked = errors.New("repository is locked by another process")

	// ErrCitekeyExists indicates a paper with the citekey is already stored.
	ErrCitekeyExists = errors.New("citekey already exists")

	// ErrPaperNotFound indicates no paper is stored under the citekey.
	ErrPaperNotFound = errors.New("paper not found")

	// ErrAlreadyInitialized indicates init was run on an existing repository.
	ErrAlreadyInitialized = errors.New("repository already initialized")
)

// MetaExtension is the extension of metadata files.
const MetaExtension = ".yaml"

// Repository is an open, locked papyrus repository.
type Repository struct {
	Root   string
	Config *config.Config

	files   storage.Files
	db      *storage.DB
	lock    *flock.Flock
	now     func() time.Time
	changes []string
	closed  bool
}

// Init creates the repository layout under root and writes cfg (or the
// default configuration when cfg is nil).
func Init(root string, cfg *config.Config) error {
	if config.IsRepository(root) {
		return fmt.Errorf("%w: %s", ErrAlreadyInitialized, root)
	}
	if cfg == nil {
		cfg = config.Default()
	}

	for _, dir := range []string{
		config.CachePath(root),
		config.BibDir(root),
		config.MetaDir(root),
		config.DocDir(root),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return cfg.Save(root)
}

// Open locks the repository at root and opens its index. The index is
// rebuilt from the files when it is missing or its paper count is off.
func Open(root string) (*Repository, error) {
	if !config.IsRepository(root) {
		return nil, fmt.Errorf("%s: %w", root, config.ErrNotRepository)
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	lock := flock.New(config.LockPath(root))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	r := &Repository{Root: root, Config: cfg, lock: lock, now: time.Now}
	if err := r.openIndex(); err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	return r, nil
}

func (r *Repository) openIndex() error {
	dbPath := config.DBPath(r.Root)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	_, statErr := os.Stat(dbPath)

	db, err := storage.OpenDB(dbPath)
	if err != nil {
		return err
	}
	r.db = db

	stale := os.IsNotExist(statErr)
	if !stale {
		stale, err = r.indexStale()
		if err != nil {
			db.Close()
			return err
		}
	}
	if stale {
		if _, err := r.Rebuild(); err != nil {
			db.Close()
			return err
		}
	}
	return nil
}

// indexStale reports whether the index holds a different number of papers
// than the entry directory, as after a git pull or a hand-edited repository.
func (r *Repository) indexStale() (bool, error) {
	files, err := r.files.ListBibFilesIn(config.BibDir(r.Root))
	if err != nil {
		return false, err
	}
	count, err := r.db.Count()
	if err != nil {
		return false, fmt.Errorf("counting indexed papers: %w", err)
	}
	return count != len(files), nil
}

// Close records pending changes in git when autocommit is enabled, closes
// the index and releases the lock. It is safe to call more than once.
func (r *Repository) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	if r.Config.GitAutocommit && len(r.changes) > 0 && git.IsGitRepo(r.Root) {
		msg := "papyrus: " + strings.Join(r.changes, ", ")
		if err := git.Commit(r.Root, msg, config.BibDirName, config.MetaDirName, config.DocDirName); err != nil {
			errs = append(errs, fmt.Errorf("committing changes: %w", err))
		}
	}
	if err := r.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing index: %w", err))
	}
	if err := r.lock.Unlock(); err != nil {
		errs = append(errs, fmt.Errorf("releasing lock: %w", err))
	}
	return errors.Join(errs...)
}

// Index returns the search index.
func (r *Repository) Index() *storage.DB {
	return r.db
}

// BibPath returns the entry file path for citekey.
func (r *Repository) BibPath(citekey string) string {
	return filepath.Join(config.BibDir(r.Root), citekey+storage.BibExtensions[0])
}

// MetaPath returns the metadata file path for citekey.
func (r *Repository) MetaPath(citekey string) string {
	return filepath.Join(config.MetaDir(r.Root), citekey+MetaExtension)
}

// DocPath returns where a document with extension ext is stored for citekey.
func (r *Repository) DocPath(citekey, ext string) string {
	return filepath.Join(config.DocDir(r.Root), citekey+ext)
}

// Contains reports whether a paper is stored under citekey.
func (r *Repository) Contains(citekey string) bool {
	_, err := os.Stat(r.BibPath(citekey))
	return err == nil
}

// FindByDOI returns the citekey of a stored paper with doi, or "".
// DOIs compare case-insensitively.
func (r *Repository) FindByDOI(doi string) (string, error) {
	return r.db.FindByDOI(doi)
}

// UniqueCitekey returns base, or base-2, base-3, ... when base is taken.
func (r *Repository) UniqueCitekey(base string) string {
	return storage.GenerateUniqueID(base, r.Contains)
}

// PushPaper stores a new paper. It fails with ErrCitekeyExists rather than
// overwrite an existing one.
func (r *Repository) PushPaper(p *paper.Paper) error {
	if r.Contains(p.Citekey) {
		return fmt.Errorf("%w: %s", ErrCitekeyExists, p.Citekey)
	}
	if p.Metadata.Added.IsZero() {
		p.Metadata.Added = r.now().UTC().Truncate(time.Second)
	}
	if err := r.save(p); err != nil {
		return err
	}
	r.changes = append(r.changes, "add "+p.Citekey)
	return nil
}

// UpdatePaper stores p, replacing any paper under the same citekey.
func (r *Repository) UpdatePaper(p *paper.Paper) error {
	existed := r.Contains(p.Citekey)
	if p.Metadata.Added.IsZero() {
		p.Metadata.Added = r.now().UTC().Truncate(time.Second)
	}
	if err := r.save(p); err != nil {
		return err
	}
	verb := "update "
	if !existed {
		verb = "add "
	}
	r.changes = append(r.changes, verb+p.Citekey)
	return nil
}

func (r *Repository) save(p *paper.Paper) error {
	if err := citekey.CheckStored(p.Citekey); err != nil {
		return err
	}
	if err := p.Persist(r.files, r.BibPath(p.Citekey), r.MetaPath(p.Citekey)); err != nil {
		return err
	}
	if err := r.db.Upsert(p); err != nil {
		return fmt.Errorf("indexing %s: %w", p.Citekey, err)
	}
	return nil
}

// PushDocument attaches src to the stored paper citekey. With copyDoc set the
// document is copied to the repository's doc directory and the copy is
// attached; otherwise src itself is referenced. It returns the attached path.
func (r *Repository) PushDocument(ctx context.Context, citekey, src string, copyDoc bool) (string, error) {
	p, err := r.Paper(citekey)
	if err != nil {
		return "", err
	}

	switch {
	case copyDoc:
		_, ext := content.NameFromPath(src)
		dst := r.DocPath(citekey, ext)
		if err := content.Copy(ctx, src, dst); err != nil {
			return "", fmt.Errorf("copying document: %w", err)
		}
		if err := p.AttachDocument(dst); err != nil {
			return "", err
		}
	case content.IsURL(src):
		p.AttachRemoteDocument(src)
	default:
		if err := p.AttachDocument(src); err != nil {
			return "", err
		}
	}

	if err := r.save(p); err != nil {
		return "", err
	}
	r.changes = append(r.changes, "attach document to "+citekey)
	return p.Metadata.Document.Path, nil
}

// Paper loads the paper stored under citekey.
func (r *Repository) Paper(citekey string) (*paper.Paper, error) {
	if !r.Contains(citekey) {
		return nil, fmt.Errorf("%w: %s", ErrPaperNotFound, citekey)
	}
	return r.load(r.BibPath(citekey))
}

func (r *Repository) load(bibPath string) (*paper.Paper, error) {
	key := strings.TrimSuffix(filepath.Base(bibPath), filepath.Ext(bibPath))
	metaPath := r.MetaPath(key)
	if _, err := os.Stat(metaPath); err != nil {
		metaPath = ""
	}
	p, err := paper.Load(r.files, bibPath, metaPath)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", key, err)
	}
	return p, nil
}

// Papers loads every stored paper in citekey order.
func (r *Repository) Papers() ([]*paper.Paper, error) {
	files, err := r.files.ListBibFilesIn(config.BibDir(r.Root))
	if err != nil {
		return nil, err
	}

	papers := make([]*paper.Paper, 0, len(files))
	for _, f := range files {
		p, err := r.load(f)
		if err != nil {
			return nil, err
		}
		papers = append(papers, p)
	}
	return papers, nil
}

// Rebuild recreates the index from the stored files.
func (r *Repository) Rebuild() (int, error) {
	papers, err := r.Papers()
	if err != nil {
		return 0, err
	}
	n, err := r.db.RebuildFromPapers(papers)
	if err != nil {
		return 0, fmt.Errorf("rebuilding index: %w", err)
	}
	return n, nil
}
