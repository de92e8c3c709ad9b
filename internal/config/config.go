// Package config handles repository configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Config represents repository configuration stored in .papyrus/config.json.
type Config struct {
	DocAdd           string `json:"doc_add"`                      // copy, move or link
	PDFReader        string `json:"pdf_reader"`                   // Reader preference: system, skim, zathura, etc.
	Editor           string `json:"editor,omitempty"`             // Overrides VISUAL/EDITOR
	GitAutocommit    bool   `json:"git_autocommit"`               // Commit repository changes on close
	RawEmbeddedPaths bool   `json:"raw_embedded_paths,omitempty"` // Keep embedded file paths as written
	ContactEmail     string `json:"contact_email,omitempty"`      // Sent with lookup requests
}

const (
	PapyrusDir  = ".papyrus"
	ConfigFile  = "config.json"
	LockFile    = "lock"
	CacheDir    = "cache"
	DBFile      = "index.db"
	BibDirName  = "bib"
	MetaDirName = "meta"
	DocDirName  = "doc"
)

// Document placement modes.
const (
	DocAddCopy = "copy"
	DocAddMove = "move"
	DocAddLink = "link"
)

// ErrNotRepository is returned when no papyrus repository can be found.
var ErrNotRepository = errors.New("not in a papyrus repository (no .papyrus directory found)")

// ErrUnknownKey is returned by Get and Set for keys Config does not have.
var ErrUnknownKey = errors.New("unknown config key")

// ValidReaders lists the supported PDF reader values.
var ValidReaders = []string{"system", "skim", "zathura", "evince", "okular"}

// ValidDocAdd lists the document placement modes.
var ValidDocAdd = []string{DocAddCopy, DocAddMove, DocAddLink}

// Default returns the configuration written by init.
func Default() *Config {
	return &Config{
		DocAdd:    DocAddLink,
		PDFReader: "system",
	}
}

// PapyrusPath returns the path to the .papyrus directory from a root path.
func PapyrusPath(root string) string {
	return filepath.Join(root, PapyrusDir)
}

// ConfigPath returns the path to config.json from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, PapyrusDir, ConfigFile)
}

// LockPath returns the path to the single-writer lock file.
func LockPath(root string) string {
	return filepath.Join(root, PapyrusDir, LockFile)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, PapyrusDir, CacheDir)
}

// DBPath returns the path to the index database from a root path.
func DBPath(root string) string {
	return filepath.Join(root, PapyrusDir, CacheDir, DBFile)
}

// BibDir returns the directory holding one .bib file per paper.
func BibDir(root string) string {
	return filepath.Join(root, BibDirName)
}

// MetaDir returns the directory holding one metadata file per paper.
func MetaDir(root string) string {
	return filepath.Join(root, MetaDirName)
}

// DocDir returns the directory holding documents copied into the repository.
func DocDir(root string) string {
	return filepath.Join(root, DocDirName)
}

// IsRepository checks if the given path contains a papyrus repository.
func IsRepository(root string) bool {
	info, err := os.Stat(PapyrusPath(root))
	return err == nil && info.IsDir()
}

// FindRepository walks up from the given path to find a papyrus repository.
func FindRepository(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsRepository(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", ErrNotRepository
		}
		abs = parent
	}
}

// Load reads configuration from the repository at the given root.
// Unset values fall back to Default.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.DocAdd == "" {
		cfg.DocAdd = DocAddLink
	}

	return cfg, nil
}

// Save writes configuration to the repository at the given root.
func (c *Config) Save(root string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Keys returns the config keys accepted by Get and Set.
func Keys() []string {
	keys := []string{"doc_add", "pdf_reader", "editor", "git_autocommit", "raw_embedded_paths", "contact_email"}
	sort.Strings(keys)
	return keys
}

// Get returns the string form of a config value.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "doc_add":
		return c.DocAdd, nil
	case "pdf_reader":
		return c.PDFReader, nil
	case "editor":
		return c.Editor, nil
	case "git_autocommit":
		return strconv.FormatBool(c.GitAutocommit), nil
	case "raw_embedded_paths":
		return strconv.FormatBool(c.RawEmbeddedPaths), nil
	case "contact_email":
		return c.ContactEmail, nil
	}
	return "", fmt.Errorf("%w: %s (valid: %s)", ErrUnknownKey, key, strings.Join(Keys(), ", "))
}

// Set validates and stores a config value given in string form.
func (c *Config) Set(key, value string) error {
	switch key {
	case "doc_add":
		if err := ValidateDocAdd(value); err != nil {
			return err
		}
		c.DocAdd = value
	case "pdf_reader":
		if err := ValidatePDFReader(value); err != nil {
			return err
		}
		c.PDFReader = value
	case "editor":
		c.Editor = value
	case "git_autocommit", "raw_embedded_paths":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %q is not a boolean", key, value)
		}
		if key == "git_autocommit" {
			c.GitAutocommit = b
		} else {
			c.RawEmbeddedPaths = b
		}
	case "contact_email":
		c.ContactEmail = value
	default:
		return fmt.Errorf("%w: %s (valid: %s)", ErrUnknownKey, key, strings.Join(Keys(), ", "))
	}
	return nil
}

// ValidateDocAdd checks that mode is a known placement mode.
func ValidateDocAdd(mode string) error {
	for _, valid := range ValidDocAdd {
		if mode == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid doc_add: %s (valid: %v)", mode, ValidDocAdd)
}

// ValidatePDFReader checks that the reader value is valid.
func ValidatePDFReader(reader string) error {
	if reader == "" {
		return nil // Empty defaults to "system"
	}

	for _, valid := range ValidReaders {
		if reader == valid {
			return nil
		}
	}

	return fmt.Errorf("invalid pdf_reader: %s (valid: %v)", reader, ValidReaders)
}
