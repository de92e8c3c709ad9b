package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/papyrus/config.yml.
type GlobalConfig struct {
	LibraryPath  string `yaml:"library_path,omitempty"`
	ContactEmail string `yaml:"contact_email,omitempty"`
	Editor       string `yaml:"editor,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "papyrus"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"

	// EnvRoot overrides repository discovery.
	EnvRoot = "PAPYRUS_ROOT"
	// EnvContactEmail sets the contact address sent with lookups.
	EnvContactEmail = "PAPYRUS_CONTACT_EMAIL"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/papyrus/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}

	if cfg.LibraryPath != "" {
		cfg.LibraryPath = ExpandPath(cfg.LibraryPath)
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// ResolveRoot finds the repository to operate on: $PAPYRUS_ROOT, then a
// repository containing start, then the global library_path.
func ResolveRoot(start string) (string, error) {
	if root := os.Getenv(EnvRoot); root != "" {
		root = ExpandPath(root)
		if !IsRepository(root) {
			return "", fmt.Errorf("%s=%s: %w", EnvRoot, root, ErrNotRepository)
		}
		return root, nil
	}

	root, err := FindRepository(start)
	if err == nil {
		return root, nil
	}

	global, gerr := LoadGlobalConfig()
	if gerr != nil {
		return "", gerr
	}
	if global.LibraryPath != "" && IsRepository(global.LibraryPath) {
		return global.LibraryPath, nil
	}
	return "", err
}

// ContactEmail returns the lookup contact address: $PAPYRUS_CONTACT_EMAIL,
// then the repository config, then the global config.
func ContactEmail(cfg *Config) string {
	if email := os.Getenv(EnvContactEmail); email != "" {
		return email
	}
	if cfg != nil && cfg.ContactEmail != "" {
		return cfg.ContactEmail
	}
	global, _ := LoadGlobalConfig()
	if global != nil {
		return global.ContactEmail
	}
	return ""
}

// Editor returns the editor command: the repository config, the global
// config, $VISUAL, $EDITOR and finally vi.
func Editor(cfg *Config) string {
	if cfg != nil && cfg.Editor != "" {
		return cfg.Editor
	}
	if global, _ := LoadGlobalConfig(); global != nil && global.Editor != "" {
		return global.Editor
	}
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if e := os.Getenv(env); e != "" {
			return e
		}
	}
	return "vi"
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
