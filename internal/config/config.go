// Package config handles repository configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents repository configuration stored in .claimsift/config.yml.
type Config struct {
	DocsDir     string  `yaml:"docs_dir"`               // Directory of source documents
	IndexPrefix string  `yaml:"index_prefix,omitempty"` // Path prefix of the index artifact pair
	Model       string  `yaml:"model,omitempty"`        // Embedding model name
	OllamaURL   string  `yaml:"ollama_url,omitempty"`   // Ollama API base URL
	TopK        int     `yaml:"top_k,omitempty"`        // Default retrieval depth
	Threshold   float32 `yaml:"threshold,omitempty"`    // Minimum similarity score to keep a retrieved clause
}

const (
	ClaimsiftDir = ".claimsift"
	ConfigFile   = "config.yml"
	CorpusFile   = "clauses.jsonl"
	CacheDir     = "cache"
	DBFile       = "metadata.db"
	IndexName    = "store" // artifact prefix under the cache dir

	DefaultDocsDir = "docs"
	DefaultTopK    = 5
)

// ClaimsiftPath returns the path to the .claimsift directory from a root path.
func ClaimsiftPath(root string) string {
	return filepath.Join(root, ClaimsiftDir)
}

// ConfigPath returns the path to config.yml from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, ClaimsiftDir, ConfigFile)
}

// CorpusPath returns the path to clauses.jsonl from a root path.
func CorpusPath(root string) string {
	return filepath.Join(root, ClaimsiftDir, CorpusFile)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, ClaimsiftDir, CacheDir)
}

// DBPath returns the path to metadata.db from a root path.
func DBPath(root string) string {
	return filepath.Join(root, ClaimsiftDir, CacheDir, DBFile)
}

// IndexPrefix returns the default index artifact prefix from a root path.
func IndexPrefix(root string) string {
	return filepath.Join(root, ClaimsiftDir, CacheDir, IndexName)
}

// IsRepository checks if the given path contains a claimsift repository.
func IsRepository(root string) bool {
	info, err := os.Stat(ClaimsiftPath(root))
	return err == nil && info.IsDir()
}

// FindRepository walks up from the given path to find a claimsift repository.
// Returns the repository root path or an error if not found.
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
			return "", fmt.Errorf("not in a claimsift repository (no .claimsift directory found)")
		}
		abs = parent
	}
}

// Default returns a configuration with default values.
func Default() *Config {
	return &Config{
		DocsDir: DefaultDocsDir,
		TopK:    DefaultTopK,
	}
}

// Load reads configuration from the repository at the given root.
// A missing config file yields defaults, not an error.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()

	return &cfg, nil
}

// Save writes configuration to the repository at the given root.
func (c *Config) Save(root string) error {
	if err := os.MkdirAll(ClaimsiftPath(root), 0755); err != nil {
		return fmt.Errorf("creating repository directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.DocsDir == "" {
		c.DocsDir = DefaultDocsDir
	}
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
