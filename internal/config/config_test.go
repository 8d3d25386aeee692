package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPathFunctions(t *testing.T) {
	root := "/test/repo"

	tests := []struct {
		name string
		fn   func(string) string
		want string
	}{
		{"ClaimsiftPath", ClaimsiftPath, "/test/repo/.claimsift"},
		{"ConfigPath", ConfigPath, "/test/repo/.claimsift/config.yml"},
		{"CorpusPath", CorpusPath, "/test/repo/.claimsift/clauses.jsonl"},
		{"CachePath", CachePath, "/test/repo/.claimsift/cache"},
		{"DBPath", DBPath, "/test/repo/.claimsift/cache/metadata.db"},
		{"IndexPrefix", IndexPrefix, "/test/repo/.claimsift/cache/store"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.fn(root)
			if got != tt.want {
				t.Errorf("%s(%q) = %q, want %q", tt.name, root, got, tt.want)
			}
		})
	}
}

func TestIsRepository(t *testing.T) {
	tmpDir := t.TempDir()

	if IsRepository(tmpDir) {
		t.Error("IsRepository() = true for non-repo directory")
	}

	if err := os.Mkdir(ClaimsiftPath(tmpDir), 0755); err != nil {
		t.Fatal(err)
	}
	if !IsRepository(tmpDir) {
		t.Error("IsRepository() = false after creating .claimsift")
	}
}

func TestFindRepository(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.Mkdir(ClaimsiftPath(tmpDir), 0755); err != nil {
		t.Fatal(err)
	}

	nested := filepath.Join(tmpDir, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	root, err := FindRepository(nested)
	if err != nil {
		t.Fatalf("FindRepository failed: %v", err)
	}
	// Resolve symlinks for comparison (macOS /tmp is a symlink).
	wantRoot, _ := filepath.EvalSymlinks(tmpDir)
	gotRoot, _ := filepath.EvalSymlinks(root)
	if gotRoot != wantRoot {
		t.Errorf("FindRepository = %q, want %q", gotRoot, wantRoot)
	}
}

func TestFindRepositoryNotFound(t *testing.T) {
	if _, err := FindRepository(t.TempDir()); err == nil {
		t.Error("expected error outside a repository")
	}
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DocsDir != DefaultDocsDir {
		t.Errorf("DocsDir = %q, want %q", cfg.DocsDir, DefaultDocsDir)
	}
	if cfg.TopK != DefaultTopK {
		t.Errorf("TopK = %d, want %d", cfg.TopK, DefaultTopK)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	root := t.TempDir()

	cfg := &Config{
		DocsDir:   "policies",
		Model:     "custom-model",
		OllamaURL: "http://ollama:11434",
		TopK:      10,
	}
	if err := cfg.Save(root); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(root)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.DocsDir != "policies" || loaded.Model != "custom-model" || loaded.TopK != 10 {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
	if loaded.OllamaURL != "http://ollama:11434" {
		t.Errorf("OllamaURL = %q", loaded.OllamaURL)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	root := t.TempDir()
	cfg := &Config{DocsDir: "", TopK: 0, Model: "m"}
	if err := cfg.Save(root); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.DocsDir != DefaultDocsDir || loaded.TopK != DefaultTopK {
		t.Errorf("defaults not applied: %+v", loaded)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		in, want string
	}{
		{"~", home},
		{"~/docs", filepath.Join(home, "docs")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
