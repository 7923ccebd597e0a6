package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.DefaultProvider != "claude" {
		t.Errorf("default provider: got %q, want %q", cfg.DefaultProvider, "claude")
	}
	if cfg.Storage.MemoryBackend != "file" {
		t.Errorf("memory backend: got %q, want %q", cfg.Storage.MemoryBackend, "file")
	}
	if !cfg.Memory.AutoSearch || !cfg.Memory.AutoSave {
		t.Error("memory automation should default to enabled")
	}
	if cfg.Memory.SearchThreshold != 0.3 {
		t.Errorf("search threshold: got %f, want 0.3", cfg.Memory.SearchThreshold)
	}
	if cfg.Memory.SaveThreshold != 0.7 {
		t.Errorf("save threshold: got %f, want 0.7", cfg.Memory.SaveThreshold)
	}
	if cfg.Memory.MaxContextMemories != 5 {
		t.Errorf("max context memories: got %d, want 5", cfg.Memory.MaxContextMemories)
	}
	if len(cfg.Memory.AutoSaveTypes) != 4 {
		t.Errorf("auto save types: got %d, want 4", len(cfg.Memory.AutoSaveTypes))
	}
	if cfg.History.MaxConversations != 50 {
		t.Errorf("max conversations: got %d, want 50", cfg.History.MaxConversations)
	}
	if cfg.History.MaxCachedMessages != 200 {
		t.Errorf("max cached messages: got %d, want 200", cfg.History.MaxCachedMessages)
	}
	if !cfg.Output.Stream {
		t.Error("stream should default to true")
	}
	if !cfg.Output.Color {
		t.Error("color should default to true")
	}
}

func TestDataDirLayout(t *testing.T) {
	dataDir := "/home/user/.local/share/littlellm"

	if got, want := ConversationsDir(dataDir), filepath.Join(dataDir, "conversations"); got != want {
		t.Errorf("conversations dir: got %q, want %q", got, want)
	}
	if got, want := MemoriesDir(dataDir), filepath.Join(dataDir, "memories"); got != want {
		t.Errorf("memories dir: got %q, want %q", got, want)
	}
	if got, want := MemoryDBPath(dataDir), filepath.Join(dataDir, "memories.db"); got != want {
		t.Errorf("memory db path: got %q, want %q", got, want)
	}
	if got, want := LegacyHistoryPath(dataDir), filepath.Join(dataDir, "history.json"); got != want {
		t.Errorf("legacy history path: got %q, want %q", got, want)
	}
}

func TestDataDirOverride(t *testing.T) {
	cfg := Default()
	cfg.Storage.Dir = "/srv/llm-data"

	got, err := cfg.DataDir()
	if err != nil {
		t.Fatalf("DataDir: %v", err)
	}
	if got != "/srv/llm-data" {
		t.Errorf("data dir: got %q, want override", got)
	}
}

func TestCleanupInterval(t *testing.T) {
	cfg := Default()
	if got := cfg.CleanupInterval(); got != 5*time.Minute {
		t.Errorf("cleanup interval: got %v, want 5m", got)
	}
	cfg.History.CleanupMinutes = 0
	if got := cfg.CleanupInterval(); got != 5*time.Minute {
		t.Errorf("zero cleanup minutes should fall back to 5m, got %v", got)
	}
	cfg.History.CleanupMinutes = 30
	if got := cfg.CleanupInterval(); got != 30*time.Minute {
		t.Errorf("cleanup interval: got %v, want 30m", got)
	}
}

func TestAPIKeyEnvOverride(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-anthropic")
	t.Setenv("OPENAI_API_KEY", "")

	cfg := Default()
	cfg.Keys.OpenAI = "file-openai"
	applyEnv(&cfg)

	if cfg.Keys.Anthropic != "env-anthropic" {
		t.Errorf("anthropic key: got %q, want env override", cfg.Keys.Anthropic)
	}
	if cfg.Keys.OpenAI != "file-openai" {
		t.Errorf("openai key: got %q, want file value kept", cfg.Keys.OpenAI)
	}
}

func TestAPIKeyLookup(t *testing.T) {
	cfg := Default()
	cfg.Keys.Anthropic = "ka"
	cfg.Keys.OpenAI = "ko"

	cases := []struct {
		provider string
		want     string
	}{
		{"claude", "ka"},
		{"anthropic", "ka"},
		{"openai", "ko"},
		{"unknown", ""},
	}
	for _, tc := range cases {
		if got := cfg.APIKey(tc.provider); got != tc.want {
			t.Errorf("APIKey(%q) = %q, want %q", tc.provider, got, tc.want)
		}
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg := Default()
	cfg.DefaultProvider = "openai"
	cfg.Memory.SaveThreshold = 0.9
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := os.Stat(filepath.Join(home, ".config", "littlellm", "config.toml")); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.DefaultProvider != "openai" {
		t.Errorf("provider: got %q, want %q", loaded.DefaultProvider, "openai")
	}
	if loaded.Memory.SaveThreshold != 0.9 {
		t.Errorf("save threshold: got %f, want 0.9", loaded.Memory.SaveThreshold)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.History.MaxConversations != 50 {
		t.Errorf("missing file should yield defaults, got %+v", cfg.History)
	}
}
