// Package config manages user configuration (~/.config/littlellm/config.toml)
// and the layout of the on-disk data directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds user-wide settings.
type Config struct {
	DefaultProvider string        `toml:"default_provider"`
	DefaultModel    string        `toml:"default_model"`
	Keys            KeysConfig    `toml:"keys"`
	Storage         StorageConfig `toml:"storage"`
	Memory          MemoryConfig  `toml:"memory"`
	History         HistoryConfig `toml:"history"`
	Output          OutputConfig  `toml:"output"`
}

type KeysConfig struct {
	Anthropic string `toml:"anthropic"`
	OpenAI    string `toml:"openai"`
}

// StorageConfig selects where data lives and which memory backend to use.
// Backend is "file" (index + per-record JSON files) or "sqlite".
type StorageConfig struct {
	Dir           string `toml:"dir"`
	MemoryBackend string `toml:"memory_backend"`
}

// MemoryConfig tunes the automatic memory manager.
type MemoryConfig struct {
	AutoSearch         bool     `toml:"auto_search"`
	AutoSave           bool     `toml:"auto_save"`
	SearchThreshold    float64  `toml:"search_threshold"`
	SaveThreshold      float64  `toml:"save_threshold"`
	MaxContextMemories int      `toml:"max_context_memories"`
	AutoSaveTypes      []string `toml:"auto_save_types"`
	ContextTokenBudget int      `toml:"context_token_budget"`
}

// HistoryConfig tunes the conversation service.
type HistoryConfig struct {
	MaxConversations  int `toml:"max_conversations"`
	MaxCachedMessages int `toml:"max_cached_messages"`
	CleanupMinutes    int `toml:"cleanup_minutes"`
}

type OutputConfig struct {
	Stream  bool `toml:"stream"`
	Color   bool `toml:"color"`
	Verbose bool `toml:"verbose"`
}

// Default returns sensible defaults.
func Default() Config {
	return Config{
		DefaultProvider: "claude",
		DefaultModel:    "",
		Storage: StorageConfig{
			MemoryBackend: "file",
		},
		Memory: MemoryConfig{
			AutoSearch:         true,
			AutoSave:           true,
			SearchThreshold:    0.3,
			SaveThreshold:      0.7,
			MaxContextMemories: 5,
			AutoSaveTypes: []string{
				"preference", "solution", "code-snippet", "project-knowledge",
			},
			ContextTokenBudget: 2000,
		},
		History: HistoryConfig{
			MaxConversations:  50,
			MaxCachedMessages: 200,
			CleanupMinutes:    5,
		},
		Output: OutputConfig{
			Stream: true,
			Color:  true,
		},
	}
}

// Path returns the path to the config file.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "littlellm", "config.toml"), nil
}

// Load loads the config, applying defaults for any missing values.
func Load() (Config, error) {
	cfg := Default()

	path, err := Path()
	if err != nil {
		return cfg, nil // Return defaults if we can't determine home dir.
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // File doesn't exist yet, use defaults.
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("config: load: %w", err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv lets env vars override config file API keys.
func applyEnv(cfg *Config) {
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.Keys.Anthropic = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Keys.OpenAI = v
	}
}

// Save writes the config to disk.
func Save(cfg Config) error {
	path, err := Path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: mkdir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: create config: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// DataDir returns the root data directory: Storage.Dir when set, otherwise
// ~/.local/share/littlellm.
func (c Config) DataDir() (string, error) {
	if c.Storage.Dir != "" {
		return c.Storage.Dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve data dir: %w", err)
	}
	return filepath.Join(home, ".local", "share", "littlellm"), nil
}

// ConversationsDir returns the storage family directory for conversations.
func ConversationsDir(dataDir string) string {
	return filepath.Join(dataDir, "conversations")
}

// MemoriesDir returns the storage family directory for the file memory
// backend.
func MemoriesDir(dataDir string) string {
	return filepath.Join(dataDir, "memories")
}

// MemoryDBPath returns the SQLite database path for the sqlite memory
// backend.
func MemoryDBPath(dataDir string) string {
	return filepath.Join(dataDir, "memories.db")
}

// LegacyHistoryPath returns the path of the pre-migration single-blob
// history file.
func LegacyHistoryPath(dataDir string) string {
	return filepath.Join(dataDir, "history.json")
}

// CleanupInterval returns the history cleanup period as a duration.
func (c Config) CleanupInterval() time.Duration {
	if c.History.CleanupMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.History.CleanupMinutes) * time.Minute
}

// APIKey returns the configured key for a provider name.
func (c Config) APIKey(provider string) string {
	switch provider {
	case "claude", "anthropic":
		return c.Keys.Anthropic
	case "openai":
		return c.Keys.OpenAI
	}
	return ""
}
