package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/NickPittas/littlellm-go/internal/adapter"
	"github.com/NickPittas/littlellm-go/internal/config"
	"github.com/NickPittas/littlellm-go/internal/conversation"
	"github.com/NickPittas/littlellm-go/internal/db"
	"github.com/NickPittas/littlellm-go/internal/memory"
	"github.com/NickPittas/littlellm-go/internal/store"
)

// app bundles the services a command needs: config, conversation history,
// and the memory store with its automatic manager.
type app struct {
	cfg           config.Config
	dataDir       string
	conversations *conversation.Service
	convStore     *store.FileStore[conversation.Meta, conversation.Conversation]
	memories      memory.Store
	manager       *memory.Manager
	database      *db.DB
	logger        *slog.Logger
}

// openApp loads config and opens every store. Callers must Close.
func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	dataDir, err := cfg.DataDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	level := slog.LevelWarn
	if cfg.Output.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	convStore, err := store.NewFileStore[conversation.Meta, conversation.Conversation](config.ConversationsDir(dataDir))
	if err != nil {
		return nil, err
	}
	svc := conversation.NewService(convStore, conversation.Options{
		MaxConversations:  cfg.History.MaxConversations,
		MaxCachedMessages: cfg.History.MaxCachedMessages,
		CleanupInterval:   cfg.CleanupInterval(),
		LegacyBlobPath:    config.LegacyHistoryPath(dataDir),
		Logger:            logger,
	})
	svc.Initialize()

	a := &app{
		cfg:           cfg,
		dataDir:       dataDir,
		conversations: svc,
		convStore:     convStore,
		logger:        logger,
	}

	switch cfg.Storage.MemoryBackend {
	case "sqlite":
		database, err := db.Open(config.MemoryDBPath(dataDir))
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("open memory db: %w", err)
		}
		a.database = database
		a.memories = memory.NewSQLBackend(database)
	default:
		memStore, err := store.NewFileStore[memory.Meta, memory.Entry](config.MemoriesDir(dataDir))
		if err != nil {
			svc.Close()
			return nil, err
		}
		a.memories = memory.NewFileBackend(memStore)
	}

	a.manager = memory.NewManager(a.memories, managerConfig(cfg.Memory), logger)
	if cfg.Memory.ContextTokenBudget > 0 {
		// Best-effort: without the encoding the context block is uncapped.
		if tok, err := memory.NewTokenizer(); err == nil {
			a.manager.SetTokenBudget(tok, cfg.Memory.ContextTokenBudget)
		} else {
			logger.Debug("tokenizer unavailable", "error", err)
		}
	}
	return a, nil
}

func (a *app) Close() {
	a.conversations.Close()
	if a.database != nil {
		a.database.Close()
	}
}

// managerConfig translates the TOML memory section into manager settings.
// Unknown auto-save type names are dropped.
func managerConfig(mc config.MemoryConfig) memory.Config {
	cfg := memory.DefaultConfig()
	cfg.EnableAutoSearch = mc.AutoSearch
	cfg.EnableAutoSave = mc.AutoSave
	if mc.SearchThreshold > 0 {
		cfg.SearchThreshold = mc.SearchThreshold
	}
	if mc.SaveThreshold > 0 {
		cfg.SaveThreshold = mc.SaveThreshold
	}
	if mc.MaxContextMemories > 0 {
		cfg.MaxContextMemories = mc.MaxContextMemories
	}
	if len(mc.AutoSaveTypes) > 0 {
		var types []memory.EntryType
		for _, name := range mc.AutoSaveTypes {
			if t := memory.EntryType(name); memory.ValidEntryType(t) {
				types = append(types, t)
			}
		}
		cfg.AutoSaveTypes = types
	}
	return cfg
}

// newAdapter builds the chat adapter for the effective provider.
func (a *app) newAdapter(override string) (adapter.ChatAdapter, string, error) {
	provider := a.cfg.DefaultProvider
	if override != "" {
		provider = override
	}
	llm, err := adapter.New(provider, a.cfg.APIKey(provider))
	if err != nil {
		return nil, "", err
	}
	return llm, provider, nil
}
