package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/ai-stockassistant/internal/domain/advisor"
	"github.com/yanqian/ai-stockassistant/internal/domain/auth"
	"github.com/yanqian/ai-stockassistant/internal/infra/chatlog"
	"github.com/yanqian/ai-stockassistant/internal/infra/config"
	"github.com/yanqian/ai-stockassistant/internal/infra/llm/gemini"
	"github.com/yanqian/ai-stockassistant/internal/infra/responsecache"
	"github.com/yanqian/ai-stockassistant/internal/infra/tokenizer"
)

func provideAdvisorConfig(cfg *config.Config) advisor.Config {
	vocab := cfg.Advisor.Vocabulary
	return advisor.Config{
		Prompt:             cfg.Advisor.Prompt,
		Temperature:        cfg.LLM.Temperature,
		TopK:               cfg.LLM.TopK,
		TopP:               cfg.LLM.TopP,
		MaxOutputTokens:    cfg.LLM.MaxOutputTokens,
		CacheTTL:           cfg.Advisor.CacheTTL,
		MaxQueryLength:     cfg.Advisor.MaxQueryLength,
		Greeting:           cfg.Advisor.Greeting,
		SecondaryThreshold: cfg.Advisor.SecondaryThreshold,
		Disclaimers:        cfg.Advisor.Disclaimers,
		Vocabulary: advisor.Vocabulary{
			Symbols:        vocab.Symbols,
			Companies:      vocab.Companies,
			PrimaryTerms:   vocab.PrimaryTerms,
			SecondaryTerms: vocab.SecondaryTerms,
			Phrases:        vocab.Phrases,
		},
	}
}

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret:   cfg.Auth.Secret,
		Issuer:   cfg.Auth.Issuer,
		TokenTTL: cfg.Auth.TokenTTL,
	}
}

func provideGeminiClient(cfg *config.Config) (*gemini.Client, error) {
	return gemini.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.Timeout)
}

func provideTokenCounter(cfg *config.Config, logger *slog.Logger) *tokenizer.Counter {
	return tokenizer.NewCounter(cfg.LLM.TokenEncoding, logger)
}

// provideCacheStore builds the configured store, falling back to memory when
// the backend is unreachable so the assistant keeps answering.
func provideCacheStore(cfg *config.Config, logger *slog.Logger) (advisor.Store, func()) {
	switch cfg.Cache.Backend {
	case config.CacheBackendValkey:
		opt, err := buildValkeyOptions(cfg.Cache.Valkey.Addr)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
			break
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory store", "error", err)
			break
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory store", "error", err)
			client.Close()
			break
		}
		logger.Info("valkey response cache enabled", "addr", cfg.Cache.Valkey.Addr)
		return responsecache.NewValkeyStore(client, cfg.Cache.Valkey.Prefix), client.Close
	case config.CacheBackendSQLite:
		store, err := openSQLiteStore(cfg.Cache.SQLite.Path)
		if err != nil {
			logger.Error("sqlite cache unavailable, falling back to memory store", "error", err)
			break
		}
		logger.Info("sqlite response cache enabled", "path", cfg.Cache.SQLite.Path)
		return store, func() { _ = store.Close() }
	}
	return responsecache.NewMemoryStore(), func() {}
}

func openSQLiteStore(path string) (*responsecache.SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	return responsecache.NewSQLiteStore(path)
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

func provideHistoryRepository(cfg *config.Config, logger *slog.Logger) (advisor.HistoryRepository, func()) {
	fallback := chatlog.NewMemoryRepository()
	noop := func() {}
	dsn := strings.TrimSpace(cfg.History.Postgres.DSN)
	if dsn == "" {
		logger.Info("history postgres dsn not set, using memory repository")
		return fallback, noop
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repository", "error", err)
		return fallback, noop
	}
	if cfg.History.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.History.Postgres.MaxConns
	}
	if cfg.History.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.History.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repository", "error", err)
		return fallback, noop
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repository", "error", err)
		pool.Close()
		return fallback, noop
	}
	repo := chatlog.NewPostgresRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Error("postgres schema setup failed, using memory repository", "error", err)
		pool.Close()
		return fallback, noop
	}
	logger.Info("history postgres repository enabled")
	return repo, pool.Close
}
