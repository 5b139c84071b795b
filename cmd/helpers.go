package cmd

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/sporefield/mycelium/internal/config"
	"github.com/sporefield/mycelium/internal/engine"
	"github.com/sporefield/mycelium/internal/llm"
	"github.com/sporefield/mycelium/internal/retrieval"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `mycelium init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger. Logs go to stderr so stdout stays
// clean for the REPL and for MCP stdio framing.
func newLogger() (*zap.Logger, error) {
	logCfg := zap.NewProductionConfig()
	if verbose {
		logCfg = zap.NewDevelopmentConfig()
	}
	logCfg.OutputPaths = []string{"stderr"}
	logCfg.ErrorOutputPaths = []string{"stderr"}
	return logCfg.Build()
}

// createProviderFromConfig creates the LLM provider, wrapped with a rate
// limiter when the config caps requests per minute.
func createProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.FastModel)
	if err != nil {
		return nil, err
	}
	if cfg.RateLimitRPM > 0 {
		provider = llm.NewRateLimitedProvider(provider, cfg.RateLimitRPM)
	}
	return provider, nil
}

// createEmbedderFromConfig creates the embedder used for corpus retrieval.
func createEmbedderFromConfig(cfg *config.Config) (retrieval.Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}

	apiKey := os.Getenv(config.APIKeyEnvVar(provider))
	if apiKey == "" {
		return nil, fmt.Errorf("%s environment variable is required for %s embeddings", config.APIKeyEnvVar(provider), provider)
	}

	switch provider {
	case config.ProviderOpenAI:
		return retrieval.NewOpenAIEmbedder(apiKey, retrieval.OpenAIModel(cfg.EmbeddingModel)), nil
	case config.ProviderGoogle:
		return retrieval.NewGoogleEmbedder(apiKey, retrieval.GoogleModel(cfg.EmbeddingModel)), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", provider)
	}
}

// buildSearchBackend indexes the configured corpus and returns it as the
// engine's search backend. Returns nil when no corpus is configured, in
// which case tool calls get a synthesized stand-in result.
func buildSearchBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (engine.SearchBackend, error) {
	if cfg.CorpusDir == "" {
		return nil, nil
	}

	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	store, err := retrieval.NewStore(embedder)
	if err != nil {
		return nil, fmt.Errorf("creating retrieval store: %w", err)
	}

	count, err := retrieval.IndexCorpus(ctx, store, cfg.CorpusDir, cfg.Include, cfg.Exclude, verbose)
	if err != nil {
		return nil, fmt.Errorf("indexing corpus %s: %w", cfg.CorpusDir, err)
	}
	logger.Info("corpus indexed",
		zap.String("dir", cfg.CorpusDir),
		zap.Int("documents", count))

	return store, nil
}

// buildEngine assembles the growth engine from config.
func buildEngine(ctx context.Context, cfg *config.Config, logger *zap.Logger, onEvent func(engine.Event)) (*engine.Engine, error) {
	provider, err := createProviderFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	search, err := buildSearchBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	return engine.New(engine.Options{
		Provider:  provider,
		FastModel: cfg.FastModel,
		DeepModel: cfg.DeepModel,
		Search:    search,
		Logger:    logger,
		OnEvent:   onEvent,
	}), nil
}
