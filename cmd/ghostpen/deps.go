package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/ghostpen/internal/cache"
	"github.com/jonathan/ghostpen/internal/db"
	"github.com/jonathan/ghostpen/internal/ingestion"
	"github.com/jonathan/ghostpen/internal/lexicon"
	"github.com/jonathan/ghostpen/internal/llm"
	"github.com/jonathan/ghostpen/internal/pipeline"
	"github.com/jonathan/ghostpen/internal/profiler"
	"github.com/jonathan/ghostpen/internal/prompting"
	"github.com/jonathan/ghostpen/internal/prompts"
	"github.com/jonathan/ghostpen/internal/scoring"
	"github.com/jonathan/ghostpen/internal/types"
)

// cleanupFunc releases resources acquired while wiring a command.
type cleanupFunc func()

func noCleanup() {}

// loadLexicon resolves the --lexicon flag, falling back to the configured path.
func loadLexicon(flag string) (*lexicon.Lexicon, error) {
	name := flag
	if name == "" {
		name = appConfig.LexiconPath
	}
	if name == "" {
		return lexicon.Default(), nil
	}
	return lexicon.Resolve(name)
}

// openStore opens the configured database.
func openStore(ctx context.Context) (db.Store, error) {
	store, err := db.Open(ctx, appConfig.DatabaseURL, appConfig.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

// newProfileCache returns a Redis cache when REDIS_URL is configured and an
// in-memory cache otherwise.
func newProfileCache(ctx context.Context) (cache.ProfileCache, cleanupFunc, error) {
	if appConfig.RedisURL == "" {
		return cache.NewMemoryCache(), noCleanup, nil
	}
	client, err := cache.NewRedisClient(ctx, appConfig.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("using redis profile cache", zap.Duration("ttl", time.Duration(appConfig.ProfileCacheTTL)))
	c := cache.NewRedisCache(client, cache.RedisOptions{TTL: time.Duration(appConfig.ProfileCacheTTL)})
	return c, func() { _ = client.Close() }, nil
}

func newProfiler(algorithm string, lex *lexicon.Lexicon, c cache.ProfileCache) (*profiler.Profiler, error) {
	if algorithm == "" {
		algorithm = appConfig.Algorithm
	}
	version, err := types.ParseAlgorithmVersion(algorithm)
	if err != nil {
		return nil, err
	}
	return profiler.New(profiler.Options{
		Version: version,
		Lexicon: lex,
		Cache:   c,
		Logger:  logger,
	}), nil
}

// newGenerator wraps the Gemini client in a ResilientGenerator. Without an
// API key only the template fallback is used.
func newGenerator(ctx context.Context) (*llm.ResilientGenerator, cleanupFunc, error) {
	opts := llm.ResilientOptions{
		Timeout: time.Duration(appConfig.GenerationTimeout),
		Logger:  logger,
	}
	if appConfig.APIKey == "" {
		logger.Info("GEMINI_API_KEY not set, using template generator only")
		return llm.NewResilientGenerator(opts), noCleanup, nil
	}

	cfg := llm.DefaultConfig()
	if appConfig.Model != "" {
		cfg.SetModel(llm.TierStandard, appConfig.Model)
	}
	client, err := llm.NewClient(ctx, cfg, appConfig.APIKey)
	if err != nil {
		return nil, nil, err
	}
	opts.Primary = llm.NewGeminiGenerator(client, llm.TierStandard, logger)
	return llm.NewResilientGenerator(opts), func() { _ = client.Close() }, nil
}

// profileSource serves profiles from a profiles file when path is set and
// from the database otherwise.
func profileSource(ctx context.Context, path string) (prompting.ProfileSource, cleanupFunc, error) {
	if path != "" {
		f, err := ingestion.LoadProfiles(path)
		if err != nil {
			return nil, nil, err
		}
		return prompting.NewStaticProfiles(f), noCleanup, nil
	}
	store, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}

// newPipeline wires the generation pipeline over source.
func newPipeline(ctx context.Context, source prompting.ProfileSource, lex *lexicon.Lexicon) (*pipeline.Pipeline, cleanupFunc, error) {
	gen, cleanup, err := newGenerator(ctx)
	if err != nil {
		return nil, nil, err
	}
	return pipeline.New(pipeline.Options{
		Builder:   prompting.NewBuilder(prompts.DefaultRules(), source),
		Generator: gen,
		Scorer:    scoring.New(lex),
		MaxTokens: appConfig.MaxTokens,
		Logger:    logger,
	}), cleanup, nil
}
