package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"

	"github.com/khetrent/khetrent/internal/config"
	"github.com/khetrent/khetrent/internal/database"
	"github.com/khetrent/khetrent/internal/embedding"
	"github.com/khetrent/khetrent/internal/knowledge"
	"github.com/khetrent/khetrent/internal/memory"
	"github.com/khetrent/khetrent/internal/rag"
)

// Setup creates and initializes the application. On error everything
// already initialized is released; on success the caller owns Close.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{Config: cfg, Logger: logger}
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	if err := database.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	pool, err := database.Open(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return nil, err
	}
	a.DBPool = pool

	g, embedder, err := provideEmbedder(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Genkit = g
	a.Embedder = embedder

	client, err := embedding.NewClient(embedder)
	if err != nil {
		return nil, err
	}
	a.Client = client

	if a.Knowledge, err = knowledge.NewStore(pool, logger); err != nil {
		return nil, err
	}
	if a.Sources, err = knowledge.NewSourceStore(pool, logger); err != nil {
		return nil, err
	}
	if a.Queue, err = knowledge.NewQueueStore(pool, logger); err != nil {
		return nil, err
	}
	if a.Processor, err = knowledge.NewProcessor(a.Queue, a.Knowledge, a.Sources, client, logger); err != nil {
		return nil, err
	}
	if a.Syncer, err = knowledge.NewSyncer(a.Knowledge, a.Sources, client, logger); err != nil {
		return nil, err
	}
	if a.Builder, err = rag.NewBuilder(client, a.Knowledge, logger); err != nil {
		return nil, err
	}

	repo, err := memory.NewPGRepository(pool, logger)
	if err != nil {
		return nil, err
	}
	if a.Memory, err = memory.NewService(repo, client, logger); err != nil {
		return nil, err
	}

	logger.Info("application initialized",
		"embedder", cfg.EmbedderModel,
		"postgres", cfg.PostgresHost,
	)
	return a, nil
}

// provideEmbedder initializes Genkit with the Google AI plugin and looks
// up the configured Gemini embedder. The plugin reads GEMINI_API_KEY
// from the environment.
func provideEmbedder(ctx context.Context, cfg *config.Config) (*genkit.Genkit, ai.Embedder, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, nil, errors.New("initializing genkit with gemini provider")
	}

	embedder := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	if embedder == nil {
		return nil, nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}
	return g, embedder, nil
}
