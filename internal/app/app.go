package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/RIDLEYsan/studio-classification-app/internal/batch"
	"github.com/RIDLEYsan/studio-classification-app/internal/config"
	"github.com/RIDLEYsan/studio-classification-app/internal/fewshot"
	"github.com/RIDLEYsan/studio-classification-app/internal/history"
	"github.com/RIDLEYsan/studio-classification-app/internal/imageset"
	"github.com/RIDLEYsan/studio-classification-app/internal/llm"
	"github.com/RIDLEYsan/studio-classification-app/internal/metrics"
	"github.com/RIDLEYsan/studio-classification-app/internal/prompts"
	"github.com/RIDLEYsan/studio-classification-app/internal/taxonomy"
)

// App holds the components shared by the classifier CLI and the server
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Classifier llm.Classifier
	Prompts    *prompts.PromptManager
	Taxonomy   *taxonomy.Taxonomy
	Examples   *fewshot.Set
	History    *history.Store // nil when HISTORY_DSN is empty
	Metrics    *metrics.Metrics
	Runner     *batch.Runner
}

// New wires the provider, category set, prompts, few-shot examples, history and
// the batch runner from cfg. Any error here is a setup failure.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Config: cfg, Logger: logger, Metrics: metrics.New()}

	var err error
	a.Taxonomy, err = taxonomy.Load(cfg.TaxonomyFile)
	if err != nil {
		return nil, err
	}

	a.Prompts, err = prompts.NewPromptManager()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize prompt manager: %w", err)
	}

	a.Classifier, err = llm.NewProvider(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AI provider: %w", err)
	}

	a.Examples, err = fewshot.Load(cfg.FewShotDir, a.Taxonomy, cfg.MaxImageBytes, logger)
	if err != nil {
		return nil, err
	}

	opts := []batch.Option{
		batch.WithLogger(logger),
		batch.WithPrompts(a.Prompts),
		batch.WithExamples(a.Examples),
		batch.WithMetrics(a.Metrics),
		batch.WithLoader(imageset.NewLoader(cfg.MaxImagesPerFolder, cfg.MaxImageBytes, logger)),
		batch.WithRequestBudget(cfg.MaxRequestBytes),
	}

	if cfg.HistoryEnabled() {
		a.History, err = history.Open(cfg.HistoryDriver, cfg.HistoryDSN, logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts, batch.WithRecorder(a.History))
		logger.Info("Analysis history enabled", zap.String("driver", cfg.HistoryDriver))
	}

	a.Runner, err = batch.NewRunner(a.Classifier, a.Taxonomy, opts...)
	if err != nil {
		a.Close()
		return nil, err
	}

	logger.Info("Classifier ready",
		zap.String("provider", a.Classifier.GetProviderName()),
		zap.Int("categories", len(a.Taxonomy.Categories)),
		zap.Int("examples", a.Examples.Len()))
	return a, nil
}

// Close releases the history connection
func (a *App) Close() {
	if a.History == nil {
		return
	}
	if err := a.History.Close(); err != nil {
		a.Logger.Warn("Failed to close history store", zap.Error(err))
	}
}
