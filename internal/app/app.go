package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"FitScanner/internal/config"
	"FitScanner/internal/infrastructure/crawler"
	"FitScanner/internal/infrastructure/fetcher"
	"FitScanner/internal/infrastructure/llm"
	"FitScanner/internal/infrastructure/store"
	"FitScanner/internal/logging"
	"FitScanner/internal/ports"
	"FitScanner/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	store    *store.CSVStore
	pipeline *usecase.Pipeline
}

// New builds a runnable application instance. It fails fast when the
// classifier credential is missing: that is a setup problem to fix before
// any record is touched, not a per-record failure.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	analyzer, err := llm.New(ctx, cfg.Gemini, baseLogger.With("component", "classifier"))
	if err != nil {
		return nil, fmt.Errorf("classifier setup: %w", err)
	}

	st, err := store.Open(cfg.Pipeline.MasterFile, baseLogger.With("component", "store"))
	if err != nil {
		return nil, fmt.Errorf("record store: %w", err)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Crawler:  NewCrawler(cfg, baseLogger),
		Analyzer: analyzer,
		Store:    st,
		Logger:   baseLogger.With("component", "pipeline"),
		Delay:    time.Duration(cfg.Pipeline.DelaySeconds) * time.Second,
	})

	return &Application{cfg: cfg, logger: baseLogger, store: st, pipeline: pipeline}, nil
}

// NewCrawler builds the fetch/crawl stack on its own. The crawl preview
// mode uses it directly since previewing needs no credential or store.
func NewCrawler(cfg config.Config, baseLogger *slog.Logger) ports.SiteCrawler {
	client := &http.Client{Timeout: time.Duration(cfg.Crawler.TimeoutSeconds) * time.Second}
	f := fetcher.New(client, cfg.Crawler.UserAgent, baseLogger.With("component", "fetcher"))
	return crawler.New(f, baseLogger.With("component", "crawler"))
}

// Run merges pending intake files into the master store, commits the merge,
// then processes every pending record.
func (a *Application) Run(ctx context.Context) error {
	if glob := a.cfg.Pipeline.IntakeGlob; glob != "" {
		added, err := a.store.MergeIntake(glob)
		if err != nil {
			return fmt.Errorf("merge intake: %w", err)
		}
		if added > 0 {
			a.logger.Info("intake merged", "new_subjects", added)
		}
		if err := a.store.Checkpoint(); err != nil {
			return fmt.Errorf("commit merged store: %w", err)
		}
	}

	a.logger.Info("starting run", "subjects", a.store.Len())
	return a.pipeline.Run(ctx)
}
