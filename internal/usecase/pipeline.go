package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"FitScanner/internal/domain"
	"FitScanner/internal/ports"
)

const fetchErrorReport = "Erro ao acessar site"

// PipelineDeps wires the driven adapters into the processing pipeline.
type PipelineDeps struct {
	Crawler  ports.SiteCrawler
	Analyzer ports.ProfileAnalyzer
	Store    ports.RecordStore
	Logger   *slog.Logger
	Delay    time.Duration
}

// Pipeline iterates pending subjects: crawl, classify, persist. One subject
// is fully processed before the next begins; the store is checkpointed after
// every mutation so an interruption loses no completed work.
type Pipeline struct {
	crawler  ports.SiteCrawler
	analyzer ports.ProfileAnalyzer
	store    ports.RecordStore
	logger   *slog.Logger
	delay    time.Duration
}

// NewPipeline constructs the controller.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		crawler:  deps.Crawler,
		analyzer: deps.Analyzer,
		store:    deps.Store,
		logger:   deps.Logger,
		delay:    deps.Delay,
	}
}

// Run processes every pending record to completion. It returns early only on
// context cancellation or a fatal quota failure; in both cases the store is
// already checkpointed up to the last finished record.
func (p *Pipeline) Run(ctx context.Context) error {
	records := p.store.Records()
	total := len(records)

	var classified, skipped, failed int
	for i, rec := range records {
		if !rec.Pending() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if !strings.Contains(rec.Website, "http") {
			if strings.TrimSpace(rec.Website) != "" {
				p.info("skipping malformed url", "website", rec.Website)
			}
			skipped++
			continue
		}

		p.info("analyzing subject",
			"progress", fmt.Sprintf("%d/%d", i+1, total),
			"professor", rec.Professor,
			"website", rec.Website)

		siteText, err := p.crawler.Crawl(ctx, rec.Website)
		if err != nil {
			p.warn("site unreachable", "website", rec.Website, "error", err)
			rec.Fit = string(domain.FitErro)
			rec.Justificativa = fetchErrorReport
			failed++
			if err := p.store.Checkpoint(); err != nil {
				return fmt.Errorf("checkpoint after fetch error: %w", err)
			}
			continue
		}

		verdict, err := p.analyzer.Analyze(ctx, siteText)
		if err != nil {
			// Fatal: quota exhausted or run canceled. Persist committed
			// state and stop the whole run.
			if cpErr := p.store.Checkpoint(); cpErr != nil {
				p.warn("checkpoint before abort failed", "error", cpErr)
			}
			return fmt.Errorf("analyze %s: %w", rec.Website, err)
		}

		rec.Fit = string(verdict.Category)
		rec.Justificativa = verdict.Report
		if verdict.Category == domain.FitErro {
			failed++
		} else {
			classified++
		}

		if err := p.store.Checkpoint(); err != nil {
			return fmt.Errorf("checkpoint after classification: %w", err)
		}
		p.info("verdict persisted", "professor", rec.Professor, "fit", rec.Fit)

		if err := p.pause(ctx); err != nil {
			return err
		}
	}

	p.info("run complete", "classified", classified, "skipped", skipped, "errors", failed)
	return nil
}

// pause applies the fixed inter-record delay that keeps the pipeline under
// informal rate limits. Waits under the run context so cancellation is not
// stalled by pacing.
func (p *Pipeline) pause(ctx context.Context) error {
	if p.delay <= 0 {
		return nil
	}
	timer := time.NewTimer(p.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
