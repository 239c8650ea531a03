package ports

import (
	"context"

	"github.com/PuerkitoBio/goquery"

	"FitScanner/internal/domain"
)

// PageFetcher retrieves a single page and its visible-text rendering.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, string, error)
}

// SiteCrawler aggregates the relevant text of a subject's site, following a
// bounded set of links beyond the root page when the root alone is thin.
type SiteCrawler interface {
	Crawl(ctx context.Context, rootURL string) (string, error)
}

// ProfileAnalyzer classifies extracted site text into a fit verdict.
// Recoverable backend failures are absorbed into the returned Verdict
// (category Erro or N/A); a non-nil error is fatal to the whole run and is
// either domain.ErrQuotaExhausted or a context cancellation.
type ProfileAnalyzer interface {
	Analyze(ctx context.Context, siteText string) (domain.Verdict, error)
}

// RecordStore owns the persisted subject table for the duration of a run.
type RecordStore interface {
	Records() []*domain.Record
	Checkpoint() error
}
