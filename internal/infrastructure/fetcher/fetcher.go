package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"FitScanner/internal/ports"
)

const defaultTimeout = 10 * time.Second

// droppedElements are structural parts of a page a visitor does not read as
// content; they are removed before text extraction.
const droppedElements = "script, style, nav, footer, iframe, noscript"

// Fetcher downloads a single page and renders its visible text.
type Fetcher struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

var _ ports.PageFetcher = (*Fetcher)(nil)

// New wires an HTTP client; a nil client gets a 10s timeout default.
func New(client *http.Client, userAgent string, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Fetcher{client: client, userAgent: userAgent, logger: logger}
}

// Fetch performs one GET and returns the parsed document plus its visible
// text. Transport errors, non-2xx statuses and parse failures all collapse
// into a single returned error; the cause is only logged.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*goquery.Document, string, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, "", fmt.Errorf("empty url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		f.warn("invalid url", rawURL, err)
		return nil, "", fmt.Errorf("fetch %s failed", rawURL)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.warn("request failed", rawURL, err)
		return nil, "", fmt.Errorf("fetch %s failed", rawURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		f.warn("unexpected status", rawURL, fmt.Errorf("status %s", resp.Status))
		return nil, "", fmt.Errorf("fetch %s failed", rawURL)
	}

	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		f.warn("charset detection failed", rawURL, err)
		return nil, "", fmt.Errorf("fetch %s failed", rawURL)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		f.warn("parse failed", rawURL, err)
		return nil, "", fmt.Errorf("fetch %s failed", rawURL)
	}

	doc.Find(droppedElements).Remove()

	return doc, visibleText(doc), nil
}

// visibleText renders a human-readable approximation of what a visitor sees:
// runs of whitespace collapse to single spaces and blank lines disappear.
func visibleText(doc *goquery.Document) string {
	root := doc.Selection
	if body := doc.Find("body"); body.Length() > 0 {
		root = body
	}

	var lines []string
	for _, line := range strings.Split(root.Text(), "\n") {
		if fields := strings.Fields(line); len(fields) > 0 {
			lines = append(lines, strings.Join(fields, " "))
		}
	}
	return strings.Join(lines, "\n")
}

func (f *Fetcher) warn(msg, url string, err error) {
	if f.logger != nil {
		f.logger.Warn(msg, "url", url, "error", err)
	}
}
