package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"FitScanner/internal/domain"
	"FitScanner/internal/ports"
)

const (
	// A root page above this length is assumed content-rich enough that
	// following links buys nothing.
	richRootThreshold = 5000
	// Below this length the root is a "business-card" page and the
	// link-selection rule is relaxed.
	shortRootThreshold = 1000
	// Supplemental pages shorter than this are redirect/login shells and
	// are discarded.
	minSupplementLength = 200
	// Upper bound on the aggregate handed to the classifier.
	maxAggregateLength = 25000

	maxFollowsShortRoot = 3
	maxFollowsDefault   = 2
)

// blockedDomains are social networks, aggregators and platforms whose pages
// never describe the subject's own research.
var blockedDomains = []string{
	"linkedin.com",
	"youtube.com",
	"google.com",
	"facebook.com",
	"twitter.com",
	"x.com",
	"instagram.com",
	"researchgate.net",
	"lattes.cnpq.br",
}

// blockedExtensions keep the crawler on HTML pages.
var blockedExtensions = []string{".pdf", ".doc", ".docx", ".zip", ".png", ".jpg", ".jpeg"}

// researchKeywords mark a link as worth following regardless of root length.
// Partial stems cover both English and Portuguese variants.
var researchKeywords = []string{
	"research", "publication", "project", "lab", "group",
	"pesquisa", "publica", "projeto", "laborat", "grupo",
}

// genericNavTerms disqualify a link from the short-page fallback rule.
var genericNavTerms = []string{
	"home", "contact", "email", "login", "sign in", "back",
	"início", "inicio", "contato", "entrar", "voltar",
}

// Crawler aggregates a subject's site into one text blob: the root page plus
// a bounded set of heuristically chosen supplemental pages.
type Crawler struct {
	fetcher ports.PageFetcher
	logger  *slog.Logger
}

var _ ports.SiteCrawler = (*Crawler)(nil)

// New composes a crawler over the given fetcher.
func New(fetcher ports.PageFetcher, logger *slog.Logger) *Crawler {
	return &Crawler{fetcher: fetcher, logger: logger}
}

type candidate struct {
	label string
	url   string
}

// Crawl fetches the root page and, unless it is already content-rich,
// follows up to a few relevant links, concatenating labeled sections.
func (c *Crawler) Crawl(ctx context.Context, rootURL string) (string, error) {
	doc, rootText, err := c.fetcher.Fetch(ctx, rootURL)
	if err != nil {
		return "", fmt.Errorf("fetch root page: %w", err)
	}

	var agg strings.Builder
	agg.WriteString("=== PÁGINA INICIAL (" + rootURL + ") ===\n")
	agg.WriteString(rootText)

	rootLen := utf8.RuneCountInString(rootText)
	if rootLen > richRootThreshold {
		c.debug("root page is content-rich, skipping link follow", rootURL, rootLen)
		return truncate(agg.String(), maxAggregateLength), nil
	}

	shortRoot := rootLen < shortRootThreshold
	limit := maxFollowsDefault
	if shortRoot {
		limit = maxFollowsShortRoot
	}

	visited := map[string]struct{}{
		domain.NormalizeWebsite(rootURL): {},
	}

	followed := 0
	for _, link := range c.selectLinks(doc, rootURL, shortRoot) {
		if followed >= limit {
			break
		}
		key := domain.NormalizeWebsite(link.url)
		if _, seen := visited[key]; seen {
			continue
		}
		visited[key] = struct{}{}
		followed++

		_, text, err := c.fetcher.Fetch(ctx, link.url)
		if err != nil {
			c.debug("supplemental fetch failed", link.url, 0)
			continue
		}
		if n := utf8.RuneCountInString(text); n <= minSupplementLength {
			c.debug("supplemental page too thin, discarded", link.url, n)
			continue
		}

		agg.WriteString("\n\n=== " + strings.ToUpper(link.label) + " (" + link.url + ") ===\n")
		agg.WriteString(text)
	}

	return truncate(agg.String(), maxAggregateLength), nil
}

func (c *Crawler) debug(msg, url string, length int) {
	if c.logger != nil {
		c.logger.Debug(msg, "url", url, "length", length)
	}
}

// selectLinks enumerates the root page's anchors, applies the exclusion
// filters, and keeps those passing the keyword rule or, for short roots,
// the fallback rule. Document order is preserved.
func (c *Crawler) selectLinks(doc *goquery.Document, rootURL string, shortRoot bool) []candidate {
	base, err := url.Parse(rootURL)
	if err != nil {
		return nil
	}
	rootKey := domain.NormalizeWebsite(rootURL)

	var picked []candidate
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		label := strings.TrimSpace(a.Text())

		if href == "" || strings.HasPrefix(href, "#") || label == "" {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		resolved.Fragment = ""

		target := resolved.String()
		if domain.NormalizeWebsite(target) == rootKey {
			return
		}
		if blockedDomain(resolved.Hostname()) || blockedExtension(resolved.Path) {
			return
		}

		if relevantByKeyword(label, target) {
			picked = append(picked, candidate{label: label, url: target})
			return
		}
		if shortRoot && relevantByFallback(label) {
			picked = append(picked, candidate{label: label, url: target})
		}
	})

	return picked
}

func relevantByKeyword(label, target string) bool {
	label = strings.ToLower(label)
	target = strings.ToLower(target)
	for _, kw := range researchKeywords {
		if strings.Contains(label, kw) || strings.Contains(target, kw) {
			return true
		}
	}
	return false
}

// relevantByFallback accepts any substantive link on a business-card page:
// often the one useful link there is the lab site, labeled with a person or
// group name rather than a research keyword.
func relevantByFallback(label string) bool {
	if len([]rune(label)) <= 2 {
		return false
	}
	lower := strings.ToLower(label)
	for _, term := range genericNavTerms {
		if strings.Contains(lower, term) {
			return false
		}
	}
	return true
}

func blockedDomain(host string) bool {
	host = strings.ToLower(host)
	for _, d := range blockedDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func blockedExtension(path string) bool {
	path = strings.ToLower(path)
	for _, ext := range blockedExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
