package domain

import (
	"errors"
	"strings"
)

// FitCategory is the closed classification label assigned to a subject.
type FitCategory string

const (
	FitMuitoAlto  FitCategory = "Fit Muito Alto"
	FitAlto       FitCategory = "Fit Alto"
	FitBaixo      FitCategory = "Fit Baixo"
	FitMuitoBaixo FitCategory = "Fit Muito Baixo"
	FitErro       FitCategory = "Erro"
	FitNA         FitCategory = "N/A"
)

// ErrQuotaExhausted marks an account-wide quota failure on the model API.
// Once it surfaces, further classification attempts are futile until the
// quota resets, so the whole run must stop.
var ErrQuotaExhausted = errors.New("model quota exhausted")

// Record is one tracked person's row in the master store.
type Record struct {
	Professor     string
	Universidade  string
	Area          string
	Website       string
	Email         string
	Fit           string
	Justificativa string
}

// nullTokens are string renderings of missing values that show up in CSVs
// produced by earlier tooling.
var nullTokens = map[string]struct{}{
	"":     {},
	"nan":  {},
	"none": {},
	"null": {},
}

// Pending reports whether the record still needs crawling and classification.
// Empty fits and error fits are pending; any final category, including N/A,
// is terminal until an explicit reset.
func (r *Record) Pending() bool {
	fit := strings.TrimSpace(r.Fit)
	if _, ok := nullTokens[strings.ToLower(fit)]; ok {
		return true
	}
	return fit == string(FitErro)
}

// Verdict is the outcome of one classification: the raw model response kept
// verbatim plus the category parsed out of it.
type Verdict struct {
	Report   string
	Category FitCategory
}

// NormalizeWebsite produces the identity key used for deduplication:
// whitespace trimmed, trailing slashes stripped.
func NormalizeWebsite(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

// FitRank orders categories best-first for the consolidated output file.
// Unknown or empty fits sort last together with errors.
func FitRank(fit string) int {
	switch FitCategory(strings.TrimSpace(fit)) {
	case FitMuitoAlto:
		return 0
	case FitAlto:
		return 1
	case FitBaixo:
		return 2
	case FitMuitoBaixo:
		return 3
	default:
		return 99
	}
}
