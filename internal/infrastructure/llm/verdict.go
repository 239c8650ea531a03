package llm

import (
	"strings"

	"FitScanner/internal/domain"
)

// ParseVerdict maps a raw model response to the closed category set.
// The "muito" variants are checked before the plain ones so the longer
// phrasing is never shadowed by its substring. When no label is
// recognizable the result falls back to Fit Baixo: mis-formatted output
// must never be promoted to a high score.
func ParseVerdict(response string) domain.FitCategory {
	lower := strings.ToLower(response)
	switch {
	case strings.Contains(lower, "fit muito alto"):
		return domain.FitMuitoAlto
	case strings.Contains(lower, "fit alto"):
		return domain.FitAlto
	case strings.Contains(lower, "fit muito baixo"):
		return domain.FitMuitoBaixo
	case strings.Contains(lower, "fit baixo"):
		return domain.FitBaixo
	default:
		return domain.FitBaixo
	}
}
