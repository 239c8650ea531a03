package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"FitScanner/internal/config"
	"FitScanner/internal/domain"
	"FitScanner/internal/ports"
)

const (
	// Inputs shorter than this carry no signal worth a billable call.
	minContentLength = 50
	// The prompt embeds at most this much site text.
	maxPromptContent = 8000

	defaultCallTimeout = 60 * time.Second

	insufficientReport = "Conteúdo insuficiente para análise."
)

// ModelCaller issues one completion request against a named model.
type ModelCaller interface {
	Call(ctx context.Context, model, prompt string) (string, error)
}

// googleAICaller adapts the langchaingo Gemini client to ModelCaller,
// selecting the model per call so one client serves the whole cascade.
type googleAICaller struct {
	client *googleai.GoogleAI
}

func (g *googleAICaller) Call(ctx context.Context, model, prompt string) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, g.client, prompt, llms.WithModel(model))
}

// Analyzer classifies site text through an ordered cascade of Gemini models.
type Analyzer struct {
	caller  ModelCaller
	models  []string
	timeout time.Duration
	logger  *slog.Logger
}

var _ ports.ProfileAnalyzer = (*Analyzer)(nil)

// New builds an Analyzer backed by the Gemini API. The credential must be
// present; its absence is a setup error, not a per-record failure.
func New(ctx context.Context, cfg config.GeminiConfig, logger *slog.Logger) (*Analyzer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini api key is not configured")
	}
	client, err := googleai.New(ctx, googleai.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	return NewWithCaller(&googleAICaller{client: client}, cfg.Models, timeout, logger), nil
}

// NewWithCaller wires an explicit caller; used by New and by tests.
func NewWithCaller(caller ModelCaller, models []string, timeout time.Duration, logger *slog.Logger) *Analyzer {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &Analyzer{caller: caller, models: models, timeout: timeout, logger: logger}
}

// Analyze submits the text to the model cascade and returns the verdict.
// Each model gets exactly one attempt: a failing backend is skipped, not
// retried, so quota is never burned on a backend that is already down.
// The returned error is non-nil only for the fatal cases described on
// ports.ProfileAnalyzer.
func (a *Analyzer) Analyze(ctx context.Context, siteText string) (domain.Verdict, error) {
	if utf8.RuneCountInString(strings.TrimSpace(siteText)) < minContentLength {
		return domain.Verdict{Report: insufficientReport, Category: domain.FitNA}, nil
	}

	prompt := buildPrompt(siteText)

	var lastErr error
	for _, model := range a.models {
		response, err := a.callWithTimeout(ctx, model, prompt)
		if err != nil {
			if ctx.Err() != nil {
				return domain.Verdict{}, ctx.Err()
			}
			if isQuotaError(err) {
				a.log(slog.LevelError, "quota exhausted, aborting cascade", model, err)
				return domain.Verdict{}, fmt.Errorf("model %s: %v: %w", model, err, domain.ErrQuotaExhausted)
			}
			a.log(slog.LevelWarn, "model attempt failed, trying next", model, err)
			lastErr = err
			continue
		}

		return domain.Verdict{Report: response, Category: ParseVerdict(response)}, nil
	}

	report := fmt.Sprintf("Erro na análise (todos os modelos falharam): %v", lastErr)
	return domain.Verdict{Report: report, Category: domain.FitErro}, nil
}

func (a *Analyzer) callWithTimeout(ctx context.Context, model, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return a.caller.Call(callCtx, model, prompt)
}

// isQuotaError sniffs quota-exhaustion wording out of an error string.
// The backend guarantees no structured code, so substring matching is the
// contract here; it stays behind this one function.
func isQuotaError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "resource exhausted")
}

func (a *Analyzer) log(level slog.Level, msg, model string, err error) {
	if a.logger != nil {
		a.logger.Log(context.Background(), level, msg, "model", model, "error", err)
	}
}

func buildPrompt(siteText string) string {
	return fmt.Sprintf(promptTemplate, truncateRunes(siteText, maxPromptContent))
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

const promptTemplate = `
Atue como um Recrutador Técnico Sênior e Especialista em Carreira de Dados (Data Science, ML e Engenharia de Dados).

Sua tarefa é avaliar o "Job Fit" (Compatibilidade) entre o perfil do candidato descrito abaixo e as informações coletadas do site de um professor (Research Interests/Projects).

### PERFIL DO CANDIDATO (CONTEXTO)
1. **Experiência Profissional:**
   - Atual: Estagiário em Machine Learning Engineering.
   - Anterior: Estagiário em Engenharia de Dados (foco em pipelines, ETL).
2. **Formação e Base Teórica:**
   - Forte base matemática: Cálculo, Álgebra Linear, Matemática Aplicada e Cálculo Numérico.
   - Conhecimentos avançados em Pesquisa Operacional (Método Simplex, Teoria das Filas, Otimização).
3. **Estudos Atuais em ML:**
   - Foco nos fundamentos teóricos e matemáticos dos algoritmos.
   - Cursos: Machine Learning Specialization (Andrew Ng).
   - Literatura: "Introduction to Statistical Learning" (ISLP) com aplicação em Python.

### CONTEÚDO DO SITE DO PROFESSOR
%s

### INSTRUÇÕES DE SAÍDA
Analise o conteúdo do site e retorne:

1. **Score de Compatibilidade (0-100%%):**
2. **Pontos Fortes (Match):**
3. **Gaps (Lacunas):**
4. **Veredito:**
5. **Classificação Final:** (OBRIGATÓRIO: Escolha APENAS UMA das opções: "Fit Muito Alto", "Fit Alto", "Fit Baixo", "Fit Muito Baixo")

Responda de forma direta.
`
